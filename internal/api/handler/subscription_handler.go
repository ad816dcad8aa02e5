package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/moviestream/streaming-api/internal/core/domain"
	"github.com/moviestream/streaming-api/internal/core/ports"
)

const maxWebhookBody = 1 << 20

// SignatureVerifier authenticates a raw webhook body.
type SignatureVerifier interface {
	Verify(payload []byte, header string) error
}

// EventDispatcher is the interface the handler uses to enqueue billing events.
type EventDispatcher interface {
	Enqueue(event domain.BillingEvent) error
}

// EventParser decodes a verified webhook body.
type EventParser func(payload []byte) (domain.BillingEvent, error)

// SubscriptionHandler serves plans, the caller's subscription and the billing webhook.
type SubscriptionHandler struct {
	settings        ports.SettingsService
	subscriptions   ports.SubscriptionService
	verifier        SignatureVerifier
	parse           EventParser
	dispatcher      EventDispatcher
	signatureHeader string
	log             zerolog.Logger
}

func NewSubscriptionHandler(
	settings ports.SettingsService,
	subscriptions ports.SubscriptionService,
	verifier SignatureVerifier,
	parse EventParser,
	dispatcher EventDispatcher,
	signatureHeader string,
	log zerolog.Logger,
) *SubscriptionHandler {
	return &SubscriptionHandler{
		settings:        settings,
		subscriptions:   subscriptions,
		verifier:        verifier,
		parse:           parse,
		dispatcher:      dispatcher,
		signatureHeader: signatureHeader,
		log:             log,
	}
}

// Plans handles GET /api/subscriptions/plans.
//
// @Summary      Subscription plans
// @Tags         subscriptions
// @Produce      json
// @Success      200  {object}  plansResponse
// @Router       /subscriptions/plans [get]
func (h *SubscriptionHandler) Plans(c echo.Context) error {
	plans, err := h.settings.Plans(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, plansResponse{Plans: plans})
}

// Current handles GET /api/subscriptions.
//
// @Summary      The caller's subscription
// @Tags         subscriptions
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  subscriptionResponse
// @Failure      401  {object}  errorResponse
// @Router       /subscriptions [get]
func (h *SubscriptionHandler) Current(c echo.Context) error {
	claim, err := ctxClaim(c)
	if err != nil {
		return err
	}
	sub, err := h.subscriptions.Current(c.Request().Context(), claim.AccountID)
	if err != nil && !errors.Is(err, domain.ErrSubscriptionNotFound) {
		return err
	}
	return c.JSON(http.StatusOK, subscriptionResponse{Subscription: sub})
}

// Webhook handles POST /api/subscriptions/webhook. The event is verified,
// decoded and queued; processing happens asynchronously.
//
// @Summary      Payment provider webhook
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Param        Stripe-Signature  header    string  true  "t=<unix>,v1=<hex hmac>"
// @Success      202               {object}  acceptedResponse
// @Failure      400               {object}  errorResponse
// @Failure      503               {object}  errorResponse
// @Router       /subscriptions/webhook [post]
func (h *SubscriptionHandler) Webhook(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
	}
	if len(body) > maxWebhookBody {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "payload too large")
	}

	if err := h.verifier.Verify(body, c.Request().Header.Get(h.signatureHeader)); err != nil {
		h.log.Warn().Err(err).Str("ip", c.RealIP()).Msg("rejected webhook")
		return err
	}

	event, err := h.parse(body)
	if err != nil {
		return err
	}

	if err := h.dispatcher.Enqueue(event); err != nil {
		h.log.Error().Err(err).Str("event_id", event.ID).Str("type", event.Type).Msg("enqueue billing event")
		return echo.NewHTTPError(http.StatusServiceUnavailable, "billing queue unavailable").SetInternal(err)
	}
	return c.JSON(http.StatusAccepted, acceptedResponse{Message: "event accepted", EventID: event.ID})
}
