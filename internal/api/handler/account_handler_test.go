package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/moviestream/streaming-api/internal/core/domain"
)

func TestAccountHandler_Get(t *testing.T) {
	stub := &stubAccountService{accounts: map[string]*domain.Account{
		"acc-1": {ID: "acc-1", Email: "ana@example.com", Role: domain.RoleSubscriber},
	}}

	c, rec := newTestContext(http.MethodGet, "/api/users/acc-1", "")
	c.SetParamNames("id")
	c.SetParamValues("acc-1")
	if err := NewAccountHandler(stub).Get(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp accountEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.User == nil || resp.User.ID != "acc-1" {
		t.Fatalf("unexpected account: %+v", resp.User)
	}

	c, _ = newTestContext(http.MethodGet, "/api/users/nope", "")
	c.SetParamNames("id")
	c.SetParamValues("nope")
	if err := NewAccountHandler(stub).Get(c); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}
