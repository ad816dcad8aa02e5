package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/moviestream/streaming-api/internal/core/domain"
	"github.com/moviestream/streaming-api/internal/core/ports"
)

type settingsService struct {
	repo     ports.SettingsRepository
	validate *validator.Validate
	log      zerolog.Logger
	now      func() time.Time
}

func NewSettingsService(repo ports.SettingsRepository, log zerolog.Logger) ports.SettingsService {
	return &settingsService{
		repo:     repo,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log,
		now:      time.Now,
	}
}

func (s *settingsService) Get(ctx context.Context) (*domain.Settings, error) {
	st, err := s.repo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return st, nil
}

// Update validates every section present in patch and replaces the stored
// sections with them. Absent sections are kept as stored.
func (s *settingsService) Update(ctx context.Context, patch domain.Settings) (*domain.Settings, error) {
	if patch.Site == nil && patch.Storage == nil && patch.Payment == nil && patch.Metadata == nil {
		return nil, fmt.Errorf("%w: no settings section provided", domain.ErrInvalidInput)
	}
	if err := s.validate.Struct(patch); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err.Error())
	}

	current, err := s.repo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("update settings: %w", err)
	}
	merged := current.Merge(patch)
	merged.UpdatedAt = s.now().UTC()

	if err := s.repo.Save(ctx, &merged); err != nil {
		return nil, fmt.Errorf("update settings: %w", err)
	}
	s.log.Info().Msg("settings updated")
	return &merged, nil
}

// Plans returns the configured subscription plans, or an empty list.
func (s *settingsService) Plans(ctx context.Context) ([]domain.Plan, error) {
	st, err := s.repo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("plans: %w", err)
	}
	if st.Payment == nil || st.Payment.Plans == nil {
		return []domain.Plan{}, nil
	}
	return st.Payment.Plans, nil
}
