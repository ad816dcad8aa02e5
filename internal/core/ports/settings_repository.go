package ports

import (
	"context"

	"github.com/moviestream/streaming-api/internal/core/domain"
)

// SettingsRepository stores the single settings document.
type SettingsRepository interface {
	// Get returns an empty document when nothing has been saved yet.
	Get(ctx context.Context) (*domain.Settings, error)
	Save(ctx context.Context, s *domain.Settings) error
}

// SettingsService reads and merges settings.
type SettingsService interface {
	Get(ctx context.Context) (*domain.Settings, error)
	Update(ctx context.Context, patch domain.Settings) (*domain.Settings, error)
	Plans(ctx context.Context) ([]domain.Plan, error)
}
