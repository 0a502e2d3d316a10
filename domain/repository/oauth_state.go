package repository

import (
	"context"

	"social-publisher/domain/model"
)

// IOAuthState stores single-use authorization nonces.
type IOAuthState interface {
	Create(ctx context.Context, s *model.OAuthState) error
	// InvalidateUnused removes every unconsumed state for (user, platform).
	InvalidateUnused(ctx context.Context, userID string, platform model.Platform) error
	// Consume atomically removes and returns the state. errs.ErrNotFound when absent.
	Consume(ctx context.Context, state string) (*model.OAuthState, error)
}
