package repository

import (
	"context"

	"social-publisher/domain/model"
)

// ISocialProfile persists connected accounts. Writes are last-writer-wins.
type ISocialProfile interface {
	// Upsert inserts or replaces the profile for (user, platform) and sets p.ID.
	Upsert(ctx context.Context, p *model.SocialProfile) error
	// Update writes tokens, expiry and status of an existing profile.
	Update(ctx context.Context, p *model.SocialProfile) error
	GetByID(ctx context.Context, id int64) (*model.SocialProfile, error)
	GetByUserPlatform(ctx context.Context, userID string, platform model.Platform) (*model.SocialProfile, error)
	ListByUser(ctx context.Context, userID string) ([]*model.SocialProfile, error)
	// ListByIDs returns the profiles in the order of ids; unknown ids are skipped.
	ListByIDs(ctx context.Context, ids []int64) ([]*model.SocialProfile, error)
}
