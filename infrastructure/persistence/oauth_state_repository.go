package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"social-publisher/domain/errs"
	"social-publisher/domain/model"
	"social-publisher/domain/repository"
)

// OAuthStateRepository keeps authorization nonces in Postgres when Redis is not available.
type OAuthStateRepository struct{ db *sql.DB }

func NewOAuthStateRepository(db *sql.DB) repository.IOAuthState {
	return &OAuthStateRepository{db: db}
}

func (r *OAuthStateRepository) Create(ctx context.Context, s *model.OAuthState) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	return r.db.QueryRowContext(ctx,
		`INSERT INTO oauth_states (state, user_id, platform, code_verifier, used, created_at) VALUES ($1,$2,$3,$4,false,$5) RETURNING id`,
		s.State, s.UserID, string(s.Platform), s.CodeVerifier, s.CreatedAt,
	).Scan(&s.ID)
}

func (r *OAuthStateRepository) InvalidateUnused(ctx context.Context, userID string, platform model.Platform) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM oauth_states WHERE user_id=$1 AND platform=$2 AND used=false`, userID, string(platform))
	return err
}

// Consume deletes the row and returns it, so two callbacks racing on one state cannot both win.
func (r *OAuthStateRepository) Consume(ctx context.Context, state string) (*model.OAuthState, error) {
	s := &model.OAuthState{}
	var platform string
	var verifier sql.NullString
	err := r.db.QueryRowContext(ctx,
		`DELETE FROM oauth_states WHERE state=$1 AND used=false RETURNING id, state, user_id, platform, code_verifier, created_at`,
		state,
	).Scan(&s.ID, &s.State, &s.UserID, &platform, &verifier, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s.Platform = model.Platform(platform)
	if verifier.Valid {
		v := verifier.String
		s.CodeVerifier = &v
	}
	s.Used = true
	return s, nil
}

// PurgeExpired drops states older than the authorization TTL.
func (r *OAuthStateRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM oauth_states WHERE created_at < $1`, now.Add(-model.OAuthStateTTL))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
