package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"social-publisher/domain/errs"
	"social-publisher/domain/model"
	"social-publisher/domain/repository"

	"github.com/lib/pq"
)

const profileColumns = `id, user_id, platform, access_token, refresh_token, token_expires_at, external_id, profile_name,
	profile_url, avatar_url, page_id, page_name, scopes, status, created_at, updated_at`

type SocialProfileRepository struct{ db *sql.DB }

func NewSocialProfileRepository(db *sql.DB) repository.ISocialProfile {
	return &SocialProfileRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *SocialProfileRepository) Upsert(ctx context.Context, p *model.SocialProfile) error {
	now := time.Now().UTC()
	p.UpdatedAt = now
	q := `INSERT INTO social_profiles (user_id, platform, access_token, refresh_token, token_expires_at, external_id,
			profile_name, profile_url, avatar_url, page_id, page_name, scopes, status, created_at, updated_at)
		  VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$14)
		  ON CONFLICT (user_id, platform) DO UPDATE SET
			access_token=EXCLUDED.access_token,
			refresh_token=EXCLUDED.refresh_token,
			token_expires_at=EXCLUDED.token_expires_at,
			external_id=EXCLUDED.external_id,
			profile_name=EXCLUDED.profile_name,
			profile_url=EXCLUDED.profile_url,
			avatar_url=EXCLUDED.avatar_url,
			page_id=EXCLUDED.page_id,
			page_name=EXCLUDED.page_name,
			scopes=EXCLUDED.scopes,
			status=EXCLUDED.status,
			updated_at=EXCLUDED.updated_at
		  RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, q,
		p.UserID, string(p.Platform), nullString(p.AccessToken), nullString(p.RefreshToken), p.TokenExpiresAt,
		p.ExternalID, p.ProfileName, p.ProfileURL, p.AvatarURL, p.PageID, p.PageName, p.Scopes, string(p.Status), now,
	).Scan(&p.ID, &p.CreatedAt)
}

func (r *SocialProfileRepository) Update(ctx context.Context, p *model.SocialProfile) error {
	p.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `UPDATE social_profiles
		SET access_token=$1, refresh_token=$2, token_expires_at=$3, status=$4, updated_at=$5
		WHERE id=$6`,
		nullString(p.AccessToken), nullString(p.RefreshToken), p.TokenExpiresAt, string(p.Status), p.UpdatedAt, p.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *SocialProfileRepository) GetByID(ctx context.Context, id int64) (*model.SocialProfile, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM social_profiles WHERE id=$1`, id)
	return scanProfile(row)
}

func (r *SocialProfileRepository) GetByUserPlatform(ctx context.Context, userID string, platform model.Platform) (*model.SocialProfile, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM social_profiles WHERE user_id=$1 AND platform=$2`, userID, string(platform))
	return scanProfile(row)
}

func (r *SocialProfileRepository) ListByUser(ctx context.Context, userID string) ([]*model.SocialProfile, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+profileColumns+` FROM social_profiles WHERE user_id=$1 ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProfiles(rows)
}

func (r *SocialProfileRepository) ListByIDs(ctx context.Context, ids []int64) ([]*model.SocialProfile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+profileColumns+` FROM social_profiles WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list, err := scanProfiles(rows)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*model.SocialProfile, len(list))
	for _, p := range list {
		byID[p.ID] = p
	}
	// attachment order
	ordered := make([]*model.SocialProfile, 0, len(list))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
			delete(byID, id)
		}
	}
	return ordered, nil
}

func scanProfiles(rows *sql.Rows) ([]*model.SocialProfile, error) {
	var list []*model.SocialProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func scanProfile(row rowScanner) (*model.SocialProfile, error) {
	p := &model.SocialProfile{}
	var (
		platform, status string
		access, refresh  sql.NullString
		expires          sql.NullTime
		pageID, pageName sql.NullString
	)
	err := row.Scan(&p.ID, &p.UserID, &platform, &access, &refresh, &expires, &p.ExternalID, &p.ProfileName,
		&p.ProfileURL, &p.AvatarURL, &pageID, &pageName, &p.Scopes, &status, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.Platform = model.Platform(platform)
	p.Status = model.ProfileStatus(status)
	p.AccessToken = access.String
	p.RefreshToken = refresh.String
	if expires.Valid {
		t := expires.Time
		p.TokenExpiresAt = &t
	}
	if pageID.Valid {
		v := pageID.String
		p.PageID = &v
	}
	if pageName.Valid {
		v := pageName.String
		p.PageName = &v
	}
	return p, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
