package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"social-publisher/domain/errs"
	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/logger"

	"github.com/lib/pq"
)

const contentColumns = `id, user_id, title, body, media, target_platforms, profile_ids, scheduled_date, status,
	post_results, published_at, created_at, updated_at`

type ContentRepository struct{ db *sql.DB }

func NewContentRepository(db *sql.DB) repository.IContent {
	return &ContentRepository{db: db}
}

func (r *ContentRepository) Create(ctx context.Context, item *model.ContentItem) error {
	media, err := json.Marshal(item.Media)
	if err != nil {
		return fmt.Errorf("encode media: %w", err)
	}
	if item.Status == "" {
		item.Status = model.ContentDraft
	}
	now := time.Now().UTC()
	return r.db.QueryRowContext(ctx,
		`INSERT INTO content_items (user_id, title, body, media, target_platforms, profile_ids, scheduled_date, status, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$9) RETURNING id, created_at, updated_at`,
		item.UserID, item.Title, item.Body, media, pq.Array(platformStrings(item.TargetPlatforms)),
		pq.Array(item.ProfileIDs), item.ScheduledDate, string(item.Status), now,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
}

func (r *ContentRepository) GetByID(ctx context.Context, id int64) (*model.ContentItem, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+contentColumns+` FROM content_items WHERE id=$1`, id)
	return scanContent(row)
}

func (r *ContentRepository) FindDue(ctx context.Context, now time.Time, limit int) ([]*model.ContentItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+contentColumns+` FROM content_items
		 WHERE status=$1 AND scheduled_date <= $2
		 ORDER BY scheduled_date ASC, id ASC
		 LIMIT $3`,
		string(model.ContentScheduled), now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		items   []*model.ContentItem
		corrupt []*contentDecodeError
	)
	for rows.Next() {
		item, err := scanContent(rows)
		var decodeErr *contentDecodeError
		if errors.As(err, &decodeErr) {
			corrupt = append(corrupt, decodeErr)
			continue
		}
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	// An undecodable row would otherwise come back on every run ahead of the healthy ones.
	for _, c := range corrupt {
		r.failCorrupt(ctx, c)
	}
	return items, nil
}

func (r *ContentRepository) failCorrupt(ctx context.Context, c *contentDecodeError) {
	log := logger.GetLogger().WithField("content_id", c.ID).WithField("error", c.Err)
	doc, _ := json.Marshal(map[string][]string{"errors": {c.Error()}})
	_, err := r.db.ExecContext(ctx,
		`UPDATE content_items SET status=$1, post_results=$2, updated_at=$3 WHERE id=$4 AND status=$5`,
		string(model.ContentFailed), doc, time.Now().UTC(), c.ID, string(model.ContentScheduled))
	if err != nil {
		log.WithField("update_error", err).Error("Undecodable scheduled content skipped")
		return
	}
	log.Error("Undecodable scheduled content marked failed")
}

func (r *ContentRepository) UpdateStatus(ctx context.Context, id int64, status model.ContentStatus, scheduledDate *time.Time, from ...model.ContentStatus) error {
	if len(from) == 0 {
		for _, s := range []model.ContentStatus{model.ContentDraft, model.ContentScheduled} {
			if s.CanTransition(status) {
				from = append(from, s)
			}
		}
	}
	allowed := make([]string, 0, len(from))
	for _, s := range from {
		if s.CanTransition(status) {
			allowed = append(allowed, string(s))
		}
	}
	if len(allowed) == 0 {
		return errs.ErrInvalidTransition
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE content_items SET status=$1, scheduled_date=COALESCE($2, scheduled_date), updated_at=$3
		 WHERE id=$4 AND status = ANY($5)`,
		string(status), scheduledDate, time.Now().UTC(), id, pq.Array(allowed))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.ErrInvalidTransition
	}
	return nil
}

func (r *ContentRepository) SavePublishOutcome(ctx context.Context, id int64, outcome *model.PublishOutcome) error {
	doc, err := json.Marshal(outcome.PostResultsDocument())
	if err != nil {
		return fmt.Errorf("encode post results: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE content_items SET status=$1, post_results=$2, published_at=$3, updated_at=$4 WHERE id=$5`,
		string(outcome.Status), doc, outcome.PublishedAt, time.Now().UTC(), id)
	return err
}

// contentDecodeError reports a row whose JSON columns cannot be read.
type contentDecodeError struct {
	ID     int64
	Column string
	Err    error
}

func (e *contentDecodeError) Error() string {
	return fmt.Sprintf("decode %s of content %d: %v", e.Column, e.ID, e.Err)
}

func (e *contentDecodeError) Unwrap() error { return e.Err }

func scanContent(row rowScanner) (*model.ContentItem, error) {
	item := &model.ContentItem{}
	var (
		media, results []byte
		platforms      pq.StringArray
		profileIDs     pq.Int64Array
		scheduled      sql.NullTime
		published      sql.NullTime
		status         string
	)
	err := row.Scan(&item.ID, &item.UserID, &item.Title, &item.Body, &media, &platforms, &profileIDs, &scheduled,
		&status, &results, &published, &item.CreatedAt, &item.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	item.Status = model.ContentStatus(status)
	item.ProfileIDs = []int64(profileIDs)
	for _, p := range platforms {
		item.TargetPlatforms = append(item.TargetPlatforms, model.Platform(p))
	}
	if len(media) > 0 {
		if err := json.Unmarshal(media, &item.Media); err != nil {
			return nil, &contentDecodeError{ID: item.ID, Column: "media", Err: err}
		}
	}
	if len(results) > 0 {
		if err := json.Unmarshal(results, &item.PostResults); err != nil {
			return nil, &contentDecodeError{ID: item.ID, Column: "post_results", Err: err}
		}
	}
	if scheduled.Valid {
		t := scheduled.Time
		item.ScheduledDate = &t
	}
	if published.Valid {
		t := published.Time
		item.PublishedAt = &t
	}
	return item, nil
}

func platformStrings(ps []model.Platform) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = string(p)
	}
	return out
}
