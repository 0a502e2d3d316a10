package model

import "time"

// ContentStatus is the lifecycle state of a ContentItem.
type ContentStatus string

const (
	ContentDraft     ContentStatus = "draft"
	ContentScheduled ContentStatus = "scheduled"
	ContentPublished ContentStatus = "published"
	ContentFailed    ContentStatus = "failed"
	ContentCancelled ContentStatus = "cancelled"
)

// Terminal reports whether no further transition is allowed from s.
func (s ContentStatus) Terminal() bool {
	return s == ContentPublished || s == ContentFailed || s == ContentCancelled
}

// CanTransition enforces draft -> scheduled -> {published, failed, cancelled}.
// A draft may also be published, failed or cancelled directly (immediate publish).
func (s ContentStatus) CanTransition(to ContentStatus) bool {
	switch s {
	case ContentDraft:
		return to == ContentScheduled || to.Terminal()
	case ContentScheduled:
		return to.Terminal()
	default:
		return false
	}
}

// ContentItem is a publishable unit from the content calendar.
type ContentItem struct {
	ID              int64          `json:"id"`
	UserID          string         `json:"user_id"`
	Title           string         `json:"title"`
	Body            string         `json:"body"`
	Media           []MediaItem    `json:"media"`
	TargetPlatforms []Platform     `json:"target_platforms"`
	ProfileIDs      []int64        `json:"profile_ids"`
	ScheduledDate   *time.Time     `json:"scheduled_date,omitempty"`
	Status          ContentStatus  `json:"status"`
	PostResults     map[string]any `json:"post_results,omitempty"`
	PublishedAt     *time.Time     `json:"published_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// Due reports whether a scheduled item should be dispatched at now.
func (c *ContentItem) Due(now time.Time) bool {
	return c.Status == ContentScheduled && c.ScheduledDate != nil && !c.ScheduledDate.After(now)
}

// Targets reports whether the item should be posted to platform p.
// An empty target set means every attached profile is eligible.
func (c *ContentItem) Targets(p Platform) bool {
	if len(c.TargetPlatforms) == 0 {
		return true
	}
	for _, t := range c.TargetPlatforms {
		if t == p {
			return true
		}
	}
	return false
}

// PublishOutcome is what the orchestrator computes for one item.
type PublishOutcome struct {
	Status      ContentStatus          `json:"status"`
	Results     map[string]*PostResult `json:"post_results"`
	Errors      []string               `json:"errors"`
	PublishedAt *time.Time             `json:"published_at,omitempty"`
}

// PostResultsDocument is the persisted post_results value for the outcome.
// Failed items store only the errors; partial failures keep errors next to the platform results.
func (o *PublishOutcome) PostResultsDocument() map[string]any {
	doc := make(map[string]any, len(o.Results)+1)
	if o.Status == ContentFailed {
		doc["errors"] = o.Errors
		return doc
	}
	for k, v := range o.Results {
		doc[k] = v
	}
	if len(o.Errors) > 0 {
		doc["errors"] = o.Errors
	}
	return doc
}

// ContentStatusEvent is broadcast when an item reaches a terminal status.
type ContentStatusEvent struct {
	Type      string        `json:"type"`
	ContentID int64         `json:"content_id"`
	UserID    string        `json:"user_id"`
	Status    ContentStatus `json:"status"`
	Platforms []string      `json:"platforms"`
	Errors    []string      `json:"errors,omitempty"`
	At        time.Time     `json:"at"`
}

// PublishAudit is the archived record of one orchestrator run.
type PublishAudit struct {
	ContentID int64          `json:"content_id" bson:"contentId"`
	UserID    string         `json:"user_id"    bson:"userId"`
	Trigger   string         `json:"trigger"    bson:"trigger"`
	Status    ContentStatus  `json:"status"     bson:"status"`
	Results   map[string]any `json:"results"    bson:"results"`
	Errors    []string       `json:"errors"     bson:"errors"`
	CreatedAt time.Time      `json:"created_at" bson:"createdAt"`
}
