package model

import "time"

// WebhookEventType is the normalized kind of an inbound platform notification.
type WebhookEventType string

const (
	WebhookComment  WebhookEventType = "comment"
	WebhookReaction WebhookEventType = "reaction"
	WebhookShare    WebhookEventType = "share"
	WebhookMention  WebhookEventType = "mention"
	WebhookPost     WebhookEventType = "post"
	WebhookFollow   WebhookEventType = "follow"
	WebhookMessage  WebhookEventType = "message"
)

// WebhookEvent is an append-only record of a verified webhook delivery.
// Only Read may change after insert.
type WebhookEvent struct {
	ID          string           `json:"id"           gorm:"primaryKey;size:36"`
	Platform    Platform         `json:"platform"     gorm:"size:32;not null;index:idx_webhook_target,priority:1"`
	EventType   WebhookEventType `json:"event_type"   gorm:"size:32;not null"`
	TargetID    string           `json:"target_id"    gorm:"size:191;not null;index:idx_webhook_target,priority:2"`
	ResourceURN *string          `json:"resource_urn,omitempty" gorm:"size:255"`
	RawPayload  string           `json:"raw_payload"  gorm:"type:text"`
	Read        bool             `json:"read"         gorm:"not null;default:false"`
	ReceivedAt  time.Time        `json:"received_at"  gorm:"not null;index"`
}

func (WebhookEvent) TableName() string {
	return "webhook_events"
}
