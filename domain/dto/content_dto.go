package dto

import (
	"time"

	"social-publisher/domain/model"
)

// ContentRequest is the publish contract accepted from the content layer.
type ContentRequest struct {
	Title            string            `json:"title"`
	Text             string            `json:"text" binding:"required"`
	MediaRefs        []model.MediaItem `json:"mediaRefs"`
	TargetPlatforms  []string          `json:"targetPlatforms"`
	TargetProfileIDs []int64           `json:"targetPlatformIds"`
	ScheduledAt      *time.Time        `json:"scheduledAt"`
}

type ScheduleRequest struct {
	ScheduledAt time.Time `json:"scheduledAt" binding:"required"`
}

// PublishResponse is what the engine returns for a publish attempt.
type PublishResponse struct {
	ContentID   int64          `json:"content_id"`
	Status      string         `json:"status"`
	PostResults map[string]any `json:"postResults"`
	Errors      []string       `json:"errors"`
}

// RunDueResponse summarizes one dispatcher pass.
type RunDueResponse struct {
	Processed int `json:"processed"`
	Published int `json:"published"`
	Failed    int `json:"failed"`
}
