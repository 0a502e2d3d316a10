package usecase

import (
	"context"
	"errors"
	"net/url"
	"time"

	"social-publisher/domain/errs"
	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/logger"
	"social-publisher/infrastructure/metrics"

	"github.com/google/uuid"
)

var (
	ErrInvalidSignature  = errors.New("invalid webhook signature")
	ErrHandshakeRejected = errors.New("webhook handshake rejected")
)

type IWebhookUsecase interface {
	SignatureHeader(platform model.Platform) (string, error)
	Handshake(platform model.Platform, query url.Values) ([]byte, string, error)
	// Ingest verifies and stores one delivery. Unparseable bodies are dropped and reported as zero events.
	Ingest(ctx context.Context, platform model.Platform, rawBody []byte, signature string) (int, error)
	Inbox(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*model.WebhookEvent, error)
	MarkRead(ctx context.Context, userID, eventID string) error
}

type webhookUsecase struct {
	sources  map[model.Platform]WebhookSource
	events   repository.IWebhookEvent
	profiles repository.ISocialProfile
	now      func() time.Time
}

func NewWebhookUsecase(sources []WebhookSource, events repository.IWebhookEvent, profiles repository.ISocialProfile, opts ...Option) IWebhookUsecase {
	o := buildOptions(opts)
	byPlatform := make(map[model.Platform]WebhookSource, len(sources))
	for _, s := range sources {
		byPlatform[s.Platform()] = s
	}
	return &webhookUsecase{sources: byPlatform, events: events, profiles: profiles, now: o.now}
}

func (u *webhookUsecase) source(platform model.Platform) (WebhookSource, error) {
	s, ok := u.sources[platform]
	if !ok {
		return nil, errs.ErrUnsupportedPlatform
	}
	return s, nil
}

func (u *webhookUsecase) SignatureHeader(platform model.Platform) (string, error) {
	s, err := u.source(platform)
	if err != nil {
		return "", err
	}
	return s.SignatureHeader(), nil
}

func (u *webhookUsecase) Handshake(platform model.Platform, query url.Values) ([]byte, string, error) {
	s, err := u.source(platform)
	if err != nil {
		return nil, "", err
	}
	body, contentType, ok := s.Handshake(query)
	if !ok {
		metrics.WebhookEvents.WithLabelValues(string(platform), "handshake_rejected").Inc()
		logger.GetLogger().WithField("platform", platform).Warn("Webhook handshake rejected")
		return nil, "", ErrHandshakeRejected
	}
	metrics.WebhookEvents.WithLabelValues(string(platform), "handshake").Inc()
	return body, contentType, nil
}

func (u *webhookUsecase) Ingest(ctx context.Context, platform model.Platform, rawBody []byte, signature string) (int, error) {
	s, err := u.source(platform)
	if err != nil {
		return 0, err
	}
	log := logger.GetLogger().WithField("platform", platform)
	if !s.VerifySignature(rawBody, signature) {
		metrics.WebhookEvents.WithLabelValues(string(platform), "rejected").Inc()
		log.Warn("Webhook signature mismatch")
		return 0, ErrInvalidSignature
	}
	events, err := s.ParseEvents(rawBody)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues(string(platform), "dropped").Inc()
		log.WithField("error", err).Warn("Dropping webhook payload")
		return 0, nil
	}

	now := u.now().UTC()
	raw := string(rawBody)
	for _, evt := range events {
		evt.ID = uuid.NewString()
		evt.RawPayload = raw
		evt.ReceivedAt = now
	}
	if err := u.events.Create(ctx, events); err != nil {
		metrics.WebhookEvents.WithLabelValues(string(platform), "error").Inc()
		return 0, err
	}
	metrics.WebhookEvents.WithLabelValues(string(platform), "stored").Add(float64(len(events)))
	log.WithField("events", len(events)).Info("Webhook events stored")
	return len(events), nil
}

// targets lists every identifier a platform may address the user's accounts by.
func (u *webhookUsecase) targets(ctx context.Context, userID string) ([]string, error) {
	profiles, err := u.profiles.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, p := range profiles {
		if p.ExternalID != "" {
			ids = append(ids, p.ExternalID)
			if p.Platform == model.PlatformLinkedIn {
				ids = append(ids, "urn:li:person:"+p.ExternalID)
			}
		}
		if p.PageID != nil && *p.PageID != "" {
			ids = append(ids, *p.PageID)
			if p.Platform == model.PlatformLinkedIn {
				ids = append(ids, "urn:li:organization:"+*p.PageID)
			}
		}
	}
	return ids, nil
}

func (u *webhookUsecase) Inbox(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*model.WebhookEvent, error) {
	ids, err := u.targets(ctx, userID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return u.events.ListByTargets(ctx, ids, unreadOnly, limit)
}

func (u *webhookUsecase) MarkRead(ctx context.Context, userID, eventID string) error {
	evt, err := u.events.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	ids, err := u.targets(ctx, userID)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == evt.TargetID {
			return u.events.MarkRead(ctx, eventID)
		}
	}
	return errs.ErrNotFound
}
