package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/logger"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// NewPubSub creates a Pub/Sub client. credentialsFile is optional; without it
// application default credentials are used.
func NewPubSub(ctx context.Context, projectID, credentialsFile string) (*pubsub.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("pubsub project id not configured")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	return pubsub.NewClient(ctx, projectID, opts...)
}

// StatusPublisher publishes content status events to a topic.
type StatusPublisher struct {
	client    *pubsub.Client
	topicName string

	once  sync.Once
	topic *pubsub.Topic
	err   error
}

func NewStatusPublisher(client *pubsub.Client, topicName string) *StatusPublisher {
	return &StatusPublisher{client: client, topicName: topicName}
}

var _ repository.IStatusNotifier = (*StatusPublisher)(nil)

func (p *StatusPublisher) NotifyStatus(ctx context.Context, evt *model.ContentStatusEvent) error {
	if p.client == nil || p.topicName == "" {
		return nil
	}
	topic, err := p.ensureTopic(ctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	serverID, err := topic.Publish(ctx, &pubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"type":   evt.Type,
			"status": string(evt.Status),
		},
	}).Get(ctx)
	if err != nil {
		return fmt.Errorf("publish content status: %w", err)
	}
	logger.GetLogger().WithField("server_id", serverID).WithField("content_id", evt.ContentID).Debug("Content status published")
	return nil
}

func (p *StatusPublisher) ensureTopic(ctx context.Context) (*pubsub.Topic, error) {
	p.once.Do(func() {
		topic := p.client.Topic(p.topicName)
		exists, err := topic.Exists(ctx)
		if err != nil {
			p.err = err
			return
		}
		if !exists {
			logger.GetLogger().WithField("topic", p.topicName).Info("Topic doesn't exist - creating it")
			if topic, err = p.client.CreateTopic(ctx, p.topicName); err != nil {
				p.err = err
				return
			}
		}
		p.topic = topic
	})
	return p.topic, p.err
}

// Stop flushes pending publishes.
func (p *StatusPublisher) Stop() {
	if p.topic != nil {
		p.topic.Stop()
	}
}
