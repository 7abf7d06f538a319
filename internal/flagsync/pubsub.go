// Package flagsync propagates flag mutations between instances over
// Pub/Sub so a flip performed on one instance is observed by every
// registry promptly, not only after repository reload.
package flagsync

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"

	"github.com/billgate/billgate/internal/flags"
)

// Config holds configuration for the flag sync publisher/subscriber pair.
type Config struct {
	ProjectID        string
	TopicName        string
	SubscriptionName string
	Logger           zerolog.Logger
}

// Publisher broadcasts flag change events to the flag-events topic.
type Publisher struct {
	client    *pubsub.Client
	publisher *pubsub.Publisher
	logger    zerolog.Logger
}

// NewPublisher creates a flag change publisher.
func NewPublisher(ctx context.Context, cfg Config) (*Publisher, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	return &Publisher{
		client:    client,
		publisher: client.Publisher(cfg.TopicName),
		logger:    cfg.Logger,
	}, nil
}

// PublishFlagChange broadcasts one flag mutation.
func (p *Publisher) PublishFlagChange(ctx context.Context, event flags.ChangeEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal flag change event: %w", err)
	}

	result := p.publisher.Publish(ctx, &pubsub.Message{Data: data})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish flag change event: %w", err)
	}

	p.logger.Debug().
		Str("flag", event.Flag.Name).
		Str("type", event.Type).
		Msg("published flag change event")
	return nil
}

// Close closes the underlying Pub/Sub client.
func (p *Publisher) Close() error {
	return p.client.Close()
}

// Ensure Publisher implements the flags.ChangePublisher interface.
var _ flags.ChangePublisher = (*Publisher)(nil)

// Subscriber receives flag change events from peer instances and applies
// them to the local admin service, which updates the registry and bumps
// its version so cached decisions invalidate on the next evaluation.
type Subscriber struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	service          *flags.Service
	logger           zerolog.Logger
}

// NewSubscriber creates a flag change subscriber.
func NewSubscriber(ctx context.Context, cfg Config, service *flags.Service) (*Subscriber, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)
	subscriber.ReceiveSettings.MaxOutstandingMessages = 10
	subscriber.ReceiveSettings.MaxExtension = 1 * time.Minute

	return &Subscriber{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		service:          service,
		logger:           cfg.Logger,
	}, nil
}

// Start blocks receiving flag change events until the context is cancelled.
func (s *Subscriber) Start(ctx context.Context) error {
	s.logger.Info().
		Str("subscription", s.subscriptionName).
		Msg("starting flag sync subscriber")

	return s.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		s.handleMessage(msg)
	})
}

// Close closes the underlying Pub/Sub client.
func (s *Subscriber) Close() error {
	return s.client.Close()
}

func (s *Subscriber) handleMessage(msg *pubsub.Message) {
	var event flags.ChangeEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		s.logger.Error().Err(err).Str("message_id", msg.ID).Msg("failed to parse flag change event")
		// Malformed events are acked, not retried: redelivery cannot fix them.
		msg.Ack()
		return
	}

	s.service.ApplyEvent(event)
	s.logger.Debug().
		Str("flag", event.Flag.Name).
		Str("type", event.Type).
		Msg("applied flag change event")
	msg.Ack()
}
