// Package pubsub publishes harvest notifications to Google Cloud Pub/Sub.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"
)

// Publisher sends JSON payloads to one Pub/Sub topic.
type Publisher struct {
	topic  topic
	client *pubsub.Client
}

type topic interface {
	publish(ctx context.Context, msg *pubsub.Message) result
	stop()
}

type result interface {
	Get(ctx context.Context) (string, error)
}

type gcpTopic struct {
	t *pubsub.Topic
}

func (g gcpTopic) publish(ctx context.Context, msg *pubsub.Message) result {
	return g.t.Publish(ctx, msg)
}

func (g gcpTopic) stop() { g.t.Stop() }

// New connects to projectID and binds topicID.
func New(ctx context.Context, projectID, topicID string) (*Publisher, error) {
	if projectID == "" || topicID == "" {
		return nil, fmt.Errorf("pubsub project and topic are required")
	}
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	return &Publisher{topic: gcpTopic{t: client.Topic(topicID)}, client: client}, nil
}

// Publish marshals payload to JSON and waits for the server id. The topic
// argument becomes the "event" attribute; the destination is fixed at New.
func (p *Publisher) Publish(ctx context.Context, event string, payload any) (string, error) {
	if p == nil || p.topic == nil {
		return "", fmt.Errorf("pubsub publisher is not configured")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	msg := &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{"event": event},
	}
	id, err := p.topic.publish(ctx, msg).Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish message: %w", err)
	}
	return id, nil
}

// Close flushes pending messages and closes the client.
func (p *Publisher) Close() error {
	if p == nil || p.topic == nil {
		return nil
	}
	p.topic.stop()
	if p.client == nil {
		return nil
	}
	if err := p.client.Close(); err != nil {
		return fmt.Errorf("close pubsub client: %w", err)
	}
	return nil
}
