package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
)

const publishTimeout = 10 * time.Second

// Messenger sends outbound SMS and email. Implementations are expected
// to be asynchronous delivery channels; callers treat both methods as
// fire-and-forget.
type Messenger interface {
	SendText(ctx context.Context, phoneNumber, message string) error
	SendEmail(ctx context.Context, address, subject, html string) error
}

type messagingPublisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) *gcppubsub.PublishResult
}

// sendRequest is the payload placed on the messaging topic. The
// messaging service owns template rendering and provider dispatch.
type sendRequest struct {
	Channel string `json:"channel"`
	To      string `json:"to"`
	Subject string `json:"subject,omitempty"`
	Body    string `json:"body"`
}

// PubSubMessenger publishes send-requests to the messaging topic.
type PubSubMessenger struct {
	publisher messagingPublisher
}

// NewPubSubMessenger wraps a messaging-topic publisher.
func NewPubSubMessenger(publisher messagingPublisher) (*PubSubMessenger, error) {
	if publisher == nil {
		return nil, fmt.Errorf("messaging publisher required")
	}
	return &PubSubMessenger{publisher: publisher}, nil
}

// SendText publishes an SMS send-request.
func (m *PubSubMessenger) SendText(ctx context.Context, phoneNumber, message string) error {
	return m.publish(ctx, sendRequest{Channel: "sms", To: phoneNumber, Body: message})
}

// SendEmail publishes an email send-request.
func (m *PubSubMessenger) SendEmail(ctx context.Context, address, subject, html string) error {
	return m.publish(ctx, sendRequest{Channel: "email", To: address, Subject: subject, Body: html})
}

func (m *PubSubMessenger) publish(ctx context.Context, req sendRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode send request: %w", err)
	}

	msg := &gcppubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"channel": req.Channel,
		},
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	result := m.publisher.Publish(publishCtx, msg)
	if result == nil {
		return fmt.Errorf("messaging publisher returned nil result")
	}
	if _, err := result.Get(publishCtx); err != nil {
		return fmt.Errorf("publish %s send request: %w", req.Channel, err)
	}
	return nil
}
