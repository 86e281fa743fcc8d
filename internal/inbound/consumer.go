package inbound

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/calderalogistics/loadpilot-backend/pkg/logger"
)

// Event kinds delivered on the inbound subscription by the messaging
// gateway.
const (
	eventCarrierReply      = "carrier_reply"
	eventFallOffAcceptance = "fall_off_acceptance"
)

type replyHandler interface {
	HandleInboundResponse(ctx context.Context, fromPhone, responseText string) error
}

type acceptanceHandler interface {
	HandleAcceptance(ctx context.Context, loadID, carrierID uuid.UUID) (bool, error)
}

// carrierReplyPayload is a raw SMS reply relayed by the gateway.
type carrierReplyPayload struct {
	FromPhone string `json:"from_phone"`
	Text      string `json:"text"`
}

// acceptancePayload signals a backup carrier accepting a fall-off offer.
type acceptancePayload struct {
	LoadID    uuid.UUID `json:"load_id"`
	CarrierID uuid.UUID `json:"carrier_id"`
}

// Consumer pulls inbound events off the subscription and dispatches them
// to the check-call and fall-off handlers.
type Consumer struct {
	replies      replyHandler
	acceptances  acceptanceHandler
	subscription *pubsub.Subscriber
	logg         *logger.Logger
}

// NewConsumer builds the inbound event consumer.
func NewConsumer(replies replyHandler, acceptances acceptanceHandler, subscription *pubsub.Subscriber, logg *logger.Logger) (*Consumer, error) {
	if replies == nil {
		return nil, fmt.Errorf("reply handler required")
	}
	if acceptances == nil {
		return nil, fmt.Errorf("acceptance handler required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("inbound subscription required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		replies:      replies,
		acceptances:  acceptances,
		subscription: subscription,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.process(ctx, msg) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

// process returns true when the message should be acked. Undecodable
// messages are acked; redelivery cannot fix them.
func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) bool {
	kind := msg.Attributes["event"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event":      kind,
	})

	switch kind {
	case eventCarrierReply:
		var payload carrierReplyPayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			c.logg.Error(logCtx, "failed to decode carrier reply", err)
			return true
		}
		if err := c.replies.HandleInboundResponse(ctx, payload.FromPhone, payload.Text); err != nil {
			c.logg.Error(logCtx, "carrier reply handling failed", err)
			return false
		}
		return true

	case eventFallOffAcceptance:
		var payload acceptancePayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			c.logg.Error(logCtx, "failed to decode acceptance", err)
			return true
		}
		recovered, err := c.acceptances.HandleAcceptance(ctx, payload.LoadID, payload.CarrierID)
		if err != nil {
			c.logg.Error(logCtx, "acceptance handling failed", err)
			return false
		}
		if !recovered {
			c.logg.Info(logCtx, "acceptance had no open recovery, dropped")
		}
		return true

	default:
		c.logg.Info(logCtx, "skipping unknown inbound event")
		return true
	}
}
