package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/paseoapp/walk-api/internal/model"
	"github.com/paseoapp/walk-api/pkg/logger"
	"github.com/paseoapp/walk-api/pkg/messaging"
)

// Consumer delivers payout notifications for events read from the broker.
type Consumer struct {
	broker   messaging.Broker
	notifier Notifier
	log      *logger.Logger
}

func NewConsumer(broker messaging.Broker, notifier Notifier, log *logger.Logger) *Consumer {
	return &Consumer{broker: broker, notifier: notifier, log: log}
}

// Run blocks until ctx is done.
func (c *Consumer) Run(ctx context.Context) error {
	c.log.Info("Starting payout notification consumer", "channel", model.EventPayoutCompleted)
	return messaging.Consume(ctx, c.broker, model.EventPayoutCompleted, c.Handle, func(err error) {
		c.log.Error(err, "Failed to handle payout event")
	})
}

func (c *Consumer) Handle(ctx context.Context, payload []byte) error {
	var event model.PayoutCompleted
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("failed to decode payout event: %w", err)
	}
	return c.notifier.NotifyPayout(ctx, event)
}
