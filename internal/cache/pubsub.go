package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/dex-proxy/internal/models"
	"github.com/aman-zulfiqar/dex-proxy/internal/storage"
)

type PubSubManager struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewPubSubManager(client *redis.Client, logger *logrus.Logger) *PubSubManager {
	if logger == nil {
		logger = logrus.New()
	}
	return &PubSubManager{client: client, logger: logger}
}

// Subscribe delivers every receipt published on channel to handler until ctx
// is done or the subscription fails.
func (p *PubSubManager) Subscribe(ctx context.Context, channel string, handler storage.ReceiptHandler) error {
	pubsub := p.client.Subscribe(ctx, channel)
	defer pubsub.Close()

	// Wait for confirmation that subscription is created
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", channel, err)
	}
	p.logger.WithField("channel", channel).Info("subscribed to receipts")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var receipt models.SwapReceipt
			if err := json.Unmarshal([]byte(msg.Payload), &receipt); err != nil {
				p.logger.WithError(err).Warn("error unmarshaling receipt")
				continue
			}
			handler(&receipt)
		}
	}
}
