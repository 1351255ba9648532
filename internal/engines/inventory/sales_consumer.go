package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bleu-ims/materials-service/internal/models"
	"github.com/bleu-ims/materials-service/pkg/events"
)

// subscriber is the slice of the broker client the consumer needs.
type subscriber interface {
	Subscribe(topic string, handler events.Handler) error
	Unsubscribe(topic string) error
}

// SalesConsumer applies sale deductions that arrive over the broker. POS
// terminals may publish completed sales instead of calling the HTTP endpoint;
// both paths run the same engine transaction.
type SalesConsumer struct {
	materials *MaterialEngine
	timeout   time.Duration
	logger    *zap.Logger
}

// NewSalesConsumer creates a consumer for completed-sale messages. A zero
// timeout defaults to 30s per deduction.
func NewSalesConsumer(materials *MaterialEngine, timeout time.Duration, logger *zap.Logger) *SalesConsumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SalesConsumer{
		materials: materials,
		timeout:   timeout,
		logger:    logger.With(zap.String("component", "sales-consumer")),
	}
}

// Start subscribes the consumer to the completed-sale topic.
func (c *SalesConsumer) Start(client subscriber) error {
	if err := client.Subscribe(events.SaleCompletedTopic(), c.HandleSale); err != nil {
		return fmt.Errorf("failed to subscribe to sales: %w", err)
	}
	return nil
}

// Stop detaches the consumer from the completed-sale topic.
func (c *SalesConsumer) Stop(client subscriber) error {
	return client.Unsubscribe(events.SaleCompletedTopic())
}

// HandleSale decodes a completed-sale envelope and deducts the recipe
// materials for every cart item.
func (c *SalesConsumer) HandleSale(topic string, payload []byte) error {
	var msg events.Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("failed to decode sale message: %w", err)
	}

	var sale models.DeductSaleRequest
	if err := msg.UnmarshalPayload(&sale); err != nil {
		return fmt.Errorf("failed to decode sale payload: %w", err)
	}
	if len(sale.CartItems) == 0 {
		c.logger.Warn("Ignoring sale without cart items",
			zap.String("message_id", msg.ID),
			zap.String("source", msg.Source))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	result, err := c.materials.DeductFromSale(ctx, sale.CartItems)
	if err != nil {
		return fmt.Errorf("failed to deduct sale %s: %w", msg.ID, err)
	}

	c.logger.Info("Sale deduction applied from broker",
		zap.String("message_id", msg.ID),
		zap.Int("items_processed", result.ItemsProcessed),
		zap.Strings("items_skipped", result.ItemsSkipped))
	return nil
}
