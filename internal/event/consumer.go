package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/lelekart/variantmatrix/pkg/kafka"
)

// Kafka topics consumed by the variant service.
var TopicProductDeleted = pkgkafka.Topic("product", "deleted")

// ProductDeletedData is the payload of a product.deleted event.
type ProductDeletedData struct {
	ID string `json:"id"`
}

// VariantRemover deletes every variant of a product.
type VariantRemover interface {
	HandleProductDeleted(ctx context.Context, productID string) (int64, error)
}

// Consumer handles product lifecycle events.
type Consumer struct {
	variants VariantRemover
	logger   *slog.Logger
}

// NewConsumer creates a new event consumer.
func NewConsumer(variants VariantRemover, logger *slog.Logger) *Consumer {
	return &Consumer{
		variants: variants,
		logger:   logger,
	}
}

// Handle processes one event. Unknown event types are logged and skipped.
func (c *Consumer) Handle(ctx context.Context, event *pkgkafka.Event) error {
	switch event.EventType {
	case TopicProductDeleted:
		return c.handleProductDeleted(ctx, event)
	default:
		c.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}
}

func (c *Consumer) handleProductDeleted(ctx context.Context, event *pkgkafka.Event) error {
	var data ProductDeletedData
	if err := event.UnmarshalData(&data); err != nil {
		return fmt.Errorf("unmarshal product.deleted data: %w", err)
	}
	productID := data.ID
	if productID == "" {
		productID = event.AggregateID
	}
	if productID == "" {
		c.logger.WarnContext(ctx, "product.deleted event without product id",
			slog.String("event_id", event.EventID),
		)
		return nil
	}

	removed, err := c.variants.HandleProductDeleted(ctx, productID)
	if err != nil {
		return fmt.Errorf("delete variants for deleted product: %w", err)
	}

	c.logger.InfoContext(ctx, "removed variants of deleted product",
		slog.String("product_id", productID),
		slog.Int64("removed", removed),
	)

	return nil
}
