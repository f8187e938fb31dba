package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lelekart/variantmatrix/internal/domain"
	pkgkafka "github.com/lelekart/variantmatrix/pkg/kafka"
	"github.com/lelekart/variantmatrix/pkg/logger"
)

// Kafka topics produced by the variant service.
var TopicVariantsSaved = pkgkafka.Topic("product", "variants_saved")

const (
	AggregateTypeProduct = "product"
	SourceVariantService = "variant-service"
)

// VariantsSavedData is the payload of a variants_saved event.
type VariantsSavedData struct {
	ProductID string        `json:"product_id"`
	DraftID   string        `json:"draft_id"`
	SavedBy   string        `json:"saved_by,omitempty"`
	Count     int           `json:"count"`
	Variants  []VariantData `json:"variants"`
}

// VariantData is one variant within VariantsSavedData.
type VariantData struct {
	ID         string            `json:"id"`
	SKU        string            `json:"sku"`
	Color      string            `json:"color,omitempty"`
	Size       string            `json:"size,omitempty"`
	Price      int64             `json:"price"`
	MRP        int64             `json:"mrp"`
	Stock      int               `json:"stock"`
	Images     []string          `json:"images"`
	Attributes map[string]string `json:"attributes"`
}

type publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes variant domain events to Kafka.
type Producer struct {
	kafka  publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer. kafka is usually a *pkgkafka.Producer.
func NewProducer(kafka publisher, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishVariantsSaved announces the variant set saved from draft.
func (p *Producer) PublishVariantsSaved(ctx context.Context, draft *domain.Draft, variants []domain.ProductVariant) error {
	data := VariantsSavedData{
		ProductID: draft.ProductID,
		DraftID:   draft.ID,
		SavedBy:   draft.OwnerID,
		Count:     len(variants),
		Variants:  make([]VariantData, len(variants)),
	}
	for i, v := range variants {
		data.Variants[i] = VariantData{
			ID:         v.ID,
			SKU:        v.SKU,
			Color:      v.Color,
			Size:       v.Size,
			Price:      v.Price,
			MRP:        v.MRP,
			Stock:      v.Stock,
			Images:     v.Images,
			Attributes: v.Attributes,
		}
	}

	event, err := pkgkafka.NewEvent(TopicVariantsSaved, draft.ProductID, AggregateTypeProduct, SourceVariantService, data)
	if err != nil {
		return fmt.Errorf("create variants_saved event: %w", err)
	}
	event.WithCorrelationID(logger.CorrelationIDFromContext(ctx)).
		WithMetadata("user_id", logger.UserIDFromContext(ctx))

	if err := p.kafka.Publish(ctx, TopicVariantsSaved, event); err != nil {
		return fmt.Errorf("publish variants_saved event: %w", err)
	}

	p.logger.DebugContext(ctx, "published variants_saved event",
		slog.String("product_id", draft.ProductID),
		slog.Int("count", len(variants)),
	)

	return nil
}
