package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kidsinhalf/mayocat-shop/internal/domain"
	pkgkafka "github.com/kidsinhalf/mayocat-shop/pkg/kafka"
	"github.com/kidsinhalf/mayocat-shop/pkg/logger"
)

// Kafka topics for catalog domain events.
var (
	TopicProductCreated     = pkgkafka.Topic("catalog", "product", "created")
	TopicProductUpdated     = pkgkafka.Topic("catalog", "product", "updated")
	TopicProductMoved       = pkgkafka.Topic("catalog", "product", "moved")
	TopicAttachmentUploaded = pkgkafka.Topic("catalog", "attachment", "uploaded")
)

// Aggregate types.
const (
	AggregateTypeProduct    = "product"
	AggregateTypeAttachment = "attachment"
)

// SourceCatalogService identifies events originating from this service.
const SourceCatalogService = "catalog-service"

// ProductData is the payload for product.created and product.updated.
type ProductData struct {
	ID          string         `json:"id"`
	Slug        string         `json:"slug"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	OnShelf     bool           `json:"on_shelf"`
	Price       *int64         `json:"price,omitempty"`
	Stock       *int           `json:"stock,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Position    int            `json:"position"`
}

// ProductMovedData is the payload for product.moved.
type ProductMovedData struct {
	Slug     string `json:"slug"`
	Anchor   string `json:"anchor"`
	Position string `json:"position"`
}

// AttachmentUploadedData is the payload for attachment.uploaded.
type AttachmentUploadedData struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Extension   string `json:"extension"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Parent      string `json:"parent"`
}

// Publisher sends an event to a topic. *pkgkafka.Producer implements it.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes catalog domain events. A Producer without a
// Publisher drops events, which is how the service runs with Kafka disabled.
type Producer struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewProducer creates a new event producer. publisher may be nil.
func NewProducer(publisher Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		publisher: publisher,
		logger:    logger,
	}
}

// PublishProductCreated publishes a product.created event.
func (p *Producer) PublishProductCreated(ctx context.Context, product *domain.Product) error {
	return p.publish(ctx, TopicProductCreated, product.ID, AggregateTypeProduct, productData(product))
}

// PublishProductUpdated publishes a product.updated event.
func (p *Producer) PublishProductUpdated(ctx context.Context, product *domain.Product) error {
	return p.publish(ctx, TopicProductUpdated, product.ID, AggregateTypeProduct, productData(product))
}

// PublishProductMoved publishes a product.moved event keyed by slug.
func (p *Producer) PublishProductMoved(ctx context.Context, slug, anchor string, pos domain.InsertPosition) error {
	data := ProductMovedData{Slug: slug, Anchor: anchor, Position: pos.String()}
	return p.publish(ctx, TopicProductMoved, slug, AggregateTypeProduct, data)
}

// PublishAttachmentUploaded publishes an attachment.uploaded event.
func (p *Producer) PublishAttachmentUploaded(ctx context.Context, a *domain.Attachment) error {
	data := AttachmentUploadedData{
		ID:          a.ID,
		Slug:        a.Slug,
		Extension:   a.Extension,
		ContentType: a.ContentType,
		Size:        a.Size,
		Parent:      a.Parent.String(),
	}
	return p.publish(ctx, TopicAttachmentUploaded, a.ID, AggregateTypeAttachment, data)
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	if p == nil || p.publisher == nil {
		return nil
	}

	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceCatalogService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	event.WithCorrelationID(logger.CorrelationIDFromContext(ctx))
	if t, ok := domain.TenantFromContext(ctx); ok {
		event.WithTenant(t.Slug)
	}

	if err := p.publisher.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)

	return nil
}

func productData(p *domain.Product) ProductData {
	return ProductData{
		ID:          p.ID,
		Slug:        p.Slug,
		Title:       p.Title,
		Description: p.Description,
		OnShelf:     p.OnShelf,
		Price:       p.Price,
		Stock:       p.Stock,
		Metadata:    p.Metadata,
		Position:    p.Position,
	}
}
