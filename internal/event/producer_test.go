package event

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidsinhalf/mayocat-shop/internal/domain"
	pkgkafka "github.com/kidsinhalf/mayocat-shop/pkg/kafka"
	"github.com/kidsinhalf/mayocat-shop/pkg/logger"
)

type published struct {
	topic string
	event *pkgkafka.Event
}

type recordingPublisher struct {
	events []published
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, event *pkgkafka.Event) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, published{topic: topic, event: event})
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProducer_PublishProductCreated(t *testing.T) {
	pub := &recordingPublisher{}
	producer := NewProducer(pub, testLogger())

	ctx := logger.WithCorrelationID(context.Background(), "corr-1")
	ctx = domain.WithTenant(ctx, &domain.Tenant{ID: "t-1", Slug: "acme"})

	price := int64(990)
	err := producer.PublishProductCreated(ctx, &domain.Product{ID: "p-1", Slug: "mug", Title: "Mug", Price: &price, Position: 4})
	require.NoError(t, err)

	require.Len(t, pub.events, 1)
	got := pub.events[0]
	assert.Equal(t, "catalog.product.created", got.topic)
	assert.Equal(t, "p-1", got.event.AggregateID)
	assert.Equal(t, AggregateTypeProduct, got.event.AggregateType)
	assert.Equal(t, SourceCatalogService, got.event.Source)
	assert.Equal(t, "corr-1", got.event.CorrelationID)
	assert.Equal(t, "acme", got.event.Tenant)

	var data ProductData
	require.NoError(t, json.Unmarshal(got.event.Data, &data))
	assert.Equal(t, "mug", data.Slug)
	assert.Equal(t, int64(990), *data.Price)
	assert.Equal(t, 4, data.Position)
}

func TestProducer_PublishProductMoved(t *testing.T) {
	pub := &recordingPublisher{}
	producer := NewProducer(pub, testLogger())

	require.NoError(t, producer.PublishProductMoved(context.Background(), "mug", "cup", domain.InsertAfter))

	require.Len(t, pub.events, 1)
	assert.Equal(t, "catalog.product.moved", pub.events[0].topic)
	assert.Equal(t, "mug", pub.events[0].event.AggregateID)

	var data ProductMovedData
	require.NoError(t, json.Unmarshal(pub.events[0].event.Data, &data))
	assert.Equal(t, ProductMovedData{Slug: "mug", Anchor: "cup", Position: "after"}, data)
}

func TestProducer_PublishAttachmentUploaded(t *testing.T) {
	pub := &recordingPublisher{}
	producer := NewProducer(pub, testLogger())

	a := &domain.Attachment{
		ID: "a-1", Slug: "front", Extension: "jpg", Size: 10,
		Parent: domain.EntityReference{Type: domain.EntityTypeProduct, Slug: "mug"},
	}
	require.NoError(t, producer.PublishAttachmentUploaded(context.Background(), a))

	require.Len(t, pub.events, 1)
	assert.Equal(t, "catalog.attachment.uploaded", pub.events[0].topic)

	var data AttachmentUploadedData
	require.NoError(t, json.Unmarshal(pub.events[0].event.Data, &data))
	assert.Equal(t, "product/mug", data.Parent)
}

func TestProducer_PublishError(t *testing.T) {
	producer := NewProducer(&recordingPublisher{err: errors.New("broker down")}, testLogger())

	err := producer.PublishProductUpdated(context.Background(), &domain.Product{ID: "p-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog.product.updated")
}

func TestProducer_DisabledIsNoop(t *testing.T) {
	assert.NoError(t, NewProducer(nil, testLogger()).PublishProductCreated(context.Background(), &domain.Product{}))

	var nilProducer *Producer
	assert.NoError(t, nilProducer.PublishProductMoved(context.Background(), "a", "b", domain.InsertBefore))
}
