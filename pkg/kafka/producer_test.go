package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func headerMap(msg kafka.Message) map[string]string {
	out := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		out[h.Key] = string(h.Value)
	}
	return out
}

func TestNewEvent_Fields(t *testing.T) {
	data := map[string]string{"slug": "blue-mug"}
	event, err := NewEvent("product.created", "blue-mug", "product", "catalog", data)
	require.NoError(t, err)

	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, "product.created", event.EventType)
	assert.Equal(t, "blue-mug", event.AggregateID)
	assert.Equal(t, 1, event.Version)
	assert.WithinDuration(t, time.Now().UTC(), event.Timestamp, 2*time.Second)

	var got map[string]string
	require.NoError(t, json.Unmarshal(event.Data, &got))
	assert.Equal(t, data, got)
}

func TestNewEvent_InvalidData(t *testing.T) {
	_, err := NewEvent("product.created", "x", "product", "catalog", make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "product.created")
}

func TestDecodeEvent_RestoresTenant(t *testing.T) {
	event, err := NewEvent("product.moved", "mug", "product", "catalog", nil)
	require.NoError(t, err)
	event.WithTenant("shop").WithCorrelationID("corr-1")

	raw, err := json.Marshal(event)
	require.NoError(t, err)

	restored, err := DecodeEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, "shop", restored.Tenant)
	assert.Equal(t, "corr-1", restored.CorrelationID)
	assert.Equal(t, EnvelopeVersion, restored.Version)
}

func TestDecodeEvent_Rejects(t *testing.T) {
	tests := map[string]string{
		"malformed":       `{`,
		"no event type":   `{"aggregate_id":"mug","version":1}`,
		"no aggregate id": `{"event_type":"product.created","version":1}`,
		"newer version":   `{"event_type":"product.created","aggregate_id":"mug","version":2}`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeEvent([]byte(raw))
			assert.Error(t, err)
		})
	}
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "catalog.product.created", Topic("catalog", "product", "created"))
	assert.Equal(t, "catalog", Topic("catalog"))
}

func TestProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, []string{"localhost:9092"}, testLogger())

	event, err := NewEvent("product.created", "blue-mug", "product", "catalog", map[string]string{"slug": "blue-mug"})
	require.NoError(t, err)
	event.WithTenant("shop").WithCorrelationID("corr-9")

	before := testutil.ToFloat64(eventsPublished.WithLabelValues("catalog.product.created", resultOK))
	require.NoError(t, p.Publish(context.Background(), "catalog.product.created", event))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "catalog.product.created", msg.Topic)
	assert.Equal(t, "blue-mug", string(msg.Key))

	headers := headerMap(msg)
	assert.Equal(t, "product.created", headers["event_type"])
	assert.Equal(t, "catalog", headers["source"])
	assert.Equal(t, "shop", headers["tenant"])
	assert.Equal(t, "corr-9", headers["correlation_id"])

	after := testutil.ToFloat64(eventsPublished.WithLabelValues("catalog.product.created", resultOK))
	assert.Equal(t, before+1, after)
}

func TestProducer_PublishError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := newProducer(w, nil, testLogger())

	event, err := NewEvent("product.updated", "mug", "product", "catalog", nil)
	require.NoError(t, err)

	before := testutil.ToFloat64(eventsPublished.WithLabelValues("catalog.product.updated", resultError))
	err = p.Publish(context.Background(), "catalog.product.updated", event)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog.product.updated")
	assert.Equal(t, before+1, testutil.ToFloat64(eventsPublished.WithLabelValues("catalog.product.updated", resultError)))
}

func TestProducer_PingWithoutBrokers(t *testing.T) {
	p := newProducer(&fakeWriter{}, nil, testLogger())
	assert.Error(t, p.Ping(context.Background()))
}

func TestProducer_Close(t *testing.T) {
	w := &fakeWriter{}
	require.NoError(t, newProducer(w, nil, testLogger()).Close())
	assert.True(t, w.closed)
}
