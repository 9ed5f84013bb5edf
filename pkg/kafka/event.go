package kafka

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EnvelopeVersion is the version of the Event layout written by this package.
const EnvelopeVersion = 1

// Event is the envelope for every message published by the catalog. Data
// holds the topic specific payload.
type Event struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	Tenant        string          `json:"tenant,omitempty"`
	Version       int             `json:"version"`
	Timestamp     time.Time       `json:"timestamp"`
	Source        string          `json:"source"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent builds an event around data with a fresh ID and the current UTC time.
func NewEvent(eventType, aggregateID, aggregateType, source string, data any) (*Event, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}

	return &Event{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		Version:       EnvelopeVersion,
		Timestamp:     time.Now().UTC(),
		Source:        source,
		Data:          payload,
	}, nil
}

// WithCorrelationID sets the correlation ID of the request that caused the event.
func (e *Event) WithCorrelationID(id string) *Event {
	e.CorrelationID = id
	return e
}

// WithTenant sets the slug of the tenant the event belongs to.
func (e *Event) WithTenant(tenant string) *Event {
	e.Tenant = tenant
	return e
}

// DecodeEvent parses a message value written by Publish. Envelopes without
// an event type or aggregate ID, or from a newer version, are rejected.
func DecodeEvent(value []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(value, &e); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	switch {
	case e.EventType == "":
		return nil, errors.New("decode event: missing event_type")
	case e.AggregateID == "":
		return nil, errors.New("decode event: missing aggregate_id")
	case e.Version > EnvelopeVersion:
		return nil, fmt.Errorf("decode event: unsupported version %d", e.Version)
	}
	return &e, nil
}

// Topic joins parts into a dotted topic name such as "catalog.product.created".
func Topic(parts ...string) string {
	return strings.Join(parts, ".")
}
