package events

import (
	"time"

	"github.com/google/uuid"

	"transfer-ledger/shared"
)

type BaseEvent struct {
	EventID     uuid.UUID          `json:"eventId"`
	AggregateID string             `json:"aggregateId"`
	Version     int                `json:"version"` // Version of the aggregate *after* this event is applied.
	Timestamp   time.Time          `json:"timestamp"`
	Type        shared.MessageName `json:"type"`
}

// Event is a fact about one account. Every event is also a bus message.
type Event interface {
	GetBase() BaseEvent
	MessageName() shared.MessageName
	IssuedAt() time.Time
}

func (e BaseEvent) GetBase() BaseEvent {
	return e
}

func (e BaseEvent) MessageName() shared.MessageName {
	return e.Type
}

func (e BaseEvent) IssuedAt() time.Time {
	return e.Timestamp
}

func NewBaseEvent(aggregateID string, version int, eventType shared.MessageName) BaseEvent {
	return BaseEvent{
		EventID:     uuid.New(),
		AggregateID: aggregateID,
		Version:     version,
		Timestamp:   time.Now().UTC(),
		Type:        eventType,
	}
}
