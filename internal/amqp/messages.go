package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"kassabok/internal/core"
)

// EventType names the ledger change an event reports.
type EventType string

const (
	EventSaved    EventType = "saved"
	EventDeleted  EventType = "deleted"
	EventReplaced EventType = "replaced"
)

// TransactionEvent is a notification that a ledger changed. It carries
// enough to log or display the change, not to rebuild the ledger.
type TransactionEvent struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	OwnerID     int64     `json:"owner_id,omitempty"`
	Handle      string    `json:"handle,omitempty"`
	Date        string    `json:"date,omitempty"`
	Amount      float64   `json:"amount,omitempty"`
	Description string    `json:"description,omitempty"`
	Count       int       `json:"count,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

func newEvent(typ EventType, owner core.OwnerID) *TransactionEvent {
	return &TransactionEvent{
		ID:        uuid.NewString(),
		Type:      typ,
		OwnerID:   int64(owner),
		Timestamp: time.Now().UTC(),
	}
}

// NewSavedEvent reports that t was stored.
func NewSavedEvent(owner core.OwnerID, t core.Transaction) *TransactionEvent {
	e := newEvent(EventSaved, owner)
	e.Handle = t.Handle().String()
	e.Date = t.Date().String()
	e.Amount = t.Amount()
	e.Description = t.Description()
	return e
}

// NewDeletedEvent reports that the record identified by h was removed.
func NewDeletedEvent(owner core.OwnerID, h core.Handle) *TransactionEvent {
	e := newEvent(EventDeleted, owner)
	e.Handle = h.String()
	return e
}

// NewReplacedEvent reports that the ledger was replaced by count records.
func NewReplacedEvent(owner core.OwnerID, count int) *TransactionEvent {
	e := newEvent(EventReplaced, owner)
	e.Count = count
	return e
}

// ToJSON converts the event to JSON bytes
func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON decodes an event and checks its required fields.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var e TransactionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if e.ID == "" {
		return nil, errors.New("event without id")
	}
	switch e.Type {
	case EventSaved, EventDeleted, EventReplaced:
	default:
		return nil, errors.New("unknown event type " + string(e.Type))
	}
	return &e, nil
}
