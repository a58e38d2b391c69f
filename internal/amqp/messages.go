package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

type EventType string

const (
	// EventTransactionRecorded is published for every new ledger entry.
	EventTransactionRecorded EventType = "transaction.recorded"
	// EventInvoiceUpdated is published when an invoice changes status.
	EventInvoiceUpdated EventType = "invoice.updated"
)

// Event is a lightweight notification. It carries ids only; consumers load
// the current record from the database.
type Event struct {
	Type          EventType `json:"type"`
	UserID        int64     `json:"userId"`
	TransactionID int64     `json:"transactionId,omitempty"`
	InvoiceID     int64     `json:"invoiceId,omitempty"`
	Status        string    `json:"status,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewTransactionRecorded(userID, transactionID int64) *Event {
	return &Event{
		Type:          EventTransactionRecorded,
		UserID:        userID,
		TransactionID: transactionID,
		Timestamp:     time.Now(),
	}
}

func NewInvoiceUpdated(userID, invoiceID int64, status string) *Event {
	return &Event{
		Type:      EventInvoiceUpdated,
		UserID:    userID,
		InvoiceID: invoiceID,
		Status:    status,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EventFromJSON decodes an event and rejects unknown types.
func EventFromJSON(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	switch e.Type {
	case EventTransactionRecorded:
		if e.TransactionID == 0 {
			return nil, fmt.Errorf("%s event without transaction id", e.Type)
		}
	case EventInvoiceUpdated:
		if e.InvoiceID == 0 {
			return nil, fmt.Errorf("%s event without invoice id", e.Type)
		}
	default:
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
	if e.UserID == 0 {
		return nil, fmt.Errorf("%s event without user id", e.Type)
	}
	return &e, nil
}
