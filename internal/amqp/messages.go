package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// RecordKind identifies which store table a sync message refers to.
type RecordKind string

const (
	KindTransaction RecordKind = "transaction"
	KindPurchase    RecordKind = "purchase"
)

// RecordSyncMessage is a lightweight notification that a record changed.
// It carries only the kind and ID; the worker fetches the full record
// from the database before exporting it.
type RecordSyncMessage struct {
	Kind      RecordKind `json:"kind"`
	ID        int64      `json:"id"`
	Timestamp time.Time  `json:"timestamp"`
}

func NewRecordSyncMessage(kind RecordKind, id int64) *RecordSyncMessage {
	return &RecordSyncMessage{
		Kind:      kind,
		ID:        id,
		Timestamp: time.Now(),
	}
}

func (m *RecordSyncMessage) Validate() error {
	switch m.Kind {
	case KindTransaction, KindPurchase:
	default:
		return fmt.Errorf("unknown record kind %q", m.Kind)
	}
	if m.ID <= 0 {
		return fmt.Errorf("invalid record id %d", m.ID)
	}
	return nil
}

func (m *RecordSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func RecordSyncMessageFromJSON(data []byte) (*RecordSyncMessage, error) {
	var msg RecordSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
