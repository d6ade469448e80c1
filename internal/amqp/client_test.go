package amqp

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNewRecordSyncMessage(t *testing.T) {
	before := time.Now()
	msg := NewRecordSyncMessage(KindTransaction, 42)
	after := time.Now()

	if msg.Kind != KindTransaction {
		t.Errorf("Kind = %q, want %q", msg.Kind, KindTransaction)
	}
	if msg.ID != 42 {
		t.Errorf("ID = %d, want 42", msg.ID)
	}
	if msg.Timestamp.Before(before) || msg.Timestamp.After(after) {
		t.Errorf("Timestamp %v outside [%v, %v]", msg.Timestamp, before, after)
	}
}

func TestRecordSyncMessage_JSON(t *testing.T) {
	msg := NewRecordSyncMessage(KindPurchase, 7)

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal raw: %v", err)
	}
	if raw["kind"] != "purchase" {
		t.Errorf("kind field = %v, want purchase", raw["kind"])
	}

	got, err := RecordSyncMessageFromJSON(data)
	if err != nil {
		t.Fatalf("RecordSyncMessageFromJSON() error = %v", err)
	}
	if got.Kind != msg.Kind || got.ID != msg.ID {
		t.Errorf("round trip = %+v, want %+v", got, msg)
	}
}

func TestRecordSyncMessage_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed json", `{not json`},
		{"unknown kind", `{"kind":"expense","id":1}`},
		{"missing kind", `{"id":1}`},
		{"zero id", `{"kind":"transaction","id":0}`},
		{"negative id", `{"kind":"purchase","id":-3}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := RecordSyncMessageFromJSON([]byte(tt.data)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
