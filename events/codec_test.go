package events_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"transfer-ledger/events"
	"transfer-ledger/shared"
)

func TestEncodeDecode_TransferMade(t *testing.T) {
	original := events.TransferMadeEvent{
		BaseEvent:   events.NewBaseEvent("acc-1", 2, shared.TransferMadeEventName),
		TransferID:  "tr-1",
		Amount:      decimal.RequireFromString("100.25"),
		ToAccountID: "acc-2",
	}

	name, data, err := events.Encode(original)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if name != shared.TransferMadeEventName {
		t.Errorf("expected type tag TransferMade, got %s", name)
	}

	decoded, err := events.Decode(name, data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	got, ok := decoded.(events.TransferMadeEvent)
	if !ok {
		t.Fatalf("expected TransferMadeEvent, got %T", decoded)
	}
	if got.EventID != original.EventID || got.Version != 2 || got.AggregateID != "acc-1" {
		t.Errorf("base mismatch: %+v", got.BaseEvent)
	}
	if !got.Amount.Equal(original.Amount) || got.ToAccountID != "acc-2" || got.TransferID != "tr-1" {
		t.Errorf("payload mismatch: %+v", got)
	}
	if !got.Timestamp.Equal(original.Timestamp) {
		t.Errorf("timestamp mismatch: %v vs %v", got.Timestamp, original.Timestamp)
	}
}

func TestDecode_UnknownType(t *testing.T) {
	if _, err := events.Decode("DepositMade", []byte(`{}`)); err == nil {
		t.Errorf("expected error for unknown event type")
	}
}
