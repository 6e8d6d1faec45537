package amqp

import (
	"testing"
	"time"
)

func TestNewTransactionCreatedMessage(t *testing.T) {
	msg := NewTransactionCreatedMessage(42, 7, "expense")

	if msg.ID != 42 {
		t.Errorf("ID = %v, want 42", msg.ID)
	}
	if msg.AccountID != 7 {
		t.Errorf("AccountID = %v, want 7", msg.AccountID)
	}
	if msg.Type != "expense" {
		t.Errorf("Type = %v, want expense", msg.Type)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp should not be zero")
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Error("Timestamp should be recent")
	}
}

func TestTransactionCreatedMessage_JSON(t *testing.T) {
	timestamp := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	msg := &TransactionCreatedMessage{
		ID:        42,
		AccountID: 7,
		Type:      "income",
		Timestamp: timestamp,
	}

	jsonBytes, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := TransactionCreatedMessageFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("TransactionCreatedMessageFromJSON() error = %v", err)
	}

	if parsed.ID != msg.ID {
		t.Errorf("Parsed ID = %v, want %v", parsed.ID, msg.ID)
	}
	if parsed.AccountID != msg.AccountID {
		t.Errorf("Parsed AccountID = %v, want %v", parsed.AccountID, msg.AccountID)
	}
	if parsed.Type != msg.Type {
		t.Errorf("Parsed Type = %v, want %v", parsed.Type, msg.Type)
	}
	if !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("Parsed Timestamp = %v, want %v", parsed.Timestamp, msg.Timestamp)
	}
}

func TestTransactionCreatedMessage_InvalidJSON(t *testing.T) {
	invalidJSON := []byte(`{"id": "not_a_number", "account_id": 1}`)

	if _, err := TransactionCreatedMessageFromJSON(invalidJSON); err == nil {
		t.Error("TransactionCreatedMessageFromJSON() should fail with invalid JSON")
	}
}
