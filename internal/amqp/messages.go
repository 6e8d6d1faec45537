package amqp

import (
	"encoding/json"
	"time"
)

// TransactionCreatedMessage is a lightweight event carrying the identity
// of a new transaction. Consumers that need the full record fetch it from
// the database by id.
type TransactionCreatedMessage struct {
	ID        int64     `json:"id"`
	AccountID int64     `json:"account_id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionCreatedMessage(id, accountID int64, txType string) *TransactionCreatedMessage {
	return &TransactionCreatedMessage{
		ID:        id,
		AccountID: accountID,
		Type:      txType,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *TransactionCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionCreatedMessageFromJSON creates a message from JSON bytes.
func TransactionCreatedMessageFromJSON(data []byte) (*TransactionCreatedMessage, error) {
	var msg TransactionCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
