package amqp

import (
	"encoding/json"
	"time"
)

// SnapshotSavedMessage signals that a user's budget snapshot was saved.
// Carries only identifiers, the worker fetches the snapshot from storage.
type SnapshotSavedMessage struct {
	UserID    string    `json:"user_id"`
	MonthKey  string    `json:"month_key"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSnapshotSavedMessage creates a new message for a saved snapshot
func NewSnapshotSavedMessage(userID, monthKey string) *SnapshotSavedMessage {
	return &SnapshotSavedMessage{
		UserID:    userID,
		MonthKey:  monthKey,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *SnapshotSavedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SnapshotSavedMessageFromJSON creates a message from JSON bytes
func SnapshotSavedMessageFromJSON(data []byte) (*SnapshotSavedMessage, error) {
	var msg SnapshotSavedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
