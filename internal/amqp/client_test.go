package amqp

import (
	"testing"
	"time"
)

func TestNewSnapshotSavedMessage(t *testing.T) {
	msg := NewSnapshotSavedMessage("u1", "2025-07")

	if msg.UserID != "u1" {
		t.Errorf("NewSnapshotSavedMessage() UserID = %v, want u1", msg.UserID)
	}
	if msg.MonthKey != "2025-07" {
		t.Errorf("NewSnapshotSavedMessage() MonthKey = %v, want 2025-07", msg.MonthKey)
	}
	if msg.Timestamp.IsZero() {
		t.Error("NewSnapshotSavedMessage() Timestamp should not be zero")
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Error("NewSnapshotSavedMessage() Timestamp should be recent")
	}
}

func TestSnapshotSavedMessage_JSON(t *testing.T) {
	timestamp := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	msg := &SnapshotSavedMessage{
		UserID:    "1720000000000",
		MonthKey:  "2025-07",
		Timestamp: timestamp,
	}

	jsonBytes, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsedMsg, err := SnapshotSavedMessageFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("SnapshotSavedMessageFromJSON() error = %v", err)
	}

	if parsedMsg.UserID != msg.UserID {
		t.Errorf("Parsed UserID = %v, want %v", parsedMsg.UserID, msg.UserID)
	}
	if parsedMsg.MonthKey != msg.MonthKey {
		t.Errorf("Parsed MonthKey = %v, want %v", parsedMsg.MonthKey, msg.MonthKey)
	}
	if !parsedMsg.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("Parsed Timestamp = %v, want %v", parsedMsg.Timestamp, msg.Timestamp)
	}
}

func TestSnapshotSavedMessage_InvalidJSON(t *testing.T) {
	invalidJSON := []byte(`{"user_id": 42, "month_key": 1}`)

	_, err := SnapshotSavedMessageFromJSON(invalidJSON)
	if err == nil {
		t.Error("SnapshotSavedMessageFromJSON() should fail with invalid JSON")
	}
}
