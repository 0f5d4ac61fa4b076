package amqp

import (
	"encoding/json"
	"time"
)

const (
	ActionCreated = "created"
	ActionDeleted = "deleted"
)

// EntryEvent is a compact ledger event: which entry changed and how.
// Consumers fetch the full row from the store when they need it.
type EntryEvent struct {
	EntryID   int64     `json:"entry_id"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEntryEvent(entryID int64, action string) *EntryEvent {
	return &EntryEvent{
		EntryID:   entryID,
		Action:    action,
		Timestamp: time.Now(),
	}
}

func (m *EntryEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func EntryEventFromJSON(data []byte) (*EntryEvent, error) {
	var msg EntryEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
