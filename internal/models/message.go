package models

import "time"

type MessageType string

const (
	MessageTypeNormal  MessageType = "normal"
	MessageTypeDelayed MessageType = "delayed"
)

// SealedContentPlaceholder replaces the content of a delayed message until
// its unlock date passes.
const SealedContentPlaceholder = "can only see after the unlock date"

type Message struct {
	ID         int64       `json:"id"`
	ReceiverID int64       `json:"receiver_id"`
	Type       MessageType `json:"type"`
	SenderName string      `json:"sender_name"`
	Content    string      `json:"content"`
	UnlockDate *time.Time  `json:"unlock_date,omitempty"` // set iff type=delayed
	IsRead     bool        `json:"is_read"`
	CreatedAt  time.Time   `json:"created_at"`

	// derived at read time, never stored
	IsUnlocked bool `json:"is_unlocked"`
}

// Unlocked reports whether the content may be disclosed at the given moment.
// Normal messages are always unlocked; a delayed message unseals once the
// unlock date passes. One-way and time-driven, recomputed on every read.
func (m *Message) Unlocked(now time.Time) bool {
	if m.Type != MessageTypeDelayed || m.UnlockDate == nil {
		return true
	}
	return !now.Before(*m.UnlockDate)
}

type SubmitMessageRequest struct {
	Type       MessageType `json:"type"`
	SenderName string      `json:"sender_name"`
	Content    string      `json:"content"`
	UnlockDate *time.Time  `json:"unlock_date"`
}
