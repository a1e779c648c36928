package types

import "time"

// Direction of a message relative to the tenant.
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
	DirectionUnknown  Direction = "unknown"
)

// MessageType is the content kind carried by a message.
type MessageType string

const (
	MessageText    MessageType = "text"
	MessageFile    MessageType = "file"
	MessageEvent   MessageType = "event"
	MessageImage   MessageType = "image"
	MessageAudio   MessageType = "audio"
	MessageVideo   MessageType = "video"
	MessageUnknown MessageType = "unknown"
)

// CloseMotive is the categorical outcome recorded when a session ends.
// The set is extensible; unrecognized and empty values map to CloseUnknown.
type CloseMotive string

const CloseUnknown CloseMotive = "unknown"

// LoyaltyTier classifies a contact by cumulative session count.
type LoyaltyTier string

const (
	TierSingle     LoyaltyTier = "single"
	TierOccasional LoyaltyTier = "occasional"
	TierRegular    LoyaltyTier = "regular"
	TierFrequent   LoyaltyTier = "frequent"
)

// Message is one inbound or outbound content unit within a session.
// Immutable after load; Date, Hour and Weekday are derived at normalization.
type Message struct {
	TenantID  string      `json:"tenant_id,omitempty"`
	ContactID string      `json:"contact_id"`
	MessageID string      `json:"message_id"`
	SessionID string      `json:"session_id"`
	Direction Direction   `json:"direction"`
	Type      MessageType `json:"type"`
	Content   string      `json:"content,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at,omitempty"`

	Date    string `json:"date"`    // calendar day, 2006-01-02, UTC
	Hour    int    `json:"hour"`    // 0-23
	Weekday int    `json:"weekday"` // 0-6, Monday=0
}

// Session is one continuous customer-operator interaction.
type Session struct {
	SessionID             string        `json:"session_id"`
	OperatorID            string        `json:"operator_id,omitempty"` // empty = unassigned
	QueueDuration         time.Duration `json:"queue_duration"`
	ManualDuration        time.Duration `json:"manual_duration"`
	TotalDuration         time.Duration `json:"total_duration"`
	Rating                *int          `json:"rating,omitempty"` // 1-5, nil = unrated
	CloseMotive           CloseMotive   `json:"close_motive"`
	MessageCount          int           `json:"message_count"`
	OpenedAt              time.Time     `json:"opened_at"`
	ClosedAt              time.Time     `json:"closed_at,omitempty"`
	Channel               string        `json:"channel,omitempty"`
	PluginConnectionLabel string        `json:"plugin_connection_label,omitempty"`

	Date    string `json:"date"`
	Hour    int    `json:"hour"`
	Weekday int    `json:"weekday"`
}

// Efficiency is 1/total duration in seconds. The second return is false when
// the session has no measured duration; such sessions drop out of averages.
func (s Session) Efficiency() (float64, bool) {
	if s.TotalDuration <= 0 {
		return 0, false
	}
	return 1 / s.TotalDuration.Seconds(), true
}

// Assigned reports whether the session has an operator.
func (s Session) Assigned() bool { return s.OperatorID != "" }

// Contact is derived from messages; it does not exist in the raw input.
type Contact struct {
	ContactID    string      `json:"contact_id"`
	FirstSeen    time.Time   `json:"first_seen"`
	LastSeen     time.Time   `json:"last_seen"`
	SessionCount int         `json:"session_count"`
	MessageCount int         `json:"message_count"`
	Tier         LoyaltyTier `json:"tier"`
}

// RelationshipDays is the span between a contact's first and last message.
func (c Contact) RelationshipDays() int {
	return int(c.LastSeen.Sub(c.FirstSeen).Hours() / 24)
}
