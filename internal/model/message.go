package model

import "time"

// Direction tells who produced a message. Inbound messages always have a
// nil sender; system messages are synthesized by lifecycle transitions.
type Direction string

const (
	DirectionIn     Direction = "in"
	DirectionOut    Direction = "out"
	DirectionSystem Direction = "system"
)

// MessageType is the content type of a message body.
type MessageType string

const (
	MessageTypeText     MessageType = "text"
	MessageTypeImage    MessageType = "image"
	MessageTypeDocument MessageType = "document"
	MessageTypeAudio    MessageType = "audio"
)

// Message is a single conversation entry.
type Message struct {
	ID             string      `json:"id"`
	ConversationID string      `json:"conversation_id"`
	Direction      Direction   `json:"direction"`
	Body           string      `json:"body"`
	Type           MessageType `json:"type"`
	MediaURL       string      `json:"media_url,omitempty"`
	Timestamp      time.Time   `json:"timestamp"`
	SenderUserID   *string     `json:"sender_user_id"`
	ReadStatus     bool        `json:"read_status"`

	// Populated on list responses, never persisted.
	Sender *User `json:"sender,omitempty"`
}

// SendMessageRequest is an outbound message from a desk user.
type SendMessageRequest struct {
	Body string      `json:"body"`
	Type MessageType `json:"type,omitempty"`
}

// InboundMessageRequest simulates a WhatsApp webhook delivery.
type InboundMessageRequest struct {
	ContactID string      `json:"contact_id"`
	Body      string      `json:"message"`
	Type      MessageType `json:"message_type,omitempty"`
}
