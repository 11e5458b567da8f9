package model

// EventType enumerates the broadcast notifications observers receive.
type EventType string

const (
	EventNewMessage              EventType = "new_message"
	EventConversationUpdated     EventType = "conversation_updated"
	EventConversationAssigned    EventType = "conversation_assigned"
	EventConversationTagsUpdated EventType = "conversation_tags_updated"
	EventConversationClosed      EventType = "conversation_closed"
	EventConversationReopened    EventType = "conversation_reopened"
	EventMessagesRead            EventType = "messages_read"
)

// Event is the payload fanned out to every connected observer. The `type`
// and `conversation_id` keys are always present; `message` accompanies
// new_message and `update` accompanies the mutation events.
type Event struct {
	Type           EventType      `json:"type"`
	ConversationID string         `json:"conversation_id"`
	Message        *Message       `json:"message,omitempty"`
	Update         map[string]any `json:"update,omitempty"`
}
