package model

import "time"

// ConversationStatus is the lifecycle state of a conversation. Transitions
// happen only through explicit close/reopen actions.
type ConversationStatus string

const (
	StatusOpen   ConversationStatus = "open"
	StatusClosed ConversationStatus = "closed"
)

// Conversation is one customer interaction thread, owned by a department
// and optionally assigned to a single desk user. Conversations are never
// hard-deleted.
type Conversation struct {
	ID             string             `json:"id"`
	ContactID      string             `json:"contact_id"`
	DepartmentID   string             `json:"department_id"`
	Status         ConversationStatus `json:"status"`
	AssigneeUserID *string            `json:"assignee_user_id"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
	LastMessageAt  time.Time          `json:"last_message_at"`
	SLADueAt       *time.Time         `json:"sla_due_at,omitempty"`
	Tags           []string           `json:"tags"`

	// Populated on list responses, never persisted.
	Contact     *Contact    `json:"contact,omitempty"`
	Assignee    *User       `json:"assignee,omitempty"`
	Department  *Department `json:"department,omitempty"`
	UnreadCount int         `json:"unread_count"`
	LastMessage *Message    `json:"last_message,omitempty"`
}

// AssignRequest updates assignment and/or department routing. Supplying
// neither field is accepted as a no-op.
type AssignRequest struct {
	AssigneeUserID *string `json:"assignee_user_id,omitempty"`
	DepartmentID   string  `json:"department_id,omitempty"`
}

// TagsRequest replaces the full tag set of a conversation.
type TagsRequest struct {
	Tags []string `json:"tags"`
}
