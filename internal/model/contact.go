package model

import "time"

// Contact is the WhatsApp-side party of a conversation.
type Contact struct {
	ID           string            `json:"id"`
	WaID         string            `json:"wa_id"`
	Phone        string            `json:"phone"`
	Name         string            `json:"name"`
	StudentID    string            `json:"student_id,omitempty"`
	Tags         []string          `json:"tags"`
	CustomFields map[string]string `json:"custom_fields"`
	CreatedAt    time.Time         `json:"created_at"`
}
