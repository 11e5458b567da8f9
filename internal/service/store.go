package service

import (
	"context"

	"github.com/uniwhats/desk/internal/model"
	"github.com/uniwhats/desk/internal/store"
)

// Store is the persistence boundary the services depend on. The Postgres
// implementation lives in internal/store; tests use an in-memory fake.
type Store interface {
	ListConversations(ctx context.Context, f store.ConversationFilter) ([]*model.Conversation, error)
	GetConversation(ctx context.Context, id string) (*model.Conversation, error)
	FindOpenConversation(ctx context.Context, contactID string) (*model.Conversation, error)
	InsertConversation(ctx context.Context, c *model.Conversation) error
	UpdateConversation(ctx context.Context, id string, patch store.ConversationPatch, sysMsg *model.Message) error

	InsertMessage(ctx context.Context, m *model.Message) error
	ListMessages(ctx context.Context, conversationID string) ([]*model.Message, error)
	LastMessage(ctx context.Context, conversationID string) (*model.Message, error)
	CountUnread(ctx context.Context, conversationID string) (int, error)
	MarkMessagesRead(ctx context.Context, conversationID string) error

	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context) ([]*model.User, error)

	GetDepartment(ctx context.Context, id string) (*model.Department, error)
	ListDepartments(ctx context.Context) ([]*model.Department, error)

	GetContact(ctx context.Context, id string) (*model.Contact, error)
	ListContacts(ctx context.Context) ([]*model.Contact, error)
}
