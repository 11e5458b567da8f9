package service

import (
	"context"
	"sort"
	"sync"

	"github.com/uniwhats/desk/internal/model"
	"github.com/uniwhats/desk/internal/store"
)

// fakeStore is an in-memory Store for service tests.
type fakeStore struct {
	mu            sync.Mutex
	conversations map[string]*model.Conversation
	messages      map[string][]*model.Message
	users         map[string]*model.User
	departments   map[string]*model.Department
	contacts      map[string]*model.Contact
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		conversations: map[string]*model.Conversation{},
		messages:      map[string][]*model.Message{},
		users:         map[string]*model.User{},
		departments:   map[string]*model.Department{},
		contacts:      map[string]*model.Contact{},
	}
}

func (f *fakeStore) ListConversations(_ context.Context, filter store.ConversationFilter) ([]*model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*model.Conversation
	for _, c := range f.conversations {
		if !filter.Scope.Allows(c) {
			continue
		}
		if filter.DepartmentID != "" && c.DepartmentID != filter.DepartmentID {
			continue
		}
		if filter.AssigneeID != "" && (c.AssigneeUserID == nil || *c.AssigneeUserID != filter.AssigneeID) {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if filter.Unassigned && c.AssigneeUserID != nil {
			continue
		}
		cc := *c
		out = append(out, &cc)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastMessageAt.After(out[j].LastMessageAt)
	})
	return out, nil
}

func (f *fakeStore) GetConversation(_ context.Context, id string) (*model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.conversations[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cc := *c
	return &cc, nil
}

func (f *fakeStore) FindOpenConversation(_ context.Context, contactID string) (*model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.conversations {
		if c.ContactID == contactID && c.Status == model.StatusOpen {
			cc := *c
			return &cc, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) InsertConversation(_ context.Context, c *model.Conversation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cc := *c
	f.conversations[c.ID] = &cc
	return nil
}

func (f *fakeStore) UpdateConversation(_ context.Context, id string, patch store.ConversationPatch, sysMsg *model.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.conversations[id]
	if !ok {
		return store.ErrNotFound
	}
	if patch.Status != nil {
		c.Status = *patch.Status
	}
	if patch.AssigneeID != nil {
		if *patch.AssigneeID == "" {
			c.AssigneeUserID = nil
		} else {
			v := *patch.AssigneeID
			c.AssigneeUserID = &v
		}
	}
	if patch.DepartmentID != nil {
		c.DepartmentID = *patch.DepartmentID
	}
	if patch.Tags != nil {
		c.Tags = append([]string(nil), (*patch.Tags)...)
	}
	if patch.LastMessageAt != nil {
		c.LastMessageAt = *patch.LastMessageAt
	}
	if sysMsg != nil {
		mm := *sysMsg
		f.messages[id] = append(f.messages[id], &mm)
	}
	return nil
}

func (f *fakeStore) InsertMessage(_ context.Context, m *model.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	mm := *m
	f.messages[m.ConversationID] = append(f.messages[m.ConversationID], &mm)
	return nil
}

func (f *fakeStore) ListMessages(_ context.Context, conversationID string) ([]*model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Message
	for _, m := range f.messages[conversationID] {
		mm := *m
		out = append(out, &mm)
	}
	return out, nil
}

func (f *fakeStore) LastMessage(_ context.Context, conversationID string) (*model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := f.messages[conversationID]
	if len(msgs) == 0 {
		return nil, store.ErrNotFound
	}
	mm := *msgs[len(msgs)-1]
	return &mm, nil
}

func (f *fakeStore) CountUnread(_ context.Context, conversationID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.messages[conversationID] {
		if m.Direction == model.DirectionIn && !m.ReadStatus {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) MarkMessagesRead(_ context.Context, conversationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.messages[conversationID] {
		if m.Direction == model.DirectionIn {
			m.ReadStatus = true
		}
	}
	return nil
}

func (f *fakeStore) GetUser(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	uu := *u
	return &uu, nil
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			uu := *u
			return &uu, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) ListUsers(_ context.Context) ([]*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.User
	for _, u := range f.users {
		uu := *u
		out = append(out, &uu)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) GetDepartment(_ context.Context, id string) (*model.Department, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.departments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	dd := *d
	return &dd, nil
}

func (f *fakeStore) ListDepartments(_ context.Context) ([]*model.Department, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Department
	for _, d := range f.departments {
		dd := *d
		out = append(out, &dd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) GetContact(_ context.Context, id string) (*model.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.contacts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cc := *c
	return &cc, nil
}

func (f *fakeStore) ListContacts(_ context.Context) ([]*model.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Contact
	for _, c := range f.contacts {
		cc := *c
		out = append(out, &cc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// captureBroadcaster records every broadcast event.
type captureBroadcaster struct {
	mu     sync.Mutex
	events []*model.Event
}

func (b *captureBroadcaster) Broadcast(e *model.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *captureBroadcaster) all() []*model.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*model.Event(nil), b.events...)
}

func (b *captureBroadcaster) last() *model.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.events) == 0 {
		return nil
	}
	return b.events[len(b.events)-1]
}
