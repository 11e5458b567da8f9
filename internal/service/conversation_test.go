package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniwhats/desk/internal/model"
	"github.com/uniwhats/desk/internal/store"
	"github.com/uniwhats/desk/pkg/logger"
)

func strptr(s string) *string { return &s }

func seedFixture(f *fakeStore) {
	f.departments["dept_a"] = &model.Department{ID: "dept_a", Name: "Reception"}
	f.departments["dept_b"] = &model.Department{ID: "dept_b", Name: "Sales"}
	f.departments[store.DefaultDepartmentID] = &model.Department{ID: store.DefaultDepartmentID, Name: "Reception Desk"}

	f.users["u_manager"] = &model.User{ID: "u_manager", Name: "Maria", Role: model.RoleManager}
	f.users["u_coord"] = &model.User{ID: "u_coord", Name: "Carlos", Role: model.RoleCoordinator, DepartmentID: "dept_a"}
	f.users["u_rep"] = &model.User{ID: "u_rep", Name: "Ana", Role: model.RoleSalesRep, DepartmentID: "dept_b"}

	f.contacts["contact_1"] = &model.Contact{ID: "contact_1", Name: "João", WaID: "5511999990001"}
	f.contacts["contact_2"] = &model.Contact{ID: "contact_2", Name: "Beatriz", WaID: "5511999990002"}

	now := time.Now()
	f.conversations["conv_a"] = &model.Conversation{
		ID: "conv_a", ContactID: "contact_1", DepartmentID: "dept_a",
		Status: model.StatusOpen, CreatedAt: now, UpdatedAt: now, LastMessageAt: now,
		Tags: []string{"vip"},
	}
	f.conversations["conv_b"] = &model.Conversation{
		ID: "conv_b", ContactID: "contact_2", DepartmentID: "dept_b",
		Status: model.StatusOpen, AssigneeUserID: strptr("u_rep"),
		CreatedAt: now, UpdatedAt: now, LastMessageAt: now.Add(-time.Hour),
	}
}

func newConversationFixture() (*ConversationService, *fakeStore, *captureBroadcaster) {
	f := newFakeStore()
	seedFixture(f)
	b := &captureBroadcaster{}
	return NewConversationService(f, b, logger.NewNop()), f, b
}

func TestListScoping(t *testing.T) {
	svc, f, _ := newConversationFixture()
	ctx := context.Background()

	manager, _ := f.GetUser(ctx, "u_manager")
	coord, _ := f.GetUser(ctx, "u_coord")
	rep, _ := f.GetUser(ctx, "u_rep")

	all, err := svc.List(ctx, manager, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	scoped, err := svc.List(ctx, coord, ListFilter{})
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "conv_a", scoped[0].ID)

	mine, err := svc.List(ctx, rep, ListFilter{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "conv_b", mine[0].ID)
}

func TestListEnrichment(t *testing.T) {
	svc, f, _ := newConversationFixture()
	ctx := context.Background()

	require.NoError(t, f.InsertMessage(ctx, &model.Message{
		ID: "msg_1", ConversationID: "conv_a", Direction: model.DirectionIn,
		Body: "Olá", Type: model.MessageTypeText, Timestamp: time.Now(),
	}))

	manager, _ := f.GetUser(ctx, "u_manager")
	convs, err := svc.List(ctx, manager, ListFilter{DepartmentID: "dept_a"})
	require.NoError(t, err)
	require.Len(t, convs, 1)

	conv := convs[0]
	require.NotNil(t, conv.Contact)
	assert.Equal(t, "João", conv.Contact.Name)
	require.NotNil(t, conv.Department)
	assert.Equal(t, "Reception", conv.Department.Name)
	assert.Equal(t, 1, conv.UnreadCount)
	require.NotNil(t, conv.LastMessage)
	assert.Equal(t, "msg_1", conv.LastMessage.ID)
}

func TestMessagesAccessDenied(t *testing.T) {
	svc, f, _ := newConversationFixture()
	ctx := context.Background()

	coord, _ := f.GetUser(ctx, "u_coord")

	_, err := svc.Messages(ctx, coord, "conv_b")
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = svc.Messages(ctx, coord, "conv_missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSendMessage(t *testing.T) {
	svc, f, b := newConversationFixture()
	ctx := context.Background()

	rep, _ := f.GetUser(ctx, "u_rep")
	msg, err := svc.SendMessage(ctx, rep, "conv_b", &model.SendMessageRequest{Body: "On it"})
	require.NoError(t, err)

	assert.Equal(t, model.DirectionOut, msg.Direction)
	assert.Equal(t, model.MessageTypeText, msg.Type)
	assert.True(t, msg.ReadStatus)
	require.NotNil(t, msg.SenderUserID)
	assert.Equal(t, "u_rep", *msg.SenderUserID)

	conv, err := f.GetConversation(ctx, "conv_b")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), conv.LastMessageAt, time.Minute)

	ev := b.last()
	require.NotNil(t, ev)
	assert.Equal(t, model.EventNewMessage, ev.Type)
	assert.Equal(t, "conv_b", ev.ConversationID)
	require.NotNil(t, ev.Message)
	assert.Equal(t, msg.ID, ev.Message.ID)
}

func TestSendMessageValidation(t *testing.T) {
	svc, f, b := newConversationFixture()
	ctx := context.Background()
	rep, _ := f.GetUser(ctx, "u_rep")

	_, err := svc.SendMessage(ctx, rep, "conv_b", &model.SendMessageRequest{Body: ""})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.SendMessage(ctx, rep, "conv_b", &model.SendMessageRequest{Body: "hi", Type: "video"})
	assert.ErrorIs(t, err, ErrValidation)

	assert.Empty(t, b.all())
}

func TestAssignRoleGate(t *testing.T) {
	svc, f, b := newConversationFixture()
	ctx := context.Background()

	coord, _ := f.GetUser(ctx, "u_coord")
	err := svc.Assign(ctx, coord, "conv_a", &model.AssignRequest{AssigneeUserID: strptr("u_coord")})
	assert.ErrorIs(t, err, ErrAccessDenied)
	assert.Empty(t, b.all())

	manager, _ := f.GetUser(ctx, "u_manager")
	err = svc.Assign(ctx, manager, "conv_a", &model.AssignRequest{
		AssigneeUserID: strptr("u_coord"),
		DepartmentID:   "dept_b",
	})
	require.NoError(t, err)

	conv, err := f.GetConversation(ctx, "conv_a")
	require.NoError(t, err)
	require.NotNil(t, conv.AssigneeUserID)
	assert.Equal(t, "u_coord", *conv.AssigneeUserID)
	assert.Equal(t, "dept_b", conv.DepartmentID)

	ev := b.last()
	require.NotNil(t, ev)
	assert.Equal(t, model.EventConversationAssigned, ev.Type)
	assert.Equal(t, "u_coord", ev.Update["assignee_user_id"])
	assert.Equal(t, "dept_b", ev.Update["department_id"])
}

func TestAssignEmptyRequestIsNoOp(t *testing.T) {
	svc, f, b := newConversationFixture()
	ctx := context.Background()

	manager, _ := f.GetUser(ctx, "u_manager")
	require.NoError(t, svc.Assign(ctx, manager, "conv_a", &model.AssignRequest{}))

	conv, err := f.GetConversation(ctx, "conv_a")
	require.NoError(t, err)
	assert.Nil(t, conv.AssigneeUserID)
	assert.Equal(t, "dept_a", conv.DepartmentID)
	assert.Empty(t, b.all())
}

func TestCloseAndReopen(t *testing.T) {
	svc, f, b := newConversationFixture()
	ctx := context.Background()

	manager, _ := f.GetUser(ctx, "u_manager")
	require.NoError(t, svc.Close(ctx, manager, "conv_a"))

	conv, err := f.GetConversation(ctx, "conv_a")
	require.NoError(t, err)
	assert.Equal(t, model.StatusClosed, conv.Status)

	msgs, err := svc.Messages(ctx, manager, "conv_a")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, model.DirectionSystem, msgs[0].Direction)
	assert.Equal(t, "Conversation closed by Maria", msgs[0].Body)

	ev := b.last()
	require.NotNil(t, ev)
	assert.Equal(t, model.EventConversationClosed, ev.Type)
	assert.Equal(t, "closed", ev.Update["status"])

	require.NoError(t, svc.Reopen(ctx, manager, "conv_a"))
	conv, err = f.GetConversation(ctx, "conv_a")
	require.NoError(t, err)
	assert.Equal(t, model.StatusOpen, conv.Status)

	msgs, err = svc.Messages(ctx, manager, "conv_a")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "Conversation reopened by Maria", msgs[1].Body)

	ev = b.last()
	assert.Equal(t, model.EventConversationReopened, ev.Type)
	assert.Equal(t, "open", ev.Update["status"])
}

func TestCloseIsIdempotent(t *testing.T) {
	svc, f, _ := newConversationFixture()
	ctx := context.Background()

	manager, _ := f.GetUser(ctx, "u_manager")
	require.NoError(t, svc.Close(ctx, manager, "conv_a"))
	require.NoError(t, svc.Close(ctx, manager, "conv_a"))

	conv, err := f.GetConversation(ctx, "conv_a")
	require.NoError(t, err)
	assert.Equal(t, model.StatusClosed, conv.Status)

	msgs, err := svc.Messages(ctx, manager, "conv_a")
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}

func TestSetTagsFullReplace(t *testing.T) {
	svc, f, b := newConversationFixture()
	ctx := context.Background()

	manager, _ := f.GetUser(ctx, "u_manager")
	require.NoError(t, svc.SetTags(ctx, manager, "conv_a", []string{"urgent", "billing"}))

	conv, err := f.GetConversation(ctx, "conv_a")
	require.NoError(t, err)
	assert.Equal(t, []string{"urgent", "billing"}, conv.Tags)

	ev := b.last()
	require.NotNil(t, ev)
	assert.Equal(t, model.EventConversationTagsUpdated, ev.Type)
	assert.Equal(t, []string{"urgent", "billing"}, ev.Update["tags"])

	// An empty set clears every tag, including pre-existing ones.
	require.NoError(t, svc.SetTags(ctx, manager, "conv_a", []string{}))
	conv, err = f.GetConversation(ctx, "conv_a")
	require.NoError(t, err)
	assert.Empty(t, conv.Tags)
}

func TestMarkRead(t *testing.T) {
	svc, f, b := newConversationFixture()
	ctx := context.Background()

	require.NoError(t, f.InsertMessage(ctx, &model.Message{
		ID: "msg_in", ConversationID: "conv_a", Direction: model.DirectionIn,
		Body: "Oi", Type: model.MessageTypeText, Timestamp: time.Now(),
	}))

	coord, _ := f.GetUser(ctx, "u_coord")
	require.NoError(t, svc.MarkRead(ctx, coord, "conv_a"))

	n, err := f.CountUnread(ctx, "conv_a")
	require.NoError(t, err)
	assert.Zero(t, n)

	ev := b.last()
	require.NotNil(t, ev)
	assert.Equal(t, model.EventMessagesRead, ev.Type)
	assert.Equal(t, "conv_a", ev.ConversationID)
	assert.Nil(t, ev.Update)
}

func TestInboundCreatesConversation(t *testing.T) {
	svc, f, b := newConversationFixture()
	ctx := context.Background()

	f.contacts["contact_new"] = &model.Contact{ID: "contact_new", Name: "Pedro", WaID: "5511999990009"}

	conv, msg, err := svc.Inbound(ctx, &model.InboundMessageRequest{
		ContactID: "contact_new",
		Body:      "Preciso de ajuda",
	})
	require.NoError(t, err)

	assert.Equal(t, store.DefaultDepartmentID, conv.DepartmentID)
	assert.Equal(t, model.StatusOpen, conv.Status)
	assert.Nil(t, conv.AssigneeUserID)
	require.NotNil(t, conv.SLADueAt)
	assert.WithinDuration(t, time.Now().Add(inboundSLA), *conv.SLADueAt, time.Minute)

	assert.Equal(t, model.DirectionIn, msg.Direction)
	assert.Nil(t, msg.SenderUserID)
	assert.False(t, msg.ReadStatus)

	ev := b.last()
	require.NotNil(t, ev)
	assert.Equal(t, model.EventNewMessage, ev.Type)
	assert.Equal(t, conv.ID, ev.ConversationID)
}

func TestInboundReusesOpenConversation(t *testing.T) {
	svc, f, _ := newConversationFixture()
	ctx := context.Background()

	conv, _, err := svc.Inbound(ctx, &model.InboundMessageRequest{
		ContactID: "contact_1",
		Body:      "Ainda aí?",
	})
	require.NoError(t, err)
	assert.Equal(t, "conv_a", conv.ID)
	assert.Len(t, f.conversations, 2)
}

func TestInboundUnknownContact(t *testing.T) {
	svc, _, b := newConversationFixture()
	ctx := context.Background()

	_, _, err := svc.Inbound(ctx, &model.InboundMessageRequest{
		ContactID: "contact_ghost",
		Body:      "hello",
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Empty(t, b.all())
}
