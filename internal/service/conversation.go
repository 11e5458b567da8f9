package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/uniwhats/desk/internal/middleware"
	"github.com/uniwhats/desk/internal/model"
	"github.com/uniwhats/desk/internal/notifier"
	"github.com/uniwhats/desk/internal/policy"
	"github.com/uniwhats/desk/internal/store"
	"github.com/uniwhats/desk/pkg/logger"
	"github.com/uniwhats/desk/pkg/metrics"
)

// inboundSLA is the response window granted to conversations opened by an
// inbound contact message.
const inboundSLA = 4 * time.Hour

// ListFilter mirrors the optional conversation list query parameters.
type ListFilter struct {
	DepartmentID string
	AssigneeID   string
	Status       model.ConversationStatus
	Unassigned   bool
}

// ConversationService drives the conversation lifecycle. Every operation
// goes through the access policy before touching the store, and every
// mutation is followed by a broadcast to live observers.
type ConversationService struct {
	store       Store
	broadcaster notifier.Broadcaster
	logger      *logger.Logger
}

// NewConversationService creates a conversation service.
func NewConversationService(st Store, b notifier.Broadcaster, log *logger.Logger) *ConversationService {
	return &ConversationService{store: st, broadcaster: b, logger: log}
}

// load resolves a conversation and applies the access policy. Existence is
// settled first: an unknown id is NotFound regardless of who asks, and a
// known id the actor may not touch is AccessDenied.
func (s *ConversationService) load(ctx context.Context, actor *model.User, conversationID string) (*model.Conversation, error) {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !policy.CanAccess(actor, conv) {
		return nil, ErrAccessDenied
	}
	return conv, nil
}

// List returns the conversations visible to the actor, newest activity
// first, enriched for inbox rendering.
func (s *ConversationService) List(ctx context.Context, actor *model.User, f ListFilter) ([]*model.Conversation, error) {
	conversations, err := s.store.ListConversations(ctx, store.ConversationFilter{
		Scope:        policy.ListScope(actor),
		DepartmentID: f.DepartmentID,
		AssigneeID:   f.AssigneeID,
		Status:       f.Status,
		Unassigned:   f.Unassigned,
	})
	if err != nil {
		return nil, err
	}

	for _, conv := range conversations {
		s.enrich(ctx, conv)
	}
	return conversations, nil
}

// enrich attaches contact, assignee, department, unread count and last
// message. Lookup failures leave the field empty rather than failing the
// listing.
func (s *ConversationService) enrich(ctx context.Context, conv *model.Conversation) {
	if contact, err := s.store.GetContact(ctx, conv.ContactID); err == nil {
		conv.Contact = contact
	}
	if conv.AssigneeUserID != nil {
		if assignee, err := s.store.GetUser(ctx, *conv.AssigneeUserID); err == nil {
			conv.Assignee = assignee
		}
	}
	if dept, err := s.store.GetDepartment(ctx, conv.DepartmentID); err == nil {
		conv.Department = dept
	}
	if n, err := s.store.CountUnread(ctx, conv.ID); err == nil {
		conv.UnreadCount = n
	}
	if last, err := s.store.LastMessage(ctx, conv.ID); err == nil {
		conv.LastMessage = last
	}
}

// Messages returns the conversation's messages in chronological order,
// each outbound message enriched with its sender.
func (s *ConversationService) Messages(ctx context.Context, actor *model.User, conversationID string) ([]*model.Message, error) {
	if _, err := s.load(ctx, actor, conversationID); err != nil {
		return nil, err
	}

	messages, err := s.store.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	for _, m := range messages {
		if m.SenderUserID != nil {
			if sender, err := s.store.GetUser(ctx, *m.SenderUserID); err == nil {
				m.Sender = sender
			}
		}
	}
	return messages, nil
}

// SendMessage records an outbound message from the actor and advances the
// conversation's activity timestamps.
func (s *ConversationService) SendMessage(ctx context.Context, actor *model.User, conversationID string, req *model.SendMessageRequest) (*model.Message, error) {
	if req.Type == "" {
		req.Type = model.MessageTypeText
	}
	if err := middleware.ValidateMessageBody(req.Body); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err)
	}
	if err := middleware.ValidateMessageType(req.Type); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err)
	}

	if _, err := s.load(ctx, actor, conversationID); err != nil {
		return nil, err
	}

	now := time.Now()
	msg := &model.Message{
		ID:             model.NewID("msg"),
		ConversationID: conversationID,
		Direction:      model.DirectionOut,
		Body:           req.Body,
		Type:           req.Type,
		Timestamp:      now,
		SenderUserID:   &actor.ID,
		ReadStatus:     true,
	}
	if err := s.store.InsertMessage(ctx, msg); err != nil {
		return nil, err
	}
	if err := s.store.UpdateConversation(ctx, conversationID, store.ConversationPatch{LastMessageAt: &now}, nil); err != nil {
		return nil, err
	}

	metrics.MessagesTotal.WithLabelValues(string(model.DirectionOut)).Inc()
	s.broadcaster.Broadcast(&model.Event{
		Type:           model.EventNewMessage,
		ConversationID: conversationID,
		Message:        msg,
	})
	return msg, nil
}

// Assign routes the conversation to a user and/or department. Only
// desk-wide roles may route; the gate is independent of CanAccess.
// Supplying neither field is accepted as a no-op.
func (s *ConversationService) Assign(ctx context.Context, actor *model.User, conversationID string, req *model.AssignRequest) error {
	if _, err := s.store.GetConversation(ctx, conversationID); err != nil {
		return err
	}
	if !policy.CanAssign(actor) {
		return ErrAccessDenied
	}

	if req.AssigneeUserID == nil && req.DepartmentID == "" {
		// Accepted without effect; see the assignment endpoint contract.
		return nil
	}

	patch := store.ConversationPatch{}
	update := map[string]any{}
	if req.AssigneeUserID != nil {
		patch.AssigneeID = req.AssigneeUserID
		update["assignee_user_id"] = *req.AssigneeUserID
	}
	if req.DepartmentID != "" {
		patch.DepartmentID = &req.DepartmentID
		update["department_id"] = req.DepartmentID
	}

	if err := s.store.UpdateConversation(ctx, conversationID, patch, nil); err != nil {
		return err
	}

	s.broadcaster.Broadcast(&model.Event{
		Type:           model.EventConversationAssigned,
		ConversationID: conversationID,
		Update:         update,
	})
	return nil
}

// Close moves the conversation to closed and records who did it. The
// status write and the audit message land in one store transaction.
// Closing an already-closed conversation keeps it closed and still
// appends the audit message.
func (s *ConversationService) Close(ctx context.Context, actor *model.User, conversationID string) error {
	return s.setStatus(ctx, actor, conversationID, model.StatusClosed)
}

// Reopen moves the conversation back to open.
func (s *ConversationService) Reopen(ctx context.Context, actor *model.User, conversationID string) error {
	return s.setStatus(ctx, actor, conversationID, model.StatusOpen)
}

func (s *ConversationService) setStatus(ctx context.Context, actor *model.User, conversationID string, status model.ConversationStatus) error {
	if _, err := s.load(ctx, actor, conversationID); err != nil {
		return err
	}

	verb := "closed"
	eventType := model.EventConversationClosed
	if status == model.StatusOpen {
		verb = "reopened"
		eventType = model.EventConversationReopened
	}

	sysMsg := &model.Message{
		ID:             model.NewID("msg"),
		ConversationID: conversationID,
		Direction:      model.DirectionSystem,
		Body:           fmt.Sprintf("Conversation %s by %s", verb, actor.Name),
		Type:           model.MessageTypeText,
		Timestamp:      time.Now(),
		ReadStatus:     true,
	}

	if err := s.store.UpdateConversation(ctx, conversationID, store.ConversationPatch{Status: &status}, sysMsg); err != nil {
		return err
	}

	s.logger.Info("conversation status changed",
		zap.String("conversation_id", conversationID),
		zap.String("status", string(status)),
		zap.String("actor_id", actor.ID),
	)
	s.broadcaster.Broadcast(&model.Event{
		Type:           eventType,
		ConversationID: conversationID,
		Update:         map[string]any{"status": string(status)},
	})
	return nil
}

// SetTags replaces the conversation's full tag set.
func (s *ConversationService) SetTags(ctx context.Context, actor *model.User, conversationID string, tags []string) error {
	if err := middleware.ValidateTags(tags); err != nil {
		return fmt.Errorf("%w: %s", ErrValidation, err)
	}
	if _, err := s.load(ctx, actor, conversationID); err != nil {
		return err
	}

	if tags == nil {
		tags = []string{}
	}
	if err := s.store.UpdateConversation(ctx, conversationID, store.ConversationPatch{Tags: &tags}, nil); err != nil {
		return err
	}

	s.broadcaster.Broadcast(&model.Event{
		Type:           model.EventConversationTagsUpdated,
		ConversationID: conversationID,
		Update:         map[string]any{"tags": tags},
	})
	return nil
}

// MarkRead flips the read flag on all inbound messages of the
// conversation.
func (s *ConversationService) MarkRead(ctx context.Context, actor *model.User, conversationID string) error {
	if _, err := s.load(ctx, actor, conversationID); err != nil {
		return err
	}
	if err := s.store.MarkMessagesRead(ctx, conversationID); err != nil {
		return err
	}

	s.broadcaster.Broadcast(&model.Event{
		Type:           model.EventMessagesRead,
		ConversationID: conversationID,
	})
	return nil
}

// Inbound records a contact-originated message, creating an open
// conversation in the default department when the contact has none.
func (s *ConversationService) Inbound(ctx context.Context, req *model.InboundMessageRequest) (*model.Conversation, *model.Message, error) {
	if req.Type == "" {
		req.Type = model.MessageTypeText
	}
	if err := middleware.ValidateMessageBody(req.Body); err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrValidation, err)
	}
	if err := middleware.ValidateMessageType(req.Type); err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrValidation, err)
	}

	if _, err := s.store.GetContact(ctx, req.ContactID); err != nil {
		return nil, nil, err
	}

	now := time.Now()
	conv, err := s.store.FindOpenConversation(ctx, req.ContactID)
	if errors.Is(err, store.ErrNotFound) {
		slaDue := now.Add(inboundSLA)
		conv = &model.Conversation{
			ID:            model.NewID("conv"),
			ContactID:     req.ContactID,
			DepartmentID:  store.DefaultDepartmentID,
			Status:        model.StatusOpen,
			CreatedAt:     now,
			UpdatedAt:     now,
			LastMessageAt: now,
			SLADueAt:      &slaDue,
			Tags:          []string{},
		}
		if err := s.store.InsertConversation(ctx, conv); err != nil {
			return nil, nil, err
		}
		metrics.ConversationsCreated.Inc()
	} else if err != nil {
		return nil, nil, err
	}

	msg := &model.Message{
		ID:             model.NewID("msg"),
		ConversationID: conv.ID,
		Direction:      model.DirectionIn,
		Body:           req.Body,
		Type:           req.Type,
		Timestamp:      now,
	}
	if err := s.store.InsertMessage(ctx, msg); err != nil {
		return nil, nil, err
	}
	if err := s.store.UpdateConversation(ctx, conv.ID, store.ConversationPatch{LastMessageAt: &now}, nil); err != nil {
		return nil, nil, err
	}

	metrics.MessagesTotal.WithLabelValues(string(model.DirectionIn)).Inc()
	s.broadcaster.Broadcast(&model.Event{
		Type:           model.EventNewMessage,
		ConversationID: conv.ID,
		Message:        msg,
	})
	return conv, msg, nil
}
