package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uniwhats/desk/internal/model"
	"github.com/uniwhats/desk/internal/policy"
)

// Postgres is the document-store boundary the services depend on.
type Postgres struct {
	db *sql.DB
}

// NewPostgres wraps an open database handle.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// DB exposes the underlying handle for health checks.
func (s *Postgres) DB() *sql.DB {
	return s.db
}

// ConversationFilter narrows a conversation listing. Scope is mandatory;
// the remaining fields mirror the optional query parameters.
type ConversationFilter struct {
	Scope        policy.Scope
	DepartmentID string
	AssigneeID   string
	Status       model.ConversationStatus
	Unassigned   bool
}

// ConversationPatch is a field-level update; nil members are left alone.
// UpdatedAt is always advanced.
type ConversationPatch struct {
	Status        *model.ConversationStatus
	AssigneeID    *string
	DepartmentID  *string
	Tags          *[]string
	LastMessageAt *time.Time
}

const conversationColumns = `id, contact_id, department_id, status, assignee_user_id,
	created_at, updated_at, last_message_at, sla_due_at, tags`

func scanConversation(row interface{ Scan(...any) error }) (*model.Conversation, error) {
	var (
		c        model.Conversation
		assignee sql.NullString
		slaDue   sql.NullTime
		tagsRaw  []byte
	)
	err := row.Scan(&c.ID, &c.ContactID, &c.DepartmentID, &c.Status, &assignee,
		&c.CreatedAt, &c.UpdatedAt, &c.LastMessageAt, &slaDue, &tagsRaw)
	if err != nil {
		return nil, err
	}
	if assignee.Valid {
		c.AssigneeUserID = &assignee.String
	}
	if slaDue.Valid {
		t := slaDue.Time
		c.SLADueAt = &t
	}
	if err := json.Unmarshal(tagsRaw, &c.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	return &c, nil
}

// ListConversations returns scope-visible conversations, newest activity
// first.
func (s *Postgres) ListConversations(ctx context.Context, f ConversationFilter) ([]*model.Conversation, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if !f.Scope.All {
		where = append(where, fmt.Sprintf("(department_id = %s OR assignee_user_id = %s)",
			arg(f.Scope.DepartmentID), arg(f.Scope.ActorID)))
	}
	if f.DepartmentID != "" {
		where = append(where, "department_id = "+arg(f.DepartmentID))
	}
	if f.AssigneeID != "" {
		where = append(where, "assignee_user_id = "+arg(f.AssigneeID))
	}
	if f.Status != "" {
		where = append(where, "status = "+arg(string(f.Status)))
	}
	if f.Unassigned {
		where = append(where, "assignee_user_id IS NULL")
	}

	query := "SELECT " + conversationColumns + " FROM conversations"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY last_message_at DESC LIMIT 100"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var conversations []*model.Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		conversations = append(conversations, c)
	}
	return conversations, rows.Err()
}

// GetConversation fetches one conversation or ErrNotFound.
func (s *Postgres) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+conversationColumns+" FROM conversations WHERE id = $1", id)
	c, err := scanConversation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return c, nil
}

// FindOpenConversation returns the contact's open conversation, if any.
func (s *Postgres) FindOpenConversation(ctx context.Context, contactID string) (*model.Conversation, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+conversationColumns+` FROM conversations
		 WHERE contact_id = $1 AND status = 'open'
		 ORDER BY last_message_at DESC LIMIT 1`, contactID)
	c, err := scanConversation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find open conversation: %w", err)
	}
	return c, nil
}

// InsertConversation persists a new conversation.
func (s *Postgres) InsertConversation(ctx context.Context, c *model.Conversation) error {
	tags, err := json.Marshal(c.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO conversations
			(id, contact_id, department_id, status, assignee_user_id,
			 created_at, updated_at, last_message_at, sla_due_at, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, c.ID, c.ContactID, c.DepartmentID, c.Status, c.AssigneeUserID,
		c.CreatedAt, c.UpdatedAt, c.LastMessageAt, c.SLADueAt, tags)
	if err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}
	return nil
}

// UpdateConversation applies a patch and, when given, inserts a system
// message in the same transaction, so a close never lands without its
// audit entry.
func (s *Postgres) UpdateConversation(ctx context.Context, id string, patch ConversationPatch, sysMsg *model.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	set := []string{"updated_at = NOW()"}
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if patch.Status != nil {
		set = append(set, "status = "+arg(string(*patch.Status)))
	}
	if patch.AssigneeID != nil {
		if *patch.AssigneeID == "" {
			set = append(set, "assignee_user_id = NULL")
		} else {
			set = append(set, "assignee_user_id = "+arg(*patch.AssigneeID))
		}
	}
	if patch.DepartmentID != nil {
		set = append(set, "department_id = "+arg(*patch.DepartmentID))
	}
	if patch.Tags != nil {
		tags, err := json.Marshal(*patch.Tags)
		if err != nil {
			return fmt.Errorf("encode tags: %w", err)
		}
		set = append(set, "tags = "+arg(tags))
	}
	if patch.LastMessageAt != nil {
		set = append(set, "last_message_at = "+arg(*patch.LastMessageAt))
	}

	query := fmt.Sprintf("UPDATE conversations SET %s WHERE id = %s",
		strings.Join(set, ", "), arg(id))
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update conversation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	if sysMsg != nil {
		if err := insertMessageTx(ctx, tx, sysMsg); err != nil {
			return err
		}
	}
	return tx.Commit()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertMessageTx(ctx context.Context, db execer, m *model.Message) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO messages
			(id, conversation_id, direction, body, type, media_url,
			 "timestamp", sender_user_id, read_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, m.ID, m.ConversationID, m.Direction, m.Body, m.Type, m.MediaURL,
		m.Timestamp, m.SenderUserID, m.ReadStatus)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// InsertMessage persists a new message.
func (s *Postgres) InsertMessage(ctx context.Context, m *model.Message) error {
	return insertMessageTx(ctx, s.db, m)
}

const messageColumns = `id, conversation_id, direction, body, type, media_url,
	"timestamp", sender_user_id, read_status`

func scanMessage(row interface{ Scan(...any) error }) (*model.Message, error) {
	var (
		m      model.Message
		sender sql.NullString
	)
	err := row.Scan(&m.ID, &m.ConversationID, &m.Direction, &m.Body, &m.Type,
		&m.MediaURL, &m.Timestamp, &sender, &m.ReadStatus)
	if err != nil {
		return nil, err
	}
	if sender.Valid {
		m.SenderUserID = &sender.String
	}
	return &m, nil
}

// ListMessages returns a conversation's messages in chronological order.
func (s *Postgres) ListMessages(ctx context.Context, conversationID string) ([]*model.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+messageColumns+` FROM messages
		 WHERE conversation_id = $1 ORDER BY "timestamp" ASC LIMIT 100`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []*model.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// LastMessage returns the newest message of a conversation, or nil.
func (s *Postgres) LastMessage(ctx context.Context, conversationID string) (*model.Message, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+messageColumns+` FROM messages
		 WHERE conversation_id = $1 ORDER BY "timestamp" DESC LIMIT 1`, conversationID)
	m, err := scanMessage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last message: %w", err)
	}
	return m, nil
}

// CountUnread counts unread inbound messages of a conversation.
func (s *Postgres) CountUnread(ctx context.Context, conversationID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM messages
		WHERE conversation_id = $1 AND direction = 'in' AND NOT read_status
	`, conversationID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return n, nil
}

// MarkMessagesRead flips the read flag on all inbound messages.
func (s *Postgres) MarkMessagesRead(ctx context.Context, conversationID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE messages SET read_status = TRUE
		WHERE conversation_id = $1 AND direction = 'in'
	`, conversationID)
	if err != nil {
		return fmt.Errorf("mark messages read: %w", err)
	}
	return nil
}

const userColumns = `id, name, email, password_hash, role, department_id, avatar`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var (
		u    model.User
		dept sql.NullString
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &dept, &u.Avatar)
	if err != nil {
		return nil, err
	}
	u.DepartmentID = dept.String
	return &u, nil
}

// GetUserByEmail fetches a user by email or ErrNotFound.
func (s *Postgres) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = $1", email)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// GetUser fetches a user by id or ErrNotFound.
func (s *Postgres) GetUser(ctx context.Context, id string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1", id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// ListUsers returns all desk users.
func (s *Postgres) ListUsers(ctx context.Context) ([]*model.User, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// GetDepartment fetches a department by id or ErrNotFound.
func (s *Postgres) GetDepartment(ctx context.Context, id string) (*model.Department, error) {
	var (
		d        model.Department
		hoursRaw []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, business_hours, active
		FROM departments WHERE id = $1
	`, id).Scan(&d.ID, &d.Name, &d.Description, &hoursRaw, &d.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get department: %w", err)
	}
	if err := json.Unmarshal(hoursRaw, &d.BusinessHours); err != nil {
		return nil, fmt.Errorf("decode business hours: %w", err)
	}
	return &d, nil
}

// ListDepartments returns all active departments.
func (s *Postgres) ListDepartments(ctx context.Context) ([]*model.Department, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, business_hours, active
		FROM departments WHERE active ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	defer rows.Close()

	var departments []*model.Department
	for rows.Next() {
		var (
			d        model.Department
			hoursRaw []byte
		)
		if err := rows.Scan(&d.ID, &d.Name, &d.Description, &hoursRaw, &d.Active); err != nil {
			return nil, fmt.Errorf("scan department: %w", err)
		}
		if err := json.Unmarshal(hoursRaw, &d.BusinessHours); err != nil {
			return nil, fmt.Errorf("decode business hours: %w", err)
		}
		departments = append(departments, &d)
	}
	return departments, rows.Err()
}

const contactColumns = `id, wa_id, phone, name, student_id, tags, custom_fields, created_at`

func scanContact(row interface{ Scan(...any) error }) (*model.Contact, error) {
	var (
		c          model.Contact
		studentID  sql.NullString
		tagsRaw    []byte
		customsRaw []byte
	)
	err := row.Scan(&c.ID, &c.WaID, &c.Phone, &c.Name, &studentID, &tagsRaw, &customsRaw, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	c.StudentID = studentID.String
	if err := json.Unmarshal(tagsRaw, &c.Tags); err != nil {
		return nil, fmt.Errorf("decode contact tags: %w", err)
	}
	if err := json.Unmarshal(customsRaw, &c.CustomFields); err != nil {
		return nil, fmt.Errorf("decode custom fields: %w", err)
	}
	return &c, nil
}

// GetContact fetches a contact by id or ErrNotFound.
func (s *Postgres) GetContact(ctx context.Context, id string) (*model.Contact, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+contactColumns+" FROM contacts WHERE id = $1", id)
	c, err := scanContact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get contact: %w", err)
	}
	return c, nil
}

// ListContacts returns all contacts, newest first.
func (s *Postgres) ListContacts(ctx context.Context) ([]*model.Contact, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+contactColumns+" FROM contacts ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	var contacts []*model.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}
