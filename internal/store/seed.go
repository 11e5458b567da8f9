package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/uniwhats/desk/internal/model"
)

// DefaultDepartmentID receives conversations created by inbound messages
// that match no open thread.
const DefaultDepartmentID = "dept_reception"

// Seed loads the demo fixture when the database is empty: four departments,
// four desk users, three contacts with one open conversation each. Safe to
// call on every start.
func (s *Postgres) Seed(ctx context.Context) error {
	var users int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&users); err != nil {
		return fmt.Errorf("seed check: %w", err)
	}
	if users > 0 {
		return nil
	}

	departments := []model.Department{
		{ID: "dept_reception", Name: "Reception & Finance", Description: "First contact and financial inquiries",
			BusinessHours: model.BusinessHours{Start: "08:00", End: "18:00"}, Active: true},
		{ID: "dept_coordination", Name: "Coordination", Description: "Academic coordination and cancellations",
			BusinessHours: model.BusinessHours{Start: "09:00", End: "17:00"}, Active: true},
		{ID: "dept_sales", Name: "Sales", Description: "Enrollment and sales inquiries",
			BusinessHours: model.BusinessHours{Start: "08:00", End: "19:00"}, Active: true},
		{ID: "dept_management", Name: "Management", Description: "Administrative and management issues",
			BusinessHours: model.BusinessHours{Start: "09:00", End: "17:00"}, Active: true},
	}
	for _, d := range departments {
		hours, err := json.Marshal(d.BusinessHours)
		if err != nil {
			return fmt.Errorf("seed department: %w", err)
		}
		if _, err := s.db.ExecContext(ctx, `
			INSERT INTO departments (id, name, description, business_hours, active)
			VALUES ($1, $2, $3, $4, $5)
		`, d.ID, d.Name, d.Description, hours, d.Active); err != nil {
			return fmt.Errorf("seed department %s: %w", d.ID, err)
		}
	}

	seedUsers := []struct {
		user     model.User
		password string
	}{
		{model.User{ID: "user_maria", Name: "Maria Silva", Email: "maria@school.com",
			Role: model.RoleReceptionist, DepartmentID: "dept_reception"}, "maria123"},
		{model.User{ID: "user_carlos", Name: "Carlos Santos", Email: "carlos@school.com",
			Role: model.RoleCoordinator, DepartmentID: "dept_coordination"}, "carlos123"},
		{model.User{ID: "user_ana", Name: "Ana Costa", Email: "ana@school.com",
			Role: model.RoleSalesRep, DepartmentID: "dept_sales"}, "ana123"},
		{model.User{ID: "user_admin", Name: "João Diretor", Email: "admin@school.com",
			Role: model.RoleManager}, "admin123"},
	}
	for _, su := range seedUsers {
		hash, err := bcrypt.GenerateFromPassword([]byte(su.password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("seed password: %w", err)
		}
		var dept *string
		if su.user.DepartmentID != "" {
			dept = &su.user.DepartmentID
		}
		if _, err := s.db.ExecContext(ctx, `
			INSERT INTO users (id, name, email, password_hash, role, department_id, avatar)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, su.user.ID, su.user.Name, su.user.Email, string(hash), su.user.Role, dept, su.user.Avatar); err != nil {
			return fmt.Errorf("seed user %s: %w", su.user.ID, err)
		}
	}

	now := time.Now()
	contacts := []model.Contact{
		{ID: "contact_parent1", WaID: "5511987654321", Phone: "+55 11 98765-4321", Name: "Patricia Almeida",
			StudentID: "STU001", Tags: []string{"parent", "grade5"},
			CustomFields: map[string]string{"student_name": "Lucas Almeida", "grade": "5º Ano"},
			CreatedAt:    now.Add(-30 * 24 * time.Hour)},
		{ID: "contact_parent2", WaID: "5511876543210", Phone: "+55 11 87654-3210", Name: "Roberto Fernandes",
			StudentID: "STU002", Tags: []string{"parent", "grade8"},
			CustomFields: map[string]string{"student_name": "Sofia Fernandes", "grade": "8º Ano"},
			CreatedAt:    now.Add(-15 * 24 * time.Hour)},
		{ID: "contact_prospect", WaID: "5511765432109", Phone: "+55 11 76543-2109", Name: "Amanda Silva",
			Tags:         []string{"prospect", "elementary"},
			CustomFields: map[string]string{"interest": "Ensino Fundamental", "child_age": "7 anos"},
			CreatedAt:    now.Add(-3 * 24 * time.Hour)},
	}
	for _, c := range contacts {
		tags, _ := json.Marshal(c.Tags)
		customs, _ := json.Marshal(c.CustomFields)
		var studentID *string
		if c.StudentID != "" {
			studentID = &c.StudentID
		}
		if _, err := s.db.ExecContext(ctx, `
			INSERT INTO contacts (id, wa_id, phone, name, student_id, tags, custom_fields, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, c.ID, c.WaID, c.Phone, c.Name, studentID, tags, customs, c.CreatedAt); err != nil {
			return fmt.Errorf("seed contact %s: %w", c.ID, err)
		}
	}

	carlos := "user_carlos"
	ana := "user_ana"
	sla2 := now.Add(2 * time.Hour)
	sla3 := now.Add(3 * time.Hour)
	sla4 := now.Add(4 * time.Hour)
	conversations := []*model.Conversation{
		{ID: "conv_001", ContactID: "contact_parent1", DepartmentID: "dept_coordination",
			Status: model.StatusOpen, AssigneeUserID: &carlos,
			CreatedAt: now.Add(-2 * time.Hour), UpdatedAt: now.Add(-15 * time.Minute),
			LastMessageAt: now.Add(-15 * time.Minute), SLADueAt: &sla2,
			Tags: []string{"cancellation", "urgent"}},
		{ID: "conv_002", ContactID: "contact_parent2", DepartmentID: "dept_reception",
			Status:    model.StatusOpen,
			CreatedAt: now.Add(-time.Hour), UpdatedAt: now.Add(-5 * time.Minute),
			LastMessageAt: now.Add(-5 * time.Minute), SLADueAt: &sla3,
			Tags: []string{"payment"}},
		{ID: "conv_003", ContactID: "contact_prospect", DepartmentID: "dept_sales",
			Status: model.StatusOpen, AssigneeUserID: &ana,
			CreatedAt: now.Add(-30 * time.Minute), UpdatedAt: now.Add(-10 * time.Minute),
			LastMessageAt: now.Add(-10 * time.Minute), SLADueAt: &sla4,
			Tags: []string{"lead", "hot"}},
	}
	for _, c := range conversations {
		if err := s.InsertConversation(ctx, c); err != nil {
			return fmt.Errorf("seed conversation %s: %w", c.ID, err)
		}
	}

	messages := []*model.Message{
		{ID: "msg_001", ConversationID: "conv_001", Direction: model.DirectionIn,
			Body:      "Boa tarde! Preciso cancelar a matrícula do Lucas. Por favor, me informem sobre o processo.",
			Type:      model.MessageTypeText,
			Timestamp: now.Add(-2 * time.Hour), ReadStatus: true},
		{ID: "msg_002", ConversationID: "conv_001", Direction: model.DirectionOut,
			Body:      "Olá Patricia! Entendo sua situação. Para processar o cancelamento, preciso de alguns documentos. Pode me enviar uma foto do RG do responsável?",
			Type:      model.MessageTypeText,
			Timestamp: now.Add(-15 * time.Minute), SenderUserID: &carlos, ReadStatus: true},
		{ID: "msg_003", ConversationID: "conv_002", Direction: model.DirectionIn,
			Body:      "Bom dia! Recebi uma cobrança diferente este mês. Podem me explicar o que aconteceu?",
			Type:      model.MessageTypeText,
			Timestamp: now.Add(-time.Hour)},
		{ID: "msg_004", ConversationID: "conv_002", Direction: model.DirectionIn,
			Body:      "Segue a foto da fatura que recebi",
			Type:      model.MessageTypeImage,
			MediaURL:  "https://images.unsplash.com/photo-1554224155-8d04cb21cd6c?w=300&h=200&fit=crop",
			Timestamp: now.Add(-5 * time.Minute)},
		{ID: "msg_005", ConversationID: "conv_003", Direction: model.DirectionIn,
			Body:      "Olá! Gostaria de informações sobre vagas para o ensino fundamental. Minha filha tem 7 anos.",
			Type:      model.MessageTypeText,
			Timestamp: now.Add(-30 * time.Minute), ReadStatus: true},
		{ID: "msg_006", ConversationID: "conv_003", Direction: model.DirectionOut,
			Body:      "Olá Amanda! Que bom saber do seu interesse! Temos vagas disponíveis no 2º ano. Gostaria de agendar uma visita para conhecer nossa escola?",
			Type:      model.MessageTypeText,
			Timestamp: now.Add(-10 * time.Minute), SenderUserID: &ana, ReadStatus: true},
	}
	for _, m := range messages {
		if err := s.InsertMessage(ctx, m); err != nil {
			return fmt.Errorf("seed message %s: %w", m.ID, err)
		}
	}
	return nil
}
