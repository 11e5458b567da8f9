package service

import (
	"context"

	"github.com/uniwhats/desk/internal/model"
)

// DirectoryService serves the desk's reference data. All of it is visible
// to any authenticated actor; assignment pickers and department filters
// need the full lists regardless of conversation scope.
type DirectoryService struct {
	store Store
}

// NewDirectoryService creates a directory service.
func NewDirectoryService(st Store) *DirectoryService {
	return &DirectoryService{store: st}
}

// Departments lists all departments.
func (s *DirectoryService) Departments(ctx context.Context) ([]*model.Department, error) {
	return s.store.ListDepartments(ctx)
}

// Users lists all desk users, password hashes excluded by the model.
func (s *DirectoryService) Users(ctx context.Context) ([]*model.User, error) {
	return s.store.ListUsers(ctx)
}

// Contacts lists all known contacts.
func (s *DirectoryService) Contacts(ctx context.Context) ([]*model.Contact, error) {
	return s.store.ListContacts(ctx)
}
