// Package policy centralizes conversation access decisions. Every handler
// consults this package instead of comparing role strings inline, so the
// listing filter and single-resource checks cannot drift apart.
package policy

import "github.com/uniwhats/desk/internal/model"

// deskWide reports whether a role is exempt from department scoping.
// Management and the front desk triage the whole queue.
func deskWide(role model.Role) bool {
	return role == model.RoleManager || role == model.RoleReceptionist
}

// CanAccess reports whether the actor may read or act on the conversation.
// Desk-wide roles always may; everyone else is limited to their own
// department's lane plus conversations assigned directly to them.
func CanAccess(actor *model.User, conv *model.Conversation) bool {
	if deskWide(actor.Role) {
		return true
	}
	if conv.DepartmentID != "" && conv.DepartmentID == actor.DepartmentID {
		return true
	}
	return conv.AssigneeUserID != nil && *conv.AssigneeUserID == actor.ID
}

// CanAssign gates routing changes. Only desk-wide roles may move a
// conversation between departments or agents.
func CanAssign(actor *model.User) bool {
	return deskWide(actor.Role)
}

// Scope is a listing predicate. A Scope produced by ListScope admits
// exactly the conversations CanAccess admits for the same actor.
type Scope struct {
	All          bool
	DepartmentID string
	ActorID      string
}

// ListScope returns the conversation visibility scope for the actor.
func ListScope(actor *model.User) Scope {
	if deskWide(actor.Role) {
		return Scope{All: true}
	}
	return Scope{DepartmentID: actor.DepartmentID, ActorID: actor.ID}
}

// Allows reports whether a conversation falls inside the scope.
func (s Scope) Allows(conv *model.Conversation) bool {
	if s.All {
		return true
	}
	if conv.DepartmentID != "" && conv.DepartmentID == s.DepartmentID {
		return true
	}
	return conv.AssigneeUserID != nil && *conv.AssigneeUserID == s.ActorID
}
