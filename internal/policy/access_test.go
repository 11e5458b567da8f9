package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/uniwhats/desk/internal/model"
)

func strptr(s string) *string { return &s }

func conv(id, dept string, assignee *string) *model.Conversation {
	return &model.Conversation{ID: id, DepartmentID: dept, AssigneeUserID: assignee, Status: model.StatusOpen}
}

func TestDeskWideRolesSeeEverything(t *testing.T) {
	conversations := []*model.Conversation{
		conv("c1", "dept_reception", nil),
		conv("c2", "dept_coordination", strptr("user_carlos")),
		conv("c3", "dept_sales", strptr("user_ana")),
	}

	actors := []*model.User{
		{ID: "user_admin", Role: model.RoleManager},
		{ID: "user_maria", Role: model.RoleReceptionist, DepartmentID: "dept_reception"},
	}

	for _, actor := range actors {
		scope := ListScope(actor)
		assert.True(t, scope.All, "role %s should list desk-wide", actor.Role)
		for _, c := range conversations {
			assert.True(t, CanAccess(actor, c), "role %s denied %s", actor.Role, c.ID)
			assert.True(t, scope.Allows(c))
		}
	}
}

func TestDepartmentScopedPredicate(t *testing.T) {
	actor := &model.User{ID: "user_carlos", Role: model.RoleCoordinator, DepartmentID: "dept_coordination"}

	cases := []struct {
		name  string
		conv  *model.Conversation
		allow bool
	}{
		{name: "own department", conv: conv("c1", "dept_coordination", nil), allow: true},
		{name: "other department", conv: conv("c2", "dept_sales", nil), allow: false},
		{name: "assigned to actor", conv: conv("c3", "dept_sales", strptr("user_carlos")), allow: true},
		{name: "assigned to someone else", conv: conv("c4", "dept_sales", strptr("user_ana")), allow: false},
		{name: "own department assigned elsewhere", conv: conv("c5", "dept_coordination", strptr("user_ana")), allow: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.allow, CanAccess(actor, tc.conv))
		})
	}
}

// Listing and single-resource access must agree: a conversation is listable
// iff it is accessible, for every role.
func TestScopeMatchesCanAccess(t *testing.T) {
	conversations := []*model.Conversation{
		conv("c1", "dept_reception", nil),
		conv("c2", "dept_coordination", strptr("user_carlos")),
		conv("c3", "dept_sales", strptr("user_ana")),
		conv("c4", "dept_sales", nil),
		conv("c5", "dept_management", strptr("user_maria")),
	}

	actors := []*model.User{
		{ID: "user_admin", Role: model.RoleManager},
		{ID: "user_maria", Role: model.RoleReceptionist, DepartmentID: "dept_reception"},
		{ID: "user_carlos", Role: model.RoleCoordinator, DepartmentID: "dept_coordination"},
		{ID: "user_ana", Role: model.RoleSalesRep, DepartmentID: "dept_sales"},
	}

	for _, actor := range actors {
		scope := ListScope(actor)
		for _, c := range conversations {
			assert.Equal(t, CanAccess(actor, c), scope.Allows(c),
				"actor %s conversation %s: list and access disagree", actor.ID, c.ID)
		}
	}
}

// A coordinator in department A with id X over C1 (dept A, unassigned),
// C2 (dept B, assigned to X), C3 (dept A, assigned to Y): all three match,
// C1 and C3 by department, C2 by assignment.
func TestCoordinatorScenario(t *testing.T) {
	actor := &model.User{ID: "X", Role: model.RoleCoordinator, DepartmentID: "A"}

	c1 := conv("C1", "A", nil)
	c2 := conv("C2", "B", strptr("X"))
	c3 := conv("C3", "A", strptr("Y"))

	scope := ListScope(actor)
	var visible []string
	for _, c := range []*model.Conversation{c1, c2, c3} {
		if scope.Allows(c) {
			visible = append(visible, c.ID)
		}
	}
	assert.Equal(t, []string{"C1", "C2", "C3"}, visible)
}

// Four seeded actors over three conversations each pinned to a distinct
// department: desk-wide roles list all three, department-scoped roles list
// exactly their own department's conversation.
func TestRoleFixtureListing(t *testing.T) {
	conversations := []*model.Conversation{
		conv("conv_reception", "dept_reception", nil),
		conv("conv_coordination", "dept_coordination", nil),
		conv("conv_sales", "dept_sales", nil),
	}

	cases := []struct {
		actor *model.User
		want  []string
	}{
		{
			actor: &model.User{ID: "user_admin", Role: model.RoleManager},
			want:  []string{"conv_reception", "conv_coordination", "conv_sales"},
		},
		{
			actor: &model.User{ID: "user_maria", Role: model.RoleReceptionist, DepartmentID: "dept_reception"},
			want:  []string{"conv_reception", "conv_coordination", "conv_sales"},
		},
		{
			actor: &model.User{ID: "user_carlos", Role: model.RoleCoordinator, DepartmentID: "dept_coordination"},
			want:  []string{"conv_coordination"},
		},
		{
			actor: &model.User{ID: "user_ana", Role: model.RoleSalesRep, DepartmentID: "dept_sales"},
			want:  []string{"conv_sales"},
		},
	}

	for _, tc := range cases {
		scope := ListScope(tc.actor)
		var visible []string
		for _, c := range conversations {
			if scope.Allows(c) {
				visible = append(visible, c.ID)
			}
		}
		assert.Equal(t, tc.want, visible, "actor %s", tc.actor.ID)
	}
}

func TestCanAssignRoleGate(t *testing.T) {
	assert.True(t, CanAssign(&model.User{Role: model.RoleManager}))
	assert.True(t, CanAssign(&model.User{Role: model.RoleReceptionist}))
	assert.False(t, CanAssign(&model.User{Role: model.RoleCoordinator}))
	assert.False(t, CanAssign(&model.User{Role: model.RoleSalesRep}))
}
