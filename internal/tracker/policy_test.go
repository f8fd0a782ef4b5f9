package tracker

import "testing"

func TestAllows(t *testing.T) {
	owner := Membership{IsOwner: true}
	admin := Membership{IsMember: true, Role: RoleAdmin}
	member := Membership{IsMember: true, Role: RoleMember}
	outsider := Membership{}

	tests := []struct {
		name   string
		action Action
		m      Membership
		want   bool
	}{
		{"owner views", ActionView, owner, true},
		{"member views", ActionView, member, true},
		{"admin views", ActionView, admin, true},
		{"outsider cannot view", ActionView, outsider, false},

		{"anyone creates", ActionCreate, outsider, true},

		{"owner updates", ActionUpdate, owner, true},
		{"admin updates", ActionUpdate, admin, true},
		{"member cannot update", ActionUpdate, member, false},
		{"outsider cannot update", ActionUpdate, outsider, false},

		{"owner destroys", ActionDestroy, owner, true},
		{"admin cannot destroy", ActionDestroy, admin, false},
		{"member cannot destroy", ActionDestroy, member, false},

		{"owner archives", ActionArchive, owner, true},
		{"admin cannot archive", ActionArchive, admin, false},
		{"member cannot archive", ActionArchive, member, false},

		{"owner adds members", ActionAddMember, owner, true},
		{"admin adds members", ActionAddMember, admin, true},
		{"member cannot add members", ActionAddMember, member, false},

		{"owner removes members", ActionRemoveMember, owner, true},
		{"admin removes members", ActionRemoveMember, admin, true},
		{"member cannot remove members", ActionRemoveMember, member, false},
		{"outsider cannot remove members", ActionRemoveMember, outsider, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Allows(tt.action, tt.m); got != tt.want {
				t.Errorf("Allows(%q, %+v) = %v, want %v", tt.action, tt.m, got, tt.want)
			}
		})
	}
}

func TestAllowsUnknownActionDenied(t *testing.T) {
	if Allows(Action("reboot"), Membership{IsOwner: true}) {
		t.Error("unknown action should be denied even for the owner")
	}
}

func TestAdminRoleOnNonMemberDenied(t *testing.T) {
	// a stale role string without a membership row must not grant anything
	m := Membership{IsMember: false, Role: RoleAdmin}
	if Allows(ActionUpdate, m) {
		t.Error("role without membership should not administer")
	}
}
