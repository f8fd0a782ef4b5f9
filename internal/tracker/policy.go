package tracker

// Action names every project operation gated by authorization.
type Action string

const (
	ActionView         Action = "view"
	ActionCreate       Action = "create"
	ActionUpdate       Action = "update"
	ActionDestroy      Action = "destroy"
	ActionArchive      Action = "archive"
	ActionAddMember    Action = "add_member"
	ActionRemoveMember Action = "remove_member"
)

// Membership is the caller's standing on a project: pure input to the policy
// table, resolved once per request from the store.
type Membership struct {
	IsOwner  bool
	IsMember bool
	Role     string // member/admin, empty when not a member
}

// policyTable maps each action to its predicate. Adding a new gated action is
// one entry here, nothing else.
var policyTable = map[Action]func(m Membership) bool{
	ActionView:         func(m Membership) bool { return m.IsOwner || m.IsMember },
	ActionCreate:       func(Membership) bool { return true },
	ActionUpdate:       canAdminister,
	ActionDestroy:      func(m Membership) bool { return m.IsOwner },
	ActionArchive:      func(m Membership) bool { return m.IsOwner },
	ActionAddMember:    canAdminister,
	ActionRemoveMember: canAdminister,
}

func canAdminister(m Membership) bool {
	return m.IsOwner || (m.IsMember && m.Role == RoleAdmin)
}

// Allows answers whether a caller with the given membership may perform the
// action. Unknown actions are denied.
func Allows(action Action, m Membership) bool {
	pred, ok := policyTable[action]
	if !ok {
		return false
	}
	return pred(m)
}
