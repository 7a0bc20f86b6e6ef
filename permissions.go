package examauth

// Action names a permission-gated operation exposed by the application.
type Action = string

const (
	ActionViewTests     Action = "view_tests"
	ActionTakeTests     Action = "take_tests"
	ActionSaveScores    Action = "save_scores"
	ActionViewHistory   Action = "view_history"
	ActionEditProfile   Action = "edit_profile"
	ActionAdminFeatures Action = "admin_features"
)

// Permissions is the static action to allowed-roles table. It is fixed at
// build time and never mutated at runtime.
var Permissions = map[Action][]Role{
	ActionViewTests:     {RoleGuest, RoleRegular, RoleAdmin},
	ActionTakeTests:     {RoleGuest, RoleRegular, RoleAdmin},
	ActionSaveScores:    {RoleRegular, RoleAdmin},
	ActionViewHistory:   {RoleRegular, RoleAdmin},
	ActionEditProfile:   {RoleRegular, RoleAdmin},
	ActionAdminFeatures: {RoleAdmin},
}

// Authorizer evaluates the permission table against one resolved identity.
// Build one per request; it holds no mutable state.
type Authorizer struct {
	user *User
}

// NewAuthorizer wraps the current identity, which may be nil for anonymous
// requests.
func NewAuthorizer(user *User) *Authorizer {
	return &Authorizer{user: user}
}

// Permit reports whether the identity may perform the action. False when the
// identity is absent, the action is unknown, or the role is not allowed.
func (a *Authorizer) Permit(action Action) bool {
	if a.user == nil {
		return false
	}
	allowed, ok := Permissions[action]
	if !ok {
		return false
	}
	for _, role := range allowed {
		if a.user.Role == role {
			return true
		}
	}
	return false
}

// Authorize returns nil when permitted, otherwise a *PermissionError carrying
// the action and the minimal role that would satisfy it.
func (a *Authorizer) Authorize(action Action) error {
	if a.Permit(action) {
		return nil
	}
	required, _ := RequiredRoleFor(action)
	return &PermissionError{
		Action:       action,
		RequiredRole: required,
	}
}

// RequiredRoleFor computes the lowest-ranked role allowed for the action
// under the fixed hierarchy. ok is false for unknown actions.
func RequiredRoleFor(action Action) (Role, bool) {
	allowed, ok := Permissions[action]
	if !ok || len(allowed) == 0 {
		return "", false
	}

	min := allowed[0]
	for _, role := range allowed[1:] {
		if RoleRank(role) < RoleRank(min) {
			min = role
		}
	}
	return min, true
}
