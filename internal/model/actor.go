package model

// Roles recognized by the catalog and inventory surfaces. Authentication
// itself happens upstream; the API only sees the resolved identity.
const (
	RoleSupplier          = "supplier"
	RolePackageCombinator = "package_combinator"
	RoleSupervisor        = "supervisor"
)

// Actor is the caller identity attached to every authenticated request.
type Actor struct {
	UserID int64
	Role   string
}

// Supervisor reports whether the actor may bypass provider ownership checks.
func (a Actor) Supervisor() bool {
	return a.Role == RoleSupervisor
}

// UserIDRef returns the user id as a nullable reference for audit fields.
func (a Actor) UserIDRef() *int64 {
	if a.UserID == 0 {
		return nil
	}
	id := a.UserID
	return &id
}
