package domain

// User types. Stored on the user record and carried in the JWT role claim.
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// Roles lists every assignable user type.
var Roles = []string{RoleAdmin, RoleUser}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID string
	Role   string
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// CanModify reports whether the actor may edit or delete a record owned by ownerID.
func (a Actor) CanModify(ownerID string) bool { return a.IsAdmin() || a.UserID == ownerID }
