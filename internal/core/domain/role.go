package domain

// Role is the fixed set of marketplace roles.
type Role string

const (
	RoleWorker Role = "worker"
	RoleBuyer  Role = "buyer"
	RoleAdmin  Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleWorker, RoleBuyer, RoleAdmin:
		return true
	}
	return false
}

// SelfAssignable reports whether an end user may pick r for themselves,
// either at registration or during deferred role selection.
func (r Role) SelfAssignable() bool {
	return r == RoleWorker || r == RoleBuyer
}

func (r Role) String() string { return string(r) }
