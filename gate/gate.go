// Package gate implements role and permission based authorization.
// Each endpoint statically declares a Requirement: the set of roles allowed
// to call it and the numeric permission code a non-admin caller must hold.
// A single Authorize function evaluates every check; there is no per-handler
// authorization logic anywhere else. The package has no dependencies on
// domain models or storage and can be reused across applications.
package gate

// Role is the single role assigned to a user. A user has exactly one role.
type Role uint8

const (
	RoleUnknown Role = iota
	RoleAdmin
	RoleTeacher
	RoleStudent
	RoleParent
	RoleHeadOfCurriculum
	RoleContentCreator
	RoleFinance
	RoleSchoolAdmin
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleTeacher:
		return "teacher"
	case RoleStudent:
		return "student"
	case RoleParent:
		return "parent"
	case RoleHeadOfCurriculum:
		return "head_of_curriculum"
	case RoleContentCreator:
		return "content_creator"
	case RoleFinance:
		return "finance"
	case RoleSchoolAdmin:
		return "school_admin"
	}
	return "unknown"
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool { return r > RoleUnknown && r <= RoleSchoolAdmin }

// Code is a numeric permission code granted to individual users.
type Code int

// CodeFull is the sentinel for "no permission code required beyond role".
// A Requirement carrying CodeFull only checks role membership.
const CodeFull Code = 0

// Requirement is the static declaration attached to an endpoint (per HTTP
// method): which roles may call it and which permission code, if any, a
// non-admin caller must additionally hold. The role class and the code are
// checked together on purpose; holding the code with the wrong role is
// still a deny.
type Requirement struct {
	Roles []Role
	Code  Code
}

// Require builds a Requirement from a code and the eligible roles.
func Require(code Code, roles ...Role) Requirement {
	return Requirement{Roles: roles, Code: code}
}

// RolesOnly builds a Requirement with no code check.
func RolesOnly(roles ...Role) Requirement {
	return Requirement{Roles: roles, Code: CodeFull}
}

// GrantSet is the set of permission codes granted to a user.
type GrantSet map[Code]struct{}

// NewGrantSet builds a GrantSet from codes.
func NewGrantSet(codes ...Code) GrantSet {
	s := make(GrantSet, len(codes))
	for _, c := range codes {
		s[c] = struct{}{}
	}
	return s
}

// Has reports whether the set contains the code.
func (s GrantSet) Has(c Code) bool {
	_, ok := s[c]
	return ok
}

// Authorize evaluates a Requirement against the caller's role and granted
// codes. Admin always passes. Everyone else must have an eligible role AND,
// unless the requirement is CodeFull, hold the required code.
// Returns ErrPermissionDenied on deny; the check has no side effects.
func Authorize(role Role, grants GrantSet, req Requirement) error {
	if role == RoleAdmin {
		return nil
	}
	eligible := false
	for _, r := range req.Roles {
		if r == role {
			eligible = true
			break
		}
	}
	if !eligible {
		return ErrPermissionDenied
	}
	if req.Code == CodeFull {
		return nil
	}
	if !grants.Has(req.Code) {
		return ErrPermissionDenied
	}
	return nil
}

// Can is a convenience wrapper returning bool instead of error.
func Can(role Role, grants GrantSet, req Requirement) bool {
	return Authorize(role, grants, req) == nil
}
