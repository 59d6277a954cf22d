package model

import "github.com/google/uuid"

type UserRole string

const (
	UserRoleBusiness UserRole = "BUSINESS"
	UserRoleOfficer  UserRole = "OFFICER"
	UserRoleAdmin    UserRole = "ADMIN"
)

// Principal is the authenticated actor attached to every request. The
// engine trusts it; token issuance happens elsewhere.
type Principal struct {
	UserID uuid.UUID
	Email  string
	Role   UserRole
}

func (p Principal) IsBusiness() bool {
	return p.Role == UserRoleBusiness
}

func (p Principal) IsOfficer() bool {
	return p.Role == UserRoleOfficer
}

func (p Principal) IsAdmin() bool {
	return p.Role == UserRoleAdmin
}

// CanInspect reports whether the actor may schedule, complete or cancel
// inspections and move applications through the review pipeline.
func (p Principal) CanInspect() bool {
	return p.IsOfficer() || p.IsAdmin()
}
