package model

import "github.com/google/uuid"

type UserRole string

const (
	UserRoleAdmin      UserRole = "ADMIN"
	UserRoleDispatcher UserRole = "DISPATCHER"
	UserRoleDriver     UserRole = "DRIVER"
	UserRoleBilling    UserRole = "BILLING"
)

type Principal struct {
	UserID   uuid.UUID
	Role     UserRole
	DriverID *uuid.UUID
}

func (p Principal) IsAdmin() bool {
	return p.Role == UserRoleAdmin
}

func (p Principal) IsDispatcher() bool {
	return p.Role == UserRoleDispatcher
}

func (p Principal) IsDriver() bool {
	return p.Role == UserRoleDriver
}

func (p Principal) IsBilling() bool {
	return p.Role == UserRoleBilling
}

// CanManage reports whether the principal may act on any driver's records.
func (p Principal) CanManage() bool {
	return p.Role == UserRoleAdmin || p.Role == UserRoleDispatcher
}

// ActsFor reports whether the principal may act on the given driver's
// records: managers always, drivers only for themselves.
func (p Principal) ActsFor(driverID uuid.UUID) bool {
	if p.CanManage() {
		return true
	}
	return p.IsDriver() && p.DriverID != nil && *p.DriverID == driverID
}
