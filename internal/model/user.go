package model

import "time"

// Role is the access role of a user.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleEngineer   Role = "engineer"
	RoleTechnician Role = "technician"
	RoleManager    Role = "manager"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEngineer, RoleTechnician, RoleManager:
		return true
	}
	return false
}

// Label returns the human readable name of the role.
func (r Role) Label() string {
	switch r {
	case RoleAdmin:
		return "Administrator"
	case RoleEngineer:
		return "Engineer"
	case RoleTechnician:
		return "Technician"
	case RoleManager:
		return "Manager"
	}
	return string(r)
}

// User is a stored account. PasswordHash holds a bcrypt hash.
type User struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:100;uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"size:100;not null" json:"-"`
	Role         Role      `gorm:"size:50;not null" json:"role"`
	FullName     string    `gorm:"size:200" json:"full_name"`
	IsActive     bool      `gorm:"not null" json:"is_active"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}
