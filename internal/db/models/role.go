package models

import "time"

// SuperAdminRoleID is the role seeded on first start.
const SuperAdminRoleID = 1

// Role is a named set of permissions.
type Role struct {
	ID          uint      `gorm:"primaryKey"               json:"id"`
	Name        string    `gorm:"unique;size:100;not null" json:"name"`
	Description string    `gorm:"size:255"                 json:"description"`
	CreatedAt   time.Time `json:"created_date"`
}

// TableName specifies the database table name for the Role model.
func (Role) TableName() string {
	return "roles"
}
