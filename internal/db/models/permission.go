package models

import "time"

// AdminPermissionName is the permission held by the seeded Super Admin role.
const AdminPermissionName = "Onboard360_Admin"

// Permission is a single grantable capability.
type Permission struct {
	ID          uint      `gorm:"primaryKey"               json:"id"`
	Name        string    `gorm:"unique;size:100;not null" json:"name"`
	Description string    `gorm:"size:255"                 json:"description"`
	CreatedAt   time.Time `json:"created_date"`
}

// TableName specifies the database table name for the Permission model.
func (Permission) TableName() string {
	return "permissions"
}
