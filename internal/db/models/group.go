package models

import "time"

// Group bundles local and directory accounts under one role.
type Group struct {
	// ID is the unique identifier for the group.
	ID uint `gorm:"primaryKey" json:"id"`
	// Name is the unique display name of the group.
	Name string `gorm:"unique;size:100;not null" json:"name"`
	// RoleID is the role granted to every member. Nil leaves members with their own role only.
	RoleID *uint `gorm:"column:role_id" json:"role_id"`
	// Role is the associated role; deleting the role clears the reference.
	Role *Role `gorm:"foreignKey:RoleID;constraint:OnDelete:SET NULL" json:"-"`
	// CreatedAt is the timestamp when the group was created (managed by GORM).
	CreatedAt time.Time `json:"created_date"`
}

// TableName specifies the database table name for the Group model.
func (Group) TableName() string {
	return "groups"
}
