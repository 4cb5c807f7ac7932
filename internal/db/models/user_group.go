package models

import "time"

// UserGroup links a local account to a group.
type UserGroup struct {
	// UserID references User.ID.
	UserID uint64 `gorm:"primaryKey;column:user_id"`
	// GroupID references Group.ID.
	GroupID uint `gorm:"primaryKey;column:group_id"`
	// User is the associated account (foreign key relationship).
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	// Group is the associated group (foreign key relationship).
	Group Group `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE"`
	// CreatedAt is the timestamp when the membership was created (managed by GORM).
	CreatedAt time.Time
}

// TableName specifies the database table name for the UserGroup model.
func (UserGroup) TableName() string {
	return "user_groups"
}
