package models

import (
	"fmt"
	"time"

	"github.com/alexedwards/argon2id"
)

// User is a console account stored locally, as opposed to a DirectoryUser mirrored from a directory.
type User struct {
	// ID is the unique identifier for the account.
	ID uint64 `gorm:"primaryKey" json:"id"`
	// Active marks whether the account may be used.
	Active bool `json:"active"`
	// Username is the unique account name.
	Username string `gorm:"unique;size:100;not null" json:"username"`
	// Email is the contact address of the account.
	Email string `gorm:"size:255" json:"email"`
	// Password is the Argon2id hash of the account password.
	Password string `gorm:"size:255" json:"-"`
	// RoleID is the role granted to this account.
	RoleID uint `gorm:"column:role_id;not null" json:"role_id"`
	// Role is the associated role (enforced with a foreign key constraint).
	Role Role `gorm:"foreignKey:RoleID;references:ID;constraint:OnDelete:RESTRICT,OnUpdate:CASCADE" json:"-"`
	// CreatedAt is the timestamp when the account was created (managed by GORM).
	CreatedAt time.Time `json:"created_date"`
	// UpdatedAt is the timestamp when the account was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updated_date"`
}

// TableName specifies the database table name for the User model.
func (User) TableName() string {
	return "users"
}

// HashPassword hashes a plaintext password with Argon2id default parameters.
func HashPassword(password string) (string, error) {
	hashed, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return hashed, nil
}

// VerifyPassword reports whether password matches the stored hash.
func (u *User) VerifyPassword(password string) bool {
	match, err := argon2id.ComparePasswordAndHash(password, u.Password)
	if err != nil {
		return false
	}

	return match
}
