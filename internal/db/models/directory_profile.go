package models

import "time"

// DirectoryProfile holds everything needed to reach one external directory.
// The bind credential is only ever stored encrypted.
type DirectoryProfile struct {
	// ID is the unique identifier, assigned at creation.
	ID uint `gorm:"primaryKey"                  json:"id"`
	// Name is the human-readable directory name, unique across profiles.
	Name string `gorm:"unique;size:255;not null" json:"domain_name"`
	// Host is the directory server host name or address.
	Host string `gorm:"size:255;not null"        json:"domain_controller"`
	// Port is the directory server port. Zero selects 389 or 636 depending on UseTLS.
	Port int `json:"port"`
	// BindPrincipal is the read-only account used to bind.
	BindPrincipal string `gorm:"size:255;not null" json:"read_only_user"`
	// BindCredential is the encrypted bind password. Never serialized.
	BindCredential string `gorm:"size:1024" json:"-"`
	// SearchBase is the distinguished name all searches start from.
	SearchBase string `gorm:"size:512;not null" json:"base_dn"`
	// ShortID is derived from the first DC= component of SearchBase.
	ShortID *string `gorm:"size:255" json:"dc_name"`
	// UseTLS selects LDAPS instead of plain LDAP.
	UseTLS bool `gorm:"default:false" json:"ssl_enabled"`
	// SkipVerify disables certificate verification on LDAPS connections.
	SkipVerify bool `gorm:"default:false" json:"skip_verify"`
	// CreatedAt is the timestamp when the profile was created (managed by GORM).
	CreatedAt time.Time `json:"created_date"`
	// UpdatedAt is the timestamp when the profile was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updated_date"`
}

// TableName specifies the database table name for the DirectoryProfile model.
func (DirectoryProfile) TableName() string {
	return "directory_profiles"
}
