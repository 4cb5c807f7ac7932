// Package models contains the gorm models of the console.
package models

// Setting is a named blob of JSON state, such as the last sync summary of a profile.
type Setting struct {
	ID    uint64 `gorm:"primaryKey"`
	Name  string `gorm:"unique;size:255"`
	Value []byte
}

// All returns every model, in migration order.
func All() []any {
	return []any{
		&Role{},
		&Permission{},
		&RolePermission{},
		&User{},
		&Group{},
		&UserGroup{},
		&DirectoryProfile{},
		&DirectoryUser{},
		&DirectoryUserGroup{},
		&Setting{},
	}
}
