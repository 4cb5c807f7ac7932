package models

import "time"

// DirectoryUser is one account mirrored from an external directory.
// LogonName (sAMAccountName) is the natural key and is unique across all profiles,
// so the same logon name seen in two directories maps to one row.
type DirectoryUser struct {
	LogonName string `gorm:"primaryKey;size:255" json:"samaccountname"`

	UserPrincipalName  *string `gorm:"size:255"  json:"userprincipalname"`
	CommonName         *string `gorm:"size:255"  json:"cn"`
	DisplayName        *string `gorm:"size:255"  json:"displayname"`
	GivenName          *string `gorm:"size:255"  json:"givenname"`
	Surname            *string `gorm:"size:255"  json:"sn"`
	DistinguishedName  *string `gorm:"size:1024" json:"distinguishedname"`
	ObjectGUID         *string `gorm:"size:36"   json:"objectguid"`
	ObjectSID          *string `gorm:"size:255"  json:"objectsid"`
	MemberOf           *string `gorm:"type:text" json:"memberof"`
	UserAccountControl *string `gorm:"size:32"   json:"useraccountcontrol"`
	AccountExpires     *string `gorm:"size:32"   json:"accountexpires"`
	PwdLastSet         *string `gorm:"size:32"   json:"pwdlastset"`
	BadPasswordTime    *string `gorm:"size:32"   json:"badpasswordtime"`
	BadPwdCount        *string `gorm:"size:32"   json:"badpwdcount"`
	LastLogon          *string `gorm:"size:32"   json:"lastlogon"`
	LastLogonTimestamp *string `gorm:"size:32"   json:"lastlogontimestamp"`
	LogonCount         *string `gorm:"size:32"   json:"logoncount"`
	AdminCount         *string `gorm:"size:32"   json:"admincount"`
	Mail               *string `gorm:"size:255"  json:"mail"`
	Mobile             *string `gorm:"size:64"   json:"mobile"`
	TelephoneNumber    *string `gorm:"size:64"   json:"telephonenumber"`
	Title              *string `gorm:"size:255"  json:"title"`
	Department         *string `gorm:"size:255"  json:"department"`
	Company            *string `gorm:"size:255"  json:"company"`
	Manager            *string `gorm:"size:1024" json:"manager"`
	StreetAddress      *string `gorm:"size:255"  json:"streetaddress"`
	Locality           *string `gorm:"size:255"  json:"l"`
	State              *string `gorm:"size:255"  json:"st"`
	PostalCode         *string `gorm:"size:32"   json:"postalcode"`
	Country            *string `gorm:"size:255"  json:"co"`
	PrimaryGroupID     *string `gorm:"size:32"   json:"primarygroupid"`

	WhenCreated *time.Time `json:"whencreated"`
	WhenChanged *time.Time `json:"whenchanged"`

	// ShortID tags the row with the owning profile's short identifier.
	ShortID string `gorm:"size:255;index" json:"dc_name"`

	SyncedAt time.Time `gorm:"autoUpdateTime" json:"synced_at"`
}

// TableName specifies the database table name for the DirectoryUser model.
func (DirectoryUser) TableName() string {
	return "directory_users"
}

// DirectoryUserGroup links a mirrored directory account to a console group.
type DirectoryUserGroup struct {
	// LogonName references DirectoryUser.LogonName.
	LogonName string `gorm:"primaryKey;size:255;column:logon_name"`
	// GroupID references Group.ID.
	GroupID uint `gorm:"primaryKey;column:group_id"`
	// DirectoryUser is the associated directory account (foreign key relationship).
	DirectoryUser DirectoryUser `gorm:"foreignKey:LogonName;references:LogonName;constraint:OnDelete:CASCADE"`
	// Group is the associated group (foreign key relationship).
	Group Group `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE"`
	// CreatedAt is the timestamp when the membership was created (managed by GORM).
	CreatedAt time.Time
}

// TableName specifies the database table name for the DirectoryUserGroup model.
func (DirectoryUserGroup) TableName() string {
	return "directory_user_groups"
}
