package attribute

import (
	"errors"
	"strings"

	"github.com/go-ldap/ldap/v3"

	"github.com/Onboard360/Onboard360/internal/db/models"
	"github.com/Onboard360/Onboard360/internal/directory"
)

// UserFilter selects user accounts.
const UserFilter = "(objectClass=user)"

// UserAttributes is the attribute list requested for every user search.
var UserAttributes = []string{
	"sAMAccountName", "userPrincipalName", "cn", "displayName", "givenName", "sn",
	"distinguishedName", "objectGUID", "objectSid", "memberOf", "userAccountControl",
	"accountExpires", "pwdLastSet", "badPasswordTime", "badPwdCount", "lastLogon",
	"lastLogonTimestamp", "logonCount", "adminCount", "mail", "mobile", "telephoneNumber",
	"title", "department", "company", "manager", "streetAddress", "l", "st", "postalCode",
	"co", "primaryGroupID", "whenCreated", "whenChanged",
}

var (
	// ErrMissingLogonName is reported when an entry has no sAMAccountName.
	ErrMissingLogonName = errors.New("entry has no sAMAccountName")
	// ErrBadTimestamp is reported when a generalized time value can not be parsed.
	ErrBadTimestamp = errors.New("malformed generalized time")
)

// textColumns maps lower-cased attribute names to their text column.
var textColumns = map[string]func(u *models.DirectoryUser) **string{
	"userprincipalname":  func(u *models.DirectoryUser) **string { return &u.UserPrincipalName },
	"cn":                 func(u *models.DirectoryUser) **string { return &u.CommonName },
	"displayname":        func(u *models.DirectoryUser) **string { return &u.DisplayName },
	"givenname":          func(u *models.DirectoryUser) **string { return &u.GivenName },
	"sn":                 func(u *models.DirectoryUser) **string { return &u.Surname },
	"distinguishedname":  func(u *models.DirectoryUser) **string { return &u.DistinguishedName },
	"memberof":           func(u *models.DirectoryUser) **string { return &u.MemberOf },
	"useraccountcontrol": func(u *models.DirectoryUser) **string { return &u.UserAccountControl },
	"accountexpires":     func(u *models.DirectoryUser) **string { return &u.AccountExpires },
	"pwdlastset":         func(u *models.DirectoryUser) **string { return &u.PwdLastSet },
	"badpasswordtime":    func(u *models.DirectoryUser) **string { return &u.BadPasswordTime },
	"badpwdcount":        func(u *models.DirectoryUser) **string { return &u.BadPwdCount },
	"lastlogon":          func(u *models.DirectoryUser) **string { return &u.LastLogon },
	"lastlogontimestamp": func(u *models.DirectoryUser) **string { return &u.LastLogonTimestamp },
	"logoncount":         func(u *models.DirectoryUser) **string { return &u.LogonCount },
	"admincount":         func(u *models.DirectoryUser) **string { return &u.AdminCount },
	"mail":               func(u *models.DirectoryUser) **string { return &u.Mail },
	"mobile":             func(u *models.DirectoryUser) **string { return &u.Mobile },
	"telephonenumber":    func(u *models.DirectoryUser) **string { return &u.TelephoneNumber },
	"title":              func(u *models.DirectoryUser) **string { return &u.Title },
	"department":         func(u *models.DirectoryUser) **string { return &u.Department },
	"company":            func(u *models.DirectoryUser) **string { return &u.Company },
	"manager":            func(u *models.DirectoryUser) **string { return &u.Manager },
	"streetaddress":      func(u *models.DirectoryUser) **string { return &u.StreetAddress },
	"l":                  func(u *models.DirectoryUser) **string { return &u.Locality },
	"st":                 func(u *models.DirectoryUser) **string { return &u.State },
	"postalcode":         func(u *models.DirectoryUser) **string { return &u.PostalCode },
	"co":                 func(u *models.DirectoryUser) **string { return &u.Country },
	"primarygroupid":     func(u *models.DirectoryUser) **string { return &u.PrimaryGroupID },
}

// Fold indexes the attributes of entry by lower-cased name.
func Fold(entry *ldap.Entry) map[string]*ldap.EntryAttribute {
	out := make(map[string]*ldap.EntryAttribute, len(entry.Attributes))
	for _, a := range entry.Attributes {
		out[strings.ToLower(a.Name)] = a
	}

	return out
}

// DecodeUser builds the stored form of a user entry, tagged with shortID.
// An attribute that can not be decoded is left nil and reported as a *directory.DecodeError;
// decoding always continues with the remaining attributes.
func DecodeUser(entry *ldap.Entry, shortID string) (models.DirectoryUser, []error) {
	var (
		u    = models.DirectoryUser{ShortID: shortID}
		errs []error
	)

	attrs := Fold(entry)

	if a, ok := attrs["samaccountname"]; ok && len(a.Values) > 0 && a.Values[0] != "" {
		u.LogonName = a.Values[0]
	} else {
		errs = append(errs, &directory.DecodeError{Attribute: "sAMAccountName", Err: ErrMissingLogonName})
	}

	for name, column := range textColumns {
		if a, ok := attrs[name]; ok {
			*column(&u) = NormalizeMultiValued(a.Values)
		}
	}

	if a, ok := attrs["objectguid"]; ok && len(a.ByteValues) > 0 {
		if guid, err := DecodeGUID(a.ByteValues[0]); err != nil {
			errs = append(errs, &directory.DecodeError{Attribute: "objectGUID", Err: err})
		} else {
			u.ObjectGUID = &guid
		}
	}

	if a, ok := attrs["objectsid"]; ok && len(a.ByteValues) > 0 {
		if sid, err := DecodeSID(a.ByteValues[0]); err != nil {
			errs = append(errs, &directory.DecodeError{Attribute: "objectSid", Err: err})
		} else {
			u.ObjectSID = &sid
		}
	}

	if a, ok := attrs["whencreated"]; ok && len(a.Values) > 0 {
		if u.WhenCreated = DecodeTimestamp(a.Values[0]); u.WhenCreated == nil {
			errs = append(errs, &directory.DecodeError{Attribute: "whenCreated", Err: ErrBadTimestamp})
		}
	}

	if a, ok := attrs["whenchanged"]; ok && len(a.Values) > 0 {
		if u.WhenChanged = DecodeTimestamp(a.Values[0]); u.WhenChanged == nil {
			errs = append(errs, &directory.DecodeError{Attribute: "whenChanged", Err: ErrBadTimestamp})
		}
	}

	return u, errs
}
