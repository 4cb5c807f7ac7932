package directory

import (
	"errors"
	"fmt"

	"github.com/go-ldap/ldap/v3"
)

var (
	// ErrConnection marks failures to reach the directory server.
	ErrConnection = errors.New("directory connection failed")
	// ErrAuth marks rejected or timed out binds.
	ErrAuth = errors.New("directory bind failed")
	// ErrSearch marks failed searches.
	ErrSearch = errors.New("directory search failed")
	// ErrDecode marks attribute values that could not be decoded.
	ErrDecode = errors.New("attribute decode failed")
	// ErrStorage marks records that could not be written to the store.
	ErrStorage = errors.New("directory record storage failed")
	// ErrTimeout is the cause of connect and bind timeouts.
	ErrTimeout = errors.New("timed out")
)

// ConnectionError is returned when the server can not be reached in time.
type ConnectionError struct {
	URL string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.URL, e.Err)
}

// Unwrap allows errors.Is against ErrConnection and the cause.
func (e *ConnectionError) Unwrap() []error { return []error{ErrConnection, e.Err} }

// AuthError is returned when a bind is rejected or does not answer in time.
type AuthError struct {
	Principal string
	Code      uint16
	Err       error
}

func (e *AuthError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("bind as %q (code %d): %v", e.Principal, e.Code, e.Err)
	}

	return fmt.Sprintf("bind as %q: %v", e.Principal, e.Err)
}

// Unwrap allows errors.Is against ErrAuth and the cause.
func (e *AuthError) Unwrap() []error { return []error{ErrAuth, e.Err} }

// SearchError is returned when one search fails.
type SearchError struct {
	BaseDN string
	Code   uint16
	Err    error
}

func (e *SearchError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("search %q (code %d): %v", e.BaseDN, e.Code, e.Err)
	}

	return fmt.Sprintf("search %q: %v", e.BaseDN, e.Err)
}

// Unwrap allows errors.Is against ErrSearch and the cause.
func (e *SearchError) Unwrap() []error { return []error{ErrSearch, e.Err} }

// DecodeError reports one attribute that could not be decoded. The field is left empty.
type DecodeError struct {
	Attribute string
	Err       error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Attribute, e.Err)
}

// Unwrap allows errors.Is against ErrDecode and the cause.
func (e *DecodeError) Unwrap() []error { return []error{ErrDecode, e.Err} }

// StorageError reports one record that could not be written.
type StorageError struct {
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("store %q: %v", e.Key, e.Err)
}

// Unwrap allows errors.Is against ErrStorage and the cause.
func (e *StorageError) Unwrap() []error { return []error{ErrStorage, e.Err} }

// resultCode extracts the LDAP result code from err, or 0.
func resultCode(err error) uint16 {
	var ldapErr *ldap.Error
	if errors.As(err, &ldapErr) {
		return ldapErr.ResultCode
	}

	return 0
}
