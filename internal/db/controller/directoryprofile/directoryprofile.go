// Package directoryprofile stores directory connection profiles.
// Bind credentials pass through the vault on every write and are only decrypted on request.
package directoryprofile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"
	"gorm.io/gorm"

	"github.com/Onboard360/Onboard360/internal/db/models"
	"github.com/Onboard360/Onboard360/internal/directory"
	"github.com/Onboard360/Onboard360/internal/vault"
)

// UnknownShortID tags rows of profiles that carry no short identifier.
const UnknownShortID = "unknown"

var (
	// ErrProfileNotFound is returned when no profile matches.
	ErrProfileNotFound = errors.New("directory profile not found")
	// ErrInvalidSearchBase is returned when the search base has no DC component.
	ErrInvalidSearchBase = errors.New("invalid search base: no DC component")
	// ErrCredentialRequired is returned when a profile is created without a credential.
	ErrCredentialRequired = errors.New("bind credential is required")
	// ErrNameTaken is returned when another profile already uses the name.
	ErrNameTaken = errors.New("directory profile name already exists")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Input carries the editable fields of a profile.
type Input struct {
	Name          string `json:"domain_name"             validate:"required,max=255"`
	Host          string `json:"domain_controller"       validate:"required,max=255"`
	Port          int    `json:"port"                    validate:"min=0,max=65535"`
	BindPrincipal string `json:"read_only_user"          validate:"required,max=255"`
	Credential    string `json:"read_only_user_password"`
	SearchBase    string `json:"base_dn"                 validate:"required,max=512"`
	UseTLS        bool   `json:"ssl_enabled"`
	SkipVerify    bool   `json:"skip_verify"`
}

// Store reads and writes profiles.
type Store struct {
	db    *gorm.DB
	vault vault.Vault
}

// New creates a profile store.
func New(db *gorm.DB, v vault.Vault) *Store {
	return &Store{db: db, vault: v}
}

// List returns all profiles ordered by id.
func (s *Store) List(ctx context.Context) ([]models.DirectoryProfile, error) {
	if s.db == nil {
		return nil, ErrDBNil
	}

	var profiles []models.DirectoryProfile
	if err := s.db.WithContext(ctx).Order("id").Find(&profiles).Error; err != nil {
		return nil, err
	}

	return profiles, nil
}

// Get returns one profile by id.
func (s *Store) Get(ctx context.Context, id uint) (*models.DirectoryProfile, error) {
	return s.first(ctx, "id = ?", id)
}

// GetByPrincipal returns the first profile binding as principal.
func (s *Store) GetByPrincipal(ctx context.Context, principal string) (*models.DirectoryProfile, error) {
	return s.first(ctx, "bind_principal = ?", principal)
}

func (s *Store) first(ctx context.Context, query string, arg any) (*models.DirectoryProfile, error) {
	if s.db == nil {
		return nil, ErrDBNil
	}

	var p models.DirectoryProfile
	if err := s.db.WithContext(ctx).Where(query, arg).Order("id").First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}

		return nil, err
	}

	return &p, nil
}

// Create stores a new profile with its credential encrypted.
func (s *Store) Create(ctx context.Context, in Input) (*models.DirectoryProfile, error) {
	if s.db == nil {
		return nil, ErrDBNil
	}

	shortID := ShortID(in.SearchBase)
	if shortID == nil {
		return nil, ErrInvalidSearchBase
	}

	if in.Credential == "" {
		return nil, ErrCredentialRequired
	}

	ciphertext, err := s.vault.Encrypt(in.Credential)
	if err != nil {
		return nil, fmt.Errorf("encrypt credential: %w", err)
	}

	p := &models.DirectoryProfile{
		Name:           in.Name,
		Host:           in.Host,
		Port:           in.Port,
		BindPrincipal:  in.BindPrincipal,
		BindCredential: ciphertext,
		SearchBase:     in.SearchBase,
		ShortID:        shortID,
		UseTLS:         in.UseTLS,
		SkipVerify:     in.SkipVerify,
	}

	if err = s.db.WithContext(ctx).Create(p).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrNameTaken
		}

		return nil, err
	}

	return p, nil
}

// Update replaces the editable fields of a profile. An empty credential keeps the stored
// ciphertext unchanged and an empty name keeps the current name.
func (s *Store) Update(ctx context.Context, id uint, in Input) (*models.DirectoryProfile, error) {
	shortID := ShortID(in.SearchBase)
	if shortID == nil {
		return nil, ErrInvalidSearchBase
	}

	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Credential != "" {
		if p.BindCredential, err = s.vault.Encrypt(in.Credential); err != nil {
			return nil, fmt.Errorf("encrypt credential: %w", err)
		}
	}

	if in.Name != "" {
		p.Name = in.Name
	}

	p.Host = in.Host
	p.Port = in.Port
	p.BindPrincipal = in.BindPrincipal
	p.SearchBase = in.SearchBase
	p.ShortID = shortID
	p.UseTLS = in.UseTLS
	p.SkipVerify = in.SkipVerify

	if err = s.db.WithContext(ctx).Save(p).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrNameTaken
		}

		return nil, err
	}

	return p, nil
}

// Credential returns the decrypted bind credential of a profile.
func (s *Store) Credential(ctx context.Context, id uint) (string, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}

	return s.Decrypt(p)
}

// Decrypt returns the plaintext credential of p.
func (s *Store) Decrypt(p *models.DirectoryProfile) (string, error) {
	plain, err := s.vault.Decrypt(p.BindCredential)
	if err != nil {
		return "", fmt.Errorf("profile %d: %w", p.ID, err)
	}

	return plain, nil
}

// ShortID returns the value of the first DC component of a search base, or nil.
func ShortID(searchBase string) *string {
	dn, err := ldap.ParseDN(searchBase)
	if err != nil {
		return nil
	}

	for _, rdn := range dn.RDNs {
		for _, attr := range rdn.Attributes {
			if strings.EqualFold(attr.Type, "DC") && attr.Value != "" {
				v := attr.Value

				return &v
			}
		}
	}

	return nil
}

// ShortIDOf returns the short identifier of p, or UnknownShortID.
func ShortIDOf(p *models.DirectoryProfile) string {
	if p.ShortID == nil || *p.ShortID == "" {
		return UnknownShortID
	}

	return *p.ShortID
}

// Endpoint returns the connection endpoint of p.
func Endpoint(p *models.DirectoryProfile) directory.Endpoint {
	return directory.Endpoint{
		Host:       p.Host,
		Port:       p.Port,
		UseTLS:     p.UseTLS,
		SkipVerify: p.SkipVerify,
	}
}
