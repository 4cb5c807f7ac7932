// Package directoryuser reconciles decoded directory accounts into the directory_users table.
package directoryuser

import (
	"context"
	"errors"
	"reflect"
	"strconv"
	"time"

	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Onboard360/Onboard360/internal/db/models"
	"github.com/Onboard360/Onboard360/internal/directory"
)

// Outcome tells whether a reconcile inserted a new row or updated an existing one.
type Outcome int

const (
	// Inserted means no row existed for the logon name.
	Inserted Outcome = iota + 1
	// Updated means an existing row was overwritten.
	Updated
)

func (o Outcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case Updated:
		return "updated"
	default:
		return "unknown"
	}
}

var (
	// ErrEmptyLogonName is returned for records without a natural key.
	ErrEmptyLogonName = errors.New("logon name is empty")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrGroupNotFound is returned when no group matches.
	ErrGroupNotFound = errors.New("group not found")
	// ErrUserNotFound is returned when no directory account matches.
	ErrUserNotFound = errors.New("directory user not found")
)

const logonNameColumn = "logon_name"

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithMergeNonNull makes conflicts update only the columns that are set on the incoming record.
// The default overwrites every column, including with NULL.
func WithMergeNonNull(enabled bool) Option {
	return func(r *Reconciler) {
		r.mergeNonNull = enabled
	}
}

// WithRetry sets how often and how fast a failed write is retried.
func WithRetry(maxRetries uint64, base time.Duration) Option {
	return func(r *Reconciler) {
		r.maxRetries = maxRetries
		if base > 0 {
			r.retryBase = base
		}
	}
}

// Reconciler upserts directory accounts by logon name.
// It is safe for concurrent use; concurrent writes of one key are resolved by the unique key.
type Reconciler struct {
	db           *gorm.DB
	mergeNonNull bool
	maxRetries   uint64
	retryBase    time.Duration
}

// New creates a Reconciler.
func New(db *gorm.DB, opts ...Option) *Reconciler {
	r := &Reconciler{
		db:         db,
		maxRetries: 3,
		retryBase:  50 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Reconcile inserts u or overwrites the row with the same logon name.
// Failed writes are retried; the last failure is returned as a *directory.StorageError.
func (r *Reconciler) Reconcile(ctx context.Context, u *models.DirectoryUser) (Outcome, error) {
	if r.db == nil {
		return 0, &directory.StorageError{Key: u.LogonName, Err: ErrDBNil}
	}

	if u.LogonName == "" {
		return 0, &directory.StorageError{Err: ErrEmptyLogonName}
	}

	var outcome Outcome

	backoff := retry.WithMaxRetries(r.maxRetries, retry.NewExponential(r.retryBase))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		if outcome, err = r.upsert(ctx, u); err != nil {
			if ctx.Err() != nil {
				return err
			}

			return retry.RetryableError(err)
		}

		return nil
	})
	if err != nil {
		return 0, &directory.StorageError{Key: u.LogonName, Err: err}
	}

	return outcome, nil
}

func (r *Reconciler) upsert(ctx context.Context, u *models.DirectoryUser) (Outcome, error) {
	db := r.db.WithContext(ctx)

	var existing int64
	if err := db.Model(&models.DirectoryUser{}).Where(logonNameColumn+" = ?", u.LogonName).Count(&existing).Error; err != nil {
		return 0, err
	}

	conflict := clause.OnConflict{
		Columns:   []clause.Column{{Name: logonNameColumn}},
		UpdateAll: true,
	}

	if r.mergeNonNull {
		columns, err := setColumns(ctx, db, u)
		if err != nil {
			return 0, err
		}

		conflict = clause.OnConflict{
			Columns:   []clause.Column{{Name: logonNameColumn}},
			DoUpdates: clause.AssignmentColumns(columns),
		}
	}

	if err := db.Clauses(conflict).Create(u).Error; err != nil {
		return 0, err
	}

	if existing > 0 {
		return Updated, nil
	}

	return Inserted, nil
}

// setColumns lists the non key columns that hold a value on u, plus the sync timestamp.
func setColumns(ctx context.Context, db *gorm.DB, u *models.DirectoryUser) ([]string, error) {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(u); err != nil {
		return nil, err
	}

	rv := reflect.Indirect(reflect.ValueOf(u))
	columns := []string{"synced_at"}

	for _, f := range stmt.Schema.Fields {
		if f.PrimaryKey || f.DBName == "" || f.DBName == "synced_at" {
			continue
		}

		if _, zero := f.ValueOf(ctx, rv); !zero {
			columns = append(columns, f.DBName)
		}
	}

	return columns, nil
}

// Summary is the listing view of a directory account.
type Summary struct {
	LogonName          string     `json:"samaccountname"`
	UserPrincipalName  *string    `json:"userprincipalname"`
	UserAccountControl *string    `json:"useraccountcontrol"`
	WhenCreated        *time.Time `json:"whencreated"`
	CommonName         *string    `json:"cn"`
	DisplayName        *string    `json:"displayname"`
	GivenName          *string    `json:"givenname"`
	Surname            *string    `json:"sn"`
	MemberOf           *string    `json:"memberof"`
	Mail               *string    `json:"mail"`
	Mobile             *string    `json:"mobile"`
	Title              *string    `json:"title"`
	Department         *string    `json:"department"`
	Company            *string    `json:"company"`
	ShortID            string     `json:"dc_name"`
}

// List returns stored accounts ordered by logon name, optionally only those tagged shortID.
func List(ctx context.Context, db *gorm.DB, shortID string) ([]Summary, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	q := db.WithContext(ctx).Model(&models.DirectoryUser{}).Order(logonNameColumn)
	if shortID != "" {
		q = q.Where("short_id = ?", shortID)
	}

	out := []Summary{}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}

	return out, nil
}

// Account is one entry of the combined local and directory account listing.
type Account struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Account types.
const (
	AccountTypeLocal     = "local"
	AccountTypeDirectory = "ldap"
)

// ListAccounts returns local accounts followed by directory accounts.
func ListAccounts(ctx context.Context, db *gorm.DB) ([]Account, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var locals []models.User
	if err := db.WithContext(ctx).Select("id", "username").Order("id").Find(&locals).Error; err != nil {
		return nil, err
	}

	var names []string
	if err := db.WithContext(ctx).Model(&models.DirectoryUser{}).
		Order(logonNameColumn).Pluck(logonNameColumn, &names).Error; err != nil {
		return nil, err
	}

	out := make([]Account, 0, len(locals)+len(names))
	for _, u := range locals {
		out = append(out, Account{ID: strconv.FormatUint(u.ID, 10), Name: u.Username, Type: AccountTypeLocal})
	}

	for _, n := range names {
		out = append(out, Account{ID: n, Name: n, Type: AccountTypeDirectory})
	}

	return out, nil
}

// GroupMembers returns the local and directory members of a group, local ones first.
func GroupMembers(ctx context.Context, db *gorm.DB, groupID uint) ([]Account, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	db = db.WithContext(ctx)

	if err := db.First(&models.Group{}, groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}

		return nil, err
	}

	var locals []models.User
	if err := db.Select("users.id", "users.username").
		Joins("JOIN user_groups ON user_groups.user_id = users.id").
		Where("user_groups.group_id = ?", groupID).
		Order("users.id").
		Find(&locals).Error; err != nil {
		return nil, err
	}

	var names []string
	if err := db.Model(&models.DirectoryUserGroup{}).
		Where("group_id = ?", groupID).
		Order(logonNameColumn).
		Pluck(logonNameColumn, &names).Error; err != nil {
		return nil, err
	}

	out := make([]Account, 0, len(locals)+len(names))
	for _, u := range locals {
		out = append(out, Account{ID: strconv.FormatUint(u.ID, 10), Name: u.Username, Type: AccountTypeLocal})
	}

	for _, n := range names {
		out = append(out, Account{ID: n, Name: n, Type: AccountTypeDirectory})
	}

	return out, nil
}

// AddToGroup makes a mirrored directory account a member of a group. Adding twice is a no-op.
func AddToGroup(ctx context.Context, db *gorm.DB, logonName string, groupID uint) error {
	if db == nil {
		return ErrDBNil
	}

	db = db.WithContext(ctx)

	if err := db.First(&models.Group{}, groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGroupNotFound
		}

		return err
	}

	if err := db.First(&models.DirectoryUser{}, logonNameColumn+" = ?", logonName).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}

		return err
	}

	return db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.DirectoryUserGroup{LogonName: logonName, GroupID: groupID}).Error
}
