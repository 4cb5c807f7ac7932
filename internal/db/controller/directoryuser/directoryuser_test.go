package directoryuser

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Onboard360/Onboard360/internal/db/models"
	"github.com/Onboard360/Onboard360/internal/directory"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.Role{},
		&models.User{},
		&models.Group{},
		&models.UserGroup{},
		&models.DirectoryUser{},
		&models.DirectoryUserGroup{},
	)
	require.NoError(t, err, "failed to migrate test database")

	return db
}

func str(s string) *string { return &s }

func countRows(t *testing.T, db *gorm.DB) int64 {
	t.Helper()

	var n int64
	require.NoError(t, db.Model(&models.DirectoryUser{}).Count(&n).Error)

	return n
}

func load(t *testing.T, db *gorm.DB, logon string) models.DirectoryUser {
	t.Helper()

	var u models.DirectoryUser
	require.NoError(t, db.First(&u, "logon_name = ?", logon).Error)

	return u
}

func TestReconcileIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	r := New(db)
	ctx := context.Background()

	outcome, err := r.Reconcile(ctx, &models.DirectoryUser{LogonName: "alice", Mail: str("old@corp"), ShortID: "corp"})
	require.NoError(t, err)
	assert.Equal(t, Inserted, outcome)

	outcome, err = r.Reconcile(ctx, &models.DirectoryUser{LogonName: "alice", Mail: str("new@corp"), ShortID: "corp"})
	require.NoError(t, err)
	assert.Equal(t, Updated, outcome)

	assert.Equal(t, int64(1), countRows(t, db))
	assert.Equal(t, "new@corp", *load(t, db, "alice").Mail)
}

func TestReconcileReplacesEveryColumn(t *testing.T) {
	db := setupTestDB(t)
	r := New(db)
	ctx := context.Background()

	_, err := r.Reconcile(ctx, &models.DirectoryUser{LogonName: "bob", Mail: str("bob@corp"), Title: str("Engineer")})
	require.NoError(t, err)

	_, err = r.Reconcile(ctx, &models.DirectoryUser{LogonName: "bob", Title: str("Manager")})
	require.NoError(t, err)

	got := load(t, db, "bob")
	assert.Nil(t, got.Mail, "absent attribute overwrites the stored value")
	assert.Equal(t, "Manager", *got.Title)
}

func TestReconcileMergeNonNull(t *testing.T) {
	db := setupTestDB(t)
	r := New(db, WithMergeNonNull(true))
	ctx := context.Background()

	_, err := r.Reconcile(ctx, &models.DirectoryUser{LogonName: "carol", Mail: str("carol@corp"), Title: str("Engineer")})
	require.NoError(t, err)

	outcome, err := r.Reconcile(ctx, &models.DirectoryUser{LogonName: "carol", Title: str("Lead")})
	require.NoError(t, err)
	assert.Equal(t, Updated, outcome)

	got := load(t, db, "carol")
	assert.Equal(t, "carol@corp", *got.Mail)
	assert.Equal(t, "Lead", *got.Title)
}

func TestReconcileConcurrentKeys(t *testing.T) {
	db := setupTestDB(t)
	r := New(db)
	ctx := context.Background()

	var wg sync.WaitGroup

	for i := range 20 {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			_, err := r.Reconcile(ctx, &models.DirectoryUser{LogonName: fmt.Sprintf("user%02d", i%10)})
			assert.NoError(t, err)
		}(i)
	}

	wg.Wait()

	assert.Equal(t, int64(10), countRows(t, db))
}

func TestReconcileErrors(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := New(db).Reconcile(ctx, &models.DirectoryUser{})
	assert.ErrorIs(t, err, ErrEmptyLogonName)
	assert.ErrorIs(t, err, directory.ErrStorage)

	_, err = New(nil).Reconcile(ctx, &models.DirectoryUser{LogonName: "x"})
	assert.ErrorIs(t, err, ErrDBNil)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	start := time.Now()
	_, err = New(db, WithRetry(2, time.Millisecond)).Reconcile(ctx, &models.DirectoryUser{LogonName: "dave"})
	require.Error(t, err)

	var storageErr *directory.StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "dave", storageErr.Key)
	assert.Less(t, time.Since(start), time.Second)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "inserted", Inserted.String())
	assert.Equal(t, "updated", Updated.String())
	assert.Equal(t, "unknown", Outcome(0).String())
}

func TestList(t *testing.T) {
	db := setupTestDB(t)
	r := New(db)
	ctx := context.Background()

	for _, u := range []models.DirectoryUser{
		{LogonName: "zed", ShortID: "corp", DisplayName: str("Zed")},
		{LogonName: "amy", ShortID: "lab", Mail: str("amy@lab")},
	} {
		_, err := r.Reconcile(ctx, &u)
		require.NoError(t, err)
	}

	all, err := List(ctx, db, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "amy", all[0].LogonName)
	assert.Equal(t, "amy@lab", *all[0].Mail)
	assert.Equal(t, "Zed", *all[1].DisplayName)

	corp, err := List(ctx, db, "corp")
	require.NoError(t, err)
	require.Len(t, corp, 1)
	assert.Equal(t, "zed", corp[0].LogonName)

	_, err = List(ctx, nil, "")
	assert.ErrorIs(t, err, ErrDBNil)
}

func TestListAccounts(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.Role{ID: 1, Name: "Super Admin"}).Error)
	require.NoError(t, db.Create(&models.User{Username: "admin", RoleID: 1}).Error)

	_, err := New(db).Reconcile(ctx, &models.DirectoryUser{LogonName: "alice"})
	require.NoError(t, err)

	accounts, err := ListAccounts(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, []Account{
		{ID: "1", Name: "admin", Type: AccountTypeLocal},
		{ID: "alice", Name: "alice", Type: AccountTypeDirectory},
	}, accounts)
}

func TestGroupMembers(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.Role{ID: 1, Name: "Super Admin"}).Error)
	require.NoError(t, db.Create(&models.User{Username: "admin", RoleID: 1}).Error)
	require.NoError(t, db.Create(&models.User{Username: "outsider", RoleID: 1}).Error)
	require.NoError(t, db.Create(&models.Group{ID: 3, Name: "helpdesk"}).Error)
	require.NoError(t, db.Create(&models.UserGroup{UserID: 1, GroupID: 3}).Error)

	r := New(db)
	for _, name := range []string{"bob", "alice", "carol"} {
		_, err := r.Reconcile(ctx, &models.DirectoryUser{LogonName: name})
		require.NoError(t, err)
	}

	require.NoError(t, AddToGroup(ctx, db, "bob", 3))
	require.NoError(t, AddToGroup(ctx, db, "alice", 3))
	require.NoError(t, AddToGroup(ctx, db, "alice", 3))

	members, err := GroupMembers(ctx, db, 3)
	require.NoError(t, err)
	assert.Equal(t, []Account{
		{ID: "1", Name: "admin", Type: AccountTypeLocal},
		{ID: "alice", Name: "alice", Type: AccountTypeDirectory},
		{ID: "bob", Name: "bob", Type: AccountTypeDirectory},
	}, members)

	_, err = GroupMembers(ctx, db, 99)
	require.ErrorIs(t, err, ErrGroupNotFound)

	require.ErrorIs(t, AddToGroup(ctx, db, "nobody", 3), ErrUserNotFound)
	require.ErrorIs(t, AddToGroup(ctx, db, "carol", 99), ErrGroupNotFound)
	require.ErrorIs(t, AddToGroup(ctx, nil, "carol", 3), ErrDBNil)
}
