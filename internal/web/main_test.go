package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/go-ldap/ldap/v3"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Onboard360/Onboard360/internal/config"
	"github.com/Onboard360/Onboard360/internal/db/controller/directoryprofile"
	"github.com/Onboard360/Onboard360/internal/db/controller/directoryuser"
	"github.com/Onboard360/Onboard360/internal/db/controller/syncstatus"
	"github.com/Onboard360/Onboard360/internal/db/models"
	"github.com/Onboard360/Onboard360/internal/directory"
	"github.com/Onboard360/Onboard360/internal/directory/dirsync"
	"github.com/Onboard360/Onboard360/internal/directory/outree"
	"github.com/Onboard360/Onboard360/internal/vault"
	"github.com/Onboard360/Onboard360/internal/web/handler"
)

const (
	reader   = "CN=reader,DC=corp,DC=example"
	ouIT     = "OU=IT,DC=corp,DC=example"
	baseCorp = "DC=corp,DC=example"
)

type stubStream struct {
	entries []*ldap.Entry
	pos     int
}

func (s *stubStream) Next() bool {
	if s.pos >= len(s.entries) {
		return false
	}

	s.pos++

	return true
}

func (s *stubStream) Entry() *ldap.Entry { return s.entries[s.pos-1] }
func (s *stubStream) Err() error         { return nil }

type stubSession struct{}

func (stubSession) Search(_ context.Context, req directory.SearchRequest) directory.Stream {
	if req.Filter == outree.Filter {
		return &stubStream{entries: []*ldap.Entry{
			ldap.NewEntry(ouIT, map[string][]string{"ou": {"IT"}}),
			ldap.NewEntry("OU=Ops,"+ouIT, map[string][]string{"ou": {"Ops"}}),
		}}
	}

	if req.BaseDN != ouIT {
		return &stubStream{}
	}

	return &stubStream{entries: []*ldap.Entry{
		ldap.NewEntry("CN=Alice,"+ouIT, map[string][]string{"sAMAccountName": {"alice"}, "mail": {"alice@corp.example"}}),
		ldap.NewEntry("CN=Bob,"+ouIT, map[string][]string{"sAMAccountName": {"bob"}}),
	}}
}

func (stubSession) Close() error { return nil }

type stubConnector struct{}

func (stubConnector) Open(_ context.Context, _ directory.Endpoint, principal, credential string) (directory.Session, error) {
	if principal != reader || credential != "pw" {
		return nil, &directory.AuthError{Principal: principal, Code: ldap.LDAPResultInvalidCredentials, Err: errors.New("invalid credentials")}
	}

	return stubSession{}, nil
}

func setupService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(models.All()...))

	v, err := vault.New("web-test-secret")
	require.NoError(t, err)

	profiles := directoryprofile.New(db, v)

	syncService, err := dirsync.New(stubConnector{}, profiles, directoryuser.New(db), syncstatus.New(db), dirsync.Options{})
	require.NoError(t, err)

	cfg := &config.Config{Title: "onboard360-test", DevMode: true}
	cfg.Webserver.Port = 8080

	s, err := New(cfg, &handler.Deps{DB: db, Profiles: profiles, Sync: syncService})
	require.NoError(t, err)

	return s, db
}

func call(t *testing.T, app *fiber.App, method, target string, body any) (int, []byte) {
	t.Helper()

	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)

		payload = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, payload)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, out
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))

	return v
}

func corpProfile() map[string]any {
	return map[string]any{
		"domain_name":             "corp",
		"domain_controller":       "dc1.corp.example",
		"port":                    389,
		"read_only_user":          reader,
		"read_only_user_password": "pw",
		"base_dn":                 baseCorp,
	}
}

func TestCheckAlive(t *testing.T) {
	s, _ := setupService(t)

	status, body := call(t, s.App, http.MethodGet, handler.CheckAlivePath, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "OK", string(body))

	s.alive.Store(false)

	status, _ = call(t, s.App, http.MethodGet, handler.CheckAlivePath, nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestProfileLifecycle(t *testing.T) {
	s, _ := setupService(t)

	status, body := call(t, s.App, http.MethodPost, "/api/domains", corpProfile())
	require.Equal(t, http.StatusCreated, status, string(body))

	created := decode[map[string]any](t, body)
	assert.Equal(t, "corp", created["dc_name"])
	assert.NotContains(t, created, "read_only_user_password")
	assert.NotContains(t, string(body), "\"pw\"")

	status, _ = call(t, s.App, http.MethodPost, "/api/domains", corpProfile())
	assert.Equal(t, http.StatusConflict, status)

	status, body = call(t, s.App, http.MethodPost, "/api/domains", map[string]any{"domain_name": "x"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.NotEmpty(t, decode[handler.ErrorBody](t, body).Fields)

	noDC := corpProfile()
	noDC["domain_name"] = "lab"
	noDC["base_dn"] = "OU=Staff"
	status, _ = call(t, s.App, http.MethodPost, "/api/domains", noDC)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = call(t, s.App, http.MethodGet, "/api/domains", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]models.DirectoryProfile](t, body), 1)

	update := corpProfile()
	update["domain_name"] = ""
	update["read_only_user_password"] = ""
	update["domain_controller"] = "dc2.corp.example"

	status, body = call(t, s.App, http.MethodPut, "/api/domains/1", update)
	require.Equal(t, http.StatusOK, status, string(body))

	updated := decode[models.DirectoryProfile](t, body)
	assert.Equal(t, "corp", updated.Name)
	assert.Equal(t, "dc2.corp.example", updated.Host)

	status, body = call(t, s.App, http.MethodGet, "/api/domains/1/password", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "pw", decode[map[string]string](t, body)["read_only_user_password"])

	status, _ = call(t, s.App, http.MethodPut, "/api/domains/7", corpProfile())
	assert.Equal(t, http.StatusNotFound, status)
}

func TestStatusAndConnectionTest(t *testing.T) {
	s, _ := setupService(t)

	status, _ := call(t, s.App, http.MethodPost, "/api/domains", corpProfile())
	require.Equal(t, http.StatusCreated, status)

	status, body := call(t, s.App, http.MethodGet, "/api/domains/1/status", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, dirsync.StatusActive, decode[dirsync.Status](t, body).Status)

	status, _ = call(t, s.App, http.MethodGet, "/api/domains/9/status", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = call(t, s.App, http.MethodGet, "/api/domains/abc/status", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	// no password: the stored credential of the same principal is used
	status, body = call(t, s.App, http.MethodPost, "/api/test-ad-connection", map[string]any{
		"domain_controller": "dc1.corp.example",
		"read_only_user":    reader,
	})
	assert.Equal(t, http.StatusOK, status, string(body))

	status, _ = call(t, s.App, http.MethodPost, "/api/test-ad-connection", map[string]any{
		"domain_controller":       "dc1.corp.example",
		"read_only_user":          reader,
		"read_only_user_password": "wrong",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = call(t, s.App, http.MethodPost, "/api/test-ad-connection", map[string]any{"port": 389})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestBrowseAndSync(t *testing.T) {
	s, db := setupService(t)

	status, _ := call(t, s.App, http.MethodPost, "/api/domains", corpProfile())
	require.Equal(t, http.StatusCreated, status)

	status, body := call(t, s.App, http.MethodGet, "/api/ou?domain_id=1", nil)
	require.Equal(t, http.StatusOK, status, string(body))

	tree := decode[[]outree.Node](t, body)
	require.Len(t, tree, 1)
	assert.Equal(t, "IT", tree[0].Name)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, "Ops", tree[0].Children[0].Name)

	status, _ = call(t, s.App, http.MethodGet, "/api/ou", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = call(t, s.App, http.MethodGet, "/api/ldapusers?domain_id=1&ous="+url.QueryEscape(ouIT), nil)
	require.Equal(t, http.StatusOK, status, string(body))

	users := decode[struct {
		Users []models.DirectoryUser `json:"users"`
	}](t, body)
	require.Len(t, users.Users, 2)
	assert.Equal(t, "corp", users.Users[0].ShortID)

	status, body = call(t, s.App, http.MethodGet, "/api/domains/1/sync", nil)
	require.Equal(t, http.StatusOK, status)

	last := decode[syncstatus.Summary](t, body)
	assert.Equal(t, 2, last.Entries)
	assert.Equal(t, 2, last.Inserted)

	status, body = call(t, s.App, http.MethodPost, "/api/domains/1/sync", map[string]any{"ous": []string{ouIT}})
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 2, decode[map[string]any](t, body)["updated"])

	status, _ = call(t, s.App, http.MethodGet, "/api/domains/2/sync", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = call(t, s.App, http.MethodGet, "/api/domainusers?dc_name=corp", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]directoryuser.Summary](t, body), 2)

	require.NoError(t, db.Create(&models.Role{ID: models.SuperAdminRoleID, Name: "Super Admin"}).Error)
	require.NoError(t, db.Create(&models.User{Username: "admin", RoleID: models.SuperAdminRoleID}).Error)

	status, body = call(t, s.App, http.MethodGet, "/api/users", nil)
	require.Equal(t, http.StatusOK, status)

	accounts := decode[[]directoryuser.Account](t, body)
	require.Len(t, accounts, 3)
	assert.Equal(t, directoryuser.AccountTypeLocal, accounts[0].Type)

	require.NoError(t, db.Create(&models.Group{ID: 1, Name: "helpdesk"}).Error)

	status, _ = call(t, s.App, http.MethodPut, "/api/groups/1/members/alice", nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = call(t, s.App, http.MethodPut, "/api/groups/1/members/nobody", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = call(t, s.App, http.MethodGet, "/api/groups/1/members", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []directoryuser.Account{{ID: "alice", Name: "alice", Type: directoryuser.AccountTypeDirectory}},
		decode[[]directoryuser.Account](t, body))

	status, body = call(t, s.App, http.MethodGet, handler.MetricsPath, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "directory_entries_synced_total")
}
