// Package account lists stored accounts: mirrored directory users, the combined local and
// directory listing, and group memberships.
package account

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/Onboard360/Onboard360/internal/config"
	"github.com/Onboard360/Onboard360/internal/db/controller/directoryuser"
	"github.com/Onboard360/Onboard360/internal/web/handler"
)

const (
	// DirectoryUsersPath lists mirrored directory accounts, optionally filtered by dc_name.
	DirectoryUsersPath = "/domainusers"

	// AccountsPath lists local and directory accounts together.
	AccountsPath = "/users"

	// GroupMembersPath lists and extends group memberships.
	GroupMembersPath = "/groups/:id/members"
)

// Service is the account listing handler service.
type Service struct {
	handler.Service
	db *gorm.DB
}

var (
	// Handler is the account listing handler.
	Handler = Service{} //nolint:gochecknoglobals
)

// Init registers the account routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, deps *handler.Deps) error {
	if app == nil || cfg == nil || deps == nil || deps.DB == nil {
		return handler.ErrNilDeps
	}

	s.db = deps.DB

	api := app.Group(handler.APIPrefix)
	api.Get(DirectoryUsersPath, s.DirectoryUsers)
	api.Get(AccountsPath, s.Accounts)
	api.Get(GroupMembersPath, s.GroupMembers)
	api.Put(GroupMembersPath+"/:logon", s.AddGroupMember)

	return nil
}

// DirectoryUsers returns the stored directory accounts.
func (s *Service) DirectoryUsers(c *fiber.Ctx) error {
	users, err := directoryuser.List(c.UserContext(), s.db, c.Query("dc_name"))
	if err != nil {
		return handler.Fail(c, err, "failed to list directory users")
	}

	return c.JSON(users)
}

// Accounts returns local accounts followed by directory accounts.
func (s *Service) Accounts(c *fiber.Ctx) error {
	accounts, err := directoryuser.ListAccounts(c.UserContext(), s.db)
	if err != nil {
		return handler.Fail(c, err, "failed to list accounts")
	}

	return c.JSON(accounts)
}

// GroupMembers returns the members of a group.
func (s *Service) GroupMembers(c *fiber.Ctx) error {
	id, err := handler.ID(c, "id")
	if err != nil {
		return handler.Fail(c, err, "invalid group id")
	}

	members, err := directoryuser.GroupMembers(c.UserContext(), s.db, id)
	if err != nil {
		return s.fail(c, err, "failed to list group members")
	}

	return c.JSON(members)
}

// AddGroupMember adds a directory account to a group.
func (s *Service) AddGroupMember(c *fiber.Ctx) error {
	id, err := handler.ID(c, "id")
	if err != nil {
		return handler.Fail(c, err, "invalid group id")
	}

	if err = directoryuser.AddToGroup(c.UserContext(), s.db, c.Params("logon"), id); err != nil {
		return s.fail(c, err, "failed to add group member")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Service) fail(c *fiber.Ctx, err error, msg string) error {
	if errors.Is(err, directoryuser.ErrGroupNotFound) || errors.Is(err, directoryuser.ErrUserNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(handler.ErrorBody{Error: err.Error()})
	}

	return handler.Fail(c, err, msg)
}
