// Package directory serves live directory browsing: the OU tree and on demand user syncs.
package directory

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Onboard360/Onboard360/internal/config"
	"github.com/Onboard360/Onboard360/internal/db/models"
	"github.com/Onboard360/Onboard360/internal/directory/dirsync"
	"github.com/Onboard360/Onboard360/internal/web/handler"
)

const (
	// OUPath returns the OU tree of a profile.
	OUPath = "/ou"

	// UsersPath syncs the selected OUs and returns the decoded accounts.
	UsersPath = "/ldapusers"

	// ProfileQuery names the profile id query parameter.
	ProfileQuery = "domain_id"

	// OUQuery names the repeatable OU query parameter.
	OUQuery = "ous"
)

// Service is the directory browsing handler service.
type Service struct {
	handler.Service
	sync *dirsync.Service
}

var (
	// Handler is the directory browsing handler.
	Handler = Service{} //nolint:gochecknoglobals
)

// Init registers the browsing routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, deps *handler.Deps) error {
	if app == nil || cfg == nil || deps == nil || deps.Sync == nil {
		return handler.ErrNilDeps
	}

	s.sync = deps.Sync

	api := app.Group(handler.APIPrefix)
	api.Get(OUPath, s.OrganizationalUnits)
	api.Get(UsersPath, s.Users)

	return nil
}

// OrganizationalUnits returns the nested OU tree.
func (s *Service) OrganizationalUnits(c *fiber.Ctx) error {
	id, err := handler.QueryID(c, ProfileQuery)
	if err != nil {
		return handler.Fail(c, err, "invalid directory profile id")
	}

	tree, err := s.sync.OrganizationalUnits(c.UserContext(), id)
	if err != nil {
		return handler.Fail(c, err, "failed to browse organizational units")
	}

	return c.JSON(tree)
}

// UsersResponse is the reply of a user fetch: the synced accounts plus per OU failures.
type UsersResponse struct {
	Users    []models.DirectoryUser `json:"users"`
	OUErrors map[string]string      `json:"ou_errors,omitempty"`
}

// Users syncs the OUs given as repeated ous parameters and returns every decoded account.
func (s *Service) Users(c *fiber.Ctx) error {
	id, err := handler.QueryID(c, ProfileQuery)
	if err != nil {
		return handler.Fail(c, err, "invalid directory profile id")
	}

	raw := c.Context().QueryArgs().PeekMulti(OUQuery)

	ous := make([]string, 0, len(raw))
	for _, ou := range raw {
		ous = append(ous, string(ou))
	}

	res, err := s.sync.Sync(c.UserContext(), id, ous)
	if err != nil {
		return handler.Fail(c, err, "failed to fetch directory users")
	}

	out := UsersResponse{Users: res.Entries}
	if out.Users == nil {
		out.Users = []models.DirectoryUser{}
	}

	if len(res.OUErrors) > 0 {
		out.OUErrors = make(map[string]string, len(res.OUErrors))
		for ou, errOU := range res.OUErrors {
			out.OUErrors[ou] = errOU.Error()
		}
	}

	return c.JSON(out)
}
