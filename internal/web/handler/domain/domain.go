// Package domain serves directory profile management, connectivity checks and sync runs.
package domain

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/Onboard360/Onboard360/internal/config"
	"github.com/Onboard360/Onboard360/internal/db/controller/directoryprofile"
	"github.com/Onboard360/Onboard360/internal/directory/dirsync"
	"github.com/Onboard360/Onboard360/internal/web/handler"
)

const (
	// Path is the base path for profile handlers.
	Path = "/domains"

	// TestPath checks a bind without storing anything.
	TestPath = "/test-ad-connection"
)

// Service is the directory profile handler service.
type Service struct {
	handler.Service
	cfg       *config.Config
	profiles  *directoryprofile.Store
	sync      *dirsync.Service
	validator handler.XValidator
}

var (
	// Handler is the directory profile handler.
	Handler = Service{} //nolint:gochecknoglobals
)

// Init registers the profile routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, deps *handler.Deps) error {
	if app == nil || cfg == nil || deps == nil || deps.Profiles == nil || deps.Sync == nil {
		return handler.ErrNilDeps
	}

	s.cfg = cfg
	s.profiles = deps.Profiles
	s.sync = deps.Sync
	s.validator = handler.NewValidator()

	api := app.Group(handler.APIPrefix)

	api.Get(Path, s.List)
	api.Post(Path, s.Create)
	api.Put(Path+"/:id", s.Update)
	api.Get(Path+"/:id/password", s.Password)
	api.Get(Path+"/:id/status", s.Status)
	api.Get(Path+"/:id/sync", s.LastSync)
	api.Post(Path+"/:id/sync", s.Sync)
	api.Post(TestPath, s.Test)

	return nil
}

// List returns all profiles.
func (s *Service) List(c *fiber.Ctx) error {
	profiles, err := s.profiles.List(c.UserContext())
	if err != nil {
		return handler.Fail(c, err, "failed to list directory profiles")
	}

	return c.JSON(profiles)
}

// Create stores a new profile.
func (s *Service) Create(c *fiber.Ctx) error {
	var in directoryprofile.Input
	if err := c.BodyParser(&in); err != nil {
		return handler.Fail(c, handler.ErrInvalidBody, "failed to parse directory profile")
	}

	if msgs := s.validator.Validate(in); msgs != nil {
		return handler.ValidationFailed(c, msgs)
	}

	p, err := s.profiles.Create(c.UserContext(), in)
	if err != nil {
		return handler.Fail(c, err, "failed to create directory profile")
	}

	log.Info().Uint("domain_id", p.ID).Str("domain_name", p.Name).Msg("directory profile created")

	return c.Status(fiber.StatusCreated).JSON(p)
}

// updateInput relaxes Input for partial updates: name and credential may stay empty.
type updateInput struct {
	Name          string `json:"domain_name"             validate:"max=255"`
	Host          string `json:"domain_controller"       validate:"required,max=255"`
	Port          int    `json:"port"                    validate:"min=0,max=65535"`
	BindPrincipal string `json:"read_only_user"          validate:"required,max=255"`
	Credential    string `json:"read_only_user_password"`
	SearchBase    string `json:"base_dn"                 validate:"required,max=512"`
	UseTLS        bool   `json:"ssl_enabled"`
	SkipVerify    bool   `json:"skip_verify"`
}

// Update changes an existing profile. An empty password keeps the stored one.
func (s *Service) Update(c *fiber.Ctx) error {
	id, err := handler.ID(c, "id")
	if err != nil {
		return handler.Fail(c, err, "invalid directory profile id")
	}

	var in updateInput
	if err = c.BodyParser(&in); err != nil {
		return handler.Fail(c, handler.ErrInvalidBody, "failed to parse directory profile")
	}

	if msgs := s.validator.Validate(in); msgs != nil {
		return handler.ValidationFailed(c, msgs)
	}

	p, err := s.profiles.Update(c.UserContext(), id, directoryprofile.Input(in))
	if err != nil {
		return handler.Fail(c, err, "failed to update directory profile")
	}

	log.Info().Uint("domain_id", p.ID).Msg("directory profile updated")

	return c.JSON(p)
}

// Password returns the decrypted bind credential.
func (s *Service) Password(c *fiber.Ctx) error {
	id, err := handler.ID(c, "id")
	if err != nil {
		return handler.Fail(c, err, "invalid directory profile id")
	}

	credential, err := s.profiles.Credential(c.UserContext(), id)
	if err != nil {
		return handler.Fail(c, err, "failed to read directory credential")
	}

	return c.JSON(fiber.Map{"read_only_user_password": credential})
}

// Status reports whether the profile can bind.
func (s *Service) Status(c *fiber.Ctx) error {
	id, err := handler.ID(c, "id")
	if err != nil {
		return handler.Fail(c, err, "invalid directory profile id")
	}

	st, err := s.sync.Status(c.UserContext(), id)
	if err != nil {
		return handler.Fail(c, err, "failed to check directory status")
	}

	return c.JSON(st)
}

// Test binds with the posted connection fields.
func (s *Service) Test(c *fiber.Ctx) error {
	var in dirsync.TestInput
	if err := c.BodyParser(&in); err != nil {
		return handler.Fail(c, handler.ErrInvalidBody, "failed to parse connection test")
	}

	if msgs := s.validator.Validate(in); msgs != nil {
		return handler.ValidationFailed(c, msgs)
	}

	if err := s.sync.Test(c.UserContext(), in); err != nil {
		return handler.Fail(c, err, "directory connection test failed")
	}

	return c.JSON(fiber.Map{"message": "Connection successful"})
}

// syncInput selects the OUs of a sync run. Empty means the profile search base.
type syncInput struct {
	OUs []string `json:"ous"`
}

// SyncResponse is the JSON view of a finished run.
type SyncResponse struct {
	ProfileID     uint              `json:"domain_id"`
	Entries       int               `json:"entries"`
	Inserted      int               `json:"inserted"`
	Updated       int               `json:"updated"`
	OUErrors      map[string]string `json:"ou_errors,omitempty"`
	DecodeErrors  int               `json:"decode_errors"`
	StorageErrors int               `json:"storage_errors"`
	DurationMS    int64             `json:"duration_ms"`
}

// NewSyncResponse summarizes res.
func NewSyncResponse(profileID uint, res *dirsync.Result) SyncResponse {
	out := SyncResponse{
		ProfileID:     profileID,
		Entries:       len(res.Entries),
		Inserted:      res.Inserted,
		Updated:       res.Updated,
		DecodeErrors:  len(res.DecodeErrors),
		StorageErrors: len(res.StorageErrors),
		DurationMS:    res.Duration.Milliseconds(),
	}

	if len(res.OUErrors) > 0 {
		out.OUErrors = make(map[string]string, len(res.OUErrors))
		for ou, err := range res.OUErrors {
			out.OUErrors[ou] = err.Error()
		}
	}

	return out
}

// Sync runs a synchronization and answers with its counts.
func (s *Service) Sync(c *fiber.Ctx) error {
	id, err := handler.ID(c, "id")
	if err != nil {
		return handler.Fail(c, err, "invalid directory profile id")
	}

	var in syncInput
	if len(c.Body()) > 0 {
		if err = c.BodyParser(&in); err != nil {
			return handler.Fail(c, handler.ErrInvalidBody, "failed to parse sync request")
		}
	}

	started := time.Now()

	res, err := s.sync.Sync(c.UserContext(), id, in.OUs)
	if err != nil {
		return handler.Fail(c, err, "directory sync failed")
	}

	log.Info().Uint("domain_id", id).Dur("duration", time.Since(started)).Msg("directory sync requested")

	return c.JSON(NewSyncResponse(id, res))
}

// LastSync returns the stored summary of the last run.
func (s *Service) LastSync(c *fiber.Ctx) error {
	id, err := handler.ID(c, "id")
	if err != nil {
		return handler.Fail(c, err, "invalid directory profile id")
	}

	sum, err := s.sync.LastSync(c.UserContext(), id)
	if err != nil {
		return handler.Fail(c, err, "failed to load sync summary")
	}

	return c.JSON(sum)
}
