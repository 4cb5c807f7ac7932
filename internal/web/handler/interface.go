package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/Onboard360/Onboard360/internal/config"
	"github.com/Onboard360/Onboard360/internal/db/controller/directoryprofile"
	"github.com/Onboard360/Onboard360/internal/directory/dirsync"
)

// ErrNilDeps is returned by Init when app, cfg or a required dependency is nil.
var ErrNilDeps = errors.New(ErrNilDepsFatalLogMsg)

// Deps carries what handlers need beyond the app and config.
type Deps struct {
	DB       *gorm.DB
	Profiles *directoryprofile.Store
	Sync     *dirsync.Service
}

// Service is the interface for a web handler service.
type Service interface {
	Init(app *fiber.App, cfg *config.Config, deps *Deps) error
}
