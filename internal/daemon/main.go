// Package daemon wires storage, the directory services and the web API together.
package daemon

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/Onboard360/Onboard360/internal/config"
	"github.com/Onboard360/Onboard360/internal/db/controller/directoryprofile"
	"github.com/Onboard360/Onboard360/internal/db/controller/directoryuser"
	"github.com/Onboard360/Onboard360/internal/db/controller/syncstatus"
	"github.com/Onboard360/Onboard360/internal/db/dsn"
	"github.com/Onboard360/Onboard360/internal/db/models"
	"github.com/Onboard360/Onboard360/internal/directory"
	"github.com/Onboard360/Onboard360/internal/directory/dirsync"
	"github.com/Onboard360/Onboard360/internal/vault"
	"github.com/Onboard360/Onboard360/internal/web"
	"github.com/Onboard360/Onboard360/internal/web/handler"
)

// Daemon represents the main application daemon.
type Daemon struct {
	webService *web.Service
}

// Start serves the web API until SIGINT or SIGTERM.
func (d *Daemon) Start() error {
	go func() {
		if err := d.webService.Start(); err != nil {
			log.Fatal().Err(err).Msg("fiber listen error")
		}
	}()

	d.webService.WaitShutdown()

	return nil
}

// New opens the database and builds the daemon.
func New(cfg *config.Config) (*Daemon, error) {
	db, err := OpenDB(cfg)
	if err != nil {
		return nil, err
	}

	deps, err := NewServices(cfg, db)
	if err != nil {
		return nil, err
	}

	webService, err := web.New(cfg, deps)
	if err != nil {
		return nil, fmt.Errorf("failed to create web service: %w", err)
	}

	return &Daemon{webService: webService}, nil
}

// OpenDB connects to the configured database, migrates the schema and seeds it.
func OpenDB(cfg *config.Config) (*gorm.DB, error) {
	dialector, err := dsn.Dialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err = Migrate(cfg, db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate creates or updates every table and seeds the initial data.
func Migrate(cfg *config.Config, db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	if err := seed(cfg, db); err != nil {
		return fmt.Errorf("failed to seed database: %w", err)
	}

	return nil
}

// NewServices builds the profile store and the sync service on db.
func NewServices(cfg *config.Config, db *gorm.DB) (*handler.Deps, error) {
	v, err := vault.New(cfg.Vault.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create credential vault: %w", err)
	}

	client, err := directory.NewClient(directory.Options{
		ConnectTimeout: cfg.Directory.ConnectTimeout,
		BindTimeout:    cfg.Directory.BindTimeout,
		SearchBuffer:   cfg.Directory.SearchBuffer,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create directory client: %w", err)
	}

	return newServices(cfg, db, v, client)
}

func newServices(cfg *config.Config, db *gorm.DB, v vault.Vault, connector directory.Connector) (*handler.Deps, error) {
	profiles := directoryprofile.New(db, v)

	reconciler := directoryuser.New(db,
		directoryuser.WithMergeNonNull(cfg.Directory.MergeNonNull),
		directoryuser.WithRetry(cfg.Directory.RetryMax, cfg.Directory.RetryBase),
	)

	syncService, err := dirsync.New(connector, profiles, reconciler, syncstatus.New(db), dirsync.Options{
		MaxConcurrentSearches: cfg.Directory.MaxConcurrentSearches,
		FallbackSearchBase:    cfg.Directory.FallbackSearchBase,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create sync service: %w", err)
	}

	return &handler.Deps{DB: db, Profiles: profiles, Sync: syncService}, nil
}
