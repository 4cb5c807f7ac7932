package config

import (
	"time"

	"github.com/Onboard360/Onboard360/internal/logger"
)

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string `default:"Onboard360"`
	Webserver Webserver
	Directory Directory
	Vault     Vault
	Seed      Seed
}

// Webserver implement webserver settings.
type Webserver struct {
	CleanPath      bool   // use clean path middleware to allow multi slash requests
	DisableRecover bool   // disable recover middleware
	Port           int    // listening port for the webserver
	ShutDownTime   int    `default:"5"` // wait time for shutdown in seconds
	URL            string // base url for the webserver
	BodyLimit      int    `default:"4194304"` // bytes
}

// Directory tunes the directory client and synchronization.
type Directory struct {
	ConnectTimeout        time.Duration `default:"5s"`
	BindTimeout           time.Duration `default:"5s"`
	SearchBuffer          int           `default:"64"`
	MaxConcurrentSearches int           `default:"8"`
	// MergeNonNull keeps stored values for attributes absent from a new sync.
	MergeNonNull bool
	// FallbackSearchBase is browsed for OUs when a profile search base has no DC component.
	FallbackSearchBase string        `default:"DC=BCS,DC=local"`
	RetryMax           uint64        `default:"3"`
	RetryBase          time.Duration `default:"50ms"`
}

// Vault holds the credential encryption secret.
type Vault struct {
	EncryptionKey string `json:"-" toml:"-"`
}

// Seed describes the initial administrator created on an empty database.
type Seed struct {
	AdminUsername string `default:"admin"`
	AdminEmail    string `default:"admin@localhost"`
	AdminPassword string `json:"-" toml:"-"`
}
