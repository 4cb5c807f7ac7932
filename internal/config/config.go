// Package config handles input from etc/*.toml files
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/creasty/defaults"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Environment variables read on top of the config file.
const (
	// ConfigJSONEnv holds a JSON document merged over main.toml.
	ConfigJSONEnv = "ONBOARD360_CONFIG_JSON"
	// EncryptionKeyEnv overrides Vault.EncryptionKey.
	EncryptionKeyEnv = "ONBOARD360_ENCRYPTION_KEY"
	// AdminPasswordEnv overrides Seed.AdminPassword.
	AdminPasswordEnv = "ONBOARD360_ADMIN_PASSWORD"
)

// ReadConfig reads main.toml from the directory path (default ./etc/), applies the
// environment overrides and defaults, and validates the result.
func ReadConfig(path string) (Config, error) {
	if path == "" {
		path = "./etc/"
	}

	v := viper.New()
	v.SetConfigFile(filepath.Join(path, "main.toml"))
	v.SetConfigType("toml")

	if err := v.BindEnv("vault.encryptionkey", EncryptionKeyEnv); err != nil {
		return Config{}, errors.Wrap(err, "failed to bind env")
	}

	if err := v.BindEnv("seed.adminpassword", AdminPasswordEnv); err != nil {
		return Config{}, errors.Wrap(err, "failed to bind env")
	}

	if err := v.ReadInConfig(); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	var c Config

	if err := v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode main config file")
	}

	if env := os.Getenv(ConfigJSONEnv); env != "" {
		if err := json.Unmarshal([]byte(env), &c); err != nil {
			return Config{}, errors.Wrap(err, "failed to decode "+ConfigJSONEnv)
		}
	}

	if err := defaults.Set(&c); err != nil {
		return Config{}, errors.Wrap(err, "failed to set config defaults")
	}

	return c, validate(&c)
}

// DumpConfig config as TOML String.
func DumpConfig(c *Config) (string, error) {
	var buffer bytes.Buffer

	if err := toml.NewEncoder(&buffer).Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// DumpConfigJSON config as JSON String.
func DumpConfigJSON(c *Config) (string, error) {
	var buffer bytes.Buffer

	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// validate checks the settings the daemon can not start without.
func validate(c *Config) error {
	invalidErrMessage := "invalid config"

	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidErrMessage)
	}

	switch c.DB.GormEngine {
	case EngineMySQL, EnginePostgres, EngineSQLite:
	default:
		return errors.Wrap(ErrUnknownEngine, invalidErrMessage)
	}

	if c.Directory.MaxConcurrentSearches < 1 {
		return errors.Wrap(ErrInvalidConcurrency, invalidErrMessage)
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = 5
	}

	return nil
}
