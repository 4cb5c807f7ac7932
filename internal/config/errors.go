package config

import (
	"errors"
)

var (
	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("toml config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrUnknownEngine error if config db.gormEngine is not supported.
	ErrUnknownEngine = errors.New("toml config db.gormEngine must be mysql, postgres or sqlite")

	// ErrInvalidConcurrency error if directory.maxConcurrentSearches is below one.
	ErrInvalidConcurrency = errors.New("toml config directory.maxConcurrentSearches must be at least 1")
)
