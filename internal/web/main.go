// Package web runs the JSON API of the directory console.
package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/Onboard360/Onboard360/internal/config"
	fiberlogger "github.com/Onboard360/Onboard360/internal/logger/adapter/fiber"
	"github.com/Onboard360/Onboard360/internal/web/handler"
	"github.com/Onboard360/Onboard360/internal/web/handler/account"
	"github.com/Onboard360/Onboard360/internal/web/handler/directory"
	"github.com/Onboard360/Onboard360/internal/web/handler/domain"
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
}

// Start listens on the configured port until the app is shut down.
func (s *Service) Start() error {
	addr := ":" + strconv.Itoa(s.cfg.Webserver.Port)

	log.Info().Str("addr", addr).Msg("starting http server")

	if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err //nolint:wrapcheck
	}

	return nil
}

// WaitShutdown blocks until SIGINT or SIGTERM and then stops the http server gracefully.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// let load balancers drop this instance while /checkalive fails
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 for %d seconds to let LB remove this instance from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	log.Info().Msg("stopping http server ...")

	if err := s.App.Shutdown(); err != nil {
		log.Error().Err(err).Msg("http server shutdown failed")
	}

	log.Info().Msg("http server was stopped ... good bye...")
}

// New creates the web service and registers every handler.
func New(cfg *config.Config, deps *handler.Deps) (*Service, error) {
	if cfg == nil || deps == nil {
		return nil, handler.ErrNilDeps
	}

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        cfg.Title,
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
			BodyLimit:      cfg.Webserver.BodyLimit,
		},
	)

	if !cfg.Webserver.DisableRecover {
		app.Use(recover.New(recover.Config{EnableStackTrace: cfg.DevMode}))
	}

	app.Use(fiberlogger.New(fiberlogger.Config{
		Config:    cfg.Log,
		QuietURIs: []string{handler.CheckAlivePath, handler.MetricsPath},
	}))

	s := &Service{
		App:          app,
		cfg:          cfg,
		fastShutDown: cfg.DevMode,
	}
	s.alive.Store(true)

	app.Get(handler.CheckAlivePath, s.CheckAlive)
	app.Get(handler.MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))

	for _, h := range []handler.Service{&domain.Handler, &directory.Handler, &account.Handler} {
		if err := h.Init(app, cfg, deps); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// CheckAlive answers 200 while the service accepts traffic and 503 while it shuts down.
func (s *Service) CheckAlive(c *fiber.Ctx) error {
	if !s.alive.Load() {
		return c.Status(fiber.StatusServiceUnavailable).SendString("shutting down")
	}

	return c.SendString("OK")
}
