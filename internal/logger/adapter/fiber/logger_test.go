package fiber_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Onboard360/Onboard360/internal/logger"
	adapter "github.com/Onboard360/Onboard360/internal/logger/adapter/fiber"
)

type accessLine struct {
	RequestID string `json:"request_id"`
	IP        string `json:"IP"`
	Status    int    `json:"status"`
	URI       string `json:"URI"`
	Method    string `json:"method"`
	Host      string `json:"host"`
	Error     string `json:"error"`
}

func consoleConfig() adapter.Config {
	return adapter.Config{
		Config: logger.Log{
			EnableAccessLogToConsole: true,
			Console:                  logger.Console{Enabled: true},
		},
	}
}

func TestAccessLog(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		config     adapter.Config
		wantLine   bool
		wantStatus int
		wantURI    string
	}{
		{name: "disabled", target: "/api/domains", config: adapter.Config{}, wantLine: false, wantStatus: fiber.StatusOK},
		{name: "plain", target: "/api/domains", config: consoleConfig(), wantLine: true, wantStatus: fiber.StatusOK, wantURI: "/api/domains"},
		{
			name:       "query kept",
			target:     "/api/ldapusers?domain_id=1&ous=OU%3DIT",
			config:     consoleConfig(),
			wantLine:   true,
			wantStatus: fiber.StatusOK,
			wantURI:    "/api/ldapusers?domain_id=1&ous=OU%3DIT",
		},
		{name: "not found", target: "/api//missing", config: consoleConfig(), wantLine: true, wantStatus: fiber.StatusNotFound, wantURI: "/api//missing"},
		{
			name:   "check alive quiet",
			target: "/checkalive",
			config: func() adapter.Config {
				cfg := consoleConfig()
				cfg.Config.DisableCheckAlive = true
				cfg.QuietURIs = []string{"/checkalive"}

				return cfg
			}(),
			wantLine:   false,
			wantStatus: fiber.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, out := serve(t, tt.target, tt.config)
			assert.Equal(t, tt.wantStatus, status)

			if !tt.wantLine {
				assert.Empty(t, out)

				return
			}

			var line accessLine
			require.NoError(t, json.Unmarshal([]byte(out), &line), out)
			assert.Equal(t, tt.wantStatus, line.Status)
			assert.Equal(t, tt.wantURI, line.URI)
			assert.Equal(t, fiber.MethodGet, line.Method)
			assert.Equal(t, "example.com", line.Host)
			assert.NotEmpty(t, line.RequestID)
		})
	}
}

func TestRequestIDPropagated(t *testing.T) {
	app := fiber.New()
	app.Use(adapter.New())
	app.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.SendString(ctx.Locals(adapter.RequestIDLocal).(string))
	})

	req := httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.Header.Set(fiber.HeaderXRequestID, "req-42")

	resp, err := app.Test(req)
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "req-42", string(body))
	assert.Equal(t, "req-42", resp.Header.Get(fiber.HeaderXRequestID))

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Len(t, resp.Header.Get(fiber.HeaderXRequestID), 36)
}

func TestAccessLogFile(t *testing.T) {
	dir := t.TempDir()

	app := fiber.New()
	app.Use(adapter.New(adapter.Config{
		Config: logger.Log{
			File: logger.LogFile{
				Enabled: true,
				Path:    dir,
				Access:  logger.RollingFile{Name: "access.log", MaxSize: 1},
			},
		},
	}))
	app.Get("/api/domains", func(ctx *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusBadGateway, "directory unreachable")
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/domains", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)

	raw, err := os.ReadFile(filepath.Join(dir, "access.log"))
	require.NoError(t, err)

	var line accessLine
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(raw), &line))
	assert.Equal(t, fiber.StatusBadGateway, line.Status)
	assert.Equal(t, "directory unreachable", line.Error)
}

func serve(t *testing.T, target string, cfg adapter.Config) (int, string) {
	t.Helper()

	stdout := os.Stdout

	r, w, err := os.Pipe()
	require.NoError(t, err)

	os.Stdout = w

	t.Cleanup(func() { os.Stdout = stdout })

	app := fiber.New(fiber.Config{CaseSensitive: true, Immutable: true})
	app.Use(adapter.New(cfg))

	ok := func(ctx *fiber.Ctx) error {
		return ctx.SendString("ok")
	}

	app.Get("/api/domains", ok)
	app.Get("/api/ldapusers", ok)
	app.Get("/checkalive", ok)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, target, nil), -1)

	outC := make(chan string)

	go func() {
		var buf bytes.Buffer

		_, _ = io.Copy(&buf, r)
		outC <- buf.String()
	}()

	_ = w.Close()
	os.Stdout = stdout
	out := <-outC

	require.NoError(t, err)

	return resp.StatusCode, out
}
