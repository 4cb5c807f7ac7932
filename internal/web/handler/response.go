package handler

import (
	"context"
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/Onboard360/Onboard360/internal/db/controller/directoryprofile"
	"github.com/Onboard360/Onboard360/internal/db/controller/setting"
	"github.com/Onboard360/Onboard360/internal/directory"
)

var (
	// ErrInvalidID is returned for a missing or non positive id.
	ErrInvalidID = errors.New("invalid id")
	// ErrInvalidBody is returned when the request body can not be parsed.
	ErrInvalidBody = errors.New("invalid request body")
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

// XValidator validates request bodies with validator tags.
type XValidator struct {
	validate *validator.Validate
}

// NewValidator returns a ready XValidator.
func NewValidator() XValidator {
	return XValidator{validate: validator.New()}
}

// Validate returns one message per failed field, or nil.
func (v XValidator) Validate(data any) []string {
	err := v.validate.Struct(data)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []string{err.Error()}
	}

	messages := make([]string, len(validationErrors))
	for i, ve := range validationErrors {
		messages[i] = "Field '" + ve.Field() + "' failed validation tag '" + ve.Tag() + "'"
	}

	return messages
}

// ValidationFailed answers 400 with the failed fields.
func ValidationFailed(c *fiber.Ctx, messages []string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorBody{Error: "validation failed", Fields: messages})
}

// ID parses a positive integer path parameter.
func ID(c *fiber.Ctx, name string) (uint, error) {
	return parseID(c.Params(name))
}

// QueryID parses a positive integer query parameter.
func QueryID(c *fiber.Ctx, name string) (uint, error) {
	return parseID(c.Query(name))
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 0)
	if err != nil || id == 0 {
		return 0, ErrInvalidID
	}

	return uint(id), nil
}

// Status maps an error to the HTTP status of its response.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrInvalidID),
		errors.Is(err, ErrInvalidBody),
		errors.Is(err, directoryprofile.ErrInvalidSearchBase),
		errors.Is(err, directoryprofile.ErrCredentialRequired):
		return fiber.StatusBadRequest
	case errors.Is(err, directoryprofile.ErrProfileNotFound),
		errors.Is(err, setting.ErrSettingNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, directoryprofile.ErrNameTaken):
		return fiber.StatusConflict
	case errors.Is(err, directory.ErrAuth):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, directory.ErrConnection),
		errors.Is(err, directory.ErrSearch):
		return fiber.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return fiber.StatusGatewayTimeout
	default:
		return fiber.StatusInternalServerError
	}
}

// Fail logs err and answers with its mapped status. Internal errors are not echoed.
func Fail(c *fiber.Ctx, err error, msg string) error {
	status := Status(err)

	event := log.Warn()
	if status >= fiber.StatusInternalServerError && status != fiber.StatusBadGateway {
		event = log.Error()
	}

	event.Err(err).Str("path", c.Path()).Int("status", status).Msg(msg)

	body := ErrorBody{Error: err.Error()}
	if status == fiber.StatusInternalServerError {
		body.Error = msg
	}

	return c.Status(status).JSON(body)
}
