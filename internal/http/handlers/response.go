package handlers

import (
	"errors"
	"net/url"

	"github.com/campaign-manager/backend/internal/http/dto"
	"github.com/campaign-manager/backend/internal/middleware"
	"github.com/campaign-manager/backend/internal/platforms"
	"github.com/campaign-manager/backend/internal/query"
	"github.com/campaign-manager/backend/internal/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals(middleware.CtxRequestID).(string)
	return id
}

func fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(dto.ErrorResponse{Error: msg, RequestID: requestID(c)})
}

func ok(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(dto.SuccessResponse{Success: true, Data: data})
}

func list(c *fiber.Ctx, items any, count int, page *query.Pagination) error {
	return c.JSON(dto.ListResponse{Success: true, Count: count, Pagination: page, Data: items})
}

// statusOf maps a service error kind to its HTTP status.
func statusOf(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalid):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrUnauthenticated):
		return fiber.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrUpstream), errors.Is(err, platforms.ErrUpstream):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes err as a failure envelope. Unexpected errors are logged
// and hidden from the client.
func respondError(c *fiber.Ctx, log *zap.Logger, err error) error {
	status := statusOf(err)
	if status == fiber.StatusInternalServerError {
		log.Error("request failed",
			zap.String("request_id", requestID(c)),
			zap.String("path", c.Path()),
			zap.Error(err))
		return fail(c, status, "internal server error")
	}
	if status == fiber.StatusBadGateway && !isServiceError(err) {
		log.Warn("ad platform request failed", zap.String("request_id", requestID(c)), zap.Error(err))
		return fail(c, status, "ad platform request failed")
	}
	return fail(c, status, err.Error())
}

func isServiceError(err error) bool {
	var se *services.Error
	var ve *services.ValidationError
	return errors.As(err, &se) || errors.As(err, &ve)
}

// bind parses the JSON body into req and validates its tags.
func bind(c *fiber.Ctx, v *validator.Validate, req any) error {
	if err := c.BodyParser(req); err != nil {
		return &services.ValidationError{Message: "Invalid request body"}
	}
	if err := v.Struct(req); err != nil {
		field, msg := dto.ValidationMessage(err)
		return &services.ValidationError{Field: field, Message: msg}
	}
	return nil
}

// paramID parses the :name route parameter.
func paramID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, &services.ValidationError{Field: name, Message: "Invalid id"}
	}
	return id, nil
}

// queryValues copies the raw query string into url.Values, keeping repeated keys.
// A malformed query string is rejected rather than dropped.
func queryValues(c *fiber.Ctx) (url.Values, error) {
	values, err := url.ParseQuery(string(c.Request().URI().QueryString()))
	if err != nil {
		return nil, &services.ValidationError{Message: "Invalid query string"}
	}
	return values, nil
}
