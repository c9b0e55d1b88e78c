package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/campaign-manager/backend/internal/http/dto"
	"github.com/campaign-manager/backend/internal/platforms"
	"github.com/campaign-manager/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&services.ValidationError{Field: "name", Message: "Please add a name"}, fiber.StatusBadRequest},
		{&services.Error{Kind: services.ErrUnauthenticated, Message: "x"}, fiber.StatusUnauthorized},
		{&services.Error{Kind: services.ErrForbidden, Message: "x"}, fiber.StatusForbidden},
		{&services.Error{Kind: services.ErrNotFound, Message: "x"}, fiber.StatusNotFound},
		{&services.Error{Kind: services.ErrConflict, Message: "x"}, fiber.StatusConflict},
		{&services.Error{Kind: services.ErrUpstream, Message: "x"}, fiber.StatusBadGateway},
		{fmt.Errorf("wrapped: %w", &platforms.StatusError{Platform: "facebook", Status: 500}), fiber.StatusBadGateway},
		{errors.New("boom"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusOf(tt.err))
		})
	}
}

func errorBody(t *testing.T, err error) (int, dto.ErrorResponse) {
	t.Helper()
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error { return respondError(c, zap.NewNop(), err) })

	resp, rerr := app.Test(httptest.NewRequest("GET", "/", nil), -1)
	require.NoError(t, rerr)
	defer resp.Body.Close()
	raw, rerr := io.ReadAll(resp.Body)
	require.NoError(t, rerr)

	var body dto.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &body))
	return resp.StatusCode, body
}

func TestRespondErrorHidesInternals(t *testing.T) {
	status, body := errorBody(t, errors.New("pq: relation does not exist"))
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.False(t, body.Success)
	assert.Equal(t, "internal server error", body.Error)

	status, body = errorBody(t, &platforms.StatusError{Platform: "google", Status: 401, Body: "token=secret"})
	assert.Equal(t, fiber.StatusBadGateway, status)
	assert.Equal(t, "ad platform request failed", body.Error)
}

func TestRespondErrorKeepsServiceMessages(t *testing.T) {
	status, body := errorBody(t, &services.Error{Kind: services.ErrForbidden, Message: "Not authorized to update this campaign"})
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "Not authorized to update this campaign", body.Error)

	status, body = errorBody(t, &services.ValidationError{Field: "status", Message: "must be one of new, contacted"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "status: must be one of new, contacted", body.Error)
}
