package dto

import (
	"github.com/campaign-manager/backend/internal/models"
	"github.com/campaign-manager/backend/internal/query"
	"github.com/google/uuid"
)

type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type ListResponse struct {
	Success    bool              `json:"success"`
	Count      int               `json:"count"`
	Pagination *query.Pagination `json:"pagination,omitempty"`
	Data       any               `json:"data"`
}

// SessionResponse is returned by every call that issues a token.
type SessionResponse struct {
	ID      uuid.UUID `json:"_id"`
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	Company *string   `json:"company,omitempty"`
	Role    string    `json:"role"`
	Token   string    `json:"token"`
}

func NewSessionResponse(u *models.User, token string) SessionResponse {
	return SessionResponse{
		ID:      u.ID,
		Name:    u.Name,
		Email:   u.Email,
		Company: u.Company,
		Role:    u.Role,
		Token:   token,
	}
}
