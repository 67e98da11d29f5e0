package transport

import (
	"time"

	"github.com/google/uuid"

	"github.com/Swastik007sharma/sweet-shop-manager/internal/models"
)

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AccountResponse struct {
	ID    uuid.UUID   `json:"id"`
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

func NewAccountResponse(a *models.Account) AccountResponse {
	return AccountResponse{ID: a.ID, Email: a.Email, Role: a.Role}
}

type LoginResult struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	ExpiresIn int64           `json:"expires_in"`
	User      AccountResponse `json:"user"`
}

// Price and Stock are pointers so that a missing field can be told apart from zero.
type CreateItemRequest struct {
	Name        string   `json:"name"`
	Price       *float64 `json:"price"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	ImageURL    string   `json:"image_url"`
	Stock       *float64 `json:"stock"`
}

type PatchItemRequest struct {
	Name        *string  `json:"name"`
	Price       *float64 `json:"price"`
	Category    *string  `json:"category"`
	Description *string  `json:"description"`
	ImageURL    *string  `json:"image_url"`
	Stock       *float64 `json:"stock"`
}

// QuantityRequest is the body of purchase and restock; quantity defaults to 1 when omitted.
type QuantityRequest struct {
	Quantity *float64 `json:"quantity"`
}

type SearchQuery struct {
	Query    string
	Name     string
	Category string
	MinPrice *float64
	MaxPrice *float64
}
