package dto

import (
	"time"

	"github.com/gigwork/backend/internal/models"
	"github.com/gigwork/backend/internal/service"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse represents a standard success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// AuthResponse represents the result of registration, login or refresh
type AuthResponse struct {
	User         *models.User  `json:"user"`
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    time.Duration `json:"expires_in"`
}

// NewAuthResponse builds an AuthResponse from a service result
func NewAuthResponse(result *service.AuthResult) AuthResponse {
	return AuthResponse{
		User:         result.User,
		AccessToken:  result.TokenPair.AccessToken,
		RefreshToken: result.TokenPair.RefreshToken,
		ExpiresIn:    result.TokenPair.ExpiresIn,
	}
}

// JobListResponse wraps a page of jobs
type JobListResponse struct {
	Jobs   []models.Job `json:"jobs"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

// OfferListResponse wraps a list of offers
type OfferListResponse struct {
	Offers []models.Offer `json:"offers"`
}

// WalletResponse represents the wallet state
type WalletResponse struct {
	Balance   float64   `json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TransactionListResponse wraps a list of transactions
type TransactionListResponse struct {
	Transactions []models.Transaction `json:"transactions"`
}
