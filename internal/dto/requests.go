package dto

// RegisterRequest represents the request to register a new user
type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

// LoginRequest represents the request to log in
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest represents the request to refresh a token pair
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ProfileRequest represents the request to create or update a profile
type ProfileRequest struct {
	FullName    string  `json:"full_name" binding:"required"`
	DateOfBirth *string `json:"date_of_birth"`
	Gender      *string `json:"gender"`
	Address     *string `json:"address"`
	Pincode     *string `json:"pincode"`
}

// CreateJobRequest represents the request to post a job
type CreateJobRequest struct {
	Title            string  `json:"title" binding:"required"`
	Description      string  `json:"description" binding:"required"`
	Amount           float64 `json:"amount" binding:"required"`
	NumberOfPeople   int     `json:"number_of_people"`
	Address          *string `json:"address"`
	GenderPreference string  `json:"gender_preference"`
}

// CancelJobRequest represents the request to cancel a job
type CancelJobRequest struct {
	Reason *string `json:"reason"`
}

// ApplyRequest represents a freelancer's application to a job
type ApplyRequest struct {
	OfferedAmount float64 `json:"offered_amount"`
	Message       *string `json:"message"`
	OfferType     string  `json:"offer_type"`
}

// RespondOfferRequest represents the client's response to an offer
type RespondOfferRequest struct {
	Action          string  `json:"action" binding:"required"`
	ResponseMessage *string `json:"response_message"`
}

// ClearDueRequest represents the request to clear commission dues
type ClearDueRequest struct {
	Amount float64 `json:"amount" binding:"required"`
}

// WithdrawRequest represents the request to withdraw wallet funds
type WithdrawRequest struct {
	Amount float64 `json:"amount" binding:"required"`
}

// GatewayCallbackRequest represents the payment gateway webhook body
type GatewayCallbackRequest struct {
	Response string `json:"response" binding:"required"`
}
