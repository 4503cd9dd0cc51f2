package dto

import "time"

// LoginRequest carries the owner's credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SessionResponse describes the signed-in owner.
type SessionResponse struct {
	Token       string    `json:"token,omitempty"`
	Email       string    `json:"email"`
	CompanyID   string    `json:"company_id"`
	CompanyName string    `json:"company_name"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// StatusRequest asks for an order status change.
type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}
