package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type JWTClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"` // user, admin
	jwt.RegisteredClaims
}

type AuthRequest struct {
	APIKey string `json:"api_key" binding:"required"`
	UserID string `json:"user_id,omitempty"`
}

type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Role      string    `json:"role"`
}
