package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/nearmarket/nearmarket-backend/internal/users"
)

// RegisterRequest carries the validated registration payload.
type RegisterRequest struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// LoginRequest carries the validated login payload.
type LoginRequest struct {
	Email    string
	Password string
}

// TokenPair bundles the access JWT with its rotating refresh token.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	User   *users.UserDTO `json:"user"`
	Tokens TokenPair      `json:"tokens"`
}

// MeResponse describes the authenticated user, with the vendor profile
// summary attached for vendor accounts.
type MeResponse struct {
	User   *users.UserDTO        `json:"user"`
	Vendor *VendorProfileSummary `json:"vendor,omitempty"`
}

// VendorProfileSummary is the trimmed vendor profile on /auth/me.
type VendorProfileSummary struct {
	ID         uuid.UUID  `json:"id"`
	ShopName   string     `json:"shop_name"`
	Verified   bool       `json:"verified"`
	City       *string    `json:"city,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
}
