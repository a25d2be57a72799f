package auth

import (
	"time"

	domain "github.com/example/glamup-shop-verse/domain/user"
)

// Request-reply payloads. Domain failures travel in ErrorCode/Error so the
// caller can rebuild them with apperr.FromCode.

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Email    string         `json:"email"`
	Password string         `json:"password"`
	Profile  domain.Profile `json:"profile"`
}

// UserResponse carries a user without its password hash.
type UserResponse struct {
	ID        string         `json:"id"`
	Email     string         `json:"email"`
	Role      string         `json:"role"`
	Profile   domain.Profile `json:"profile"`
	CreatedAt time.Time      `json:"created_at"`
	ErrorCode string         `json:"error_code,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest carries a refresh token for refresh-token and logout.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse carries a token pair.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
	ErrorCode    string `json:"error_code,omitempty"`
	Error        string `json:"error,omitempty"`
}

// AckResponse acknowledges an operation without a payload.
type AckResponse struct {
	OK        bool   `json:"ok"`
	ErrorCode string `json:"error_code,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ValidateTokenRequest represents a token validation request.
type ValidateTokenRequest struct {
	Token string `json:"token"`
}

// ValidateTokenResponse represents a token validation response.
type ValidateTokenResponse struct {
	Valid  bool   `json:"valid"`
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
	Error  string `json:"error,omitempty"`
}

// GetUserRequest represents a get user request.
type GetUserRequest struct {
	UserID string `json:"user_id"`
}

// UpdateProfileRequest replaces the profile of UserID.
type UpdateProfileRequest struct {
	UserID  string         `json:"user_id"`
	Profile domain.Profile `json:"profile"`
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Role:      u.Role,
		Profile:   domain.ProfileOf(*u),
		CreatedAt: u.CreatedAt,
	}
}

func fromUserResponse(r UserResponse) *domain.User {
	u := &domain.User{
		ID:        r.ID,
		Email:     r.Email,
		Role:      r.Role,
		CreatedAt: r.CreatedAt,
	}
	r.Profile.Apply(u)
	return u
}
