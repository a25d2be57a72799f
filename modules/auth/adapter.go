package auth

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/glamup-shop-verse/domain/apperr"
	domain "github.com/example/glamup-shop-verse/domain/user"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// AuthPort is the interface other modules use to reach authentication.
type AuthPort interface {
	Register(ctx context.Context, email, password string, profile domain.Profile) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	ValidateToken(ctx context.Context, token string) (*domain.Claims, error)
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, profile domain.Profile) (*domain.User, error)
}

// AuthAdapter implements AuthPort using the service container.
type AuthAdapter struct {
	container mono.ServiceContainer
}

var _ AuthPort = (*AuthAdapter)(nil)

// NewAuthAdapter creates a new AuthAdapter.
func NewAuthAdapter(container mono.ServiceContainer) *AuthAdapter {
	return &AuthAdapter{container: container}
}

func (a *AuthAdapter) call(ctx context.Context, service string, req, resp any) error {
	if err := helper.CallRequestReplyService(ctx, a.container, service, json.Marshal, json.Unmarshal, req, resp); err != nil {
		return apperr.External(service+" request failed", err)
	}
	return nil
}

// Register creates an account.
func (a *AuthAdapter) Register(ctx context.Context, email, password string, profile domain.Profile) (*domain.User, error) {
	req := RegisterRequest{Email: email, Password: password, Profile: profile}
	var resp UserResponse
	if err := a.call(ctx, "register", &req, &resp); err != nil {
		return nil, err
	}
	if err := apperr.FromCode(resp.ErrorCode, resp.Error); err != nil {
		return nil, err
	}
	return fromUserResponse(resp), nil
}

// Login exchanges credentials for a token pair.
func (a *AuthAdapter) Login(ctx context.Context, email, password string) (*domain.TokenPair, error) {
	req := LoginRequest{Email: email, Password: password}
	var resp TokenResponse
	if err := a.call(ctx, "login", &req, &resp); err != nil {
		return nil, err
	}
	return tokenPair(resp)
}

// Refresh rotates a refresh token.
func (a *AuthAdapter) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	req := RefreshRequest{RefreshToken: refreshToken}
	var resp TokenResponse
	if err := a.call(ctx, "refresh-token", &req, &resp); err != nil {
		return nil, err
	}
	return tokenPair(resp)
}

func tokenPair(resp TokenResponse) (*domain.TokenPair, error) {
	if err := apperr.FromCode(resp.ErrorCode, resp.Error); err != nil {
		return nil, err
	}
	return &domain.TokenPair{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
		TokenType:    resp.TokenType,
	}, nil
}

// Logout revokes a refresh session.
func (a *AuthAdapter) Logout(ctx context.Context, refreshToken string) error {
	req := RefreshRequest{RefreshToken: refreshToken}
	var resp AckResponse
	if err := a.call(ctx, "logout", &req, &resp); err != nil {
		return err
	}
	return apperr.FromCode(resp.ErrorCode, resp.Error)
}

// ValidateToken validates an access token and returns claims.
func (a *AuthAdapter) ValidateToken(ctx context.Context, token string) (*domain.Claims, error) {
	req := ValidateTokenRequest{Token: token}
	var resp ValidateTokenResponse
	if err := a.call(ctx, "validate-token", &req, &resp); err != nil {
		return nil, err
	}

	if !resp.Valid {
		return nil, apperr.Wrap(apperr.KindUnauthorized, "token validation failed", fmt.Errorf("%s", resp.Error))
	}

	return &domain.Claims{
		UserID: resp.UserID,
		Email:  resp.Email,
		Role:   resp.Role,
	}, nil
}

// GetUser retrieves a user by ID.
func (a *AuthAdapter) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	req := GetUserRequest{UserID: userID}
	var resp UserResponse
	if err := a.call(ctx, "get-user", &req, &resp); err != nil {
		return nil, err
	}
	if err := apperr.FromCode(resp.ErrorCode, resp.Error); err != nil {
		return nil, err
	}
	return fromUserResponse(resp), nil
}

// UpdateProfile replaces the profile of userID.
func (a *AuthAdapter) UpdateProfile(ctx context.Context, userID string, profile domain.Profile) (*domain.User, error) {
	req := UpdateProfileRequest{UserID: userID, Profile: profile}
	var resp UserResponse
	if err := a.call(ctx, "update-profile", &req, &resp); err != nil {
		return nil, err
	}
	if err := apperr.FromCode(resp.ErrorCode, resp.Error); err != nil {
		return nil, err
	}
	return fromUserResponse(resp), nil
}
