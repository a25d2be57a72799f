package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"slices"
	"strings"
	"time"

	"github.com/example/glamup-shop-verse/domain/apperr"
	domain "github.com/example/glamup-shop-verse/domain/user"
	"github.com/google/uuid"
)

var (
	// ErrInvalidCredentials is returned when login credentials are invalid.
	ErrInvalidCredentials = apperr.Unauthorized("invalid email or password")
	// ErrInvalidEmail is returned when email format is invalid.
	ErrInvalidEmail = apperr.Validation("invalid email format")
	// ErrNameRequired is returned when registration carries no name.
	ErrNameRequired = apperr.Validation("name is required")
	// ErrWeakPassword is returned when password is too weak.
	ErrWeakPassword = apperr.Validation("password must be at least 8 characters")
	// ErrPasswordTooLong is returned when password exceeds bcrypt's 72-byte limit.
	ErrPasswordTooLong = apperr.Validation("password must be at most 72 characters")
	// ErrInvalidAge is returned for a negative age or budget.
	ErrInvalidAge = apperr.Validation("age and budget must not be negative")
	// ErrSessionRevoked is returned when a refresh token's session is gone.
	ErrSessionRevoked = apperr.Unauthorized("session expired or revoked")
)

// AuthService handles authentication business logic.
type AuthService struct {
	repo        *UserRepository
	hasher      *PasswordHasher
	jwt         *JWTManager
	sessions    SessionStore
	adminEmails []string
	now         func() time.Time
}

// NewAuthService creates a new AuthService. Accounts registered with an
// email in adminEmails receive the admin role.
func NewAuthService(repo *UserRepository, hasher *PasswordHasher, jwt *JWTManager, sessions SessionStore, adminEmails []string) *AuthService {
	normalized := make([]string, 0, len(adminEmails))
	for _, e := range adminEmails {
		if e = normalizeEmail(e); e != "" {
			normalized = append(normalized, e)
		}
	}
	return &AuthService{
		repo:        repo,
		hasher:      hasher,
		jwt:         jwt,
		sessions:    sessions,
		adminEmails: normalized,
		now:         time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateProfile(p domain.Profile) error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrNameRequired
	}
	if p.Age < 0 || p.Budget < 0 {
		return ErrInvalidAge
	}
	return nil
}

// Register creates a new account.
func (s *AuthService) Register(ctx context.Context, email, password string, profile domain.Profile) (*domain.User, error) {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if err := validateProfile(profile); err != nil {
		return nil, err
	}

	// bcrypt has a 72-byte limit
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}
	if len(password) > 72 {
		return nil, ErrPasswordTooLong
	}

	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role := domain.RoleUser
	if slices.Contains(s.adminEmails, email) {
		role = domain.RoleAdmin
	}

	now := s.now()
	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	profile.Apply(user)

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("[auth] Registered user %s (role: %s)", user.ID, user.Role)
	return user, nil
}

// Login authenticates a user and opens a refresh session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.TokenPair, error) {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.openSession(user)
}

// RefreshTokens rotates a refresh token: the presented session is consumed
// and a new one is opened.
func (s *AuthService) RefreshTokens(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.Get(claims.ID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, ErrSessionRevoked
		}
		return nil, apperr.External("session store unavailable", err)
	}
	if session.UserID != claims.UserID {
		return nil, ErrInvalidToken
	}

	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := s.sessions.Delete(claims.ID); err != nil {
		return nil, apperr.External("session store unavailable", err)
	}
	return s.openSession(user)
}

// Logout revokes the session behind refreshToken. Logging out twice succeeds.
func (s *AuthService) Logout(_ context.Context, refreshToken string) error {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		if errors.Is(err, ErrExpiredToken) {
			return nil
		}
		return err
	}
	if err := s.sessions.Delete(claims.ID); err != nil {
		return apperr.External("session store unavailable", err)
	}
	return nil
}

// ValidateToken validates an access token and returns claims.
func (s *AuthService) ValidateToken(_ context.Context, token string) (*domain.Claims, error) {
	claims, err := s.jwt.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}

	return &domain.Claims{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.FindByID(ctx, userID)
}

// UpdateProfile replaces the profile fields of userID.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, profile domain.Profile) (*domain.User, error) {
	if err := validateProfile(profile); err != nil {
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile.Apply(user)
	user.UpdatedAt = s.now()
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// openSession stores a new refresh session and issues its token pair.
func (s *AuthService) openSession(user *domain.User) (*domain.TokenPair, error) {
	sessionID := uuid.New().String()
	if err := s.sessions.Put(sessionID, Session{UserID: user.ID, IssuedAt: s.now()}, s.jwt.RefreshTokenDuration()); err != nil {
		return nil, apperr.External("session store unavailable", err)
	}

	accessToken, err := s.jwt.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwt.GenerateRefreshToken(user.ID, user.Email, user.Role, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    s.jwt.AccessTokenDuration(),
		TokenType:    "Bearer",
	}, nil
}
