package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/example/glamup-shop-verse/domain/apperr"
	domain "github.com/example/glamup-shop-verse/domain/user"
	"github.com/example/glamup-shop-verse/pkg/database"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	kvjetstream "github.com/go-monolith/mono/plugin/kv-jetstream"
	"gorm.io/gorm"
)

// SessionsBucket is the kv-jetstream bucket holding refresh sessions.
const SessionsBucket = "sessions"

// Config configures the auth module.
type Config struct {
	Database    database.Config
	JWT         JWTConfig
	BcryptCost  int
	AdminEmails []string
}

// AuthModule provides authentication services.
type AuthModule struct {
	config   Config
	db       *gorm.DB
	kv       *kvjetstream.PluginModule
	sessions SessionStore
	service  *AuthService
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*AuthModule)(nil)
	_ mono.ServiceProviderModule = (*AuthModule)(nil)
	_ mono.HealthCheckableModule = (*AuthModule)(nil)
	_ mono.UsePluginModule       = (*AuthModule)(nil)
)

// NewModule creates a new AuthModule.
func NewModule(config Config) *AuthModule {
	return &AuthModule{config: config}
}

// Name returns the module name.
func (m *AuthModule) Name() string {
	return "auth"
}

// SetPlugin receives the kv plugin that stores refresh sessions.
func (m *AuthModule) SetPlugin(alias string, plugin mono.PluginModule) {
	if alias != "kv" {
		return
	}
	kv, ok := plugin.(*kvjetstream.PluginModule)
	if !ok {
		log.Printf("[auth] Invalid plugin type for alias %q", alias)
		return
	}
	m.kv = kv
}

// Start opens the database and wires the service.
func (m *AuthModule) Start(_ context.Context) error {
	if m.sessions == nil {
		if m.kv == nil {
			return fmt.Errorf("required plugin 'kv' not registered")
		}
		bucket := m.kv.Bucket(SessionsBucket)
		if bucket == nil {
			return fmt.Errorf("bucket '%s' not found in kv plugin", SessionsBucket)
		}
		m.sessions = NewKVSessionStore(bucket)
	}

	db, err := database.Open(m.config.Database)
	if err != nil {
		return err
	}
	m.db = db

	repo := NewUserRepository(db)
	if err := repo.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	m.service = NewAuthService(
		repo,
		NewPasswordHasher(m.config.BcryptCost),
		NewJWTManager(m.config.JWT),
		m.sessions,
		m.config.AdminEmails,
	)

	log.Printf("[auth] Module started (database: %s, admins: %d)", database.Describe(m.config.Database), len(m.config.AdminEmails))
	return nil
}

// Stop shuts down the module.
func (m *AuthModule) Stop(_ context.Context) error {
	if err := database.Close(m.db); err != nil {
		log.Printf("[auth] Error closing database: %v", err)
	}
	log.Println("[auth] Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *AuthModule) Health(_ context.Context) mono.HealthStatus {
	if err := database.Ping(m.db); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: err.Error(),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"database": database.Describe(m.config.Database),
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *AuthModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(container, "register", json.Unmarshal, json.Marshal, m.handleRegister); err != nil {
		return fmt.Errorf("failed to register register service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(container, "login", json.Unmarshal, json.Marshal, m.handleLogin); err != nil {
		return fmt.Errorf("failed to register login service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(container, "refresh-token", json.Unmarshal, json.Marshal, m.handleRefresh); err != nil {
		return fmt.Errorf("failed to register refresh-token service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(container, "logout", json.Unmarshal, json.Marshal, m.handleLogout); err != nil {
		return fmt.Errorf("failed to register logout service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(container, "validate-token", json.Unmarshal, json.Marshal, m.handleValidateToken); err != nil {
		return fmt.Errorf("failed to register validate-token service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(container, "get-user", json.Unmarshal, json.Marshal, m.handleGetUser); err != nil {
		return fmt.Errorf("failed to register get-user service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(container, "update-profile", json.Unmarshal, json.Marshal, m.handleUpdateProfile); err != nil {
		return fmt.Errorf("failed to register update-profile service: %w", err)
	}

	log.Printf("[auth] Registered services: register, login, refresh-token, logout, validate-token, get-user, update-profile")
	return nil
}

// errorFields logs unexpected failures and encodes err for the wire.
func errorFields(op string, err error) (string, string) {
	if kind := apperr.KindOf(err); kind == apperr.KindInternal || kind == apperr.KindExternalService {
		log.Printf("[auth] %s failed: %v", op, err)
	}
	return apperr.ToCode(err)
}

func (m *AuthModule) handleRegister(ctx context.Context, req RegisterRequest, _ *mono.Msg) (UserResponse, error) {
	user, err := m.service.Register(ctx, req.Email, req.Password, req.Profile)
	if err != nil {
		var resp UserResponse
		resp.ErrorCode, resp.Error = errorFields("register", err)
		return resp, nil
	}
	return toUserResponse(user), nil
}

func (m *AuthModule) handleLogin(ctx context.Context, req LoginRequest, _ *mono.Msg) (TokenResponse, error) {
	tokens, err := m.service.Login(ctx, req.Email, req.Password)
	return tokenResponse("login", tokens, err), nil
}

func (m *AuthModule) handleRefresh(ctx context.Context, req RefreshRequest, _ *mono.Msg) (TokenResponse, error) {
	tokens, err := m.service.RefreshTokens(ctx, req.RefreshToken)
	return tokenResponse("refresh-token", tokens, err), nil
}

func tokenResponse(op string, tokens *domain.TokenPair, err error) TokenResponse {
	if err != nil {
		var resp TokenResponse
		resp.ErrorCode, resp.Error = errorFields(op, err)
		return resp
	}
	return TokenResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresIn:    tokens.ExpiresIn,
		TokenType:    tokens.TokenType,
	}
}

func (m *AuthModule) handleLogout(ctx context.Context, req RefreshRequest, _ *mono.Msg) (AckResponse, error) {
	if err := m.service.Logout(ctx, req.RefreshToken); err != nil {
		var resp AckResponse
		resp.ErrorCode, resp.Error = errorFields("logout", err)
		return resp, nil
	}
	return AckResponse{OK: true}, nil
}

func (m *AuthModule) handleValidateToken(ctx context.Context, req ValidateTokenRequest, _ *mono.Msg) (ValidateTokenResponse, error) {
	claims, err := m.service.ValidateToken(ctx, req.Token)
	if err != nil {
		errMsg := "invalid token"
		if errors.Is(err, ErrExpiredToken) {
			errMsg = "token expired"
		}
		// validation failures are a response, not an error
		return ValidateTokenResponse{Valid: false, Error: errMsg}, nil
	}

	return ValidateTokenResponse{
		Valid:  true,
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}

func (m *AuthModule) handleGetUser(ctx context.Context, req GetUserRequest, _ *mono.Msg) (UserResponse, error) {
	user, err := m.service.GetUser(ctx, req.UserID)
	if err != nil {
		var resp UserResponse
		resp.ErrorCode, resp.Error = errorFields("get-user", err)
		return resp, nil
	}
	return toUserResponse(user), nil
}

func (m *AuthModule) handleUpdateProfile(ctx context.Context, req UpdateProfileRequest, _ *mono.Msg) (UserResponse, error) {
	user, err := m.service.UpdateProfile(ctx, req.UserID, req.Profile)
	if err != nil {
		var resp UserResponse
		resp.ErrorCode, resp.Error = errorFields("update-profile", err)
		return resp, nil
	}
	return toUserResponse(user), nil
}
