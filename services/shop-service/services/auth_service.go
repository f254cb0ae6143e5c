package services

import (
	"context"
	"strings"
	"time"

	"github.com/yashrajoria/capture-backend/pkg/docstore"
	"github.com/yashrajoria/capture-backend/services/shop-service/models"
	"go.uber.org/zap"
)

type AuthResult struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        *Identity `json:"user"`
}

type AuthService struct {
	provider    IdentityProvider
	registry    *SessionRegistry
	gateway     docstore.Gateway
	validator   *Validator
	adminEmails map[string]struct{}
	logger      *zap.Logger
}

// NewAuthService grants the admin role at registration to adminEmails.
func NewAuthService(provider IdentityProvider, registry *SessionRegistry, gateway docstore.Gateway, validator *Validator, adminEmails []string, logger *zap.Logger) *AuthService {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		if e = normalizeEmail(e); e != "" {
			admins[e] = struct{}{}
		}
	}
	return &AuthService{
		provider:    provider,
		registry:    registry,
		gateway:     gateway,
		validator:   validator,
		adminEmails: admins,
		logger:      logger,
	}
}

func (s *AuthService) roleFor(email string) string {
	if _, ok := s.adminEmails[normalizeEmail(email)]; ok {
		return models.RoleAdmin
	}
	return models.RoleCustomer
}

// Register creates the account and its users/<uid> profile, then signs in.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*AuthResult, error) {
	if err := s.validator.Struct(ctx, req); err != nil {
		return nil, err
	}

	role := s.roleFor(req.Email)
	user, err := s.provider.CreateUser(ctx, req.Email, req.Password, role)
	if err != nil {
		return nil, err
	}

	profile := models.UserProfile{
		Email:     user.Email,
		Name:      strings.TrimSpace(req.Name),
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.gateway.Set(ctx, docstore.Users, user.UID, profile); err != nil {
		s.logger.Error("Failed to write user profile", zap.String("uid", user.UID), zap.Error(err))
		return nil, remoteErr(err)
	}
	s.logger.Info("User registered", zap.String("uid", user.UID), zap.String("role", role))

	return s.signIn(ctx, req.Email, req.Password)
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*AuthResult, error) {
	if err := s.validator.Struct(ctx, req); err != nil {
		return nil, err
	}
	return s.signIn(ctx, req.Email, req.Password)
}

func (s *AuthService) signIn(ctx context.Context, email, password string) (*AuthResult, error) {
	res, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	identity, err := s.registry.Resolve(ctx, res.AccessToken)
	if err != nil {
		return nil, err
	}
	return &AuthResult{AccessToken: res.AccessToken, ExpiresAt: res.ExpiresAt, User: identity}, nil
}

// Logout ends the session; its holder reports Anonymous and is released.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	err := s.provider.SignOut(ctx, sessionID)
	s.registry.Close(sessionID)
	return err
}
