package service

import (
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/pkg/util"
)

// AuthService authenticates technicians against the read-only
// credential list and issues session tokens.
type AuthService struct {
	technicians []domain.Technician
	tokens      *auth.TokenManager
	logger      *zap.Logger
}

// NewAuthService constructs the service.
func NewAuthService(technicians []domain.Technician, tokens *auth.TokenManager, logger *zap.Logger) *AuthService {
	return &AuthService{technicians: technicians, tokens: tokens, logger: logger}
}

// Login verifies a username and secret and returns a signed token.
func (s *AuthService) Login(username, secret string) (string, time.Time, error) {
	for _, t := range s.technicians {
		if t.Username != username {
			continue
		}
		if err := auth.VerifySecret(t.Secret, secret); err != nil {
			break
		}
		token, expiresAt, err := s.tokens.GenerateToken(username)
		if err != nil {
			return "", time.Time{}, util.NewInternalError(err)
		}
		s.logger.Info("technician logged in", zap.String("username", username))
		return token, expiresAt, nil
	}
	return "", time.Time{}, util.NewUnauthorized("invalid credentials")
}

// TokenManager exposes the manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}
