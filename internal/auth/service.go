package auth

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/leavedesk/leavedesk/internal/shared"
)

// Service verifies the single admin credential, a bcrypt password hash
// held in configuration.
type Service struct {
	passwordHash string
}

// NewService constructs a new Service.
func NewService(passwordHash string) *Service {
	return &Service{passwordHash: passwordHash}
}

// Authenticate validates the admin password.
func (s *Service) Authenticate(password string) error {
	if s.passwordHash == "" || password == "" {
		return shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)); err != nil {
		return shared.ErrInvalidCredentials
	}
	return nil
}
