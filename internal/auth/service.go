package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/beesmart/beesmart/internal/config"
	"github.com/beesmart/beesmart/internal/database"
	"github.com/beesmart/beesmart/internal/entities"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNameRequired       = errors.New("name is required")
	ErrEmailRequired      = errors.New("email is required")
	ErrPasswordRequired   = errors.New("password is required")
	ErrEmailInvalid       = errors.New("invalid email format")
)

// UserRepository defines the user storage the service needs.
type UserRepository interface {
	CreateUser(ctx context.Context, user *entities.User) error
	GetUserByID(ctx context.Context, id uint) (*entities.User, error)
	GetUserByEmail(ctx context.Context, email string) (*entities.User, error)
	TouchLogin(ctx context.Context, id uint, at time.Time) error
}

// Service handles registration and sign-in.
type Service struct {
	users  UserRepository
	hasher Hasher
	config config.Auth
	log    logrus.FieldLogger
}

// NewService creates a new authentication service.
func NewService(users UserRepository, cfg config.Auth, log logrus.FieldLogger) *Service {
	return &Service{
		users:  users,
		hasher: NewHasher(cfg.BcryptCost),
		config: cfg,
		log:    log.WithField("component", "auth"),
	}
}

// Register creates a password account.
func (s *Service) Register(ctx context.Context, name, email, password string) (*entities.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	switch {
	case name == "":
		return nil, ErrNameRequired
	case email == "":
		return nil, ErrEmailRequired
	case password == "":
		return nil, ErrPasswordRequired
	}
	// RFC 5321 caps addresses at 254 characters
	if len(email) > 254 || !emailPattern.MatchString(email) {
		return nil, ErrEmailInvalid
	}
	if strings.EqualFold(email, entities.GuestEmail) {
		return nil, ErrUserExists
	}

	existing, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &entities.User{Name: name, Email: email, PasswordHash: hash}
	if err := s.users.CreateUser(ctx, user); err != nil {
		// Lost a race with a concurrent registration.
		if errors.Is(database.Wrap("create", "user", 0, err), database.ErrConstraint) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.WithField("user_id", user.ID).Info("user registered")
	return user, nil
}

// Authenticate validates credentials and returns the user. The guest
// account has no password and can never sign in this way.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*entities.User, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil || user.IsGuest {
		return nil, ErrInvalidCredentials
	}

	if err := s.hasher.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, ErrInvalidPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	s.touch(ctx, user)
	return user, nil
}

// Guest returns the shared guest account, creating it on first use.
func (s *Service) Guest(ctx context.Context) (*entities.User, error) {
	user, err := s.users.GetUserByEmail(ctx, entities.GuestEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to find guest: %w", err)
	}
	if user == nil {
		user = &entities.User{Name: entities.GuestDisplayName, Email: entities.GuestEmail, IsGuest: true}
		if err := s.users.CreateUser(ctx, user); err != nil {
			// Another request created it first.
			if again, findErr := s.users.GetUserByEmail(ctx, entities.GuestEmail); findErr == nil && again != nil {
				user = again
			} else {
				return nil, fmt.Errorf("failed to create guest: %w", err)
			}
		}
	}

	s.touch(ctx, user)
	return user, nil
}

func (s *Service) touch(ctx context.Context, user *entities.User) {
	now := time.Now()
	if err := s.users.TouchLogin(ctx, user.ID, now); err != nil {
		s.log.WithError(err).WithField("user_id", user.ID).Warn("failed to record login")
		return
	}
	user.LastLoginAt = &now
}

// GetUserByID retrieves a user by their ID.
func (s *Service) GetUserByID(ctx context.Context, id uint) (*entities.User, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// IsAuthEnabled returns true if authentication is required.
func (s *Service) IsAuthEnabled() bool {
	return s.config.Mode == config.AuthModeLocal
}

// GetAuthMode returns the current authentication mode.
func (s *Service) GetAuthMode() config.AuthMode {
	return s.config.Mode
}
