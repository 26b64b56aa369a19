package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ilepins/userauth/internal/cryptox"
	"github.com/ilepins/userauth/internal/logging"
	"github.com/ilepins/userauth/internal/server/config"
	"github.com/ilepins/userauth/internal/shared"
)

const defaultListLimit = 50

// Service orchestrates registration, login, and profile operations against a
// Repository. It is stateless: besides the store reference and policy
// constants it holds no cross-call state, so concurrent calls only interact
// through the store itself.
type Service struct {
	repo             Repository
	logger           logging.Logger
	maxLoginAttempts int
	lockoutDuration  time.Duration
}

func NewService(repo Repository, logger logging.Logger, cfg *config.Config) *Service {
	return &Service{
		repo:             repo,
		logger:           logger.With("component", "users"),
		maxLoginAttempts: cfg.MaxLoginAttempts,
		lockoutDuration:  cfg.LockoutDuration,
	}
}

// storageErr wraps an unexpected repository fault so callers can match it
// with errors.Is(err, shared.ErrStorageUnavailable).
func storageErr(err error) error {
	return fmt.Errorf("%w: %v", shared.ErrStorageUnavailable, err)
}

// Register validates input, hashes the password with a fresh salt, and
// persists the new record. The username collision is ultimately decided by
// the store's uniqueness constraint, so racing registrations resolve to a
// deterministic shared.ErrAlreadyExists for the loser.
func (s *Service) Register(ctx context.Context, username, password, email string) (*PublicUser, error) {

	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if email != "" {
		if err := validateEmail(email); err != nil {
			return nil, err
		}
	}

	exists, err := s.repo.Exists(ctx, username)
	if err != nil {
		return nil, storageErr(err)
	}
	if exists {
		return nil, fmt.Errorf("%w: user already exists", shared.ErrAlreadyExists)
	}

	salt, err := cryptox.NewSalt()
	if err != nil {
		return nil, storageErr(err)
	}

	user := &User{
		Username:     username,
		PasswordHash: cryptox.HashPassword(password, salt),
		Salt:         salt,
		Email:        email,
	}

	user, err = s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, fmt.Errorf("%w: user already exists", shared.ErrAlreadyExists)
		}
		return nil, storageErr(err)
	}

	s.logger.Info(ctx, "user registered", "username", username)
	return user.Public(), nil
}

// Login verifies credentials and performs the lockout bookkeeping.
//
// Per-account attempt state machine: N consecutive failures lock the account
// for the configured duration; while locked no credential check is performed;
// once the lock expires the next attempt is evaluated normally; success
// resets the counter and stamps last_login.
func (s *Service) Login(ctx context.Context, username, password string) (*PublicUser, error) {

	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", shared.ErrInvalidInput)
	}

	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrUserNotFound
		}
		return nil, storageErr(err)
	}

	if user.Locked(time.Now()) {
		s.logger.Warn(ctx, "login attempt on locked account", "username", username)
		return nil, shared.ErrAccountLocked
	}

	if !cryptox.VerifyPassword(password, user.Salt, user.PasswordHash) {
		attempts, ferr := s.repo.RecordLoginFailure(ctx, user.ID, s.maxLoginAttempts, s.lockoutDuration)
		if ferr != nil {
			return nil, storageErr(ferr)
		}
		s.logger.Warn(ctx, "failed login attempt", "username", username, "attempts", attempts)
		return nil, shared.ErrInvalidCredentials
	}

	if err := s.repo.RecordLoginSuccess(ctx, user.ID); err != nil {
		return nil, storageErr(err)
	}

	s.logger.Info(ctx, "login successful", "username", username)
	return user.Public(), nil
}

// GetPublicProfile returns the non-secret projection for a username.
func (s *Service) GetPublicProfile(ctx context.Context, username string) (*PublicUser, error) {

	if err := validateUsername(username); err != nil {
		return nil, err
	}

	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrUserNotFound
		}
		return nil, storageErr(err)
	}

	return user.Public(), nil
}

// ChangePassword re-hashes with a fresh salt after verifying the current
// password. The old salt is never reused.
func (s *Service) ChangePassword(ctx context.Context, username, current, replacement string) error {

	if err := validatePassword(replacement); err != nil {
		return err
	}

	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.ErrUserNotFound
		}
		return storageErr(err)
	}

	if !cryptox.VerifyPassword(current, user.Salt, user.PasswordHash) {
		return shared.ErrInvalidCredentials
	}

	salt, err := cryptox.NewSalt()
	if err != nil {
		return storageErr(err)
	}
	hash := cryptox.HashPassword(replacement, salt)

	if err := s.repo.Update(ctx, user.ID, Update{PasswordHash: &hash, Salt: &salt}); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.ErrUserNotFound
		}
		return storageErr(err)
	}

	s.logger.Info(ctx, "password changed", "username", username)
	return nil
}

// UpdateEmail replaces the stored email address.
func (s *Service) UpdateEmail(ctx context.Context, username, email string) (*PublicUser, error) {

	if email != "" {
		if err := validateEmail(email); err != nil {
			return nil, err
		}
	}

	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrUserNotFound
		}
		return nil, storageErr(err)
	}

	if err := s.repo.Update(ctx, user.ID, Update{Email: &email}); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, fmt.Errorf("%w: email already in use", shared.ErrAlreadyExists)
		}
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrUserNotFound
		}
		return nil, storageErr(err)
	}

	user.Email = email
	return user.Public(), nil
}

// DeleteUser removes the account unconditionally.
func (s *Service) DeleteUser(ctx context.Context, username string) error {

	if err := validateUsername(username); err != nil {
		return err
	}

	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.ErrUserNotFound
		}
		return storageErr(err)
	}

	if err := s.repo.Delete(ctx, user.ID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.ErrUserNotFound
		}
		return storageErr(err)
	}

	s.logger.Info(ctx, "user deleted", "username", username)
	return nil
}

// ListUsers returns public projections, newest first.
func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]PublicUser, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	list, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, storageErr(err)
	}
	return list, nil
}

// CountUsers returns the total number of registered users.
func (s *Service) CountUsers(ctx context.Context) (int64, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, storageErr(err)
	}
	return n, nil
}
