// Package accounts implements signup, login and profile management on top of
// the store. Store failures never leave this package: they are logged and
// reported as the operation's failure value.
package accounts

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ZaGrayWolf/Treble-MusicPlayingApp/internal/credential"
	"github.com/ZaGrayWolf/Treble-MusicPlayingApp/internal/logging"
	"github.com/ZaGrayWolf/Treble-MusicPlayingApp/internal/store"
)

// PlaceholderName is returned by Name when the account cannot be read.
const PlaceholderName = "User"

var (
	// ErrInvalidInput indicates a missing name or an unknown tier.
	ErrInvalidInput = errors.New("a name and a valid subscription tier are required")
	// ErrWeakPassword indicates the password does not satisfy the policy.
	ErrWeakPassword = errors.New("password must be at least 8 characters and contain a digit and a punctuation character")
	// ErrUserExists signals the username is already taken.
	ErrUserExists = store.ErrUserExists
	// ErrSignupFailed covers every other reason the account was not created.
	ErrSignupFailed = errors.New("signup failed")
	// ErrUserNotFound signals the account no longer exists.
	ErrUserNotFound = store.ErrUserNotFound
	// ErrDeleteFailed covers every other reason the account was not deleted.
	ErrDeleteFailed = errors.New("account could not be deleted")
)

// Store describes the persistence operations required by the account service.
type Store interface {
	UserExists(ctx context.Context, name string) (bool, error)
	CreateUser(ctx context.Context, name, credential string, tier store.Tier) (int64, error)
	UserCredential(ctx context.Context, name string) (int64, string, error)
	UserProfile(ctx context.Context, userID int64) (store.Profile, error)
	UserName(ctx context.Context, userID int64) (string, error)
	UpdatePassword(ctx context.Context, userID int64, credential string) error
	UpdateTier(ctx context.Context, userID int64, tier store.Tier) error
	DeleteUser(ctx context.Context, userID int64) error
}

// Service exposes account workflows.
type Service interface {
	Exists(ctx context.Context, name string) bool
	Signup(ctx context.Context, name, password string, tier store.Tier) (int64, error)
	Login(ctx context.Context, name, password string) (int64, bool)
	Profile(ctx context.Context, userID int64) (store.Profile, bool)
	Name(ctx context.Context, userID int64) string
	ChangePassword(ctx context.Context, userID int64, newPassword string) bool
	UpdateSubscription(ctx context.Context, userID int64, tier store.Tier) bool
	Delete(ctx context.Context, userID int64) error
}

type service struct {
	store  Store
	logger zerolog.Logger
}

// New wires a Service backed by the provided Store.
func New(store Store, logger zerolog.Logger) Service {
	return &service{store: store, logger: logger.With().Str("component", "accounts").Logger()}
}

func (s *service) Exists(ctx context.Context, name string) bool {
	exists, err := s.store.UserExists(ctx, strings.TrimSpace(name))
	if err != nil {
		s.fail(ctx, "exists", err)
		return false
	}
	return exists
}

// Signup creates an account. The name check and the insert happen in one
// statement, so a concurrent signup for the same name yields ErrUserExists.
func (s *service) Signup(ctx context.Context, name, password string, tier store.Tier) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" || !tier.Valid() {
		return 0, ErrInvalidInput
	}
	if !credential.ValidatePolicy(password) {
		return 0, ErrWeakPassword
	}

	hash, err := credential.Hash(password)
	if err != nil {
		s.fail(ctx, "signup", err)
		return 0, ErrSignupFailed
	}

	userID, err := s.store.CreateUser(ctx, name, hash, tier)
	if err != nil {
		if errors.Is(err, store.ErrUserExists) {
			return 0, ErrUserExists
		}
		s.fail(ctx, "signup", err)
		return 0, ErrSignupFailed
	}

	logging.FromContext(ctx, s.logger).Info().Int64("user_id", userID).Msg("account created")
	return userID, nil
}

// Login returns the account id when the credentials match. An unknown name
// and a wrong password are indistinguishable to the caller.
func (s *service) Login(ctx context.Context, name, password string) (int64, bool) {
	userID, stored, err := s.store.UserCredential(ctx, strings.TrimSpace(name))
	if err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			s.fail(ctx, "login", err)
		}
		_ = credential.Verify(credential.DummyHash, password)
		return 0, false
	}

	if !credential.Verify(stored, password) {
		return 0, false
	}

	if credential.IsLegacy(stored) {
		s.upgradeCredential(ctx, userID, password)
	}
	return userID, true
}

func (s *service) upgradeCredential(ctx context.Context, userID int64, password string) {
	hash, err := credential.Hash(password)
	if err == nil {
		err = s.store.UpdatePassword(ctx, userID, hash)
	}
	if err != nil {
		logging.FromContext(ctx, s.logger).Warn().Err(err).Int64("user_id", userID).Msg("legacy credential upgrade failed")
		return
	}
	logging.FromContext(ctx, s.logger).Info().Int64("user_id", userID).Msg("legacy credential upgraded")
}

func (s *service) Profile(ctx context.Context, userID int64) (store.Profile, bool) {
	profile, err := s.store.UserProfile(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			s.fail(ctx, "profile", err)
		}
		return store.Profile{}, false
	}
	return profile, true
}

func (s *service) Name(ctx context.Context, userID int64) string {
	name, err := s.store.UserName(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			s.fail(ctx, "name", err)
		}
		return PlaceholderName
	}
	return name
}

func (s *service) ChangePassword(ctx context.Context, userID int64, newPassword string) bool {
	if !credential.ValidatePolicy(newPassword) {
		return false
	}
	hash, err := credential.Hash(newPassword)
	if err != nil {
		s.fail(ctx, "change_password", err)
		return false
	}
	if err := s.store.UpdatePassword(ctx, userID, hash); err != nil {
		s.fail(ctx, "change_password", err)
		return false
	}
	return true
}

func (s *service) UpdateSubscription(ctx context.Context, userID int64, tier store.Tier) bool {
	if !tier.Valid() {
		return false
	}
	if err := s.store.UpdateTier(ctx, userID, tier); err != nil {
		s.fail(ctx, "update_subscription", err)
		return false
	}
	return true
}

// Delete removes the account with all of its playlists. A missing account
// yields ErrUserNotFound.
func (s *service) Delete(ctx context.Context, userID int64) error {
	if err := s.store.DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return ErrUserNotFound
		}
		s.fail(ctx, "delete", err)
		return ErrDeleteFailed
	}
	logging.FromContext(ctx, s.logger).Info().Int64("user_id", userID).Msg("account deleted")
	return nil
}

func (s *service) fail(ctx context.Context, op string, err error) {
	logging.FromContext(ctx, s.logger).Error().Err(err).Str("op", op).Msg("account operation failed")
}
