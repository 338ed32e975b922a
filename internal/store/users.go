package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Tier is a subscription level.
type Tier string

const (
	TierFree    Tier = "Free"
	TierPremium Tier = "Premium"
)

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	return t == TierFree || t == TierPremium
}

// ParseTier accepts a tier name in any letter case.
func ParseTier(raw string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "free":
		return TierFree, nil
	case "premium":
		return TierPremium, nil
	}
	return "", fmt.Errorf("unknown subscription tier %q", raw)
}

// Profile is the public view of an account.
type Profile struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	Tier     Tier      `json:"subscription"`
	JoinDate time.Time `json:"joinDate"`
}

// UserExists reports whether an account with the given name exists.
func (s *Store) UserExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE name = $1)
	`, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("check user: %w", err)
	}
	return exists, nil
}

// CreateUser inserts an account unless the name is taken, in which case it
// returns ErrUserExists. The check and the insert are one statement.
func (s *Store) CreateUser(ctx context.Context, name, credential string, tier Tier) (int64, error) {
	var userID int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (name, password, subscription_type, date_joined)
		VALUES ($1, $2, $3, CURRENT_DATE)
		ON CONFLICT (name) DO NOTHING
		RETURNING user_id
	`, name, credential, string(tier)).Scan(&userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isUniqueViolation(err) {
			return 0, ErrUserExists
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return userID, nil
}

// UserCredential returns the id and stored credential for name.
func (s *Store) UserCredential(ctx context.Context, name string) (int64, string, error) {
	var (
		userID     int64
		credential string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, password
		FROM users
		WHERE name = $1
	`, name).Scan(&userID, &credential)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, "", ErrUserNotFound
		}
		return 0, "", fmt.Errorf("lookup user: %w", err)
	}
	return userID, credential, nil
}

// UserProfile returns the profile of the given account.
func (s *Store) UserProfile(ctx context.Context, userID int64) (Profile, error) {
	profile := Profile{ID: userID}
	var tier string
	err := s.db.QueryRowContext(ctx, `
		SELECT name, subscription_type, date_joined
		FROM users
		WHERE user_id = $1
	`, userID).Scan(&profile.Name, &tier, &profile.JoinDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Profile{}, ErrUserNotFound
		}
		return Profile{}, fmt.Errorf("get profile: %w", err)
	}
	profile.Tier = Tier(tier)
	return profile, nil
}

// UserName returns the display name of the given account.
func (s *Store) UserName(ctx context.Context, userID int64) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx, `
		SELECT name
		FROM users
		WHERE user_id = $1
	`, userID).Scan(&name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("get user name: %w", err)
	}
	return name, nil
}

// UpdatePassword replaces the stored credential.
func (s *Store) UpdatePassword(ctx context.Context, userID int64, credential string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET password = $1
		WHERE user_id = $2
	`, credential, userID)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return requireAffected(res, ErrUserNotFound)
}

// UpdateTier changes the subscription level.
func (s *Store) UpdateTier(ctx context.Context, userID int64, tier Tier) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET subscription_type = $1
		WHERE user_id = $2
	`, string(tier), userID)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	return requireAffected(res, ErrUserNotFound)
}

// DeleteUser removes the account together with its playlists and their
// memberships. Either all three deletes apply or none do.
func (s *Store) DeleteUser(ctx context.Context, userID int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM playlist_songs
			WHERE playlist_id IN (SELECT playlist_id FROM playlists WHERE user_id = $1)
		`, userID); err != nil {
			return fmt.Errorf("delete playlist songs: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			DELETE FROM playlists
			WHERE user_id = $1
		`, userID); err != nil {
			return fmt.Errorf("delete playlists: %w", err)
		}

		res, err := tx.ExecContext(ctx, `
			DELETE FROM users
			WHERE user_id = $1
		`, userID)
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return requireAffected(res, ErrUserNotFound)
	})
}

func requireAffected(res sql.Result, notFound error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
