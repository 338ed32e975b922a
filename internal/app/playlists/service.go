// Package playlists manages user playlists and their song membership.
package playlists

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ZaGrayWolf/Treble-MusicPlayingApp/internal/logging"
	"github.com/ZaGrayWolf/Treble-MusicPlayingApp/internal/store"
)

// AddOutcome reports what AddSong did.
type AddOutcome int

const (
	// Failed means the insert could not be attempted or the database errored.
	Failed AddOutcome = iota
	// NoOp means the playlist or song does not exist, or the song is
	// already on the playlist.
	NoOp
	// Inserted means the song was added.
	Inserted
)

func (o AddOutcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case NoOp:
		return "noop"
	default:
		return "failed"
	}
}

var (
	// ErrInvalidInput indicates an empty playlist name.
	ErrInvalidInput = errors.New("playlist name is required")
	// ErrPlaylistExists signals the user already owns a playlist with that name.
	ErrPlaylistExists = store.ErrPlaylistExists
	// ErrCreateFailed covers every other reason the playlist was not created.
	ErrCreateFailed = errors.New("playlist could not be created")
	// ErrLookupFailed means ownership could not be determined.
	ErrLookupFailed = errors.New("playlist lookup failed")
)

// Store captures the persistence needs for playlist workflows.
type Store interface {
	PlaylistExists(ctx context.Context, userID int64, name string) (bool, error)
	PlaylistOwnedBy(ctx context.Context, userID, playlistID int64) (bool, error)
	CreatePlaylist(ctx context.Context, userID int64, name string) (int64, error)
	ListPlaylists(ctx context.Context, userID int64) ([]store.PlaylistSummary, error)
	AddSongToPlaylist(ctx context.Context, playlistID, songID int64) (store.AddSongResult, error)
	RemoveSongFromPlaylist(ctx context.Context, playlistID, songID int64) (bool, error)
	DeletePlaylist(ctx context.Context, userID, playlistID int64) error
}

// Service coordinates playlist-related operations.
type Service interface {
	Exists(ctx context.Context, userID int64, name string) bool
	Owns(ctx context.Context, userID, playlistID int64) (bool, error)
	Create(ctx context.Context, userID int64, name string) (int64, error)
	ListForUser(ctx context.Context, userID int64) []store.PlaylistSummary
	AddSong(ctx context.Context, playlistID, songID int64) AddOutcome
	RemoveSong(ctx context.Context, playlistID, songID int64) bool
	Delete(ctx context.Context, userID, playlistID int64) bool
}

type service struct {
	store  Store
	logger zerolog.Logger
}

// New constructs a Service backed by the provided Store.
func New(store Store, logger zerolog.Logger) Service {
	return &service{store: store, logger: logger.With().Str("component", "playlists").Logger()}
}

func (s *service) Exists(ctx context.Context, userID int64, name string) bool {
	exists, err := s.store.PlaylistExists(ctx, userID, strings.TrimSpace(name))
	if err != nil {
		s.fail(ctx, "exists", err)
		return false
	}
	return exists
}

// Owns reports whether playlistID belongs to userID. Store failures are
// logged and surface as ErrLookupFailed rather than as a missing playlist.
func (s *service) Owns(ctx context.Context, userID, playlistID int64) (bool, error) {
	owned, err := s.store.PlaylistOwnedBy(ctx, userID, playlistID)
	if err != nil {
		s.fail(ctx, "owns", err)
		return false, ErrLookupFailed
	}
	return owned, nil
}

func (s *service) Create(ctx context.Context, userID int64, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, ErrInvalidInput
	}

	playlistID, err := s.store.CreatePlaylist(ctx, userID, name)
	if err != nil {
		if errors.Is(err, store.ErrPlaylistExists) {
			return 0, ErrPlaylistExists
		}
		s.fail(ctx, "create", err)
		return 0, ErrCreateFailed
	}
	return playlistID, nil
}

func (s *service) ListForUser(ctx context.Context, userID int64) []store.PlaylistSummary {
	playlists, err := s.store.ListPlaylists(ctx, userID)
	if err != nil {
		s.fail(ctx, "list", err)
		return nil
	}
	return playlists
}

func (s *service) AddSong(ctx context.Context, playlistID, songID int64) AddOutcome {
	if err := ctx.Err(); err != nil {
		return Failed
	}
	result, err := s.store.AddSongToPlaylist(ctx, playlistID, songID)
	if err != nil {
		s.fail(ctx, "add_song", err)
		return Failed
	}
	if result == store.AddSongInserted {
		return Inserted
	}
	return NoOp
}

func (s *service) RemoveSong(ctx context.Context, playlistID, songID int64) bool {
	removed, err := s.store.RemoveSongFromPlaylist(ctx, playlistID, songID)
	if err != nil {
		s.fail(ctx, "remove_song", err)
		return false
	}
	return removed
}

// Delete removes a playlist owned by userID together with its memberships.
func (s *service) Delete(ctx context.Context, userID, playlistID int64) bool {
	if err := s.store.DeletePlaylist(ctx, userID, playlistID); err != nil {
		if !errors.Is(err, store.ErrPlaylistNotFound) {
			s.fail(ctx, "delete", err)
		}
		return false
	}
	return true
}

func (s *service) fail(ctx context.Context, op string, err error) {
	logging.FromContext(ctx, s.logger).Error().Err(err).Str("op", op).Msg("playlist operation failed")
}
