// Package catalog serves read access to songs and genres and accepts bulk
// song batches. Store failures are logged and reported as empty results.
package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ZaGrayWolf/Treble-MusicPlayingApp/internal/logging"
	"github.com/ZaGrayWolf/Treble-MusicPlayingApp/internal/store"
)

// Store captures the persistence needs for catalog workflows.
type Store interface {
	ListSongs(ctx context.Context, search string) ([]store.Song, error)
	SearchSongs(ctx context.Context, query, genre string) ([]store.Song, error)
	SongTitles(ctx context.Context) ([]store.SongTitle, error)
	SongIDByTitle(ctx context.Context, title string) (int64, int, error)
	TopSongs(ctx context.Context, limit int) ([]store.Song, error)
	RecentSongs(ctx context.Context, limit int) ([]store.Song, error)
	Genres(ctx context.Context) ([]string, error)
	InsertSongs(ctx context.Context, records []store.SongRecord) error
}

// Service coordinates catalog reads and ingestion.
type Service interface {
	List(ctx context.Context, search string) []store.Song
	Search(ctx context.Context, query, genre string) []store.Song
	Titles(ctx context.Context) []store.SongTitle
	ResolveIDByTitle(ctx context.Context, title string) (int64, bool)
	Top(ctx context.Context, limit int) []store.Song
	Recent(ctx context.Context, limit int) []store.Song
	Genres(ctx context.Context) []string
	BatchInsert(ctx context.Context, records []store.SongRecord) bool
}

type service struct {
	store  Store
	logger zerolog.Logger
}

// New constructs a Service backed by the provided Store.
func New(store Store, logger zerolog.Logger) Service {
	return &service{store: store, logger: logger.With().Str("component", "catalog").Logger()}
}

func (s *service) List(ctx context.Context, search string) []store.Song {
	songs, err := s.store.ListSongs(ctx, strings.TrimSpace(search))
	if err != nil {
		s.fail(ctx, "list", err)
		return nil
	}
	return songs
}

func (s *service) Search(ctx context.Context, query, genre string) []store.Song {
	songs, err := s.store.SearchSongs(ctx, strings.TrimSpace(query), strings.TrimSpace(genre))
	if err != nil {
		s.fail(ctx, "search", err)
		return nil
	}
	return songs
}

func (s *service) Titles(ctx context.Context) []store.SongTitle {
	titles, err := s.store.SongTitles(ctx)
	if err != nil {
		s.fail(ctx, "titles", err)
		return nil
	}
	return titles
}

// ResolveIDByTitle maps an exact title to a song id. Duplicate titles
// resolve to the oldest song.
func (s *service) ResolveIDByTitle(ctx context.Context, title string) (int64, bool) {
	id, matches, err := s.store.SongIDByTitle(ctx, title)
	if err != nil {
		if !errors.Is(err, store.ErrSongNotFound) {
			s.fail(ctx, "resolve_title", err)
		}
		return 0, false
	}
	if matches > 1 {
		logging.FromContext(ctx, s.logger).Warn().
			Str("title", title).
			Int("matches", matches).
			Int64("song_id", id).
			Msg("song title is ambiguous")
	}
	return id, true
}

func (s *service) Top(ctx context.Context, limit int) []store.Song {
	songs, err := s.store.TopSongs(ctx, limit)
	if err != nil {
		s.fail(ctx, "top", err)
		return nil
	}
	return songs
}

func (s *service) Recent(ctx context.Context, limit int) []store.Song {
	songs, err := s.store.RecentSongs(ctx, limit)
	if err != nil {
		s.fail(ctx, "recent", err)
		return nil
	}
	return songs
}

func (s *service) Genres(ctx context.Context) []string {
	genres, err := s.store.Genres(ctx)
	if err != nil {
		s.fail(ctx, "genres", err)
		return nil
	}
	return genres
}

// BatchInsert stores all records or none of them.
func (s *service) BatchInsert(ctx context.Context, records []store.SongRecord) bool {
	if err := s.store.InsertSongs(ctx, records); err != nil {
		s.fail(ctx, "batch_insert", err)
		return false
	}
	if len(records) > 0 {
		logging.FromContext(ctx, s.logger).Info().Int("songs", len(records)).Msg("song batch inserted")
	}
	return true
}

func (s *service) fail(ctx context.Context, op string, err error) {
	logging.FromContext(ctx, s.logger).Error().Err(err).Str("op", op).Msg("catalog operation failed")
}
