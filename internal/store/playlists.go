package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PlaylistSummary is a playlist as listed for its owner.
type PlaylistSummary struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	SongCount int    `json:"songCount"`
}

// AddSongResult describes what a guarded membership insert did.
type AddSongResult int

const (
	// AddSongNoOp means nothing was inserted: the playlist or the song does
	// not exist, or the song is already a member.
	AddSongNoOp AddSongResult = iota
	// AddSongInserted means a new membership row was written.
	AddSongInserted
)

// PlaylistExists reports whether the user owns a playlist with that name.
func (s *Store) PlaylistExists(ctx context.Context, userID int64, name string) (bool, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM playlists WHERE user_id = $1 AND name = $2)
	`, userID, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("check playlist: %w", err)
	}
	return exists, nil
}

// PlaylistOwnedBy reports whether playlistID exists and belongs to userID.
func (s *Store) PlaylistOwnedBy(ctx context.Context, userID, playlistID int64) (bool, error) {
	var owned bool
	if err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM playlists WHERE playlist_id = $1 AND user_id = $2)
	`, playlistID, userID).Scan(&owned); err != nil {
		return false, fmt.Errorf("check playlist owner: %w", err)
	}
	return owned, nil
}

// CreatePlaylist inserts a playlist unless the user already owns one with
// that name, in which case it returns ErrPlaylistExists.
func (s *Store) CreatePlaylist(ctx context.Context, userID int64, name string) (int64, error) {
	var playlistID int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO playlists (user_id, name)
		VALUES ($1, $2)
		ON CONFLICT (user_id, name) DO NOTHING
		RETURNING playlist_id
	`, userID, name).Scan(&playlistID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows), isUniqueViolation(err):
			return 0, ErrPlaylistExists
		case isForeignKeyViolation(err):
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("insert playlist: %w", err)
	}
	return playlistID, nil
}

// ListPlaylists returns the user's playlists with their song counts.
func (s *Store) ListPlaylists(ctx context.Context, userID int64) ([]PlaylistSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.playlist_id, p.name,
		       (SELECT COUNT(*) FROM playlist_songs ps WHERE ps.playlist_id = p.playlist_id)
		FROM playlists p
		WHERE p.user_id = $1
		ORDER BY p.playlist_id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list playlists: %w", err)
	}
	defer rows.Close()

	var playlists []PlaylistSummary
	for rows.Next() {
		var playlist PlaylistSummary
		if err := rows.Scan(&playlist.ID, &playlist.Name, &playlist.SongCount); err != nil {
			return nil, fmt.Errorf("scan playlist: %w", err)
		}
		playlists = append(playlists, playlist)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playlists: %w", err)
	}
	return playlists, nil
}

// AddSongToPlaylist links a song to a playlist only when both exist and the
// link is new. Missing references are not an error.
func (s *Store) AddSongToPlaylist(ctx context.Context, playlistID, songID int64) (AddSongResult, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO playlist_songs (playlist_id, song_id)
		SELECT $1::BIGINT, $2::BIGINT
		WHERE EXISTS (SELECT 1 FROM playlists WHERE playlist_id = $1)
		  AND EXISTS (SELECT 1 FROM songs WHERE song_id = $2)
		ON CONFLICT (playlist_id, song_id) DO NOTHING
	`, playlistID, songID)
	if err != nil {
		return AddSongNoOp, fmt.Errorf("insert playlist song: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return AddSongNoOp, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return AddSongNoOp, nil
	}
	return AddSongInserted, nil
}

// RemoveSongFromPlaylist unlinks a song. It reports whether a link existed.
func (s *Store) RemoveSongFromPlaylist(ctx context.Context, playlistID, songID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM playlist_songs
		WHERE playlist_id = $1 AND song_id = $2
	`, playlistID, songID)
	if err != nil {
		return false, fmt.Errorf("delete playlist song: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// DeletePlaylist removes one of the user's playlists and its memberships.
func (s *Store) DeletePlaylist(ctx context.Context, userID, playlistID int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM playlist_songs
			WHERE playlist_id IN (SELECT playlist_id FROM playlists WHERE playlist_id = $1 AND user_id = $2)
		`, playlistID, userID); err != nil {
			return fmt.Errorf("delete playlist songs: %w", err)
		}

		res, err := tx.ExecContext(ctx, `
			DELETE FROM playlists
			WHERE playlist_id = $1 AND user_id = $2
		`, playlistID, userID)
		if err != nil {
			return fmt.Errorf("delete playlist: %w", err)
		}
		return requireAffected(res, ErrPlaylistNotFound)
	})
}
