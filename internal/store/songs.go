package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Song represents a catalog entry. Optional references are nil when unset.
type Song struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	ArtistID    *int64     `json:"artistId,omitempty"`
	AlbumID     *int64     `json:"albumId,omitempty"`
	GenreID     *int64     `json:"genreId,omitempty"`
	Genre       string     `json:"genre,omitempty"`
	ReleaseDate *time.Time `json:"releaseDate,omitempty"`
	AudioFile   string     `json:"audioFile"`
	Thumbnail   string     `json:"thumbnail,omitempty"`
}

// SongTitle pairs a song id with its title.
type SongTitle struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

const songColumns = `s.song_id, s.title, s.artist_id, s.album_id, s.genre_id, COALESCE(g.genre_name, ''),
		       s.release_date, s.audio_file, COALESCE(s.thumbnail, '')`

// ListSongs returns songs whose title contains search. An empty search
// returns the whole catalog.
func (s *Store) ListSongs(ctx context.Context, search string) ([]Song, error) {
	return s.SearchSongs(ctx, search, "")
}

// SearchSongs returns songs whose title contains query, restricted to the
// named genre when genre is not empty.
func (s *Store) SearchSongs(ctx context.Context, query, genre string) ([]Song, error) {
	stmt := `
		SELECT ` + songColumns + `
		FROM songs s
		LEFT JOIN genres g ON g.genre_id = s.genre_id
		WHERE 1=1`
	args := []interface{}{}
	argIdx := 1

	if query != "" {
		stmt += fmt.Sprintf(` AND s.title ILIKE $%d ESCAPE '\'`, argIdx)
		args = append(args, "%"+escapeLike(query)+"%")
		argIdx++
	}

	if genre != "" {
		stmt += fmt.Sprintf(" AND s.genre_id IN (SELECT genre_id FROM genres WHERE genre_name = $%d)", argIdx)
		args = append(args, genre)
		argIdx++
	}

	stmt += " ORDER BY s.song_id"

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query songs: %w", err)
	}
	return scanSongs(rows)
}

// SongTitles lists the id and title of every song.
func (s *Store) SongTitles(ctx context.Context) ([]SongTitle, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT song_id, title
		FROM songs
		ORDER BY song_id
	`)
	if err != nil {
		return nil, fmt.Errorf("query song titles: %w", err)
	}
	defer rows.Close()

	var titles []SongTitle
	for rows.Next() {
		var title SongTitle
		if err := rows.Scan(&title.ID, &title.Title); err != nil {
			return nil, fmt.Errorf("scan song title: %w", err)
		}
		titles = append(titles, title)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate song titles: %w", err)
	}
	return titles, nil
}

// SongIDByTitle resolves an exact title to a song id. When several songs
// share the title the lowest id wins; matches reports how many there were.
func (s *Store) SongIDByTitle(ctx context.Context, title string) (id int64, matches int, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT song_id, COUNT(*) OVER ()
		FROM songs
		WHERE title = $1
		ORDER BY song_id
		LIMIT 1
	`, title).Scan(&id, &matches)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, ErrSongNotFound
		}
		return 0, 0, fmt.Errorf("lookup song by title: %w", err)
	}
	return id, matches, nil
}

// TopSongs returns at most limit songs in the order defined by the top_songs
// ranking function.
func (s *Store) TopSongs(ctx context.Context, limit int) ([]Song, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT song_id, title, artist_id, album_id, genre_id, COALESCE(genre_name, ''),
		       release_date, audio_file, COALESCE(thumbnail, '')
		FROM top_songs($1)
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query top songs: %w", err)
	}
	return scanSongs(rows)
}

// RecentSongs returns at most limit songs, newest release first. Songs
// without a release date come last; ties are ordered by id.
func (s *Store) RecentSongs(ctx context.Context, limit int) ([]Song, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+songColumns+`
		FROM songs s
		LEFT JOIN genres g ON g.genre_id = s.genre_id
		ORDER BY s.release_date DESC NULLS LAST, s.song_id ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent songs: %w", err)
	}
	return scanSongs(rows)
}

// Genres lists every genre name.
func (s *Store) Genres(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT genre_name
		FROM genres
		ORDER BY genre_name
	`)
	if err != nil {
		return nil, fmt.Errorf("query genres: %w", err)
	}
	defer rows.Close()

	var genres []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan genre: %w", err)
		}
		genres = append(genres, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate genres: %w", err)
	}
	return genres, nil
}

func scanSongs(rows *sql.Rows) ([]Song, error) {
	defer rows.Close()

	var songs []Song
	for rows.Next() {
		var song Song
		var artistID, albumID, genreID sql.NullInt64
		var releaseDate sql.NullTime
		if err := rows.Scan(&song.ID, &song.Title, &artistID, &albumID, &genreID, &song.Genre,
			&releaseDate, &song.AudioFile, &song.Thumbnail); err != nil {
			return nil, fmt.Errorf("scan song: %w", err)
		}
		song.ArtistID = nullInt64Ptr(artistID)
		song.AlbumID = nullInt64Ptr(albumID)
		song.GenreID = nullInt64Ptr(genreID)
		if releaseDate.Valid {
			song.ReleaseDate = &releaseDate.Time
		}
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate songs: %w", err)
	}
	return songs, nil
}

func nullInt64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(value string) string {
	return likeEscaper.Replace(value)
}
