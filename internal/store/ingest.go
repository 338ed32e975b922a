package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

// SongRecord is one song submitted for bulk ingestion. Field names match the
// keys batch_insert_songs reads from its JSON argument.
type SongRecord struct {
	Title       string  `json:"title"`
	ArtistID    *int64  `json:"artist_id"`
	AlbumID     *int64  `json:"album_id"`
	GenreID     *int64  `json:"genre_id"`
	ReleaseDate *string `json:"release_date"`
	AudioFile   string  `json:"audio_file"`
	Thumbnail   *string `json:"thumbnail"`
}

// InsertSongs stores every record or none of them. Records are validated
// before anything is sent to the database.
func (s *Store) InsertSongs(ctx context.Context, records []SongRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch := make([]SongRecord, len(records))
	for i, record := range records {
		record.Title = strings.TrimSpace(record.Title)
		record.AudioFile = strings.TrimSpace(record.AudioFile)
		if err := validateSongRecord(record); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		batch[i] = record
	}

	payload, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("prepare song batch: %w", err)
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `CALL batch_insert_songs($1::jsonb)`, string(payload)); err != nil {
			return fmt.Errorf("call batch_insert_songs: %w", err)
		}
		return nil
	})
}

func validateSongRecord(record SongRecord) error {
	if record.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidSong)
	}
	if record.AudioFile == "" {
		return fmt.Errorf("%w: audio file is required", ErrInvalidSong)
	}
	return nil
}
