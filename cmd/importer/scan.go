package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ZaGrayWolf/Treble-MusicPlayingApp/internal/store"
)

const audioExt = ".mp3"

// songMetadata is applied to every file found in one import run.
type songMetadata struct {
	ArtistID    *int64
	AlbumID     *int64
	GenreID     *int64
	ReleaseDate *string
}

// scanSongs builds one record per audio file in songsDir. The title is the
// file name without its extension; a cover named after the title, with
// spaces replaced by underscores, is attached when it exists in coversDir.
// Records carry bare file names, never the scanned directories.
func scanSongs(songsDir, coversDir string, meta songMetadata) ([]store.SongRecord, error) {
	entries, err := os.ReadDir(songsDir)
	if err != nil {
		return nil, fmt.Errorf("read songs directory: %w", err)
	}

	var records []store.SongRecord
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), audioExt) {
			continue
		}

		title := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		record := store.SongRecord{
			Title:       title,
			ArtistID:    meta.ArtistID,
			AlbumID:     meta.AlbumID,
			GenreID:     meta.GenreID,
			ReleaseDate: meta.ReleaseDate,
			AudioFile:   entry.Name(),
		}

		if coversDir != "" {
			cover, err := findCover(coversDir, title)
			if err != nil {
				return nil, err
			}
			record.Thumbnail = cover
		}

		records = append(records, record)
	}
	return records, nil
}

func findCover(coversDir, title string) (*string, error) {
	name := strings.ReplaceAll(title, " ", "_") + ".jpg"
	info, err := os.Stat(filepath.Join(coversDir, name))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("stat cover: %w", err)
	case info.IsDir():
		return nil, nil
	}
	return &name, nil
}

func optionalID(v int64) *int64 {
	if v <= 0 {
		return nil
	}
	return &v
}

func optionalDate(raw string) (*string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if _, err := time.Parse(time.DateOnly, raw); err != nil {
		return nil, fmt.Errorf("release date must be YYYY-MM-DD: %w", err)
	}
	return &raw, nil
}
