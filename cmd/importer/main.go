package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/ZaGrayWolf/Treble-MusicPlayingApp/internal/app/catalog"
	"github.com/ZaGrayWolf/Treble-MusicPlayingApp/internal/config"
	"github.com/ZaGrayWolf/Treble-MusicPlayingApp/internal/logging"
	"github.com/ZaGrayWolf/Treble-MusicPlayingApp/internal/store"
)

func main() {
	app := &cli.Command{
		Name:  "importer",
		Usage: "Import a directory of audio files into the song catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "songs-dir",
				Usage: "Directory containing .mp3 files",
				Value: "songs",
			},
			&cli.StringFlag{
				Name:  "covers-dir",
				Usage: "Directory containing <title>.jpg cover images",
				Value: "covers",
			},
			&cli.IntFlag{
				Name:  "artist-id",
				Usage: "Artist id applied to every song",
			},
			&cli.IntFlag{
				Name:  "album-id",
				Usage: "Album id applied to every song",
			},
			&cli.IntFlag{
				Name:  "genre-id",
				Usage: "Genre id applied to every song",
			},
			&cli.StringFlag{
				Name:  "release-date",
				Usage: "Release date (YYYY-MM-DD) applied to every song",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "List the songs that would be imported without writing them",
			},
		},
		Action: runImport,
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("import failed")
	}
}

func runImport(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.LoadDatabase()
	if err != nil {
		return err
	}
	logger := logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	releaseDate, err := optionalDate(cmd.String("release-date"))
	if err != nil {
		return err
	}

	records, err := scanSongs(cmd.String("songs-dir"), cmd.String("covers-dir"), songMetadata{
		ArtistID:    optionalID(int64(cmd.Int("artist-id"))),
		AlbumID:     optionalID(int64(cmd.Int("album-id"))),
		GenreID:     optionalID(int64(cmd.Int("genre-id"))),
		ReleaseDate: releaseDate,
	})
	if err != nil {
		return err
	}
	if len(records) == 0 {
		logger.Warn().Str("dir", cmd.String("songs-dir")).Msg("no audio files found")
		return nil
	}

	if cmd.Bool("dry-run") {
		printRecords(records)
		return nil
	}

	return submit(ctx, cfg, records, logger)
}

func submit(ctx context.Context, cfg *config.Config, records []store.SongRecord, logger zerolog.Logger) error {
	db, err := sql.Open("pgx", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	if !catalog.New(store.New(db), logger).BatchInsert(ctx, records) {
		return errors.New("song batch was rejected; nothing was imported")
	}
	logger.Info().Int("songs", len(records)).Msg("import complete")
	return nil
}

func printRecords(records []store.SongRecord) {
	for _, r := range records {
		cover := "-"
		if r.Thumbnail != nil {
			cover = *r.Thumbnail
		}
		fmt.Printf("%s\t%s\t%s\n", r.Title, r.AudioFile, cover)
	}
}
