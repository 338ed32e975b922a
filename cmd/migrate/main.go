package main

import (
	"database/sql"
	"os"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/ZaGrayWolf/Treble-MusicPlayingApp/internal/config"
	"github.com/ZaGrayWolf/Treble-MusicPlayingApp/internal/logging"
	"github.com/ZaGrayWolf/Treble-MusicPlayingApp/migrations"
)

func main() {
	if len(os.Args) != 2 || (os.Args[1] != "up" && os.Args[1] != "down") {
		log.Fatal().Msg("usage: migrate [up|down]")
	}

	cfg, err := config.LoadDatabase()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logger := logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if os.Args[1] == "up" {
		if err := migrations.Up(db); err != nil {
			logger.Fatal().Err(err).Msg("failed to run migrations")
		}
		logger.Info().Msg("migrations applied successfully")
		return
	}

	if err := migrations.Down(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to roll back migrations")
	}
	logger.Info().Msg("migrations rolled back successfully")
}
