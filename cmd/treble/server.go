package main

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ZaGrayWolf/Treble-MusicPlayingApp/internal/app/accounts"
	"github.com/ZaGrayWolf/Treble-MusicPlayingApp/internal/app/catalog"
	"github.com/ZaGrayWolf/Treble-MusicPlayingApp/internal/app/playlists"
	"github.com/ZaGrayWolf/Treble-MusicPlayingApp/internal/config"
	"github.com/ZaGrayWolf/Treble-MusicPlayingApp/internal/http/middleware"
	"github.com/ZaGrayWolf/Treble-MusicPlayingApp/internal/httpapi"
	"github.com/ZaGrayWolf/Treble-MusicPlayingApp/internal/store"
)

type services struct {
	accounts  accounts.Service
	catalog   catalog.Service
	playlists playlists.Service
}

func newServices(dataStore *store.Store, logger zerolog.Logger) services {
	return services{
		accounts:  accounts.New(dataStore, logger),
		catalog:   catalog.New(dataStore, logger),
		playlists: playlists.New(dataStore, logger),
	}
}

func newHTTPHandler(cfg *config.Config, svc services, logger zerolog.Logger) http.Handler {
	tokens := httpapi.NewTokenManager(cfg.Security.JWTSecret, cfg.Security.TokenTTL)
	api := httpapi.New(svc.accounts, svc.catalog, svc.playlists, tokens)

	return middleware.Chain(api.Routes(),
		middleware.RequestLogging(logger),
		middleware.Recovery(logger),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)
}
