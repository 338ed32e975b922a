package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/ZaGrayWolf/Treble-MusicPlayingApp/internal/app/accounts"
	"github.com/ZaGrayWolf/Treble-MusicPlayingApp/internal/app/playlists"
	"github.com/ZaGrayWolf/Treble-MusicPlayingApp/internal/store"
)

const (
	demoUser     = "demo"
	demoPassword = "demo!pass1"
	demoPlaylist = "Getting Started"
)

func bootstrapDemoData(ctx context.Context, svc services) error {
	if err := ensureDemoSongs(ctx, svc); err != nil {
		return err
	}
	return ensureDemoAccount(ctx, svc)
}

func ensureDemoSongs(ctx context.Context, svc services) error {
	if len(svc.catalog.List(ctx, "")) > 0 {
		return nil
	}

	date := func(v string) *string { return &v }

	songs := []store.SongRecord{
		{Title: "Morning Light", ReleaseDate: date("2021-03-14"), AudioFile: "Morning Light.mp3"},
		{Title: "Neon Rain", ReleaseDate: date("2022-11-02"), AudioFile: "Neon Rain.mp3"},
		{Title: "Paper Boats", ReleaseDate: date("2019-06-21"), AudioFile: "Paper Boats.mp3"},
		{Title: "Slow Orbit", ReleaseDate: date("2023-01-09"), AudioFile: "Slow Orbit.mp3"},
	}
	if !svc.catalog.BatchInsert(ctx, songs) {
		return errors.New("bootstrap demo songs: batch insert failed")
	}
	return nil
}

func ensureDemoAccount(ctx context.Context, svc services) error {
	userID, err := svc.accounts.Signup(ctx, demoUser, demoPassword, store.TierFree)
	switch {
	case errors.Is(err, accounts.ErrUserExists):
		return nil
	case err != nil:
		return fmt.Errorf("bootstrap demo user: %w", err)
	}

	playlistID, err := svc.playlists.Create(ctx, userID, demoPlaylist)
	if err != nil && !errors.Is(err, playlists.ErrPlaylistExists) {
		return fmt.Errorf("bootstrap demo playlist: %w", err)
	}
	if err != nil {
		return nil
	}

	for _, song := range svc.catalog.Recent(ctx, 2) {
		if svc.playlists.AddSong(ctx, playlistID, song.ID) == playlists.Failed {
			return fmt.Errorf("bootstrap demo playlist: add song %d", song.ID)
		}
	}
	return nil
}
