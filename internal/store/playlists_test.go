package store

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestCreatePlaylist(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`
		INSERT INTO playlists (user_id, name)
		VALUES ($1, $2)
		ON CONFLICT (user_id, name) DO NOTHING
		RETURNING playlist_id
	`)).
		WithArgs(int64(7), "Road trip").
		WillReturnRows(sqlmock.NewRows([]string{"playlist_id"}).AddRow(int64(11)))

	id, err := s.CreatePlaylist(context.Background(), 7, "Road trip")
	if err != nil {
		t.Fatalf("CreatePlaylist: %v", err)
	}
	if id != 11 {
		t.Fatalf("expected playlist 11, got %d", id)
	}
	expectationsMet(t, mock)
}

func TestPlaylistOwnedBy(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM playlists WHERE playlist_id = $1 AND user_id = $2)`)).
		WithArgs(int64(11), int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS`)).
		WithArgs(int64(11), int64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS`)).
		WithArgs(int64(11), int64(7)).
		WillReturnError(errors.New("connection refused"))

	ctx := context.Background()
	if owned, err := s.PlaylistOwnedBy(ctx, 7, 11); err != nil || !owned {
		t.Fatalf("expected owner match, got %v %v", owned, err)
	}
	if owned, err := s.PlaylistOwnedBy(ctx, 8, 11); err != nil || owned {
		t.Fatalf("expected no match for another user, got %v %v", owned, err)
	}
	if _, err := s.PlaylistOwnedBy(ctx, 7, 11); err == nil {
		t.Fatal("expected database error to propagate")
	}
	expectationsMet(t, mock)
}

func TestCreatePlaylistDuplicateName(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO playlists`)).
		WithArgs(int64(7), "Road trip").
		WillReturnRows(sqlmock.NewRows([]string{"playlist_id"}))

	if _, err := s.CreatePlaylist(context.Background(), 7, "Road trip"); !errors.Is(err, ErrPlaylistExists) {
		t.Fatalf("expected ErrPlaylistExists, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestCreatePlaylistUnknownUser(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO playlists`)).
		WithArgs(int64(404), "Road trip").
		WillReturnError(&pgconn.PgError{Code: "23503"})

	if _, err := s.CreatePlaylist(context.Background(), 404, "Road trip"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestListPlaylistsCountsSongs(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`(SELECT COUNT(*) FROM playlist_songs ps WHERE ps.playlist_id = p.playlist_id)`)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"playlist_id", "name", "count"}).
			AddRow(int64(1), "Chill", 3).
			AddRow(int64(2), "Empty", 0))

	playlists, err := s.ListPlaylists(context.Background(), 7)
	if err != nil {
		t.Fatalf("ListPlaylists: %v", err)
	}
	if len(playlists) != 2 || playlists[0].SongCount != 3 || playlists[1].SongCount != 0 {
		t.Fatalf("unexpected playlists: %+v", playlists)
	}
	expectationsMet(t, mock)
}

func TestAddSongToPlaylist(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		want     AddSongResult
	}{
		{name: "inserted", affected: 1, want: AddSongInserted},
		{name: "missing reference or duplicate", affected: 0, want: AddSongNoOp},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			s, mock := newMockStore(t)

			mock.ExpectExec(regexp.QuoteMeta(`
				INSERT INTO playlist_songs (playlist_id, song_id)
				SELECT $1::BIGINT, $2::BIGINT
				WHERE EXISTS (SELECT 1 FROM playlists WHERE playlist_id = $1)
				  AND EXISTS (SELECT 1 FROM songs WHERE song_id = $2)
				ON CONFLICT (playlist_id, song_id) DO NOTHING
			`)).
				WithArgs(int64(1), int64(2)).
				WillReturnResult(sqlmock.NewResult(0, tc.affected))

			got, err := s.AddSongToPlaylist(context.Background(), 1, 2)
			if err != nil {
				t.Fatalf("AddSongToPlaylist: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			expectationsMet(t, mock)
		})
	}
}

func TestAddSongToPlaylistError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO playlist_songs`)).
		WithArgs(int64(1), int64(2)).
		WillReturnError(errors.New("db down"))

	if _, err := s.AddSongToPlaylist(context.Background(), 1, 2); err == nil {
		t.Fatalf("expected error")
	}
	expectationsMet(t, mock)
}

func TestRemoveSongFromPlaylist(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM playlist_songs`)).
		WithArgs(int64(1), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	removed, err := s.RemoveSongFromPlaylist(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("RemoveSongFromPlaylist: %v", err)
	}
	if !removed {
		t.Fatalf("expected link to be removed")
	}
	expectationsMet(t, mock)
}

func TestDeletePlaylistNotOwned(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM playlist_songs`)).
		WithArgs(int64(5), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM playlists`)).
		WithArgs(int64(5), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	if err := s.DeletePlaylist(context.Background(), 7, 5); !errors.Is(err, ErrPlaylistNotFound) {
		t.Fatalf("expected ErrPlaylistNotFound, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestDeletePlaylist(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM playlist_songs`)).
		WithArgs(int64(5), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM playlists`)).
		WithArgs(int64(5), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := s.DeletePlaylist(context.Background(), 7, 5); err != nil {
		t.Fatalf("DeletePlaylist: %v", err)
	}
	expectationsMet(t, mock)
}
