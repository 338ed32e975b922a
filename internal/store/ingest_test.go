package store

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestInsertSongsCallsProcedureInTransaction(t *testing.T) {
	s, mock := newMockStore(t)

	artist := int64(1)
	released := "2024-01-01"
	records := []SongRecord{
		{Title: " Song A ", ArtistID: &artist, ReleaseDate: &released, AudioFile: "a.mp3"},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`CALL batch_insert_songs($1::jsonb)`)).
		WithArgs(`[{"title":"Song A","artist_id":1,"album_id":null,"genre_id":null,"release_date":"2024-01-01","audio_file":"a.mp3","thumbnail":null}]`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := s.InsertSongs(context.Background(), records); err != nil {
		t.Fatalf("InsertSongs: %v", err)
	}
	if records[0].Title != " Song A " {
		t.Fatalf("caller's records must not be modified")
	}
	expectationsMet(t, mock)
}

func TestInsertSongsRollsBackOnProcedureFailure(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`CALL batch_insert_songs($1::jsonb)`)).
		WithArgs(sqlmock.AnyArg()).
		WillReturnError(errors.New("violates foreign key constraint"))
	mock.ExpectRollback()

	err := s.InsertSongs(context.Background(), []SongRecord{
		{Title: "A", AudioFile: "a.mp3"},
		{Title: "B", AudioFile: "b.mp3"},
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	expectationsMet(t, mock)
}

func TestInsertSongsValidatesBeforeIO(t *testing.T) {
	s, mock := newMockStore(t)

	err := s.InsertSongs(context.Background(), []SongRecord{
		{Title: "A", AudioFile: "a.mp3"},
		{Title: "B", AudioFile: "   "},
	})
	if !errors.Is(err, ErrInvalidSong) {
		t.Fatalf("expected ErrInvalidSong, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestInsertSongsEmptyBatch(t *testing.T) {
	s, mock := newMockStore(t)

	if err := s.InsertSongs(context.Background(), nil); err != nil {
		t.Fatalf("InsertSongs(nil): %v", err)
	}
	expectationsMet(t, mock)
}
