package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ZaGrayWolf/Treble-MusicPlayingApp/internal/app/accounts"
	"github.com/ZaGrayWolf/Treble-MusicPlayingApp/internal/app/playlists"
	"github.com/ZaGrayWolf/Treble-MusicPlayingApp/internal/credential"
	"github.com/ZaGrayWolf/Treble-MusicPlayingApp/internal/store"
)

const (
	defaultListLimit = 10
	maxListLimit     = 100
)

// AccountService captures the account operations needed by the HTTP handlers.
type AccountService interface {
	Signup(ctx context.Context, name, password string, tier store.Tier) (int64, error)
	Login(ctx context.Context, name, password string) (int64, bool)
	Profile(ctx context.Context, userID int64) (store.Profile, bool)
	ChangePassword(ctx context.Context, userID int64, newPassword string) bool
	UpdateSubscription(ctx context.Context, userID int64, tier store.Tier) bool
	Delete(ctx context.Context, userID int64) error
}

// CatalogService describes catalog read workflows.
type CatalogService interface {
	List(ctx context.Context, search string) []store.Song
	Search(ctx context.Context, query, genre string) []store.Song
	Titles(ctx context.Context) []store.SongTitle
	ResolveIDByTitle(ctx context.Context, title string) (int64, bool)
	Top(ctx context.Context, limit int) []store.Song
	Recent(ctx context.Context, limit int) []store.Song
	Genres(ctx context.Context) []string
}

// PlaylistService coordinates playlist-related operations.
type PlaylistService interface {
	Owns(ctx context.Context, userID, playlistID int64) (bool, error)
	Create(ctx context.Context, userID int64, name string) (int64, error)
	ListForUser(ctx context.Context, userID int64) []store.PlaylistSummary
	AddSong(ctx context.Context, playlistID, songID int64) playlists.AddOutcome
	RemoveSong(ctx context.Context, playlistID, songID int64) bool
	Delete(ctx context.Context, userID, playlistID int64) bool
}

// Server wires HTTP handlers to the underlying services.
type Server struct {
	accounts  AccountService
	catalog   CatalogService
	playlists PlaylistService
	tokens    *TokenManager
}

// New configures a Server with the given services.
func New(accounts AccountService, catalog CatalogService, playlists PlaylistService, tokens *TokenManager) *Server {
	return &Server{
		accounts:  accounts,
		catalog:   catalog,
		playlists: playlists,
		tokens:    tokens,
	}
}

// Routes exposes the HTTP handlers for accounts, the catalog and playlists.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.HandleFunc("POST /api/v1/auth/signup", s.handleSignup)
	mux.HandleFunc("POST /api/v1/auth/login", s.handleLogin)

	mux.HandleFunc("GET /api/v1/me", s.authenticated(s.handleProfile))
	mux.HandleFunc("PATCH /api/v1/me", s.authenticated(s.handleUpdateProfile))
	mux.HandleFunc("DELETE /api/v1/me", s.authenticated(s.handleDeleteAccount))

	mux.HandleFunc("GET /api/v1/songs", s.handleSongs)
	mux.HandleFunc("GET /api/v1/songs/titles", s.handleSongTitles)
	mux.HandleFunc("GET /api/v1/songs/resolve", s.handleResolveSong)
	mux.HandleFunc("GET /api/v1/songs/top", s.handleTopSongs)
	mux.HandleFunc("GET /api/v1/songs/recent", s.handleRecentSongs)
	mux.HandleFunc("GET /api/v1/genres", s.handleGenres)

	mux.HandleFunc("GET /api/v1/playlists", s.authenticated(s.handleListPlaylists))
	mux.HandleFunc("POST /api/v1/playlists", s.authenticated(s.handleCreatePlaylist))
	mux.HandleFunc("DELETE /api/v1/playlists/{id}", s.authenticated(s.handleDeletePlaylist))
	mux.HandleFunc("POST /api/v1/playlists/{id}/songs/{songID}", s.authenticated(s.handleAddPlaylistSong))
	mux.HandleFunc("DELETE /api/v1/playlists/{id}/songs/{songID}", s.authenticated(s.handleRemovePlaylistSong))

	return mux
}

type signupRequest struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	Subscription string `json:"subscription"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token  string `json:"token"`
	UserID int64  `json:"userId"`
}

type idResponse struct {
	ID int64 `json:"id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type updateProfileRequest struct {
	Subscription *string `json:"subscription"`
	Password     *string `json:"password"`
}

type playlistRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	tier := store.TierFree
	if req.Subscription != "" {
		parsed, err := store.ParseTier(req.Subscription)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		tier = parsed
	}

	userID, err := s.accounts.Signup(r.Context(), req.Username, req.Password, tier)
	if err != nil {
		switch {
		case errors.Is(err, accounts.ErrUserExists):
			writeJSON(w, http.StatusConflict, errorResponse{Error: "username already taken"})
		case errors.Is(err, accounts.ErrInvalidInput), errors.Is(err, accounts.ErrWeakPassword):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		default:
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		}
		return
	}

	writeJSON(w, http.StatusCreated, idResponse{ID: userID})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	userID, ok := s.accounts.Login(r.Context(), req.Username, req.Password)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid credentials"})
		return
	}

	token, err := s.tokens.Issue(userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "could not issue token"})
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: token, UserID: userID})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request, userID int64) {
	profile, ok := s.accounts.Profile(r.Context(), userID)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "account not found"})
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request, userID int64) {
	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}
	if req.Subscription == nil && req.Password == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "nothing to update"})
		return
	}

	var tier store.Tier
	if req.Subscription != nil {
		parsed, err := store.ParseTier(*req.Subscription)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		tier = parsed
	}
	if req.Password != nil && !credential.ValidatePolicy(*req.Password) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: accounts.ErrWeakPassword.Error()})
		return
	}

	if req.Subscription != nil && !s.accounts.UpdateSubscription(r.Context(), userID, tier) {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "subscription could not be updated"})
		return
	}
	if req.Password != nil && !s.accounts.ChangePassword(r.Context(), userID, *req.Password) {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "password could not be changed"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request, userID int64) {
	if err := s.accounts.Delete(r.Context(), userID); err != nil {
		if errors.Is(err, accounts.ErrUserNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "account not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSongs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var songs []store.Song
	if genre := query.Get("genre"); genre != "" {
		songs = s.catalog.Search(r.Context(), query.Get("q"), genre)
	} else {
		songs = s.catalog.List(r.Context(), query.Get("q"))
	}

	writeJSON(w, http.StatusOK, struct {
		Songs []store.Song `json:"songs"`
	}{Songs: nonNil(songs)})
}

func (s *Server) handleSongTitles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Titles []store.SongTitle `json:"titles"`
	}{Titles: nonNil(s.catalog.Titles(r.Context()))})
}

func (s *Server) handleResolveSong(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	if title == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing title parameter"})
		return
	}

	id, ok := s.catalog.ResolveIDByTitle(r.Context(), title)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "song not found"})
		return
	}
	writeJSON(w, http.StatusOK, idResponse{ID: id})
}

func (s *Server) handleTopSongs(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid limit parameter"})
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Songs []store.Song `json:"songs"`
	}{Songs: nonNil(s.catalog.Top(r.Context(), limit))})
}

func (s *Server) handleRecentSongs(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid limit parameter"})
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Songs []store.Song `json:"songs"`
	}{Songs: nonNil(s.catalog.Recent(r.Context(), limit))})
}

func (s *Server) handleGenres(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Genres []string `json:"genres"`
	}{Genres: nonNil(s.catalog.Genres(r.Context()))})
}

func (s *Server) handleListPlaylists(w http.ResponseWriter, r *http.Request, userID int64) {
	writeJSON(w, http.StatusOK, struct {
		Playlists []store.PlaylistSummary `json:"playlists"`
	}{Playlists: nonNil(s.playlists.ListForUser(r.Context(), userID))})
}

func (s *Server) handleCreatePlaylist(w http.ResponseWriter, r *http.Request, userID int64) {
	var req playlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	playlistID, err := s.playlists.Create(r.Context(), userID, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, playlists.ErrPlaylistExists):
			writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
		case errors.Is(err, playlists.ErrInvalidInput):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		default:
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		}
		return
	}

	writeJSON(w, http.StatusCreated, idResponse{ID: playlistID})
}

func (s *Server) handleDeletePlaylist(w http.ResponseWriter, r *http.Request, userID int64) {
	playlistID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid playlist id"})
		return
	}

	if !s.playlists.Delete(r.Context(), userID, playlistID) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "playlist not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddPlaylistSong(w http.ResponseWriter, r *http.Request, userID int64) {
	playlistID, songID, ok := s.ownedPlaylistSong(w, r, userID)
	if !ok {
		return
	}

	switch s.playlists.AddSong(r.Context(), playlistID, songID) {
	case playlists.Inserted:
		w.WriteHeader(http.StatusCreated)
	case playlists.NoOp:
		writeJSON(w, http.StatusOK, struct {
			Added bool `json:"added"`
		}{Added: false})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "song could not be added"})
	}
}

func (s *Server) handleRemovePlaylistSong(w http.ResponseWriter, r *http.Request, userID int64) {
	playlistID, songID, ok := s.ownedPlaylistSong(w, r, userID)
	if !ok {
		return
	}

	if !s.playlists.RemoveSong(r.Context(), playlistID, songID) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "song is not on the playlist"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ownedPlaylistSong parses the playlist and song ids from the path and checks
// that the playlist belongs to userID. It writes the error response itself.
func (s *Server) ownedPlaylistSong(w http.ResponseWriter, r *http.Request, userID int64) (int64, int64, bool) {
	playlistID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid playlist id"})
		return 0, 0, false
	}
	songID, err := strconv.ParseInt(r.PathValue("songID"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid song id"})
		return 0, 0, false
	}

	owned, err := s.playlists.Owns(r.Context(), userID, playlistID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return 0, 0, false
	}
	if !owned {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "playlist not found"})
		return 0, 0, false
	}
	return playlistID, songID, true
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return defaultListLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, errors.New("invalid limit")
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return limit, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func parseBearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}
