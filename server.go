// server.go
//
// Copyright (C) 2026 Vilhjálmur Þorsteinsson / Miðeind ehf.
//
// This file implements a compact HTTP server that hosts game
// sessions, receiving JSON encoded requests and returning
// JSON encoded responses.

package balda

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vthorsteinsson/GoBalda/storage"
)

// ServerOptions configures a Server
type ServerOptions struct {
	Registry *Registry
	Store    storage.Store
	// Rules for games that don't specify their own
	Rules    Rules
	Language Language
	// Bearer authorization token, if any
	AccessKey string
	// Allowed access control (CORS) origins
	AllowedOrigins string
	// Bound on the time a request may take
	Timeout time.Duration
	// How long a finished game stays available before it is
	// closed and dropped from the server
	Retention time.Duration
}

// Server hosts live game sessions over HTTP
type Server struct {
	r          *chi.Mux
	registry   *Registry
	store      storage.Store
	rules      Rules
	lang       Language
	authHeader string
	origins    string
	retention  time.Duration
	rnd        Random
	logger     zerolog.Logger
	mux        sync.Mutex
	games      map[string]*Game
}

// NewServer constructs a Server and registers its routes
func NewServer(opts ServerOptions) *Server {
	s := &Server{
		r:         chi.NewRouter(),
		registry:  opts.Registry,
		store:     opts.Store,
		rules:     opts.Rules,
		lang:      opts.Language,
		origins:   opts.AllowedOrigins,
		retention: opts.Retention,
		rnd:       NewRandom(),
		logger:    log.With().Str("component", "server").Logger(),
		games:     make(map[string]*Game),
	}
	if s.registry == nil {
		s.registry = DefaultRegistry
	}
	if s.rules.BoardSize == 0 {
		s.rules = DefaultRules()
	}
	if s.lang == "" {
		s.lang = English
	}
	if s.retention <= 0 {
		s.retention = 10 * time.Minute
	}
	if s.origins == "" {
		// Default to all origins allowed
		s.origins = "*"
	}
	if opts.AccessKey != "" {
		s.authHeader = "Bearer " + opts.AccessKey
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(timeout))
	s.r.Use(jsonContentType)
	s.r.Use(s.cors)

	// App Engine warmup; no concrete action required
	s.r.Get("/_ah/warmup", func(w http.ResponseWriter, r *http.Request) {
		s.logger.Info().Msg("Warmup request received")
		w.WriteHeader(http.StatusOK)
	})

	s.r.Group(func(r chi.Router) {
		r.Use(s.authorize)
		r.Post("/games", s.handleNewGame)
		r.Post("/games/load", s.handleLoad)
		r.Get("/games/{id}", s.handleGetGame)
		r.Delete("/games/{id}", s.handleDeleteGame)
		r.Post("/games/{id}/moves", s.handleMove)
		r.Post("/games/{id}/generate", s.handleGenerate)
		r.Post("/games/{id}/hurry", s.handleHurry)
		r.Post("/games/{id}/step", s.handleStep)
		r.Post("/games/{id}/save", s.handleSave)
		r.Get("/saves", s.handleListSaves)
		r.Post("/wordcheck", s.handleWordCheck)
		r.Get("/randomword", s.handleRandomWord)
	})

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "NotFound", r.URL.Path)
	})
	return s
}

// ServeHTTP makes the Server an http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.r.ServeHTTP(w, r)
}

// Router exposes the internal router
func (s *Server) Router() chi.Router { return s.r }

// Close tears down all live game sessions
func (s *Server) Close() {
	s.mux.Lock()
	defer s.mux.Unlock()
	for id, game := range s.games {
		game.Close()
		delete(s.games, id)
	}
}

// jsonContentType sets a default JSON Content-Type header on all responses
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := w.Header()
		header.Set("Access-Control-Allow-Origin", s.origins)
		header.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		// Preflight requests only get the headers
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// authorize checks for a bearer authorization token,
// which must match the configured access key, if present
func (s *Server) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.authHeader != "" {
			authHeader := r.Header.Get("Authorization")
			if authHeader != s.authHeader {
				writeError(w, http.StatusUnauthorized, "Unauthorized",
					fmt.Sprintf("Authorization header mismatch: got '%s'", authHeader))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// ErrorResponse is the body of every error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Unable to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, ErrorResponse{Error: kind, Message: message})
}

// writeGameError maps engine and storage errors to HTTP responses.
// Move rejections are reported with their kind and status 422.
func (s *Server) writeGameError(w http.ResponseWriter, err error) {
	var moveErr *MoveError
	var initErr *InitError
	var integrityErr *IntegrityError
	switch {
	case errors.As(err, &moveErr):
		writeError(w, http.StatusUnprocessableEntity, moveErr.Kind.String(), moveErr.Error())
	case errors.As(err, &initErr):
		writeError(w, http.StatusBadRequest, initErr.Reason.String(), initErr.Error())
	case errors.As(err, &integrityErr):
		s.logger.Error().Err(err).Msg("Saved game is corrupt")
		writeError(w, http.StatusUnprocessableEntity, "CorruptSave", err.Error())
	case errors.Is(err, ErrVersionMismatch):
		writeError(w, http.StatusUnprocessableEntity, "VersionMismatch", err.Error())
	case errors.Is(err, ErrCorruptSave):
		writeError(w, http.StatusUnprocessableEntity, "CorruptSave", err.Error())
	case errors.Is(err, ErrVocabularyUnavailable):
		writeError(w, http.StatusServiceUnavailable, "VocabularyUnavailable", err.Error())
	case errors.Is(err, ErrNotReplay), errors.Is(err, ErrReplayExhausted):
		writeError(w, http.StatusConflict, "ReplayMode", err.Error())
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "NotFound", err.Error())
	case errors.Is(err, storage.ErrInvalidID):
		writeError(w, http.StatusBadRequest, "InvalidID", err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeError(w, http.StatusServiceUnavailable, "Timeout", err.Error())
	default:
		s.logger.Error().Err(err).Msg("Request failed")
		writeError(w, http.StatusInternalServerError, "Internal", err.Error())
	}
}

func decode(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		// Not valid JSON
		writeError(w, http.StatusBadRequest, "BadRequest", err.Error())
		return false
	}
	return true
}

func (s *Server) vocabulary(ctx context.Context, name string) (*Vocabulary, error) {
	lang := s.lang
	if name != "" {
		var err error
		if lang, err = ParseLanguage(name); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrVocabularyUnavailable, err)
		}
	}
	return s.registry.Get(ctx, lang)
}

func (s *Server) game(w http.ResponseWriter, r *http.Request) (*Game, bool) {
	id := chi.URLParam(r, "id")
	s.mux.Lock()
	game, ok := s.games[id]
	s.mux.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "NotFound", fmt.Sprintf("no game '%s'", id))
	}
	return game, ok
}

// register adds a live game, replacing and closing any
// previous game with the same id
func (s *Server) register(game *Game) {
	s.mux.Lock()
	defer s.mux.Unlock()
	if old, ok := s.games[game.ID()]; ok && old != game {
		old.Close()
	}
	s.games[game.ID()] = game
	go s.evictWhenOver(game)
}

// evictWhenOver drops a finished game once the retention period
// has passed. It returns early if the game is closed first.
func (s *Server) evictWhenOver(game *Game) {
	select {
	case <-game.Over():
	case <-game.Done():
		return
	}
	timer := time.NewTimer(s.retention)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-game.Done():
		return
	}
	s.mux.Lock()
	if s.games[game.ID()] == game {
		delete(s.games, game.ID())
	}
	s.mux.Unlock()
	game.Close()
	s.logger.Debug().Str("game", game.ID()).Msg("Finished game evicted")
}

// PlayerRequest describes a player in a NewGameRequest
type PlayerRequest struct {
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	Difficulty string `json:"difficulty"`
	DelayMs    int64  `json:"delay_ms"`
}

func (pr *PlayerRequest) config() (PlayerConfig, error) {
	kind := Human
	if pr.Kind != "" {
		var err error
		if kind, err = ParsePlayerKind(pr.Kind); err != nil {
			return PlayerConfig{}, err
		}
	}
	if kind == Human {
		return HumanPlayer(pr.Name), nil
	}
	difficulty := Medium
	if pr.Difficulty != "" {
		var err error
		if difficulty, err = ParseDifficulty(pr.Difficulty); err != nil {
			return PlayerConfig{}, err
		}
	}
	return ComputerPlayer(pr.Name, difficulty, time.Duration(pr.DelayMs)*time.Millisecond), nil
}

// NewGameRequest starts a game. If StartWord is empty, a random
// start word is drawn from the vocabulary.
type NewGameRequest struct {
	Language      string          `json:"language"`
	StartWord     string          `json:"start_word"`
	Players       []PlayerRequest `json:"players"`
	BoardSize     int             `json:"board_size"`
	Adjacency     string          `json:"adjacency"`
	MaxRejections *int            `json:"max_rejections"`
}

func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req NewGameRequest
	if !decode(w, r, &req) {
		return
	}
	rules := s.rules
	if req.BoardSize != 0 {
		rules.BoardSize = req.BoardSize
	}
	if req.Adjacency != "" {
		adjacency, err := ParseAdjacency(req.Adjacency)
		if err != nil {
			writeError(w, http.StatusBadRequest, BadRules.String(), err.Error())
			return
		}
		rules.Adjacency = adjacency
	}
	if req.MaxRejections != nil {
		rules.MaxRejections = *req.MaxRejections
	}
	players := make([]PlayerConfig, len(req.Players))
	for i := range req.Players {
		pc, err := req.Players[i].config()
		if err != nil {
			writeError(w, http.StatusBadRequest, BadPlayerSettings.String(), err.Error())
			return
		}
		players[i] = pc
	}
	vocab, err := s.vocabulary(r.Context(), req.Language)
	if err != nil {
		s.writeGameError(w, err)
		return
	}
	var game *Game
	if req.StartWord == "" {
		game, err = NewRandomGame(vocab, players, WithRules(rules))
	} else {
		game, err = NewGame(vocab, req.StartWord, players, WithRules(rules))
	}
	if err != nil {
		s.writeGameError(w, err)
		return
	}
	s.register(game)
	writeJSON(w, http.StatusCreated, game.State())
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	if game, ok := s.game(w, r); ok {
		writeJSON(w, http.StatusOK, game.State())
	}
}

func (s *Server) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mux.Lock()
	game, ok := s.games[id]
	delete(s.games, id)
	s.mux.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "NotFound", fmt.Sprintf("no game '%s'", id))
		return
	}
	game.Close()
	w.WriteHeader(http.StatusNoContent)
}

// MoveRequest submits a human move. The square and the path use
// the "c3" coordinate notation.
type MoveRequest struct {
	Letter string   `json:"letter"`
	At     string   `json:"at"`
	Path   []string `json:"path"`
}

// MoveResponse is returned for an accepted move
type MoveResponse struct {
	Move  Move  `json:"move"`
	State State `json:"state"`
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	game, ok := s.game(w, r)
	if !ok {
		return
	}
	var req MoveRequest
	if !decode(w, r, &req) {
		return
	}
	letter := []rune(req.Letter)
	if len(letter) != 1 {
		s.writeGameError(w, reject(InvalidLetter, nil, ""))
		return
	}
	at, err := ParseCoordinate(req.At)
	if err != nil {
		writeError(w, http.StatusBadRequest, "BadRequest", err.Error())
		return
	}
	path := make([]Coordinate, len(req.Path))
	for i, p := range req.Path {
		if path[i], err = ParseCoordinate(p); err != nil {
			writeError(w, http.StatusBadRequest, "BadRequest", err.Error())
			return
		}
	}
	move, err := game.SubmitMove(letter[0], at, path)
	if err != nil {
		s.writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MoveResponse{Move: move, State: game.State()})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	game, ok := s.game(w, r)
	if !ok {
		return
	}
	move, err := game.GenerateMove()
	if err != nil {
		s.writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MoveResponse{Move: move, State: game.State()})
}

func (s *Server) handleHurry(w http.ResponseWriter, r *http.Request) {
	if game, ok := s.game(w, r); ok {
		game.Hurry()
		writeJSON(w, http.StatusAccepted, game.State())
	}
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	game, ok := s.game(w, r)
	if !ok {
		return
	}
	move, err := game.Step()
	if err != nil {
		s.writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MoveResponse{Move: move, State: game.State()})
}

// SaveResponse is returned when a game has been saved
type SaveResponse struct {
	ID string `json:"id"`
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	game, ok := s.game(w, r)
	if !ok {
		return
	}
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "NoStore", "no save store configured")
		return
	}
	var buf bytes.Buffer
	if err := game.Save(&buf); err != nil {
		s.writeGameError(w, err)
		return
	}
	if err := s.store.Put(r.Context(), game.ID(), buf.Bytes()); err != nil {
		s.writeGameError(w, err)
		return
	}
	s.logger.Info().Str("game", game.ID()).Int("bytes", buf.Len()).Msg("Game saved")
	writeJSON(w, http.StatusOK, SaveResponse{ID: game.ID()})
}

// LoadRequest loads a saved game into a live session,
// either to continue it or to replay it
type LoadRequest struct {
	ID     string `json:"id"`
	Replay bool   `json:"replay"`
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	var req LoadRequest
	if !decode(w, r, &req) {
		return
	}
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "NoStore", "no save store configured")
		return
	}
	data, err := s.store.Get(r.Context(), req.ID)
	if err != nil {
		s.writeGameError(w, err)
		return
	}
	// The language of the save determines the vocabulary
	var rec SaveRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		s.writeGameError(w, fmt.Errorf("%w: %v", ErrCorruptSave, err))
		return
	}
	vocab, err := s.vocabulary(r.Context(), string(rec.Language))
	if err != nil {
		s.writeGameError(w, err)
		return
	}
	game, err := LoadRecord(rec, vocab, req.Replay)
	if err != nil {
		s.writeGameError(w, err)
		return
	}
	s.register(game)
	writeJSON(w, http.StatusOK, game.State())
}

// SavesResponse lists the saved games
type SavesResponse struct {
	IDs []string `json:"ids"`
}

func (s *Server) handleListSaves(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "NoStore", "no save store configured")
		return
	}
	ids, err := s.store.List(r.Context())
	if err != nil {
		s.writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SavesResponse{IDs: ids})
}

// WordCheckRequest asks whether words are in a vocabulary
type WordCheckRequest struct {
	Language string   `json:"language"`
	Word     string   `json:"word"`
	Words    []string `json:"words"`
}

// WordCheckResponse gives the verdict on each word, with Ok
// telling whether the main word is valid
type WordCheckResponse struct {
	Word  string           `json:"word"`
	Ok    bool             `json:"ok"`
	Valid []WordValidation `json:"valid"`
}

// WordValidation is the verdict on one word
type WordValidation struct {
	Word  string `json:"word"`
	Valid bool   `json:"valid"`
}

func (s *Server) handleWordCheck(w http.ResponseWriter, r *http.Request) {
	var req WordCheckRequest
	if !decode(w, r, &req) {
		return
	}
	vocab, err := s.vocabulary(r.Context(), req.Language)
	if err != nil {
		s.writeGameError(w, err)
		return
	}
	resp := WordCheckResponse{
		Word:  req.Word,
		Ok:    req.Word != "" && vocab.Contains(req.Word),
		Valid: make([]WordValidation, len(req.Words)),
	}
	for i, word := range req.Words {
		resp.Valid[i] = WordValidation{Word: word, Valid: vocab.Contains(word)}
	}
	writeJSON(w, http.StatusOK, resp)
}

// RandomWordResponse carries a random start word
type RandomWordResponse struct {
	Language Language `json:"language"`
	Word     string   `json:"word"`
}

func (s *Server) handleRandomWord(w http.ResponseWriter, r *http.Request) {
	vocab, err := s.vocabulary(r.Context(), r.URL.Query().Get("language"))
	if err != nil {
		s.writeGameError(w, err)
		return
	}
	maxLength := s.rules.BoardSize
	if v := r.URL.Query().Get("max"); v != "" {
		if maxLength, err = strconv.Atoi(v); err != nil {
			writeError(w, http.StatusBadRequest, "BadRequest", err.Error())
			return
		}
	}
	word, err := vocab.RandomWord(s.rnd, maxLength)
	if err != nil {
		writeError(w, http.StatusNotFound, "NoWord", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, RandomWordResponse{Language: vocab.Language(), Word: word})
}
