// server_test.go
//
// Copyright (C) 2026 Vilhjálmur Þorsteinsson / Miðeind ehf.

package balda

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/vthorsteinsson/GoBalda/storage"
)

const testAccessKey = "secret"

type testServer struct {
	t   *testing.T
	srv *Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWith(t, ServerOptions{})
}

// newTestServerWith fills in the word lists, store and access key
// of opts and starts a server with them
func newTestServerWith(t *testing.T, opts ServerOptions) *testServer {
	t.Helper()
	words := fstest.MapFS{
		"en.txt": {Data: []byte(strings.Join(testWords, "\n") + "\n")},
	}
	store, err := storage.OpenFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("Unable to open store: %v", err)
	}
	opts.Registry = NewRegistry(FSSource{FS: words, Dir: "."})
	opts.Store = store
	opts.AccessKey = testAccessKey
	srv := NewServer(opts)
	t.Cleanup(srv.Close)
	return &testServer{t: t, srv: srv}
}

// do sends an authorized request and decodes the response into resp,
// checking the status code
func (ts *testServer) do(method, url string, body any, status int, resp any) {
	ts.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			ts.t.Fatalf("Unable to encode request: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, url, reader)
	req.Header.Set("Authorization", "Bearer "+testAccessKey)
	rec := httptest.NewRecorder()
	ts.srv.ServeHTTP(rec, req)
	if rec.Code != status {
		ts.t.Fatalf("%v %v: expected status %v, got %v: %s", method, url, status, rec.Code, rec.Body.String())
	}
	if resp != nil {
		if err := json.Unmarshal(rec.Body.Bytes(), resp); err != nil {
			ts.t.Fatalf("%v %v: unable to decode response: %v", method, url, err)
		}
	}
}

// expectError sends a request that must fail with the given
// status and error kind
func (ts *testServer) expectError(method, url string, body any, status int, kind string) {
	ts.t.Helper()
	var resp ErrorResponse
	ts.do(method, url, body, status, &resp)
	if resp.Error != kind {
		ts.t.Errorf("%v %v: expected error %v, got %v", method, url, kind, resp.Error)
	}
}

type moveReply struct {
	Move  MoveRecord `json:"move"`
	State State      `json:"state"`
}

func TestServerAuthorization(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/games", strings.NewReader("{}"))
	rec := httptest.NewRecorder()
	ts.srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %v", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Unexpected content type '%v'", ct)
	}
	// Warmup needs no authorization
	req = httptest.NewRequest(http.MethodGet, "/_ah/warmup", nil)
	rec = httptest.NewRecorder()
	ts.srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("Warmup failed: %v", rec.Code)
	}
	// Preflight requests get the CORS headers only
	req = httptest.NewRequest(http.MethodOptions, "/games", nil)
	rec = httptest.NewRecorder()
	ts.srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("Unexpected preflight response %v", rec.Code)
	}
}

func TestServerGame(t *testing.T) {
	ts := newTestServer(t)
	newGame := NewGameRequest{
		StartWord: "house",
		Players:   []PlayerRequest{{Name: "Anna"}, {Name: "Bob"}},
	}
	var state State
	ts.do(http.MethodPost, "/games", newGame, http.StatusCreated, &state)
	if state.ID == "" || state.StartWord != "house" || state.Board[2] != "house" {
		t.Fatalf("Unexpected new game %+v", state)
	}
	gameURL := "/games/" + state.ID

	var reply moveReply
	ts.do(http.MethodPost, gameURL+"/moves", MoveRequest{
		Letter: "s", At: "e2", Path: []string{"a3", "b3", "c3", "d3", "e3", "e2"},
	}, http.StatusOK, &reply)
	if reply.Move.Word != "houses" || reply.Move.Score != 6 || reply.State.Current != 1 {
		t.Errorf("Unexpected move reply %+v", reply)
	}
	ts.expectError(http.MethodPost, gameURL+"/moves", MoveRequest{
		Letter: "x", At: "a1", Path: []string{"a1"},
	}, http.StatusUnprocessableEntity, "CellNotAdjacent")
	ts.expectError(http.MethodPost, gameURL+"/moves", MoveRequest{
		Letter: "xy", At: "a2", Path: []string{"a2"},
	}, http.StatusUnprocessableEntity, "InvalidLetter")
	ts.expectError(http.MethodPost, gameURL+"/moves", MoveRequest{
		Letter: "m", At: "zz", Path: nil,
	}, http.StatusBadRequest, "BadRequest")
	// Nobody to hurry, and no computer to move
	ts.do(http.MethodPost, gameURL+"/hurry", nil, http.StatusAccepted, nil)
	ts.expectError(http.MethodPost, gameURL+"/generate", nil, http.StatusUnprocessableEntity, "NotPlayersTurn")
	ts.expectError(http.MethodPost, gameURL+"/step", nil, http.StatusConflict, "ReplayMode")

	ts.do(http.MethodGet, gameURL, nil, http.StatusOK, &state)
	if len(state.Moves) != 1 || state.Players[0].Score != 6 {
		t.Errorf("Unexpected game state %+v", state)
	}

	// Save, list and replay
	var saved SaveResponse
	ts.do(http.MethodPost, gameURL+"/save", nil, http.StatusOK, &saved)
	var saves SavesResponse
	ts.do(http.MethodGet, "/saves", nil, http.StatusOK, &saves)
	if len(saves.IDs) != 1 || saves.IDs[0] != state.ID || saved.ID != state.ID {
		t.Errorf("Unexpected saves %v", saves.IDs)
	}
	ts.do(http.MethodPost, "/games/load", LoadRequest{ID: state.ID, Replay: true}, http.StatusOK, &state)
	if !state.Replay || state.ReplayRemaining != 1 || len(state.Moves) != 0 {
		t.Errorf("Unexpected replay state %+v", state)
	}
	ts.expectError(http.MethodPost, gameURL+"/moves", MoveRequest{
		Letter: "m", At: "a2", Path: []string{"b3", "a3", "a2"},
	}, http.StatusUnprocessableEntity, "ReplayMode")
	ts.do(http.MethodPost, gameURL+"/step", nil, http.StatusOK, &reply)
	if reply.Move.Word != "houses" || reply.State.ReplayRemaining != 0 {
		t.Errorf("Unexpected step reply %+v", reply)
	}
	ts.expectError(http.MethodPost, gameURL+"/step", nil, http.StatusConflict, "ReplayMode")

	// Continue the saved game instead
	ts.do(http.MethodPost, "/games/load", LoadRequest{ID: state.ID}, http.StatusOK, &state)
	ts.do(http.MethodPost, gameURL+"/moves", MoveRequest{
		Letter: "m", At: "a2", Path: []string{"b3", "a3", "a2"},
	}, http.StatusOK, &reply)
	if reply.Move.Word != "ohm" || reply.State.Players[1].Score != 3 {
		t.Errorf("Unexpected move after loading %+v", reply)
	}

	ts.do(http.MethodDelete, gameURL, nil, http.StatusNoContent, nil)
	ts.expectError(http.MethodGet, gameURL, nil, http.StatusNotFound, "NotFound")
	ts.expectError(http.MethodPost, "/games/load", LoadRequest{ID: "nothing"}, http.StatusNotFound, "NotFound")
	ts.expectError(http.MethodPost, "/games/load", LoadRequest{ID: "../x"}, http.StatusBadRequest, "InvalidID")
}

// status returns the status code of an authorized GET request
func (ts *testServer) status(url string) int {
	req := httptest.NewRequest(http.MethodGet, url, nil)
	req.Header.Set("Authorization", "Bearer "+testAccessKey)
	rec := httptest.NewRecorder()
	ts.srv.ServeHTTP(rec, req)
	return rec.Code
}

func TestServerEvictsFinishedGames(t *testing.T) {
	ts := newTestServerWith(t, ServerOptions{Retention: 20 * time.Millisecond})
	one := 1
	newGame := NewGameRequest{
		StartWord:     "house",
		Players:       []PlayerRequest{{Name: "Anna"}, {Name: "Bob"}},
		MaxRejections: &one,
	}
	var finished, live State
	ts.do(http.MethodPost, "/games", newGame, http.StatusCreated, &finished)
	ts.do(http.MethodPost, "/games", newGame, http.StatusCreated, &live)
	ts.expectError(http.MethodPost, "/games/"+finished.ID+"/moves", MoveRequest{
		Letter: "x", At: "a1", Path: []string{"a1"},
	}, http.StatusUnprocessableEntity, "CellNotAdjacent")

	deadline := time.Now().Add(waitTimeout)
	for ts.status("/games/"+finished.ID) != http.StatusNotFound {
		if time.Now().After(deadline) {
			t.Fatalf("Finished game was not evicted")
		}
		time.Sleep(5 * time.Millisecond)
	}
	var state State
	ts.do(http.MethodGet, "/games/"+live.ID, nil, http.StatusOK, &state)
	if state.Finished {
		t.Errorf("Live game ended: %+v", state)
	}
}

func TestServerNewGameErrors(t *testing.T) {
	ts := newTestServer(t)
	players := []PlayerRequest{{Name: "Anna"}, {Name: "Robot", Kind: "computer", Difficulty: "hard"}}
	ts.expectError(http.MethodPost, "/games", NewGameRequest{StartWord: "ho", Players: players},
		http.StatusBadRequest, StartWordTooShort.String())
	ts.expectError(http.MethodPost, "/games", NewGameRequest{StartWord: "house", Players: players[:1]},
		http.StatusBadRequest, BadPlayerCount.String())
	ts.expectError(http.MethodPost, "/games", NewGameRequest{StartWord: "house", Players: players, BoardSize: 4},
		http.StatusBadRequest, BadRules.String())
	ts.expectError(http.MethodPost, "/games", NewGameRequest{StartWord: "house", Players: players, Adjacency: "six"},
		http.StatusBadRequest, BadRules.String())
	bad := []PlayerRequest{{Name: "Anna"}, {Name: "Robot", Kind: "computer", Difficulty: "insane"}}
	ts.expectError(http.MethodPost, "/games", NewGameRequest{StartWord: "house", Players: bad},
		http.StatusBadRequest, BadPlayerSettings.String())
	ts.expectError(http.MethodPost, "/games", NewGameRequest{Language: "ru", StartWord: "дом", Players: players},
		http.StatusServiceUnavailable, "VocabularyUnavailable")
	ts.expectError(http.MethodPost, "/games", NewGameRequest{Language: "xx", Players: players},
		http.StatusServiceUnavailable, "VocabularyUnavailable")

	// A random start word with eight-way adjacency
	var state State
	ts.do(http.MethodPost, "/games", NewGameRequest{Players: players, Adjacency: "eight"}, http.StatusCreated, &state)
	if n := RuneCount(state.StartWord); n < MinStartWordLength || n > DefaultBoardSize {
		t.Errorf("Bad random start word '%v'", state.StartWord)
	}
	if state.Players[1].Kind != Computer || state.Players[1].Difficulty != Hard {
		t.Errorf("Unexpected computer player %+v", state.Players[1])
	}
}

func TestServerWords(t *testing.T) {
	ts := newTestServer(t)
	var check WordCheckResponse
	ts.do(http.MethodPost, "/wordcheck", WordCheckRequest{
		Word: "House", Words: []string{"hoses", "xyzzy"},
	}, http.StatusOK, &check)
	if !check.Ok || len(check.Valid) != 2 || !check.Valid[0].Valid || check.Valid[1].Valid {
		t.Errorf("Unexpected word check %+v", check)
	}
	var random RandomWordResponse
	ts.do(http.MethodGet, "/randomword?max=3", nil, http.StatusOK, &random)
	if random.Language != English || RuneCount(random.Word) != 3 {
		t.Errorf("Unexpected random word %+v", random)
	}
	ts.expectError(http.MethodGet, "/randomword?max=x", nil, http.StatusBadRequest, "BadRequest")
	ts.expectError(http.MethodGet, "/nowhere", nil, http.StatusNotFound, "NotFound")
}
