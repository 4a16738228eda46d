package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/voxtape/voxtape/internal/config"
	"github.com/voxtape/voxtape/internal/core"
	"github.com/voxtape/voxtape/internal/store"
)

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	st, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.ServeConfig{ListenAddr: "127.0.0.1:0", CORSOrigins: []string{"*"}}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(cfg, st, log), st
}

func seedSession(t *testing.T, st *store.Store, id string) *core.Session {
	t.Helper()
	session := &core.Session{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		Transcript: []core.TranscriptTurn{
			{Role: core.RoleUser, Content: "hello", Timestamp: 100},
			{Role: core.RoleAssistant, Content: "hi", Timestamp: 101.5, Latency: 1.5},
		},
		FreezeEvents: []core.FreezeEvent{{StartTime: 103, EndTime: 105, Duration: 2}},
	}
	if err := st.Put(session); err != nil {
		t.Fatal(err)
	}
	return session
}

func TestListSessions(t *testing.T) {
	srv, st := newTestServer(t)
	seedSession(t, st, "abc")

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest("GET", "/api/sessions", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var summaries []struct {
		core.Session
		TurnCount   int `json:"turn_count"`
		FreezeCount int `json:"freeze_count"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&summaries); err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 1 {
		t.Fatalf("got %d sessions, want 1", len(summaries))
	}
	if summaries[0].TurnCount != 2 || summaries[0].FreezeCount != 1 {
		t.Errorf("counts = %d/%d, want 2/1", summaries[0].TurnCount, summaries[0].FreezeCount)
	}
}

func TestGetSession(t *testing.T) {
	srv, st := newTestServer(t)
	seedSession(t, st, "abc")

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest("GET", "/api/sessions/abc", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var session core.Session
	if err := json.NewDecoder(rec.Body).Decode(&session); err != nil {
		t.Fatal(err)
	}
	if session.ID != "abc" || len(session.Transcript) != 2 {
		t.Errorf("session = %+v, want the seeded session", session)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest("GET", "/api/sessions/missing", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["detail"] != "Session not found" {
		t.Errorf("detail = %q, want %q", body["detail"], "Session not found")
	}
}

func TestCreateSessionAssignsID(t *testing.T) {
	srv, st := newTestServer(t)

	payload, _ := json.Marshal(core.Session{CreatedAt: time.Now().UTC()})
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest("POST", "/api/sessions", bytes.NewReader(payload)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	var created core.Session
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}
	if created.ID == "" {
		t.Fatal("created session has no id")
	}
	if _, err := st.Get(created.ID); err != nil {
		t.Errorf("created session not in store: %v", err)
	}
}

func TestUpdateTranscriptRecomputesAverage(t *testing.T) {
	srv, st := newTestServer(t)
	seedSession(t, st, "abc")

	turns := []core.TranscriptTurn{
		{Role: core.RoleUser, Content: "q1", Timestamp: 10},
		{Role: core.RoleAssistant, Content: "a1", Timestamp: 11, Latency: 1},
		{Role: core.RoleAssistant, Content: "a2", Timestamp: 14, Latency: 3},
	}
	payload, _ := json.Marshal(turns)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest("PATCH", "/api/sessions/abc/transcript", bytes.NewReader(payload)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	updated, err := st.Get("abc")
	if err != nil {
		t.Fatal(err)
	}
	if len(updated.Transcript) != 3 {
		t.Errorf("transcript length = %d, want 3", len(updated.Transcript))
	}
	if got := updated.LatencyMetrics["average_latency"]; got != 2 {
		t.Errorf("average_latency = %v, want 2", got)
	}
}

func TestUpdateFreezeEvents(t *testing.T) {
	srv, st := newTestServer(t)
	seedSession(t, st, "abc")

	events := []core.FreezeEvent{
		{StartTime: 103, EndTime: 105, Duration: 2},
		{StartTime: 110, EndTime: 118, Duration: 8},
	}
	payload, _ := json.Marshal(events)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest("PATCH", "/api/sessions/abc/freeze_events", bytes.NewReader(payload)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	updated, err := st.Get("abc")
	if err != nil {
		t.Fatal(err)
	}
	if len(updated.FreezeEvents) != 2 {
		t.Errorf("freeze events = %d, want 2", len(updated.FreezeEvents))
	}
}

func TestPatchMissingSession(t *testing.T) {
	srv, _ := newTestServer(t)

	payload, _ := json.Marshal([]core.TranscriptTurn{})
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest("PATCH", "/api/sessions/nope/transcript", bytes.NewReader(payload)))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestServeRecording(t *testing.T) {
	srv, st := newTestServer(t)
	seedSession(t, st, "abc")

	audio := []byte("RIFF....WAVEfake")
	path := filepath.Join(st.Dir(), "recordings", "abc.wav")
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest("GET", "/recordings/abc.wav", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.Bytes(); string(got) != string(audio) {
		t.Error("served bytes differ from stored recording")
	}
}

func TestServeRecordingMissing(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest("GET", "/recordings/nope.wav", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v, want ok", body["status"])
	}
}
