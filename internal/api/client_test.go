package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/voxtape/voxtape/internal/core"
	verrors "github.com/voxtape/voxtape/internal/errors"
)

func TestGetSession(t *testing.T) {
	session := core.Session{
		ID: "abc-123",
		Transcript: []core.TranscriptTurn{
			{Role: core.RoleUser, Content: "hello", Timestamp: 100},
			{Role: core.RoleAssistant, Content: "hi", Timestamp: 101.5, Latency: 1.5},
		},
		LatencyMetrics: map[string]float64{"average_latency": 1.5},
		AudioURL:       "/recordings/abc-123.wav",
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/sessions/abc-123" {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Session not found"})
			return
		}
		json.NewEncoder(w).Encode(session)
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)

	got, err := c.GetSession(context.Background(), "abc-123")
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if got.ID != "abc-123" {
		t.Errorf("ID = %q, want abc-123", got.ID)
	}
	if len(got.Transcript) != 2 {
		t.Errorf("transcript length = %d, want 2", len(got.Transcript))
	}
	if got.Transcript[1].Latency != 1.5 {
		t.Errorf("assistant latency = %v, want 1.5", got.Transcript[1].Latency)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Session not found"})
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)

	_, err := c.GetSession(context.Background(), "missing")
	if !errors.Is(err, verrors.ErrSessionNotFound) {
		t.Errorf("GetSession() error = %v, want ErrSessionNotFound", err)
	}
}

func TestListSessions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/sessions" || r.Method != "GET" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode([]core.Session{{ID: "a"}, {ID: "b"}})
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)

	sessions, err := c.ListSessions(context.Background())
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(sessions) != 2 {
		t.Errorf("got %d sessions, want 2", len(sessions))
	}
}

func TestUpdateTranscript(t *testing.T) {
	var received []core.TranscriptTurn

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "PATCH" || r.URL.Path != "/api/sessions/abc/transcript" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode body: %v", err)
		}
		json.NewEncoder(w).Encode(core.Session{ID: "abc", Transcript: received})
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)

	turns := []core.TranscriptTurn{{Role: core.RoleUser, Content: "hey", Timestamp: 50}}
	updated, err := c.UpdateTranscript(context.Background(), "abc", turns)
	if err != nil {
		t.Fatalf("UpdateTranscript() error = %v", err)
	}
	if len(received) != 1 || received[0].Content != "hey" {
		t.Errorf("server received %+v, want the sent transcript", received)
	}
	if len(updated.Transcript) != 1 {
		t.Errorf("updated transcript length = %d, want 1", len(updated.Transcript))
	}
}

func TestRetriesServerErrors(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode([]core.Session{})
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)

	if _, err := c.ListSessions(context.Background()); err != nil {
		t.Fatalf("ListSessions() error = %v, want success after retries", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestDoesNotRetryClientErrors(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"detail": "bad request"})
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)

	_, err := c.ListSessions(context.Background())
	if err == nil {
		t.Fatal("ListSessions() succeeded, want error")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (no retry on 4xx)", attempts)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest {
		t.Errorf("error = %v, want APIError with status 400", err)
	}
}

func TestResolveRecordingURL(t *testing.T) {
	c := New("http://backend:8000", 5*time.Second)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty stays empty", "", ""},
		{"root-relative", "/recordings/x.wav", "http://backend:8000/recordings/x.wav"},
		{"absolute passes through", "https://cdn.example.com/x.wav", "https://cdn.example.com/x.wav"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.ResolveRecordingURL(tt.in); got != tt.want {
				t.Errorf("ResolveRecordingURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDownloadRecording(t *testing.T) {
	payload := []byte("RIFF....WAVEfake-audio-bytes")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/recordings/abc.wav" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write(payload)
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	dir := t.TempDir()

	path, err := c.DownloadRecording(context.Background(), "/recordings/abc.wav", dir, "abc")
	if err != nil {
		t.Fatalf("DownloadRecording() error = %v", err)
	}
	if path != filepath.Join(dir, "abc.wav") {
		t.Errorf("path = %q, want %q", path, filepath.Join(dir, "abc.wav"))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != string(payload) {
		t.Error("downloaded bytes differ from served bytes")
	}
}

func TestDownloadRecordingNoURL(t *testing.T) {
	c := New("http://backend:8000", 5*time.Second)

	_, err := c.DownloadRecording(context.Background(), "", t.TempDir(), "abc")
	if !errors.Is(err, verrors.ErrNoRecording) {
		t.Errorf("error = %v, want ErrNoRecording", err)
	}
}
