package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/voxtape/voxtape/internal/core"
	verrors "github.com/voxtape/voxtape/internal/errors"
)

func TestPutAndGet(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	session := &core.Session{
		CreatedAt: time.Now().UTC(),
		Transcript: []core.TranscriptTurn{
			{Role: core.RoleUser, Content: "hello", Timestamp: 100},
			{Role: core.RoleAssistant, Content: "hi", Timestamp: 101.2, Latency: 1.2},
		},
		FreezeEvents:   []core.FreezeEvent{{StartTime: 103, EndTime: 105, Duration: 2}},
		LatencyMetrics: map[string]float64{"average_latency": 1.2},
	}

	if err := s.Put(session); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if session.ID == "" {
		t.Fatal("Put() did not assign an id")
	}

	got, err := s.Get(session.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(got.Transcript) != 2 {
		t.Errorf("transcript length = %d, want 2", len(got.Transcript))
	}
	if got.Transcript[1].Latency != 1.2 {
		t.Errorf("latency = %v, want 1.2", got.Transcript[1].Latency)
	}
	if len(got.FreezeEvents) != 1 {
		t.Errorf("freeze events = %d, want 1", len(got.FreezeEvents))
	}
}

func TestGetMissing(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	_, err = s.Get("nope")
	if !errors.Is(err, verrors.ErrSessionNotFound) {
		t.Errorf("Get() error = %v, want ErrSessionNotFound", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	old := &core.Session{ID: "old", CreatedAt: time.Now().Add(-time.Hour)}
	recent := &core.Session{ID: "recent", CreatedAt: time.Now()}
	for _, sess := range []*core.Session{old, recent} {
		if err := s.Put(sess); err != nil {
			t.Fatal(err)
		}
	}

	sessions, err := s.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("List() returned %d sessions, want 2", len(sessions))
	}
	if sessions[0].ID != "recent" || sessions[1].ID != "old" {
		t.Errorf("order = [%s %s], want newest first", sessions[0].ID, sessions[1].ID)
	}
}

func TestListSkipsCorruptFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Put(&core.Session{ID: "good"}); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	sessions, err := s.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != "good" {
		t.Errorf("List() = %+v, want just the readable session", sessions)
	}
}

func TestRecordingPath(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := s.RecordingPath("abc"); ok {
		t.Error("RecordingPath reported a recording that does not exist")
	}

	path := filepath.Join(dir, "recordings", "abc.wav")
	if err := os.WriteFile(path, []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, ok := s.RecordingPath("abc")
	if !ok {
		t.Fatal("RecordingPath did not find the recording")
	}
	if got != path {
		t.Errorf("path = %q, want %q", got, path)
	}
}
