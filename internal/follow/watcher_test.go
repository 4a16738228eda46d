package follow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/voxtape/voxtape/internal/core"
)

func TestDiffFirstSnapshotReplaysEverything(t *testing.T) {
	current := &core.Session{
		Transcript: []core.TranscriptTurn{
			{Role: core.RoleUser, Content: "hello", Timestamp: 100},
			{Role: core.RoleAssistant, Content: "hi", Timestamp: 101.2, Latency: 1.2},
		},
		FreezeEvents:   []core.FreezeEvent{{StartTime: 103, EndTime: 105, Duration: 2}},
		LatencyMetrics: map[string]float64{"average_latency": 1.2},
		AudioURL:       "/recordings/abc.wav",
	}

	events := Diff(nil, current)

	var turns, freezes, metrics, recordings int
	for _, ev := range events {
		switch ev.Kind {
		case EventTurn:
			turns++
		case EventFreeze:
			freezes++
		case EventMetrics:
			metrics++
		case EventRecording:
			recordings++
		}
	}
	if turns != 2 || freezes != 1 || metrics != 1 || recordings != 1 {
		t.Errorf("events = %d turns, %d freezes, %d metrics, %d recordings; want 2/1/1/1",
			turns, freezes, metrics, recordings)
	}
}

func TestDiffEmitsOnlyNewState(t *testing.T) {
	prev := &core.Session{
		Transcript: []core.TranscriptTurn{
			{Role: core.RoleUser, Content: "hello", Timestamp: 100},
		},
		LatencyMetrics: map[string]float64{"average_latency": 1.2},
	}
	current := &core.Session{
		Transcript: []core.TranscriptTurn{
			{Role: core.RoleUser, Content: "hello", Timestamp: 100},
			{Role: core.RoleAssistant, Content: "hi", Timestamp: 104, Latency: 4},
		},
		LatencyMetrics: map[string]float64{"average_latency": 4},
	}

	events := Diff(prev, current)

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2 (new turn + metrics change)", len(events))
	}
	if events[0].Kind != EventTurn || events[0].Turn.Content != "hi" {
		t.Errorf("first event = %+v, want the new assistant turn", events[0])
	}
	if events[1].Kind != EventMetrics {
		t.Errorf("second event kind = %v, want EventMetrics", events[1].Kind)
	}
}

func TestDiffNoChanges(t *testing.T) {
	session := &core.Session{
		Transcript:     []core.TranscriptTurn{{Role: core.RoleUser, Content: "hello"}},
		LatencyMetrics: map[string]float64{"average_latency": 1},
	}
	if events := Diff(session, session); len(events) != 0 {
		t.Errorf("Diff(same, same) = %d events, want 0", len(events))
	}
}

type fakeFetcher struct {
	mu        sync.Mutex
	snapshots []*core.Session
	calls     int
	err       error
}

func (f *fakeFetcher) GetSession(ctx context.Context, id string) (*core.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	idx := f.calls
	if idx >= len(f.snapshots) {
		idx = len(f.snapshots) - 1
	}
	f.calls++
	return f.snapshots[idx], nil
}

func TestWatcherEmitsAcrossPolls(t *testing.T) {
	first := &core.Session{
		Transcript: []core.TranscriptTurn{{Role: core.RoleUser, Content: "hello", Timestamp: 100}},
	}
	second := &core.Session{
		Transcript: []core.TranscriptTurn{
			{Role: core.RoleUser, Content: "hello", Timestamp: 100},
			{Role: core.RoleAssistant, Content: "hi", Timestamp: 101, Latency: 1},
		},
	}

	fetcher := &fakeFetcher{snapshots: []*core.Session{first, second}}
	w := NewWatcher(fetcher, "abc", 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	var got []Event
	deadline := time.After(2 * time.Second)
	for len(got) < 2 {
		select {
		case ev, ok := <-w.Events():
			if !ok {
				t.Fatal("event channel closed early")
			}
			got = append(got, ev)
		case <-deadline:
			t.Fatalf("timed out with %d events", len(got))
		}
	}

	if got[0].Turn == nil || got[0].Turn.Content != "hello" {
		t.Errorf("first event = %+v, want the user turn", got[0])
	}
	if got[1].Turn == nil || got[1].Turn.Content != "hi" {
		t.Errorf("second event = %+v, want the assistant turn", got[1])
	}
}

func TestWatcherReportsFetchErrors(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("backend down")}
	w := NewWatcher(fetcher, "abc", 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	select {
	case err := <-w.Errs():
		if err == nil {
			t.Error("got nil error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no error reported")
	}
}

func TestFormatterTurnLine(t *testing.T) {
	f := &Formatter{Plain: true}

	line := f.Format(Event{
		Kind: EventTurn,
		Turn: &core.TranscriptTurn{Role: core.RoleAssistant, Content: "hi there", Timestamp: 101.2, Latency: 1.2},
	})

	if !strings.Contains(line, "assistant: hi there") {
		t.Errorf("line = %q, want role and content", line)
	}
	if !strings.Contains(line, "(1.20s)") {
		t.Errorf("line = %q, want latency suffix", line)
	}
}

func TestFormatterFreezeLine(t *testing.T) {
	f := &Formatter{Plain: true}

	line := f.Format(Event{
		Kind:   EventFreeze,
		Freeze: &core.FreezeEvent{StartTime: 103, EndTime: 105, Duration: 2},
	})

	if !strings.Contains(line, "freeze") || !strings.Contains(line, "2.0s") {
		t.Errorf("line = %q, want freeze with duration", line)
	}
}

func TestFormatterTimestampPrefix(t *testing.T) {
	f := &Formatter{Plain: true, ShowTimestamps: true}

	when := time.Date(2026, 8, 27, 9, 30, 5, 0, time.UTC)
	line := f.Format(Event{
		Kind: EventTurn,
		Time: when,
		Turn: &core.TranscriptTurn{Role: core.RoleUser, Content: "hello"},
	})

	if !strings.HasPrefix(line, "09:30:05 ") {
		t.Errorf("line = %q, want timestamp prefix", line)
	}
}

func TestFormatterMetricsSorted(t *testing.T) {
	f := &Formatter{Plain: true}

	line := f.Format(Event{
		Kind:    EventMetrics,
		Metrics: map[string]float64{"p95_latency": 3.5, "average_latency": 1.25},
	})

	want := "metrics average_latency=1.25 p95_latency=3.50"
	if line != want {
		t.Errorf("line = %q, want %q", line, want)
	}
}
