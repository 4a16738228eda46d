// Package follow watches a live session and turns backend state
// changes into a stream of review events.
package follow

import (
	"context"
	"time"

	"github.com/voxtape/voxtape/internal/core"
)

// EventKind identifies what changed between two session snapshots.
type EventKind int

const (
	EventTurn EventKind = iota
	EventFreeze
	EventMetrics
	EventRecording
)

// Event is one observed session change.
type Event struct {
	Kind    EventKind
	Time    time.Time
	Turn    *core.TranscriptTurn
	Freeze  *core.FreezeEvent
	Metrics map[string]float64
	// AudioURL is set for EventRecording.
	AudioURL string
}

// Fetcher fetches the current state of a session. The backend API
// client satisfies this.
type Fetcher interface {
	GetSession(ctx context.Context, id string) (*core.Session, error)
}

// Watcher polls a session and emits events for each change.
type Watcher struct {
	fetcher   Fetcher
	sessionID string
	interval  time.Duration

	events chan Event
	errs   chan error
}

// NewWatcher creates a watcher for the given session. interval is the
// poll period; zero means one second.
func NewWatcher(fetcher Fetcher, sessionID string, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = time.Second
	}
	return &Watcher{
		fetcher:   fetcher,
		sessionID: sessionID,
		interval:  interval,
		events:    make(chan Event, 16),
		errs:      make(chan error, 1),
	}
}

// Events returns the event stream. Events are dropped when the
// receiver falls more than a buffer behind.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errs reports fetch errors. Polling continues after an error; the
// next successful fetch resumes diffing from the last good snapshot.
func (w *Watcher) Errs() <-chan error {
	return w.errs
}

// Start polls until ctx is cancelled. The initial snapshot emits
// events for all existing state, so a late follower still sees the
// whole transcript.
func (w *Watcher) Start(ctx context.Context) {
	defer close(w.events)

	var prev *core.Session

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		current, err := w.fetcher.GetSession(ctx, w.sessionID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			select {
			case w.errs <- err:
			default:
			}
		} else {
			for _, ev := range Diff(prev, current) {
				w.emit(ev)
			}
			prev = current
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Watcher) emit(ev Event) {
	select {
	case w.events <- ev:
	default:
		// Receiver is behind; drop rather than stall polling.
	}
}

// Diff computes the events that take prev to current. A nil prev is
// an empty session, so the first snapshot replays everything.
func Diff(prev, current *core.Session) []Event {
	if current == nil {
		return nil
	}

	var prevTurns, prevFreezes int
	var prevAudio string
	var prevMetrics map[string]float64
	if prev != nil {
		prevTurns = len(prev.Transcript)
		prevFreezes = len(prev.FreezeEvents)
		prevAudio = prev.AudioURL
		prevMetrics = prev.LatencyMetrics
	}

	now := time.Now()
	var events []Event

	for i := prevTurns; i < len(current.Transcript); i++ {
		turn := current.Transcript[i]
		events = append(events, Event{Kind: EventTurn, Time: now, Turn: &turn})
	}
	for i := prevFreezes; i < len(current.FreezeEvents); i++ {
		freeze := current.FreezeEvents[i]
		events = append(events, Event{Kind: EventFreeze, Time: now, Freeze: &freeze})
	}
	if metricsChanged(prevMetrics, current.LatencyMetrics) {
		events = append(events, Event{Kind: EventMetrics, Time: now, Metrics: current.LatencyMetrics})
	}
	if current.AudioURL != "" && current.AudioURL != prevAudio {
		events = append(events, Event{Kind: EventRecording, Time: now, AudioURL: current.AudioURL})
	}

	return events
}

func metricsChanged(prev, current map[string]float64) bool {
	if len(current) == 0 {
		return false
	}
	if len(prev) != len(current) {
		return true
	}
	for k, v := range current {
		if pv, ok := prev[k]; !ok || pv != v {
			return true
		}
	}
	return false
}
