// Package timeline maps wall-clock transcript timestamps onto the
// playback timeline and back. Transcript events carry absolute epoch
// timestamps while the audio exposes only a 0-based position; the
// functions here reconcile the two.
//
// Everything in this package is a pure function of its inputs. The
// visible marker set is recomputed from (transcript, duration) on
// every render, never cached.
package timeline

import (
	"fmt"
	"math"

	"github.com/voxtape/voxtape/internal/core"
)

// Marker is a latency event projected onto the timeline. Position is
// a fraction in [0, 1]; Latency is the raw measured seconds. TurnIndex
// points back into the transcript so presentation can link a marker to
// its turn.
type Marker struct {
	Position  float64 `json:"position"`
	Latency   float64 `json:"latency"`
	TurnIndex int     `json:"turn_index"`
}

// Label returns the marker's latency formatted for display, e.g. "1.20s".
func (m Marker) Label() string {
	return fmt.Sprintf("%.2fs", m.Latency)
}

// Span is a freeze interval projected onto the timeline, with both
// endpoints clipped into [0, 1].
type Span struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// StartTime returns the assumed wall-clock instant of audio position 0:
// the first transcript turn's timestamp, or 0 for an empty transcript.
//
// This is a heuristic, not a guarantee. It assumes the first transcript
// entry coincides with recording start; replacing it with an
// authoritative recording-start timestamp only requires swapping this
// function.
func StartTime(turns []core.TranscriptTurn) float64 {
	if len(turns) == 0 {
		return 0
	}
	return turns[0].Timestamp
}

// Markers projects every assistant turn with a measured latency onto
// the timeline. Turns whose relative time falls outside [0, duration]
// are excluded rather than clamped into a wrong position. The result
// preserves transcript order; it is empty whenever the duration is
// unknown or zero.
func Markers(turns []core.TranscriptTurn, startTime, duration float64) []Marker {
	if duration <= 0 || math.IsNaN(duration) {
		return nil
	}

	var markers []Marker
	for i, turn := range turns {
		if !turn.HasLatency() {
			continue
		}
		rel := turn.Timestamp - startTime
		if rel < 0 || rel > duration || math.IsNaN(rel) {
			continue
		}
		markers = append(markers, Marker{
			Position:  rel / duration,
			Latency:   turn.Latency,
			TurnIndex: i,
		})
	}
	return markers
}

// FreezeSpans projects freeze events onto the timeline, clipping each
// interval to the visible window. Events entirely outside the window,
// or with a non-positive extent, are excluded.
func FreezeSpans(events []core.FreezeEvent, startTime, duration float64) []Span {
	if duration <= 0 || math.IsNaN(duration) {
		return nil
	}

	var spans []Span
	for _, ev := range events {
		start := ev.StartTime - startTime
		end := ev.EndTime - startTime
		if math.IsNaN(start) || math.IsNaN(end) || end <= start {
			continue
		}
		if end < 0 || start > duration {
			continue
		}
		spans = append(spans, Span{
			Start: clamp(start/duration, 0, 1),
			End:   clamp(end/duration, 0, 1),
		})
	}
	return spans
}

// TimeAtFraction translates a click fraction on the timeline into an
// absolute time in seconds, clamped into [0, duration]. Pointer input
// is approximate, so out-of-range fractions clamp silently.
func TimeAtFraction(fraction, duration float64) float64 {
	if duration <= 0 || math.IsNaN(duration) || math.IsNaN(fraction) {
		return 0
	}
	return clamp(fraction*duration, 0, duration)
}

// FormatClock renders seconds as M:SS, flooring to whole seconds.
// Negative or NaN input degrades to "0:00".
func FormatClock(seconds float64) string {
	if math.IsNaN(seconds) || seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
