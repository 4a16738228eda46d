package core

import "time"

// PlayerState is the controller's coarse playback state.
type PlayerState int

const (
	StateNoSource PlayerState = iota
	StateLoading
	StatePaused
	StatePlaying
	StateEnded
)

// String returns a human-readable state name.
func (s PlayerState) String() string {
	switch s {
	case StateNoSource:
		return "no source"
	case StateLoading:
		return "loading"
	case StatePaused:
		return "paused"
	case StatePlaying:
		return "playing"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// PlaybackState is a snapshot of the playback clock. Duration is zero
// until the source has reported its metadata; all fraction math must
// guard on Duration > 0.
type PlaybackState struct {
	State    PlayerState   `json:"state"`
	Current  time.Duration `json:"current"`
	Duration time.Duration `json:"duration"`
	Playing  bool          `json:"is_playing"`
}

// HasDuration returns true once the source metadata is known.
func (s PlaybackState) HasDuration() bool {
	return s.Duration > 0
}

// ProgressFraction returns playback progress in [0, 1], or 0 while the
// duration is unknown.
func (s PlaybackState) ProgressFraction() float64 {
	if s.Duration == 0 {
		return 0
	}
	f := float64(s.Current) / float64(s.Duration)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// ProgressPercent returns playback progress as a percentage (0-100).
func (s PlaybackState) ProgressPercent() float64 {
	return s.ProgressFraction() * 100
}
