package core

import "time"

// Role identifies the speaker of a transcript turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// TranscriptTurn is one utterance in a recorded conversation.
// Timestamp is absolute wall-clock epoch seconds as produced by the
// recorder; Latency is the seconds elapsed before the assistant
// produced this turn and is meaningful only for assistant turns
// (zero or negative means "not measured").
type TranscriptTurn struct {
	Role      Role    `json:"role"`
	Content   string  `json:"content"`
	Timestamp float64 `json:"timestamp"`
	Latency   float64 `json:"latency"`
}

// IsAssistant returns true for assistant turns.
func (t TranscriptTurn) IsAssistant() bool {
	return t.Role == RoleAssistant
}

// HasLatency returns true if the turn carries a measured latency.
func (t TranscriptTurn) HasLatency() bool {
	return t.IsAssistant() && t.Latency > 0
}

// FreezeEvent is a detected playback freeze. Start and end are
// wall-clock epoch seconds on the same clock as turn timestamps.
type FreezeEvent struct {
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Duration  float64 `json:"duration"`
}

// Session is one recorded voice-agent conversation.
type Session struct {
	ID             string             `json:"id"`
	CreatedAt      time.Time          `json:"created_at"`
	Transcript     []TranscriptTurn   `json:"transcript"`
	FreezeEvents   []FreezeEvent      `json:"freeze_events"`
	LatencyMetrics map[string]float64 `json:"latency_metrics"`
	AudioURL       string             `json:"audio_url,omitempty"`
}

// HasRecording returns true if the session carries an audio recording.
func (s *Session) HasRecording() bool {
	return s != nil && s.AudioURL != ""
}

// AssistantTurns returns the number of assistant turns in the transcript.
func (s *Session) AssistantTurns() int {
	n := 0
	for _, t := range s.Transcript {
		if t.IsAssistant() {
			n++
		}
	}
	return n
}

// AverageLatency recomputes the recorder's mean-assistant-latency
// metric over the given transcript. Turns without a measured latency
// are excluded; an empty input yields 0.
func AverageLatency(turns []TranscriptTurn) float64 {
	var sum float64
	var n int
	for _, t := range turns {
		if t.HasLatency() {
			sum += t.Latency
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
