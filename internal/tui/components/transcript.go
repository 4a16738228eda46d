package components

import (
	"fmt"
	"strings"

	"github.com/voxtape/voxtape/internal/core"
	"github.com/voxtape/voxtape/internal/timeline"
	"github.com/voxtape/voxtape/internal/tui/styles"
)

// Transcript renders the conversation with the playhead turn
// highlighted and latency annotations on assistant turns.
type Transcript struct {
	scroll int
}

// NewTranscript creates a transcript component.
func NewTranscript() *Transcript {
	return &Transcript{}
}

// ScrollDown moves the viewport down one turn.
func (t *Transcript) ScrollDown(total, visible int) {
	if t.scroll < total-visible {
		t.scroll++
	}
}

// ScrollUp moves the viewport up one turn.
func (t *Transcript) ScrollUp() {
	if t.scroll > 0 {
		t.scroll--
	}
}

// ScrollTo centers the viewport on the given turn.
func (t *Transcript) ScrollTo(idx, total, visible int) {
	target := idx - visible/2
	max := total - visible
	if max < 0 {
		max = 0
	}
	if target > max {
		target = max
	}
	if target < 0 {
		target = 0
	}
	t.scroll = target
}

// CurrentTurn returns the index of the last turn at or before the
// playback position, or -1 before the first turn.
func CurrentTurn(turns []core.TranscriptTurn, startTime, position float64) int {
	current := -1
	for i, turn := range turns {
		if turn.Timestamp-startTime <= position {
			current = i
		} else {
			break
		}
	}
	return current
}

// Render draws the transcript viewport.
func (t *Transcript) Render(turns []core.TranscriptTurn, startTime, position float64, width, height int, latencyWarn float64) string {
	if len(turns) == 0 {
		return styles.Muted.Render("Transcript is empty")
	}
	if height < 1 {
		height = 1
	}

	current := CurrentTurn(turns, startTime, position)

	// Keep the playhead turn inside the viewport while playing.
	if current >= 0 && (current < t.scroll || current >= t.scroll+height) {
		t.ScrollTo(current, len(turns), height)
	}

	end := t.scroll + height
	if end > len(turns) {
		end = len(turns)
	}

	var lines []string
	for i := t.scroll; i < end; i++ {
		lines = append(lines, t.renderTurn(turns[i], startTime, i == current, width, latencyWarn))
	}
	return strings.Join(lines, "\n")
}

func (t *Transcript) renderTurn(turn core.TranscriptTurn, startTime float64, active bool, width int, latencyWarn float64) string {
	cursor := "  "
	if active {
		cursor = styles.Highlight.Render("▌ ")
	}

	clock := styles.Dim.Render(timeline.FormatClock(turn.Timestamp - startTime))

	var role string
	if turn.IsAssistant() {
		role = styles.Assistant.Render("assistant")
	} else {
		role = styles.User.Render(string(turn.Role))
	}

	suffix := ""
	if turn.HasLatency() {
		label := fmt.Sprintf(" (%.2fs)", turn.Latency)
		if turn.Latency >= latencyWarn {
			suffix = styles.LatencyHigh.Render(label)
		} else {
			suffix = styles.Latency.Render(label)
		}
	}

	content := turn.Content
	// Budget: cursor(2) + clock(5ish) + spaces + role + suffix.
	budget := width - 2 - 6 - len(turn.Role) - 2 - len(fmt.Sprintf(" (%.2fs)", turn.Latency))
	if budget > 3 && len(content) > budget {
		content = content[:budget-1] + "…"
	}

	return fmt.Sprintf("%s%s %s: %s%s", cursor, clock, role, content, suffix)
}
