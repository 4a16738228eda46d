package follow

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/voxtape/voxtape/internal/core"
)

var (
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	latencyOkStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	latencyHiStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	freezeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	metaStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Formatter renders follow events as terminal lines.
type Formatter struct {
	// ShowTimestamps prefixes each line with the wall-clock time the
	// event was observed.
	ShowTimestamps bool
	// LatencyWarn is the threshold above which a response latency is
	// highlighted. Zero means 2 seconds.
	LatencyWarn float64
	// Plain disables color for non-TTY output.
	Plain bool
}

// Format renders one event as a single line, without a trailing
// newline.
func (f *Formatter) Format(ev Event) string {
	var b strings.Builder

	if f.ShowTimestamps {
		b.WriteString(f.style(metaStyle, ev.Time.Format("15:04:05")))
		b.WriteString(" ")
	}

	switch ev.Kind {
	case EventTurn:
		f.writeTurn(&b, ev.Turn)
	case EventFreeze:
		b.WriteString(f.style(freezeStyle, "⏸ freeze"))
		if ev.Freeze != nil {
			fmt.Fprintf(&b, " %.1fs (%.1f → %.1f)", ev.Freeze.Duration, ev.Freeze.StartTime, ev.Freeze.EndTime)
		}
	case EventMetrics:
		b.WriteString(f.style(metaStyle, "metrics"))
		b.WriteString(" ")
		b.WriteString(formatMetrics(ev.Metrics))
	case EventRecording:
		b.WriteString(f.style(metaStyle, "recording available"))
		b.WriteString(" ")
		b.WriteString(ev.AudioURL)
	}

	return b.String()
}

func (f *Formatter) writeTurn(b *strings.Builder, turn *core.TranscriptTurn) {
	if turn == nil {
		return
	}

	if turn.IsAssistant() {
		b.WriteString(f.style(assistantStyle, "assistant"))
	} else {
		b.WriteString(f.style(userStyle, string(turn.Role)))
	}
	b.WriteString(": ")
	b.WriteString(turn.Content)

	if turn.HasLatency() {
		warn := f.LatencyWarn
		if warn == 0 {
			warn = 2
		}
		label := fmt.Sprintf(" (%.2fs)", turn.Latency)
		if turn.Latency >= warn {
			b.WriteString(f.style(latencyHiStyle, label))
		} else {
			b.WriteString(f.style(latencyOkStyle, label))
		}
	}
}

func (f *Formatter) style(s lipgloss.Style, text string) string {
	if f.Plain {
		return text
	}
	return s.Render(text)
}

func formatMetrics(metrics map[string]float64) string {
	keys := make([]string, 0, len(metrics))
	for k := range metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%.2f", k, metrics[k]))
	}
	return strings.Join(parts, " ")
}
