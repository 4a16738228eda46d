package components

import (
	"strings"

	"github.com/voxtape/voxtape/internal/core"
	"github.com/voxtape/voxtape/internal/timeline"
	"github.com/voxtape/voxtape/internal/tui/styles"
)

// Timeline renders the playback bar with latency markers and freeze
// spans. The bar is a pure function of the snapshot: filled progress,
// a scrubber at the playhead, marker glyphs at projected positions,
// and a second row shading freeze intervals.
type Timeline struct{}

// NewTimeline creates a timeline component.
func NewTimeline() *Timeline {
	return &Timeline{}
}

// cell index of a fraction on a bar of the given width.
func cellAt(fraction float64, width int) int {
	idx := int(fraction * float64(width))
	if idx >= width {
		idx = width - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}

// RenderBar returns the timeline bar itself, width cells wide.
func (t *Timeline) RenderBar(state core.PlaybackState, markers []timeline.Marker, width int) string {
	if width < 1 {
		return ""
	}

	cells := make([]string, width)
	filled := cellAt(state.ProgressFraction(), width)
	for i := range cells {
		if i <= filled && state.HasDuration() {
			cells[i] = styles.Highlight.Render("━")
		} else {
			cells[i] = styles.Dim.Render("─")
		}
	}

	for _, m := range markers {
		cells[cellAt(m.Position, width)] = styles.MarkerStyle.Render("◆")
	}

	// Scrubber renders last so it stays visible over markers.
	if state.HasDuration() {
		cells[filled] = styles.Title.Render("●")
	}

	return strings.Join(cells, "")
}

// RenderFreezeRow returns the freeze shading row aligned under the
// bar, or an empty string when no spans are visible.
func (t *Timeline) RenderFreezeRow(spans []timeline.Span, width int) string {
	if len(spans) == 0 || width < 1 {
		return ""
	}

	cells := make([]rune, width)
	for i := range cells {
		cells[i] = ' '
	}
	for _, s := range spans {
		start := cellAt(s.Start, width)
		end := cellAt(s.End, width)
		for i := start; i <= end; i++ {
			cells[i] = '░'
		}
	}

	return styles.Freeze.Render(string(cells))
}

