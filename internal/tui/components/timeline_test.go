package components

import (
	"strings"
	"testing"
	"time"

	"github.com/voxtape/voxtape/internal/core"
	"github.com/voxtape/voxtape/internal/timeline"
)

func TestRenderBarMarkerPlacement(t *testing.T) {
	tl := NewTimeline()
	state := core.PlaybackState{
		State:    core.StatePaused,
		Current:  0,
		Duration: 100 * time.Second,
	}
	markers := []timeline.Marker{{Position: 0.5, Latency: 1.2}}

	bar := tl.RenderBar(state, markers, 20)

	if !strings.Contains(bar, "◆") {
		t.Error("bar has no marker glyph")
	}
	// One glyph per cell regardless of styling.
	plain := stripANSI(bar)
	if got := len([]rune(plain)); got != 20 {
		t.Errorf("bar width = %d cells, want 20", got)
	}
	if idx := runeIndex(plain, '◆'); idx != 10 {
		t.Errorf("marker at cell %d, want 10", idx)
	}
}

func TestRenderBarUnknownDuration(t *testing.T) {
	tl := NewTimeline()
	state := core.PlaybackState{State: core.StateLoading}

	bar := stripANSI(tl.RenderBar(state, nil, 10))

	if strings.ContainsRune(bar, '●') || strings.ContainsRune(bar, '━') {
		t.Errorf("bar %q shows progress with unknown duration", bar)
	}
}

func TestRenderFreezeRow(t *testing.T) {
	tl := NewTimeline()
	spans := []timeline.Span{{Start: 0.2, End: 0.4}}

	row := stripANSI(tl.RenderFreezeRow(spans, 10))

	if got := len([]rune(row)); got != 10 {
		t.Fatalf("row width = %d, want 10", got)
	}
	runes := []rune(row)
	if runes[2] != '░' || runes[4] != '░' {
		t.Errorf("row %q missing shading across the span", row)
	}
	if runes[0] != ' ' || runes[9] != ' ' {
		t.Errorf("row %q shaded outside the span", row)
	}
}

func TestRenderFreezeRowEmpty(t *testing.T) {
	tl := NewTimeline()
	if row := tl.RenderFreezeRow(nil, 10); row != "" {
		t.Errorf("RenderFreezeRow(nil) = %q, want empty", row)
	}
}

// stripANSI removes escape sequences so tests can assert on cells.
func stripANSI(s string) string {
	var b strings.Builder
	inEscape := false
	for _, r := range s {
		switch {
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		case r == '\x1b':
			inEscape = true
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func runeIndex(s string, target rune) int {
	for i, r := range []rune(s) {
		if r == target {
			return i
		}
	}
	return -1
}
