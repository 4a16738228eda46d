// Package player owns play/pause/seek state against a single audio
// source. The true playback clock lives in the source; the controller
// is fed position, metadata, and end-of-stream events and keeps the
// authoritative snapshot the presentation layer renders from.
package player

import (
	"sync"
	"time"

	"github.com/voxtape/voxtape/internal/core"
)

// Source is the injected playback capability. Implementations push
// events back into the controller through the handler bundle returned
// by Events; the controller never polls a source.
type Source interface {
	Play() error
	Pause() error
	Seek(pos time.Duration) error
	Close() error
}

// Events bundles the controller callbacks a Source implementation
// invokes as playback progresses. All callbacks are safe to call from
// a source's own goroutine.
type Events struct {
	PositionTick  func(pos time.Duration)
	MetadataReady func(duration time.Duration)
	Ended         func()
	PlaybackError func(err error)
}

// Controller reconciles user intent with source events. It is safe
// for concurrent use: source goroutines push events while the UI
// reads snapshots.
type Controller struct {
	mu       sync.Mutex
	src      Source
	state    core.PlayerState
	current  time.Duration
	duration time.Duration
	lastErr  error

	// onTime receives the playback position in seconds on every tick.
	onTime func(seconds float64)
}

// New creates a controller with no source bound.
func New() *Controller {
	return &Controller{state: core.StateNoSource}
}

// SetObserver registers an optional callback invoked with the position
// in seconds on every tick.
func (c *Controller) SetObserver(fn func(seconds float64)) {
	c.mu.Lock()
	c.onTime = fn
	c.mu.Unlock()
}

// Events returns the handler bundle a source implementation should
// deliver its events through.
func (c *Controller) Events() Events {
	return Events{
		PositionTick:  c.HandlePositionTick,
		MetadataReady: c.HandleMetadataReady,
		Ended:         c.HandleEnded,
		PlaybackError: c.HandlePlaybackError,
	}
}

// Load binds a new source, superseding and closing any prior one.
// Position and duration reset; duration stays unknown until the source
// reports metadata. Load(nil) means "no recording available": a
// terminal display state, not an error, in which every operation other
// than a fresh Load is a no-op.
func (c *Controller) Load(src Source) {
	c.mu.Lock()
	prev := c.src
	c.src = src
	c.current = 0
	c.duration = 0
	c.lastErr = nil
	if src == nil {
		c.state = core.StateNoSource
	} else {
		c.state = core.StateLoading
	}
	c.mu.Unlock()

	if prev != nil {
		_ = prev.Close()
	}
}

// TogglePlayback pauses if playing, otherwise starts playback. The
// intended state is reflected optimistically; if the source's play
// primitive fails, the state reconciles back to paused. From the ended
// state playback restarts from the beginning.
func (c *Controller) TogglePlayback() {
	c.mu.Lock()
	src := c.src

	switch c.state {
	case core.StateNoSource, core.StateLoading:
		c.mu.Unlock()
		return

	case core.StatePlaying:
		c.state = core.StatePaused
		c.mu.Unlock()
		if err := src.Pause(); err != nil {
			c.HandlePlaybackError(err)
		}
		return

	case core.StateEnded:
		// Restart-from-beginning policy for toggling at end of track.
		c.current = 0
		c.state = core.StatePlaying
		c.mu.Unlock()
		if err := src.Seek(0); err != nil {
			c.HandlePlaybackError(err)
			return
		}
		if err := src.Play(); err != nil {
			c.HandlePlaybackError(err)
		}
		return

	default: // StatePaused
		c.state = core.StatePlaying
		c.mu.Unlock()
		if err := src.Play(); err != nil {
			c.HandlePlaybackError(err)
		}
		return
	}
}

// Seek moves playback to pos, clamped into [0, duration]. It is a
// no-op while the duration is unknown. Seeking out of the ended state
// re-enters paused.
func (c *Controller) Seek(pos time.Duration) {
	c.mu.Lock()
	if c.src == nil || c.duration == 0 {
		c.mu.Unlock()
		return
	}
	if pos < 0 {
		pos = 0
	}
	if pos > c.duration {
		pos = c.duration
	}
	c.current = pos
	if c.state == core.StateEnded {
		c.state = core.StatePaused
	}
	src := c.src
	c.mu.Unlock()

	if err := src.Seek(pos); err != nil {
		c.HandlePlaybackError(err)
	}
}

// SeekBy moves playback relative to the current position.
func (c *Controller) SeekBy(delta time.Duration) {
	c.mu.Lock()
	pos := c.current + delta
	c.mu.Unlock()
	c.Seek(pos)
}

// HandlePositionTick updates the current position. It is called at
// high frequency by the source and stays cheap: clamp, store, notify.
func (c *Controller) HandlePositionTick(pos time.Duration) {
	c.mu.Lock()
	if c.state == core.StateNoSource {
		c.mu.Unlock()
		return
	}
	if pos < 0 {
		pos = 0
	}
	if c.duration > 0 && pos > c.duration {
		pos = c.duration
	}
	c.current = pos
	observer := c.onTime
	c.mu.Unlock()

	if observer != nil {
		observer(pos.Seconds())
	}
}

// HandleMetadataReady records the source's total duration. Until this
// fires the duration is treated as unknown, not zero seconds.
func (c *Controller) HandleMetadataReady(duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == core.StateNoSource {
		return
	}
	c.duration = duration
	if c.state == core.StateLoading {
		c.state = core.StatePaused
	}
}

// HandleEnded marks end of track. The position is left where the
// source drained, not reset.
func (c *Controller) HandleEnded() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == core.StateNoSource {
		return
	}
	c.state = core.StateEnded
}

// HandlePlaybackError reconciles state after an asynchronous playback
// failure. Playback stops but position and duration survive.
func (c *Controller) HandlePlaybackError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == core.StateNoSource {
		return
	}
	c.lastErr = err
	if c.state == core.StatePlaying {
		c.state = core.StatePaused
	}
}

// Err returns the most recent playback error, if any.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Snapshot returns the current playback state.
func (c *Controller) Snapshot() core.PlaybackState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return core.PlaybackState{
		State:    c.state,
		Current:  c.current,
		Duration: c.duration,
		Playing:  c.state == core.StatePlaying,
	}
}

// Close releases the bound source.
func (c *Controller) Close() error {
	c.mu.Lock()
	src := c.src
	c.src = nil
	c.state = core.StateNoSource
	c.mu.Unlock()

	if src != nil {
		return src.Close()
	}
	return nil
}
