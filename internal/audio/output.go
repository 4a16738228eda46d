package audio

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/wav"
	"github.com/voxtape/voxtape/internal/player"
)

const speakerBuffer = 100 * time.Millisecond

// Output plays a WAV recording through the system speaker and
// implements player.Source. Events flow back into the controller:
// metadata once on Start, position ticks at the configured interval,
// end-of-stream when the streamer drains.
type Output struct {
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	events   player.Events
	interval time.Duration

	mu     sync.Mutex
	queued bool

	stop     chan struct{}
	stopOnce sync.Once
}

// NewOutput decodes the WAV file at path and prepares a playback
// source. No events fire until Start is called, so the caller can bind
// the output to a controller first.
func NewOutput(path string, tick time.Duration, events player.Events) (*Output, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open recording: %w", err)
	}

	streamer, format, err := wav.Decode(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode recording: %w", err)
	}

	if err := speaker.Init(format.SampleRate, format.SampleRate.N(speakerBuffer)); err != nil {
		streamer.Close()
		return nil, fmt.Errorf("failed to initialize speaker: %w", err)
	}

	if tick <= 0 {
		tick = 200 * time.Millisecond
	}

	return &Output{
		streamer: streamer,
		format:   format,
		ctrl:     &beep.Ctrl{Streamer: streamer, Paused: true},
		events:   events,
		interval: tick,
		stop:     make(chan struct{}),
	}, nil
}

// Duration returns the decoded recording's total length.
func (o *Output) Duration() time.Duration {
	return o.format.SampleRate.D(o.streamer.Len())
}

// Start reports metadata and begins the position tick loop.
func (o *Output) Start() {
	if o.events.MetadataReady != nil {
		o.events.MetadataReady(o.Duration())
	}
	go o.tickLoop()
}

func (o *Output) tickLoop() {
	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	for {
		select {
		case <-o.stop:
			return
		case <-ticker.C:
			speaker.Lock()
			pos := o.streamer.Position()
			speaker.Unlock()
			if o.events.PositionTick != nil {
				o.events.PositionTick(o.format.SampleRate.D(pos))
			}
		}
	}
}

// Play starts or resumes playback, re-queueing the streamer on the
// speaker if it previously drained.
func (o *Output) Play() error {
	speaker.Lock()
	o.ctrl.Paused = false
	speaker.Unlock()

	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.queued {
		o.queued = true
		speaker.Play(beep.Seq(o.ctrl, beep.Callback(o.handleDrained)))
	}
	return nil
}

// handleDrained runs on the speaker's goroutine when the stream ends.
func (o *Output) handleDrained() {
	o.mu.Lock()
	o.queued = false
	o.mu.Unlock()

	if o.events.Ended != nil {
		go o.events.Ended()
	}
}

// Pause pauses playback without discarding the position.
func (o *Output) Pause() error {
	speaker.Lock()
	o.ctrl.Paused = true
	speaker.Unlock()
	return nil
}

// Seek moves the stream to pos.
func (o *Output) Seek(pos time.Duration) error {
	n := o.format.SampleRate.N(pos)

	speaker.Lock()
	defer speaker.Unlock()
	if n < 0 {
		n = 0
	}
	if n > o.streamer.Len() {
		n = o.streamer.Len()
	}
	if err := o.streamer.Seek(n); err != nil {
		return fmt.Errorf("seek failed: %w", err)
	}
	return nil
}

// Close stops the tick loop and releases the decoder.
func (o *Output) Close() error {
	o.stopOnce.Do(func() { close(o.stop) })
	speaker.Clear()
	return o.streamer.Close()
}

var _ player.Source = (*Output)(nil)
