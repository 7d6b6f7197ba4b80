package synth

import (
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/hajimehoshi/oto/v2"
)

const (
	previewSampleRate = 44100
	previewChannels   = 2
	previewBitDepth   = 0 // 32-bit float (oto.FormatFloat32LE)
)

// PreviewRuntime is a local monitoring backend: each trigger renders a
// short procedural blip (decaying sine for pitched events, filtered noise
// burst for unpitched ones) into its own player. It exists so a session
// can be auditioned without a full synthesis stack attached.
type PreviewRuntime struct {
	ctx   *oto.Context
	ready chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewPreviewRuntime initializes the audio context for local monitoring
func NewPreviewRuntime() (*PreviewRuntime, error) {
	ctx, ready, err := oto.NewContext(previewSampleRate, previewChannels, previewBitDepth)
	if err != nil {
		return nil, fmt.Errorf("preview runtime: %w", err)
	}
	return &PreviewRuntime{ctx: ctx, ready: ready}, nil
}

// Trigger renders and plays one blip. The event is dropped silently while
// the audio context is still warming up; playback runs detached so the
// sequencer tick never blocks.
func (p *PreviewRuntime) Trigger(ev TriggerEvent) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return fmt.Errorf("preview runtime: closed")
	}
	select {
	case <-p.ready:
	default:
		return nil
	}

	gain := ev.Velocity * ev.Volume
	if gain <= 0 {
		return nil
	}

	samples := renderBlip(ev)
	if len(samples) == 0 {
		return nil
	}

	go func() {
		reader := &blipReader{data: samples}
		player := p.ctx.NewPlayer(reader)
		player.SetVolume(clampF(gain, 0, 1))
		player.Play()
		for player.IsPlaying() {
			time.Sleep(10 * time.Millisecond)
		}
		player.Close()
	}()
	return nil
}

// Close stops accepting triggers. Players already started drain on their own.
func (p *PreviewRuntime) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}

// renderBlip synthesizes the stereo float32-LE byte stream for one event
func renderBlip(ev TriggerEvent) []byte {
	dur := ev.Duration
	if dur <= 0 || dur > 250*time.Millisecond {
		dur = 250 * time.Millisecond
	}
	frames := int(dur.Seconds() * previewSampleRate)
	if frames == 0 {
		return nil
	}

	// Equal-power-ish stereo balance from the resolved pan.
	pan := clampF(ev.Pan, -1, 1)
	left := math.Sqrt((1 - pan) / 2)
	right := math.Sqrt((1 + pan) / 2)

	buf := make([]byte, frames*previewChannels*4)
	if ev.Frequency > 0 {
		renderSine(buf, frames, ev.Frequency, left, right)
	} else {
		renderNoise(buf, frames, left, right)
	}
	return buf
}

func renderSine(buf []byte, frames int, freq, left, right float64) {
	phaseStep := 2 * math.Pi * freq / previewSampleRate
	for i := range frames {
		env := 1.0 - float64(i)/float64(frames)
		s := math.Sin(float64(i)*phaseStep) * env * env
		putStereoF32(buf, i, s*left, s*right)
	}
}

func renderNoise(buf []byte, frames int, left, right float64) {
	// Cheap deterministic noise; a real PRNG would force seeding decisions
	// onto the caller for what is just a monitoring click.
	state := uint32(0x2545f491)
	prev := 0.0
	for i := range frames {
		state ^= state << 13
		state ^= state >> 17
		state ^= state << 5
		white := float64(int32(state)) / float64(math.MaxInt32)
		// One-pole smoothing keeps the burst from sounding harsh.
		prev += 0.25 * (white - prev)
		env := 1.0 - float64(i)/float64(frames)
		s := prev * env * env
		putStereoF32(buf, i, s*left, s*right)
	}
}

// putStereoF32 writes independent left/right samples in [-1,1] as
// float32 LE at frame i.
func putStereoF32(buf []byte, i int, left, right float64) {
	lv := math.Float32bits(float32(left))
	rv := math.Float32bits(float32(right))
	buf[i*8] = byte(lv)
	buf[i*8+1] = byte(lv >> 8)
	buf[i*8+2] = byte(lv >> 16)
	buf[i*8+3] = byte(lv >> 24)
	buf[i*8+4] = byte(rv)
	buf[i*8+5] = byte(rv >> 8)
	buf[i*8+6] = byte(rv >> 16)
	buf[i*8+7] = byte(rv >> 24)
}

// blipReader streams rendered bytes to an oto player
type blipReader struct {
	data []byte
	pos  int
}

func (r *blipReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
