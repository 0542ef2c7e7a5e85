// Package audio plays raw PCM narration through the platform audio device
// using oto. The audio context is a process-wide singleton; the first
// player to initialize fixes the output format.
package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Player errors.
var (
	// ErrBusy indicates a Play call while another one is still draining.
	ErrBusy = errors.New("audio player busy")

	// ErrStopped indicates the buffer was interrupted by Stop before it
	// finished draining.
	ErrStopped = errors.New("audio playback stopped")
)

var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoErr  error
)

// otoContext initializes the shared oto context on first use. oto only
// allows one context per process, so later players inherit the first
// format.
func otoContext(sampleRate, channels int) (*oto.Context, error) {
	otoOnce.Do(func() {
		options := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: channels,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   platformBufferSize(),
		}

		ctx, ready, err := oto.NewContext(options)
		if err != nil {
			otoErr = fmt.Errorf("initializing audio context: %w", err)
			return
		}
		<-ready
		otoCtx = ctx
	})
	return otoCtx, otoErr
}

// platformBufferSize picks an output buffer size per OS. Linux audio
// stacks tend to underrun with small buffers; macOS and Windows cope with
// lower latency.
func platformBufferSize() time.Duration {
	switch runtime.GOOS {
	case "darwin":
		return 50 * time.Millisecond
	case "windows":
		return 100 * time.Millisecond
	default:
		return 200 * time.Millisecond
	}
}

// positionReader wraps an in-memory PCM buffer and tracks how far oto has
// read, so playback completion can be detected reliably.
type positionReader struct {
	r   *bytes.Reader
	pos atomic.Int64
}

func newPositionReader(data []byte) *positionReader {
	return &positionReader{r: bytes.NewReader(data)}
}

func (r *positionReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	r.pos.Add(int64(n))
	return n, err
}

func (r *positionReader) exhausted(total int) bool {
	return r.pos.Load() >= int64(total)
}

// Player plays one PCM buffer at a time.
type Player struct {
	sampleRate int
	channels   int

	mu      sync.Mutex
	current *oto.Player
}

// NewPlayer creates a player for signed 16-bit little-endian PCM at the
// given format. The underlying audio context is shared process-wide.
func NewPlayer(sampleRate, channels int) (*Player, error) {
	if _, err := otoContext(sampleRate, channels); err != nil {
		return nil, err
	}
	return &Player{sampleRate: sampleRate, channels: channels}, nil
}

// Play blocks until the buffer has been played out, ctx is cancelled, or
// Stop is called. Only one Play may be active at a time.
func (p *Player) Play(ctx context.Context, pcm []byte) error {
	if len(pcm) == 0 {
		return nil
	}

	octx, err := otoContext(p.sampleRate, p.channels)
	if err != nil {
		return err
	}

	reader := newPositionReader(pcm)

	p.mu.Lock()
	if p.current != nil {
		p.mu.Unlock()
		return ErrBusy
	}
	player := octx.NewPlayer(reader)
	p.current = player
	p.mu.Unlock()

	player.Play()
	defer func() {
		p.mu.Lock()
		if p.current == player {
			p.current = nil
		}
		p.mu.Unlock()
		player.Close()
	}()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			player.Pause()
			return ctx.Err()
		case <-ticker.C:
			if !player.IsPlaying() {
				if reader.exhausted(len(pcm)) {
					return nil
				}
				return ErrStopped
			}
		}
	}
}

// Stop interrupts the in-flight buffer, if any.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current != nil {
		p.current.Pause()
		p.current = nil
	}
}

// Duration returns how long a PCM buffer of the player's format plays for.
func (p *Player) Duration(size int) time.Duration {
	bytesPerSecond := p.sampleRate * p.channels * 2
	if bytesPerSecond == 0 {
		return 0
	}
	return time.Duration(size) * time.Second / time.Duration(bytesPerSecond)
}

var _ io.Reader = (*positionReader)(nil)
