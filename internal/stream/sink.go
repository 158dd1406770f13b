// Package stream feeds a resolved audio URL into a Discord voice
// connection: ffmpeg decodes to raw PCM (s16le, 48k, stereo), each 20 ms
// frame is gain-scaled and Opus-encoded, and packets are paced onto the
// connection's send channel.
package stream

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
	"layeh.com/gopus"
)

const (
	sampleRate = 48000
	channels   = 2
	frameSize  = 960 // samples per channel, 20 ms at 48k
	frameBytes = frameSize * channels * 2
)

// OpusSink streams one source at a time into a voice connection. Gain is
// applied per sample before encoding, so it can be retargeted live.
type OpusSink struct {
	vc         *discordgo.VoiceConnection
	ffmpegPath string

	gainBits atomic.Uint64

	mu     sync.Mutex
	cond   *sync.Cond
	active bool
	paused bool
	cancel context.CancelFunc
}

func NewOpusSink(vc *discordgo.VoiceConnection, ffmpegPath string) *OpusSink {
	s := &OpusSink{vc: vc, ffmpegPath: ffmpegPath}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *OpusSink) SupportsLiveGain() bool { return true }

func (s *OpusSink) SetGain(gain float64) error {
	s.gainBits.Store(math.Float64bits(gain))
	return nil
}

// Start spawns the decode/encode/send pipeline and returns immediately.
// onEnded fires exactly once from the pipeline goroutine: nil on natural
// end or Stop, non-nil on decode or transport failure.
func (s *OpusSink) Start(ctx context.Context, streamURL string, gain float64, onEnded func(error)) error {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return errors.New("sink already streaming")
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.active = true
	s.paused = false
	s.cancel = cancel
	s.mu.Unlock()

	s.gainBits.Store(math.Float64bits(gain))

	go func() {
		err := s.stream(runCtx, streamURL)
		cancel()

		s.mu.Lock()
		s.active = false
		s.paused = false
		s.cancel = nil
		s.mu.Unlock()

		if errors.Is(err, context.Canceled) {
			err = nil
		}
		onEnded(err)
	}()
	return nil
}

// Stop terminates the current stream; the pipeline goroutine delivers
// onEnded(nil) through the normal completion path. No-op when idle.
func (s *OpusSink) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.paused = false
	s.cond.Broadcast()
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (s *OpusSink) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return errors.New("sink is not streaming")
	}
	s.paused = true
	return nil
}

func (s *OpusSink) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return errors.New("sink is not streaming")
	}
	s.paused = false
	s.cond.Broadcast()
	return nil
}

func (s *OpusSink) waitWhilePaused(ctx context.Context) {
	s.mu.Lock()
	for s.paused && ctx.Err() == nil {
		s.cond.Wait()
	}
	s.mu.Unlock()
}

func (s *OpusSink) stream(ctx context.Context, streamURL string) error {
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-reconnect", "1", "-reconnect_streamed", "1", "-reconnect_delay_max", "5",
		"-i", streamURL,
		"-vn",
		"-ac", fmt.Sprint(channels),
		"-ar", fmt.Sprint(sampleRate),
		"-f", "s16le",
		"pipe:1",
	}
	cmd := exec.CommandContext(ctx, s.ffmpegPath, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stdout: %w", err)
	}
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start: %w", err)
	}
	defer func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	}()

	enc, err := gopus.NewEncoder(sampleRate, channels, gopus.Audio)
	if err != nil {
		return fmt.Errorf("opus encoder: %w", err)
	}
	enc.SetBitrate(128000)

	if err := s.waitVoiceReady(ctx); err != nil {
		return err
	}
	_ = s.vc.Speaking(true)
	defer s.vc.Speaking(false)

	reader := bufio.NewReaderSize(stdout, 128*1024)
	frame := make([]byte, frameBytes)
	pcm := make([]int16, frameSize*channels)

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for {
		s.waitWhilePaused(ctx)
		if err := ctx.Err(); err != nil {
			return err
		}

		if _, err := io.ReadFull(reader, frame); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read pcm: %w (ffmpeg: %s)", err, stderr.String())
		}

		scalePCM(frame, pcm, math.Float64frombits(s.gainBits.Load()))

		pkt, err := enc.Encode(pcm, frameSize, 4000)
		if err != nil {
			return fmt.Errorf("opus encode: %w", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s.vc.OpusSend <- pkt:
		case <-time.After(time.Second):
			return errors.New("opus send timeout")
		}
	}
}

// scalePCM decodes little-endian s16 samples from frame into pcm,
// multiplied by gain and clipped to the int16 range.
func scalePCM(frame []byte, pcm []int16, gain float64) {
	for i := range pcm {
		j := i * 2
		v := float64(int16(uint16(frame[j])|uint16(frame[j+1])<<8)) * gain
		switch {
		case v > math.MaxInt16:
			pcm[i] = math.MaxInt16
		case v < math.MinInt16:
			pcm[i] = math.MinInt16
		default:
			pcm[i] = int16(v)
		}
	}
}

func (s *OpusSink) waitVoiceReady(ctx context.Context) error {
	if s.vc.OpusSend == nil {
		s.vc.OpusSend = make(chan []byte, 2)
	}
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if s.vc.Status == discordgo.VoiceConnectionStatusReady {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
	slog.Warn("voice connection not ready, sending anyway")
	return nil
}
