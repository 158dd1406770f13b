package player

import (
	"context"
	"log/slog"
	"sync"

	"github.com/tobermory/strum/internal/voice"
)

// Player serializes all playback state transitions for one guild. The
// queue, the now-playing slot, and the volume live behind a single mutex;
// completion callbacks from the audio sink re-enter through
// onPlaybackEnded and are discarded when they outlive their session.
type Player struct {
	guildID string
	voice   *voice.Manager

	// announce, when set, is called off-lock whenever a track starts.
	announce func(t Track)

	mu         sync.Mutex
	session    *voice.Session
	queue      []Track
	nowPlaying *Track
	gain       float64
}

func NewPlayer(v *voice.Manager, guildID string, defaultGain float64, announce func(Track)) *Player {
	if defaultGain < 0 || defaultGain > 2 {
		defaultGain = DefaultGain
	}
	return &Player{
		guildID:  guildID,
		voice:    v,
		announce: announce,
		gain:     defaultGain,
	}
}

// Bind attaches the session obtained from the voice manager. Tracks
// enqueued against an older session are discarded by Enqueue.
func (p *Player) Bind(sess *voice.Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.session = sess
}

func (p *Player) Session() *voice.Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session
}

// Enqueue appends t to the queue tail. When the session is connected and
// idle, playback starts immediately and started=true is returned;
// otherwise pos is the track's 1-indexed position among upcoming tracks.
// A sess that no longer matches the bound session means the guild was
// stopped while the track was being resolved: the result is discarded
// without mutating state.
func (p *Player) Enqueue(sess *voice.Session, t Track) (pos int, started bool, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session == nil || p.session != sess {
		slog.Debug("discarding stale enqueue", "guildID", p.guildID, "title", t.Title)
		return 0, false, ErrSessionClosed
	}

	p.queue = append(p.queue, t)
	if p.nowPlaying == nil && !sess.Active() {
		p.advanceLocked()
		return 0, true, nil
	}
	return len(p.queue), false, nil
}

// advanceLocked pops the queue head into the now-playing slot and starts
// it on the sink. An empty queue leaves the session connected and idle.
// This is the only place a track transitions from queued to playing.
// Caller must hold p.mu.
func (p *Player) advanceLocked() {
	sess := p.session
	if sess == nil || len(p.queue) == 0 {
		p.nowPlaying = nil
		return
	}

	t := p.queue[0]
	p.queue = append([]Track(nil), p.queue[1:]...)
	p.nowPlaying = &t

	onEnded := func(err error) { p.onPlaybackEnded(sess, err) }
	if err := sess.Play(context.Background(), t.StreamURL, p.gain, onEnded); err != nil {
		slog.Warn("failed to start track, advancing",
			"guildID", p.guildID, "title", t.Title, "err", err)
		p.nowPlaying = nil
		p.advanceLocked()
		return
	}

	slog.Info("now playing", "guildID", p.guildID, "title", t.Title, "requestedBy", t.RequestedBy)
	if p.announce != nil {
		go p.announce(t)
	}
}

// onPlaybackEnded is delivered by the sink when the current stream is
// exhausted, skipped, or fails. A failed track never stalls the queue:
// the error is logged and the queue advances regardless. Completions for
// a session that has since been torn down are ignored.
func (p *Player) onPlaybackEnded(sess *voice.Session, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session != sess {
		return
	}
	if err != nil {
		slog.Warn("playback ended with error, advancing anyway", "guildID", p.guildID, "err", err)
	}
	p.nowPlaying = nil
	p.advanceLocked()
}

// Skip terminates the current stream. Advancing happens through the
// sink's completion callback, the same path as natural end-of-track.
func (p *Player) Skip() error {
	p.mu.Lock()
	if p.nowPlaying == nil {
		p.mu.Unlock()
		return ErrNothingPlaying
	}
	sess := p.session
	p.mu.Unlock()

	sess.StopPlayback()
	return nil
}

func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil || !p.session.Playing() {
		return ErrInvalidState
	}
	return p.session.Pause()
}

func (p *Player) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil || !p.session.Paused() {
		return ErrInvalidState
	}
	return p.session.Resume()
}

// Stop clears the queue and the now-playing slot and disconnects the
// session. The sink's completion callback for the interrupted stream
// arrives after the session pointer is cleared and is discarded.
func (p *Player) Stop() error {
	p.mu.Lock()
	sess := p.session
	p.session = nil
	p.queue = nil
	p.nowPlaying = nil
	p.mu.Unlock()

	if sess == nil {
		return ErrSessionClosed
	}
	p.voice.Teardown(p.guildID)
	return nil
}

// SetVolumePercent stores percent/100 as the guild's gain. When a track
// is playing and the sink exposes live gain control the change applies
// immediately (live=true); otherwise it takes effect from the next track.
func (p *Player) SetVolumePercent(percent int) (live bool, err error) {
	if percent < 0 || percent > 200 {
		return false, ErrVolumeOutOfRange
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.gain = float64(percent) / 100
	if p.session != nil && p.session.Active() && p.session.SupportsLiveGain() {
		if err := p.session.SetGain(p.gain); err == nil {
			return true, nil
		}
		slog.Debug("live gain retarget failed, applies next track", "guildID", p.guildID)
	}
	return false, nil
}

func (p *Player) VolumePercent() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return int(p.gain*100 + 0.5)
}

func (p *Player) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case p.session == nil:
		return StatusIdle
	case p.session.Playing():
		return StatusPlaying
	case p.session.Paused():
		return StatusPaused
	default:
		return StatusIdle
	}
}

func (p *Player) NowPlaying() (Track, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.nowPlaying == nil {
		return Track{}, false
	}
	return *p.nowPlaying, true
}

// Upcoming returns a copy of the queued tracks in play order.
func (p *Player) Upcoming() []Track {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.queue) == 0 {
		return nil
	}
	out := make([]Track, len(p.queue))
	copy(out, p.queue)
	return out
}

func (p *Player) QueueLen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}
