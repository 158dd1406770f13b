package voice

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrUserNotInVoice = errors.New("user is not in a voice channel")
	ErrSessionBusy    = errors.New("session is busy in another channel")
	ErrNotConnected   = errors.New("not connected to a voice channel")
)

// Connector joins guild voice channels on the chat platform.
type Connector interface {
	Join(ctx context.Context, guildID, channelID string) (Conn, error)
}

// Conn is a live voice-channel connection.
type Conn interface {
	ChannelID() string
	Move(ctx context.Context, channelID string) error
	Disconnect() error
}

// Sink streams one audio source into a connection. Start must not block:
// it spawns the stream and reports the outcome through onEnded, which
// fires exactly once per started stream, including after Stop.
type Sink interface {
	Start(ctx context.Context, streamURL string, gain float64, onEnded func(error)) error
	Stop()
	Pause() error
	Resume() error
	SetGain(gain float64) error
	SupportsLiveGain() bool
}

// SinkFactory builds the audio sink bound to a freshly joined connection.
type SinkFactory func(conn Conn) Sink

type sessionState int32

const (
	stateIdle sessionState = iota
	statePlaying
	statePaused
)

// Session is a guild's active voice connection plus its audio sink.
type Session struct {
	guildID string
	conn    Conn
	sink    Sink

	mu    sync.Mutex
	state sessionState
}

func newSession(guildID string, conn Conn, sink Sink) *Session {
	return &Session{guildID: guildID, conn: conn, sink: sink}
}

func (s *Session) GuildID() string   { return s.guildID }
func (s *Session) ChannelID() string { return s.conn.ChannelID() }

func (s *Session) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == statePlaying
}

func (s *Session) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == statePaused
}

// Active reports whether the sink holds a stream, playing or paused.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state != stateIdle
}

// Play binds a stream to the sink. The sink calls onEnded from its own
// goroutine when the stream is exhausted, stopped, or fails.
func (s *Session) Play(ctx context.Context, streamURL string, gain float64, onEnded func(error)) error {
	s.mu.Lock()
	s.state = statePlaying
	s.mu.Unlock()

	wrapped := func(err error) {
		s.mu.Lock()
		s.state = stateIdle
		s.mu.Unlock()
		onEnded(err)
	}
	if err := s.sink.Start(ctx, streamURL, gain, wrapped); err != nil {
		s.mu.Lock()
		s.state = stateIdle
		s.mu.Unlock()
		return err
	}
	return nil
}

// StopPlayback terminates the current stream, if any. The sink's onEnded
// fires through the normal completion path.
func (s *Session) StopPlayback() {
	s.sink.Stop()
}

func (s *Session) Pause() error {
	if err := s.sink.Pause(); err != nil {
		return err
	}
	s.mu.Lock()
	s.state = statePaused
	s.mu.Unlock()
	return nil
}

func (s *Session) Resume() error {
	if err := s.sink.Resume(); err != nil {
		return err
	}
	s.mu.Lock()
	s.state = statePlaying
	s.mu.Unlock()
	return nil
}

func (s *Session) SetGain(gain float64) error { return s.sink.SetGain(gain) }
func (s *Session) SupportsLiveGain() bool     { return s.sink.SupportsLiveGain() }
