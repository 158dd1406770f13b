package voice

import (
	"context"
	"log/slog"
	"sync"
)

// Manager owns one voice session per guild and the connect/move/disconnect
// transitions against the platform's voice subsystem.
type Manager struct {
	connector Connector
	sinks     SinkFactory

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(connector Connector, sinks SinkFactory) *Manager {
	return &Manager{
		connector: connector,
		sinks:     sinks,
		sessions:  make(map[string]*Session),
	}
}

// Get returns the guild's session, or nil when not connected.
func (m *Manager) Get(guildID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[guildID]
}

// EnsureConnected returns a session in channelID. An existing session in
// the same channel is returned unchanged. An idle session in a different
// channel is moved there (moved=true). A session actively playing or
// paused in a different channel is never moved: one session per guild is
// an exclusive resource tied to whichever channel has listeners, so the
// call fails with ErrSessionBusy and the session is left untouched.
func (m *Manager) EnsureConnected(ctx context.Context, guildID, channelID string) (sess *Session, moved bool, err error) {
	m.mu.Lock()
	existing := m.sessions[guildID]
	m.mu.Unlock()

	if existing != nil {
		if existing.ChannelID() == channelID {
			return existing, false, nil
		}
		if existing.Active() {
			slog.Debug("refusing to move busy session",
				"guildID", guildID,
				"currentChannel", existing.ChannelID(),
				"requestedChannel", channelID)
			return nil, false, ErrSessionBusy
		}
		if err := existing.conn.Move(ctx, channelID); err != nil {
			return nil, false, err
		}
		slog.Info("moved voice session", "guildID", guildID, "channelID", channelID)
		return existing, true, nil
	}

	conn, err := m.connector.Join(ctx, guildID, channelID)
	if err != nil {
		return nil, false, err
	}
	sess = newSession(guildID, conn, m.sinks(conn))

	m.mu.Lock()
	// Lost a race with a concurrent connect for the same guild; keep the
	// first session and drop ours.
	if cur := m.sessions[guildID]; cur != nil {
		m.mu.Unlock()
		_ = conn.Disconnect()
		return cur, false, nil
	}
	m.sessions[guildID] = sess
	m.mu.Unlock()

	slog.Info("joined voice channel", "guildID", guildID, "channelID", channelID)
	return sess, false, nil
}

// Teardown stops any stream and disconnects the guild's session. No-op
// when not connected.
func (m *Manager) Teardown(guildID string) {
	m.mu.Lock()
	sess := m.sessions[guildID]
	delete(m.sessions, guildID)
	m.mu.Unlock()

	if sess == nil {
		return
	}
	sess.StopPlayback()
	if err := sess.conn.Disconnect(); err != nil {
		slog.Warn("voice disconnect failed", "guildID", guildID, "err", err)
	}
	slog.Info("voice session torn down", "guildID", guildID)
}

// TeardownAll disconnects every session; used on shutdown.
func (m *Manager) TeardownAll() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()
	for _, id := range ids {
		m.Teardown(id)
	}
}
