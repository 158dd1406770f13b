package player

import (
	"sync"

	"github.com/tobermory/strum/internal/voice"
)

// Manager maps guild IDs to their players, created lazily on first touch.
// A guild with no entry behaves identically to one holding an empty
// player.
type Manager struct {
	voice    *voice.Manager
	announce func(Track)

	mu      sync.Mutex
	players map[string]*Player
}

func NewManager(v *voice.Manager, announce func(Track)) *Manager {
	return &Manager{
		voice:    v,
		announce: announce,
		players:  make(map[string]*Player),
	}
}

// Get returns the guild's player, creating it with defaultGain if absent.
func (m *Manager) Get(guildID string, defaultGain float64) *Player {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.players[guildID]; ok {
		return p
	}
	p := NewPlayer(m.voice, guildID, defaultGain, m.announce)
	m.players[guildID] = p
	return p
}

// Peek returns the guild's player without creating one.
func (m *Manager) Peek(guildID string) *Player {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.players[guildID]
}

// StopAll tears down every guild's playback; used on shutdown.
func (m *Manager) StopAll() {
	m.mu.Lock()
	players := make([]*Player, 0, len(m.players))
	for _, p := range m.players {
		players = append(players, p)
	}
	m.mu.Unlock()
	for _, p := range players {
		_ = p.Stop()
	}
}
