package repository

import "database/sql"

type Repo struct {
	db *sql.DB
}

// Settings are per-guild preferences that outlive the process. Playback
// state itself (queue, now playing) is memory-resident only.
type Settings struct {
	GuildID       string
	DefaultVolume int // percent, 0-200
	QueuePageSize int
}
