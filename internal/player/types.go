package player

import "errors"

const DefaultGain = 0.5 // 50%

var (
	ErrNothingPlaying   = errors.New("nothing is playing")
	ErrInvalidState     = errors.New("invalid state for this operation")
	ErrVolumeOutOfRange = errors.New("volume must be between 0 and 200")
	ErrSessionClosed    = errors.New("voice session is gone")
)

// Track is an immutable playable item. StreamURL is resolved eagerly at
// enqueue time; an expired URL fails at playback and the queue advances
// past it.
type Track struct {
	Title       string
	URL         string // canonical page URL
	StreamURL   string // direct audio locator
	Duration    int    // seconds, 0 when unknown or live
	Uploader    string
	Thumbnail   string
	RequestedBy string // user ID of the requester
	TextChannel string // channel the request came from, for announcements
}

type Status int

const (
	StatusIdle Status = iota
	StatusPlaying
	StatusPaused
)

func (s Status) String() string {
	switch s {
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	default:
		return "idle"
	}
}
