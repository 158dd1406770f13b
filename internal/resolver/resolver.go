// Package resolver turns a free-text query or URL into at most one
// playable track candidate. Collection references (playlists, albums)
// deterministically select their first entry.
package resolver

import (
	"context"
	"errors"
)

var (
	// ErrNotFound means the query matched nothing playable.
	ErrNotFound = errors.New("no playable track found")
	// ErrUnavailable means a track exists but cannot be streamed
	// (private, removed, region-locked).
	ErrUnavailable = errors.New("track is unavailable")
	// ErrTransient covers backend failures worth retrying.
	ErrTransient = errors.New("resolver backend failure")
)

// Candidate is a resolved, streamable track descriptor.
type Candidate struct {
	Title        string
	CanonicalURL string
	StreamURL    string
	Duration     int // seconds, 0 when unknown or live
	Uploader     string
	Thumbnail    string
}

type Resolver interface {
	Resolve(ctx context.Context, query string) (*Candidate, error)
}
