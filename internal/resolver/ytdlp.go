package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	ytdlp "github.com/lrstanley/go-ytdlp"
)

var installOnce sync.Once

// YTDLP resolves queries through yt-dlp: URLs directly, anything else as
// a first-result YouTube search. Spotify links are bridged to a search
// when a bridge is configured.
type YTDLP struct {
	spotify *Spotify // optional
}

func NewYTDLP(spotify *Spotify) *YTDLP {
	return &YTDLP{spotify: spotify}
}

func (r *YTDLP) Resolve(ctx context.Context, query string) (*Candidate, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, ErrNotFound
	}

	if isSpotify(q) {
		if r.spotify == nil {
			return nil, fmt.Errorf("%w: spotify support is not configured", ErrUnavailable)
		}
		search, err := r.spotify.FirstTrackQuery(ctx, q)
		if err != nil {
			return nil, err
		}
		q = "ytsearch1:" + search
	} else if !strings.HasPrefix(q, "http://") && !strings.HasPrefix(q, "https://") {
		q = "ytsearch1:" + q
	}

	info, err := fetchInfo(ctx, q)
	if err != nil {
		return nil, classifyYtdlpErr(err)
	}
	cand := toCandidate(info)
	if cand == nil {
		slog.Debug("yt-dlp returned no usable media URL", "query", query)
		return nil, ErrNotFound
	}
	return cand, nil
}

func fetchInfo(ctx context.Context, target string) (*ytdlp.ExtractedInfo, error) {
	installOnce.Do(func() {
		ytdlp.MustInstall(ctx, nil)
	})

	cmd := ytdlp.New().
		Format("ba[acodec^=opus]/ba[ext=m4a]/bestaudio/best").
		NoCheckCertificates().
		DumpJSON()

	res, err := cmd.Run(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp run: %w", err)
	}
	infos, err := res.GetExtractedInfo()
	if err != nil {
		return nil, fmt.Errorf("parse yt-dlp json: %w", err)
	}
	if len(infos) == 0 || infos[0] == nil {
		return nil, nil
	}

	ext := infos[0]
	// Playlist or search container: first-entry semantics.
	for _, e := range ext.Entries {
		if e != nil {
			return e, nil
		}
	}
	if len(ext.Entries) > 0 {
		return nil, nil
	}
	return ext, nil
}

func toCandidate(info *ytdlp.ExtractedInfo) *Candidate {
	if info == nil {
		return nil
	}
	stream := pickAudioURL(info)
	if stream == "" {
		return nil
	}
	c := &Candidate{
		Title:        deref(info.Title),
		CanonicalURL: deref(info.WebpageURL),
		StreamURL:    stream,
		Duration:     int(derefF(info.Duration)),
		Uploader:     deref(info.Uploader),
	}
	if c.CanonicalURL == "" {
		c.CanonicalURL = stream
	}
	if c.Title == "" {
		c.Title = "Unknown Title"
	}
	if n := len(info.Thumbnails); n > 0 && info.Thumbnails[n-1] != nil {
		c.Thumbnail = info.Thumbnails[n-1].URL
	}
	return c
}

// pickAudioURL prefers requested formats, then the top-level url, then
// the formats list.
func pickAudioURL(info *ytdlp.ExtractedInfo) string {
	for _, f := range info.RequestedFormats {
		if f != nil && strings.HasPrefix(f.URL, "http") {
			return f.URL
		}
	}
	if u := deref(info.URL); strings.HasPrefix(u, "http") {
		return u
	}
	for _, f := range info.Formats {
		if f != nil && strings.HasPrefix(f.URL, "http") {
			return f.URL
		}
	}
	return ""
}

func classifyYtdlpErr(err error) error {
	if err == nil {
		return ErrNotFound
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "unavailable"),
		strings.Contains(msg, "private"),
		strings.Contains(msg, "removed"),
		strings.Contains(msg, "age-restricted"),
		strings.Contains(msg, "copyright"):
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	case strings.Contains(msg, "no video results"),
		strings.Contains(msg, "not found"),
		strings.Contains(msg, "404"):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	default:
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func derefF(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
