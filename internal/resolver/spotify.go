package resolver

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"
)

// Spotify maps spotify links to search terms for the media backend.
// Albums, playlists and artists resolve to their first entry.
type Spotify struct {
	raw *spotify.Client
}

func NewSpotify(clientID, clientSecret string) (*Spotify, error) {
	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	httpClient := cfg.Client(context.Background())
	return &Spotify{raw: spotify.New(httpClient, spotify.WithRetry(true))}, nil
}

func isSpotify(s string) bool {
	return strings.HasPrefix(s, "spotify:") || strings.Contains(s, "open.spotify.com")
}

func parseSpotifyID(raw string) (typ string, id spotify.ID, err error) {
	if strings.HasPrefix(raw, "spotify:") {
		parts := strings.Split(raw, ":")
		if len(parts) == 3 {
			return parts[1], spotify.ID(parts[2]), nil
		}
		return "", "", fmt.Errorf("invalid spotify URI")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", err
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 {
		return "", "", fmt.Errorf("invalid spotify URL path")
	}
	return parts[0], spotify.ID(strings.SplitN(parts[1], "?", 2)[0]), nil
}

// FirstTrackQuery returns `"track name" "artist"` search terms for the
// first track the link names.
func (c *Spotify) FirstTrackQuery(ctx context.Context, raw string) (string, error) {
	typ, id, err := parseSpotifyID(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	var name, artist string
	switch typ {
	case "track":
		t, err := c.raw.GetTrack(ctx, id)
		if err != nil {
			return "", fmt.Errorf("%w: spotify track: %v", ErrTransient, err)
		}
		name, artist = t.Name, firstArtist(t.Artists)
	case "album":
		page, err := c.raw.GetAlbumTracks(ctx, id)
		if err != nil {
			return "", fmt.Errorf("%w: spotify album: %v", ErrTransient, err)
		}
		if len(page.Tracks) == 0 {
			return "", fmt.Errorf("%w: empty album", ErrNotFound)
		}
		t := page.Tracks[0]
		name, artist = t.Name, firstArtist(t.Artists)
	case "playlist":
		page, err := c.raw.GetPlaylistItems(ctx, id)
		if err != nil {
			return "", fmt.Errorf("%w: spotify playlist: %v", ErrTransient, err)
		}
		if len(page.Items) == 0 || page.Items[0].Track.Track == nil {
			return "", fmt.Errorf("%w: empty playlist", ErrNotFound)
		}
		t := page.Items[0].Track.Track
		name, artist = t.Name, firstArtist(t.Artists)
	case "artist":
		tracks, err := c.raw.GetArtistsTopTracks(ctx, id, "US")
		if err != nil {
			return "", fmt.Errorf("%w: spotify artist: %v", ErrTransient, err)
		}
		if len(tracks) == 0 {
			return "", fmt.Errorf("%w: artist has no tracks", ErrNotFound)
		}
		name, artist = tracks[0].Name, firstArtist(tracks[0].Artists)
	default:
		return "", fmt.Errorf("%w: unsupported spotify type %q", ErrNotFound, typ)
	}

	return fmt.Sprintf("%q %q", name, artist), nil
}

func firstArtist(artists []spotify.SimpleArtist) string {
	if len(artists) == 0 {
		return ""
	}
	return artists[0].Name
}
