package ui

import (
	"strings"
	"testing"

	"github.com/tobermory/strum/internal/player"
)

func sample(title string) player.Track {
	return player.Track{
		Title:       title,
		URL:         "https://example.test/" + title,
		Duration:    213,
		RequestedBy: "user1",
	}
}

func TestBuildNowPlayingEmbed(t *testing.T) {
	tr := sample("Test Song")
	tr.Uploader = "Test Channel"
	tr.Thumbnail = "https://img.test/t.jpg"

	embed := BuildNowPlayingEmbed(tr, player.StatusPlaying)
	if embed.Title != "Now Playing" {
		t.Errorf("Title = %q, want Now Playing", embed.Title)
	}
	if len(embed.Fields) != 4 {
		t.Fatalf("fields = %d, want 4", len(embed.Fields))
	}
	if !strings.Contains(embed.Fields[0].Value, "Test Song") {
		t.Errorf("title field = %q", embed.Fields[0].Value)
	}
	if embed.Fields[1].Value != "<@user1>" {
		t.Errorf("requested-by field = %q", embed.Fields[1].Value)
	}
	if embed.Fields[2].Value != "3:33" {
		t.Errorf("duration field = %q, want 3:33", embed.Fields[2].Value)
	}
	if embed.Thumbnail == nil || embed.Thumbnail.URL != "https://img.test/t.jpg" {
		t.Error("thumbnail missing")
	}

	paused := BuildNowPlayingEmbed(tr, player.StatusPaused)
	if paused.Title != "Paused" {
		t.Errorf("paused Title = %q, want Paused", paused.Title)
	}
}

func TestBuildQueueEmbedOverflow(t *testing.T) {
	now := sample("current")
	upcoming := make([]player.Track, 13)
	for i := range upcoming {
		upcoming[i] = sample("queued")
	}

	embed := BuildQueueEmbed(&now, player.StatusPlaying, upcoming, 10)
	if len(embed.Fields) != 2 {
		t.Fatalf("fields = %d, want 2", len(embed.Fields))
	}
	if lines := strings.Count(embed.Fields[1].Value, "\n"); lines != 10 {
		t.Errorf("up-next lines = %d, want 10", lines)
	}
	if embed.Footer == nil || embed.Footer.Text != "...and 3 more song(s)." {
		t.Errorf("footer = %v, want 3 more", embed.Footer)
	}
}

func TestBuildQueueEmbedEmpty(t *testing.T) {
	embed := BuildQueueEmbed(nil, player.StatusIdle, nil, 10)
	if len(embed.Fields) != 0 {
		t.Errorf("fields = %d, want 0", len(embed.Fields))
	}
	if embed.Footer != nil {
		t.Error("unexpected footer on empty queue")
	}
}

func TestTrackDurationLive(t *testing.T) {
	tr := sample("stream")
	tr.Duration = 0
	if got := trackDuration(tr); got != "live" {
		t.Errorf("trackDuration = %q, want live", got)
	}
}
