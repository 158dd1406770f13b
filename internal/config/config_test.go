package config

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "tok")
	t.Setenv("COMMAND_PREFIX", "")
	t.Setenv("DATA_DIR", filepath.Join(t.TempDir(), "data"))
	t.Setenv("FFMPEG_PATH", "")
	t.Setenv("BOT_STATUS", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.CommandPrefix != "m!" {
		t.Errorf("CommandPrefix = %q, want m!", cfg.CommandPrefix)
	}
	if cfg.FFmpegPath != "ffmpeg" {
		t.Errorf("FFmpegPath = %q, want ffmpeg", cfg.FFmpegPath)
	}
	if cfg.BotStatus != "online" {
		t.Errorf("BotStatus = %q, want online", cfg.BotStatus)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "tok")
	t.Setenv("COMMAND_PREFIX", "!")
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("FFMPEG_PATH", "/opt/ffmpeg/bin/ffmpeg")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.CommandPrefix != "!" {
		t.Errorf("CommandPrefix = %q, want !", cfg.CommandPrefix)
	}
	if cfg.FFmpegPath != "/opt/ffmpeg/bin/ffmpeg" {
		t.Errorf("FFmpegPath = %q", cfg.FFmpegPath)
	}
}

func TestLoadConfigRequiresToken(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "")
	t.Setenv("DATA_DIR", t.TempDir())

	_, err := LoadConfig()
	var cfgErr ErrConfig
	if !errors.As(err, &cfgErr) {
		t.Fatalf("LoadConfig without token = %v, want ErrConfig", err)
	}
}
