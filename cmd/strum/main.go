package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/mattn/go-sqlite3"
	"github.com/tobermory/strum/internal/bot"
	"github.com/tobermory/strum/internal/config"
	"github.com/tobermory/strum/internal/repository"
	"github.com/tobermory/strum/internal/resolver"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	db, err := repository.OpenDB(cfg)
	if err != nil {
		log.Fatal(err)
	}
	repo := repository.NewRepo(db)

	var spotify *resolver.Spotify
	if cfg.SpotifyClientID != "" && cfg.SpotifyClientSecret != "" {
		spotify, err = resolver.NewSpotify(cfg.SpotifyClientID, cfg.SpotifyClientSecret)
		if err != nil {
			log.Fatal(err)
		}
	} else {
		slog.Info("spotify credentials not set, spotify links disabled")
	}
	res := resolver.NewYTDLP(spotify)

	b := bot.NewBot(cfg, repo, res)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := b.Run(ctx); err != nil {
		log.Fatal(err)
	}
}
