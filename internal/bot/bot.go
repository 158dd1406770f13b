package bot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/tobermory/strum/internal/config"
	"github.com/tobermory/strum/internal/player"
	"github.com/tobermory/strum/internal/repository"
	"github.com/tobermory/strum/internal/resolver"
	"github.com/tobermory/strum/internal/stream"
	"github.com/tobermory/strum/internal/utils"
	"github.com/tobermory/strum/internal/voice"
)

type Bot struct {
	cfg      *config.Config
	repo     *repository.Repo
	resolver resolver.Resolver

	ctx     context.Context
	dg      *discordgo.Session
	voice   *voice.Manager
	players *player.Manager
}

func NewBot(cfg *config.Config, repo *repository.Repo, res resolver.Resolver) *Bot {
	return &Bot{cfg: cfg, repo: repo, resolver: res}
}

func (b *Bot) Run(ctx context.Context) error {
	dg, err := discordgo.New("Bot " + b.cfg.DiscordToken)
	if err != nil {
		return err
	}
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent |
		discordgo.IntentsGuildVoiceStates

	b.ctx = ctx
	b.dg = dg

	connector := voice.NewDiscordConnector(dg)
	sinks := func(c voice.Conn) voice.Sink {
		dc := c.(*voice.DiscordConn)
		return stream.NewOpusSink(dc.Voice(), b.cfg.FFmpegPath)
	}
	b.voice = voice.NewManager(connector, sinks)
	b.players = player.NewManager(b.voice, b.announceTrack)

	dg.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		slog.Info("connected", "user", s.State.User.Username, "prefix", b.cfg.CommandPrefix)
		if b.cfg.BotActivity != "" {
			if err := s.UpdateGameStatus(0, b.cfg.BotActivity); err != nil {
				slog.Debug("status update failed", "err", err)
			}
		}
	})
	dg.AddHandler(b.onMessage)

	if err := dg.Open(); err != nil {
		return err
	}
	defer dg.Close()

	<-ctx.Done()
	slog.Info("shutting down, tearing down voice sessions")
	b.players.StopAll()
	b.voice.TeardownAll()
	return nil
}

// announceTrack posts the now-playing line to the channel the track was
// requested from. Runs off the player lock.
func (b *Bot) announceTrack(t player.Track) {
	if t.TextChannel == "" {
		return
	}
	msg := fmt.Sprintf("Now playing: **%s** (requested by <@%s>)",
		utils.EscapeMd(t.Title), t.RequestedBy)
	if _, err := b.dg.ChannelMessageSend(t.TextChannel, msg); err != nil {
		slog.Warn("announce failed", "channelID", t.TextChannel, "err", err)
	}
}

// userVoiceChannel finds the voice channel the user currently occupies
// in the guild, if any.
func (b *Bot) userVoiceChannel(guildID, userID string) (string, bool) {
	g, _ := b.dg.State.Guild(guildID)
	if g == nil {
		g, _ = b.dg.Guild(guildID)
	}
	if g == nil {
		return "", false
	}
	for _, vs := range g.VoiceStates {
		if vs.UserID == userID && vs.ChannelID != "" {
			return vs.ChannelID, true
		}
	}
	return "", false
}

// guildPlayer returns the guild's player, seeding its settings row and
// default volume on first touch.
func (b *Bot) guildPlayer(ctx context.Context, guildID string) *player.Player {
	gain := player.DefaultGain
	if set, err := b.repo.UpsertSettings(ctx, guildID); err == nil && set != nil {
		gain = float64(set.DefaultVolume) / 100
	} else if err != nil {
		slog.Warn("settings lookup failed", "guildID", guildID, "err", err)
	}
	return b.players.Get(guildID, gain)
}
