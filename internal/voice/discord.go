package voice

import (
	"context"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
)

// DiscordConnector joins voice channels through a discordgo session.
type DiscordConnector struct {
	s *discordgo.Session
}

func NewDiscordConnector(s *discordgo.Session) *DiscordConnector {
	return &DiscordConnector{s: s}
}

func (c *DiscordConnector) Join(ctx context.Context, guildID, channelID string) (Conn, error) {
	vc, err := c.s.ChannelVoiceJoin(ctx, guildID, channelID, false, true)
	if err != nil {
		return nil, err
	}
	return &DiscordConn{s: c.s, vc: vc, guildID: guildID, channelID: channelID}, nil
}

// DiscordConn wraps a discordgo voice connection.
type DiscordConn struct {
	s         *discordgo.Session
	vc        *discordgo.VoiceConnection
	guildID   string
	channelID string
}

func (c *DiscordConn) ChannelID() string { return c.channelID }

// Voice exposes the raw connection for the audio sink.
func (c *DiscordConn) Voice() *discordgo.VoiceConnection { return c.vc }

func (c *DiscordConn) Move(ctx context.Context, channelID string) error {
	// discordgo moves an existing connection by re-joining the guild.
	vc, err := c.s.ChannelVoiceJoin(ctx, c.guildID, channelID, false, true)
	if err != nil {
		return err
	}
	c.vc = vc
	c.channelID = channelID
	return nil
}

func (c *DiscordConn) Disconnect() error {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("voice disconnect panic recovered", "panic", r, "guildID", c.guildID)
		}
	}()

	_ = c.vc.Speaking(false)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return c.vc.Disconnect(ctx)
}
