package bot

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/tobermory/strum/internal/player"
	"github.com/tobermory/strum/internal/resolver"
	"github.com/tobermory/strum/internal/ui"
	"github.com/tobermory/strum/internal/utils"
	"github.com/tobermory/strum/internal/voice"
)

func (b *Bot) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}
	if !strings.HasPrefix(m.Content, b.cfg.CommandPrefix) {
		return
	}

	body := strings.TrimSpace(strings.TrimPrefix(m.Content, b.cfg.CommandPrefix))
	if body == "" {
		return
	}
	name, rest, _ := strings.Cut(body, " ")
	name = strings.ToLower(name)
	rest = strings.TrimSpace(rest)

	slog.Info("command", "name", name, "guildID", m.GuildID, "userID", m.Author.ID)

	switch name {
	case "join", "connect":
		b.cmdJoin(m)
	case "leave", "stop", "disconnect", "dc":
		b.cmdLeave(m)
	case "play", "p":
		b.cmdPlay(m, rest)
	case "skip", "s":
		b.cmdSkip(m)
	case "pause":
		b.cmdPause(m)
	case "resume", "r", "unpause":
		b.cmdResume(m)
	case "queue", "q", "playlist":
		b.cmdQueue(m)
	case "nowplaying", "np", "current":
		b.cmdNowPlaying(m)
	case "volume", "vol":
		b.cmdVolume(m, rest)
	case "settings":
		b.cmdSettings(m, rest)
	default:
		// other bots may share the prefixed namespace; stay quiet
		slog.Debug("unknown command", "name", name, "guildID", m.GuildID)
	}
}

func (b *Bot) reply(channelID, content string) {
	if _, err := b.dg.ChannelMessageSend(channelID, content); err != nil {
		slog.Warn("reply failed", "channelID", channelID, "err", err)
	}
}

// ensureVoice connects (or moves) the guild's session to the requesting
// user's channel and binds it to the player. A moved session is
// announced in the invoking channel.
func (b *Bot) ensureVoice(m *discordgo.MessageCreate) (*voice.Session, error) {
	chID, ok := b.userVoiceChannel(m.GuildID, m.Author.ID)
	if !ok {
		return nil, voice.ErrUserNotInVoice
	}
	sess, moved, err := b.voice.EnsureConnected(b.ctx, m.GuildID, chID)
	if err != nil {
		return nil, err
	}
	if moved {
		b.reply(m.ChannelID, fmt.Sprintf("Moved to <#%s>.", chID))
	}
	b.guildPlayer(b.ctx, m.GuildID).Bind(sess)
	return sess, nil
}

func (b *Bot) cmdJoin(m *discordgo.MessageCreate) {
	chID, ok := b.userVoiceChannel(m.GuildID, m.Author.ID)
	if !ok {
		b.reply(m.ChannelID, "You are not in a voice channel. Join one first!")
		return
	}
	if sess := b.voice.Get(m.GuildID); sess != nil && sess.ChannelID() == chID {
		b.reply(m.ChannelID, "Already in your voice channel.")
		return
	}
	sess, moved, err := b.voice.EnsureConnected(b.ctx, m.GuildID, chID)
	if err != nil {
		b.reply(m.ChannelID, voiceErrText(err))
		return
	}
	b.guildPlayer(b.ctx, m.GuildID).Bind(sess)
	if moved {
		b.reply(m.ChannelID, fmt.Sprintf("Moved to <#%s>.", chID))
		return
	}
	b.reply(m.ChannelID, fmt.Sprintf("Joined <#%s>.", chID))
}

func (b *Bot) cmdLeave(m *discordgo.MessageCreate) {
	p := b.players.Peek(m.GuildID)
	if p == nil || p.Session() == nil {
		b.reply(m.ChannelID, "I'm not in a voice channel.")
		return
	}
	if err := p.Stop(); err != nil {
		b.reply(m.ChannelID, "I'm not in a voice channel.")
		return
	}
	b.reply(m.ChannelID, "Playback stopped, queue cleared, and disconnected.")
}

func (b *Bot) cmdPlay(m *discordgo.MessageCreate, query string) {
	if query == "" {
		b.reply(m.ChannelID, fmt.Sprintf("Usage: %splay <URL or search query>", b.cfg.CommandPrefix))
		return
	}

	sess, err := b.ensureVoice(m)
	if err != nil {
		b.reply(m.ChannelID, voiceErrText(err))
		return
	}
	p := b.guildPlayer(b.ctx, m.GuildID)

	searching, err := b.dg.ChannelMessageSend(m.ChannelID,
		fmt.Sprintf("Searching for: `%s` ⏳", strings.ReplaceAll(query, "`", "'")))
	if err != nil {
		slog.Warn("searching message failed", "channelID", m.ChannelID, "err", err)
	}
	edit := func(content string) {
		if searching == nil {
			b.reply(m.ChannelID, content)
			return
		}
		if _, err := b.dg.ChannelMessageEdit(m.ChannelID, searching.ID, content); err != nil {
			slog.Warn("edit failed", "channelID", m.ChannelID, "err", err)
		}
	}

	// Resolution is long-running and holds no player state: a slow
	// lookup in one guild never blocks another guild's commands.
	cand, err := b.resolver.Resolve(b.ctx, query)
	if err != nil {
		slog.Debug("resolve failed", "guildID", m.GuildID, "query", query, "err", err)
		edit(resolveErrText(query, err))
		return
	}

	track := player.Track{
		Title:       cand.Title,
		URL:         cand.CanonicalURL,
		StreamURL:   cand.StreamURL,
		Duration:    cand.Duration,
		Uploader:    cand.Uploader,
		Thumbnail:   cand.Thumbnail,
		RequestedBy: m.Author.ID,
		TextChannel: m.ChannelID,
	}

	pos, started, err := p.Enqueue(sess, track)
	if err != nil {
		// stopped or disconnected while resolving; drop the result
		edit("Playback was stopped before the track could be queued.")
		return
	}
	if started {
		edit(fmt.Sprintf("Added to queue: **%s**", utils.EscapeMd(track.Title)))
		return
	}
	edit(fmt.Sprintf("Added to queue (#%d): **%s**", pos, utils.EscapeMd(track.Title)))
}

func (b *Bot) cmdSkip(m *discordgo.MessageCreate) {
	p := b.players.Peek(m.GuildID)
	if p == nil {
		b.reply(m.ChannelID, "Not playing anything or queue is empty, nothing to skip.")
		return
	}
	if err := p.Skip(); err != nil {
		b.reply(m.ChannelID, "Not playing anything or queue is empty, nothing to skip.")
		return
	}
	b.reply(m.ChannelID, "Skipped current song.")
}

func (b *Bot) cmdPause(m *discordgo.MessageCreate) {
	p := b.players.Peek(m.GuildID)
	if p == nil || p.Pause() != nil {
		b.reply(m.ChannelID, "Not playing anything or already paused.")
		return
	}
	b.reply(m.ChannelID, fmt.Sprintf("Paused playback. Use `%sresume` to continue.", b.cfg.CommandPrefix))
}

func (b *Bot) cmdResume(m *discordgo.MessageCreate) {
	p := b.players.Peek(m.GuildID)
	if p == nil || p.Resume() != nil {
		b.reply(m.ChannelID, "Not paused or nothing to resume.")
		return
	}
	b.reply(m.ChannelID, "Resumed playback.")
}

func (b *Bot) cmdQueue(m *discordgo.MessageCreate) {
	p := b.players.Peek(m.GuildID)
	if p == nil {
		b.reply(m.ChannelID, "The queue is currently empty.")
		return
	}
	now, hasNow := p.NowPlaying()
	upcoming := p.Upcoming()
	if !hasNow && len(upcoming) == 0 {
		b.reply(m.ChannelID, "The queue is currently empty.")
		return
	}

	pageSize := 10
	if set, err := b.repo.GetSettings(b.ctx, m.GuildID); err == nil && set != nil {
		pageSize = set.QueuePageSize
	}

	var nowPtr *player.Track
	if hasNow {
		nowPtr = &now
	}
	embed := ui.BuildQueueEmbed(nowPtr, p.Status(), upcoming, pageSize)
	if _, err := b.dg.ChannelMessageSendEmbed(m.ChannelID, embed); err != nil {
		slog.Warn("queue embed failed", "guildID", m.GuildID, "err", err)
	}
}

func (b *Bot) cmdNowPlaying(m *discordgo.MessageCreate) {
	p := b.players.Peek(m.GuildID)
	if p == nil {
		b.reply(m.ChannelID, "Not currently playing any song.")
		return
	}
	now, ok := p.NowPlaying()
	if !ok {
		b.reply(m.ChannelID, "Not currently playing any song.")
		return
	}
	embed := ui.BuildNowPlayingEmbed(now, p.Status())
	if _, err := b.dg.ChannelMessageSendEmbed(m.ChannelID, embed); err != nil {
		slog.Warn("nowplaying embed failed", "guildID", m.GuildID, "err", err)
	}
}

func (b *Bot) cmdVolume(m *discordgo.MessageCreate, arg string) {
	p := b.guildPlayer(b.ctx, m.GuildID)
	if arg == "" {
		b.reply(m.ChannelID, fmt.Sprintf("Volume is currently %d%%.", p.VolumePercent()))
		return
	}
	n, err := strconv.Atoi(arg)
	if err != nil {
		b.reply(m.ChannelID, fmt.Sprintf("Usage: %svolume <0-200>", b.cfg.CommandPrefix))
		return
	}
	live, err := p.SetVolumePercent(n)
	if err != nil {
		b.reply(m.ChannelID, "Volume must be between 0 and 200.")
		return
	}
	if !live && p.Status() != player.StatusIdle {
		b.reply(m.ChannelID, fmt.Sprintf("Volume will be set to %d%% for the next song (could not adjust current source).", n))
		return
	}
	b.reply(m.ChannelID, fmt.Sprintf("Volume set to %d%%.", n))
}

func (b *Bot) cmdSettings(m *discordgo.MessageCreate, rest string) {
	sub, arg, _ := strings.Cut(rest, " ")
	sub = strings.ToLower(strings.TrimSpace(sub))
	arg = strings.TrimSpace(arg)

	switch sub {
	case "", "get":
		set, err := b.repo.UpsertSettings(b.ctx, m.GuildID)
		if err != nil {
			slog.Error("get settings failed", "guildID", m.GuildID, "err", err)
			b.reply(m.ChannelID, "Failed to fetch settings.")
			return
		}
		b.reply(m.ChannelID, fmt.Sprintf(
			"Settings\n- Default volume: %d%%\n- Queue page size: %d",
			set.DefaultVolume, set.QueuePageSize))
	case "volume":
		n, err := strconv.Atoi(arg)
		if err != nil || n < 0 || n > 200 {
			b.reply(m.ChannelID, "Default volume must be between 0 and 200.")
			return
		}
		set, err := b.repo.UpsertSettings(b.ctx, m.GuildID)
		if err != nil {
			b.reply(m.ChannelID, "Failed to fetch settings.")
			return
		}
		set.DefaultVolume = n
		if err := b.repo.UpdateSettings(b.ctx, set); err != nil {
			slog.Warn("update settings failed", "guildID", m.GuildID, "err", err)
			b.reply(m.ChannelID, "Failed to update settings.")
			return
		}
		b.reply(m.ChannelID, fmt.Sprintf("Default volume set to %d%%.", n))
	case "pagesize":
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 || n > 30 {
			b.reply(m.ChannelID, "Queue page size must be between 1 and 30.")
			return
		}
		set, err := b.repo.UpsertSettings(b.ctx, m.GuildID)
		if err != nil {
			b.reply(m.ChannelID, "Failed to fetch settings.")
			return
		}
		set.QueuePageSize = n
		if err := b.repo.UpdateSettings(b.ctx, set); err != nil {
			slog.Warn("update settings failed", "guildID", m.GuildID, "err", err)
			b.reply(m.ChannelID, "Failed to update settings.")
			return
		}
		b.reply(m.ChannelID, fmt.Sprintf("Queue page size set to %d.", n))
	default:
		b.reply(m.ChannelID, fmt.Sprintf("Usage: %ssettings [get|volume <0-200>|pagesize <1-30>]", b.cfg.CommandPrefix))
	}
}

func voiceErrText(err error) string {
	switch {
	case errors.Is(err, voice.ErrUserNotInVoice):
		return "You are not connected to a voice channel."
	case errors.Is(err, voice.ErrSessionBusy):
		return "I'm currently busy in another channel. Join me there, or wait until I'm free."
	default:
		return "Error connecting to voice channel."
	}
}

func resolveErrText(query string, err error) string {
	switch {
	case errors.Is(err, resolver.ErrNotFound):
		return fmt.Sprintf("Could not find a playable track for `%s`.", strings.ReplaceAll(query, "`", "'"))
	case errors.Is(err, resolver.ErrUnavailable):
		return "That track is unavailable. It might be private, removed, or region-locked."
	default:
		return "Error fetching song information. Please try again."
	}
}
