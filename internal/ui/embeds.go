package ui

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/tobermory/strum/internal/player"
	"github.com/tobermory/strum/internal/utils"
)

func trackLink(t player.Track) string {
	return fmt.Sprintf("[%s](%s)", utils.EscapeMd(t.Title), t.URL)
}

func trackDuration(t player.Track) string {
	if t.Duration <= 0 {
		return "live"
	}
	return utils.PrettyTime(t.Duration)
}

func BuildNowPlayingEmbed(t player.Track, status player.Status) *discordgo.MessageEmbed {
	title := "Now Playing"
	color := 0x2ECC71
	if status == player.StatusPaused {
		title = "Paused"
		color = 0xE67E22
	}
	embed := &discordgo.MessageEmbed{
		Title: title,
		Color: color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Title", Value: trackLink(t), Inline: false},
			{Name: "Requested by", Value: fmt.Sprintf("<@%s>", t.RequestedBy), Inline: true},
		},
	}
	if t.Duration > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Duration", Value: utils.PrettyTime(t.Duration), Inline: true,
		})
	}
	if t.Uploader != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Uploader", Value: t.Uploader, Inline: true,
		})
	}
	if t.Thumbnail != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: t.Thumbnail}
	}
	return embed
}

// BuildQueueEmbed lists the now-playing track plus up to pageSize
// upcoming entries, with an overflow footer.
func BuildQueueEmbed(now *player.Track, status player.Status, upcoming []player.Track, pageSize int) *discordgo.MessageEmbed {
	if pageSize <= 0 {
		pageSize = 10
	}
	embed := &discordgo.MessageEmbed{
		Title: "Music Queue",
		Color: 0x3498DB,
	}

	if now != nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Now Playing",
			Value: fmt.Sprintf("%s | `%s` | Req by: <@%s>",
				trackLink(*now), trackDuration(*now), now.RequestedBy),
			Inline: false,
		})
		if now.Thumbnail != "" {
			embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: now.Thumbnail}
		}
	}

	if len(upcoming) > 0 {
		var b strings.Builder
		shown := upcoming
		if len(shown) > pageSize {
			shown = shown[:pageSize]
		}
		for i, t := range shown {
			fmt.Fprintf(&b, "%d. %s | `%s` | Req by: <@%s>\n",
				i+1, trackLink(t), trackDuration(t), t.RequestedBy)
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Up Next", Value: b.String(), Inline: false,
		})
		if rest := len(upcoming) - pageSize; rest > 0 {
			embed.Footer = &discordgo.MessageEmbedFooter{
				Text: fmt.Sprintf("...and %d more song(s).", rest),
			}
		}
	}
	return embed
}
