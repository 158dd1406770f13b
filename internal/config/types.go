package config

type Config struct {
	DiscordToken        string
	CommandPrefix       string
	SpotifyClientID     string
	SpotifyClientSecret string
	DataDir             string
	FFmpegPath          string
	BotStatus           string // online/dnd/idle
	BotActivity         string
}
