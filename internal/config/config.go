package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds runtime settings, all overridable from the environment.
type Config struct {
	DownloadsDir string `env:"RTDL_DOWNLOADS_DIR" envDefault:"downloads"`
	SubtitlesDir string `env:"RTDL_SUBTITLES_DIR" envDefault:"subtitles"`
	JournalPath  string `env:"RTDL_JOURNAL_PATH" envDefault:"failed_downloads.log"`
	DefaultTier  string `env:"RTDL_PACING_TIER" envDefault:"normal"`
	YTDLPBinary  string `env:"RTDL_YTDLP_BIN" envDefault:"yt-dlp"`
	UserAgent    string `env:"RTDL_USER_AGENT"`
}

func Load() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse environment config: %w", err)
	}
	return c, nil
}
