package logx

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Debug        bool   `split_words:"true" default:"false"`
	PrettyFormat bool   `split_words:"true" default:"false"`
	Level        string `split_words:"true"`
}

var DefaultConfig = &Config{
	Debug:        false,
	PrettyFormat: false,
}

func safe(opts ...Config) *Config {
	if len(opts) == 0 {
		return DefaultConfig
	}
	return &opts[0]
}

func Init(opts ...Config) {
	conf := safe(opts...)

	var out io.Writer = os.Stdout
	if conf.PrettyFormat {
		out = zerolog.NewConsoleWriter()
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	log.Logger = log.Logger.Level(conf.level())
	log.Logger = log.Logger.With().Caller().Stack().Logger()
}

// level resolves the effective level. An explicit Level wins over Debug.
func (c *Config) level() zerolog.Level {
	if raw := strings.TrimSpace(c.Level); raw != "" {
		if lvl, err := zerolog.ParseLevel(strings.ToLower(raw)); err == nil {
			return lvl
		}
	}
	if c.Debug {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}
