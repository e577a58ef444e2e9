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
	Caller       bool   `split_words:"true" default:"true"`

	// Writer overrides the output; nil means stdout for JSON and stderr for console.
	Writer io.Writer `ignored:"true"`
}

var DefaultConfig = &Config{
	Debug:        false,
	PrettyFormat: false,
	Caller:       true,
}

func safe(opts ...Config) *Config {
	if len(opts) == 0 {
		return DefaultConfig
	}
	return &opts[0]
}

func Init(opts ...Config) {
	conf := safe(opts...)

	if conf.PrettyFormat {
		out := conf.Writer
		if out == nil {
			out = os.Stderr
		}
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: out}).With().Timestamp().Logger()
	} else {
		out := conf.Writer
		if out == nil {
			out = os.Stdout
		}
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
	}

	log.Logger = log.Logger.Level(resolveLevel(conf))

	if conf.Caller {
		log.Logger = log.Logger.With().Caller().Stack().Logger()
	}

	// zerolog.Ctx falls back to this when a context carries no logger.
	zerolog.DefaultContextLogger = &log.Logger
}

func resolveLevel(conf *Config) zerolog.Level {
	if conf.Debug {
		return zerolog.DebugLevel
	}
	if lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(conf.Level))); err == nil && conf.Level != "" {
		return lvl
	}
	return zerolog.InfoLevel
}
