package logger

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

type Options struct {
	Level  string
	Format string
	Dir    string
}

// Setup configures the standard logrus logger. When a directory is given, a
// DailyFileHook is installed and returned so the caller can close it.
func Setup(opts Options) (*DailyFileHook, error) {
	level := log.InfoLevel
	if opts.Level != "" {
		lvl, err := log.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("logger.Setup: %w", err)
		}
		level = lvl
	}
	log.SetLevel(level)

	switch opts.Format {
	case "", "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		return nil, fmt.Errorf("logger.Setup: unknown log format %q", opts.Format)
	}

	if opts.Dir == "" {
		return nil, nil
	}

	hook, err := NewDailyFileHook(opts.Dir, level)
	if err != nil {
		return nil, err
	}

	log.AddHook(hook)
	return hook, nil
}
