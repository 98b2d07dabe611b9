package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/sirupsen/logrus"
)

const dailyFilePattern = "log-%Y-%m-%d.txt"

// DailyFileHook appends log entries to <dir>/log-YYYY-MM-DD.txt, switching
// files when the calendar day changes.
type DailyFileHook struct {
	dir       string
	levels    []logrus.Level
	formatter logrus.Formatter
	writer    *rotatelogs.RotateLogs
}

// NewDailyFileHook keeps every day's file. opts are passed to rotatelogs
// after the defaults, so callers may override the clock.
func NewDailyFileHook(dir string, minLevel logrus.Level, opts ...rotatelogs.Option) (*DailyFileHook, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("NewDailyFileHook: failed to create log dir %s: %w", dir, err)
	}

	options := append([]rotatelogs.Option{
		rotatelogs.WithClock(rotatelogs.Local),
		rotatelogs.WithRotationTime(24 * time.Hour),
		rotatelogs.WithMaxAge(-1),
	}, opts...)

	writer, err := rotatelogs.New(filepath.Join(dir, dailyFilePattern), options...)
	if err != nil {
		return nil, fmt.Errorf("NewDailyFileHook: failed to create rotating writer: %w", err)
	}

	var levels []logrus.Level
	for _, lvl := range logrus.AllLevels {
		if lvl <= minLevel {
			levels = append(levels, lvl)
		}
	}

	return &DailyFileHook{
		dir:    dir,
		levels: levels,
		formatter: &logrus.TextFormatter{
			DisableColors:   true,
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05.000000",
		},
		writer: writer,
	}, nil
}

func (h *DailyFileHook) Levels() []logrus.Level {
	return h.levels
}

func (h *DailyFileHook) Fire(entry *logrus.Entry) error {
	line, err := h.formatter.Format(entry)
	if err != nil {
		return fmt.Errorf("DailyFileHook: failed to format entry: %w", err)
	}

	if _, err := h.writer.Write(line); err != nil {
		return fmt.Errorf("DailyFileHook: failed to write entry: %w", err)
	}

	return nil
}

// Path returns the file entries logged at t are written to.
func (h *DailyFileHook) Path(t time.Time) string {
	return filepath.Join(h.dir, fmt.Sprintf("log-%s.txt", t.Format("2006-01-02")))
}

func (h *DailyFileHook) Close() error {
	return h.writer.Close()
}
