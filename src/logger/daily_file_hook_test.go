package logger

import (
	"os"
	"testing"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClock struct {
	now time.Time
}

func (c *stubClock) Now() time.Time { return c.now }

func TestDailyFileHook(t *testing.T) {
	t.Run("writes entries to a file per day", func(t *testing.T) {
		// arrange
		dir := t.TempDir()
		day1 := time.Date(2024, 6, 21, 23, 59, 0, 0, time.UTC)
		day2 := day1.Add(2 * time.Minute)

		clock := &stubClock{now: day1}
		hook, err := NewDailyFileHook(dir, logrus.InfoLevel, rotatelogs.WithClock(clock))
		require.NoError(t, err)
		defer hook.Close()

		l := logrus.New()
		l.SetOutput(nopWriter{})
		l.AddHook(hook)

		// act
		l.Info("placed order 1")

		clock.now = day2
		l.Info("placed order 2")
		l.Debug("not at level")

		// assert
		first, err := os.ReadFile(hook.Path(day1))
		require.NoError(t, err)
		assert.Contains(t, string(first), "placed order 1")
		assert.NotContains(t, string(first), "placed order 2")

		second, err := os.ReadFile(hook.Path(day2))
		require.NoError(t, err)
		assert.Contains(t, string(second), "placed order 2")
		assert.NotContains(t, string(second), "not at level")
	})

	t.Run("file name", func(t *testing.T) {
		hook, err := NewDailyFileHook(t.TempDir(), logrus.InfoLevel)
		require.NoError(t, err)
		defer hook.Close()

		path := hook.Path(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
		assert.Equal(t, "log-2024-01-02.txt", path[len(path)-len("log-2024-01-02.txt"):])
	})
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
