package nativelog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_DailyFile(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(filepath.Join(dir, "logs"))
	require.NoError(t, err)

	day := time.Date(2025, 9, 15, 8, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return day }
	_, err = w.Write([]byte("first\n"))
	require.NoError(t, err)
	_, err = w.Write([]byte("second\n"))
	require.NoError(t, err)

	day = day.Add(24 * time.Hour)
	_, err = w.Write([]byte("third\n"))
	require.NoError(t, err)

	b, err := os.ReadFile(filepath.Join(dir, "logs", "stdout_2025-09-15.log"))
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(b))

	b, err = os.ReadFile(filepath.Join(dir, "logs", "stdout_2025-09-16.log"))
	require.NoError(t, err)
	assert.Equal(t, "third\n", string(b))
}

func TestNewZapLogger(t *testing.T) {
	for _, dev := range []bool{true, false} {
		dir := t.TempDir()
		logger, err := NewZapLogger(dir, dev)
		require.NoError(t, err)
		logger.Info("hello")
		_ = logger.Sync()

		b, err := os.ReadFile(filepath.Join(dir, TodayFilename(time.Now())))
		require.NoError(t, err)
		assert.Contains(t, string(b), "hello")
	}
}
