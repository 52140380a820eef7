package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backupTimeLayout is the timestamp lumberjack appends to size backups.
const backupTimeLayout = "2006-01-02T15-04-05.000"

// fakeClock is a settable clock for rotation tests.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func newTestRotator(t *testing.T, cfg RotationConfig, clock *fakeClock) (*dailyRotator, string) {
	t.Helper()
	dir := t.TempDir()
	ts := NewTimestampFormatter(180)
	ts.now = clock.Now
	r := newDailyRotator(dir, categoryCombined, cfg, ts)
	t.Cleanup(func() { _ = r.Close() })
	return r, dir
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestDailyRotator_SizeRotation(t *testing.T) {
	clock := &fakeClock{t: fixedNow}
	r, dir := newTestRotator(t, RotationConfig{MaxFileSizeMB: 1, MaxRetainedFiles: 5}, clock)

	line := append(bytes.Repeat([]byte("x"), 1023), '\n')
	for i := 0; i < 1500; i++ {
		_, err := r.Write(line)
		require.NoError(t, err)
	}
	require.NoError(t, r.Close())

	prefix := "combined-" + fixedDate + "-"
	var backups []string
	for _, name := range listDir(t, dir) {
		if strings.HasPrefix(name, prefix) {
			backups = append(backups, name)
		}
	}
	require.NotEmpty(t, backups)
	assert.FileExists(t, filepath.Join(dir, "combined-"+fixedDate+".log"))

	// backup suffixes are UTC wall clock, independent of the host zone
	assert.False(t, r.out.LocalTime)
	stamp := strings.TrimSuffix(strings.TrimPrefix(backups[0], prefix), ".log")
	parsed, err := time.Parse(backupTimeLayout, stamp)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC(), parsed, time.Minute)
}

func TestDailyRotator_RetentionWithinDay(t *testing.T) {
	clock := &fakeClock{t: fixedNow}
	r, dir := newTestRotator(t, RotationConfig{MaxFileSizeMB: 1, MaxRetainedFiles: 2}, clock)

	_, err := r.Write([]byte("day one\n"))
	require.NoError(t, err)

	clock.Set(fixedNow.Add(24 * time.Hour))
	line := append(bytes.Repeat([]byte("y"), 1023), '\n')
	for i := 0; i < 4096; i++ {
		_, err = r.Write(line)
		require.NoError(t, err)
		if i%256 == 0 {
			// keep lumberjack's millisecond backup names distinct
			time.Sleep(2 * time.Millisecond)
		}
	}
	require.NoError(t, r.Close())

	var rotated []string
	for _, name := range listDir(t, dir) {
		if name != "combined-2026-03-15.log" {
			rotated = append(rotated, name)
		}
	}
	assert.Len(t, rotated, 2)
	for _, name := range rotated {
		assert.True(t, strings.HasPrefix(name, "combined-2026-03-15-"), name)
	}
	assert.FileExists(t, filepath.Join(dir, "combined-2026-03-15.log"))
}

func TestDailyRotator_ReusesLoggerAcrossDays(t *testing.T) {
	clock := &fakeClock{t: fixedNow}
	r, dir := newTestRotator(t, RotationConfig{MaxFileSizeMB: 10, MaxRetainedFiles: 5}, clock)

	_, err := r.Write([]byte("a\n"))
	require.NoError(t, err)
	out := r.out

	for day := 1; day <= 3; day++ {
		clock.Set(fixedNow.Add(time.Duration(day) * 24 * time.Hour))
		_, err = r.Write([]byte("b\n"))
		require.NoError(t, err)
		assert.Same(t, out, r.out)
	}
	assert.Equal(t, filepath.Join(dir, "combined-2026-03-17.log"), r.out.Filename)
}

func TestDailyRotator_CompressionDoesNotBlockWriters(t *testing.T) {
	clock := &fakeClock{t: fixedNow}
	r, dir := newTestRotator(t, RotationConfig{MaxFileSizeMB: 10, MaxRetainedFiles: 5, Compress: true}, clock)

	started := make(chan string, 1)
	release := make(chan struct{})
	unblock := sync.OnceFunc(func() { close(release) })
	t.Cleanup(unblock)
	r.compress = func(src string) error {
		started <- src
		<-release
		return gzipFile(src)
	}

	_, err := r.Write([]byte("day one\n"))
	require.NoError(t, err)
	clock.Set(fixedNow.Add(24 * time.Hour))

	done := make(chan error, 1)
	go func() {
		if _, werr := r.Write([]byte("day two\n")); werr != nil {
			done <- werr
			return
		}
		_, werr := r.Write([]byte("day two again\n"))
		done <- werr
	}()

	select {
	case src := <-started:
		assert.Equal(t, filepath.Join(dir, "combined-2026-03-14.log"), src)
	case <-time.After(5 * time.Second):
		t.Fatal("compression never started")
	}
	select {
	case err = <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("write blocked behind compression")
	}

	unblock()
	require.NoError(t, r.Close())
	assert.Equal(t, []string{
		"combined-2026-03-14.log.gz",
		"combined-2026-03-15.log",
	}, listDir(t, dir))
}

func TestDailyRotator_DateChange(t *testing.T) {
	clock := &fakeClock{t: fixedNow}
	r, dir := newTestRotator(t, RotationConfig{MaxFileSizeMB: 10, MaxRetainedFiles: 5, Compress: true}, clock)

	_, err := r.Write([]byte("day one\n"))
	require.NoError(t, err)

	clock.Set(fixedNow.Add(24 * time.Hour))
	_, err = r.Write([]byte("day two\n"))
	require.NoError(t, err)
	require.NoError(t, r.Close())

	assert.Equal(t, []string{
		"combined-2026-03-14.log.gz",
		"combined-2026-03-15.log",
	}, listDir(t, dir))

	f, err := os.Open(filepath.Join(dir, "combined-2026-03-14.log.gz"))
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	var out bytes.Buffer
	_, err = out.ReadFrom(gz)
	require.NoError(t, err)
	assert.Equal(t, "day one\n", out.String())
}

func TestDailyRotator_DateChangeWithoutCompression(t *testing.T) {
	clock := &fakeClock{t: fixedNow}
	r, dir := newTestRotator(t, RotationConfig{MaxFileSizeMB: 10, MaxRetainedFiles: 5}, clock)

	_, err := r.Write([]byte("a\n"))
	require.NoError(t, err)
	clock.Set(fixedNow.Add(24 * time.Hour))
	_, err = r.Write([]byte("b\n"))
	require.NoError(t, err)
	require.NoError(t, r.Close())

	assert.Equal(t, []string{"combined-2026-03-14.log", "combined-2026-03-15.log"}, listDir(t, dir))
}

func TestDailyRotator_Retention(t *testing.T) {
	clock := &fakeClock{t: fixedNow}
	r, dir := newTestRotator(t, RotationConfig{MaxFileSizeMB: 10, MaxRetainedFiles: 2, Compress: true}, clock)

	for day := 0; day < 5; day++ {
		clock.Set(fixedNow.Add(time.Duration(day) * 24 * time.Hour))
		_, err := r.Write([]byte("entry\n"))
		require.NoError(t, err)
	}
	require.NoError(t, r.Close())

	assert.Equal(t, []string{
		"combined-2026-03-16.log.gz",
		"combined-2026-03-17.log.gz",
		"combined-2026-03-18.log",
	}, listDir(t, dir))
}

func TestDailyRotator_ArchivesStaleFilesOnStart(t *testing.T) {
	clock := &fakeClock{t: fixedNow}
	r, dir := newTestRotator(t, RotationConfig{MaxFileSizeMB: 10, MaxRetainedFiles: 5, Compress: true}, clock)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "combined-2026-03-01.log"), []byte("old\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "error-2026-03-01.log"), []byte("other category\n"), 0o644))

	_, err := r.Write([]byte("today\n"))
	require.NoError(t, err)
	require.NoError(t, r.Close())

	assert.Equal(t, []string{
		"combined-2026-03-01.log.gz",
		"combined-2026-03-14.log",
		"error-2026-03-01.log",
	}, listDir(t, dir))
}

func TestDailyRotator_Closed(t *testing.T) {
	clock := &fakeClock{t: fixedNow}
	r, _ := newTestRotator(t, RotationConfig{MaxFileSizeMB: 1, MaxRetainedFiles: 1}, clock)
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())

	_, err := r.Write([]byte("late\n"))
	assert.ErrorIs(t, err, errRotatorClosed)
}

func TestService_NewFileAfterDateChange(t *testing.T) {
	clock := &fakeClock{t: fixedNow}
	s, _, _ := newTestService(t, func(s *Service) {
		s.Config.Console = false
		s.now = clock.Now
	})

	s.LogAction("before midnight", nil)
	clock.Set(fixedNow.Add(24 * time.Hour))
	s.LogAction("after midnight", nil)

	e := lastEntry(t, filepath.Join(s.logDir(), "combined-2026-03-15.log"))
	assert.Equal(t, "after midnight", e["message"])
	assert.Equal(t, "2026-03-15 12:30:00", e["time"])

	// the previous day is archived in the background; Close waits for it
	require.NoError(t, s.Close())
	assert.FileExists(t, filepath.Join(s.logDir(), "combined-2026-03-14.log.gz"))
}
