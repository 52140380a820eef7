package logging

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"gopkg.in/natefinch/lumberjack.v2"
)

const megabyte = 1024 * 1024

var errRotatorClosed = errors.New("rotating file is closed")

// RotationConfig is the per-file-sink rotation policy. The date pattern is
// always daily.
type RotationConfig struct {
	MaxFileSizeMB    int
	MaxRetainedFiles int
	Compress         bool
}

// dailyRotator writes <category>-<YYYY-MM-DD>.log. A new file starts when the
// calendar date changes; within a day the file is rotated on size. Size
// backups are named by lumberjack as <category>-<date>-<UTC time>.log.
//
// Every rotation wakes a background mill that caps the rotated-out segments
// of the category at MaxRetainedFiles and gzips the survivors, so writers
// never wait on compression. Close waits for the mill to finish.
type dailyRotator struct {
	dir      string
	category string
	cfg      RotationConfig
	ts       TimestampFormatter

	mu     sync.Mutex
	date   string
	size   int64
	out    *lumberjack.Logger
	closed bool

	compress func(string) error
	millCh   chan struct{}
	millDone chan struct{}
}

func newDailyRotator(dir, category string, cfg RotationConfig, ts TimestampFormatter) *dailyRotator {
	if cfg.MaxFileSizeMB <= 0 {
		cfg.MaxFileSizeMB = defaultMaxFileSizeMB
	}
	r := &dailyRotator{
		dir:      dir,
		category: category,
		cfg:      cfg,
		ts:       ts,
		// Retention and compression are ours; lumberjack only cuts segments.
		// Backup timestamps stay in UTC whatever the host zone is.
		out: &lumberjack.Logger{
			MaxSize:   cfg.MaxFileSizeMB,
			LocalTime: false,
		},
		compress: gzipFile,
		millCh:   make(chan struct{}, 1),
		millDone: make(chan struct{}),
	}
	go r.millRun()
	return r
}

func (r *dailyRotator) filename(date string) string {
	return filepath.Join(r.dir, r.category+"-"+date+".log")
}

func (r *dailyRotator) maxBytes() int64 {
	return int64(r.cfg.MaxFileSizeMB) * megabyte
}

func (r *dailyRotator) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0, errRotatorClosed
	}
	date := r.ts.Date(r.ts.Now())
	if r.out.Filename == emptyString || date != r.date {
		r.rollover(date)
	}
	if r.size > 0 && r.size+int64(len(p)) >= r.maxBytes() {
		if err := r.out.Rotate(); err != nil {
			return 0, err
		}
		r.size = 0
		r.signalMill()
	}
	n, err := r.out.Write(p)
	r.size += int64(n)
	return n, err
}

func (r *dailyRotator) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	err := r.out.Close()
	r.mu.Unlock()

	close(r.millCh)
	<-r.millDone
	return err
}

// rollover points the logger at the file for date, appending when it already
// exists. Callers hold r.mu.
func (r *dailyRotator) rollover(date string) {
	_ = r.out.Close()
	r.out.Filename = r.filename(date)
	r.date = date
	r.size = 0
	if info, err := os.Stat(r.out.Filename); err == nil {
		r.size = info.Size()
	}
	r.signalMill()
}

// signalMill queues one mill pass. Callers hold r.mu and have checked closed.
func (r *dailyRotator) signalMill() {
	select {
	case r.millCh <- struct{}{}:
	default:
	}
}

func (r *dailyRotator) millRun() {
	defer close(r.millDone)
	for range r.millCh {
		r.millRunOnce()
	}
}

// millRunOnce removes the oldest rotated-out segments beyond MaxRetainedFiles
// and compresses the remaining plain ones.
func (r *dailyRotator) millRunOnce() {
	r.mu.Lock()
	rotated := r.rotatedFiles()
	r.mu.Unlock()

	if n := r.cfg.MaxRetainedFiles; n > 0 && len(rotated) > n {
		for _, name := range rotated[:len(rotated)-n] {
			_ = os.Remove(filepath.Join(r.dir, name))
		}
		rotated = rotated[len(rotated)-n:]
	}
	if !r.cfg.Compress {
		return
	}
	for _, name := range rotated {
		if strings.HasSuffix(name, ".log") {
			_ = r.compress(filepath.Join(r.dir, name))
		}
	}
}

// rotatedFiles lists this category's segments other than the active one,
// oldest first. Size backups of a day ("-<date>-<ts>.log") sort before that
// day's final segment ("-<date>.log"). Callers hold r.mu.
func (r *dailyRotator) rotatedFiles() []string {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil
	}
	active := filepath.Base(r.out.Filename)
	var rotated []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == active || !strings.HasPrefix(name, r.category+"-") {
			continue
		}
		if strings.HasSuffix(name, ".log") || strings.HasSuffix(name, ".log.gz") {
			rotated = append(rotated, name)
		}
	}
	sort.Strings(rotated)
	return rotated
}

// gzipFile replaces src with src.gz.
func gzipFile(src string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	dst := src + ".gz"
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(dst)
		}
	}()

	gz := gzip.NewWriter(out)
	if _, err = io.Copy(gz, in); err != nil {
		_ = out.Close()
		return err
	}
	if err = gz.Close(); err != nil {
		_ = out.Close()
		return err
	}
	if err = out.Close(); err != nil {
		return err
	}
	_ = in.Close()
	return os.Remove(src)
}
