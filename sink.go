package logging

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// LevelFilter decides which records a sink accepts.
type LevelFilter int

const (
	AllLevels LevelFilter = iota
	ErrorOnly
)

func (f LevelFilter) Accepts(level Level) bool {
	if f == ErrorOnly {
		return level == LevelError
	}
	return true
}

// Sink is one independent destination. Each implementation owns its writer
// and serializes its own writes.
type Sink interface {
	Name() string
	Accepts(level Level) bool
	Write(rec *Record) error
	Close() error
}

// fileSink writes compact JSON lines to a rotating file.
type fileSink struct {
	name   string
	filter LevelFilter

	mu  sync.Mutex
	out io.WriteCloser
}

func newFileSink(name string, filter LevelFilter, out io.WriteCloser) *fileSink {
	return &fileSink{name: name, filter: filter, out: out}
}

func (s *fileSink) Name() string             { return s.name }
func (s *fileSink) Accepts(level Level) bool { return s.filter.Accepts(level) }

func (s *fileSink) Write(rec *Record) error {
	buf := getBuffer()
	defer putBuffer(buf)

	if err := encodeJSON(buf, rec, rec.Timestamp, true); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.out.Write(buf.Bytes())
	return err
}

func (s *fileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.out.Close()
}

// consoleSink renders records through zerolog.ConsoleWriter.
type consoleSink struct {
	ts TimestampFormatter

	mu  sync.Mutex
	out io.Writer
	cw  zerolog.ConsoleWriter
}

func newConsoleSink(out io.Writer, ts TimestampFormatter, noColor bool, sourcePrefix string) *consoleSink {
	return &consoleSink{
		ts:  ts,
		out: out,
		cw:  newConsoleWriter(out, noColor, sourcePrefix),
	}
}

func (s *consoleSink) Name() string       { return sinkNameConsole }
func (s *consoleSink) Accepts(Level) bool { return true }

func (s *consoleSink) Write(rec *Record) error {
	buf := getBuffer()
	defer putBuffer(buf)

	if err := encodeJSON(buf, rec, s.ts.Console(rec.Time), false); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.cw.Write(buf.Bytes()); err != nil {
		return err
	}
	if rec.Stack != emptyString {
		return writeIndentedStack(s.out, rec.Stack)
	}
	return nil
}

// Close leaves the standard stream open.
func (s *consoleSink) Close() error { return nil }

// router fans a record out to every accepting sink. A failing sink is
// reported on the fallback stream and never affects the others.
type router struct {
	sinks []Sink

	fbMu     sync.Mutex
	fallback io.Writer
	limiters map[string]*rate.Limiter
}

func newRouter(sinks []Sink, fallback io.Writer, noticesPerSec int) *router {
	noticesPerSec = max(1, noticesPerSec)
	limiters := make(map[string]*rate.Limiter, len(sinks))
	for _, s := range sinks {
		limiters[s.Name()] = rate.NewLimiter(rate.Limit(noticesPerSec), noticesPerSec)
	}
	return &router{sinks: sinks, fallback: fallback, limiters: limiters}
}

func (r *router) deliver(rec *Record) {
	for _, s := range r.sinks {
		if !s.Accepts(rec.Level) {
			continue
		}
		if err := safeWrite(s, rec); err != nil {
			r.report(s.Name(), rec, err)
		}
	}
}

func safeWrite(s Sink, rec *Record) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("sink panic: %v", p)
		}
	}()
	return s.Write(rec)
}

// report emits a best-effort line for a failed delivery, rate limited per sink.
func (r *router) report(sink string, rec *Record, err error) {
	if r.fallback == nil {
		return
	}
	if lim := r.limiters[sink]; lim != nil && !lim.Allow() {
		return
	}
	r.fbMu.Lock()
	defer r.fbMu.Unlock()
	_, _ = fmt.Fprintf(r.fallback, "logging: sink %s write failed: %v | %s %s [%s] %s\n",
		sink, err, rec.Timestamp, strings.ToUpper(rec.Level.String()), rec.Caller, rec.Message)
}

// notice writes an operational message on the fallback stream.
func (r *router) notice(format string, args ...any) {
	if r == nil || r.fallback == nil {
		return
	}
	r.fbMu.Lock()
	defer r.fbMu.Unlock()
	_, _ = fmt.Fprintf(r.fallback, "logging: "+format+"\n", args...)
}

func (r *router) close() error {
	var errs []error
	for _, s := range r.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}
