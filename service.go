package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Station-Manager/errors"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

// Service is the process-wide logger. Build one at startup with New (or set
// the exported fields and call Initialize) and pass it to collaborators.
type Service struct {
	WorkingDir string  `di.inject:"WorkingDir"`
	Config     *Config `di.inject:"loggingconfig"`

	// Stdout receives console output; nil means os.Stdout.
	Stdout io.Writer
	// Stderr receives sink failure notices; nil means os.Stderr.
	Stderr io.Writer

	cfg       Config
	minLevel  Level
	ts        TimestampFormatter
	now       func() time.Time
	resolver  *CallerResolver
	extractor *ErrorLocationExtractor
	router    *router

	initOnce      sync.Once
	initErr       error
	isInitialized atomic.Bool

	// mu is held for reading by every in-flight logging call and for
	// writing by Close while sinks are torn down.
	mu        sync.RWMutex
	wg        sync.WaitGroup
	activeOps atomic.Int64
}

// New builds and initializes a Service.
func New(workingDir string, cfg Config) (*Service, error) {
	s := &Service{WorkingDir: workingDir, Config: &cfg}
	if err := s.Initialize(); err != nil {
		return nil, err
	}
	return s, nil
}

// Initialize validates the config and opens every sink. Repeated calls
// return the first result.
func (s *Service) Initialize() error {
	const op errors.Op = "logging.Service.Initialize"
	if s == nil {
		return errors.New(op).Msg(errMsgNilService)
	}
	s.initOnce.Do(func() {
		s.initErr = s.initialize()
	})
	return s.initErr
}

func (s *Service) initialize() error {
	const op errors.Op = "logging.Service.initialize"
	if s.Config == nil {
		return errors.New(op).Msg(errMsgNilConfig)
	}
	if err := validateConfig(s.Config); err != nil {
		return err
	}
	s.cfg = *s.Config

	level, err := parseLevel(s.cfg.Level)
	if err != nil {
		return errors.New(op).Err(err).Msg(errMsgConfigInvalid)
	}
	s.minLevel = level

	s.ts = NewTimestampFormatter(s.cfg.UTCOffsetMinutes)
	if s.now != nil {
		s.ts.now = s.now
	}

	root := s.cfg.ProjectRoot
	if root == emptyString {
		wd, _ := os.Getwd()
		root = detectProjectRoot(wd)
	}
	s.resolver = NewCallerResolver(root)
	s.extractor = NewErrorLocationExtractor(root)

	sinks, err := s.initializeSinks()
	if err != nil {
		return err
	}

	stderr := s.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	s.router = newRouter(sinks, stderr, s.cfg.FallbackNoticesPerSec)

	s.isInitialized.Store(true)
	return nil
}

// parseLevel parses a string log level into a zerolog.Level.
func parseLevel(level string) (zerolog.Level, error) {
	l, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.NoLevel, err
	}
	return l, nil
}

func (s *Service) logDir() string {
	return filepath.Join(s.WorkingDir, s.cfg.RelLogFileDir)
}

// Close waits for in-flight logging calls (bounded by ShutdownTimeoutMS),
// then flushes and closes every sink. It's safe to call Close multiple times.
func (s *Service) Close() error {
	if s == nil || !s.isInitialized.CompareAndSwap(true, false) {
		return nil
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	timeout := time.Duration(s.cfg.ShutdownTimeoutMS) * time.Millisecond
	select {
	case <-done:
	case <-time.After(timeout):
		s.router.notice("shutdown timeout exceeded, active_operations=%d", s.activeOps.Load())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.router.close()
}

// ActiveOperations reports logging calls currently in flight.
func (s *Service) ActiveOperations() int64 {
	if s == nil {
		return 0
	}
	return s.activeOps.Load()
}

func (s *Service) enabled(level Level) bool {
	return s != nil && s.isInitialized.Load() && level >= s.minLevel
}

// begin registers an in-flight call. It reports false once Close has started.
func (s *Service) begin() bool {
	s.activeOps.Inc()
	s.wg.Add(1)
	s.mu.RLock()
	if !s.isInitialized.Load() {
		s.end()
		return false
	}
	return true
}

func (s *Service) end() {
	s.mu.RUnlock()
	s.activeOps.Dec()
	s.wg.Done()
}

// emit builds the record and hands it to the router. layers are merged in
// order, later ones winning.
func (s *Service) emit(level Level, message string, caller CallerFrame, stack string, layers ...Fields) {
	if !s.begin() {
		return
	}
	defer s.end()

	if caller.File == emptyString {
		caller = UnknownCaller
	}
	now := s.ts.Now()
	rec := &Record{
		Level:     level,
		Message:   message,
		Time:      now,
		Timestamp: s.ts.File(now),
		Caller:    caller,
		Metadata:  mergeFields(layers...),
		Stack:     stack,
	}
	s.router.deliver(rec)
}

// absorb keeps internal failures away from the caller.
func (s *Service) absorb() {
	if r := recover(); r != nil {
		if s != nil && s.router != nil {
			s.router.notice("recovered from panic while logging: %s", fmt.Sprint(r))
		}
	}
}
