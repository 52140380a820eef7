package logging

import (
	"io"
	"strings"
	"unicode"
)

// AccessLogWriter adapts an HTTP access logger (gin's LoggerWithWriter and
// similar) to the service. Each line is right-trimmed and logged at info with
// the fixed caller label from Config.AccessLogCaller.
func (s *Service) AccessLogWriter() io.Writer {
	return &accessLogWriter{svc: s}
}

type accessLogWriter struct {
	svc *Service
}

func (w *accessLogWriter) Write(p []byte) (int, error) {
	label := defaultAccessLogCaller
	if w.svc != nil && w.svc.cfg.AccessLogCaller != emptyString {
		label = w.svc.cfg.AccessLogCaller
	}
	for _, line := range strings.Split(string(p), "\n") {
		line = strings.TrimRightFunc(line, unicode.IsSpace)
		if line == emptyString {
			continue
		}
		w.svc.LogWithCaller(LevelInfo, line, label, nil)
	}
	return len(p), nil
}
