package logging

import (
	"os"

	"github.com/Station-Manager/errors"
)

// initializeSinks builds the fixed sink set: error-only file, combined file
// and console, each one optional through the config.
func (s *Service) initializeSinks() ([]Sink, error) {
	const op errors.Op = "logging.Service.initializeSinks"

	var sinks []Sink

	if s.cfg.ErrorFile || s.cfg.CombinedFile {
		if s.WorkingDir == emptyString {
			return nil, errors.New(op).Msg(errMsgWorkingDirNotSet)
		}
		if err := os.MkdirAll(s.logDir(), 0o755); err != nil {
			return nil, errors.New(op).Err(err).Msg(errMsgCreateDir)
		}
	}

	rotation := RotationConfig{
		MaxFileSizeMB:    s.cfg.MaxFileSizeMB,
		MaxRetainedFiles: s.cfg.MaxRetainedFiles,
		Compress:         s.cfg.Compress,
	}
	if s.cfg.ErrorFile {
		w := newDailyRotator(s.logDir(), categoryError, rotation, s.ts)
		sinks = append(sinks, newFileSink(sinkNameError, ErrorOnly, w))
	}
	if s.cfg.CombinedFile {
		w := newDailyRotator(s.logDir(), categoryCombined, rotation, s.ts)
		sinks = append(sinks, newFileSink(sinkNameCombined, AllLevels, w))
	}
	if s.cfg.Console {
		out := s.Stdout
		if out == nil {
			out = os.Stdout
		}
		sinks = append(sinks, newConsoleSink(out, s.ts, s.cfg.ConsoleNoColor, s.cfg.SourcePrefix))
	}

	if len(sinks) == 0 {
		return nil, errors.New(op).Msg(errMsgNoSinks)
	}
	return sinks, nil
}
