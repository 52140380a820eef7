package logging

import (
	"context"
	"io"

	tele "gopkg.in/telebot.v4"
)

// Logger is what collaborators (command handlers, the session store, the
// database layer) depend on. Every method is fire-and-forget: nothing is
// returned and nothing panics.
type Logger interface {
	LogAction(action string, details Fields)
	LogActionAt(level Level, action string, details Fields)
	LogUserMessage(user *tele.User, text string, state *UserState)
	LogUserAction(ctx context.Context, action string, details Fields)
	LogError(ctx context.Context, ev ErrorValue, meta Fields)
	LogErr(ctx context.Context, err error, meta Fields)
	LogInfo(ctx context.Context, message string, meta Fields)
	LogWarn(ctx context.Context, message string, meta Fields)
	LogDebug(ctx context.Context, message string, meta Fields)
	LogWithCaller(level Level, message string, caller string, meta Fields)
	AccessLogWriter() io.Writer
}

var _ Logger = (*Service)(nil)

// Nop returns a Logger that discards everything.
func Nop() Logger { return noopLogger{} }

type noopLogger struct{}

func (noopLogger) LogAction(string, Fields)                      {}
func (noopLogger) LogActionAt(Level, string, Fields)             {}
func (noopLogger) LogUserMessage(*tele.User, string, *UserState) {}
func (noopLogger) LogUserAction(context.Context, string, Fields) {}
func (noopLogger) LogError(context.Context, ErrorValue, Fields)  {}
func (noopLogger) LogErr(context.Context, error, Fields)         {}
func (noopLogger) LogInfo(context.Context, string, Fields)       {}
func (noopLogger) LogWarn(context.Context, string, Fields)       {}
func (noopLogger) LogDebug(context.Context, string, Fields)      {}
func (noopLogger) LogWithCaller(Level, string, string, Fields)   {}
func (noopLogger) AccessLogWriter() io.Writer                    { return io.Discard }
