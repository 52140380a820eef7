// Package logging is the bot's structured logging service: every record gets
// a caller location, a timestamp at one fixed UTC offset, and is fanned out to
// independent sinks.
//
// Key features
//   - Caller attribution from the live stack (runtime.CallersFrames), skipping
//     dependency code and this package; errors carrying a stack are located
//     from the stack text instead
//   - Sinks: error-only file, combined file, console; a failing sink never
//     affects the others or the caller
//   - Daily files (<category>-YYYY-MM-DD.log) with size rotation via
//     lumberjack, gzip archives and bounded retention
//   - Error history enrichment: structured errors include the chain
//     (outermost -> root), the root cause and, for Station-Manager
//     DetailedError, the operations chain
//   - Graceful shutdown that waits for in-flight logs (bounded timeout)
//
// Typical usage
//
//	svc, err := logging.New(workDir, logging.DefaultConfig())
//	if err != nil { panic(err) }
//	defer svc.Close()
//
//	svc.LogAction("lesson_started", logging.Fields{"lesson_id": id})
//	ctx = logging.WithRequest(ctx, logging.RequestInfo{UserID: u.ID, Username: u.Username})
//	svc.LogErr(ctx, logging.WithStack(err), logging.Fields{"step": "save"})
package logging
