package logging

import (
	"context"
	"fmt"
	"runtime/debug"

	tele "gopkg.in/telebot.v4"
)

const (
	telegramCaller = "telegram"
	// requestContextKey is where Middleware stores the context.Context for handlers.
	requestContextKey = "logging.request_context"
)

// MiddlewareOptions tunes Middleware.
type MiddlewareOptions struct {
	// State looks up the sender's conversation state; nil means no state.
	State func(c tele.Context) *UserState
}

// Middleware logs every inbound text message, makes a request context
// available through RequestContext, logs handler errors and turns handler
// panics into logged errors.
func Middleware(s *Service, opts MiddlewareOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) (err error) {
			var state *UserState
			if opts.State != nil {
				state = opts.State(c)
			}
			ctx := requestContextFor(c, state)
			c.Set(requestContextKey, ctx)

			if text := c.Text(); text != emptyString {
				s.userMessageFrom(telegramCaller, c.Sender(), text, state)
			}

			defer func() {
				if r := recover(); r != nil {
					s.LogError(ctx, PanicError(r, debug.Stack()), Fields{"update_id": c.Update().ID})
					err = fmt.Errorf("handler panic: %v", r)
				}
			}()

			if err = next(c); err != nil {
				s.LogErr(ctx, err, Fields{"update_id": c.Update().ID})
			}
			return err
		}
	}
}

// RequestContext returns the context Middleware attached to c, or a fresh
// one built from the sender.
func RequestContext(c tele.Context) context.Context {
	if ctx, ok := c.Get(requestContextKey).(context.Context); ok {
		return ctx
	}
	return requestContextFor(c, nil)
}

func requestContextFor(c tele.Context, state *UserState) context.Context {
	info := RequestInfo{State: state}
	if u := c.Sender(); u != nil {
		info.UserID = u.ID
		info.Username = u.Username
	}
	return WithRequest(context.Background(), info)
}
