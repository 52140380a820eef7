package logging

import (
	"context"

	tele "gopkg.in/telebot.v4"
)

// callerSkip drops the private helper and the exported method, landing on
// the code that called the exported method.
const callerSkip = 2

const userMessageMsg = "user message"

// LogAction logs a structured event at info level.
func (s *Service) LogAction(action string, details Fields) {
	s.action(LevelInfo, action, details)
}

// LogActionAt logs a structured event at the given level.
func (s *Service) LogActionAt(level Level, action string, details Fields) {
	s.action(level, action, details)
}

func (s *Service) action(level Level, action string, details Fields) {
	if !s.enabled(level) {
		return
	}
	defer s.absorb()
	s.emit(level, action, s.resolver.Resolve(callerSkip), emptyString, details)
}

// LogUserMessage logs an inbound message. Text longer than 500 characters is
// cut to 500 characters plus "...".
func (s *Service) LogUserMessage(user *tele.User, text string, state *UserState) {
	s.userMessage(user, text, state)
}

func (s *Service) userMessage(user *tele.User, text string, state *UserState) {
	if !s.enabled(LevelInfo) {
		return
	}
	defer s.absorb()
	caller := s.resolver.Resolve(callerSkip)
	s.emit(LevelInfo, userMessageMsg, caller, emptyString, userMessageFields(user, text), stateFields(state))
}

// userMessageFrom logs an inbound message under a fixed caller label.
func (s *Service) userMessageFrom(caller string, user *tele.User, text string, state *UserState) {
	if !s.enabled(LevelInfo) {
		return
	}
	defer s.absorb()
	s.emit(LevelInfo, userMessageMsg, CallerFrame{File: caller}, emptyString, userMessageFields(user, text), stateFields(state))
}

func userMessageFields(user *tele.User, text string) Fields {
	f := userFields(user)
	f[FieldText] = truncateText(text)
	return f
}

// LogUserAction logs action with the identity and state found in ctx.
func (s *Service) LogUserAction(ctx context.Context, action string, details Fields) {
	s.contextual(ctx, LevelInfo, action, details)
}

func (s *Service) LogInfo(ctx context.Context, message string, meta Fields) {
	s.contextual(ctx, LevelInfo, message, meta)
}

func (s *Service) LogWarn(ctx context.Context, message string, meta Fields) {
	s.contextual(ctx, LevelWarn, message, meta)
}

func (s *Service) LogDebug(ctx context.Context, message string, meta Fields) {
	s.contextual(ctx, LevelDebug, message, meta)
}

// contextual merges request identity < meta < request state; the resolved
// caller is kept outside the metadata.
func (s *Service) contextual(ctx context.Context, level Level, message string, meta Fields) {
	if !s.enabled(level) {
		return
	}
	defer s.absorb()
	caller := s.resolver.Resolve(callerSkip)
	identity, state := requestFields(ctx)
	s.emit(level, message, caller, emptyString, identity, meta, state)
}

// LogError logs ev at error level. For a StructuredError the location is
// taken from its stack text first and from the live stack only when that
// fails; a PlainMessage always uses the live stack.
func (s *Service) LogError(ctx context.Context, ev ErrorValue, meta Fields) {
	s.logError(ctx, ev, meta)
}

// LogErr is LogError(ctx, ErrorOf(err), meta).
func (s *Service) LogErr(ctx context.Context, err error, meta Fields) {
	s.logError(ctx, ErrorOf(err), meta)
}

func (s *Service) logError(ctx context.Context, ev ErrorValue, meta Fields) {
	if !s.enabled(LevelError) {
		return
	}
	defer s.absorb()

	identity, state := requestFields(ctx)

	switch v := ev.(type) {
	case *StructuredError:
		if v != nil {
			s.structuredError(*v, identity, meta, state)
			return
		}
	case StructuredError:
		s.structuredError(v, identity, meta, state)
		return
	case *PlainMessage:
		if v != nil {
			s.emit(LevelError, v.Text, s.resolver.Resolve(callerSkip), emptyString, identity, meta, state)
			return
		}
	case PlainMessage:
		s.emit(LevelError, v.Text, s.resolver.Resolve(callerSkip), emptyString, identity, meta, state)
		return
	}
	s.emit(LevelError, "<nil>", s.resolver.Resolve(callerSkip), emptyString, identity, meta, state)
}

func (s *Service) structuredError(se StructuredError, identity, meta, state Fields) {
	caller := s.extractor.Extract(se.Stack)
	if caller.IsUnknown() {
		// structuredError, logError, exported method
		caller = s.resolver.Resolve(callerSkip + 1)
	}
	errFields := errorChainFields(se.Err)
	if errFields == nil {
		errFields = Fields{}
	}
	if se.TypeName != emptyString {
		errFields[FieldErrorType] = se.TypeName
	}
	s.emit(LevelError, se.Message, caller, se.Stack, identity, meta, state, errFields)
}

// LogWithCaller skips resolution and records caller verbatim.
func (s *Service) LogWithCaller(level Level, message string, caller string, meta Fields) {
	if !s.enabled(level) {
		return
	}
	defer s.absorb()
	s.emit(level, message, CallerFrame{File: caller}, emptyString, meta)
}
