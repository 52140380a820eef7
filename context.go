package logging

import (
	"context"
	"strings"
	"unicode/utf8"

	tele "gopkg.in/telebot.v4"
)

// UserState is a user's conversation phase as kept by the session store.
type UserState struct {
	Phase string
	Data  map[string]any
}

// RequestInfo is the ambient identity of the update being handled.
type RequestInfo struct {
	UserID   int64
	Username string
	State    *UserState
}

type requestKey struct{}

// WithRequest attaches info to ctx for LogUserAction, LogInfo and friends.
func WithRequest(ctx context.Context, info RequestInfo) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, requestKey{}, info)
}

// RequestFrom returns the RequestInfo attached to ctx, if any.
func RequestFrom(ctx context.Context) (RequestInfo, bool) {
	if ctx == nil {
		return RequestInfo{}, false
	}
	info, ok := ctx.Value(requestKey{}).(RequestInfo)
	return info, ok
}

// requestFields splits the ambient request into identity fields, which rank
// below explicit metadata, and state fields, which rank above it.
func requestFields(ctx context.Context) (identity Fields, state Fields) {
	info, ok := RequestFrom(ctx)
	if !ok {
		return nil, nil
	}
	identity = Fields{}
	if info.UserID != 0 {
		identity[FieldUserID] = info.UserID
	}
	if info.Username != emptyString {
		identity[FieldUsername] = info.Username
	}
	return identity, stateFields(info.State)
}

func stateFields(state *UserState) Fields {
	if state == nil {
		return nil
	}
	f := Fields{FieldState: state.Phase}
	if len(state.Data) > 0 {
		f[FieldStateData] = state.Data
	}
	return f
}

// userFields flattens a Telegram user into identity fields.
func userFields(user *tele.User) Fields {
	if user == nil {
		return Fields{}
	}
	f := Fields{FieldUserID: user.ID}
	if user.Username != emptyString {
		f[FieldUsername] = user.Username
	}
	if name := displayName(user.FirstName, user.LastName); name != emptyString {
		f[FieldName] = name
	}
	return f
}

// displayName joins first and last name with single spaces.
func displayName(first, last string) string {
	return strings.Join(strings.Fields(first+" "+last), " ")
}

// truncateText keeps the first maxUserTextRunes runes and appends "...".
func truncateText(text string) string {
	if utf8.RuneCountInString(text) <= maxUserTextRunes {
		return text
	}
	return string([]rune(text)[:maxUserTextRunes]) + truncateSuffix
}
