package logging

import (
	stderrs "errors"
	"fmt"
	"runtime/debug"
	"strings"

	smerrors "github.com/Station-Manager/errors"
)

// ErrorValue is what LogError accepts: a StructuredError or a PlainMessage.
// The variant is chosen once, at the call boundary.
type ErrorValue interface {
	errorValue()
}

// StructuredError carries an error message with its stack text and type name.
type StructuredError struct {
	Message  string
	Stack    string
	TypeName string
	// Err, when set, is walked for the error chain fields.
	Err error
}

// PlainMessage is a bare message with no stack to extract from.
type PlainMessage struct {
	Text string
}

func (StructuredError) errorValue() {}
func (PlainMessage) errorValue()    {}

// Plain wraps text as an ErrorValue.
func Plain(text string) PlainMessage { return PlainMessage{Text: text} }

// StackTracer is implemented by errors that remember where they were created.
type StackTracer interface {
	StackTrace() string
}

// ErrorOf converts err into a StructuredError. A nil error becomes a PlainMessage.
func ErrorOf(err error) ErrorValue {
	if err == nil {
		return PlainMessage{Text: "<nil>"}
	}
	se := StructuredError{
		Message:  err.Error(),
		TypeName: typeName(err),
		Err:      err,
	}
	var st StackTracer
	if stderrs.As(err, &st) {
		se.Stack = st.StackTrace()
	}
	return se
}

// PanicError builds a StructuredError for a recovered panic value.
func PanicError(recovered any, stack []byte) StructuredError {
	se := StructuredError{
		Message:  fmt.Sprint(recovered),
		Stack:    string(stack),
		TypeName: "panic",
	}
	if err, ok := recovered.(error); ok {
		se.TypeName = typeName(err)
		se.Err = err
	}
	return se
}

type withStack struct {
	err   error
	stack string
}

// WithStack records the current goroutine stack on err.
func WithStack(err error) error {
	if err == nil {
		return nil
	}
	var st StackTracer
	if stderrs.As(err, &st) {
		return err
	}
	return &withStack{err: err, stack: string(debug.Stack())}
}

func (w *withStack) Error() string      { return w.err.Error() }
func (w *withStack) Unwrap() error      { return w.err }
func (w *withStack) StackTrace() string { return w.stack }

// typeName reports the concrete type of err, looking through WithStack.
func typeName(err error) string {
	if ws, ok := err.(*withStack); ok {
		err = ws.err
	}
	return strings.TrimPrefix(fmt.Sprintf("%T", err), "*")
}

// buildErrorChain walks an error's cause chain and returns:
//   - chain: outermost -> innermost error messages
//   - ops: operation identifiers for DetailedError links ("" if not available)
//   - root: the innermost error message
//   - rootOp: the innermost operation identifier if available
//
// The traversal prefers Station-Manager DetailedError.Cause() and then
// falls back to stdlib errors.Unwrap. It guards against excessive depth
// and repeated messages to avoid cycles.
func buildErrorChain(err error) (chain []string, ops []string, root string, rootOp string) {
	const maxDepth = 50
	visited := 0
	seen := map[string]bool{}

	for err != nil && visited < maxDepth {
		visited++

		if ws, ok := err.(*withStack); ok {
			err = ws.err
			continue
		}

		if dErr, ok := smerrors.AsDetailedError(err); ok && dErr != nil {
			chain = append(chain, dErr.Error())
			ops = append(ops, string(dErr.Op()))
			err = dErr.Cause()
			continue
		}

		msg := err.Error()
		if seen[msg] {
			break
		}
		seen[msg] = true
		chain = append(chain, msg)
		ops = append(ops, emptyString)
		err = stderrs.Unwrap(err)
	}

	if len(chain) > 0 {
		root = chain[len(chain)-1]
	}
	if len(ops) > 0 {
		rootOp = ops[len(ops)-1]
	}
	return
}

// errorChainFields renders buildErrorChain as record metadata. Single-link
// chains add nothing beyond the message itself.
func errorChainFields(err error) Fields {
	chain, ops, root, rootOp := buildErrorChain(err)
	if len(chain) < 2 && rootOp == emptyString {
		return nil
	}
	f := Fields{
		FieldErrorChain: strings.Join(chain, " -> "),
		FieldErrorRoot:  root,
	}
	if hasAny(ops) {
		f[FieldErrorOps] = ops
	}
	if rootOp != emptyString {
		f[FieldErrorRootOp] = rootOp
	}
	return f
}

func hasAny(ss []string) bool {
	for _, s := range ss {
		if s != emptyString {
			return true
		}
	}
	return false
}
