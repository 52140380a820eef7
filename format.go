package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var errLevelDisabled = errors.New("level disabled by zerolog global level")

// bufPool is a buffer pool for record encoding to reduce allocations
var bufPool = sync.Pool{
	New: func() interface{} {
		return new(bytes.Buffer)
	},
}

func getBuffer() *bytes.Buffer {
	buf := bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

func putBuffer(buf *bytes.Buffer) {
	// Keep oversized buffers (large stacks) out of the pool.
	if buf.Cap() > 64<<10 {
		return
	}
	bufPool.Put(buf)
}

// encodeJSON writes rec as one compact zerolog JSON line.
func encodeJSON(buf *bytes.Buffer, rec *Record, timestamp string, withStack bool) error {
	zl := zerolog.New(buf)
	e := zl.WithLevel(rec.Level)
	if e == nil {
		return errLevelDisabled
	}
	e.Str(zerolog.TimestampFieldName, timestamp)
	e.Str(zerolog.CallerFieldName, rec.Caller.String())
	for _, f := range rec.Metadata {
		appendField(e, f.Key, f.Value)
	}
	if withStack && rec.Stack != emptyString {
		e.Str(FieldStack, rec.Stack)
	}
	e.Msg(rec.Message)
	return nil
}

func appendField(e *zerolog.Event, key string, v any) {
	switch x := v.(type) {
	case nil:
		e.Interface(key, nil)
	case string:
		e.Str(key, x)
	case []string:
		e.Strs(key, x)
	case bool:
		e.Bool(key, x)
	case int:
		e.Int(key, x)
	case int32:
		e.Int32(key, x)
	case int64:
		e.Int64(key, x)
	case uint:
		e.Uint(key, x)
	case uint64:
		e.Uint64(key, x)
	case float32:
		e.Float32(key, x)
	case float64:
		e.Float64(key, x)
	case time.Time:
		e.Time(key, x)
	case time.Duration:
		e.Dur(key, x)
	case error:
		e.Str(key, x.Error())
	default:
		raw, err := safeJSON(normalizeValue(x))
		if err != nil {
			e.Str(key, unserializable(v, err))
			return
		}
		e.RawJSON(key, raw)
	}
}

// newConsoleWriter renders records for humans: timestamp, colored level tag,
// caller without the source prefix, message, then fields with structured
// values indented.
func newConsoleWriter(out io.Writer, noColor bool, sourcePrefix string) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:     out,
		NoColor: noColor,
		PartsOrder: []string{
			zerolog.TimestampFieldName,
			zerolog.LevelFieldName,
			zerolog.CallerFieldName,
			zerolog.MessageFieldName,
		},
		FormatTimestamp: func(i interface{}) string {
			s, _ := i.(string)
			return s
		},
		FormatCaller: func(i interface{}) string {
			s, _ := i.(string)
			if s == emptyString {
				return emptyString
			}
			return "[" + stripSourcePrefix(s, sourcePrefix) + "]"
		},
		FormatFieldValue: formatConsoleValue,
	}
}

func stripSourcePrefix(caller, prefix string) string {
	if prefix == emptyString {
		return caller
	}
	return strings.TrimPrefix(caller, strings.TrimSuffix(prefix, "/")+"/")
}

// formatConsoleValue pretty prints objects and arrays. ConsoleWriter hands
// them over already marshaled.
func formatConsoleValue(i interface{}) string {
	if raw, ok := i.([]byte); ok {
		var out bytes.Buffer
		if len(raw) > 2 && (raw[0] == '{' || raw[0] == '[') && json.Indent(&out, raw, "", "  ") == nil {
			return out.String()
		}
		return string(raw)
	}
	return fmt.Sprintf("%s", i)
}

// writeIndentedStack prints stack below the console line.
func writeIndentedStack(w io.Writer, stack string) error {
	var b strings.Builder
	for _, line := range strings.Split(strings.TrimRight(stack, "\n"), "\n") {
		b.WriteString("    ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}
