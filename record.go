package logging

import (
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

type Level = zerolog.Level

const (
	LevelDebug = zerolog.DebugLevel
	LevelInfo  = zerolog.InfoLevel
	LevelWarn  = zerolog.WarnLevel
	LevelError = zerolog.ErrorLevel
)

// Fields is free-form metadata supplied by callers.
type Fields map[string]any

// Field is one entry of a record's ordered metadata.
type Field struct {
	Key   string
	Value any
}

// CallerFrame is a source location, relative to the project root.
type CallerFrame struct {
	File string
	Line int
}

// UnknownCaller is returned whenever no location can be resolved.
var UnknownCaller = CallerFrame{File: unknownFile, Line: 0}

func (c CallerFrame) IsUnknown() bool {
	return c.File == emptyString || (c.File == unknownFile && c.Line == 0)
}

// String renders file:line; explicit labels (Line 0) render verbatim.
func (c CallerFrame) String() string {
	if c.File == emptyString {
		return unknownFile
	}
	if c.Line <= 0 {
		return c.File
	}
	return c.File + ":" + strconv.Itoa(c.Line)
}

// Record is built once per logging call and handed to every accepting sink.
type Record struct {
	Level     Level
	Message   string
	Time      time.Time
	Timestamp string
	Caller    CallerFrame
	Metadata  []Field
	Stack     string
}

// reservedKeys collide with the record envelope and get a "fields." prefix.
var reservedKeys = map[string]bool{
	zerolog.LevelFieldName:     true,
	zerolog.TimestampFieldName: true,
	zerolog.MessageFieldName:   true,
	FieldStack:                 true,
}

// mergeFields flattens layers into ordered metadata. Later layers override
// earlier ones on key collision; a key keeps the position of its first
// appearance. Keys inside one layer are sorted. The caller key is dropped.
func mergeFields(layers ...Fields) []Field {
	var out []Field
	index := map[string]int{}
	for _, layer := range layers {
		if len(layer) == 0 {
			continue
		}
		keys := make([]string, 0, len(layer))
		for k := range layer {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if k == zerolog.CallerFieldName || k == emptyString {
				continue
			}
			name := k
			if reservedKeys[name] {
				name = "fields." + name
			}
			if i, ok := index[name]; ok {
				out[i].Value = layer[k]
				continue
			}
			index[name] = len(out)
			out = append(out, Field{Key: name, Value: layer[k]})
		}
	}
	return out
}
