package logging

import (
	"context"
	"io"
	"strconv"
	"testing"

	smerrors "github.com/Station-Manager/errors"
)

// newBenchService initializes a Service whose only sink is a console writing
// to io.Discard, so the numbers reflect record building and encoding.
func newBenchService(b *testing.B, level string) *Service {
	cfg := DefaultConfig()
	cfg.Level = level
	cfg.ErrorFile = false
	cfg.CombinedFile = false
	cfg.ConsoleNoColor = true
	s := &Service{Config: &cfg, Stdout: io.Discard, Stderr: io.Discard}
	if err := s.Initialize(); err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { _ = s.Close() })
	return s
}

func makeDetailedChain(depth int) error {
	if depth <= 0 {
		return nil
	}
	err := smerrors.New(smerrors.Op("op_0")).Msg("root cause message")
	for i := 1; i < depth; i++ {
		op := "op_" + strconv.Itoa(i)
		err = smerrors.New(smerrors.Op(op)).Err(err).Msg("wrapped message")
	}
	return err
}

func BenchmarkLogAction(b *testing.B) {
	s := newBenchService(b, "info")
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.LogAction("lesson_started", Fields{"lesson_id": i, "lang": "de"})
	}
}

func BenchmarkLogInfo_WithRequest(b *testing.B) {
	s := newBenchService(b, "info")
	ctx := WithRequest(context.Background(), RequestInfo{
		UserID:   1001,
		Username: "ann_k",
		State:    &UserState{Phase: "quiz", Data: map[string]any{"question": 3}},
	})
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.LogInfo(ctx, "answer checked", Fields{"correct": i%2 == 0})
	}
}

func BenchmarkLogDebug_Disabled(b *testing.B) {
	s := newBenchService(b, "info")
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.LogDebug(context.Background(), "dropped", nil)
	}
}

func BenchmarkLogErr_DetailedChain3(b *testing.B) {
	s := newBenchService(b, "error")
	err := makeDetailedChain(3)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.LogErr(context.Background(), err, nil)
	}
}

func BenchmarkLogErr_WithStack(b *testing.B) {
	s := newBenchService(b, "error")
	err := WithStack(makeDetailedChain(2))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.LogErr(context.Background(), err, nil)
	}
}

func BenchmarkParallel_LogAction(b *testing.B) {
	s := newBenchService(b, "info")
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			s.LogAction("tick", Fields{"k": "v"})
		}
	})
}

func BenchmarkResolve(b *testing.B) {
	r := NewCallerResolver(detectProjectRoot("."))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = r.Resolve(0)
	}
}
