package grafx

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// captureLogs routes grafx logging into a buffer for the rest of the test.
func captureLogs(t *testing.T, level slog.Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: level})))
	t.Cleanup(func() { SetLogger(nil) })
	return &buf
}

func TestLoggerSilentByDefault(t *testing.T) {
	SetLogger(nil)

	loggers := map[string]*slog.Logger{
		"root":       Logger(),
		"with attrs": Logger().With("sprite", "bg"),
		"with group": Logger().WithGroup("frame"),
	}
	for name, l := range loggers {
		for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
			if l.Enabled(context.Background(), level) {
				t.Errorf("%s logger enabled at %v", name, level)
			}
		}
	}
}

// TestSetLoggerReachesGPULayer checks that one SetLogger call covers both
// the renderer and the device layer beneath it, and that nil silences both.
func TestSetLoggerReachesGPULayer(t *testing.T) {
	buf := captureLogs(t, slog.LevelDebug)

	r, _ := newTestRenderer(t)
	mustAddTexture(t, r, "sky")

	out := buf.String()
	for _, want := range []string{
		"renderer ready",
		"surface configured",
		"texture uploaded",
		"component=gpu",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, `renderer ready" component=gpu`) {
		t.Error("root records tagged as GPU layer")
	}

	SetLogger(nil)
	buf.Reset()
	mustAddTexture(t, r, "grass")
	if err := r.Resize(640, 480); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("silenced logger still wrote:\n%s", buf.String())
	}
}

func TestSetLoggerLevelsReachOutput(t *testing.T) {
	buf := captureLogs(t, slog.LevelWarn)

	r, _ := newTestRenderer(t)
	mustAddSprite(t, r, "hero", "nothing")
	_ = r.RenderFrame()

	out := buf.String()
	if strings.Contains(out, "renderer ready") {
		t.Errorf("info record passed a warn-level handler:\n%s", out)
	}
	if !strings.Contains(out, "sprite skipped") || !strings.Contains(out, "texture=nothing") {
		t.Errorf("missing warn record for skipped sprite:\n%s", out)
	}
}

func TestLoggerConcurrentAccess(t *testing.T) {
	t.Cleanup(func() { SetLogger(nil) })

	var wg sync.WaitGroup
	for i := range 64 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				SetLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
				SetLogger(nil)
				return
			}
			l := Logger()
			if l == nil {
				t.Error("Logger() returned nil")
				return
			}
			l.Debug("frame", "n", i)
		}()
	}
	wg.Wait()
}

func BenchmarkDisabledLog(b *testing.B) {
	SetLogger(nil)
	b.ReportAllocs()
	for b.Loop() {
		Logger().Debug("grafx: frame submitted", "submission", 1, "drawn", 1)
	}
}
