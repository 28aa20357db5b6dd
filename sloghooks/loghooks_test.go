package sloghooks

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestSamplingAndRedaction(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h := New(l, Options{SelfHealEvery: 2, Redact: func(string) string { return "<redacted>" }})

	for i := 0; i < 4; i++ {
		h.SelfHeal("user:secret", "corrupt")
	}
	h.SweepCompleted(0, time.Millisecond) // nothing removed: silent
	h.SweepFailed(errors.New("boom"))

	out := buf.String()
	if n := strings.Count(out, "tagcache.self_heal"); n != 2 {
		t.Fatalf("self_heal logged %d times, want 2:\n%s", n, out)
	}
	if strings.Contains(out, "user:secret") || !strings.Contains(out, "<redacted>") {
		t.Fatalf("key not redacted:\n%s", out)
	}
	if strings.Contains(out, "sweep_completed") || !strings.Contains(out, "tagcache.sweep_failed") {
		t.Fatalf("unexpected sweep output:\n%s", out)
	}
}

func TestNilLogger(t *testing.T) {
	h := New(nil, Options{})
	h.SelfHeal("k", "corrupt")
	h.ConnectFailed(errors.New("x"))
	h.TagsInvalidated(1, 1)
}
