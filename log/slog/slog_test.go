package slog

import (
	"bytes"
	"encoding/json"
	stdslog "log/slog"
	"testing"

	"github.com/unkn0wn-root/tagcache"
)

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	l := New(stdslog.New(stdslog.NewJSONHandler(&buf, &stdslog.HandlerOptions{Level: stdslog.LevelInfo})))

	l.Debug("dropped", tagcache.Fields{"key": "k"})
	l.Info("sweeper started", tagcache.Fields{"interval": "1m0s"})

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("want exactly one JSON record, got %q: %v", buf.String(), err)
	}
	group, _ := rec["tagcache"].(map[string]any)
	if rec["msg"] != "sweeper started" || group["interval"] != "1m0s" {
		t.Fatalf("record = %v", rec)
	}
}
