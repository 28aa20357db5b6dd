// Package sloghooks reports tagcache events through log/slog.
package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/tagcache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	SelfHealEvery uint64
	SweepEvery    uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	selfHealCtr atomic.Uint64
	sweepCtr    atomic.Uint64
}

var _ tagcache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

// SweepCompleted logs only passes that removed something.
func (h *Hooks) SweepCompleted(removed int, took time.Duration) {
	if h.l == nil || removed == 0 || !sample(h.opts.SweepEvery, &h.sweepCtr) {
		return
	}
	h.l.Debug("tagcache.sweep_completed",
		"removed", removed,
		"took", took)
}

func (h *Hooks) SweepFailed(err error) {
	if h.l == nil {
		return
	}
	h.l.Error("tagcache.sweep_failed", "err", err)
}

func (h *Hooks) TagsInvalidated(tags, removed int) {
	if h.l == nil {
		return
	}
	h.l.Info("tagcache.tags_invalidated",
		"tags", tags,
		"removed", removed)
}

func (h *Hooks) SelfHeal(key, reason string) {
	if h.l == nil || !sample(h.opts.SelfHealEvery, &h.selfHealCtr) {
		return
	}
	h.l.Warn("tagcache.self_heal",
		"key", h.redact(key),
		"reason", reason)
}

func (h *Hooks) ConnectFailed(err error) {
	if h.l == nil {
		return
	}
	h.l.Error("tagcache.connect_failed", "err", err)
}
