// Package zap adapts a *zap.Logger to tagcache.Logger.
package zap

import (
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/unkn0wn-root/tagcache"
)

var _ tagcache.Logger = ZapLogger{}

type ZapLogger struct{ L *zap.Logger }

// New names the logger "tagcache" so cache events are easy to filter.
func New(l *zap.Logger) ZapLogger { return ZapLogger{L: l.Named("tagcache")} }

func (z ZapLogger) Debug(msg string, f tagcache.Fields) { z.log(zapcore.DebugLevel, msg, f) }
func (z ZapLogger) Info(msg string, f tagcache.Fields)  { z.log(zapcore.InfoLevel, msg, f) }
func (z ZapLogger) Warn(msg string, f tagcache.Fields)  { z.log(zapcore.WarnLevel, msg, f) }
func (z ZapLogger) Error(msg string, f tagcache.Fields) { z.log(zapcore.ErrorLevel, msg, f) }

// log skips field conversion when the level is disabled; Debug fires on every op.
func (z ZapLogger) log(lvl zapcore.Level, msg string, f tagcache.Fields) {
	if ce := z.L.Check(lvl, msg); ce != nil {
		ce.Write(zf(f)...)
	}
}

func zf(f tagcache.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]zap.Field, 0, len(f))
	for _, k := range keys {
		if err, ok := f[k].(error); ok {
			out = append(out, zap.NamedError(k, err))
			continue
		}
		out = append(out, zap.Any(k, f[k]))
	}
	return out
}
