// Package logrus adapts a *logrus.Entry to tagcache.Logger.
package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/unkn0wn-root/tagcache"
)

var _ tagcache.Logger = LogrusLogger{}

type LogrusLogger struct{ E *logrus.Entry }

// New tags every entry with component=tagcache.
func New(l *logrus.Logger) LogrusLogger {
	return LogrusLogger{E: l.WithField("component", "tagcache")}
}

func (l LogrusLogger) Debug(msg string, f tagcache.Fields) { l.log(logrus.DebugLevel, msg, f) }
func (l LogrusLogger) Info(msg string, f tagcache.Fields)  { l.log(logrus.InfoLevel, msg, f) }
func (l LogrusLogger) Warn(msg string, f tagcache.Fields)  { l.log(logrus.WarnLevel, msg, f) }
func (l LogrusLogger) Error(msg string, f tagcache.Fields) { l.log(logrus.ErrorLevel, msg, f) }

func (l LogrusLogger) log(lvl logrus.Level, msg string, f tagcache.Fields) {
	if !l.E.Logger.IsLevelEnabled(lvl) {
		return
	}
	e := l.E
	if err, ok := f["err"].(error); ok {
		e = e.WithError(err)
		f = without(f, "err")
	}
	e.WithFields(logrus.Fields(f)).Log(lvl, msg)
}

func without(f tagcache.Fields, key string) tagcache.Fields {
	out := make(tagcache.Fields, len(f))
	for k, v := range f {
		if k != key {
			out[k] = v
		}
	}
	return out
}
