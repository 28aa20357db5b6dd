package tagcache

// Fields is a minimal structured field map for logs.
type Fields map[string]any

// Logger is a tiny leveled logger. Provide an adapter around your logging stack
// (see log/zap, log/logrus, log/slog). If Logger is nil in Options, logging is disabled.
// Debug fires on every operation, so adapters should check the level before
// formatting fields.
type Logger interface {
	Debug(msg string, f Fields)
	Info(msg string, f Fields)
	Warn(msg string, f Fields)
	Error(msg string, f Fields)
}

type NopLogger struct{}

func (NopLogger) Debug(string, Fields) {}
func (NopLogger) Info(string, Fields)  {}
func (NopLogger) Warn(string, Fields)  {}
func (NopLogger) Error(string, Fields) {}

// instanceLogger stamps every record with the instance name, so several
// caches sharing one logger stay distinguishable.
type instanceLogger struct {
	Logger
	name string
}

func (l instanceLogger) Debug(msg string, f Fields) { l.Logger.Debug(msg, l.with(f)) }
func (l instanceLogger) Info(msg string, f Fields)  { l.Logger.Info(msg, l.with(f)) }
func (l instanceLogger) Warn(msg string, f Fields)  { l.Logger.Warn(msg, l.with(f)) }
func (l instanceLogger) Error(msg string, f Fields) { l.Logger.Error(msg, l.with(f)) }

func (l instanceLogger) with(f Fields) Fields {
	out := make(Fields, len(f)+1)
	for k, v := range f {
		out[k] = v
	}
	out["instance"] = l.name
	return out
}
