package tagcache

import "time"

const defaultSweepInterval = 60 * time.Second

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

// ambient resolves the optional collaborators shared by RedisCache and Sweeper.
func ambient(opts Options) (Logger, Hooks) {
	log := coalesce[Logger](opts.Logger, NopLogger{})
	if opts.InstanceName != "" {
		log = instanceLogger{Logger: log, name: opts.InstanceName}
	}
	return log, coalesce[Hooks](opts.Hooks, NopHooks{})
}
