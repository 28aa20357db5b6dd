package tagcache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var ErrSweeperStarted = errors.New("tagcache: sweeper already started")

// Sweeper periodically evicts due entries that no reader will touch again.
// It owns its own connection, separate from any RedisCache.
type Sweeper struct {
	conn     *connector
	eng      engine
	log      Logger
	hooks    Hooks
	interval time.Duration

	started   atomic.Bool
	stopCh    chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func NewSweeper(opts Options) (*Sweeper, error) {
	log, hooks := ambient(opts)
	conn, err := newConnector(opts, log, hooks)
	if err != nil {
		return nil, err
	}
	interval := opts.SweepInterval
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &Sweeper{
		conn:     conn,
		eng:      newEngine(opts),
		log:      log,
		hooks:    hooks,
		interval: interval,
		stopCh:   make(chan struct{}),
	}, nil
}

// EnsureConnection dials the store if needed. Idempotent.
func (s *Sweeper) EnsureConnection(ctx context.Context) error {
	_, err := s.conn.get(ctx)
	return opErr("connect", "", err)
}

// Start connects, then runs a pass immediately and one per interval until ctx
// is done or Close is called. A connection failure is returned and nothing
// is started.
func (s *Sweeper) Start(ctx context.Context) error {
	if err := s.EnsureConnection(ctx); err != nil {
		return err
	}
	if !s.started.CompareAndSwap(false, true) {
		return ErrSweeperStarted
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.pass(ctx)
		for {
			select {
			case <-ticker.C:
				s.pass(ctx)
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	s.log.Info("sweeper started", Fields{"interval": s.interval.String()})
	return nil
}

// pass never returns an error; a failed pass is logged and the next tick retries.
func (s *Sweeper) pass(ctx context.Context) {
	if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
		s.log.Error("sweep failed", Fields{"err": err})
		s.hooks.SweepFailed(err)
	}
}

// RunOnce runs a single sweep pass.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	st, err := s.conn.get(ctx)
	if err != nil {
		return 0, opErr("sweep", "", err)
	}
	start := time.Now()
	n, err := s.eng.sweepExpired(ctx, st, s.eng.now())
	if err != nil {
		return 0, opErr("sweep", "", err)
	}
	took := time.Since(start)
	if n > 0 {
		s.log.Debug("sweep", Fields{"removed": n, "took": took.String()})
	}
	s.hooks.SweepCompleted(n, took)
	return n, nil
}

// Close stops the loop, waits for an in-flight pass and releases the connection.
func (s *Sweeper) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.stopCh)
		s.wg.Wait()
		err = s.conn.close(context.Background())
	})
	return err
}
