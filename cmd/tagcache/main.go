// Command tagcache inspects and maintains a tagcache instance from the shell.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/unkn0wn-root/tagcache"
	"github.com/unkn0wn-root/tagcache/config"
	"github.com/unkn0wn-root/tagcache/sloghooks"
)

const usage = `usage: tagcache [-config file] [-addr host:port] [-instance name] [-v] <command> [args]

commands:
  get KEY
  set [-ttl d] [-sliding d] [-at RFC3339] KEY VALUE
  refresh KEY
  remove KEY
  tag KEY TAG...
  invalidate TAG...
  sweep
  sweeper            run the background sweeper until interrupted`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type globals struct {
	configPath string
	addr       string
	instance   string
	verbose    bool
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var g globals
	fs := flag.NewFlagSet("tagcache", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { _, _ = fmt.Fprintln(stderr, usage) }
	fs.StringVar(&g.configPath, "config", "", "config file (.toml, .yaml)")
	fs.StringVar(&g.addr, "addr", "", "redis address, overrides the config file")
	fs.StringVar(&g.instance, "instance", "", "instance name, overrides the config file")
	fs.BoolVar(&g.verbose, "v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	cfg, err := loadConfig(g)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 1
	}
	log, err := cfg.Logger(stderr)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 1
	}
	opts := cfg.Options(log)

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	if cmd == "sweeper" {
		return runSweeper(ctx, opts, g.verbose, stdout, stderr)
	}

	c, err := tagcache.New(opts)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 1
	}
	defer func() {
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = c.Close(cctx)
	}()

	if err := dispatch(ctx, c, cmd, rest, g.verbose, stdout, stderr); err != nil {
		var ue usageError
		if errors.As(err, &ue) {
			_, _ = fmt.Fprintf(stderr, "%s\n\n%s\n", ue, usage)
			return 2
		}
		_, _ = fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

func loadConfig(g globals) (config.Config, error) {
	cfg := config.Default()
	if g.configPath != "" {
		var err error
		if cfg, err = config.Load(g.configPath); err != nil {
			return cfg, err
		}
	}
	if g.addr != "" {
		cfg.Redis.Addrs = []string{g.addr}
	}
	if g.instance != "" {
		cfg.InstanceName = g.instance
	}
	if g.verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, cfg.Validate()
}

type usageError string

func (e usageError) Error() string { return string(e) }

func dispatch(ctx context.Context, c *tagcache.RedisCache, cmd string, args []string, verbose bool, stdout, stderr io.Writer) error {
	switch cmd {
	case "get":
		if len(args) != 1 {
			return usageError("get: want KEY")
		}
		v, ok, err := c.Get(ctx, args[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%s: not found", args[0])
		}
		_, _ = stdout.Write(v)
		_, _ = fmt.Fprintln(stdout)
		if verbose {
			_, _ = fmt.Fprintf(stderr, "%s\n", humanize.Bytes(uint64(len(v))))
		}
		return nil

	case "set":
		return runSet(ctx, c, args, stdout)

	case "refresh":
		if len(args) != 1 {
			return usageError("refresh: want KEY")
		}
		r, err := c.Refresh(ctx, args[0])
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(stdout, r)
		if !r.Found() {
			return fmt.Errorf("%s: not found", args[0])
		}
		return nil

	case "remove":
		if len(args) != 1 {
			return usageError("remove: want KEY")
		}
		return c.Remove(ctx, args[0])

	case "tag":
		if len(args) < 2 {
			return usageError("tag: want KEY TAG...")
		}
		ok, err := c.Tag(ctx, args[0], args[1:]...)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%s: not found", args[0])
		}
		_, _ = fmt.Fprintf(stdout, "tagged %s with %s\n", args[0], humanize.Comma(int64(len(args)-1))+plural(len(args)-1, " tag"))
		return nil

	case "invalidate":
		if len(args) == 0 {
			return usageError("invalidate: want TAG...")
		}
		n, err := c.InvalidateTags(ctx, args)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(stdout, "removed %s%s\n", humanize.Comma(int64(n)), plural(n, " entry"))
		return nil

	case "sweep":
		n, err := c.Sweep(ctx)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(stdout, "removed %s%s\n", humanize.Comma(int64(n)), plural(n, " entry"))
		return nil
	}
	return usageError(fmt.Sprintf("unknown command %q", cmd))
}

func runSet(ctx context.Context, c *tagcache.RedisCache, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("set", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	ttl := fs.Duration("ttl", 0, "absolute expiration relative to now")
	sliding := fs.Duration("sliding", 0, "sliding expiration")
	at := fs.String("at", "", "absolute expiration instant (RFC3339)")
	if err := fs.Parse(args); err != nil {
		return usageError("set: " + err.Error())
	}
	if fs.NArg() != 2 {
		return usageError("set: want KEY VALUE")
	}

	opts := tagcache.EntryOptions{AbsoluteExpirationRelativeToNow: *ttl, SlidingExpiration: *sliding}
	if *at != "" {
		t, err := time.Parse(time.RFC3339, *at)
		if err != nil {
			return usageError("set: -at: " + err.Error())
		}
		opts.AbsoluteExpiration = t
	}
	key, value := fs.Arg(0), fs.Arg(1)
	if err := c.Set(ctx, key, []byte(value), opts); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(stdout, "stored %s (%s)%s\n", key, humanize.Bytes(uint64(len(value))), describe(opts))
	return nil
}

func describe(o tagcache.EntryOptions) string {
	var parts []string
	switch {
	case !o.AbsoluteExpiration.IsZero():
		parts = append(parts, "expires "+humanize.Time(o.AbsoluteExpiration))
	case o.AbsoluteExpirationRelativeToNow > 0:
		parts = append(parts, "expires in "+o.AbsoluteExpirationRelativeToNow.String())
	}
	if o.SlidingExpiration > 0 {
		parts = append(parts, "sliding "+o.SlidingExpiration.String())
	}
	if len(parts) == 0 {
		return ""
	}
	return ", " + strings.Join(parts, ", ")
}

func plural(n int, noun string) string {
	if n == 1 {
		return noun
	}
	if strings.HasSuffix(noun, "y") {
		return strings.TrimSuffix(noun, "y") + "ies"
	}
	return noun + "s"
}

// sweepTotals collects sweeper results for the exit summary.
type sweepTotals struct {
	tagcache.Hooks
	passes  atomic.Int64
	removed atomic.Int64
}

func (s *sweepTotals) SweepCompleted(n int, took time.Duration) {
	s.passes.Add(1)
	s.removed.Add(int64(n))
	s.Hooks.SweepCompleted(n, took)
}

func runSweeper(ctx context.Context, opts tagcache.Options, verbose bool, stdout, stderr io.Writer) int {
	lvl := slog.LevelInfo
	if verbose {
		lvl = slog.LevelDebug
	}
	events := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: lvl}))
	totals := &sweepTotals{Hooks: sloghooks.New(events, sloghooks.Options{})}
	opts.Hooks = totals

	s, err := tagcache.NewSweeper(opts)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 1
	}
	defer s.Close()

	if err := s.Start(ctx); err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 1
	}
	<-ctx.Done()
	_ = s.Close()

	_, _ = fmt.Fprintf(stdout, "sweeper stopped (passes: %s, removed: %s)\n",
		humanize.Comma(totals.passes.Load()), humanize.Comma(totals.removed.Load()))
	return 0
}
