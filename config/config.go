// Package config loads tagcache settings from TOML or YAML files and turns
// them into tagcache.Options.
package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	stdslog "log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	redigo "github.com/gomodule/redigo/redis"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/unkn0wn-root/tagcache"
	logruslog "github.com/unkn0wn-root/tagcache/log/logrus"
	slogadapter "github.com/unkn0wn-root/tagcache/log/slog"
	zaplog "github.com/unkn0wn-root/tagcache/log/zap"
	"github.com/unkn0wn-root/tagcache/store"
	rg "github.com/unkn0wn-root/tagcache/store/redigo"
)

// PasswordEnv overrides redis.password when set, so secrets can stay out of files.
const PasswordEnv = "TAGCACHE_REDIS_PASSWORD"

// Driver selects the Redis client library.
type Driver string

const (
	DriverGoRedis Driver = "go-redis"
	DriverRedigo  Driver = "redigo"
)

// Duration accepts Go duration strings ("750ms", "1m").
type Duration struct{ time.Duration }

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	return d.UnmarshalText([]byte(n.Value))
}

type RedisConfig struct {
	Driver      Driver   `toml:"driver" yaml:"driver"`
	Addrs       []string `toml:"addrs" yaml:"addrs"`
	Username    string   `toml:"username" yaml:"username"`
	Password    string   `toml:"password" yaml:"password"`
	DB          int      `toml:"db" yaml:"db"`
	DialTimeout Duration `toml:"dial_timeout" yaml:"dial_timeout"`
	PoolSize    int      `toml:"pool_size" yaml:"pool_size"`
}

type LogConfig struct {
	Level   string `toml:"level" yaml:"level"`     // debug | info | warn | error
	Backend string `toml:"backend" yaml:"backend"` // zap | logrus | slog | none
	Format  string `toml:"format" yaml:"format"`   // json | text
}

// Config mirrors the tagcache configuration file.
type Config struct {
	InstanceName  string      `toml:"instance_name" yaml:"instance_name"`
	SweepInterval Duration    `toml:"sweep_interval" yaml:"sweep_interval"`
	Redis         RedisConfig `toml:"redis" yaml:"redis"`
	Log           LogConfig   `toml:"log" yaml:"log"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		SweepInterval: Duration{60 * time.Second},
		Redis: RedisConfig{
			Driver:      DriverGoRedis,
			Addrs:       []string{"localhost:6379"},
			DialTimeout: Duration{5 * time.Second},
		},
		Log: LogConfig{Level: "info", Backend: "slog", Format: "text"},
	}
}

// Load reads path (.toml, .yaml or .yml) on top of Default. Unknown keys are errors.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&cfg)
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err = dec.Decode(&cfg); errors.Is(err, io.EOF) {
			err = nil // empty document
		}
	default:
		return cfg, fmt.Errorf("%s: unsupported config format %q", path, ext)
	}
	var strict *toml.StrictMissingError
	if errors.As(err, &strict) {
		unknown := make([]string, 0, len(strict.Errors))
		for _, e := range strict.Errors {
			unknown = append(unknown, strings.Join(e.Key(), "."))
		}
		return cfg, fmt.Errorf("%s: unknown configuration keys: %s", path, strings.Join(unknown, ", "))
	}
	if err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}

	if pw := os.Getenv(PasswordEnv); pw != "" {
		cfg.Redis.Password = pw
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []error
	if strings.ContainsAny(c.InstanceName, " \t\n") {
		errs = append(errs, fmt.Errorf("instance_name %q must not contain whitespace", c.InstanceName))
	}
	if c.SweepInterval.Duration < 0 {
		errs = append(errs, fmt.Errorf("sweep_interval must not be negative"))
	}
	if len(c.Redis.Addrs) == 0 {
		errs = append(errs, fmt.Errorf("redis.addrs must list at least one address"))
	}
	switch c.Redis.Driver {
	case "", DriverGoRedis:
	case DriverRedigo:
		if len(c.Redis.Addrs) > 1 {
			errs = append(errs, fmt.Errorf("redis.driver %q supports a single address", DriverRedigo))
		}
	default:
		errs = append(errs, fmt.Errorf("redis.driver %q is not one of %q, %q", c.Redis.Driver, DriverGoRedis, DriverRedigo))
	}
	if c.Redis.DB < 0 {
		errs = append(errs, fmt.Errorf("redis.db must not be negative"))
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Backend {
	case "", "zap", "logrus", "slog", "none":
	default:
		errs = append(errs, fmt.Errorf("log.backend %q is not one of zap, logrus, slog, none", c.Log.Backend))
	}
	switch c.Log.Format {
	case "", "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not one of json, text", c.Log.Format))
	}
	return errors.Join(errs...)
}

// Options builds cache options. log may be nil.
func (c Config) Options(log tagcache.Logger) tagcache.Options {
	opts := tagcache.Options{
		InstanceName:  c.InstanceName,
		SweepInterval: c.SweepInterval.Duration,
		Logger:        log,
	}
	if c.Redis.Driver == DriverRedigo {
		opts.Dial = c.redigoDial()
		return opts
	}
	opts.Redis = &redis.UniversalOptions{
		Addrs:       c.Redis.Addrs,
		Username:    c.Redis.Username,
		Password:    c.Redis.Password,
		DB:          c.Redis.DB,
		DialTimeout: c.Redis.DialTimeout.Duration,
		PoolSize:    c.Redis.PoolSize,
	}
	return opts
}

func (c Config) redigoDial() tagcache.DialFunc {
	rc := c.Redis
	return func(context.Context) (store.Store, error) {
		pool := rg.NewPool(rc.Addrs[0], max(rc.PoolSize, 1),
			redigo.DialUsername(rc.Username),
			redigo.DialPassword(rc.Password),
			redigo.DialDatabase(rc.DB),
			redigo.DialConnectTimeout(rc.DialTimeout.Duration),
		)
		return rg.New(rg.Config{Pool: pool, ClosePool: true})
	}
}

type level int

const (
	levelDebug level = iota
	levelInfo
	levelWarn
	levelError
)

func parseLevel(s string) (level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return levelDebug, nil
	case "", "info":
		return levelInfo, nil
	case "warn", "warning":
		return levelWarn, nil
	case "error":
		return levelError, nil
	}
	return 0, fmt.Errorf("log.level %q is not one of debug, info, warn, error", s)
}

// Logger builds the configured logging backend writing to w.
func (c Config) Logger(w io.Writer) (tagcache.Logger, error) {
	lvl, err := parseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	json := c.Log.Format == "json"

	switch c.Log.Backend {
	case "none":
		return tagcache.NopLogger{}, nil
	case "zap":
		enc := zap.NewProductionEncoderConfig()
		enc.EncodeTime = zapcore.ISO8601TimeEncoder
		var encoder zapcore.Encoder
		if json {
			encoder = zapcore.NewJSONEncoder(enc)
		} else {
			encoder = zapcore.NewConsoleEncoder(enc)
		}
		zl := []zapcore.Level{zapcore.DebugLevel, zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel}[lvl]
		return zaplog.New(zap.New(zapcore.NewCore(encoder, zapcore.AddSync(w), zl))), nil
	case "logrus":
		l := logrus.New()
		l.SetOutput(w)
		l.SetLevel([]logrus.Level{logrus.DebugLevel, logrus.InfoLevel, logrus.WarnLevel, logrus.ErrorLevel}[lvl])
		if json {
			l.SetFormatter(&logrus.JSONFormatter{})
		}
		return logruslog.New(l), nil
	default:
		ho := &stdslog.HandlerOptions{
			Level: []stdslog.Level{stdslog.LevelDebug, stdslog.LevelInfo, stdslog.LevelWarn, stdslog.LevelError}[lvl],
		}
		var h stdslog.Handler
		if json {
			h = stdslog.NewJSONHandler(w, ho)
		} else {
			h = stdslog.NewTextHandler(w, ho)
		}
		return slogadapter.New(stdslog.New(h)), nil
	}
}
