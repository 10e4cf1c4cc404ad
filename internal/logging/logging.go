package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"github.com/samber/do/v2"
	slogmulti "github.com/samber/slog-multi"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config of the logging
type Config struct {
	Level      string `yaml:"level"`    // debug, info, warn, error
	Filename   string `yaml:"filename"` // empty: no file logging
	MaxSize    int    `yaml:"maxsize"`  // megabytes before rotation
	MaxBackups int    `yaml:"maxbackups"`
	MaxAge     int    `yaml:"maxage"` // days
	Gelfurl    string `yaml:"gelf-url"`
	Gelfport   int    `yaml:"gelf-port"`
}

var (
	stdout  io.Writer = os.Stdout
	level   = new(slog.LevelVar)
	current atomic.Pointer[slog.Handler]
	closers []io.Closer
	// Root is the logger of the application without a name
	Root = slog.New(&rootHandler{})
)

func init() {
	var h slog.Handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	current.Store(&h)
}

type loggingConfig interface {
	GetLoggingConfig() Config
}

// Init configures the logging from the config found in the injector
func Init(inj do.Injector) {
	cfg := do.MustInvokeAs[loggingConfig](inj).GetLoggingConfig()
	if err := Configure(cfg); err != nil {
		Root.Error(fmt.Sprintf("can't configure logging: %v", err))
	}
}

// Configure replaces the output of all loggers, including the ones created before.
func Configure(cfg Config) error {
	level.Set(ParseLevel(cfg.Level))
	opts := &slog.HandlerOptions{Level: level}

	handlers := []slog.Handler{slog.NewTextHandler(stdout, opts)}
	var cls []io.Closer
	if cfg.Filename != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    defaultInt(cfg.MaxSize, 10),
			MaxBackups: defaultInt(cfg.MaxBackups, 3),
			MaxAge:     defaultInt(cfg.MaxAge, 28),
		}
		handlers = append(handlers, slog.NewTextHandler(lj, opts))
		cls = append(cls, lj)
	}
	if cfg.Gelfurl != "" {
		gh, err := newGelfHandler(cfg.Gelfurl, cfg.Gelfport, level)
		if err != nil {
			for _, c := range cls {
				_ = c.Close()
			}
			return err
		}
		handlers = append(handlers, gh)
		cls = append(cls, gh)
	}
	h := slogmulti.Fanout(handlers...)
	old := closers
	closers = cls
	current.Store(&h)
	for _, c := range old {
		_ = c.Close()
	}
	return nil
}

// Close flushes and closes file and gelf outputs
func Close() {
	var h slog.Handler = slog.NewTextHandler(stdout, &slog.HandlerOptions{Level: level})
	current.Store(&h)
	for _, c := range closers {
		_ = c.Close()
	}
	closers = nil
}

// New creates a named logger
func New(name string) *slog.Logger {
	return Root.With("logger", name)
}

// ParseLevel maps debug, info, warn and error to the slog level, default is info
func ParseLevel(l string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(l)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "err":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func defaultInt(v, d int) int {
	if v <= 0 {
		return d
	}
	return v
}

// rootHandler resolves the configured handler on every record, so loggers created at
// package init follow a later Configure.
type rootHandler struct {
	attrs []slog.Attr
	group string
}

func (r *rootHandler) resolve() slog.Handler {
	h := *current.Load()
	if r.group != "" {
		h = h.WithGroup(r.group)
	}
	if len(r.attrs) > 0 {
		h = h.WithAttrs(r.attrs)
	}
	return h
}

func (r *rootHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return (*current.Load()).Enabled(ctx, l)
}

func (r *rootHandler) Handle(ctx context.Context, rec slog.Record) error {
	return r.resolve().Handle(ctx, rec)
}

func (r *rootHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	n := &rootHandler{group: r.group}
	n.attrs = append(append(n.attrs, r.attrs...), attrs...)
	return n
}

func (r *rootHandler) WithGroup(name string) slog.Handler {
	// groups are only used flat in this application
	n := &rootHandler{attrs: r.attrs, group: name}
	if r.group != "" {
		n.group = r.group + "." + name
	}
	return n
}
