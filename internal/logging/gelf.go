package logging

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aphistic/golf"
)

// gelfHandler forwards records to a graylog server
type gelfHandler struct {
	client *golf.Client
	logger *golf.Logger
	level  slog.Leveler
	attrs  []slog.Attr
}

func newGelfHandler(host string, port int, level slog.Leveler) (*gelfHandler, error) {
	c, err := golf.NewClient()
	if err != nil {
		return nil, fmt.Errorf("can't create gelf client: %w", err)
	}
	uri := fmt.Sprintf("udp://%s", host)
	if port > 0 {
		uri = fmt.Sprintf("udp://%s:%d", host, port)
	}
	if err := c.Dial(uri); err != nil {
		c.Close()
		return nil, fmt.Errorf("can't dial gelf server %s: %w", uri, err)
	}
	l, err := c.NewLogger()
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("can't create gelf logger: %w", err)
	}
	l.SetAttr("facility", "go_slippymap")
	return &gelfHandler{client: c, logger: l, level: level}, nil
}

func (g *gelfHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= g.level.Level()
}

func (g *gelfHandler) Handle(_ context.Context, rec slog.Record) error {
	attrs := make(map[string]interface{}, len(g.attrs)+rec.NumAttrs())
	for _, a := range g.attrs {
		attrs[a.Key] = a.Value.String()
	}
	rec.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.String()
		return true
	})
	switch {
	case rec.Level >= slog.LevelError:
		g.logger.Errm(attrs, "%s", rec.Message)
	case rec.Level >= slog.LevelWarn:
		g.logger.Warnm(attrs, "%s", rec.Message)
	case rec.Level >= slog.LevelInfo:
		g.logger.Infom(attrs, "%s", rec.Message)
	default:
		g.logger.Dbgm(attrs, "%s", rec.Message)
	}
	return nil
}

func (g *gelfHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	n := *g
	n.attrs = append(append([]slog.Attr{}, g.attrs...), attrs...)
	return &n
}

func (g *gelfHandler) WithGroup(_ string) slog.Handler {
	return g
}

func (g *gelfHandler) Close() error {
	g.client.Close()
	return nil
}
