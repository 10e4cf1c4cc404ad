package tilecache

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/willie68/go_slippymap/internal/download"
	"github.com/willie68/go_slippymap/internal/logging"
	"github.com/willie68/go_slippymap/internal/mercator"
	"github.com/willie68/go_slippymap/internal/model"
	"github.com/willie68/go_slippymap/internal/utils/measurement"
)

// names of the metrics written by the cache
const (
	MetricHits      = "cacheHits"
	MetricMisses    = "cacheMisses"
	MetricRequested = "tilesRequested"
	MetricQueueFull = "requestQueueFull"
)

type Config struct {
	RequestQueue  int           `yaml:"requestqueue"`
	ResponseQueue int           `yaml:"responsequeue"`
	RetryAfter    time.Duration `yaml:"retryafter"` // cool down after a failed download
}

// RequestState tells why a tile is not cached
type RequestState int

const (
	// StateNone not requested, the next lookup requests it
	StateNone RequestState = iota
	// StateOutstanding the worker has the request
	StateOutstanding
	// StateCoolingDown the last download failed, no request until RetryAfter passed
	StateCoolingDown
)

func (s RequestState) String() string {
	switch s {
	case StateOutstanding:
		return "pending"
	case StateCoolingDown:
		return "failed"
	}
	return "none"
}

// WithDefaults fills every zero value
func (c Config) WithDefaults() Config {
	if c.RequestQueue <= 0 {
		c.RequestQueue = 128
	}
	if c.ResponseQueue <= 0 {
		c.ResponseQueue = 32
	}
	if c.RetryAfter <= 0 {
		c.RetryAfter = 30 * time.Second
	}
	return c
}

// Fetcher is the download side of the cache
type Fetcher interface {
	Run(ctx context.Context, requests <-chan mercator.TileID, results chan<- download.Result) error
}

// Cache is the in memory tile store of one map instance. It owns the request
// queue and consumes the result queue of its fetcher. Not safe for concurrent use,
// all calls come from the frame loop.
type Cache struct {
	log       *slog.Logger
	cfg       Config
	tiles     map[mercator.TileID]*model.Tile
	pending   map[mercator.TileID]struct{}
	failed    map[mercator.TileID]time.Time
	requests  chan mercator.TileID
	results   chan download.Result
	resultCap int
	cancel    context.CancelFunc
	done      chan struct{}
	closed    bool
	metrics   *measurement.Service
	now       func() time.Time
}

type Option func(c *Cache)

func WithMetrics(m *measurement.Service) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

// New creates the cache and starts the fetcher on its own goroutine
func New(f Fetcher, cfg Config, opts ...Option) *Cache {
	cfg = cfg.WithDefaults()
	c := &Cache{
		log:       logging.New("tilecache"),
		cfg:       cfg,
		tiles:     make(map[mercator.TileID]*model.Tile),
		pending:   make(map[mercator.TileID]struct{}),
		failed:    make(map[mercator.TileID]time.Time),
		requests:  make(chan mercator.TileID, cfg.RequestQueue),
		results:   make(chan download.Result, cfg.ResponseQueue),
		resultCap: cfg.ResponseQueue,
		done:      make(chan struct{}),
		now:       time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	if c.metrics == nil {
		c.metrics = measurement.New(false)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	go func() {
		defer close(c.done)
		err := f.Run(ctx, c.requests, c.results)
		if err != nil && !errors.Is(err, context.Canceled) {
			c.log.Error("download worker failed", "error", err)
		}
	}()
	return c
}

// LookupOrRequest returns the tile if cached. Otherwise the tile is requested,
// unless a request is outstanding or the last download failed less than
// RetryAfter ago.
func (c *Cache) LookupOrRequest(id mercator.TileID) (*model.Tile, bool) {
	c.drain()
	if t, ok := c.tiles[id]; ok {
		c.metrics.Inc(MetricHits, 1)
		return t, true
	}
	c.metrics.Inc(MetricMisses, 1)
	c.request(id)
	return nil, false
}

// State reports the request state of a tile that is not cached
func (c *Cache) State(id mercator.TileID) RequestState {
	if _, ok := c.pending[id]; ok {
		return StateOutstanding
	}
	if until, ok := c.failed[id]; ok {
		if c.now().Before(until) {
			return StateCoolingDown
		}
		delete(c.failed, id)
	}
	return StateNone
}

func (c *Cache) request(id mercator.TileID) {
	if c.closed || c.State(id) != StateNone {
		return
	}
	select {
	case c.requests <- id:
		c.pending[id] = struct{}{}
		c.metrics.Inc(MetricRequested, 1)
	default:
		c.metrics.Inc(MetricQueueFull, 1)
		c.log.Debug("request queue full", "tile", id.String())
	}
}

// drain takes at most one queue length of results without blocking
func (c *Cache) drain() {
	for range max(c.resultCap, 1) {
		select {
		case r, ok := <-c.results:
			if !ok {
				// worker is gone, keep the cached tiles
				c.results = nil
				c.resultCap = 0
				return
			}
			c.store(r)
		default:
			return
		}
	}
}

func (c *Cache) store(r download.Result) {
	delete(c.pending, r.ID)
	switch {
	case errors.Is(r.Err, download.ErrResultDropped):
		// downloaded but lost on a full queue, the next lookup asks again
	case r.Err != nil || r.Tile == nil:
		c.failed[r.ID] = c.now().Add(c.cfg.RetryAfter)
	default:
		c.tiles[r.ID] = r.Tile
		delete(c.failed, r.ID)
	}
}

// Len number of cached tiles
func (c *Cache) Len() int {
	return len(c.tiles)
}

// Pending number of outstanding requests
func (c *Cache) Pending() int {
	return len(c.pending)
}

// Close stops the fetcher and waits for it. Cached tiles stay readable.
func (c *Cache) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	close(c.requests)
	c.cancel()
	<-c.done
	c.log.Debug("tile cache closed", "tiles", len(c.tiles))
	return nil
}
