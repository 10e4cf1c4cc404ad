package download

import (
	"bytes"
	"context"
	"image"
	_ "image/jpeg" // decoder registration
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/pkg/errors"
	_ "golang.org/x/image/webp"

	"github.com/willie68/go_slippymap/internal/logging"
	"github.com/willie68/go_slippymap/internal/mercator"
	"github.com/willie68/go_slippymap/internal/model"
	"github.com/willie68/go_slippymap/internal/provider"
	"github.com/willie68/go_slippymap/internal/utils/measurement"
)

// names of the metrics written by the worker
const (
	MetricFetch    = "fetchTile"
	MetricDecode   = "decodeTile"
	MetricFetched  = "tilesFetched"
	MetricFailed   = "tilesFailed"
	MetricDropped  = "resultsDropped"
	maxTileBodyLen = 8 << 20
)

// Config of the download worker
type Config struct {
	UserAgent string        `yaml:"useragent"`
	Timeout   time.Duration `yaml:"timeout"` // per tile, 0 means no timeout
}

// Result of one download. Either Tile or Err is set.
type Result struct {
	ID   mercator.TileID
	Tile *model.Tile
	Err  error
}

// Worker downloads the tiles of one provider, one request after the other
type Worker struct {
	log       *slog.Logger
	provider  provider.Provider
	client    *http.Client
	userAgent string
	headers   map[string]string
	timeout   time.Duration
	repaint   Repainter
	metrics   *measurement.Service
}

// Option configures a worker
type Option func(w *Worker)

// WithClient uses the given http client instead of a new one
func WithClient(c *http.Client) Option {
	return func(w *Worker) {
		w.client = c
	}
}

// WithHeaders adds extra request headers
func WithHeaders(h map[string]string) Option {
	return func(w *Worker) {
		w.headers = h
	}
}

func WithRepainter(r Repainter) Option {
	return func(w *Worker) {
		w.repaint = r
	}
}

func WithMetrics(m *measurement.Service) Option {
	return func(w *Worker) {
		w.metrics = m
	}
}

// NewWorker creates a worker bound to the provider
func NewWorker(p provider.Provider, cfg Config, opts ...Option) *Worker {
	w := &Worker{
		log:       logging.New("download"),
		provider:  p,
		userAgent: cfg.UserAgent,
		timeout:   cfg.Timeout,
	}
	for _, o := range opts {
		o(w)
	}
	if w.userAgent == "" {
		w.userAgent = provider.DefaultUserAgent
	}
	if w.client == nil {
		w.client = &http.Client{}
	}
	if w.repaint == nil {
		w.repaint = RepaintFunc(func() {})
	}
	if w.metrics == nil {
		w.metrics = measurement.New(false)
	}
	return w
}

// Run consumes the requests in FIFO order until the channel is closed or the
// context is done. Results are offered without blocking, a full queue drops them.
// Every dropped result is reported again as soon as the queue has room, a dropped
// tile as ErrResultDropped. Run closes results on exit.
func (w *Worker) Run(ctx context.Context, requests <-chan mercator.TileID, results chan<- Result) error {
	defer close(results)
	var dropped []Result
	for {
		var out chan<- Result
		var next Result
		if len(dropped) > 0 {
			out = results
			next = dropped[0]
		}
		select {
		case <-ctx.Done():
			w.log.Info("download worker stopped, response side gone", "provider", w.provider.Kind().String())
			return ctx.Err()
		case out <- next:
			dropped = dropped[1:]
			w.repaint.RequestRepaint()
		case id, ok := <-requests:
			if !ok {
				w.log.Info("download worker stopped, request queue closed", "provider", w.provider.Kind().String())
				return nil
			}
			tile, err := w.Fetch(ctx, id)
			if err != nil {
				if ctx.Err() != nil {
					w.log.Info("download worker stopped, response side gone", "provider", w.provider.Kind().String())
					return ctx.Err()
				}
				w.log.Warn("can't download tile", "tile", id.String(), "error", err)
				if !w.offer(results, Result{ID: id, Err: err}) {
					dropped = append(dropped, Result{ID: id, Err: err})
				}
				continue
			}
			if w.offer(results, Result{ID: id, Tile: tile}) {
				w.repaint.RequestRepaint()
			} else {
				dropped = append(dropped, Result{ID: id, Err: ErrResultDropped})
			}
		}
	}
}

func (w *Worker) offer(results chan<- Result, r Result) bool {
	select {
	case results <- r:
		return true
	default:
		w.metrics.Inc(MetricDropped, 1)
		w.log.Debug("result queue full, result dropped", "tile", r.ID.String())
		return false
	}
}

// Fetch downloads and decodes one tile
func (w *Worker) Fetch(ctx context.Context, id mercator.TileID) (*model.Tile, error) {
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}
	url := w.provider.TileURL(id)

	tm := w.metrics.Start(MetricFetch)
	data, err := w.get(ctx, id, url)
	if err != nil {
		tm.Fail()
		w.metrics.Inc(MetricFailed, 1)
		return nil, err
	}
	tm.Stop()

	tm = w.metrics.Start(MetricDecode)
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		tm.Fail()
		w.metrics.Inc(MetricFailed, 1)
		return nil, &FetchError{Kind: KindDecode, Tile: id, URL: url, Err: errors.Wrap(err, "decode tile image")}
	}
	tm.Stop()
	w.metrics.Inc(MetricFetched, 1)
	w.log.Debug("tile downloaded", "tile", id.String(), "bytes", len(data))
	return &model.Tile{ID: id, Image: img}, nil
}

func (w *Worker) get(ctx context.Context, id mercator.TileID, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{Kind: KindTransport, Tile: id, URL: url, Err: errors.Wrap(err, "create request")}
	}
	provider.SetDefaultHeaders(req, w.userAgent, w.headers)

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, &FetchError{Kind: KindTransport, Tile: id, URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &FetchError{Kind: KindStatus, Tile: id, URL: url, StatusCode: resp.StatusCode,
			Err: errors.Errorf("unexpected status %s", resp.Status)}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxTileBodyLen+1))
	if err != nil {
		return nil, &FetchError{Kind: KindTransport, Tile: id, URL: url, Err: errors.Wrap(err, "read body")}
	}
	if len(data) > maxTileBodyLen {
		return nil, &FetchError{Kind: KindTransport, Tile: id, URL: url, Err: ErrBodyTooLarge}
	}
	return data, nil
}
