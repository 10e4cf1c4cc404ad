package tiles

import (
	"log/slog"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/willie68/go_slippymap/internal/download"
	"github.com/willie68/go_slippymap/internal/logging"
	"github.com/willie68/go_slippymap/internal/mercator"
	"github.com/willie68/go_slippymap/internal/model"
	"github.com/willie68/go_slippymap/internal/provider"
	"github.com/willie68/go_slippymap/internal/tilecache"
	"github.com/willie68/go_slippymap/internal/utils/measurement"
)

// Options of the tile pipeline
type Options struct {
	Download download.Config
	Cache    tilecache.Config
	Headers  map[string]string
	Client   *http.Client
	Repaint  download.Repainter
	Metrics  *measurement.Service
}

// Service binds one provider to its cache and download worker
type Service struct {
	log      *slog.Logger
	opts     Options
	provider provider.Provider
	cache    *tilecache.Cache
}

type tilesConfig interface {
	GetDownloadConfig() download.Config
	GetCacheConfig() tilecache.Config
}

type providerFactory interface {
	Active() provider.Selection
	Headers() map[string]string
}

// Init provides the tile service for the configured provider
func Init(inj do.Injector) {
	cfg := do.MustInvokeAs[tilesConfig](inj)
	pf := do.MustInvokeAs[providerFactory](inj)
	p := do.MustInvokeNamed[provider.Provider](inj, pf.Active().Kind.String())
	s := New(p, Options{
		Download: cfg.GetDownloadConfig(),
		Cache:    cfg.GetCacheConfig(),
		Headers:  pf.Headers(),
		Repaint:  do.MustInvoke[*download.Signal](inj),
		Metrics:  do.MustInvoke[*measurement.Service](inj),
	})
	do.ProvideValue(inj, s)
}

// New starts the pipeline for the provider
func New(p provider.Provider, opts Options) *Service {
	if opts.Metrics == nil {
		opts.Metrics = measurement.New(false)
	}
	s := &Service{
		log:  logging.New("tiles"),
		opts: opts,
	}
	s.start(p)
	return s
}

func (s *Service) start(p provider.Provider) {
	wopts := []download.Option{
		download.WithHeaders(s.opts.Headers),
		download.WithMetrics(s.opts.Metrics),
	}
	if s.opts.Client != nil {
		wopts = append(wopts, download.WithClient(s.opts.Client))
	}
	if s.opts.Repaint != nil {
		wopts = append(wopts, download.WithRepainter(s.opts.Repaint))
	}
	w := download.NewWorker(p, s.opts.Download, wopts...)
	s.provider = p
	s.cache = tilecache.New(w, s.opts.Cache, tilecache.WithMetrics(s.opts.Metrics))
	s.log.Info("tile pipeline started", "provider", p.Kind().String())
}

// SetProvider drops the cache with all queued requests and starts a new pipeline
func (s *Service) SetProvider(kind provider.Kind, mapType provider.MapType) error {
	p, err := provider.New(kind, mapType)
	if err != nil {
		return err
	}
	if err := s.cache.Close(); err != nil {
		s.log.Warn("can't close tile cache", "error", err)
	}
	s.start(p)
	return nil
}

func (s *Service) Provider() provider.Provider {
	return s.provider
}

// Selection returns kind and map type of the active provider
func (s *Service) Selection() provider.Selection {
	sel := provider.Selection{Kind: s.provider.Kind(), MapType: provider.Standard}
	if mt, ok := s.provider.(interface{ MapType() provider.MapType }); ok {
		sel.MapType = mt.MapType()
	}
	return sel
}

func (s *Service) Attribution() provider.Attribution {
	return s.provider.Attribution()
}

func (s *Service) LookupOrRequest(id mercator.TileID) (*model.Tile, bool) {
	return s.cache.LookupOrRequest(id)
}

// State of a tile that is not cached
func (s *Service) State(id mercator.TileID) tilecache.RequestState {
	return s.cache.State(id)
}

// Stats number of cached and pending tiles
func (s *Service) Stats() (cached, pending int) {
	return s.cache.Len(), s.cache.Pending()
}

func (s *Service) Close() error {
	return s.cache.Close()
}

// Shutdown is called by the injector
func (s *Service) Shutdown() error {
	return s.Close()
}
