// Package session hosts one map instance. Every call is one step of the frame loop
// and runs under the session lock.
package session

import (
	"log/slog"
	"sync"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"github.com/samber/do/v2"

	"github.com/willie68/go_slippymap/internal/download"
	"github.com/willie68/go_slippymap/internal/logging"
	"github.com/willie68/go_slippymap/internal/mapmemory"
	"github.com/willie68/go_slippymap/internal/mercator"
	"github.com/willie68/go_slippymap/internal/model"
	"github.com/willie68/go_slippymap/internal/provider"
	"github.com/willie68/go_slippymap/internal/statestore"
	"github.com/willie68/go_slippymap/internal/tilecache"
	"github.com/willie68/go_slippymap/internal/tiles"
	"github.com/willie68/go_slippymap/internal/utils/measurement"
	"github.com/willie68/go_slippymap/internal/walker"
)

const (
	stateName = "default"
	// MaxViewport limits width and height of a frame
	MaxViewport = 4096
)

// ErrInvalidViewport width or height out of range
var ErrInvalidViewport = errors.New("invalid viewport size")

// Config of the map instance
type Config struct {
	Zoom       int            `yaml:"zoom"`
	MyPosition PositionConfig `yaml:"myposition"`
}

type PositionConfig struct {
	Lon float64 `yaml:"lon"`
	Lat float64 `yaml:"lat"`
}

// TileService is the tile pipeline of the session
type TileService interface {
	LookupOrRequest(id mercator.TileID) (*model.Tile, bool)
	State(id mercator.TileID) tilecache.RequestState
	Attribution() provider.Attribution
	Selection() provider.Selection
	SetProvider(kind provider.Kind, mapType provider.MapType) error
	Stats() (cached, pending int)
}

// StateStore persists the view between runs
type StateStore interface {
	Load(name string) (statestore.State, error)
	Save(name string, st statestore.State) error
}

type Session struct {
	mu      sync.Mutex
	log     *slog.Logger
	memory  mapmemory.Memory
	my      mercator.Position
	tiles   TileService
	walker  *walker.Walker
	store   StateStore
	signal  *download.Signal
	metrics *measurement.Service
}

type sessionConfig interface {
	GetMapConfig() Config
}

func Init(inj do.Injector) {
	cfg := do.MustInvokeAs[sessionConfig](inj).GetMapConfig()
	s := New(
		do.MustInvoke[*tiles.Service](inj),
		do.MustInvoke[*statestore.Store](inj),
		do.MustInvoke[*download.Signal](inj),
		do.MustInvoke[*measurement.Service](inj),
		cfg,
	)
	do.ProvideValue(inj, s)
}

// New creates the session, a saved state overrides zoom and provider of the config
func New(ts TileService, store StateStore, signal *download.Signal, metrics *measurement.Service, cfg Config) *Session {
	if signal == nil {
		signal = download.NewSignal()
	}
	if metrics == nil {
		metrics = measurement.New(false)
	}
	s := &Session{
		log:     logging.New("session"),
		memory:  mapmemory.NewMemory(),
		my:      mercator.NewPosition(cfg.MyPosition.Lon, cfg.MyPosition.Lat),
		tiles:   ts,
		walker:  walker.New(),
		store:   store,
		signal:  signal,
		metrics: metrics,
	}
	if err := s.memory.SetZoom(cfg.Zoom); err != nil {
		s.log.Warn("configured zoom ignored", "zoom", cfg.Zoom, "error", err)
	}
	s.restore()
	return s
}

func (s *Session) restore() {
	if s.store == nil {
		return
	}
	st, err := s.store.Load(stateName)
	if err != nil {
		if !errors.Is(err, statestore.ErrNotFound) {
			s.log.Warn("can't load view state", "error", err)
		}
		return
	}
	if err := s.memory.SetZoom(st.Zoom); err != nil {
		s.log.Warn("saved zoom ignored", "zoom", st.Zoom, "error", err)
	}
	if st.Detached {
		s.memory.Center = mapmemory.Exact(mercator.NewPosition(st.Lon, st.Lat))
	}
	kind, err := provider.ParseKind(st.Provider)
	if err != nil {
		return
	}
	mt, err := provider.ParseMapType(st.MapType)
	if err != nil {
		return
	}
	if kind != s.tiles.Selection().Kind || mt != s.tiles.Selection().MapType {
		if err := s.tiles.SetProvider(kind, mt); err != nil {
			s.log.Warn("saved provider ignored", "provider", st.Provider, "error", err)
		}
	}
	s.log.Info("view state restored", "memory", s.memory.String())
}

// persist must be called with the lock held
func (s *Session) persist() {
	if s.store == nil {
		return
	}
	sel := s.tiles.Selection()
	p, detached := s.memory.Center.Detached()
	st := statestore.State{
		Detached: detached,
		Lon:      p.Lon(),
		Lat:      p.Lat(),
		Zoom:     s.memory.Zoom.Int(),
		Provider: sel.Kind.String(),
		MapType:  sel.MapType.String(),
	}
	if err := s.store.Save(stateName, st); err != nil {
		s.log.Warn("can't save view state", "error", err)
	}
}

// State returns the current view
func (s *Session) State() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view()
}

func (s *Session) view() View {
	sel := s.tiles.Selection()
	_, detached := s.memory.Center.Detached()
	cached, pending := s.tiles.Stats()
	return View{
		Center:      newPositionView(s.memory.Center.Position(s.my)),
		MyPosition:  newPositionView(s.my),
		Detached:    detached,
		Zoom:        s.memory.Zoom.Int(),
		Provider:    sel.Kind.String(),
		MapType:     sel.MapType.String(),
		Attribution: s.tiles.Attribution(),
		Repaint:     s.signal.Generation(),
		Cached:      cached,
		Pending:     pending,
	}
}

// Drag applies one frame of a pointer drag
func (s *Session) Drag(button mapmemory.Button, delta orb.Point) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.memory.Drag(button, delta, s.my) {
		s.persist()
	}
	return s.view()
}

// Recenter follows my position again
func (s *Session) Recenter() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memory.Recenter()
	s.persist()
	return s.view()
}

func (s *Session) ZoomIn() (View, error) {
	return s.zoom(s.memory.ZoomIn)
}

func (s *Session) ZoomOut() (View, error) {
	return s.zoom(s.memory.ZoomOut)
}

func (s *Session) SetZoom(z int) (View, error) {
	return s.zoom(func() error { return s.memory.SetZoom(z) })
}

func (s *Session) zoom(f func() error) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := f(); err != nil {
		return s.view(), err
	}
	s.persist()
	return s.view(), nil
}

// SetMyPosition updates the followed position, e.g. from a GPS source
func (s *Session) SetMyPosition(p mercator.Position) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.my = p
	return s.view()
}

// SetProvider switches the tile source, all cached tiles are dropped
func (s *Session) SetProvider(kind provider.Kind, mapType provider.MapType) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.tiles.SetProvider(kind, mapType); err != nil {
		return s.view(), err
	}
	s.persist()
	return s.view(), nil
}

func (s *Session) Attribution() provider.Attribution {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tiles.Attribution()
}

// Tile looks up a single tile and requests it if missing. state tells a running
// download apart from a failed one.
func (s *Session) Tile(id mercator.TileID) (*model.Tile, tilecache.RequestState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tiles.LookupOrRequest(id)
	if ok {
		return t, tilecache.StateNone
	}
	return nil, s.tiles.State(id)
}
