package measurement

import (
	"maps"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/samber/do/v2"
)

// Service collects timings and counters of the tile pipeline
type Service struct {
	active   bool
	plock    sync.Mutex
	points   map[string]*Point
	counters map[string]*atomic.Int64
}

// Data is the exported state of one timing point, durations in milliseconds
type Data struct {
	Name      string `json:"name"`
	Min       int64  `json:"min"`
	Max       int64  `json:"max"`
	Average   int64  `json:"average"`
	Total     int64  `json:"total"`
	Count     int    `json:"count"`
	Errors    int    `json:"errors"`
	MaxActive int    `json:"maxActive"`
}

// Snapshot is the complete state of the service
type Snapshot struct {
	Timings  []Data           `json:"timings"`
	Counters map[string]int64 `json:"counters"`
}

func New(active bool) *Service {
	return &Service{
		active:   active,
		points:   make(map[string]*Point),
		counters: make(map[string]*atomic.Int64),
	}
}

type measurementConfig interface {
	GetMetricsActive() bool
}

// Init provides the service, active if the config says so
func Init(inj do.Injector) {
	active := true
	if mc, err := do.InvokeAs[measurementConfig](inj); err == nil {
		active = mc.GetMetricsActive()
	}
	do.ProvideValue(inj, New(active))
}

// Start starts a timer on the named point
func (s *Service) Start(name string) *Timer {
	return s.Point(name).Timer()
}

func (s *Service) Point(name string) *Point {
	s.plock.Lock()
	defer s.plock.Unlock()
	p, ok := s.points[name]
	if !ok {
		p = NewPoint(name, s.active)
		s.points[name] = p
	}
	return p
}

// Inc adds n to the named counter. Counters are kept even if timing is inactive.
func (s *Service) Inc(name string, n int64) {
	s.counter(name).Add(n)
}

// Counter returns the value of the named counter
func (s *Service) Counter(name string) int64 {
	return s.counter(name).Load()
}

func (s *Service) counter(name string) *atomic.Int64 {
	s.plock.Lock()
	defer s.plock.Unlock()
	c, ok := s.counters[name]
	if !ok {
		c = new(atomic.Int64)
		s.counters[name] = c
	}
	return c
}

func (s *Service) Datas() Snapshot {
	s.plock.Lock()
	points := slices.Collect(maps.Values(s.points))
	counters := make(map[string]int64, len(s.counters))
	for k, c := range s.counters {
		counters[k] = c.Load()
	}
	s.plock.Unlock()

	datas := make([]Data, 0, len(points))
	for _, p := range points {
		datas = append(datas, p.Data())
	}
	slices.SortFunc(datas, func(d1, d2 Data) int {
		return strings.Compare(d1.Name, d2.Name)
	})
	return Snapshot{Timings: datas, Counters: counters}
}

func (s *Service) Reset() {
	s.plock.Lock()
	defer s.plock.Unlock()
	for _, p := range s.points {
		p.Reset()
	}
	for _, c := range s.counters {
		c.Store(0)
	}
}
