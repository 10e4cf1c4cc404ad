package measurement

import (
	"sync"
	"time"
)

type Point struct {
	name                     string
	sactive                  bool
	min, max, average, total time.Duration
	errorCount, count        int
	active, maxActive        int
	calcLock                 sync.Mutex
}

func NewPoint(name string, active bool) *Point {
	return &Point{
		name:    name,
		sactive: active,
	}
}

// Name the name of this measure point
func (p *Point) Name() string {
	return p.name
}

func (p *Point) Reset() {
	p.calcLock.Lock()
	defer p.calcLock.Unlock()
	p.min = 0
	p.max = 0
	p.average = 0
	p.total = 0
	p.errorCount = 0
	p.count = 0
	p.active = 0
	p.maxActive = 0
}

// Timer starts a new timer, a no-op timer if the point is inactive
func (p *Point) Timer() *Timer {
	if !p.sactive {
		return &Timer{}
	}
	p.calcLock.Lock()
	p.active++
	if p.active > p.maxActive {
		p.maxActive = p.active
	}
	p.calcLock.Unlock()
	return &Timer{point: p, start: time.Now()}
}

// Observe adds one measured duration
func (p *Point) Observe(d time.Duration, failed bool) {
	if !p.sactive {
		return
	}
	p.calcLock.Lock()
	defer p.calcLock.Unlock()
	p.count++
	if failed {
		p.errorCount++
	}
	p.total += d
	p.average = p.total / time.Duration(p.count)
	if d > p.max {
		p.max = d
	}
	if (d < p.min) || (p.min == 0) {
		p.min = d
	}
}

func (p *Point) done(d time.Duration, failed bool) {
	p.calcLock.Lock()
	if p.active > 0 {
		p.active--
	}
	p.calcLock.Unlock()
	p.Observe(d, failed)
}

func (p *Point) Active() int {
	p.calcLock.Lock()
	defer p.calcLock.Unlock()
	return p.active
}

func (p *Point) Data() Data {
	p.calcLock.Lock()
	defer p.calcLock.Unlock()
	return Data{
		Name:      p.name,
		Min:       p.min.Milliseconds(),
		Max:       p.max.Milliseconds(),
		Average:   p.average.Milliseconds(),
		Total:     p.total.Milliseconds(),
		Count:     p.count,
		Errors:    p.errorCount,
		MaxActive: p.maxActive,
	}
}
