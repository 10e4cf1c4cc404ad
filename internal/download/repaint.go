package download

import "sync/atomic"

// Repainter gets notified after a tile was delivered
type Repainter interface {
	RequestRepaint()
}

// RepaintFunc adapts a function to a Repainter
type RepaintFunc func()

func (f RepaintFunc) RequestRepaint() {
	f()
}

// Signal is a Repainter counting the repaint requests. Waiting hosts read C,
// notifications coalesce while nobody listens.
type Signal struct {
	gen atomic.Uint64
	ch  chan struct{}
}

func NewSignal() *Signal {
	return &Signal{ch: make(chan struct{}, 1)}
}

func (s *Signal) RequestRepaint() {
	s.gen.Add(1)
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

// Generation number of repaint requests so far
func (s *Signal) Generation() uint64 {
	return s.gen.Load()
}

func (s *Signal) C() <-chan struct{} {
	return s.ch
}
