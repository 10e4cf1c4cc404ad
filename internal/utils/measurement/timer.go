package measurement

import "time"

// Timer measures one operation. The zero value does nothing.
type Timer struct {
	point   *Point
	start   time.Time
	stopped bool
}

// Stop ends a successful measurement, returns the measured duration
func (t *Timer) Stop() time.Duration {
	return t.finish(false)
}

// Fail ends the measurement and counts it as error
func (t *Timer) Fail() time.Duration {
	return t.finish(true)
}

func (t *Timer) finish(failed bool) time.Duration {
	if t.point == nil || t.stopped {
		return 0
	}
	t.stopped = true
	d := time.Since(t.start)
	t.point.done(d, failed)
	return d
}
