// Package mapmemory holds the view state of a map between frames: what the map is
// centered on and the zoom level.
package mapmemory

import (
	"fmt"

	"github.com/paulmach/orb"

	"github.com/willie68/go_slippymap/internal/mercator"
)

// Button is the pointer button of a drag
type Button int

const (
	ButtonPrimary Button = iota
	ButtonSecondary
	ButtonMiddle
)

func (b Button) String() string {
	switch b {
	case ButtonPrimary:
		return "primary"
	case ButtonSecondary:
		return "secondary"
	case ButtonMiddle:
		return "middle"
	}
	return fmt.Sprintf("Button(%d)", int(b))
}

// CenterMode either follows "my position" or is detached at an exact position.
// The zero value follows my position.
type CenterMode struct {
	exact    bool
	position mercator.Position
}

// MyPosition follows the position given on every frame
func MyPosition() CenterMode {
	return CenterMode{}
}

// Exact is detached at the position
func Exact(p mercator.Position) CenterMode {
	return CenterMode{exact: true, position: p}
}

// Position resolves the center, my is used when following
func (c CenterMode) Position(my mercator.Position) mercator.Position {
	if c.exact {
		return c.position
	}
	return my
}

// Detached returns the exact position if the map is not following my position
func (c CenterMode) Detached() (mercator.Position, bool) {
	return c.position, c.exact
}

func (c CenterMode) String() string {
	if c.exact {
		return fmt.Sprintf("Exact(%s)", c.position)
	}
	return "MyPosition"
}

// Memory is the state of one map, owned by the frame loop
type Memory struct {
	Center CenterMode
	Zoom   mercator.Zoom
}

// NewMemory follows my position at zoom 16
func NewMemory() Memory {
	return Memory{
		Center: MyPosition(),
		Zoom:   mercator.NewDefaultZoom(),
	}
}

// Drag applies the pointer drag of one frame. Only the primary button moves the map.
// The first drag detaches the map at my position, the delta is applied from the
// next frame on. Returns true if the state changed.
func (m *Memory) Drag(button Button, delta orb.Point, my mercator.Position) bool {
	if button != ButtonPrimary {
		return false
	}
	p, detached := m.Center.Detached()
	if !detached {
		m.Center = Exact(my)
		return true
	}
	d := mercator.ScreenToPosition(delta, m.Zoom)
	m.Center = Exact(mercator.NewPosition(p.Lon()-d.Lon(), p.Lat()-d.Lat()))
	return true
}

// Recenter follows my position again
func (m *Memory) Recenter() {
	m.Center = MyPosition()
}

// ZoomIn fails with mercator.ErrInvalidZoom at the maximum, the zoom is unchanged then
func (m *Memory) ZoomIn() error {
	return m.Zoom.ZoomIn()
}

// ZoomOut fails with mercator.ErrInvalidZoom at zoom 0
func (m *Memory) ZoomOut() error {
	return m.Zoom.ZoomOut()
}

func (m *Memory) SetZoom(z int) error {
	zoom, err := mercator.NewZoom(z)
	if err != nil {
		return err
	}
	m.Zoom = zoom
	return nil
}

func (m Memory) String() string {
	return fmt.Sprintf("%s@%s", m.Center, m.Zoom)
}
