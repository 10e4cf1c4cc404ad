package mercator

import (
	"fmt"

	"github.com/pkg/errors"
)

const (
	// MinZoom is the lowest level of the tile pyramid
	MinZoom = 0
	// MaxZoom is the highest level served. OSM lists level 20, but its tile server answers
	// those requests with 400 Bad Request.
	MaxZoom = 19
	// DefaultZoom is the zoom level of a freshly created map
	DefaultZoom = 16
)

// ErrInvalidZoom is returned for every zoom level outside [MinZoom, MaxZoom]
var ErrInvalidZoom = errors.New("invalid zoom level")

// Zoom is a validated zoom level. The zero value is level 0.
type Zoom uint8

// NewZoom validates z. Values outside the pyramid are rejected, never clamped.
func NewZoom(z int) (Zoom, error) {
	if z < MinZoom || z > MaxZoom {
		return 0, errors.Wrapf(ErrInvalidZoom, "zoom %d not in [%d, %d]", z, MinZoom, MaxZoom)
	}
	return Zoom(z), nil
}

// NewDefaultZoom returns the default zoom level 16.
func NewDefaultZoom() Zoom {
	return Zoom(DefaultZoom)
}

// Int returns the zoom level as int
func (z Zoom) Int() int {
	return int(z)
}

// Scale is the number of tiles along one axis at this level, 2^z.
func (z Zoom) Scale() uint32 {
	return uint32(1) << uint32(z)
}

// ZoomIn increments the level. At MaxZoom it fails and z is left unchanged.
func (z *Zoom) ZoomIn() error {
	n, err := NewZoom(int(*z) + 1)
	if err != nil {
		return err
	}
	*z = n
	return nil
}

// ZoomOut decrements the level. At MinZoom it fails and z is left unchanged.
func (z *Zoom) ZoomOut() error {
	n, err := NewZoom(int(*z) - 1)
	if err != nil {
		return err
	}
	*z = n
	return nil
}

func (z Zoom) String() string {
	return fmt.Sprintf("%d", uint8(z))
}
