package mercator

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

// TileSize is the edge length of a raster tile in pixels
const TileSize = 256

// Position is a geographic coordinate, longitude and latitude in degrees.
type Position orb.Point

// NewPosition creates a position from longitude and latitude
func NewPosition(lon, lat float64) Position {
	return Position{lon, lat}
}

// Lon returns the longitude in degrees
func (p Position) Lon() float64 {
	return p[0]
}

// Lat returns the latitude in degrees
func (p Position) Lat() float64 {
	return p[1]
}

// Point returns the position as orb point
func (p Position) Point() orb.Point {
	return orb.Point(p)
}

func (p Position) String() string {
	return fmt.Sprintf("%.5f,%.5f", p.Lon(), p.Lat())
}

// WorldSize is the edge length of the whole world bitmap at zoom in pixels.
func WorldSize(zoom Zoom) float64 {
	return float64(TileSize) * float64(zoom.Scale())
}

// Project converts the position to pixel coordinates on the world bitmap at zoom.
// The origin is the north west corner, y grows southwards.
func Project(p Position, zoom Zoom) orb.Point {
	f := maptile.Fraction(p.Point(), maptile.Zoom(zoom))
	return orb.Point{f[0] * TileSize, f[1] * TileSize}
}

// Unproject converts world bitmap pixel coordinates at zoom back to a position.
func Unproject(px orb.Point, zoom Zoom) Position {
	size := WorldSize(zoom)
	lon := px[0]/size*360.0 - 180.0
	lat := math.Atan(math.Sinh(math.Pi*(1-2*px[1]/size))) * 180.0 / math.Pi
	return NewPosition(lon, lat)
}

// TileIDAt returns the tile containing the position at zoom. Positions on the
// antimeridian or beyond the mercator latitude limit map to the border tiles.
func TileIDAt(p Position, zoom Zoom) TileID {
	f := maptile.Fraction(p.Point(), maptile.Zoom(zoom))
	return TileID{
		X:    clampIndex(f[0], zoom),
		Y:    clampIndex(f[1], zoom),
		Zoom: zoom,
	}
}

func clampIndex(v float64, zoom Zoom) uint32 {
	last := zoom.Scale() - 1
	if v <= 0 {
		return 0
	}
	f := math.Floor(v)
	if f >= float64(last) {
		return last
	}
	return uint32(f)
}

// ScreenToPosition scales a screen space vector into a geographic delta at zoom.
// Screen y points down, so a positive dy yields a negative latitude delta.
func ScreenToPosition(delta orb.Point, zoom Zoom) Position {
	size := WorldSize(zoom)
	return NewPosition(delta[0]/size*360.0, -delta[1]/size*360.0)
}
