package mercator

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

// main train station of Wroclaw
var wroclawGlowny = NewPosition(17.03664, 51.09916)

func TestConstructingZoom(t *testing.T) {
	ast := assert.New(t)
	ast.Equal(16, NewDefaultZoom().Int())

	for z := MinZoom; z <= MaxZoom; z++ {
		zoom, err := NewZoom(z)
		ast.NoError(err)
		ast.Equal(z, zoom.Int())
	}
	for _, z := range []int{20, 21, 255, -1} {
		_, err := NewZoom(z)
		ast.True(errors.Is(err, ErrInvalidZoom), "zoom %d", z)
	}
}

func TestZoomingInAndOut(t *testing.T) {
	ast := assert.New(t)
	zoom, err := NewZoom(18)
	ast.NoError(err)

	ast.NoError(zoom.ZoomIn())
	ast.Equal(19, zoom.Int())

	err = zoom.ZoomIn()
	ast.True(errors.Is(err, ErrInvalidZoom))
	ast.Equal(19, zoom.Int())

	zoom = 0
	err = zoom.ZoomOut()
	ast.True(errors.Is(err, ErrInvalidZoom))
	ast.Equal(0, zoom.Int())

	ast.NoError(zoom.ZoomIn())
	ast.NoError(zoom.ZoomOut())
	ast.Equal(0, zoom.Int())
}

func TestProjectWroclaw(t *testing.T) {
	ast := assert.New(t)
	zoom := NewDefaultZoom()

	px := Project(wroclawGlowny, zoom)
	ast.InDelta(9182572.969984, px.X(), 1e-6)
	ast.InDelta(5609283.724690329, px.Y(), 1e-6)

	id := TileIDAt(wroclawGlowny, zoom)
	ast.Equal(TileID{X: 35869, Y: 21911, Zoom: 16}, id)

	// offset of the position inside its tile
	corner := id.PositionOnWorldBitmap()
	ast.InDelta(108.969984, px.X()-corner.X(), 1e-6)
	ast.InDelta(67.724690, px.Y()-corner.Y(), 1e-6)
}

func TestProjectRoundTrip(t *testing.T) {
	ast := assert.New(t)
	tt := []struct {
		name string
		pos  Position
	}{
		{"wroclaw", wroclawGlowny},
		{"origin", NewPosition(0, 0)},
		{"south west", NewPosition(-179.5, -85.0)},
		{"north east", NewPosition(179.9, 85.0)},
		{"hamburg", NewPosition(9.989095, 53.557078)},
	}
	for _, tc := range tt {
		for _, z := range []int{0, 5, 16, 19} {
			zoom, err := NewZoom(z)
			ast.NoError(err)
			got := Unproject(Project(tc.pos, zoom), zoom)
			ast.InDelta(tc.pos.Lon(), got.Lon(), 1e-9, "%s zoom %d", tc.name, z)
			ast.InDelta(tc.pos.Lat(), got.Lat(), 1e-9, "%s zoom %d", tc.name, z)
		}
	}
}

func TestTileIDAlwaysValid(t *testing.T) {
	ast := assert.New(t)
	positions := []Position{
		wroclawGlowny,
		NewPosition(-180, 0),
		NewPosition(180, 0),
		NewPosition(0, 89.9),
		NewPosition(0, -89.9),
		NewPosition(179.999999, -85.0511),
		NewPosition(-122.4194, 37.7749),
	}
	for z := MinZoom; z <= MaxZoom; z++ {
		zoom, _ := NewZoom(z)
		for _, p := range positions {
			id := TileIDAt(p, zoom)
			ast.True(id.Valid(), "%s at %d -> %s", p, z, id)
			ast.Less(id.X, zoom.Scale())
			ast.Less(id.Y, zoom.Scale())
		}
	}
}

func TestNeighborSymmetry(t *testing.T) {
	ast := assert.New(t)
	tile := TileID{X: 17508, Y: 11229, Zoom: 16}

	s, ok := tile.South()
	ast.True(ok)
	n, ok := s.North()
	ast.True(ok)
	ast.Equal(tile, n)

	w, ok := tile.West()
	ast.True(ok)
	e, ok := w.East()
	ast.True(ok)
	ast.Equal(tile, e)

	ast.Equal([]TileID{
		{X: 17508, Y: 11228, Zoom: 16},
		{X: 17509, Y: 11229, Zoom: 16},
		{X: 17508, Y: 11230, Zoom: 16},
		{X: 17507, Y: 11229, Zoom: 16},
	}, tile.Neighbors())
}

func TestNeighborsAtPyramidEdge(t *testing.T) {
	ast := assert.New(t)
	root := TileID{}
	ast.Empty(root.Neighbors())

	corner := TileID{X: 3, Y: 0, Zoom: 2}
	_, ok := corner.North()
	ast.False(ok)
	_, ok = corner.East()
	ast.False(ok)
	ast.Len(corner.Neighbors(), 2)
}

func TestContainment(t *testing.T) {
	ast := assert.New(t)
	tile := TileID{X: 35869, Y: 21911, Zoom: 16}
	parent := tile.Parent()
	ast.Equal(TileID{X: 17934, Y: 10955, Zoom: 15}, parent)
	ast.True(parent.Contains(tile))
	ast.False(tile.Contains(parent))
	ast.True(TileID{}.Contains(tile))
	ast.Equal(TileID{}, TileID{}.Parent())
}

func TestNewTileID(t *testing.T) {
	ast := assert.New(t)
	_, err := NewTileID(4, 0, 2)
	ast.True(errors.Is(err, ErrInvalidTile))
	id, err := NewTileID(3, 3, 2)
	ast.NoError(err)
	ast.Equal("2/3/3", id.String())
}

func TestScreenToPosition(t *testing.T) {
	ast := assert.New(t)
	zoom := NewDefaultZoom()
	size := WorldSize(zoom)
	ast.Equal(float64(256*65536), size)

	d := ScreenToPosition(orb.Point{size / 360, size / 360}, zoom)
	ast.InDelta(1.0, d.Lon(), 1e-12)
	ast.InDelta(-1.0, d.Lat(), 1e-12)

	d = ScreenToPosition(orb.Point{0, 0}, zoom)
	ast.Equal(0.0, math.Abs(d.Lon()))
	ast.Equal(0.0, math.Abs(d.Lat()))
}
