// Package walker finds the tiles covering a viewport, starting at the tile below
// the map center and flooding out to the neighbors as long as they are visible.
package walker

import (
	"github.com/paulmach/orb"

	"github.com/willie68/go_slippymap/internal/mercator"
	"github.com/willie68/go_slippymap/internal/model"
)

// TileSource delivers cached tiles and requests missing ones
type TileSource interface {
	LookupOrRequest(id mercator.TileID) (*model.Tile, bool)
}

// Placement is one tile to draw, Rect in screen coordinates
type Placement struct {
	ID   mercator.TileID
	Rect orb.Bound
	Tile *model.Tile
}

// Frame is the result of one walk
type Frame struct {
	Tiles   []Placement
	Missing []mercator.TileID
	Culled  int
}

// Walker keeps its buffers between frames. Not safe for concurrent use.
type Walker struct {
	visited map[mercator.TileID]struct{}
	stack   []mercator.TileID
}

func New() *Walker {
	return &Walker{
		visited: make(map[mercator.TileID]struct{}),
		stack:   make([]mercator.TileID, 0, 64),
	}
}

// Walk collects the tiles intersecting clip. A tile outside of clip ends the walk in
// that direction, a missing tile too: its neighbors are only reached over other tiles.
func (w *Walker) Walk(src TileSource, clip orb.Bound, center mercator.Position, zoom mercator.Zoom) Frame {
	clear(w.visited)
	w.stack = w.stack[:0]

	var f Frame
	centerWorld := mercator.Project(center, zoom)
	origin := clip.Center()

	start := mercator.TileIDAt(center, zoom)
	w.visited[start] = struct{}{}
	w.stack = append(w.stack, start)

	for len(w.stack) > 0 {
		id := w.stack[len(w.stack)-1]
		w.stack = w.stack[:len(w.stack)-1]

		rect := ScreenRect(id, centerWorld, origin)
		if !overlaps(rect, clip) {
			f.Culled++
			continue
		}
		tile, ok := src.LookupOrRequest(id)
		if !ok {
			f.Missing = append(f.Missing, id)
			continue
		}
		f.Tiles = append(f.Tiles, Placement{ID: id, Rect: rect, Tile: tile})

		for _, n := range id.Neighbors() {
			if _, seen := w.visited[n]; seen {
				continue
			}
			w.visited[n] = struct{}{}
			w.stack = append(w.stack, n)
		}
	}
	return f
}

// overlaps is true if a and b share an area, touching edges don't count
func overlaps(a, b orb.Bound) bool {
	return a.Min[0] < b.Max[0] && b.Min[0] < a.Max[0] &&
		a.Min[1] < b.Max[1] && b.Min[1] < a.Max[1]
}

// ScreenRect places a tile on the screen, origin is the screen point of the map center
func ScreenRect(id mercator.TileID, centerWorld, origin orb.Point) orb.Bound {
	tw := id.PositionOnWorldBitmap()
	tl := orb.Point{
		origin[0] + tw[0] - centerWorld[0],
		origin[1] + tw[1] - centerWorld[1],
	}
	return orb.Bound{
		Min: tl,
		Max: orb.Point{tl[0] + mercator.TileSize, tl[1] + mercator.TileSize},
	}
}
