package mercator

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/pkg/errors"
)

// ErrInvalidTile marks x/y coordinates outside the pyramid level
var ErrInvalidTile = errors.New("invalid tile coordinates")

// TileID addresses one tile of the pyramid.
type TileID struct {
	X    uint32
	Y    uint32
	Zoom Zoom
}

// NewTileID creates a tile id and checks the pyramid bounds
func NewTileID(x, y uint32, zoom Zoom) (TileID, error) {
	t := TileID{X: x, Y: y, Zoom: zoom}
	if !t.Valid() {
		return t, errors.Wrapf(ErrInvalidTile, "tile %s", t)
	}
	return t, nil
}

// FromMapTile converts an orb maptile, validating its zoom
func FromMapTile(t maptile.Tile) (TileID, error) {
	z, err := NewZoom(int(t.Z))
	if err != nil {
		return TileID{}, err
	}
	return NewTileID(t.X, t.Y, z)
}

// Tile returns the id as orb maptile
func (t TileID) Tile() maptile.Tile {
	return maptile.New(t.X, t.Y, maptile.Zoom(t.Zoom))
}

// Valid checks zoom and the x/y range of the level
func (t TileID) Valid() bool {
	return t.Zoom <= MaxZoom && t.Tile().Valid()
}

func (t TileID) String() string {
	return fmt.Sprintf("%d/%d/%d", t.Zoom, t.X, t.Y)
}

// North returns the tile above. ok is false on the top row.
func (t TileID) North() (TileID, bool) {
	if t.Y == 0 {
		return t, false
	}
	t.Y--
	return t, true
}

// South returns the tile below. ok is false on the bottom row.
func (t TileID) South() (TileID, bool) {
	if t.Y+1 >= t.Zoom.Scale() {
		return t, false
	}
	t.Y++
	return t, true
}

// East returns the tile to the right. ok is false on the last column.
func (t TileID) East() (TileID, bool) {
	if t.X+1 >= t.Zoom.Scale() {
		return t, false
	}
	t.X++
	return t, true
}

// West returns the tile to the left. ok is false on the first column.
func (t TileID) West() (TileID, bool) {
	if t.X == 0 {
		return t, false
	}
	t.X--
	return t, true
}

// Neighbors returns the existing neighbors in the order north, east, south, west.
func (t TileID) Neighbors() []TileID {
	ns := make([]TileID, 0, 4)
	for _, next := range []func() (TileID, bool){t.North, t.East, t.South, t.West} {
		if n, ok := next(); ok {
			ns = append(ns, n)
		}
	}
	return ns
}

// Parent returns the tile one level up containing t. Level 0 returns itself.
func (t TileID) Parent() TileID {
	p := t.Tile().Parent()
	return TileID{X: p.X, Y: p.Y, Zoom: Zoom(p.Z)}
}

// Contains reports if other lies inside t (or equals it)
func (t TileID) Contains(other TileID) bool {
	return t.Tile().Contains(other.Tile())
}

// PositionOnWorldBitmap returns the world pixel of the north west corner of the tile
func (t TileID) PositionOnWorldBitmap() orb.Point {
	return orb.Point{float64(t.X) * TileSize, float64(t.Y) * TileSize}
}

// Center returns the geographic center of the tile
func (t TileID) Center() Position {
	return Position(t.Tile().Center())
}
