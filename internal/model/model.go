package model

import (
	"fmt"
	"image"

	"github.com/willie68/go_slippymap/internal/mercator"
)

// Tile is a decoded raster tile ready to be drawn
type Tile struct {
	ID    mercator.TileID
	Image image.Image
}

// Size of the decoded image in pixels
func (t *Tile) Size() image.Point {
	if t == nil || t.Image == nil {
		return image.Point{}
	}
	return t.Image.Bounds().Size()
}

func (t *Tile) String() string {
	s := t.Size()
	return fmt.Sprintf("Tile: %s, %dx%d", t.ID.String(), s.X, s.Y)
}
