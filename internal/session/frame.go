package session

import (
	"image"
	"image/color"
	"math"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"golang.org/x/image/draw"

	"github.com/willie68/go_slippymap/internal/mercator"
	"github.com/willie68/go_slippymap/internal/walker"
)

const (
	MetricFrame  = "frame"
	MetricRender = "render"
)

var background = color.RGBA{R: 0xe0, G: 0xe0, B: 0xe0, A: 0xff}

func checkViewport(width, height int) error {
	if width <= 0 || height <= 0 || width > MaxViewport || height > MaxViewport {
		return errors.Wrapf(ErrInvalidViewport, "%dx%d", width, height)
	}
	return nil
}

// walk runs the walker over a viewport, must be called with the lock held
func (s *Session) walk(width, height int) (walker.Frame, mercator.Position) {
	tm := s.metrics.Start(MetricFrame)
	defer tm.Stop()
	clip := orb.Bound{Max: orb.Point{float64(width), float64(height)}}
	center := s.memory.Center.Position(s.my)
	return s.walker.Walk(s.tiles, clip, center, s.memory.Zoom), center
}

// Frame runs one frame and returns where the tiles go
func (s *Session) Frame(width, height int) (FrameView, error) {
	if err := checkViewport(width, height); err != nil {
		return FrameView{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, center := s.walk(width, height)
	fv := FrameView{
		Width:       width,
		Height:      height,
		Center:      newPositionView(center),
		Zoom:        s.memory.Zoom.Int(),
		Tiles:       make([]PlacementView, 0, len(f.Tiles)),
		Missing:     make([]string, 0, len(f.Missing)),
		Culled:      f.Culled,
		Attribution: s.tiles.Attribution(),
		Repaint:     s.signal.Generation(),
	}
	for _, p := range f.Tiles {
		fv.Tiles = append(fv.Tiles, PlacementView{
			Tile:   p.ID.String(),
			Z:      p.ID.Zoom.Int(),
			X:      p.ID.X,
			Y:      p.ID.Y,
			Left:   p.Rect.Min[0],
			Top:    p.Rect.Min[1],
			Right:  p.Rect.Max[0],
			Bottom: p.Rect.Max[1],
		})
	}
	for _, id := range f.Missing {
		fv.Missing = append(fv.Missing, id.String())
	}
	return fv, nil
}

// Render runs one frame and draws it. Missing tiles stay background.
func (s *Session) Render(width, height int) (image.Image, error) {
	if err := checkViewport(width, height); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, _ := s.walk(width, height)

	tm := s.metrics.Start(MetricRender)
	defer tm.Stop()
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)
	for _, p := range f.Tiles {
		if p.Tile == nil || p.Tile.Image == nil {
			continue
		}
		x := int(math.Round(p.Rect.Min[0]))
		y := int(math.Round(p.Rect.Min[1]))
		r := image.Rect(x, y, x+mercator.TileSize, y+mercator.TileSize)
		src := p.Tile.Image
		if src.Bounds().Dx() == mercator.TileSize && src.Bounds().Dy() == mercator.TileSize {
			draw.Draw(dst, r, src, src.Bounds().Min, draw.Over)
			continue
		}
		draw.ApproxBiLinear.Scale(dst, r, src, src.Bounds(), draw.Over, nil)
	}
	return dst, nil
}
