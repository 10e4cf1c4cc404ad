package session

import (
	"github.com/willie68/go_slippymap/internal/mercator"
	"github.com/willie68/go_slippymap/internal/provider"
)

// PositionView is a position in json
type PositionView struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

func newPositionView(p mercator.Position) PositionView {
	return PositionView{Lon: p.Lon(), Lat: p.Lat()}
}

// View is the state of the map
type View struct {
	Center      PositionView         `json:"center"`
	MyPosition  PositionView         `json:"myPosition"`
	Detached    bool                 `json:"detached"`
	Zoom        int                  `json:"zoom"`
	Provider    string               `json:"provider"`
	MapType     string               `json:"mapType"`
	Attribution provider.Attribution `json:"attribution"`
	Repaint     uint64               `json:"repaint"`
	Cached      int                  `json:"cached"`
	Pending     int                  `json:"pending"`
}

// PlacementView is one drawn tile, screen coordinates in pixel
type PlacementView struct {
	Tile   string  `json:"tile"`
	Z      int     `json:"z"`
	X      uint32  `json:"x"`
	Y      uint32  `json:"y"`
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// FrameView is the result of one frame
type FrameView struct {
	Width       int                  `json:"width"`
	Height      int                  `json:"height"`
	Center      PositionView         `json:"center"`
	Zoom        int                  `json:"zoom"`
	Tiles       []PlacementView      `json:"tiles"`
	Missing     []string             `json:"missing"`
	Culled      int                  `json:"culled"`
	Attribution provider.Attribution `json:"attribution"`
	Repaint     uint64               `json:"repaint"`
}
