package provider

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/willie68/go_slippymap/internal/mercator"
)

// Provider produces fetch urls and the attribution of one tile source. The set of
// providers is closed: OpenStreetMap, Geoportal and Google.
type Provider interface {
	TileURL(tile mercator.TileID) string
	Attribution() Attribution
	Kind() Kind
	sealed()
}

// Attribution is the credit a tile source requires to be displayed
type Attribution struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// Kind selects one of the supported tile sources
type Kind int

const (
	OpenStreetMap Kind = iota
	Geoportal
	Google
)

// MapType selects the google map layer
type MapType int

const (
	Standard MapType = iota
	Satellite
	Hybrid
	Roads
	Terrain
)

var (
	ErrUnknownProvider = errors.New("unknown provider")
	ErrUnknownMapType  = errors.New("unknown map type")

	kindNames    = []string{"OpenStreetMap", "Geoportal", "Google"}
	mapTypeNames = []string{"Standard", "Satellite", "Hybrid", "Roads", "Terrain"}
)

// Kinds lists all providers
func Kinds() []Kind {
	return []Kind{OpenStreetMap, Geoportal, Google}
}

// MapTypes lists all google map types
func MapTypes() []MapType {
	return []MapType{Standard, Satellite, Hybrid, Roads, Terrain}
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

func (m MapType) String() string {
	if m < 0 || int(m) >= len(mapTypeNames) {
		return fmt.Sprintf("MapType(%d)", int(m))
	}
	return mapTypeNames[m]
}

// ParseKind parses a provider name, case insensitive. "osm" is accepted as short form.
func ParseKind(name string) (Kind, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "osm" {
		return OpenStreetMap, nil
	}
	for i, kn := range kindNames {
		if strings.ToLower(kn) == n {
			return Kind(i), nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownProvider, "%q", name)
}

// ParseMapType parses a map type name, case insensitive. An empty name is Standard.
func ParseMapType(name string) (MapType, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return Standard, nil
	}
	// accepted misspelling
	if n == "standart" {
		return Standard, nil
	}
	for i, mn := range mapTypeNames {
		if strings.ToLower(mn) == n {
			return MapType(i), nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownMapType, "%q", name)
}

// New creates the provider of the given kind. The map type is only used by Google.
func New(kind Kind, mapType MapType) (Provider, error) {
	switch kind {
	case OpenStreetMap:
		return &openStreetMap{}, nil
	case Geoportal:
		return &geoportal{}, nil
	case Google:
		return NewGoogle(mapType)
	default:
		return nil, errors.Wrapf(ErrUnknownProvider, "kind %d", int(kind))
	}
}

// <https://www.openstreetmap.org/about>
type openStreetMap struct{}

func (p *openStreetMap) TileURL(tile mercator.TileID) string {
	return fmt.Sprintf("https://tile.openstreetmap.org/%d/%d/%d.png", tile.Zoom, tile.X, tile.Y)
}

func (p *openStreetMap) Attribution() Attribution {
	return Attribution{
		Text: "OpenStreetMap contributors",
		URL:  "https://www.openstreetmap.org/copyright",
	}
}

func (p *openStreetMap) Kind() Kind { return OpenStreetMap }
func (p *openStreetMap) sealed()    {}

// Orthophotomap layer of Poland's Geoportal, served as WMTS. Row is y, column is x.
// <https://www.geoportal.gov.pl/uslugi/usluga-przegladania-wms>
type geoportal struct{}

const geoportalURL = "https://mapy.geoportal.gov.pl/wss/service/PZGIK/ORTO/WMTS/StandardResolution?" +
	"&SERVICE=WMTS" +
	"&REQUEST=GetTile" +
	"&VERSION=1.0.0" +
	"&LAYER=ORTOFOTOMAPA" +
	"&TILEMATRIXSET=EPSG:3857" +
	"&TILEMATRIX=EPSG:3857:%d" +
	"&TILEROW=%d" +
	"&TILECOL=%d"

func (p *geoportal) TileURL(tile mercator.TileID) string {
	return fmt.Sprintf(geoportalURL, tile.Zoom, tile.Y, tile.X)
}

func (p *geoportal) Attribution() Attribution {
	return Attribution{
		Text: "Główny Urząd Geodezji i Kartografii",
		URL:  "https://www.geoportal.gov.pl/",
	}
}

func (p *geoportal) Kind() Kind { return Geoportal }
func (p *geoportal) sealed()    {}

type google struct {
	mapType MapType
	layer   byte
}

// NewGoogle creates a google provider, the layer letter is fixed by the map type
func NewGoogle(mapType MapType) (Provider, error) {
	var l byte
	switch mapType {
	case Standard:
		l = 'm'
	case Satellite:
		l = 's'
	case Hybrid:
		l = 'y'
	case Roads:
		l = 'h'
	case Terrain:
		l = 'p'
	default:
		return nil, errors.Wrapf(ErrUnknownMapType, "map type %d", int(mapType))
	}
	return &google{mapType: mapType, layer: l}, nil
}

func (p *google) TileURL(tile mercator.TileID) string {
	return fmt.Sprintf("http://mt1.google.com/vt/lyrs=%c&x=%d&y=%d&z=%d", p.layer, tile.X, tile.Y, tile.Zoom)
}

func (p *google) Attribution() Attribution {
	return Attribution{
		Text: "Google Maps",
		URL:  "https://www.google.com/maps/",
	}
}

// Layer returns the lyrs letter of the url
func (p *google) Layer() string {
	return string(p.layer)
}

// MapType returns the map type the provider was created with
func (p *google) MapType() MapType {
	return p.mapType
}

func (p *google) Kind() Kind { return Google }
func (p *google) sealed()    {}
