// slippytile prints the tile addressing of a position and optionally downloads the tile.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/willie68/go_slippymap/internal/config"
	"github.com/willie68/go_slippymap/internal/download"
	"github.com/willie68/go_slippymap/internal/logging"
	"github.com/willie68/go_slippymap/internal/mercator"
	"github.com/willie68/go_slippymap/internal/provider"
	"github.com/willie68/go_slippymap/internal/tiles"
	"github.com/willie68/go_slippymap/internal/utils/measurement"
	"github.com/willie68/go_slippymap/pkg/extstrgutils"
)

var (
	log         *slog.Logger
	showVersion bool
	position    string
	zoomLevel   int
	providerArg string
	mapType     string
	fetch       bool
	userAgent   string
	timeout     time.Duration
	verbose     bool
)

func init() {
	flag.BoolVarP(&showVersion, "version", "v", false, "showing the version")
	flag.StringVarP(&position, "position", "m", "17.03664,51.09916", "position as lon,lat in degrees")
	flag.IntVarP(&zoomLevel, "zoom", "z", mercator.DefaultZoom, "zoom level 0..19")
	flag.StringVarP(&providerArg, "provider", "s", "OpenStreetMap", "tile provider: OpenStreetMap, Geoportal or Google")
	flag.StringVarP(&mapType, "maptype", "t", "Standard", "google map type: Standard, Satellite, Hybrid, Roads or Terrain")
	flag.BoolVarP(&fetch, "fetch", "f", false, "download and decode the tile")
	flag.StringVarP(&userAgent, "useragent", "u", provider.DefaultUserAgent, "user agent for the download")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "download timeout")
	flag.BoolVar(&verbose, "verbose", false, "debug logging")
}

func main() {
	flag.Parse()
	if showVersion {
		fmt.Println(config.NewVersion().String())
		fmt.Println("more on https://github.com/willie68/go_slippymap")
		os.Exit(0)
	}
	level := "warn"
	if verbose {
		level = "debug"
	}
	if err := logging.Configure(logging.Config{Level: level}); err != nil {
		panic(err)
	}
	log = logging.New("slippytile")

	lon, lat, err := extstrgutils.ParseFloatPair(position)
	if err != nil {
		exitf("invalid position %q: %v", position, err)
	}
	zoom, err := mercator.NewZoom(zoomLevel)
	if err != nil {
		exitf("%v", err)
	}
	kind, err := provider.ParseKind(providerArg)
	if err != nil {
		exitf("%v", err)
	}
	mt, err := provider.ParseMapType(mapType)
	if err != nil {
		exitf("%v", err)
	}
	p, err := provider.New(kind, mt)
	if err != nil {
		exitf("%v", err)
	}

	pos := mercator.NewPosition(lon, lat)
	world := mercator.Project(pos, zoom)
	id := mercator.TileIDAt(pos, zoom)
	corner := id.PositionOnWorldBitmap()

	fmt.Printf("position:    %s\n", pos)
	fmt.Printf("zoom:        %s\n", zoom)
	fmt.Printf("tile:        %s\n", id)
	fmt.Printf("world pixel: %.6f, %.6f\n", world[0], world[1])
	fmt.Printf("offset:      %.6f, %.6f\n", world[0]-corner[0], world[1]-corner[1])
	if zoom > 0 {
		fmt.Printf("parent:      %s\n", id.Parent())
	}
	for _, n := range id.Neighbors() {
		fmt.Printf("neighbor:    %s\n", n)
	}
	fmt.Printf("url:         %s\n", p.TileURL(id))
	a := p.Attribution()
	fmt.Printf("attribution: %s (%s)\n", a.Text, a.URL)

	if !fetch {
		return
	}
	if err := fetchTile(p, id); err != nil {
		exitf("%v", err)
	}
}

// fetchTile runs the tile through cache and download worker like a map frame does
func fetchTile(p provider.Provider, id mercator.TileID) error {
	sig := download.NewSignal()
	ms := measurement.New(true)
	ts := tiles.New(p, tiles.Options{
		Download: download.Config{UserAgent: userAgent, Timeout: timeout},
		Repaint:  sig,
		Metrics:  ms,
	})
	defer ts.Close()

	deadline := time.After(timeout + time.Second)
	for {
		if t, ok := ts.LookupOrRequest(id); ok {
			s := t.Size()
			d := ms.Point(download.MetricFetch).Data()
			fmt.Printf("downloaded:  %dx%d in %d ms\n", s.X, s.Y, d.Total)
			return nil
		}
		if ms.Counter(download.MetricFailed) > 0 {
			return fmt.Errorf("download of tile %s failed, see log", id)
		}
		select {
		case <-sig.C():
		case <-time.After(50 * time.Millisecond):
		case <-deadline:
			return fmt.Errorf("no answer for tile %s", id)
		}
	}
}

func exitf(format string, args ...any) {
	log.Error(fmt.Sprintf(format, args...))
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
