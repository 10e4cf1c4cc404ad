package apiv1

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willie68/go_slippymap/internal/mercator"
	"github.com/willie68/go_slippymap/internal/model"
	"github.com/willie68/go_slippymap/internal/provider"
	"github.com/willie68/go_slippymap/internal/session"
	"github.com/willie68/go_slippymap/internal/tilecache"
	"github.com/willie68/go_slippymap/internal/tiles"
	"github.com/willie68/go_slippymap/internal/utils/measurement"
)

type fakeTiles struct {
	sel       provider.Selection
	cached    map[mercator.TileID]bool
	requested map[mercator.TileID]bool
	full      bool
}

func (f *fakeTiles) LookupOrRequest(id mercator.TileID) (*model.Tile, bool) {
	if f.cached[id] {
		return &model.Tile{ID: id, Image: image.NewRGBA(image.Rect(0, 0, 256, 256))}, true
	}
	if !f.full {
		f.requested[id] = true
	}
	return nil, false
}

func (f *fakeTiles) State(id mercator.TileID) tilecache.RequestState {
	if f.requested[id] {
		return tilecache.StateOutstanding
	}
	return tilecache.StateNone
}

func (f *fakeTiles) Attribution() provider.Attribution {
	p, _ := provider.New(f.sel.Kind, f.sel.MapType)
	return p.Attribution()
}

func (f *fakeTiles) Selection() provider.Selection { return f.sel }

func (f *fakeTiles) SetProvider(kind provider.Kind, mapType provider.MapType) error {
	if _, err := provider.New(kind, mapType); err != nil {
		return err
	}
	f.sel = provider.Selection{Kind: kind, MapType: mapType}
	return nil
}

func (f *fakeTiles) Stats() (int, int) { return len(f.cached), len(f.requested) }

func newRouter(t *testing.T) (*chi.Mux, *fakeTiles) {
	ft := &fakeTiles{
		cached:    make(map[mercator.TileID]bool),
		requested: make(map[mercator.TileID]bool),
	}
	return routerFor(t, ft), ft
}

func routerFor(t *testing.T, ts session.TileService) *chi.Mux {
	inj := do.New()
	do.ProvideValue(inj, measurement.New(true))
	s := session.New(ts, nil, nil, nil, session.Config{Zoom: 16, MyPosition: session.PositionConfig{Lon: 17.03664, Lat: 51.09916}})
	do.ProvideValue(inj, s)

	router := chi.NewRouter()
	for _, h := range Handlers(inj) {
		path, sub := h.Routes()
		router.Mount(path, sub)
	}
	return router
}

func call(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) session.View {
	var v session.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestGetState(t *testing.T) {
	ast := assert.New(t)
	router, _ := newRouter(t)

	rec := call(router, http.MethodGet, "/map/", "")
	ast.Equal(http.StatusOK, rec.Code)
	v := decodeView(t, rec)
	ast.Equal(16, v.Zoom)
	ast.Equal("OpenStreetMap", v.Provider)
	ast.False(v.Detached)
}

func TestZoomEndpoints(t *testing.T) {
	ast := assert.New(t)
	router, _ := newRouter(t)

	rec := call(router, http.MethodPost, "/map/zoom/in", "")
	ast.Equal(http.StatusOK, rec.Code)
	ast.Equal(17, decodeView(t, rec).Zoom)

	rec = call(router, http.MethodPut, "/map/zoom", `{"zoom": 19}`)
	ast.Equal(http.StatusOK, rec.Code)

	rec = call(router, http.MethodPost, "/map/zoom/in", "")
	ast.Equal(http.StatusBadRequest, rec.Code)
	ast.Contains(rec.Body.String(), "invalid zoom level")

	rec = call(router, http.MethodPut, "/map/zoom", `{"zoom": 20}`)
	ast.Equal(http.StatusBadRequest, rec.Code)

	rec = call(router, http.MethodGet, "/map/", "")
	ast.Equal(19, decodeView(t, rec).Zoom)
}

func TestDragAndRecenterEndpoints(t *testing.T) {
	ast := assert.New(t)
	router, _ := newRouter(t)

	rec := call(router, http.MethodPost, "/map/drag", `{"button": "primary", "dx": 10, "dy": 0}`)
	ast.Equal(http.StatusOK, rec.Code)
	v := decodeView(t, rec)
	ast.True(v.Detached)
	ast.Equal(17.03664, v.Center.Lon)

	rec = call(router, http.MethodPost, "/map/drag", `{"dx": 10, "dy": 0}`)
	ast.Less(decodeView(t, rec).Center.Lon, 17.03664)

	rec = call(router, http.MethodPost, "/map/drag", `{"button": "left"}`)
	ast.Equal(http.StatusBadRequest, rec.Code)

	rec = call(router, http.MethodPost, "/map/recenter", "")
	ast.Equal(http.StatusOK, rec.Code)
	ast.False(decodeView(t, rec).Detached)
}

func TestPositionEndpoint(t *testing.T) {
	ast := assert.New(t)
	router, _ := newRouter(t)

	rec := call(router, http.MethodPut, "/map/position", `{"lon": 21.01, "lat": 52.23}`)
	ast.Equal(http.StatusOK, rec.Code)
	ast.Equal(session.PositionView{Lon: 21.01, Lat: 52.23}, decodeView(t, rec).Center)

	rec = call(router, http.MethodPut, "/map/position", `{"lon": 200, "lat": 0}`)
	ast.Equal(http.StatusBadRequest, rec.Code)

	rec = call(router, http.MethodPut, "/map/position", `not json`)
	ast.Equal(http.StatusBadRequest, rec.Code)
}

func TestProviderEndpoints(t *testing.T) {
	ast := assert.New(t)
	router, _ := newRouter(t)

	rec := call(router, http.MethodPut, "/map/provider", `{"provider": "google", "maptype": "hybrid"}`)
	ast.Equal(http.StatusOK, rec.Code)
	v := decodeView(t, rec)
	ast.Equal("Google", v.Provider)
	ast.Equal("Hybrid", v.MapType)

	rec = call(router, http.MethodGet, "/map/attribution", "")
	ast.Equal(http.StatusOK, rec.Code)
	var a provider.Attribution
	ast.NoError(json.Unmarshal(rec.Body.Bytes(), &a))
	ast.Equal("Google Maps", a.Text)

	rec = call(router, http.MethodPut, "/map/provider", `{"provider": "bing"}`)
	ast.Equal(http.StatusBadRequest, rec.Code)
	rec = call(router, http.MethodPut, "/map/provider", `{"provider": "google", "maptype": "night"}`)
	ast.Equal(http.StatusBadRequest, rec.Code)
}

func TestFrameEndpoints(t *testing.T) {
	ast := assert.New(t)
	router, ft := newRouter(t)
	zoom, _ := mercator.NewZoom(16)
	center := mercator.TileIDAt(mercator.NewPosition(17.03664, 51.09916), zoom)

	rec := call(router, http.MethodGet, "/map/frame?width=512&height=512", "")
	ast.Equal(http.StatusOK, rec.Code)
	var fv session.FrameView
	ast.NoError(json.Unmarshal(rec.Body.Bytes(), &fv))
	ast.Equal([]string{"16/35869/21911"}, fv.Missing)
	ast.True(ft.requested[center])

	ft.cached[center] = true
	rec = call(router, http.MethodGet, "/map/frame.png?width=300&height=200", "")
	ast.Equal(http.StatusOK, rec.Code)
	ast.Equal("image/png", rec.Header().Get("Content-Type"))
	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	ast.NoError(err)
	ast.Equal(image.Rect(0, 0, 300, 200), img.Bounds())

	rec = call(router, http.MethodGet, "/map/frame?width=abc", "")
	ast.Equal(http.StatusBadRequest, rec.Code)
	rec = call(router, http.MethodGet, "/map/frame.png?width=0", "")
	ast.Equal(http.StatusBadRequest, rec.Code)
}

func TestTileEndpoint(t *testing.T) {
	ast := assert.New(t)
	router, ft := newRouter(t)

	rec := call(router, http.MethodGet, "/tiles/16/35869/21911.png", "")
	ast.Equal(http.StatusAccepted, rec.Code)
	ast.Contains(rec.Body.String(), "pending")

	zoom, _ := mercator.NewZoom(16)
	ft.cached[mercator.TileID{X: 35869, Y: 21911, Zoom: zoom}] = true
	rec = call(router, http.MethodGet, "/tiles/16/35869/21911.png", "")
	ast.Equal(http.StatusOK, rec.Code)
	ast.Equal("image/png", rec.Header().Get("Content-Type"))

	ft.full = true
	rec = call(router, http.MethodGet, "/tiles/2/1/1.png", "")
	ast.Equal(http.StatusServiceUnavailable, rec.Code)

	tt := []string{
		"/tiles/20/0/0.png",
		"/tiles/2/4/0.png",
		"/tiles/2/0/4.png",
		"/tiles/a/0/0.png",
		"/tiles/2/-1/0.png",
	}
	for _, path := range tt {
		rec = call(router, http.MethodGet, path, "")
		ast.Equal(http.StatusBadRequest, rec.Code, path)
	}
}

// notFound answers every tile download with 404
type notFound struct{}

func (notFound) RoundTrip(req *http.Request) (*http.Response, error) {
	return &http.Response{
		StatusCode: http.StatusNotFound,
		Status:     "404 Not Found",
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader("")),
		Request:    req,
	}, nil
}

func TestTileEndpointAfterFailedDownload(t *testing.T) {
	ast := assert.New(t)
	p, err := provider.New(provider.OpenStreetMap, provider.Standard)
	require.NoError(t, err)
	ts := tiles.New(p, tiles.Options{
		Client: &http.Client{Transport: notFound{}},
		Cache:  tilecache.Config{RetryAfter: time.Hour},
	})
	t.Cleanup(func() { _ = ts.Close() })
	router := routerFor(t, ts)

	rec := call(router, http.MethodGet, "/tiles/3/1/2.png", "")
	ast.Equal(http.StatusAccepted, rec.Code)

	// once the failure arrived the tile cools down instead of looking pending
	ast.Eventually(func() bool {
		return call(router, http.MethodGet, "/tiles/3/1/2.png", "").Code == http.StatusServiceUnavailable
	}, 5*time.Second, 10*time.Millisecond)
	rec = call(router, http.MethodGet, "/tiles/3/1/2.png", "")
	ast.Equal(http.StatusServiceUnavailable, rec.Code)
	ast.Contains(rec.Body.String(), "download failed")
	ast.NotEmpty(rec.Header().Get("Retry-After"))
}
