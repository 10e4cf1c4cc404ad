package tiles

import (
	"bytes"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willie68/go_slippymap/internal/download"
	"github.com/willie68/go_slippymap/internal/mercator"
	"github.com/willie68/go_slippymap/internal/provider"
	"github.com/willie68/go_slippymap/internal/tilecache"
)

type rewriteTransport struct {
	target *url.URL
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.URL.Scheme = t.target.Scheme
	r.URL.Host = t.target.Host
	return http.DefaultTransport.RoundTrip(r)
}

type recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *recorder) add(req *http.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, req.URL.RequestURI())
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.paths)
}

func (r *recorder) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.paths[len(r.paths)-1]
}

func newService(t *testing.T, p provider.Provider) (*Service, *recorder, *download.Signal) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 256, 256))))
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.add(r)
		_, _ = w.Write(buf.Bytes())
	}))
	t.Cleanup(srv.Close)
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	sig := download.NewSignal()
	s := New(p, Options{
		Client:  &http.Client{Transport: &rewriteTransport{target: u}},
		Repaint: sig,
	})
	t.Cleanup(func() { _ = s.Close() })
	return s, rec, sig
}

func wroclaw(t *testing.T) mercator.TileID {
	zoom, err := mercator.NewZoom(16)
	require.NoError(t, err)
	return mercator.TileIDAt(mercator.NewPosition(17.03664, 51.09916), zoom)
}

func TestServiceLoadsTile(t *testing.T) {
	ast := assert.New(t)
	p, err := provider.New(provider.OpenStreetMap, provider.Standard)
	require.NoError(t, err)
	s, rec, sig := newService(t, p)

	id := wroclaw(t)
	_, ok := s.LookupOrRequest(id)
	ast.False(ok)
	ast.Equal(tilecache.StateOutstanding, s.State(id))

	ast.Eventually(func() bool {
		_, ok := s.LookupOrRequest(id)
		return ok
	}, 5*time.Second, 5*time.Millisecond)
	ast.Equal(1, rec.count())
	ast.Equal("/16/35869/21911.png", rec.last())
	ast.Equal(uint64(1), sig.Generation())
	cached, pending := s.Stats()
	ast.Equal(1, cached)
	ast.Equal(0, pending)
	ast.Equal("OpenStreetMap contributors", s.Attribution().Text)
}

func TestSetProviderDropsCache(t *testing.T) {
	ast := assert.New(t)
	p, err := provider.New(provider.OpenStreetMap, provider.Standard)
	require.NoError(t, err)
	s, rec, _ := newService(t, p)

	id := wroclaw(t)
	s.LookupOrRequest(id)
	ast.Eventually(func() bool {
		_, ok := s.LookupOrRequest(id)
		return ok
	}, 5*time.Second, 5*time.Millisecond)

	ast.NoError(s.SetProvider(provider.Google, provider.Hybrid))
	ast.Equal(provider.Selection{Kind: provider.Google, MapType: provider.Hybrid}, s.Selection())
	cached, _ := s.Stats()
	ast.Equal(0, cached)

	_, ok := s.LookupOrRequest(id)
	ast.False(ok)
	ast.Eventually(func() bool {
		_, ok := s.LookupOrRequest(id)
		return ok
	}, 5*time.Second, 5*time.Millisecond)
	ast.Equal(2, rec.count())
	ast.Equal("/vt/lyrs=y&x=35869&y=21911&z=16", rec.last())

	ast.Error(s.SetProvider(provider.Kind(42), provider.Standard))
	ast.Equal(provider.Google, s.Provider().Kind())
}
