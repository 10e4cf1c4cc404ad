package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	ast := assert.New(t)
	c, err := Parse([]byte{})
	ast.NoError(err)
	ast.Equal(8580, c.Port)
	ast.Equal(8581, c.Healthport)
	ast.Equal("OpenStreetMap", c.Provider.Name)
	ast.Equal(16, c.Map.Zoom)
	ast.Equal(17.03664, c.Map.MyPosition.Lon)
	ast.Equal(128, c.Cache.RequestQueue)
	ast.Equal(30*time.Second, c.Cache.RetryAfter)
	ast.Equal(time.Duration(0), c.Download.Timeout)
	ast.Equal("info", c.Logging.Level)
	ast.False(c.State.Active)
}

func TestParseOverrides(t *testing.T) {
	ast := assert.New(t)
	c, err := Parse([]byte(`
port: 9000
provider:
  name: Google
  maptype: Terrain
  headers:
    Referer: https://example.org/
download:
  timeout: 5s
cache:
  requestqueue: 16
`))
	ast.NoError(err)
	ast.Equal(9000, c.Port)
	ast.Equal("Google", c.GetProviderConfig().Name)
	ast.Equal("Terrain", c.GetProviderConfig().MapType)
	ast.Equal("https://example.org/", c.GetProviderConfig().Headers["Referer"])
	ast.Equal(5*time.Second, c.GetDownloadConfig().Timeout)
	ast.Equal(16, c.GetCacheConfig().RequestQueue)
	ast.Equal(32, c.GetCacheConfig().ResponseQueue)
	ast.Equal(9000, c.GetHTTPConfig().Port)
}

func TestParseError(t *testing.T) {
	ast := assert.New(t)
	_, err := Parse([]byte("port: [1, 2"))
	ast.Error(err)
}

func TestLoadAndParameter(t *testing.T) {
	ast := assert.New(t)
	fn := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(fn, []byte("port: 8000\nmap:\n  zoom: 10\n"), 0o644))

	ast.Error(Load(filepath.Join(t.TempDir(), "missing.yaml")))
	ast.NoError(Load(fn))
	ast.Equal(8000, Port())

	SetParameter(WithPort(0), WithZoom(-1), WithProvider(""), WithMapType(""))
	ast.Equal(8000, Port())
	ast.Equal(10, Get().Map.Zoom)
	ast.Equal("OpenStreetMap", Get().Provider.Name)

	SetParameter(WithPort(8100), WithZoom(0), WithProvider("geoportal"), WithMyPosition(21.01, 52.23))
	ast.Equal(8100, Port())
	ast.Equal(0, Get().GetMapConfig().Zoom)
	ast.Equal("geoportal", Get().Provider.Name)
	ast.Equal(52.23, Get().GetMapConfig().MyPosition.Lat)
	ast.Contains(JSON(), "port: 8100")
}

func TestVersion(t *testing.T) {
	ast := assert.New(t)
	v := NewVersion()
	ast.Equal(version, v.Version)
	ast.Contains(v.String(), "go_slippymap "+version)
}
