package config

import (
	"fmt"
	"os"

	"github.com/samber/do/v2"
	"go.yaml.in/yaml/v3"

	"github.com/willie68/go_slippymap/configs"
	"github.com/willie68/go_slippymap/internal/download"
	"github.com/willie68/go_slippymap/internal/logging"
	"github.com/willie68/go_slippymap/internal/provider"
	"github.com/willie68/go_slippymap/internal/session"
	"github.com/willie68/go_slippymap/internal/shttp"
	"github.com/willie68/go_slippymap/internal/statestore"
	"github.com/willie68/go_slippymap/internal/tilecache"
)

type Config struct {
	Port       int               `yaml:"port"`
	Healthport int               `yaml:"healthport"`
	Metrics    bool              `yaml:"metrics"`
	Provider   provider.Config   `yaml:"provider"`
	Download   download.Config   `yaml:"download"`
	Cache      tilecache.Config  `yaml:"cache"`
	State      statestore.Config `yaml:"state"`
	Map        session.Config    `yaml:"map"`
	Logging    logging.Config    `yaml:"logging"`
}

var (
	config Config
)

// Parameter overwrites a config value from the command line
type Parameter func(c *Config)

// WithPort sets the api port, 0 keeps the configured one
func WithPort(p int) Parameter {
	return func(c *Config) {
		if p > 0 {
			c.Port = p
		}
	}
}

// WithZoom sets the start zoom, a negative value keeps the configured one
func WithZoom(z int) Parameter {
	return func(c *Config) {
		if z >= 0 {
			c.Map.Zoom = z
		}
	}
}

// WithProvider sets the active provider, empty keeps the configured one
func WithProvider(name string) Parameter {
	return func(c *Config) {
		if name != "" {
			c.Provider.Name = name
		}
	}
}

// WithMapType sets the google map type, empty keeps the configured one
func WithMapType(name string) Parameter {
	return func(c *Config) {
		if name != "" {
			c.Provider.MapType = name
		}
	}
}

// WithMyPosition sets the position the map follows
func WithMyPosition(lon, lat float64) Parameter {
	return func(c *Config) {
		c.Map.MyPosition = session.PositionConfig{Lon: lon, Lat: lat}
	}
}

func SetParameter(params ...Parameter) {
	for _, p := range params {
		p(&config)
	}
}

func Get() *Config {
	return &config
}

func Port() int {
	return config.Port
}

func JSON() string {
	js, err := config.JSON()
	if err != nil {
		return ""
	}
	return js
}

// Load loads the config, values missing in the file are taken from the default config
func Load(file string) error {
	_, err := os.Stat(file)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("can't load config file: %s", err.Error())
	}
	c, err := Parse(data)
	if err != nil {
		return err
	}
	config = c
	return nil
}

// Parse reads a yaml config on top of the default config
func Parse(data []byte) (Config, error) {
	var c Config
	if err := yaml.Unmarshal([]byte(configs.ConfigFile), &c); err != nil {
		return c, fmt.Errorf("can't unmarshal default config: %s", err.Error())
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("can't unmarshal config file: %s", err.Error())
	}
	c.Cache = c.Cache.WithDefaults()
	if c.Port <= 0 {
		c.Port = 8580
	}
	return c, nil
}

func Init(inj do.Injector) {
	do.ProvideValue(inj, &config)

	ver := NewVersion()
	do.ProvideValue(inj, *ver)
}

func (c *Config) JSON() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("can't marshal config to json: %s", err.Error())
	}
	return string(data), nil
}

func (c *Config) GetProviderConfig() provider.Config {
	return c.Provider
}

func (c *Config) GetDownloadConfig() download.Config {
	return c.Download
}

func (c *Config) GetCacheConfig() tilecache.Config {
	return c.Cache
}

func (c *Config) GetStateConfig() statestore.Config {
	return c.State
}

func (c *Config) GetMapConfig() session.Config {
	return c.Map
}

func (c *Config) GetLoggingConfig() logging.Config {
	return c.Logging
}

func (c *Config) GetMetricsActive() bool {
	return c.Metrics
}

func (c *Config) GetHTTPConfig() shttp.Config {
	return shttp.Config{Port: c.Port, Healthport: c.Healthport}
}
