package provider

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/samber/do/v2"
	"github.com/willie68/go_slippymap/internal/logging"
)

// DefaultUserAgent identifies this application against the tile servers
const DefaultUserAgent = "go_slippymap/0.1"

// Config selects the active provider
type Config struct {
	Name    string            `yaml:"name"`    // OpenStreetMap, Geoportal, Google
	MapType string            `yaml:"maptype"` // Standard, Satellite, Hybrid, Roads, Terrain
	Headers map[string]string `yaml:"headers"`
}

// Selection is the parsed provider config
type Selection struct {
	Kind    Kind
	MapType MapType
}

// Parse validates the configured names
func (c Config) Parse() (Selection, error) {
	name := c.Name
	if name == "" {
		name = OpenStreetMap.String()
	}
	k, err := ParseKind(name)
	if err != nil {
		return Selection{}, err
	}
	m, err := ParseMapType(c.MapType)
	if err != nil {
		return Selection{}, err
	}
	return Selection{Kind: k, MapType: m}, nil
}

type pFactory struct {
	log      *slog.Logger
	config   Config
	active   Selection
	services []string
}

type providerConfig interface {
	GetProviderConfig() Config
}

// Init registers every provider kind as named service and the factory itself.
// The google provider is registered with the configured map type.
func Init(inj do.Injector) {
	cfg := do.MustInvokeAs[providerConfig](inj).GetProviderConfig()
	active, err := cfg.Parse()
	if err != nil {
		panic(fmt.Sprintf("invalid provider config: %v", err))
	}
	pf := &pFactory{
		log:      logging.New("provider"),
		config:   cfg,
		active:   active,
		services: make([]string, 0),
	}
	for _, k := range Kinds() {
		p, err := New(k, active.MapType)
		if err != nil {
			panic(fmt.Sprintf("can't create provider %s: %v", k, err))
		}
		do.ProvideNamedValue(inj, k.String(), p)
		pf.services = append(pf.services, k.String())
	}
	pf.log.Info("providers registered", "providers", pf.services, "active", active.Kind.String(), "maptype", active.MapType.String())
	do.ProvideValue(inj, pf)
}

// Active returns the configured provider selection
func (f *pFactory) Active() Selection {
	return f.active
}

// Headers returns the additional request headers of the config
func (f *pFactory) Headers() map[string]string {
	return f.config.Headers
}

// HasProvider checks if a provider with this name is registered
func (f *pFactory) HasProvider(providerName string) bool {
	_, err := ParseKind(providerName)
	return err == nil
}

// SetDefaultHeaders sets the identifying user agent plus extra headers on a tile request
func SetDefaultHeaders(req *http.Request, userAgent string, headers map[string]string) {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "image/png,image/jpeg,image/webp,image/*;q=0.8,*/*;q=0.5")
	for key, value := range headers {
		req.Header.Set(key, value)
	}
}
