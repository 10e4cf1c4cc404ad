package internal

import (
	"github.com/samber/do/v2"

	"github.com/willie68/go_slippymap/internal/config"
	"github.com/willie68/go_slippymap/internal/download"
	"github.com/willie68/go_slippymap/internal/logging"
	"github.com/willie68/go_slippymap/internal/provider"
	"github.com/willie68/go_slippymap/internal/session"
	"github.com/willie68/go_slippymap/internal/shttp"
	"github.com/willie68/go_slippymap/internal/statestore"
	"github.com/willie68/go_slippymap/internal/tiles"
	"github.com/willie68/go_slippymap/internal/utils/measurement"
)

// Init wires all services of the map server, the config must be loaded before
func Init(inj do.Injector) {
	config.Init(inj)
	logging.Init(inj)
	measurement.Init(inj)
	do.ProvideValue(inj, download.NewSignal())
	provider.Init(inj)
	statestore.Init(inj)
	tiles.Init(inj)
	session.Init(inj)
	shttp.Init(inj)
}

// Stop shuts down the tile pipeline and the state store
func Stop(inj do.Injector) {
	report := inj.Shutdown()
	if report != nil && !report.Succeed {
		logging.New("internal").Error("error on shutdown", "error", report.Error())
	}
	logging.Close()
}
