package apiv1

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/samber/do/v2"

	"github.com/willie68/go_slippymap/internal/logging"
)

// defining all sub pathes for api v1
const (
	// APIVersion the actual implemented api version
	APIVersion = "1"

	defaultWidth  = 800
	defaultHeight = 600
)

var logger = logging.New("apiv1")

// Handler a http REST interface handler
type Handler interface {
	// Routes get the routes
	Routes() (string, *chi.Mux)
}

// Handlers creates all handlers of the api v1
func Handlers(inj do.Injector) []Handler {
	return []Handler{
		NewMapHandler(inj),
		NewTilesHandler(inj),
	}
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
