package apiv1

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/samber/do/v2"

	"github.com/willie68/go_slippymap/internal/mercator"
	"github.com/willie68/go_slippymap/internal/session"
	"github.com/willie68/go_slippymap/internal/tilecache"
	"github.com/willie68/go_slippymap/internal/utils/measurement"
)

// TilesHandler serves single tiles of the active provider from the session cache
type TilesHandler struct {
	log     *slog.Logger
	session *session.Session
	metrics *measurement.Service
}

func NewTilesHandler(inj do.Injector) *TilesHandler {
	return &TilesHandler{
		log:     logger.With("handler", "tiles"),
		session: do.MustInvoke[*session.Session](inj),
		metrics: do.MustInvoke[*measurement.Service](inj),
	}
}

func (h *TilesHandler) Routes() (string, *chi.Mux) {
	router := chi.NewRouter()
	router.Get("/{z}/{x}/{y}.png", h.GetTile)
	return "/tiles", router
}

func (h *TilesHandler) GetTile(w http.ResponseWriter, r *http.Request) {
	td := h.metrics.Start("getTile")
	defer td.Stop()

	id, err := h.getRequestParameter(r)
	if err != nil {
		http.Error(w, fmt.Sprintf("Path error: %s", err.Error()), http.StatusBadRequest)
		return
	}

	tile, state := h.session.Tile(id)
	if tile != nil {
		writePNG(w, h.log, tile.Image)
		return
	}
	w.Header().Set("Retry-After", "1")
	switch state {
	case tilecache.StateOutstanding:
		render.Status(r, http.StatusAccepted)
		render.JSON(w, r, map[string]string{"tile": id.String(), "status": state.String()})
	case tilecache.StateCoolingDown:
		http.Error(w, "tile download failed, retry later", http.StatusServiceUnavailable)
	default:
		http.Error(w, "tile queue is full, retry later", http.StatusServiceUnavailable)
	}
}

func (h *TilesHandler) getRequestParameter(r *http.Request) (mercator.TileID, error) {
	zs := chi.URLParam(r, "z")
	xs := chi.URLParam(r, "x")
	ys := chi.URLParam(r, "y")

	z, err := strconv.Atoi(zs)
	if err != nil {
		return mercator.TileID{}, errors.New("error in zoom level")
	}
	zoom, err := mercator.NewZoom(z)
	if err != nil {
		return mercator.TileID{}, err
	}
	x, err := strconv.ParseUint(xs, 10, 32)
	if err != nil {
		return mercator.TileID{}, errors.New("error in x axis")
	}
	ys = strings.TrimSuffix(ys, filepath.Ext(ys))
	y, err := strconv.ParseUint(ys, 10, 32)
	if err != nil {
		return mercator.TileID{}, errors.New("error in y axis")
	}
	return mercator.NewTileID(uint32(x), uint32(y), zoom)
}
