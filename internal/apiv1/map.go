package apiv1

import (
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"github.com/samber/do/v2"

	"github.com/willie68/go_slippymap/internal/mapmemory"
	"github.com/willie68/go_slippymap/internal/mercator"
	"github.com/willie68/go_slippymap/internal/provider"
	"github.com/willie68/go_slippymap/internal/session"
)

// MapHandler controls the map instance
type MapHandler struct {
	log     *slog.Logger
	session *session.Session
}

type positionRequest struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

type dragRequest struct {
	Button string  `json:"button"`
	DX     float64 `json:"dx"`
	DY     float64 `json:"dy"`
}

type zoomRequest struct {
	Zoom int `json:"zoom"`
}

type providerRequest struct {
	Provider string `json:"provider"`
	MapType  string `json:"maptype"`
}

func NewMapHandler(inj do.Injector) *MapHandler {
	return &MapHandler{
		log:     logger.With("handler", "map"),
		session: do.MustInvoke[*session.Session](inj),
	}
}

func (h *MapHandler) Routes() (string, *chi.Mux) {
	router := chi.NewRouter()
	router.Get("/", h.GetState)
	router.Put("/position", h.PutPosition)
	router.Post("/drag", h.PostDrag)
	router.Post("/recenter", h.PostRecenter)
	router.Post("/zoom/in", h.PostZoomIn)
	router.Post("/zoom/out", h.PostZoomOut)
	router.Put("/zoom", h.PutZoom)
	router.Put("/provider", h.PutProvider)
	router.Get("/attribution", h.GetAttribution)
	router.Get("/frame", h.GetFrame)
	router.Get("/frame.png", h.GetFramePNG)
	return "/map", router
}

func (h *MapHandler) GetState(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.session.State())
}

func (h *MapHandler) PutPosition(w http.ResponseWriter, r *http.Request) {
	var req positionRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		http.Error(w, fmt.Sprintf("Body error: %s", err.Error()), http.StatusBadRequest)
		return
	}
	if req.Lon < -180 || req.Lon > 180 || req.Lat < -90 || req.Lat > 90 {
		http.Error(w, "Body error: position out of range", http.StatusBadRequest)
		return
	}
	render.JSON(w, r, h.session.SetMyPosition(mercator.NewPosition(req.Lon, req.Lat)))
}

func (h *MapHandler) PostDrag(w http.ResponseWriter, r *http.Request) {
	var req dragRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		http.Error(w, fmt.Sprintf("Body error: %s", err.Error()), http.StatusBadRequest)
		return
	}
	b, err := parseButton(req.Button)
	if err != nil {
		http.Error(w, fmt.Sprintf("Body error: %s", err.Error()), http.StatusBadRequest)
		return
	}
	render.JSON(w, r, h.session.Drag(b, orb.Point{req.DX, req.DY}))
}

func (h *MapHandler) PostRecenter(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.session.Recenter())
}

func (h *MapHandler) PostZoomIn(w http.ResponseWriter, r *http.Request) {
	h.zoomResponse(w, r)(h.session.ZoomIn())
}

func (h *MapHandler) PostZoomOut(w http.ResponseWriter, r *http.Request) {
	h.zoomResponse(w, r)(h.session.ZoomOut())
}

func (h *MapHandler) PutZoom(w http.ResponseWriter, r *http.Request) {
	var req zoomRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		http.Error(w, fmt.Sprintf("Body error: %s", err.Error()), http.StatusBadRequest)
		return
	}
	h.zoomResponse(w, r)(h.session.SetZoom(req.Zoom))
}

func (h *MapHandler) zoomResponse(w http.ResponseWriter, r *http.Request) func(session.View, error) {
	return func(v session.View, err error) {
		if errors.Is(err, mercator.ErrInvalidZoom) {
			http.Error(w, fmt.Sprintf("Zoom error: %s", err.Error()), http.StatusBadRequest)
			return
		}
		if err != nil {
			h.log.Error("zoom failed", "error", err)
			http.Error(w, fmt.Sprintf("System error: %s", err.Error()), http.StatusInternalServerError)
			return
		}
		render.JSON(w, r, v)
	}
}

func (h *MapHandler) PutProvider(w http.ResponseWriter, r *http.Request) {
	var req providerRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		http.Error(w, fmt.Sprintf("Body error: %s", err.Error()), http.StatusBadRequest)
		return
	}
	kind, err := provider.ParseKind(req.Provider)
	if err != nil {
		http.Error(w, fmt.Sprintf("Provider error: %s", err.Error()), http.StatusBadRequest)
		return
	}
	mt, err := provider.ParseMapType(req.MapType)
	if err != nil {
		http.Error(w, fmt.Sprintf("Provider error: %s", err.Error()), http.StatusBadRequest)
		return
	}
	v, err := h.session.SetProvider(kind, mt)
	if err != nil {
		http.Error(w, fmt.Sprintf("Provider error: %s", err.Error()), http.StatusBadRequest)
		return
	}
	h.log.Info("provider switched", "provider", v.Provider, "maptype", v.MapType)
	render.JSON(w, r, v)
}

func (h *MapHandler) GetAttribution(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.session.Attribution())
}

func (h *MapHandler) GetFrame(w http.ResponseWriter, r *http.Request) {
	width, height, err := viewport(r)
	if err != nil {
		http.Error(w, fmt.Sprintf("Query error: %s", err.Error()), http.StatusBadRequest)
		return
	}
	fv, err := h.session.Frame(width, height)
	if err != nil {
		http.Error(w, fmt.Sprintf("Query error: %s", err.Error()), http.StatusBadRequest)
		return
	}
	render.JSON(w, r, fv)
}

func (h *MapHandler) GetFramePNG(w http.ResponseWriter, r *http.Request) {
	width, height, err := viewport(r)
	if err != nil {
		http.Error(w, fmt.Sprintf("Query error: %s", err.Error()), http.StatusBadRequest)
		return
	}
	img, err := h.session.Render(width, height)
	if err != nil {
		http.Error(w, fmt.Sprintf("Query error: %s", err.Error()), http.StatusBadRequest)
		return
	}
	writePNG(w, h.log, img)
}

func viewport(r *http.Request) (width, height int, err error) {
	width, err = queryInt(r, "width", defaultWidth)
	if err != nil {
		return 0, 0, errors.New("error in width")
	}
	height, err = queryInt(r, "height", defaultHeight)
	if err != nil {
		return 0, 0, errors.New("error in height")
	}
	return width, height, nil
}

func parseButton(s string) (mapmemory.Button, error) {
	switch s {
	case "", "primary":
		return mapmemory.ButtonPrimary, nil
	case "secondary":
		return mapmemory.ButtonSecondary, nil
	case "middle":
		return mapmemory.ButtonMiddle, nil
	}
	return 0, errors.Errorf("unknown button %q", s)
}

func writePNG(w http.ResponseWriter, log *slog.Logger, img image.Image) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := png.Encode(w, img); err != nil {
		log.Error("can't encode png", "error", err)
	}
}
