package measurement

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/samber/do/v2"
)

func Routes(inj do.Injector) *chi.Mux {
	router := chi.NewRouter()
	router.Get("/", GetMetricsHandler(inj))
	router.Post("/reset", ResetMetricsHandler(inj))
	router.Post("/reset/{name}", ResetPointHandler(inj))
	return router
}

func GetMetricsHandler(inj do.Injector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ms := do.MustInvoke[*Service](inj)
		render.Status(r, http.StatusOK)
		render.JSON(w, r, ms.Datas())
	}
}

func ResetMetricsHandler(inj do.Injector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ms := do.MustInvoke[*Service](inj)
		ms.Reset()
		w.WriteHeader(http.StatusNoContent)
	}
}

func ResetPointHandler(inj do.Injector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		ms := do.MustInvoke[*Service](inj)
		ms.Point(name).Reset()
		w.WriteHeader(http.StatusNoContent)
	}
}
