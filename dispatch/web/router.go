package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/creditarchitect/dispatch-app/dispatch/logging"
	"github.com/creditarchitect/dispatch-app/dispatch/monitoring"
)

// NewRouter builds the dispute API router. All state comes in through api;
// nothing here reads globals, so tests can mount the router over a temp
// store and a mock gateway.
func NewRouter(api *API) http.Handler {
	r := chi.NewRouter()
	m := monitoring.GetMonitor()
	r.Use(chiMiddleware.RequestID, logging.NewStructuredLogger(), ConnectionClose)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get(m.WrapHandler("/disputes/pending", api.getPending))
		r.Get(m.WrapHandler("/disputes/overdue", api.getOverdue))
		r.Get(m.WrapHandler("/disputes/{letterID}/delivery", api.getDeliveryStatus))
		r.Put(m.WrapHandler("/disputes/{letterID}/status", api.putStatus))
		r.Post(m.WrapHandler("/disputes/{letterID}/reconcile", api.postReconcile))
	})
	r.Get(m.WrapHandler("/_version", api.getVersion))
	r.Get(m.WrapHandler("/_health", api.healthCheck))
	return r
}

func ConnectionClose(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Connection", "close")
		next.ServeHTTP(w, r)
	})
}
