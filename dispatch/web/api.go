package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/creditarchitect/dispatch-app/dispatch/client"
	"github.com/creditarchitect/dispatch-app/dispatch/constants"
	customErrors "github.com/creditarchitect/dispatch-app/dispatch/errors"
	"github.com/creditarchitect/dispatch-app/dispatch/health"
	"github.com/creditarchitect/dispatch-app/dispatch/tracker"
	"github.com/creditarchitect/dispatch-app/log"
)

// API holds the handler dependencies. Everything is injected so tests can
// run against a mock gateway and a temp-file store.
type API struct {
	Tracker *tracker.Tracker
	Client  client.MailClient
	Checker *health.Checker
}

type errorResponse struct {
	Error string `json:"error"`
}

func (api *API) getPending(w http.ResponseWriter, r *http.Request) {
	pending, err := api.Tracker.ListPending()
	if err != nil {
		api.respondError(w, r, err)
		return
	}
	render.JSON(w, r, pending)
}

func (api *API) getOverdue(w http.ResponseWriter, r *http.Request) {
	overdue, err := api.Tracker.ListOverdue()
	if err != nil {
		api.respondError(w, r, err)
		return
	}
	render.JSON(w, r, overdue)
}

func (api *API) getDeliveryStatus(w http.ResponseWriter, r *http.Request) {
	letterID := chi.URLParam(r, "letterID")
	status, err := api.Tracker.CheckDeliveryStatus(r.Context(), api.Client, letterID)
	if err != nil {
		api.respondError(w, r, err)
		return
	}
	render.JSON(w, r, status)
}

type statusUpdateRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

func (api *API) putStatus(w http.ResponseWriter, r *http.Request) {
	letterID := chi.URLParam(r, "letterID")

	var body statusUpdateRequest
	if err := render.DecodeJSON(r.Body, &body); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorResponse{Error: "request body must be JSON with a status field"})
		return
	}

	record, err := api.Tracker.UpdateStatus(letterID, body.Status, body.Notes)
	if err != nil {
		api.respondError(w, r, err)
		return
	}
	render.JSON(w, r, record)
}

type reconcileResponse struct {
	Changed bool        `json:"changed"`
	Record  interface{} `json:"record"`
}

func (api *API) postReconcile(w http.ResponseWriter, r *http.Request) {
	letterID := chi.URLParam(r, "letterID")

	record, changed, err := api.Tracker.Reconcile(r.Context(), api.Client, letterID)
	if err != nil {
		api.respondError(w, r, err)
		return
	}
	render.JSON(w, r, reconcileResponse{Changed: changed, Record: record})
}

func (api *API) healthCheck(w http.ResponseWriter, r *http.Request) {
	m := make(map[string]string)
	code := http.StatusOK

	if api.Checker.IsStoreOK() {
		m["store"] = "ok"
	} else {
		m["store"] = "error"
		code = http.StatusServiceUnavailable
	}
	if api.Checker.IsGatewayOK(r.Context()) {
		m["gateway"] = "ok"
	} else {
		m["gateway"] = "error"
		code = http.StatusServiceUnavailable
	}

	render.Status(r, code)
	render.JSON(w, r, m)
}

func (api *API) getVersion(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"version": constants.Version})
}

// respondError maps domain errors onto HTTP codes. Gateway failures pass the
// provider's status and body through untouched.
func (api *API) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch e := err.(type) {
	case *customErrors.NotFoundError:
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, errorResponse{Error: e.Error()})
	case *customErrors.MissingRequiredFieldError:
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorResponse{Error: e.Error()})
	case *customErrors.GatewayError:
		render.Status(r, e.StatusCode)
		render.JSON(w, r, errorResponse{Error: e.Error()})
	case *customErrors.StoreCorruptionError:
		log.API.Error(e)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, errorResponse{Error: "dispute store is unusable"})
	default:
		log.API.Error(err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, errorResponse{Error: "internal server error"})
	}
}
