package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"gojags/pkg/types"
)

type handlers struct{ svc Service }

// @Summary  List sessions
// @Tags     sessions
// @Produce  json
// @Success  200  {object}  types.SessionsResponse
// @Router   /sessions [get]
func (h *handlers) listSessions(w http.ResponseWriter, r *http.Request) {
	sessions := h.svc.List()
	if sessions == nil {
		sessions = []types.SessionInfo{}
	}
	writeJSON(w, http.StatusOK, types.SessionsResponse{Sessions: sessions})
}

// @Summary  Create a session
// @Description Checks, compiles and initializes a model, then runs the adaptation phase.
// @Tags     sessions
// @Accept   json
// @Produce  json
// @Param    body  body      types.CreateSessionRequest  true  "model, data and initial values"
// @Success  201   {object}  types.SessionInfo
// @Failure  400   {object}  types.ErrorResponse
// @Failure  429   {object}  types.ErrorResponse
// @Router   /sessions [post]
func (h *handlers) createSession(w http.ResponseWriter, r *http.Request) {
	var req types.CreateSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ctx, cancel := opContext(r.Context())
	defer cancel()
	info, err := h.svc.Create(ctx, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/sessions/"+info.ID)
	writeJSON(w, http.StatusCreated, info)
}

// @Summary  Describe a session
// @Tags     sessions
// @Produce  json
// @Param    id   path      string  true  "session id"
// @Success  200  {object}  types.SessionInfo
// @Failure  404  {object}  types.ErrorResponse
// @Router   /sessions/{id} [get]
func (h *handlers) getSession(w http.ResponseWriter, r *http.Request) {
	info, err := h.svc.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// @Summary  Delete a session
// @Tags     sessions
// @Param    id   path  string  true  "session id"
// @Success  204
// @Failure  404  {object}  types.ErrorResponse
// @Router   /sessions/{id} [delete]
func (h *handlers) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// @Summary  Run iterations
// @Tags     sessions
// @Accept   json
// @Produce  json
// @Param    id    path      string               true  "session id"
// @Param    body  body      types.UpdateRequest  true  "iterations"
// @Success  200   {object}  types.UpdateResponse
// @Failure  429   {object}  types.ErrorResponse
// @Router   /sessions/{id}/update [post]
func (h *handlers) update(w http.ResponseWriter, r *http.Request) {
	var req types.UpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ctx, cancel := opContext(r.Context())
	defer cancel()
	resp, err := h.svc.Update(ctx, chi.URLParam(r, "id"), req.Iterations)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// @Summary  Run adaptation iterations
// @Tags     sessions
// @Accept   json
// @Produce  json
// @Param    id    path      string               true  "session id"
// @Param    body  body      types.UpdateRequest  true  "iterations"
// @Success  200   {object}  types.AdaptResponse
// @Router   /sessions/{id}/adapt [post]
func (h *handlers) adapt(w http.ResponseWriter, r *http.Request) {
	var req types.UpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ctx, cancel := opContext(r.Context())
	defer cancel()
	resp, err := h.svc.Adapt(ctx, chi.URLParam(r, "id"), req.Iterations)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// @Summary  Sample monitored variables
// @Tags     sessions
// @Accept   json
// @Produce  json
// @Param    id    path      string               true  "session id"
// @Param    body  body      types.SampleRequest  true  "iterations and variables"
// @Success  200   {object}  types.SampleResponse
// @Failure  409   {object}  types.ErrorResponse
// @Router   /sessions/{id}/sample [post]
func (h *handlers) sample(w http.ResponseWriter, r *http.Request) {
	var req types.SampleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ctx, cancel := opContext(r.Context())
	defer cancel()
	resp, err := h.svc.Sample(ctx, chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	countSampleValues(resp)
	writeJSON(w, http.StatusOK, resp)
}

// @Summary  Dump chain state
// @Tags     sessions
// @Produce  json
// @Param    id   path      string  true  "session id"
// @Success  200  {object}  types.StateResponse
// @Router   /sessions/{id}/state [get]
func (h *handlers) state(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.State(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// @Summary  List samplers
// @Tags     sessions
// @Produce  json
// @Param    id   path      string  true  "session id"
// @Success  200  {object}  types.SamplersResponse
// @Router   /sessions/{id}/samplers [get]
func (h *handlers) samplers(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Samplers(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
