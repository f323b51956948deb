package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"gojags/pkg/types"
)

// @Summary  List loaded modules
// @Tags     engine
// @Produce  json
// @Success  200  {object}  types.ModulesResponse
// @Router   /modules [get]
func (h *handlers) listModules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.ModulesResponse{Modules: h.svc.Modules()})
}

// @Summary  List modules found in the modules directory
// @Tags     engine
// @Produce  json
// @Success  200  {object}  types.AvailableModulesResponse
// @Failure  404  {object}  types.ErrorResponse
// @Router   /modules/available [get]
func (h *handlers) availableModules(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.AvailableModules()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// @Summary  Load a module
// @Tags     engine
// @Param    name  path  string  true  "module name"
// @Success  200   {object}  types.ModulesResponse
// @Failure  404   {object}  types.ErrorResponse
// @Router   /modules/{name} [post]
func (h *handlers) loadModule(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.LoadModule(chi.URLParam(r, "name")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.ModulesResponse{Modules: h.svc.Modules()})
}

// @Summary  Unload a module
// @Tags     engine
// @Param    name  path  string  true  "module name"
// @Success  200   {object}  types.ModulesResponse
// @Failure  404   {object}  types.ErrorResponse
// @Router   /modules/{name} [delete]
func (h *handlers) unloadModule(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.UnloadModule(chi.URLParam(r, "name")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.ModulesResponse{Modules: h.svc.Modules()})
}

// @Summary  List factories
// @Tags     engine
// @Produce  json
// @Param    type  query     string  false  "sampler, monitor or rng"
// @Success  200   {object}  types.FactoriesResponse
// @Router   /factories [get]
func (h *handlers) listFactories(w http.ResponseWriter, r *http.Request) {
	fs, err := h.svc.Factories(r.URL.Query().Get("type"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.FactoriesResponse{Factories: fs})
}

// @Summary  Activate or deactivate a factory
// @Tags     engine
// @Accept   json
// @Param    type  path  string                   true  "sampler, monitor or rng"
// @Param    name  path  string                   true  "factory name"
// @Param    body  body  types.SetFactoryRequest  true  "active flag"
// @Success  204
// @Failure  404  {object}  types.ErrorResponse
// @Router   /factories/{type}/{name} [put]
func (h *handlers) setFactory(w http.ResponseWriter, r *http.Request) {
	var req types.SetFactoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.SetFactoryActive(chi.URLParam(r, "name"), chi.URLParam(r, "type"), req.Active); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// @Summary  Issue independent RNG states
// @Tags     engine
// @Accept   json
// @Produce  json
// @Param    body  body      types.RNGsRequest  true  "factory and chain count"
// @Success  200   {object}  types.RNGsResponse
// @Failure  404   {object}  types.ErrorResponse
// @Router   /rngs [post]
func (h *handlers) parallelRNGs(w http.ResponseWriter, r *http.Request) {
	var req types.RNGsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	states, err := h.svc.ParallelRNGs(req.Factory, req.Chains)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.RNGsResponse{States: states})
}
