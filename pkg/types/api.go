package types

import "gojags/pkg/ndarray"

// CreateSessionRequest is the body of POST /sessions.
type CreateSessionRequest struct {
	// Model source text in the BUGS language.
	// example: model { mu ~ dnorm(0, 1) }
	Model string `json:"model" example:"model { mu ~ dnorm(0, 1) }"`
	// Observed data keyed by variable name. Arrays are nested lists, scalars or
	// {"shape": [...], "data": [...]}; null marks a missing value.
	Data ndarray.Map `json:"data,omitempty"`
	// Initial values. One entry is shared by every chain; otherwise one per chain.
	Init []ndarray.ChainState `json:"init,omitempty"`
	// Number of parallel chains.
	// example: 4
	Chains int `json:"chains,omitempty" example:"4"`
	// Adaptation iterations run before the session is returned. Zero selects the
	// default; a negative value skips adaptation.
	// example: 1000
	Tune int `json:"tune,omitempty" example:"1000"`
}

// SessionInfo describes one live session.
type SessionInfo struct {
	// Session identifier.
	// example: 3f0c3a7e-1c1f-4c53-9b1e-2a6c3d0f9e11
	ID string `json:"id" example:"3f0c3a7e-1c1f-4c53-9b1e-2a6c3d0f9e11"`
	// Lifecycle state of the session (ready, draining).
	// example: ready
	State string `json:"state" example:"ready"`
	// Number of chains.
	// example: 4
	Chains int `json:"chains" example:"4"`
	// Completed iterations, adaptation included.
	// example: 2000
	Iter int `json:"iter" example:"2000"`
	// Whether samplers are still adapting.
	Adapting bool `json:"adapting"`
	// Node array names in the model.
	Variables []string `json:"variables"`
	// Creation time (unix seconds).
	// example: 1700000000
	CreatedUnix int64 `json:"created_unix" example:"1700000000"`
	// Last time this session served a request (unix seconds).
	// example: 1700000000
	LastUsedUnix int64 `json:"last_used_unix" example:"1700000000"`
}

// SessionsResponse wraps GET /sessions.
type SessionsResponse struct {
	Sessions []SessionInfo `json:"sessions"`
}

// UpdateRequest is the body of POST /sessions/{id}/update and /adapt.
type UpdateRequest struct {
	// Number of iterations to run.
	// example: 1000
	Iterations int `json:"iterations" example:"1000"`
}

// UpdateResponse reports the iteration counter after an update.
type UpdateResponse struct {
	// example: 3000
	Iter int `json:"iter" example:"3000"`
}

// AdaptResponse reports whether adaptation reached its target.
type AdaptResponse struct {
	// example: true
	Adapted bool `json:"adapted" example:"true"`
	// example: 1000
	Iter int `json:"iter" example:"1000"`
}

// SampleRequest is the body of POST /sessions/{id}/sample.
type SampleRequest struct {
	// Number of iterations to run while monitoring.
	// example: 1000
	Iterations int `json:"iterations" example:"1000"`
	// Variables to monitor. Empty selects every variable.
	// example: ["mu","tau"]
	Vars []string `json:"vars,omitempty" example:"[\"mu\",\"tau\"]"`
	// Thinning interval.
	// example: 1
	Thin int `json:"thin,omitempty" example:"1"`
	// Monitor type (trace or mean).
	// example: trace
	Type string `json:"type,omitempty" example:"trace"`
}

// SampleResponse carries the recorded values. Trace samples have the
// variable's shape followed by iteration and chain axes.
type SampleResponse struct {
	// example: 3000
	Iter    int         `json:"iter" example:"3000"`
	Samples ndarray.Map `json:"samples"`
}

// StateResponse carries the state of every chain.
type StateResponse struct {
	Chains []ndarray.ChainState `json:"chains"`
}

// SamplersResponse lists the samplers chosen at initialization.
type SamplersResponse struct {
	Samplers []Sampler `json:"samplers"`
}

// ModulesResponse wraps GET /modules.
type ModulesResponse struct {
	// Loaded module names in load order.
	// example: ["basemod","bugs"]
	Modules []string `json:"modules" example:"[\"basemod\",\"bugs\"]"`
}

// AvailableModulesResponse wraps GET /modules/available.
type AvailableModulesResponse struct {
	// Directory that was scanned.
	// example: /usr/lib/JAGS/modules-4
	Dir     string   `json:"dir" example:"/usr/lib/JAGS/modules-4"`
	Modules []Module `json:"modules"`
}

// FactoriesResponse wraps GET /factories.
type FactoriesResponse struct {
	Factories []Factory `json:"factories"`
}

// SetFactoryRequest is the body of PUT /factories/{type}/{name}.
type SetFactoryRequest struct {
	// example: false
	Active bool `json:"active" example:"false"`
}

// RNGsRequest is the body of POST /rngs.
type RNGsRequest struct {
	// RNG factory name.
	// example: base::BaseRNG
	Factory string `json:"factory" example:"base::BaseRNG"`
	// Number of independent generators.
	// example: 4
	Chains int `json:"chains" example:"4"`
}

// RNGsResponse carries one generator state per chain, ready to be used as
// initial values.
type RNGsResponse struct {
	States []ndarray.ChainState `json:"states"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// SessionStatus summarizes a session for /status.
type SessionStatus struct {
	// example: 3f0c3a7e-1c1f-4c53-9b1e-2a6c3d0f9e11
	ID string `json:"id" example:"3f0c3a7e-1c1f-4c53-9b1e-2a6c3d0f9e11"`
	// example: ready
	State string `json:"state" example:"ready"`
	// Last time this session served a request (unix seconds).
	// example: 1700000000
	LastUsed int64 `json:"last_used_unix" example:"1700000000"`
	// Current queue length for incoming requests.
	// example: 0
	QueueLen int `json:"queue_len" example:"0"`
	// Number of in-flight requests currently being processed.
	// example: 1
	Inflight int `json:"inflight" example:"1"`
	// Maximum queued requests allowed before backpressure triggers.
	// example: 32
	MaxQueueDepth int `json:"max_queue_depth" example:"32"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	Sessions []SessionStatus `json:"sessions"`
	// Engine version string.
	// example: 4.3.2
	Version string `json:"version" example:"4.3.2"`
	// Maximum number of concurrent sessions.
	// example: 16
	MaxSessions int `json:"max_sessions" example:"16"`
	// Optional top-level error message.
	Error string `json:"error,omitempty"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
	// Total number of sessions created.
	// example: 12
	SessionsTotal uint64 `json:"sessions_total" example:"12"`
	// Total number of iterations run across all sessions.
	// example: 120000
	IterationsTotal uint64 `json:"iterations_total" example:"120000"`
	// Number of sessions being created.
	// example: 1
	CreatingCount int `json:"creating_count" example:"1"`
	// Number of sessions currently draining (delete in progress).
	// example: 1
	DrainingCount int `json:"draining_count" example:"1"`
}
