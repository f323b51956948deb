//go:build !jags

package jags

// This file provides a no-CGO stub for the libjags adapter. It is compiled when
// the 'jags' build tag is NOT set, keeping default builds and CI CGO-free.
// The real adapter lives in jags.go (tagged 'jags').

import "gojags/internal/engine"

// Built indicates whether this binary was compiled with libjags support.
const Built = false

// BuildVersion is the libjags version the adapter was compiled against.
var BuildVersion = ""

// NewRuntime fails fast: libjags is not available in this build.
func NewRuntime(modulesDir string) (engine.Runtime, error) {
	return nil, engine.ErrUnavailable("jags support not built (missing 'jags' build tag)")
}
