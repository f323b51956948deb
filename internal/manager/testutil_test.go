package manager

import (
	"context"
	"testing"
	"time"

	"gojags/internal/registry"
	"gojags/pkg/ndarray"
	"gojags/pkg/types"
)

const normalModel = `model {
  for (i in 1:N) {
    y[i] ~ dnorm(mu, tau)
  }
  mu ~ dnorm(0, 0.001)
  tau ~ dgamma(1, 1)
}`

func newTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	r, err := registry.OpenWithModules(registry.EngineSim, "", registry.DefaultModules)
	if err != nil {
		t.Fatalf("open registry: %v", err)
	}
	return r
}

func newTestManager(t *testing.T, cfg ManagerConfig) *Manager {
	t.Helper()
	if cfg.Registry == nil {
		cfg.Registry = newTestRegistry(t)
	}
	m := NewWithConfig(cfg)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func createRequest() types.CreateSessionRequest {
	return types.CreateSessionRequest{
		Model:  normalModel,
		Data:   ndarray.Map{"N": ndarray.Scalar(3), "y": ndarray.Vector(1, 2, 3)},
		Chains: 2,
		Tune:   -1,
	}
}

func mustCreate(t *testing.T, m *Manager) types.SessionInfo {
	t.Helper()
	info, err := m.Create(testCtx(t), createRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return info
}

// testCtx returns a context with a short timeout, canceled on test cleanup.
func testCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return c
}
