package manager

import (
	"time"

	"github.com/rs/zerolog"

	"gojags/internal/registry"
)

// Defaults applied when corresponding ManagerConfig fields are unset.
const (
	defaultMaxSessions   = 16
	defaultMaxQueueDepth = 32
	defaultMaxWait       = 30 * time.Second
	defaultDrainTimeout  = 5 * time.Second
)

// ManagerConfig encapsulates all tunables for Manager construction.
type ManagerConfig struct {
	// Registry is the engine registry sessions are created from. Required.
	Registry *registry.Registry
	// ModulesDir is scanned by AvailableModules. Empty means the first
	// standard install location that exists.
	ModulesDir    string
	MaxSessions   int
	MaxQueueDepth int
	MaxWait       time.Duration
	DrainTimeout  time.Duration
	Publisher     EventPublisher
	Logger        *zerolog.Logger
}

// NewWithConfig constructs a Manager from ManagerConfig.
func NewWithConfig(cfg ManagerConfig) *Manager {
	m := &Manager{
		state:      StateReady,
		reg:        cfg.Registry,
		modulesDir: cfg.ModulesDir,
		sessions:   make(map[string]*Session),
		publisher:  noopPublisher{},
		log:        zerolog.Nop(),
		startTime:  time.Now(),
	}
	if m.reg == nil {
		m.state = StateError
		m.err = "no engine registry configured"
	}
	// Apply defaults if unset
	if cfg.MaxSessions <= 0 {
		m.maxSessions = defaultMaxSessions
	} else {
		m.maxSessions = cfg.MaxSessions
	}
	if cfg.MaxQueueDepth <= 0 {
		m.maxQueueDepth = defaultMaxQueueDepth
	} else {
		m.maxQueueDepth = cfg.MaxQueueDepth
	}
	if cfg.MaxWait <= 0 {
		m.maxWait = defaultMaxWait
	} else {
		m.maxWait = cfg.MaxWait
	}
	if cfg.DrainTimeout <= 0 {
		m.drainTimeout = defaultDrainTimeout
	} else {
		m.drainTimeout = cfg.DrainTimeout
	}
	if cfg.Publisher != nil {
		m.publisher = cfg.Publisher
	}
	if cfg.Logger != nil {
		m.log = *cfg.Logger
	}
	return m
}
