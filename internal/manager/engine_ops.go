package manager

import (
	"fmt"

	"gojags/internal/console"
	"gojags/internal/engine"
	"gojags/internal/model"
	"gojags/internal/registry"
	"gojags/pkg/ndarray"
	"gojags/pkg/types"
)

// Modules lists loaded modules.
func (m *Manager) Modules() []string {
	mods := m.reg.ListModules()
	if mods == nil {
		mods = []string{}
	}
	return mods
}

// AvailableModules scans the configured modules directory.
func (m *Manager) AvailableModules() (types.AvailableModulesResponse, error) {
	dir := m.modulesDir
	if dir == "" {
		dir = registry.DiscoverModulesDir()
	}
	if dir == "" {
		return types.AvailableModulesResponse{}, &console.LookupError{What: "modules directory", Name: "(unset)"}
	}
	files, err := registry.ScanModules(dir)
	if err != nil {
		return types.AvailableModulesResponse{}, &console.LookupError{What: "modules directory", Name: dir}
	}
	resp := types.AvailableModulesResponse{Dir: dir, Modules: make([]types.Module, 0, len(files))}
	for _, f := range files {
		resp.Modules = append(resp.Modules, types.Module{Name: f.Name, Path: f.Path})
	}
	return resp, nil
}

// LoadModule loads an engine module for every session created afterwards.
func (m *Manager) LoadModule(name string) error {
	if err := m.reg.LoadModule(name); err != nil {
		return err
	}
	m.publish(Event{Name: "module_load", Fields: map[string]any{"module": name}})
	return nil
}

// UnloadModule unloads an engine module.
func (m *Manager) UnloadModule(name string) error {
	if err := m.reg.UnloadModule(name); err != nil {
		return err
	}
	m.publish(Event{Name: "module_unload", Fields: map[string]any{"module": name}})
	return nil
}

var factoryTypes = []engine.FactoryType{engine.SamplerFactory, engine.MonitorFactory, engine.RNGFactory}

// Factories lists factories of the given type, or of every type when
// typ is empty.
func (m *Manager) Factories(typ string) ([]types.Factory, error) {
	kinds := factoryTypes
	if typ != "" {
		t, err := engine.ParseFactoryType(typ)
		if err != nil {
			return nil, &model.OptionError{Msg: err.Error()}
		}
		kinds = []engine.FactoryType{t}
	}
	out := []types.Factory{}
	for _, t := range kinds {
		for _, f := range m.reg.ListFactories(t) {
			out = append(out, types.Factory{Name: f.Name, Type: f.Type.String(), Active: f.Active})
		}
	}
	return out, nil
}

// SetFactoryActive switches a factory on or off.
func (m *Manager) SetFactoryActive(name, typ string, active bool) error {
	t, err := engine.ParseFactoryType(typ)
	if err != nil {
		return &model.OptionError{Msg: err.Error()}
	}
	if err := m.reg.SetFactoryActive(name, t, active); err != nil {
		return err
	}
	m.publish(Event{Name: "factory_set", Fields: map[string]any{"factory": name, "type": typ, "active": active}})
	return nil
}

// ParallelRNGs issues independent generator states from an RNG factory.
func (m *Manager) ParallelRNGs(factory string, chains int) ([]ndarray.ChainState, error) {
	if chains < 1 {
		return nil, &model.OptionError{Msg: fmt.Sprintf("invalid number of chains: %d", chains)}
	}
	return m.reg.ParallelRNGs(factory, chains)
}

// Version returns the engine version.
func (m *Manager) Version() string { return m.reg.Version() }
