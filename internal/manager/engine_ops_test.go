package manager

import (
	"os"
	"path/filepath"
	"testing"

	"gojags/internal/console"
	"gojags/internal/model"
)

func TestModules(t *testing.T) {
	pub := NewMemoryPublisher()
	m := newTestManager(t, ManagerConfig{Publisher: pub})
	if got := m.Modules(); len(got) != 2 || got[0] != "basemod" || got[1] != "bugs" {
		t.Fatalf("Modules = %v", got)
	}
	if err := m.LoadModule("nonexistent"); !console.IsLookup(err) {
		t.Fatalf("expected lookup error, got %v", err)
	}
	if err := m.LoadModule("lecuyer"); err != nil {
		t.Fatalf("LoadModule: %v", err)
	}
	if err := m.UnloadModule("lecuyer"); err != nil {
		t.Fatalf("UnloadModule: %v", err)
	}
	names := pub.Names()
	if len(names) != 2 || names[0] != "module_load" || names[1] != "module_unload" {
		t.Fatalf("events = %v", names)
	}
}

func TestAvailableModules(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{"glm.so", "dic.so", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, f), nil, 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	m := newTestManager(t, ManagerConfig{ModulesDir: dir})
	resp, err := m.AvailableModules()
	if err != nil {
		t.Fatalf("AvailableModules: %v", err)
	}
	if len(resp.Modules) != 2 || resp.Modules[0].Name != "dic" {
		t.Fatalf("modules = %+v", resp.Modules)
	}
	missing := newTestManager(t, ManagerConfig{ModulesDir: filepath.Join(dir, "missing")})
	if _, err := missing.AvailableModules(); !console.IsLookup(err) {
		t.Fatalf("expected lookup error, got %v", err)
	}
}

func TestFactories(t *testing.T) {
	m := newTestManager(t, ManagerConfig{})
	all, err := m.Factories("")
	if err != nil {
		t.Fatalf("Factories: %v", err)
	}
	samplers, err := m.Factories("sampler")
	if err != nil {
		t.Fatalf("Factories(sampler): %v", err)
	}
	if len(samplers) == 0 || len(all) <= len(samplers) {
		t.Fatalf("all=%d samplers=%d", len(all), len(samplers))
	}
	if _, err := m.Factories("bogus"); !model.IsOption(err) {
		t.Fatalf("expected option error, got %v", err)
	}
	if err := m.SetFactoryActive("base::Slice", "sampler", false); err != nil {
		t.Fatalf("SetFactoryActive: %v", err)
	}
	samplers, _ = m.Factories("sampler")
	for _, f := range samplers {
		if f.Name == "base::Slice" && f.Active {
			t.Fatalf("base::Slice still active")
		}
	}
	if err := m.SetFactoryActive("nope", "sampler", true); !console.IsLookup(err) {
		t.Fatalf("expected lookup error, got %v", err)
	}
}

func TestParallelRNGs(t *testing.T) {
	m := newTestManager(t, ManagerConfig{})
	states, err := m.ParallelRNGs("base::BaseRNG", 3)
	if err != nil {
		t.Fatalf("ParallelRNGs: %v", err)
	}
	if len(states) != 3 {
		t.Fatalf("got %d states", len(states))
	}
	if _, err := m.ParallelRNGs("base::BaseRNG", 0); !model.IsOption(err) {
		t.Fatalf("expected option error, got %v", err)
	}
	if _, err := m.ParallelRNGs("nope", 2); !console.IsLookup(err) {
		t.Fatalf("expected lookup error, got %v", err)
	}
}
