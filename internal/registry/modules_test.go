package registry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestScanModules_FiltersLibraries(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		"bugs.so",
		"glm.SO", // case-insensitive
		"basemod.dll",
		"README.txt",
		"bugs.la",
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f), []byte(""), 0o644); err != nil {
			t.Fatalf("write temp file: %v", err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.so"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	mods, err := ScanModules(dir)
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}
	if len(mods) != 3 {
		t.Fatalf("expected 3 modules, got %d: %+v", len(mods), mods)
	}
	want := []string{"basemod", "bugs", "glm"}
	for i, m := range mods {
		if m.Name != want[i] {
			t.Fatalf("module %d = %s, want %s", i, m.Name, want[i])
		}
		if !filepath.IsAbs(m.Path) {
			t.Fatalf("path not absolute: %s", m.Path)
		}
	}
}

func TestScanModules_ExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir on this platform: %v", err)
	}
	hTmp, err := os.MkdirTemp(home, "gojags-modules-*")
	if err != nil {
		t.Skipf("cannot create temp under home: %v", err)
	}
	defer os.RemoveAll(hTmp)
	if err := os.WriteFile(filepath.Join(hTmp, "dic.so"), []byte(""), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	rel := strings.TrimPrefix(hTmp, home)
	rel = strings.TrimPrefix(rel, string(os.PathSeparator))
	mods, err := ScanModules("~/" + filepath.ToSlash(rel))
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}
	if len(mods) != 1 || mods[0].Name != "dic" {
		t.Fatalf("unexpected modules: %+v", mods)
	}
}

func TestScanModules_MissingDir(t *testing.T) {
	if _, err := ScanModules(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatalf("expected error for missing dir")
	}
}
