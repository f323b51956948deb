package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gojags/internal/common/fsutil"
)

// ModuleFile is a loadable module found on disk.
type ModuleFile struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// moduleExts are the shared-library suffixes recognized by ScanModules.
var moduleExts = []string{".so", ".dll", ".dylib"}

// ScanModules lists the module libraries in dir. Name is the file name
// without its extension, which is what LoadModule expects.
func ScanModules(dir string) ([]ModuleFile, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var mods []ModuleFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if !isModuleExt(ext) {
			continue
		}
		mods = append(mods, ModuleFile{Name: strings.TrimSuffix(name, filepath.Ext(name)), Path: filepath.Join(abs, name)})
	}
	sort.Slice(mods, func(i, j int) bool { return mods[i].Name < mods[j].Name })
	return mods, nil
}

func isModuleExt(ext string) bool {
	for _, x := range moduleExts {
		if ext == x {
			return true
		}
	}
	return false
}

// modulesDirCandidates are the standard install locations of JAGS modules.
var modulesDirCandidates = []string{
	"/usr/local/lib/JAGS/modules-4",
	"/usr/lib/JAGS/modules-4",
	"/usr/lib/x86_64-linux-gnu/JAGS/modules-4",
	"/usr/lib64/JAGS/modules-4",
	"/opt/homebrew/lib/JAGS/modules-4",
}

// DiscoverModulesDir returns the first existing standard modules directory,
// or "" when none exists.
func DiscoverModulesDir() string {
	for _, d := range modulesDirCandidates {
		if fsutil.PathExists(d) {
			return d
		}
	}
	return ""
}
