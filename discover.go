package pyboot

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// DiscoverPythonLibrary scans appRoot for a bundled libpython shared
// library and returns its file name and parsed version (spec.md §4.3,
// "load a dynamically discovered Python runtime library of
// unknown-at-build-time version"). When more than one candidate is
// present, the highest version wins.
func DiscoverPythonLibrary(appRoot string) (libName string, version Version, err error) {
	entries, err := os.ReadDir(appRoot)
	if err != nil {
		return "", Version{}, fmt.Errorf("%w: %v", ErrDynLibLoad, err)
	}

	var candidates []Version
	byVersion := map[string]string{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !looksLikePythonLib(name) {
			continue
		}
		v, parseErr := ParseDiscoveredLibName(name)
		if parseErr != nil {
			continue
		}
		key := v.MinorString()
		if _, seen := byVersion[key]; !seen {
			candidates = append(candidates, v)
		}
		byVersion[key] = name
	}
	if len(candidates) == 0 {
		return "", Version{}, fmt.Errorf("%w: no python library found under %s", ErrDynLibLoad, appRoot)
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Compare(candidates[j]) > 0
	})
	best := candidates[0]
	return byVersion[best.MinorString()], best, nil
}

// looksLikePythonLib matches not only the plain "libpythonX.Y.so" form but
// also versioned sonames like "libpython3.11.so.1.0", so it checks for a
// ".so"/".dylib"/".dll" substring rather than filepath.Ext's final
// extension, which would return ".0" or ".1" for a versioned soname.
func looksLikePythonLib(name string) bool {
	if !strings.Contains(name, ".so") && !strings.Contains(name, ".dylib") && !strings.Contains(name, ".dll") {
		return false
	}
	return len(name) > len("python") &&
		(hasPrefixFold(name, "libpython") || hasPrefixFold(name, "python"))
}

func hasPrefixFold(s, prefix string) bool {
	if len(s) < len(prefix) {
		return false
	}
	return s[:len(prefix)] == prefix
}
