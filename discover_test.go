package pyboot

import (
	"os"
	"path/filepath"
	"testing"
)

func touchFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte{}, 0o644); err != nil {
			t.Fatalf("WriteFile(%s): %v", n, err)
		}
	}
}

func TestDiscoverPythonLibraryPicksHighestVersion(t *testing.T) {
	dir := t.TempDir()
	touchFiles(t, dir, "libpython3.9.so", "libpython3.12.so", "libpython3.10.so", "readme.txt")

	name, version, err := DiscoverPythonLibrary(dir)
	if err != nil {
		t.Fatalf("DiscoverPythonLibrary: %v", err)
	}
	if name != "libpython3.12.so" {
		t.Errorf("name = %q, want libpython3.12.so", name)
	}
	if version != (Version{3, 12, -1}) {
		t.Errorf("version = %+v, want {3 12 -1}", version)
	}
}

func TestDiscoverPythonLibraryWindows(t *testing.T) {
	dir := t.TempDir()
	touchFiles(t, dir, "python310.dll", "python39.dll")

	name, version, err := DiscoverPythonLibrary(dir)
	if err != nil {
		t.Fatalf("DiscoverPythonLibrary: %v", err)
	}
	if name != "python310.dll" {
		t.Errorf("name = %q, want python310.dll", name)
	}
	if version != (Version{3, 10, -1}) {
		t.Errorf("version = %+v", version)
	}
}

func TestDiscoverPythonLibraryVersionedSoname(t *testing.T) {
	dir := t.TempDir()
	touchFiles(t, dir, "libpython3.11.so.1.0")

	name, version, err := DiscoverPythonLibrary(dir)
	if err != nil {
		t.Fatalf("DiscoverPythonLibrary: %v", err)
	}
	if name != "libpython3.11.so.1.0" {
		t.Errorf("name = %q, want libpython3.11.so.1.0", name)
	}
	if version != (Version{3, 11, -1}) {
		t.Errorf("version = %+v, want {3 11 -1}", version)
	}
}

func TestDiscoverPythonLibraryNoneFound(t *testing.T) {
	dir := t.TempDir()
	touchFiles(t, dir, "readme.txt", "app.so")

	if _, _, err := DiscoverPythonLibrary(dir); err == nil {
		t.Fatalf("expected an error when no python library is present")
	}
}

func TestLooksLikePythonLib(t *testing.T) {
	cases := map[string]bool{
		"libpython3.11.so":     true,
		"libpython3.11.dylib":  true,
		"python311.dll":        true,
		"libpython3.11.so.1.0": true,
		"readme.txt":           false,
		"app.so":               false,
		"libfoo.so":            false,
	}
	for name, want := range cases {
		if got := looksLikePythonLib(name); got != want {
			t.Errorf("looksLikePythonLib(%q) = %v, want %v", name, got, want)
		}
	}
}
