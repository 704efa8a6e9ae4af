package pyboot

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTestArchive(t *testing.T, entries []buildArchiveEntry) string {
	t.Helper()
	data, err := buildArchive(entries)
	if err != nil {
		t.Fatalf("buildArchive: %v", err)
	}
	exec := append([]byte("fake-executable-bytes"), 0, 0, 0)
	combined, err := embedArchive(exec, data)
	if err != nil {
		t.Fatalf("embedArchive: %v", err)
	}
	path := filepath.Join(t.TempDir(), "app")
	if err := os.WriteFile(path, combined, 0o755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestOpenArchiveEmbeddedRoundTrip(t *testing.T) {
	entries := []buildArchiveEntry{
		{Type: EntryPyModule, Name: "mymod", Payload: []byte("marshalled-code-object")},
		{Type: EntryData, Name: "data/file.txt", Payload: []byte("hello world"), Compression: CompressionDeflate},
	}
	path := writeTestArchive(t, entries)

	arc, err := OpenArchive(path)
	if err != nil {
		t.Fatalf("OpenArchive: %v", err)
	}
	defer arc.Close()

	if len(arc.Entries()) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(arc.Entries()))
	}
	if !arc.HasExtractableEntries() {
		t.Fatalf("expected HasExtractableEntries to be true (DATA entry is extractable)")
	}

	it := arc.Iterator()
	var names []string
	for it.Next() {
		names = append(names, it.Entry().Name)
	}
	if len(names) != 2 || names[0] != "mymod" || names[1] != "data/file.txt" {
		t.Fatalf("unexpected iteration order: %v", names)
	}

	second := arc.Entries()[1]
	payload, err := arc.Extract(&second)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if string(payload) != "hello world" {
		t.Fatalf("Extract returned %q, want %q", payload, "hello world")
	}
}

func TestOpenArchiveZeroEntries(t *testing.T) {
	path := writeTestArchive(t, nil)
	arc, err := OpenArchive(path)
	if err != nil {
		t.Fatalf("OpenArchive: %v", err)
	}
	defer arc.Close()
	if len(arc.Entries()) != 0 {
		t.Fatalf("expected zero entries, got %d", len(arc.Entries()))
	}
	if arc.HasExtractableEntries() {
		t.Fatalf("expected no extractable entries")
	}
}

func TestHasExtractableEntriesExcludesRuntimeOption(t *testing.T) {
	entries := []buildArchiveEntry{
		{Type: EntryRuntimeOption, Name: "v", Payload: nil},
	}
	path := writeTestArchive(t, entries)
	arc, err := OpenArchive(path)
	if err != nil {
		t.Fatalf("OpenArchive: %v", err)
	}
	defer arc.Close()
	if arc.HasExtractableEntries() {
		t.Fatalf("RUNTIME_OPTION-only archive should report no extractable entries")
	}
}

func TestArchiveCloseIsIdempotent(t *testing.T) {
	path := writeTestArchive(t, nil)
	arc, err := OpenArchive(path)
	if err != nil {
		t.Fatalf("OpenArchive: %v", err)
	}
	if err := arc.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := arc.Close(); err != nil {
		t.Fatalf("second Close should be a no-op, got: %v", err)
	}
}

func TestProbeSideloadMagicAtLastByte(t *testing.T) {
	content := append([]byte("padding-before-marker-"), sideloadMagic[:]...)
	path := filepath.Join(t.TempDir(), "exe")
	if err := os.WriteFile(path, content, 0o755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	ok, err := ProbeSideloadMagic(path)
	if err != nil {
		t.Fatalf("ProbeSideloadMagic: %v", err)
	}
	if !ok {
		t.Fatalf("expected side-load magic to be detected at end of file")
	}
}

func TestProbeSideloadMagicAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exe")
	if err := os.WriteFile(path, []byte("nothing interesting here"), 0o755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	ok, err := ProbeSideloadMagic(path)
	if err != nil {
		t.Fatalf("ProbeSideloadMagic: %v", err)
	}
	if ok {
		t.Fatalf("expected no side-load magic to be detected")
	}
}

func TestOpenArchiveNotFound(t *testing.T) {
	_, err := OpenArchive(filepath.Join(t.TempDir(), "does-not-exist"))
	if err == nil {
		t.Fatalf("expected an error opening a nonexistent path")
	}
}
