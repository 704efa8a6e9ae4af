package pyboot

import (
	"reflect"
	"testing"
)

func archiveFromOptionNames(t *testing.T, names []string) *Archive {
	t.Helper()
	entries := make([]buildArchiveEntry, len(names))
	for i, n := range names {
		entries[i] = buildArchiveEntry{Type: EntryRuntimeOption, Name: n}
	}
	data, err := buildArchive(entries)
	if err != nil {
		t.Fatalf("buildArchive: %v", err)
	}
	combined, err := embedArchive([]byte("exe"), data)
	if err != nil {
		t.Fatalf("embedArchive: %v", err)
	}
	path := t.TempDir() + "/app"
	if err := writeFileBuffered(path, combined, 0o755); err != nil {
		t.Fatalf("write: %v", err)
	}
	arc, err := OpenArchive(path)
	if err != nil {
		t.Fatalf("OpenArchive: %v", err)
	}
	t.Cleanup(func() { arc.Close() })
	return arc
}

func TestParseOptionsNewProtocol(t *testing.T) {
	arc := archiveFromOptionNames(t, []string{
		"v", "v", "u", "O", "hash_seed=1234", "W ignore", "X utf8=1", "X dev", "X faulthandler",
		"pyi-hide-console hide-early",
	})

	opts, err := ParseOptions(arc, ProtocolNew)
	if err != nil {
		t.Fatalf("ParseOptions: %v", err)
	}
	if opts.Verbose != 2 {
		t.Errorf("Verbose = %d, want 2", opts.Verbose)
	}
	if !opts.Unbuffered {
		t.Errorf("expected Unbuffered")
	}
	if opts.Optimize != 1 {
		t.Errorf("Optimize = %d, want 1", opts.Optimize)
	}
	if !opts.HashSeedSet || opts.HashSeed != 1234 {
		t.Errorf("HashSeed = (%v, %d), want (true, 1234)", opts.HashSeedSet, opts.HashSeed)
	}
	if opts.UTF8Mode != 1 {
		t.Errorf("UTF8Mode = %d, want 1", opts.UTF8Mode)
	}
	if !opts.DevMode {
		t.Errorf("expected DevMode")
	}
	if !reflect.DeepEqual(opts.WFlags, []string{"ignore"}) {
		t.Errorf("WFlags = %v, want [ignore]", opts.WFlags)
	}
	wantX := []string{"utf8=1", "dev", "faulthandler"}
	if !reflect.DeepEqual(opts.XFlags, wantX) {
		t.Errorf("XFlags = %v, want %v", opts.XFlags, wantX)
	}
	if len(opts.WFlagsWide) != 0 || len(opts.XFlagsWide) != 0 {
		t.Errorf("new protocol must leave wide arrays empty")
	}
}

func TestParseOptionsLegacyProtocolUsesWideArrays(t *testing.T) {
	arc := archiveFromOptionNames(t, []string{"W default", "X tracemalloc"})

	opts, err := ParseOptions(arc, ProtocolLegacy)
	if err != nil {
		t.Fatalf("ParseOptions: %v", err)
	}
	if len(opts.WFlags) != 0 || len(opts.XFlags) != 0 {
		t.Errorf("legacy protocol must leave byte-string arrays empty")
	}
	if len(opts.WFlagsWide) != 1 || len(opts.XFlagsWide) != 1 {
		t.Fatalf("expected one wide W-flag and one wide X-flag, got %d/%d", len(opts.WFlagsWide), len(opts.XFlagsWide))
	}
}

func TestParseOptionsIsIdempotent(t *testing.T) {
	arc := archiveFromOptionNames(t, []string{"v", "O", "W a", "W b", "X one", "X two"})

	first, err := ParseOptions(arc, ProtocolNew)
	if err != nil {
		t.Fatalf("ParseOptions (first): %v", err)
	}
	second, err := ParseOptions(arc, ProtocolNew)
	if err != nil {
		t.Fatalf("ParseOptions (second): %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("re-parsing the same TOC produced different results:\n%+v\n%+v", first, second)
	}
}

func TestParseOptionsZeroEntries(t *testing.T) {
	arc := archiveFromOptionNames(t, nil)
	opts, err := ParseOptions(arc, ProtocolNew)
	if err != nil {
		t.Fatalf("ParseOptions: %v", err)
	}
	if opts.Verbose != 0 || len(opts.WFlags) != 0 || len(opts.XFlags) != 0 {
		t.Errorf("expected a zero-valued options record, got %+v", opts)
	}
}

func TestParseOptionsRejectsUnrecognizedScalar(t *testing.T) {
	arc := archiveFromOptionNames(t, []string{"not-a-real-option"})
	if _, err := ParseOptions(arc, ProtocolNew); err == nil {
		t.Fatalf("expected an error for an unrecognized scalar option")
	}
}

func TestParseBootOptions(t *testing.T) {
	arc := archiveFromOptionNames(t, []string{
		"pyi-python-flag Py_GIL_DISABLED",
		"pyi-runtime-tmpdir /tmp/custom",
		"pyi-contents-directory _internal",
		"pyi-macos-argv-emulation",
		"pyi-hide-console minimize-late",
		"pyi-disable-windowed-traceback",
		"pyi-bootloader-ignore-signals SIGUSR1,SIGUSR2",
		"v", // not pyi-prefixed, must be ignored here
	})

	bo := ParseBootOptions(arc)
	if !bo.GILDisabled {
		t.Errorf("expected GILDisabled")
	}
	if bo.RuntimeTmpDir != "/tmp/custom" {
		t.Errorf("RuntimeTmpDir = %q", bo.RuntimeTmpDir)
	}
	if bo.ContentsDirectory != "_internal" {
		t.Errorf("ContentsDirectory = %q", bo.ContentsDirectory)
	}
	if !bo.MacOSArgvEmulation {
		t.Errorf("expected MacOSArgvEmulation")
	}
	if bo.HideConsole != HideConsoleMinimizeLate {
		t.Errorf("HideConsole = %v, want HideConsoleMinimizeLate", bo.HideConsole)
	}
	if !bo.DisableWindowedTraceback {
		t.Errorf("expected DisableWindowedTraceback")
	}
	if !reflect.DeepEqual(bo.IgnoredSignalNames, []string{"SIGUSR1", "SIGUSR2"}) {
		t.Errorf("IgnoredSignalNames = %v", bo.IgnoredSignalNames)
	}
}
