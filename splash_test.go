package pyboot

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSplashEligible(t *testing.T) {
	cases := []struct {
		level      ProcessLevel
		singleFile bool
		want       bool
	}{
		{LevelParent, true, true},
		{LevelParent, false, false},
		{LevelMain, false, true},
		{LevelMain, true, false},
		{LevelSubprocess, false, false},
		{LevelSubprocess, true, false},
		{LevelUnknown, true, false},
	}
	for _, c := range cases {
		if got := SplashEligible(c.level, c.singleFile); got != c.want {
			t.Errorf("SplashEligible(%v, %v) = %v, want %v", c.level, c.singleFile, got, c.want)
		}
	}
}

func TestDisableSplashIPCSetsEnvVar(t *testing.T) {
	t.Cleanup(func() { os.Unsetenv(splashIPCEnvVar) })
	if err := DisableSplashIPC(); err != nil {
		t.Fatalf("DisableSplashIPC: %v", err)
	}
	if got := os.Getenv(splashIPCEnvVar); got != "0" {
		t.Errorf("%s = %q, want \"0\"", splashIPCEnvVar, got)
	}
}

func TestSplashContextLifecycle(t *testing.T) {
	s := NewSplashContext()
	if s.started || s.finalized {
		t.Fatalf("new context must start unstarted and unfinalized")
	}
	if err := s.Start("/path/to/exe"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !s.started {
		t.Errorf("expected started after Start")
	}
	s.Finalize()
	if s.started || !s.finalized {
		t.Errorf("expected finalized and not started after Finalize")
	}
}

func TestSplashContextNilReceiverIsSafe(t *testing.T) {
	var s *SplashContext
	if err := s.Setup(&ProcessContext{AppRootDir: "/x"}); err != ErrSplashUnavailable {
		t.Errorf("nil Setup() = %v, want ErrSplashUnavailable", err)
	}
	if err := s.Extract(&ProcessContext{}); err != ErrSplashUnavailable {
		t.Errorf("nil Extract() = %v, want ErrSplashUnavailable", err)
	}
	if err := s.LoadSharedLibraries(); err != ErrSplashUnavailable {
		t.Errorf("nil LoadSharedLibraries() = %v, want ErrSplashUnavailable", err)
	}
	if err := s.Start("x"); err != ErrSplashUnavailable {
		t.Errorf("nil Start() = %v, want ErrSplashUnavailable", err)
	}
	s.Finalize() // must not panic
}

func TestSplashContextSetupRequiresAppRoot(t *testing.T) {
	s := NewSplashContext()
	if err := s.Setup(&ProcessContext{}); err != ErrSplashUnavailable {
		t.Errorf("Setup() with empty AppRootDir = %v, want ErrSplashUnavailable", err)
	}
}

func TestSplashContextExtractDirectoryModeIsNoop(t *testing.T) {
	s := NewSplashContext()
	if err := s.Extract(&ProcessContext{SingleFile: false}); err != nil {
		t.Errorf("Extract in directory mode should no-op, got %v", err)
	}
}

func TestSplashContextExtractWritesResources(t *testing.T) {
	dir := t.TempDir()
	entries := []buildArchiveEntry{
		{Type: EntrySplashResource, Name: "splash/image.png", Payload: []byte("fake-png-bytes")},
		{Type: EntryPyModule, Name: "mymod", Payload: []byte("code")},
	}
	data, err := buildArchive(entries)
	if err != nil {
		t.Fatalf("buildArchive: %v", err)
	}
	combined, err := embedArchive([]byte("exe"), data)
	if err != nil {
		t.Fatalf("embedArchive: %v", err)
	}
	path := filepath.Join(dir, "app")
	if err := writeFileBuffered(path, combined, 0o755); err != nil {
		t.Fatalf("write: %v", err)
	}
	arc, err := OpenArchive(path)
	if err != nil {
		t.Fatalf("OpenArchive: %v", err)
	}
	defer arc.Close()

	appRoot := filepath.Join(dir, "approot")
	if err := os.MkdirAll(appRoot, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	pc := &ProcessContext{SingleFile: true, Archive: arc, AppRootDir: appRoot}

	s := NewSplashContext()
	if err := s.Extract(pc); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(appRoot, "splash", "image.png"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "fake-png-bytes" {
		t.Errorf("extracted payload = %q, want %q", got, "fake-png-bytes")
	}
}
