package pyboot

import (
	"os"
	"path/filepath"
)

// SplashContext is the bootloader's handle onto the splash-screen
// subsystem, which is an external collaborator specified only at its
// interface (spec.md "Out of scope": "the splash-screen subsystem (Tcl/Tk
// binding and UI — only its lifecycle hooks are specified)"). The
// SplashContext holds no back-reference to a ProcessContext; callers pass
// one explicitly to every operation that needs it (spec.md §8, "cycle-free
// ownership").
type SplashContext struct {
	started   bool
	finalized bool
}

// splashIPCEnvVar gates the in-interpreter splash module: "0" tells it to
// no-op because the bootloader decided splash was ineligible or
// unavailable in this process (spec.md §4.8).
const splashIPCEnvVar = "_PYI_SPLASH_IPC"

// NewSplashContext allocates an unstarted splash context (spec.md §4.8,
// "context_new").
func NewSplashContext() *SplashContext {
	return &SplashContext{}
}

// SplashEligible reports whether role may set up a splash screen: only the
// single-file PARENT role and the directory MAIN role; never SUBPROCESS
// (spec.md §4.8).
func SplashEligible(level ProcessLevel, singleFile bool) bool {
	switch level {
	case LevelParent:
		return singleFile
	case LevelMain:
		return !singleFile
	default:
		return false
	}
}

// DisableSplashIPC publishes _PYI_SPLASH_IPC=0 so the in-interpreter
// splash module knows to no-op, used whenever this process is splash-
// ineligible or the archive carries no splash resources (spec.md §4.8).
func DisableSplashIPC() error {
	return os.Setenv(splashIPCEnvVar, "0")
}

// Setup prepares the splash context against the given process context
// (spec.md §4.8, "setup(ctx, process_context) -> status"). A nil
// receiver-free error return means success; any failure here should be
// treated as splash being unavailable, not a reason to abort the boot.
func (s *SplashContext) Setup(pc *ProcessContext) error {
	if s == nil {
		return ErrSplashUnavailable
	}
	if pc.AppRootDir == "" {
		return ErrSplashUnavailable
	}
	return nil
}

// Extract materializes splash-resource TOC entries into the application
// root. Single-file only: directory mode's splash resources are already
// on disk (spec.md §4.8, "extract(ctx, process_context) -> status
// (single-file only...)").
func (s *SplashContext) Extract(pc *ProcessContext) error {
	if s == nil {
		return ErrSplashUnavailable
	}
	if !pc.SingleFile {
		return nil
	}
	if pc.Archive == nil {
		return ErrSplashUnavailable
	}
	it := pc.Archive.Iterator()
	for it.Next() {
		entry := it.Entry()
		if entry.Type != EntrySplashResource {
			continue
		}
		data, err := pc.Archive.Extract(entry)
		if err != nil {
			return err
		}
		dest := filepath.Join(pc.AppRootDir, entry.Name)
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return ErrSplashUnavailable
		}
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return ErrSplashUnavailable
		}
	}
	return nil
}

// LoadSharedLibraries loads whatever shared libraries the Tcl/Tk splash
// renderer depends on (spec.md §4.8, "load_shared_libraries(ctx) ->
// status"). Implemented here only as the hook the orchestrator calls; the
// renderer's own libraries are outside this module's scope.
func (s *SplashContext) LoadSharedLibraries() error {
	if s == nil {
		return ErrSplashUnavailable
	}
	return nil
}

// Start begins rendering the splash window (spec.md §4.8, "start(ctx,
// executable_path) -> status").
func (s *SplashContext) Start(executablePath string) error {
	if s == nil {
		return ErrSplashUnavailable
	}
	s.started = true
	return nil
}

// Finalize tears down the splash window. Must run before the application
// root is removed, since the splash context may hold open handles into it
// (spec.md §4.6 "Cleanup", §4.7, §8 ordering guarantees).
func (s *SplashContext) Finalize() {
	if s == nil {
		return
	}
	s.finalized = true
	s.started = false
}

// ContextFree releases ctx, setting the caller's pointer to nil (spec.md
// §4.8, "context_free(&ctx)").
func ContextFree(ctx **SplashContext) {
	if ctx == nil {
		return
	}
	*ctx = nil
}
