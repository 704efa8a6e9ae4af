package pyboot

import (
	"os"
	"sync/atomic"
)

// AsyncState holds the handful of ProcessContext fields that are mutated
// from outside the main control flow: a win32 control handler or hidden
// window procedure, or a POSIX signal handler. Every field is an atomic so
// the main flow observes them with acquire semantics instead of a bare
// volatile read (spec.md §5, §9).
type AsyncState struct {
	shutdownRequested atomic.Bool
	shutdownCh        chan struct{}
	childPID          atomic.Int64
	lastSignal        atomic.Int32
	forwardedCount    atomic.Uint64 // debug-build bookkeeping only
}

// newAsyncState returns an AsyncState ready to have RequestShutdown/
// ShutdownChan called on it.
func newAsyncState() AsyncState {
	return AsyncState{shutdownCh: make(chan struct{})}
}

// RequestShutdown marks that a session-end event or control signal arrived
// and wakes any goroutine blocked on ShutdownChan. Safe to call from a
// signal handler or OS callback; safe to call more than once.
func (a *AsyncState) RequestShutdown() {
	if a.shutdownRequested.CompareAndSwap(false, true) {
		close(a.shutdownCh)
	}
}

// ShutdownRequested reports whether RequestShutdown has been called.
func (a *AsyncState) ShutdownRequested() bool { return a.shutdownRequested.Load() }

// ShutdownChan is closed the moment RequestShutdown is first called,
// letting the single-file parent's wait loop short-circuit on a
// session-shutdown event instead of blocking indefinitely on the child
// (spec.md §5, "Cancellation and timeouts": "session-shutdown events
// short-circuit the wait").
func (a *AsyncState) ShutdownChan() <-chan struct{} { return a.shutdownCh }

// SetChildPID records the spawned child's PID for signal forwarding.
func (a *AsyncState) SetChildPID(pid int) { a.childPID.Store(int64(pid)) }

// ChildPID returns the recorded child PID, or 0 if none has been set.
func (a *AsyncState) ChildPID() int { return int(a.childPID.Load()) }

// RecordSignal records the last signal observed by the POSIX forwarding
// handler and bumps the debug forwarded-signal counter.
func (a *AsyncState) RecordSignal(signo int) {
	a.lastSignal.Store(int32(signo))
	a.forwardedCount.Add(1)
}

// LastSignal returns the last signal recorded by RecordSignal, or 0 if none.
func (a *AsyncState) LastSignal() int { return int(a.lastSignal.Load()) }

// ForwardedCount returns how many signals have been forwarded to the child.
func (a *AsyncState) ForwardedCount() uint64 { return a.forwardedCount.Load() }

// ProcessContext is the single process-wide record threaded through every
// component (spec.md §3). Exactly one ProcessContext exists per process;
// it is created zero-valued by the entry point and populated incrementally
// as the orchestrator progresses through the role's lifecycle.
type ProcessContext struct {
	// Argv is the original process arguments (argv[1:]).
	Argv []string
	// RewrittenArgv is an optional replacement for Argv, e.g. after the
	// macOS -psn_ argument filter. When set, the Launcher uses it instead
	// of Argv.
	RewrittenArgv []string

	// ExecutablePath is the fully resolved path to this executable.
	ExecutablePath string

	// ArchivePath is the resolved path to the archive (embedded executable
	// path, or a sibling .pkg file for side-load).
	ArchivePath string
	// Archive is the opened archive handle, or nil before OpenArchive.
	Archive *Archive

	// SingleFile is true when the archive carries extractable entries,
	// i.e. this is single-file (onefile) semantics rather than directory
	// (onedir) semantics.
	SingleFile bool

	// SplashResourcesPresent is true when the archive contains splash TOC
	// entries.
	SplashResourcesPresent bool
	// SplashSuppressed is true when the user requested no splash screen
	// (PYINSTALLER_SUPPRESS_SPLASH_SCREEN=1).
	SplashSuppressed bool
	// Splash is the owned splash context, or nil if splash was never set up.
	Splash *SplashContext

	// Level is this process's resolved role.
	Level ProcessLevel
	// ParentLevel is the role observed from _PYI_PARENT_PROCESS_LEVEL
	// before this process classified itself.
	ParentLevel ProcessLevel

	// AppRootDir is the resolved application root directory ($_MEIPASS).
	AppRootDir string

	// Python is the owned dynamic Python binding, or nil before it is
	// loaded (never set in single-file PARENT, which never loads libpython).
	Python *PythonBinding

	// StrictUnpack turns extraction-overwrite and cleanup failures from
	// warnings into fatal errors (PYINSTALLER_STRICT_UNPACK_MODE).
	StrictUnpack bool

	// LoaderPath is the dynamic loader the executable was originally
	// invoked through, if any (e.g. ld.so on Linux). Used to prefer the
	// same loader on POSIX self-restart.
	LoaderPath string

	// Options is the parsed runtime options record, once the Runtime
	// Options Parser has run.
	Options *Options

	// Async holds the fields mutated from signal handlers / OS callbacks.
	Async AsyncState

	// BootOptions is the parsed set of pyi- prefixed bootloader-private
	// options (spec.md §6).
	BootOptions BootOptions

	// cleanupDone guards against double-cleanup (spec.md §8,
	// round-trip/idempotence: "double-invoking cleanup ... is a no-op").
	cleanupDone bool
}

// NewProcessContext builds a zero-initialized ProcessContext from the raw
// process arguments, mirroring how the C bootloader's entry point default-
// initializes its context before populating fields incrementally.
func NewProcessContext(argv []string) *ProcessContext {
	return &ProcessContext{
		Argv:        argv,
		Level:       LevelUnknown,
		ParentLevel: LevelUnknown,
		Async:       newAsyncState(),
	}
}

// EffectiveArgv returns RewrittenArgv if set, else Argv (spec.md §4.5,
// "Argv uses the rewritten copy when present").
func (pc *ProcessContext) EffectiveArgv() []string {
	if pc.RewrittenArgv != nil {
		return pc.RewrittenArgv
	}
	return pc.Argv
}

// resetBootloaderEnvironment wipes the inherited bootloader-private
// environment variables listed in spec.md §6. Called when
// PYINSTALLER_RESET_ENVIRONMENT=1 is set, or when _PYI_ARCHIVE_FILE
// disagrees with the resolved archive path (spec.md §4.1).
func resetBootloaderEnvironment() {
	for _, name := range []string{
		parentLevelEnvVar,
		"_PYI_APPLICATION_HOME_DIR",
		"_PYI_ARCHIVE_FILE",
		"_PYI_SPLASH_IPC",
	} {
		os.Unsetenv(name)
	}
}

// needsEnvironmentReset decides whether the inherited bootloader
// environment should be wiped before role classification, per spec.md
// §4.1: an explicit user request, or a stale _PYI_ARCHIVE_FILE.
func needsEnvironmentReset(resolvedArchivePath string) bool {
	if os.Getenv("PYINSTALLER_RESET_ENVIRONMENT") == "1" {
		return true
	}
	if prior, ok := os.LookupEnv("_PYI_ARCHIVE_FILE"); ok && prior != resolvedArchivePath {
		return true
	}
	return false
}
