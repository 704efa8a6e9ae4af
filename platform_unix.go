//go:build !windows && !darwin

package pyboot

import (
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"

	"golang.org/x/sys/unix"
)

// configureProcessLocale is the POSIX half of the pre-init "ask the
// runtime to configure the process locale" step (spec.md §4.5). In
// practice the C bootloader calls setlocale(LC_ALL, ""); Go processes
// already inherit the locale from the environment, so there is nothing
// further to do here beyond documenting the ordering requirement.
func configureProcessLocale() {}

// preloadBundledRuntimeLibs is the POSIX analogue of spec.md §4.3's note
// about pre-loading a local C-runtime copy before libpython: if the
// extraction step placed a bundled libstdc++ or libgcc_s beside libpython,
// load it first with RTLD_GLOBAL so libpython's own dynamic symbol
// resolution finds it instead of (an absent, or mismatched) system copy.
func preloadBundledRuntimeLibs(appRoot string) {
	for _, name := range []string{"libstdc++.so.6", "libgcc_s.so.1"} {
		path := filepath.Join(appRoot, name)
		if _, err := os.Stat(path); err == nil {
			dlopenBestEffort(path)
		}
	}
}

// resolveExecutablePath resolves the fully qualified path to the running
// executable (spec.md §3, "Platform Port: executable-path resolution").
func resolveExecutablePath() (string, error) {
	path, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPlatformFailure, err)
	}
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPlatformFailure, err)
	}
	return resolved, nil
}

// createRestrictedTempDir creates an ephemeral, owner-only directory for
// single-file PARENT extraction (spec.md §4.1, §4.6). On POSIX this is a
// 0700 directory under base; true ACL support isn't part of the POSIX
// permission model, so owner-only mode bits are the restriction mechanism.
func createRestrictedTempDir(base, pattern string) (string, error) {
	dir, err := os.MkdirTemp(base, pattern)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPlatformFailure, err)
	}
	if err := os.Chmod(dir, 0o700); err != nil {
		os.RemoveAll(dir)
		return "", fmt.Errorf("%w: %v", ErrPlatformFailure, err)
	}
	return dir, nil
}

// removeAllWithRetry recursively deletes dir. POSIX unlink doesn't suffer
// the same sharing-violation retries win32 needs, so it makes one attempt
// and does not retry; the name is shared with the win32 and darwin
// versions so callers use one function across platforms (spec.md §4.6,
// "Cleanup").
func removeAllWithRetry(dir string) error {
	return os.RemoveAll(dir)
}

// setLibrarySearchPath mutates LD_LIBRARY_PATH (darwin's DYLD_LIBRARY_PATH
// is set by platform_darwin.go's own version) so the dynamic loader finds bundled
// shared libraries placed in appRoot (spec.md §4.1, "Library search
// path"). On other-posix this is applied to the environment inherited by
// whichever role will spawn or restart, per spec.md §4.1.
func setLibrarySearchPath(appRoot string) error {
	varName := "LD_LIBRARY_PATH"
	existing := os.Getenv(varName)
	if existing == "" {
		return os.Setenv(varName, appRoot)
	}
	return os.Setenv(varName, appRoot+string(os.PathListSeparator)+existing)
}

// selfRestart re-execs the current process image in place, preferring an
// explicit dynamic loader path when one was observed at entry (spec.md
// §4.1: "The restart is a true in-place image replacement, not a fork").
func selfRestart(pc *ProcessContext) error {
	argv0 := pc.ExecutablePath
	args := append([]string{argv0}, pc.Argv...)
	if pc.LoaderPath != "" {
		args = append([]string{pc.LoaderPath, argv0}, pc.Argv...)
		argv0 = pc.LoaderPath
	}
	return syscall.Exec(argv0, args, os.Environ())
}

// spawnChild starts argv[0] with argv[1:] as a child sharing this
// process's environment plus _PYI_PARENT_PROCESS_LEVEL (already published
// by the caller), returning a handle the orchestrator can Wait on and
// forward signals to.
func spawnChild(argv []string) (*exec.Cmd, error) {
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChildSpawnFailure, err)
	}
	return cmd, nil
}

// forwardableSignals lists every signal the single-file PARENT forwards
// to its child. SIGCHLD and SIGTSTP/SIGCONT (the "child-status and
// terminal-stop signals") are exempt and keep default disposition (spec.md
// §4.6).
var forwardableSignals = []os.Signal{
	syscall.SIGHUP, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM,
	syscall.SIGUSR1, syscall.SIGUSR2, unix.SIGPIPE,
}

// installSignalForwarder arranges for every signal in forwardableSignals
// to be delivered to the child's PID and recorded on async, per spec.md
// §4.6 and §5. It returns a stop function that should be deferred.
func installSignalForwarder(async *AsyncState, childPID int) (stop func()) {
	ch := make(chan os.Signal, 8)
	signal.Notify(ch, forwardableSignals...)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case sig, ok := <-ch:
				if !ok {
					return
				}
				sysSig, ok := sig.(syscall.Signal)
				if !ok {
					continue
				}
				async.RecordSignal(int(sysSig))
				if pid := async.ChildPID(); pid != 0 {
					unix.Kill(pid, sysSig)
				}
			case <-done:
				return
			}
		}
	}()
	async.SetChildPID(childPID)
	return func() {
		signal.Stop(ch)
		close(done)
	}
}

// reraiseSignal re-raises signo against this process, after cleanup, so
// the shell observes the same termination disposition the child had
// (spec.md §4.6, scenario 4).
func reraiseSignal(signo int) {
	if signo == 0 {
		return
	}
	unix.Kill(os.Getpid(), syscall.Signal(signo))
}
