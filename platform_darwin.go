//go:build darwin

package pyboot

import (
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// configureProcessLocale mirrors platform_unix.go's POSIX no-op: darwin
// processes already inherit their locale from the environment.
func configureProcessLocale() {}

// applyLinuxProcessName is a no-op on darwin: spec.md §6 documents
// _PYI_LINUX_PROCESS_NAME as linux-only.
func applyLinuxProcessName(name string) {}

// preloadBundledRuntimeLibs preloads a bundled dylib runtime copy placed
// beside libpython, if one was extracted there, before libpython itself
// loads (spec.md §4.3).
func preloadBundledRuntimeLibs(appRoot string) {
	path := filepath.Join(appRoot, "libpython-runtime.dylib")
	if _, err := os.Stat(path); err == nil {
		dlopenBestEffort(path)
	}
}

// resolveExecutablePath resolves the fully qualified path to the running
// executable.
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

// createRestrictedTempDir creates an owner-only (0700) temp directory, the
// same as other-posix; darwin has no ACL layer distinct from POSIX mode
// bits for this purpose.
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

// removeAllWithRetry deletes dir, retrying once after a brief pause. A
// Spotlight or Gatekeeper scan transiently holding a handle open inside a
// freshly extracted application root is the practical reason a first
// attempt can fail here.
func removeAllWithRetry(dir string) error {
	err := os.RemoveAll(dir)
	if err == nil {
		return nil
	}
	time.Sleep(200 * time.Millisecond)
	return os.RemoveAll(dir)
}

// setLibrarySearchPath mutates DYLD_LIBRARY_PATH so dyld finds bundled
// shared libraries placed in appRoot (spec.md §4.1).
func setLibrarySearchPath(appRoot string) error {
	varName := "DYLD_LIBRARY_PATH"
	existing := os.Getenv(varName)
	if existing == "" {
		return os.Setenv(varName, appRoot)
	}
	return os.Setenv(varName, appRoot+string(os.PathListSeparator)+existing)
}

// selfRestart re-execs the current process image in place. Darwin is never
// assigned PARENT_NEEDS_RESTART by the role table (spec.md §4.1, row
// "single-file, win32/darwin/cygwin"), so this is unreachable in practice;
// it is implemented anyway so the shared interface holds across platforms.
func selfRestart(pc *ProcessContext) error {
	argv0 := pc.ExecutablePath
	args := append([]string{argv0}, pc.Argv...)
	return syscall.Exec(argv0, args, os.Environ())
}

// spawnChild starts argv[0] with argv[1:] as a child.
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

// forwardableSignals mirrors platform_unix.go's list; darwin's signal set
// is POSIX-compatible.
var forwardableSignals = []os.Signal{
	syscall.SIGHUP, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM,
	syscall.SIGUSR1, syscall.SIGUSR2, unix.SIGPIPE,
}

// installSignalForwarder is identical to the other-posix implementation;
// darwin has no analogue to win32's console-control handler.
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

// reraiseSignal re-raises signo against this process after cleanup.
func reraiseSignal(signo int) {
	if signo == 0 {
		return
	}
	unix.Kill(os.Getpid(), syscall.Signal(signo))
}

// appBundleFrameworksDir re-anchors a directory-mode executable's own
// ".../Foo.app/Contents/MacOS" directory to its sibling
// ".../Foo.app/Contents/Frameworks", the convention a macOS .app bundle
// uses to hold bundled shared libraries and data apart from the main
// executable (spec.md §4.1, "on the darwin app-bundle path pattern
// …/.app/Contents/MacOS, re-anchor to …/.app/Contents/Frameworks"). Returns
// execDir unchanged if it does not match the pattern.
func appBundleFrameworksDir(execDir string) string {
	const marker = string(filepath.Separator) + "Contents" + string(filepath.Separator) + "MacOS"
	if !strings.HasSuffix(execDir, marker) {
		return execDir
	}
	contents := strings.TrimSuffix(execDir, marker) + string(filepath.Separator) + "Contents"
	return filepath.Join(contents, "Frameworks")
}

// transformToBackgroundProcess asks the OS to stop showing this process in
// the Dock and app switcher once a single-file PARENT has spawned its
// child (spec.md §4.6, "on darwin, transform process type to background").
// The real mechanism is the Process Manager TransformProcessType call,
// part of the AppleEvent/Carbon bridge this module treats as an external
// collaborator specified only at its interface (spec.md "Out of scope");
// this is the hook the single-file codepath invokes, left as a no-op
// until that collaborator is wired in.
func transformToBackgroundProcess() {}

// appleEventArgvEmulation is the darwin launch-argv cleanup hook (spec.md
// §4.7). It returns argv with every "-psn_" argument Finder prepends
// removed (spec.md scenario 3). It does not install AppleEvent handlers,
// pump events, or submit a synthetic activation event: like
// transformToBackgroundProcess, the AppleEvent bridge is an external
// collaborator, and the 250ms pump deadline below is declared but unused.
func appleEventArgvEmulation(argv []string) []string {
	const pumpDeadline = 250 * time.Millisecond
	_ = pumpDeadline

	cleaned := make([]string, 0, len(argv))
	for _, a := range argv {
		if strings.HasPrefix(a, "-psn_") {
			continue
		}
		cleaned = append(cleaned, a)
	}
	return cleaned
}
