//go:build windows

package pyboot

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"golang.org/x/sys/windows"
)

// configureProcessLocale sets the console output code page to UTF-8,
// win32's analogue of POSIX's setlocale(LC_ALL, "") (spec.md §4.5).
func configureProcessLocale() {
	windows.SetConsoleOutputCP(65001)
}

// applyLinuxProcessName is a no-op on win32: spec.md §6 documents
// _PYI_LINUX_PROCESS_NAME as linux-only.
func applyLinuxProcessName(name string) {}

// preloadBundledRuntimeLibs preloads a local UCRT copy extracted beside
// libpython, if present, before libpython itself is loaded (spec.md
// §4.3).
func preloadBundledRuntimeLibs(appRoot string) {
	path := filepath.Join(appRoot, "vcruntime140.dll")
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
	return filepath.Clean(path), nil
}

// createRestrictedTempDir creates an ephemeral directory and applies an
// owner-only ACL to it via SetNamedSecurityInfo, matching the
// "…\_MEI<6digits>" owner-only temp directory described in spec.md §4.6,
// scenario 2.
func createRestrictedTempDir(base, pattern string) (string, error) {
	dir, err := os.MkdirTemp(base, pattern)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPlatformFailure, err)
	}
	if err := applyOwnerOnlyACL(dir); err != nil {
		os.RemoveAll(dir)
		return "", fmt.Errorf("%w: %v", ErrPlatformFailure, err)
	}
	return dir, nil
}

// applyOwnerOnlyACL restricts dir to the current user via
// SetNamedSecurityInfo, replacing the inherited DACL with one granting
// full control to the owner SID only.
func applyOwnerOnlyACL(dir string) error {
	token := windows.GetCurrentProcessToken()
	user, err := token.GetTokenUser()
	if err != nil {
		return err
	}
	sid := user.User.Sid

	ea := []windows.EXPLICIT_ACCESS{{
		AccessPermissions: windows.GENERIC_ALL,
		AccessMode:        windows.GRANT_ACCESS,
		Inheritance:       windows.SUB_CONTAINERS_AND_OBJECTS_INHERIT,
		Trustee: windows.TRUSTEE{
			TrusteeForm:  windows.TRUSTEE_IS_SID,
			TrusteeType:  windows.TRUSTEE_IS_USER,
			TrusteeValue: windows.TrusteeValueFromSID(sid),
		},
	}}
	acl, err := windows.ACLFromEntries(ea, nil)
	if err != nil {
		return err
	}
	return windows.SetNamedSecurityInfo(
		dir, windows.SE_FILE_OBJECT,
		windows.DACL_SECURITY_INFORMATION|windows.PROTECTED_DACL_SECURITY_INFORMATION,
		nil, nil, acl, nil,
	)
}

// removeAllWithRetry deletes dir, retrying once after a best-effort
// mitigation pass (closing nothing this process holds open, then a short
// pause) if the first attempt fails — matching spec.md §4.6's "if removal
// fails, invoke a best-effort mitigation pass and retry once", which
// exists because antivirus scanners and search indexers transiently hold
// handles open inside freshly extracted temp directories on Windows.
func removeAllWithRetry(dir string) error {
	err := os.RemoveAll(dir)
	if err == nil {
		return nil
	}
	time.Sleep(200 * time.Millisecond)
	return os.RemoveAll(dir)
}

// setLibrarySearchPath sets the per-process DLL search directory to
// appRoot via SetDllDirectory (spec.md §4.1).
func setLibrarySearchPath(appRoot string) error {
	return windows.SetDllDirectory(appRoot)
}

// selfRestart always returns an error on win32: the role table (spec.md
// §4.1) never assigns PARENT_NEEDS_RESTART on this platform class, so it
// is never called here; it exists so every platform defines the function
// Orchestrate calls.
func selfRestart(pc *ProcessContext) error {
	return fmt.Errorf("%w: self-restart is not used on this platform", ErrPlatformFailure)
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

// installSignalForwarder installs a console control handler in place of
// POSIX signal forwarding: win32 has no SIGTERM/SIGINT delivered to a
// background process, but a console close, user logoff, or system shutdown
// arrives as a control event (spec.md §4.6, §5: "session-shutdown events
// short-circuit the wait"). On one of those events it marks async's
// shutdown flag (observed by the single-file parent's wait loop) and makes
// a best-effort attempt to terminate the child before this process exits.
func installSignalForwarder(async *AsyncState, childPID int) (stop func()) {
	async.SetChildPID(childPID)

	handler := windows.NewCallback(func(ctrlType uint32) uintptr {
		switch ctrlType {
		case windows.CTRL_CLOSE_EVENT, windows.CTRL_LOGOFF_EVENT, windows.CTRL_SHUTDOWN_EVENT:
			async.RequestShutdown()
			if pid := async.ChildPID(); pid != 0 {
				if proc, err := os.FindProcess(pid); err == nil {
					proc.Kill()
				}
			}
			return 1
		}
		return 0
	})

	if err := windows.SetConsoleCtrlHandler(handler, true); err != nil {
		return func() {}
	}
	return func() {
		windows.SetConsoleCtrlHandler(handler, false)
	}
}

// reraiseSignal has no win32 analogue: exit codes, not signal
// dispositions, propagate the child's termination reason there.
func reraiseSignal(signo int) {}
