package pyboot

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// runSingleFileParent implements spec.md §4.6: extract, set up splash,
// optionally hide the console, spawn the child, wait, then clean up. No
// restricted-ACL descriptor is held at this point, so there is none to
// release.
func runSingleFileParent(pc *ProcessContext) int {
	if err := extractArchive(pc); err != nil {
		log.Printf("pyboot: extraction: %v", err)
		cleanupSingleFileParent(pc, 0)
		return 1
	}

	if pc.SplashResourcesPresent && !pc.SplashSuppressed {
		pc.Splash = NewSplashContext()
		if err := pc.Splash.Setup(pc); err == nil {
			if err := pc.Splash.Extract(pc); err != nil {
				log.Printf("pyboot: splash extraction: %v", err)
			} else if err := pc.Splash.LoadSharedLibraries(); err != nil {
				log.Printf("pyboot: splash shared libraries: %v", err)
			} else if err := pc.Splash.Start(pc.ExecutablePath); err != nil {
				log.Printf("pyboot: splash start: %v", err)
			}
		}
	} else {
		if err := DisableSplashIPC(); err != nil {
			log.Printf("pyboot: disabling splash IPC: %v", err)
		}
	}

	applyEarlyConsoleHiding(pc.BootOptions.HideConsole)
	pumpStartupCursorDismissal()
	if currentPlatformClass() == platformDarwin {
		transformToBackgroundProcess()
	}

	childArgv := append([]string{pc.ExecutablePath}, pc.EffectiveArgv()...)
	cmd, err := spawnChild(childArgv)
	if err != nil {
		log.Printf("pyboot: spawning child: %v", err)
		cleanupSingleFileParent(pc, 0)
		return 1
	}

	stop := installSignalForwarder(&pc.Async, cmd.Process.Pid)
	defer stop()

	waitDone := make(chan struct{})
	var waitErr error
	go func() {
		waitErr = cmd.Wait()
		close(waitDone)
	}()

	exitCode := 0
	select {
	case <-waitDone:
		if waitErr != nil {
			if exitErr, ok := waitErr.(interface{ ExitCode() int }); ok {
				exitCode = exitErr.ExitCode()
			} else {
				exitCode = 1
			}
		}
	case <-pc.Async.ShutdownChan():
		log.Printf("pyboot: session shutdown event received, short-circuiting wait for child")
		exitCode = 1
	}

	cleanupSingleFileParent(pc, exitCode)

	if signo := pc.Async.LastSignal(); signo != 0 {
		reraiseSignal(signo)
	}
	return exitCode
}

// extractionBufferPool chunks the write side of extraction so large
// entries don't force one oversized write() syscall each.
var extractionBufferPool = NewBufferPool(64*1024, 4)

// writeFileBuffered writes data to dest in extractionBufferPool-sized
// chunks, creating dest with the given permissions.
func writeFileBuffered(dest string, data []byte, perm os.FileMode) error {
	f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	defer f.Close()

	for len(data) > 0 {
		buf := extractionBufferPool.Get()
		n := copy(buf, data)
		if _, err := f.Write(buf[:n]); err != nil {
			extractionBufferPool.Put(buf)
			return err
		}
		extractionBufferPool.Put(buf)
		data = data[n:]
	}
	return nil
}

// extractArchive materializes every extractable TOC entry into the
// application root, honoring strict-unpack mode on an attempted overwrite
// (spec.md §4.6).
func extractArchive(pc *ProcessContext) error {
	it := pc.Archive.Iterator()
	for it.Next() {
		entry := it.Entry()
		if !entry.Type.Extractable() {
			continue
		}
		dest := filepath.Join(pc.AppRootDir, entry.Name)
		if _, err := os.Stat(dest); err == nil {
			if pc.StrictUnpack {
				return fmt.Errorf("%w: refusing to overwrite %q", ErrExtractionFailure, entry.Name)
			}
			log.Printf("pyboot: warning: overwriting existing entry %q", entry.Name)
		}
		data, err := pc.Archive.Extract(entry)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrExtractionFailure, err)
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return fmt.Errorf("%w: %v", ErrExtractionFailure, err)
		}
		if err := writeFileBuffered(dest, data, 0o755); err != nil {
			return fmt.Errorf("%w: %v", ErrExtractionFailure, err)
		}
	}
	return nil
}

// cleanupSingleFileParent implements spec.md §4.6's "Cleanup": finalize
// splash, remove the temp directory, release the archive. A failure is
// fatal only under strict-unpack mode; the caller already has its exit
// code decided by the child's result, so this only logs.
func cleanupSingleFileParent(pc *ProcessContext, childExitCode int) {
	if pc.cleanupDone {
		return
	}
	pc.cleanupDone = true

	if pc.Splash != nil {
		pc.Splash.Finalize()
		ContextFree(&pc.Splash)
	}

	if pc.AppRootDir != "" {
		if err := removeAllWithRetry(pc.AppRootDir); err != nil {
			msg := fmt.Errorf("%w: %v", ErrCleanupFailure, err)
			if pc.StrictUnpack {
				log.Printf("pyboot: fatal: %v", msg)
			} else {
				log.Printf("pyboot: warning: %v", msg)
			}
		}
	}

	if pc.Archive != nil {
		pc.Archive.Close()
	}
}

// applyEarlyConsoleHiding hides or minimizes the console if the bootloader
// options request it "early" (before the child spawns), per spec.md §6.
// It delegates to hideOrMinimizeConsole, which is a no-op on every
// platform, so no console window is actually hidden or minimized.
func applyEarlyConsoleHiding(mode HideConsoleMode) {
	switch mode {
	case HideConsoleHideEarly, HideConsoleMinimizeEarly:
		hideOrMinimizeConsole(mode)
	}
}

// pumpStartupCursorDismissal is the hook for dismissing the OS "starting"
// cursor on windowed builds (spec.md §4.6). It is a no-op on every
// platform: no zero-message is pumped through a GUI queue.
func pumpStartupCursorDismissal() {}

// hideOrMinimizeConsole is a single definition shared by every platform
// and does nothing: the mode is ignored and no console window is hidden
// or minimized.
func hideOrMinimizeConsole(mode HideConsoleMode) {}
