package pyboot

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
)

// resolveRole implements the role table of spec.md §4.1: given the
// observed parent level, whether this archive is single-file, whether
// splash is eligible in principle (archive carries splash resources and
// the user has not suppressed it), and the platform class, it returns
// this process's level. A combination the table marks "—" never occurs
// in practice because the prior role never transitions there; it is
// treated the same as no role assigned (LevelUnknown) so a caller that
// reaches it surfaces a clear error rather than silently misbehaving.
func resolveRole(parent ProcessLevel, singleFile, splashEligible bool, class platformClass) ProcessLevel {
	winlike := class == platformWin32 || class == platformDarwin || class == platformCygwin

	switch parent {
	case LevelUnknown:
		switch {
		case singleFile && winlike:
			return LevelParent
		case singleFile && !winlike && splashEligible:
			return LevelParentNeedsRestart
		case singleFile && !winlike:
			return LevelParent
		case !singleFile && winlike:
			return LevelMain
		default: // directory, other-posix
			return LevelParentNeedsRestart
		}
	case LevelParentNeedsRestart:
		if singleFile && winlike {
			return LevelParent
		}
		if !singleFile && !winlike {
			return LevelMain
		}
		return LevelUnknown
	case LevelParent:
		return LevelMain
	case LevelMain:
		return LevelSubprocess
	}
	return LevelUnknown
}

// Orchestrate runs the full role-resolution and lifecycle sequence
// described in spec.md §4.1: environment reset, archive open, role
// classification, publish, top-level directory resolution, library
// search path setup, and branching into the single-file parent codepath
// or the main/subprocess codepath. It returns the process exit code.
func Orchestrate(pc *ProcessContext) int {
	execPath, err := resolveExecutablePath()
	if err != nil {
		log.Printf("pyboot: resolving executable path: %v", err)
		return 1
	}
	pc.ExecutablePath = execPath

	// _PYI_LINUX_PROCESS_NAME (spec.md §6) carries the original program name
	// across a self-restart/child-spawn chain so "ps"/"top" keep showing it
	// instead of whatever this re-exec'd binary's own name would otherwise
	// report. The first process in the chain seeds it from its own
	// executable name; every process, including that first one, applies it.
	procName, hadProcName := os.LookupEnv("_PYI_LINUX_PROCESS_NAME")
	if !hadProcName {
		procName = filepath.Base(execPath)
		if err := os.Setenv("_PYI_LINUX_PROCESS_NAME", procName); err != nil {
			log.Printf("pyboot: publishing process name: %v", err)
		}
	}
	applyLinuxProcessName(procName)

	arc, err := OpenArchive(execPath)
	if err != nil {
		log.Printf("pyboot: opening archive: %v", err)
		return 1
	}
	pc.Archive = arc
	pc.ArchivePath = arc.Path()
	pc.SingleFile = arc.HasExtractableEntries()

	if needsEnvironmentReset(pc.ArchivePath) {
		resetBootloaderEnvironment()
	}
	if err := os.Setenv("_PYI_ARCHIVE_FILE", pc.ArchivePath); err != nil {
		log.Printf("pyboot: publishing archive path: %v", err)
	}

	for _, e := range arc.Entries() {
		if e.Type == EntrySplashResource {
			pc.SplashResourcesPresent = true
			break
		}
	}
	pc.SplashSuppressed = os.Getenv("PYINSTALLER_SUPPRESS_SPLASH_SCREEN") == "1"

	pc.BootOptions = ParseBootOptions(arc)

	pc.ParentLevel = readParentLevel()
	class := currentPlatformClass()
	splashEligibleInPrinciple := pc.SplashResourcesPresent && !pc.SplashSuppressed
	pc.Level = resolveRole(pc.ParentLevel, pc.SingleFile, splashEligibleInPrinciple, class)

	if pc.Level == LevelUnknown {
		log.Printf("pyboot: could not resolve a process role from parent level %v", pc.ParentLevel)
		arc.Close()
		return 1
	}

	if err := publishLevel(pc.Level); err != nil {
		log.Printf("pyboot: publishing process level: %v", err)
	}

	if err := resolveTopLevelDirectory(pc, class); err != nil {
		log.Printf("pyboot: resolving application root: %v", err)
		arc.Close()
		return 1
	}

	if err := setupLibrarySearchPath(pc, class); err != nil {
		log.Printf("pyboot: library search path: %v", err)
		arc.Close()
		return 1
	}

	if pc.Level == LevelParentNeedsRestart {
		if err := selfRestart(pc); err != nil {
			log.Printf("pyboot: self-restart: %v", err)
			arc.Close()
			return 1
		}
		// selfRestart never returns on success.
		return 0
	}

	if pc.Level == LevelParent {
		return runSingleFileParent(pc)
	}
	return runMainOrSubprocess(pc)
}

// resolveTopLevelDirectory implements spec.md §4.1's "Top-level directory
// resolution".
func resolveTopLevelDirectory(pc *ProcessContext, class platformClass) error {
	switch pc.Level {
	case LevelParent:
		dir, err := createRestrictedTempDir(os.TempDir(), "_MEI")
		if err != nil {
			return err
		}
		pc.AppRootDir = dir
		return os.Setenv("_PYI_APPLICATION_HOME_DIR", dir)

	case LevelMain, LevelSubprocess, LevelParentNeedsRestart:
		// resolveRole only ever assigns PARENT_NEEDS_RESTART for the
		// directory, other-posix column, so pc.SingleFile is always false
		// here; the inherited-env-var branch below exists only to share
		// this case arm's directory-mode derivation with MAIN/SUBPROCESS.
		if pc.SingleFile {
			dir, ok := os.LookupEnv("_PYI_APPLICATION_HOME_DIR")
			if !ok {
				return fmt.Errorf("%w: single-file role without inherited application home dir", ErrEnvironmentCorrupted)
			}
			pc.AppRootDir = dir
			return nil
		}
		execDir := filepath.Dir(pc.ExecutablePath)
		if pc.BootOptions.ContentsDirectory != "" {
			execDir = filepath.Join(execDir, pc.BootOptions.ContentsDirectory)
		}
		if class == platformDarwin {
			execDir = appBundleFrameworksDir(execDir)
		}
		pc.AppRootDir = execDir
		return nil
	}
	return nil
}

// setupLibrarySearchPath implements spec.md §4.1's "Library search path".
func setupLibrarySearchPath(pc *ProcessContext, class platformClass) error {
	switch pc.Level {
	case LevelMain, LevelSubprocess, LevelParent, LevelParentNeedsRestart:
		return setLibrarySearchPath(pc.AppRootDir)
	default:
		return nil
	}
}

// formatEnvInt renders n as a decimal string for a numeric environment
// variable. Nothing in the package calls it; publishLevel formats its
// value with strconv.Itoa directly.
func formatEnvInt(n int) string { return strconv.Itoa(n) }
