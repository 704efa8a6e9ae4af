package pyboot

import (
	"fmt"
	"os"
	"strconv"
)

// ProcessLevel is this process's role in the parent/child/subprocess
// hierarchy. It round-trips through the _PYI_PARENT_PROCESS_LEVEL
// environment variable as a small signed decimal integer.
type ProcessLevel int

const (
	// LevelUnknown means no _PYI_PARENT_PROCESS_LEVEL was observed; this is
	// the first process in the chain.
	LevelUnknown ProcessLevel = -2

	// LevelParentNeedsRestart means this process must re-exec itself (with
	// the library search path configured); the restarted process then
	// classifies itself against this level (as MAIN in directory mode).
	LevelParentNeedsRestart ProcessLevel = -1

	// LevelParent means this process extracts the archive and spawns a
	// child, in single-file mode.
	LevelParent ProcessLevel = 0

	// LevelMain means this process runs the embedded interpreter directly.
	LevelMain ProcessLevel = 1

	// LevelSubprocess means this process was spawned by a MAIN process
	// (the child of a single-file PARENT is MAIN, not SUBPROCESS) and runs
	// the embedded interpreter.
	LevelSubprocess ProcessLevel = 2
)

func (l ProcessLevel) String() string {
	switch l {
	case LevelUnknown:
		return "UNKNOWN"
	case LevelParentNeedsRestart:
		return "PARENT_NEEDS_RESTART"
	case LevelParent:
		return "PARENT"
	case LevelMain:
		return "MAIN"
	case LevelSubprocess:
		return "SUBPROCESS"
	default:
		return fmt.Sprintf("ProcessLevel(%d)", int(l))
	}
}

// parentLevelEnvVar is the environment variable a parent publishes its
// resolved level into, so the next process in the chain can classify
// itself against it.
const parentLevelEnvVar = "_PYI_PARENT_PROCESS_LEVEL"

// readParentLevel reads _PYI_PARENT_PROCESS_LEVEL from the environment.
// Absence, or a value that doesn't parse as a small signed integer, is
// reported as LevelUnknown.
func readParentLevel() ProcessLevel {
	raw, ok := os.LookupEnv(parentLevelEnvVar)
	if !ok {
		return LevelUnknown
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return LevelUnknown
	}
	return ProcessLevel(n)
}

// publishLevel writes lvl to _PYI_PARENT_PROCESS_LEVEL, unless lvl is
// LevelSubprocess — a subprocess never publishes, since nothing below it
// in the hierarchy ever reads the variable (spec.md §8, invariant a).
func publishLevel(lvl ProcessLevel) error {
	if lvl == LevelSubprocess {
		return nil
	}
	return os.Setenv(parentLevelEnvVar, strconv.Itoa(int(lvl)))
}
