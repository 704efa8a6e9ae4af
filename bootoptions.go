package pyboot

import "strings"

// HideConsoleMode selects when and how the bootloader hides or minimizes
// its console window (spec.md §6, pyi-hide-console).
type HideConsoleMode int

const (
	HideConsoleNone HideConsoleMode = iota
	HideConsoleHideEarly
	HideConsoleHideLate
	HideConsoleMinimizeEarly
	HideConsoleMinimizeLate
)

// BootOptions is the normalized set of bootloader-private options: the
// TOC entries of type RUNTIME_OPTION whose name carries the "pyi-" prefix
// (spec.md §6). ParseOptions explicitly ignores these; ParseBootOptions
// is the component that reads them.
type BootOptions struct {
	GILDisabled              bool
	RuntimeTmpDir            string
	ContentsDirectory        string
	MacOSArgvEmulation       bool
	HideConsole              HideConsoleMode
	DisableWindowedTraceback bool
	IgnoredSignalNames       []string
}

// ParseBootOptions walks an archive's RUNTIME_OPTION entries and collects
// every "pyi-"-prefixed one into a BootOptions record.
func ParseBootOptions(arc *Archive) BootOptions {
	var bo BootOptions
	for _, e := range arc.Entries() {
		if e.Type != EntryRuntimeOption || !strings.HasPrefix(e.Name, "pyi-") {
			continue
		}
		name, arg, _ := strings.Cut(strings.TrimPrefix(e.Name, "pyi-"), " ")
		switch name {
		case "python-flag":
			if arg == "Py_GIL_DISABLED" {
				bo.GILDisabled = true
			}
		case "runtime-tmpdir":
			bo.RuntimeTmpDir = arg
		case "contents-directory":
			bo.ContentsDirectory = arg
		case "macos-argv-emulation":
			bo.MacOSArgvEmulation = true
		case "hide-console":
			bo.HideConsole = parseHideConsoleMode(arg)
		case "disable-windowed-traceback":
			bo.DisableWindowedTraceback = true
		case "bootloader-ignore-signals":
			if arg != "" {
				bo.IgnoredSignalNames = strings.Split(arg, ",")
			}
		}
	}
	return bo
}

func parseHideConsoleMode(arg string) HideConsoleMode {
	switch arg {
	case "hide-early":
		return HideConsoleHideEarly
	case "hide-late":
		return HideConsoleHideLate
	case "minimize-early":
		return HideConsoleMinimizeEarly
	case "minimize-late":
		return HideConsoleMinimizeLate
	default:
		return HideConsoleNone
	}
}
