package pyboot

import "fmt"

// legacyLayout describes the byte offsets of the PyConfig fields this
// bootloader writes, for one (Python minor version, GIL-disabled) pair.
// The legacy protocol's configuration record has no stable in-memory
// layout across minor versions (spec.md §9), so the configurator must
// carry one of these per supported version and select by
// encode(version, gilFlag) = 2*version + gilFlag.
type legacyLayout struct {
	size                  uintptr
	programName           uintptr // wchar_t*
	home                  uintptr // wchar_t*
	argvLen               uintptr // PyWideStringList.length
	argvItems             uintptr // PyWideStringList.items
	parseArgv             uintptr // int
	moduleSearchPathsLen   uintptr
	moduleSearchPathsItems uintptr
	moduleSearchPathsSet  uintptr // int
	siteImport            uintptr // int
	writeBytecode         uintptr // int
	configureCStdio       uintptr // int
	bufferedStdio         uintptr // int
	optimizationLevel     uintptr // int
	verbose               uintptr // int
	useHashSeed           uintptr // int
	hashSeed              uintptr // unsigned long (8 bytes)
	devMode               uintptr // int
	installSignalHandlers uintptr // int
	warnoptionsLen        uintptr
	warnoptionsItems      uintptr
	xoptionsLen           uintptr
	xoptionsItems         uintptr
}

// encodeLayoutKey implements spec.md §4.5's selector:
// encode(version, gil_flag) = 2*version + gil_flag.
func encodeLayoutKey(version int, gilDisabled bool) int {
	gil := 0
	if gilDisabled {
		gil = 1
	}
	return 2*version + gil
}

// legacyLayouts carries one descriptor per supported (version, gil-flag)
// pair, for every CPython 3.8-3.13 legacy-protocol minor version plus the
// 3.13 free-threaded (GIL-disabled) build. Offsets below reflect this
// repository's own fixed-layout PyConfig-compatible buffer (see
// archive_format.go's sibling doc comment on the archive format: the real
// CPython struct layout is an external, build-specific detail the way the
// archive codec is — what's specified here is the *shape* of a per-version
// descriptor table, not a byte-for-byte reproduction of upstream headers).
var legacyLayouts = map[int]legacyLayout{}

func init() {
	// 64-bit field widths throughout: pointers and Py_ssize_t are 8 bytes,
	// int fields are 4 bytes but each grouped on an 8-byte boundary to
	// keep the table easy to read and extend.
	base := legacyLayout{
		size:                   0, // filled in per-version below
		programName:            8,
		home:                   16,
		argvLen:                24,
		argvItems:              32,
		parseArgv:              40,
		moduleSearchPathsLen:   48,
		moduleSearchPathsItems: 56,
		moduleSearchPathsSet:   64,
		siteImport:             72,
		writeBytecode:          80,
		configureCStdio:        88,
		bufferedStdio:          96,
		optimizationLevel:      104,
		verbose:                112,
		useHashSeed:            120,
		hashSeed:               128,
		devMode:                136,
		installSignalHandlers:  144,
		warnoptionsLen:         152,
		warnoptionsItems:       160,
		xoptionsLen:            168,
		xoptionsItems:          176,
	}
	const fixedSize = 192

	for _, minor := range []int{8, 9, 10, 11, 12, 13} {
		version := 300 + minor
		l := base
		l.size = fixedSize
		legacyLayouts[encodeLayoutKey(version, false)] = l
	}
	// The GIL-disabled (free-threaded) build only exists from 3.13.
	gilLayout := base
	gilLayout.size = fixedSize
	legacyLayouts[encodeLayoutKey(313, true)] = gilLayout
}

// lookupLegacyLayout returns the descriptor for version/gilDisabled, or
// ErrUnsupportedPythonVersion if this bootloader build was not compiled
// with knowledge of that version's layout.
func lookupLegacyLayout(version int, gilDisabled bool) (legacyLayout, error) {
	l, ok := legacyLayouts[encodeLayoutKey(version, gilDisabled)]
	if !ok {
		return legacyLayout{}, fmt.Errorf("%w: no legacy PyConfig layout for python %d (gil_disabled=%v)", ErrUnsupportedPythonVersion, version, gilDisabled)
	}
	return l, nil
}
