package pyboot

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"
)

// InitProtocol identifies which of the two Python embedding APIs a
// DynamicPython binding exposes (spec.md §4.3).
type InitProtocol int

const (
	// ProtocolLegacy is the PEP 587-style PyConfig API.
	ProtocolLegacy InitProtocol = iota
	// ProtocolNew is the PEP 741-style PyInitConfig API.
	ProtocolNew
)

// Options is the normalized runtime options record produced by the
// Runtime Options Parser (spec.md §3, §4.4). Exactly one of
// {WFlags, WFlagsWide} and one of {XFlags, XFlagsWide} is populated,
// depending on Protocol.
type Options struct {
	Protocol InitProtocol

	Verbose     int
	Unbuffered  bool
	Optimize    int
	HashSeedSet bool
	HashSeed    uint64
	UTF8Mode    int // -1 = auto, 0 = off, 1 = on
	DevMode     bool

	// WFlags/XFlags hold the warning-filter and X-option argument lists as
	// UTF-8 strings, populated only when Protocol == ProtocolNew.
	WFlags []string
	XFlags []string

	// WFlagsWide/XFlagsWide hold the same lists as UTF-16 code unit slices,
	// populated only when Protocol == ProtocolLegacy.
	WFlagsWide [][]uint16
	XFlagsWide [][]uint16
}

// ParseOptions walks an archive's RUNTIME_OPTION entries (ignoring any
// "pyi-"-prefixed entries, which belong to the bootloader-private option
// set parsed separately — see ParseBootOptions) and produces a normalized
// Options record.
//
// It makes two passes over the TOC, per spec.md §4.4: the first counts
// W-flag and X-flag entries and sets every scalar field (verbose,
// unbuffered, optimize, hash seed, and the utf8/dev X-flag aliases, which
// must be known before pre-initialization); the second allocates the flag
// slices at their exact counted size and fills them, in TOC order.
//
// The design note in spec.md §9 about the legacy bootloader aliasing
// num_wflags for both flag kinds is deliberately not reproduced: X-flags
// are counted and indexed with their own variable throughout.
func ParseOptions(arc *Archive, protocol InitProtocol) (*Options, error) {
	opts := &Options{Protocol: protocol, UTF8Mode: -1}

	var wCount, xCount int
	for _, e := range arc.Entries() {
		if e.Type != EntryRuntimeOption || strings.HasPrefix(e.Name, "pyi-") {
			continue
		}
		switch {
		case e.Name == "W" || strings.HasPrefix(e.Name, "W "):
			wCount++
		case e.Name == "X" || strings.HasPrefix(e.Name, "X "):
			xCount++
			if err := applyXAlias(opts, xArg(e.Name)); err != nil {
				return nil, err
			}
		default:
			if err := applyScalarOption(opts, e.Name); err != nil {
				return nil, err
			}
		}
	}

	if protocol == ProtocolNew {
		opts.WFlags = make([]string, 0, wCount)
		opts.XFlags = make([]string, 0, xCount)
	} else {
		opts.WFlagsWide = make([][]uint16, 0, wCount)
		opts.XFlagsWide = make([][]uint16, 0, xCount)
	}

	for _, e := range arc.Entries() {
		if e.Type != EntryRuntimeOption || strings.HasPrefix(e.Name, "pyi-") {
			continue
		}
		switch {
		case e.Name == "W" || strings.HasPrefix(e.Name, "W "):
			appendFlag(opts, protocol, false, wArg(e.Name))
		case e.Name == "X" || strings.HasPrefix(e.Name, "X "):
			appendFlag(opts, protocol, true, xArg(e.Name))
		}
	}

	return opts, nil
}

func wArg(name string) string { return strings.TrimSpace(strings.TrimPrefix(name, "W")) }
func xArg(name string) string { return strings.TrimSpace(strings.TrimPrefix(name, "X")) }

func appendFlag(opts *Options, protocol InitProtocol, isX bool, arg string) {
	if protocol == ProtocolNew {
		if isX {
			opts.XFlags = append(opts.XFlags, arg)
		} else {
			opts.WFlags = append(opts.WFlags, arg)
		}
		return
	}
	wide := utf16.Encode([]rune(arg))
	if isX {
		opts.XFlagsWide = append(opts.XFlagsWide, wide)
	} else {
		opts.WFlagsWide = append(opts.WFlagsWide, wide)
	}
}

// applyXAlias implements the "utf8" and "dev" X-option aliases, which must
// be pre-extracted because they affect pre-initialization (spec.md §4.4,
// §4.5). Convention: a bare name or "name=1" enables, "name=0" disables.
func applyXAlias(opts *Options, arg string) error {
	name, enabled, ok := splitXArgToggle(arg)
	if !ok {
		return nil
	}
	switch name {
	case "utf8":
		if enabled {
			opts.UTF8Mode = 1
		} else {
			opts.UTF8Mode = 0
		}
	case "dev":
		opts.DevMode = enabled
	}
	return nil
}

func splitXArgToggle(arg string) (name string, enabled bool, ok bool) {
	if arg == "" {
		return "", false, false
	}
	if eq := strings.IndexByte(arg, '='); eq >= 0 {
		name = arg[:eq]
		val := arg[eq+1:]
		switch val {
		case "0":
			return name, false, true
		case "1":
			return name, true, true
		default:
			return name, true, true
		}
	}
	return arg, true, true
}

// applyScalarOption handles the single-letter/named scalar and key-value
// RUNTIME_OPTION entries (spec.md §6): v/verbose, u/unbuffered, O/optimize,
// hash_seed=<unsigned-decimal>.
func applyScalarOption(opts *Options, name string) error {
	switch {
	case name == "v" || name == "verbose":
		opts.Verbose++
	case name == "u" || name == "unbuffered":
		opts.Unbuffered = true
	case name == "O" || name == "optimize":
		opts.Optimize++
	case strings.HasPrefix(name, "hash_seed="):
		raw := strings.TrimPrefix(name, "hash_seed=")
		seed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: invalid hash_seed value %q: %v", ErrOptionsParse, raw, err)
		}
		opts.HashSeedSet = true
		opts.HashSeed = seed
	default:
		return fmt.Errorf("%w: unrecognized runtime option %q", ErrOptionsParse, name)
	}
	return nil
}
