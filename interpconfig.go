package pyboot

import (
	"encoding/binary"
	"fmt"
	"runtime"
	"unicode/utf16"
	"unsafe"
)

// preConfigSize and field offsets for the small, version-independent
// PyPreConfig buffer. Unlike the main config, spec.md §4.5 never calls out
// per-version layout knowledge for pre-init, so one fixed layout serves
// every supported version.
const (
	preConfigSize       = 32
	preConfigUTF8Offset = 8
	preConfigDevOffset  = 12
)

// Configurator is the Interpreter Configurator (spec.md §4.5): it owns the
// in-progress PyConfig/PyPreConfig (legacy) or PyInitConfig (new) buffer
// and exposes the five configuration operations against whichever protocol
// pb bound.
type Configurator struct {
	pb         *PythonBinding
	legacyBuf  []byte
	legacyOff  legacyLayout
	newConfig  uintptr
	keepAlive  []interface{}
	gilDisabled bool
}

// NewConfigurator allocates the protocol-appropriate configuration object.
// gilDisabled selects the free-threaded legacy layout when applicable; it
// is ignored under the new protocol, which has no version-specific layout
// to select (spec.md §4.5).
func NewConfigurator(pb *PythonBinding, gilDisabled bool) (*Configurator, error) {
	c := &Configurator{pb: pb, gilDisabled: gilDisabled}
	switch pb.Protocol {
	case ProtocolNew:
		c.newConfig = pb.new.PyInitConfig_Create()
		if c.newConfig == 0 {
			return nil, fmt.Errorf("%w: PyInitConfig_Create returned NULL", ErrConfigFailure)
		}
	case ProtocolLegacy:
		layout, err := lookupLegacyLayout(pb.Version, gilDisabled)
		if err != nil {
			return nil, err
		}
		c.legacyOff = layout
		c.legacyBuf = make([]byte, layout.size)
		pb.legacy.PyConfig_InitPythonConfig(c.bufPtr())
	default:
		return nil, fmt.Errorf("%w: unknown protocol", ErrConfigFailure)
	}
	return c, nil
}

func (c *Configurator) bufPtr() uintptr {
	if len(c.legacyBuf) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&c.legacyBuf[0]))
}

// PreInit runs Py_PreInitialize with utf8-mode and dev-mode taken from
// opts, and asks the platform port to configure the process locale first
// (spec.md §4.5: "Pre-initialization: populate a PreConfig ... ask the
// runtime to configure the process locale, and call pre-init").
func PreInit(pb *PythonBinding, opts *Options) error {
	configureProcessLocale()

	buf := make([]byte, preConfigSize)
	binary.LittleEndian.PutUint32(buf[preConfigUTF8Offset:], uint32(int32(opts.UTF8Mode)))
	devMode := int32(0)
	if opts.DevMode {
		devMode = 1
	}
	binary.LittleEndian.PutUint32(buf[preConfigDevOffset:], uint32(devMode))

	status := pb.base.PyPreInitialize(uintptr(unsafe.Pointer(&buf[0])))
	runtime.KeepAlive(buf)
	if status.Exception() {
		return fmt.Errorf("%w: Py_PreInitialize failed", ErrConfigFailure)
	}
	return nil
}

// SetProgramName fills program_name/program name (spec.md §4.5).
func (c *Configurator) SetProgramName(path string) error {
	if c.newConfig != 0 {
		if c.pb.new.PyInitConfig_SetStr(c.newConfig, "program_name", path) == 0 {
			return c.newConfigError("program_name")
		}
		return nil
	}
	return c.setLegacyWideField(c.legacyOff.programName, path)
}

// SetPythonHome fills home (spec.md §4.5).
func (c *Configurator) SetPythonHome(home string) error {
	if c.newConfig != 0 {
		if c.pb.new.PyInitConfig_SetStr(c.newConfig, "home", home) == 0 {
			return c.newConfigError("home")
		}
		return nil
	}
	return c.setLegacyWideField(c.legacyOff.home, home)
}

// SetModuleSearchPaths fills the three module search paths, in order:
// {home}/base_library.zip, {home}/python{major}.{minor}/lib-dynload, and
// {home}, forcing the runtime's "paths were set" flag so it never
// reconstructs them itself (spec.md §4.5).
func (c *Configurator) SetModuleSearchPaths(home string, pyVersion int) error {
	major, minor := pyVersion/100, pyVersion%100
	paths := []string{
		fmt.Sprintf("%s/base_library.zip", home),
		fmt.Sprintf("%s/python%d.%d/lib-dynload", home, major, minor),
		home,
	}

	if c.newConfig != 0 {
		ptr, n, err := c.buildUTF8Array(paths)
		if err != nil {
			return err
		}
		if c.pb.new.PyInitConfig_SetStrList(c.newConfig, "module_search_paths", n, ptr) == 0 {
			return c.newConfigError("module_search_paths")
		}
		if c.pb.new.PyInitConfig_SetInt(c.newConfig, "module_search_paths_set", 1) == 0 {
			return c.newConfigError("module_search_paths_set")
		}
		return nil
	}

	ptr, n, err := c.buildWideArray(paths)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(c.legacyBuf[c.legacyOff.moduleSearchPathsLen:], uint64(n))
	binary.LittleEndian.PutUint64(c.legacyBuf[c.legacyOff.moduleSearchPathsItems:], uint64(ptr))
	binary.LittleEndian.PutUint32(c.legacyBuf[c.legacyOff.moduleSearchPathsSet:], 1)
	return nil
}

// SetArgv fills argv. Per spec.md §4.5, callers pass the rewritten argv
// when present (ProcessContext.EffectiveArgv handles that selection).
func (c *Configurator) SetArgv(argv []string) error {
	if c.newConfig != 0 {
		ptr, n, err := c.buildUTF8Array(argv)
		if err != nil {
			return err
		}
		if c.pb.new.PyInitConfig_SetStrList(c.newConfig, "argv", n, ptr) == 0 {
			return c.newConfigError("argv")
		}
		return nil
	}
	ptr, n, err := c.buildWideArray(argv)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(c.legacyBuf[c.legacyOff.argvLen:], uint64(n))
	binary.LittleEndian.PutUint64(c.legacyBuf[c.legacyOff.argvItems:], uint64(ptr))
	binary.LittleEndian.PutUint32(c.legacyBuf[c.legacyOff.parseArgv:], 0)
	return nil
}

// SetRuntimeOptions applies the Options record to the config, per the
// mapping in spec.md §4.5: disable site import, disable bytecode writing,
// enable configured C stdio, set optimization level, set buffered-stdio to
// the logical negation of Unbuffered, set verbose, set use-hash-seed and
// hash-seed, re-set dev-mode, request signal-handler installation, and
// pass W-flags/X-flags into warnoptions/xoptions.
func (c *Configurator) SetRuntimeOptions(opts *Options) error {
	bufferedStdio := int64(1)
	if opts.Unbuffered {
		bufferedStdio = 0
	}
	devMode := int64(0)
	if opts.DevMode {
		devMode = 1
	}
	useHashSeed := int64(0)
	if opts.HashSeedSet {
		useHashSeed = 1
	}

	if c.newConfig != 0 {
		ints := map[string]int64{
			"site_import":             0,
			"write_bytecode":          0,
			"configure_c_stdio":       1,
			"optimization_level":      int64(opts.Optimize),
			"buffered_stdio":          bufferedStdio,
			"verbose":                 int64(opts.Verbose),
			"use_hash_seed":           useHashSeed,
			"hash_seed":               int64(opts.HashSeed),
			"dev_mode":                devMode,
			"install_signal_handlers": 1,
		}
		for name, v := range ints {
			if c.pb.new.PyInitConfig_SetInt(c.newConfig, name, v) == 0 {
				return c.newConfigError(name)
			}
		}
		if len(opts.WFlags) > 0 {
			ptr, n, err := c.buildUTF8Array(opts.WFlags)
			if err != nil {
				return err
			}
			if c.pb.new.PyInitConfig_SetStrList(c.newConfig, "warnoptions", n, ptr) == 0 {
				return c.newConfigError("warnoptions")
			}
		}
		if len(opts.XFlags) > 0 {
			ptr, n, err := c.buildUTF8Array(opts.XFlags)
			if err != nil {
				return err
			}
			if c.pb.new.PyInitConfig_SetStrList(c.newConfig, "xoptions", n, ptr) == 0 {
				return c.newConfigError("xoptions")
			}
		}
		return nil
	}

	buf, off := c.legacyBuf, c.legacyOff
	binary.LittleEndian.PutUint32(buf[off.siteImport:], 0)
	binary.LittleEndian.PutUint32(buf[off.writeBytecode:], 0)
	binary.LittleEndian.PutUint32(buf[off.configureCStdio:], 1)
	binary.LittleEndian.PutUint32(buf[off.optimizationLevel:], uint32(opts.Optimize))
	binary.LittleEndian.PutUint32(buf[off.bufferedStdio:], uint32(bufferedStdio))
	binary.LittleEndian.PutUint32(buf[off.verbose:], uint32(opts.Verbose))
	binary.LittleEndian.PutUint32(buf[off.useHashSeed:], uint32(useHashSeed))
	binary.LittleEndian.PutUint64(buf[off.hashSeed:], opts.HashSeed)
	binary.LittleEndian.PutUint32(buf[off.devMode:], uint32(devMode))
	binary.LittleEndian.PutUint32(buf[off.installSignalHandlers:], 1)

	if len(opts.WFlagsWide) > 0 {
		ptr, n, err := c.buildWideArrayFromWide(opts.WFlagsWide)
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint64(buf[off.warnoptionsLen:], uint64(n))
		binary.LittleEndian.PutUint64(buf[off.warnoptionsItems:], uint64(ptr))
	}
	if len(opts.XFlagsWide) > 0 {
		ptr, n, err := c.buildWideArrayFromWide(opts.XFlagsWide)
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint64(buf[off.xoptionsLen:], uint64(n))
		binary.LittleEndian.PutUint64(buf[off.xoptionsItems:], uint64(ptr))
	}
	return nil
}

// Finish calls the protocol's initialize entry point, translating a
// failure status into an error with whatever Python exception is
// available (spec.md §4.5, §7).
func (c *Configurator) Finish() error {
	if c.newConfig != 0 {
		defer c.pb.new.PyInitConfig_Free(c.newConfig)
		if c.pb.new.Py_InitializeFromInitConfig(c.newConfig) == 0 {
			var errPtr uintptr
			c.pb.new.PyInitConfig_GetError(c.newConfig, &errPtr)
			return fmt.Errorf("%w: %s", ErrConfigFailure, fromWide(errPtr))
		}
		return nil
	}
	defer c.pb.legacy.PyConfig_Clear(c.bufPtr())
	status := c.pb.legacy.Py_InitializeFromConfig(c.bufPtr())
	runtime.KeepAlive(c.legacyBuf)
	if status.Exception() {
		return fmt.Errorf("%w: Py_InitializeFromConfig failed", ErrConfigFailure)
	}
	return nil
}

func (c *Configurator) newConfigError(field string) error {
	var errPtr uintptr
	c.pb.new.PyInitConfig_GetError(c.newConfig, &errPtr)
	return fmt.Errorf("%w: setting %s: %s", ErrConfigFailure, field, fromWide(errPtr))
}

func (c *Configurator) setLegacyWideField(offset uintptr, s string) error {
	ws, err := toWide(s)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfigFailure, err)
	}
	c.keepAlive = append(c.keepAlive, ws)
	binary.LittleEndian.PutUint64(c.legacyBuf[offset:], uint64(ws.ptr))
	return nil
}

// buildWideArray converts strs to a heap-pinned array of wide_t* pointers
// suitable for a PyWideStringList.items field, returning the array's base
// pointer and length.
func (c *Configurator) buildWideArray(strs []string) (uintptr, int, error) {
	items := make([]uintptr, len(strs))
	for i, s := range strs {
		ws, err := toWide(s)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: %v", ErrConfigFailure, err)
		}
		c.keepAlive = append(c.keepAlive, ws)
		items[i] = ws.ptr
	}
	c.keepAlive = append(c.keepAlive, items)
	if len(items) == 0 {
		return 0, 0, nil
	}
	return uintptr(unsafe.Pointer(&items[0])), len(items), nil
}

func (c *Configurator) buildWideArrayFromWide(preEncoded [][]uint16) (uintptr, int, error) {
	strs := make([]string, len(preEncoded))
	for i, w := range preEncoded {
		strs[i] = string(utf16.Decode(w))
	}
	return c.buildWideArray(strs)
}

// buildUTF8Array converts strs to a heap-pinned array of null-terminated
// UTF-8 char* pointers, for the new protocol's *_SetStrList calls.
func (c *Configurator) buildUTF8Array(strs []string) (uintptr, int, error) {
	items := make([]uintptr, len(strs))
	for i, s := range strs {
		b := append([]byte(s), 0)
		c.keepAlive = append(c.keepAlive, b)
		items[i] = uintptr(unsafe.Pointer(&b[0]))
	}
	c.keepAlive = append(c.keepAlive, items)
	if len(items) == 0 {
		return 0, 0, nil
	}
	return uintptr(unsafe.Pointer(&items[0])), len(items), nil
}
