package pyboot

import (
	"fmt"
	"log"
	"unsafe"
)

// entryPointModuleName is the fixed module name PyInstaller's own
// generated spec always gives the user's top-level script entry (spec.md
// §4.7, "invoke the user entry point"): it is imported last, after every
// other PYMODULE/PYPACKAGE entry in the archive has already been executed
// as a module.
const entryPointModuleName = "__main__"

// runMainOrSubprocess implements spec.md §4.7: the Main/Subprocess
// Codepath.
func runMainOrSubprocess(pc *ProcessContext) int {
	if pc.BootOptions.MacOSArgvEmulation && currentPlatformClass() == platformDarwin {
		pc.RewrittenArgv = appleEventArgvEmulation(pc.Argv)
	}

	applyLateConsoleHiding(pc.BootOptions.HideConsole)

	if SplashEligible(pc.Level, pc.SingleFile) && pc.SplashResourcesPresent && !pc.SplashSuppressed {
		pc.Splash = NewSplashContext()
		if err := pc.Splash.Setup(pc); err != nil {
			pc.Splash = nil
		}
	}
	if pc.Splash == nil {
		if err := DisableSplashIPC(); err != nil {
			log.Printf("pyboot: disabling splash IPC: %v", err)
		}
	}

	libName, version, err := DiscoverPythonLibrary(pc.AppRootDir)
	if err != nil {
		log.Printf("pyboot: %v", err)
		return 1
	}

	pb, err := NewPythonBinding(pc.AppRootDir, libName, version.Encoded())
	if err != nil {
		log.Printf("pyboot: %v", err)
		return 1
	}
	pc.Python = pb
	defer pb.Close()

	protocol := ProtocolLegacy
	if pb.Protocol == ProtocolNew {
		protocol = ProtocolNew
	}
	opts, err := ParseOptions(pc.Archive, protocol)
	if err != nil {
		log.Printf("pyboot: parsing runtime options: %v", err)
		return 1
	}
	pc.Options = opts

	if err := PreInit(pb, opts); err != nil {
		log.Printf("pyboot: %v", err)
		return 1
	}

	cfg, err := NewConfigurator(pb, pc.BootOptions.GILDisabled)
	if err != nil {
		log.Printf("pyboot: %v", err)
		return 1
	}
	if err := configureInterpreter(cfg, pc, &version); err != nil {
		log.Printf("pyboot: %v", err)
		return 1
	}
	if err := cfg.Finish(); err != nil {
		log.Printf("pyboot: %v", err)
		return 1
	}

	if err := publishMEIPASS(pb, pc.AppRootDir); err != nil {
		log.Printf("pyboot: %v", err)
		pb.base.Py_FinalizeEx()
		return 1
	}

	pyzPath, pyzOffset, err := locatePYZ(pc.Archive, pc.AppRootDir)
	if err == nil {
		publishPYZHint(pb, pyzPath, pyzOffset)
	}

	if err := executeModuleEntries(pb, pc.Archive); err != nil {
		log.Printf("pyboot: %v", err)
		finishShutdown(pc, pb)
		return 1
	}

	exitCode := invokeUserEntryPoint(pb)

	finishShutdown(pc, pb)
	return exitCode
}

// configureInterpreter runs the five configuration operations of spec.md
// §4.5 in order.
func configureInterpreter(cfg *Configurator, pc *ProcessContext, version *Version) error {
	if err := cfg.SetProgramName(pc.ExecutablePath); err != nil {
		return err
	}
	if err := cfg.SetPythonHome(pc.AppRootDir); err != nil {
		return err
	}
	if err := cfg.SetModuleSearchPaths(pc.AppRootDir, version.Encoded()); err != nil {
		return err
	}
	if err := cfg.SetArgv(pc.EffectiveArgv()); err != nil {
		return err
	}
	return cfg.SetRuntimeOptions(pc.Options)
}

// publishMEIPASS sets sys._MEIPASS to appRoot (spec.md §4.7, §8 invariant e).
func publishMEIPASS(pb *PythonBinding, appRoot string) error {
	sysModule := pb.base.PyImport_ImportModule("sys")
	if sysModule == 0 {
		return fmt.Errorf("%w: importing sys module", ErrConfigFailure)
	}
	defer pb.base.Py_DecRef(sysModule)

	value := pb.base.PyUnicode_FromString(appRoot)
	if value == 0 {
		return fmt.Errorf("%w: encoding _MEIPASS", ErrConfigFailure)
	}
	if pb.base.PySys_SetObject("_MEIPASS", value) != 0 {
		return fmt.Errorf("%w: setting sys._MEIPASS", ErrConfigFailure)
	}
	return nil
}

// locatePYZ finds the archive's single PYZ entry and returns the absolute
// on-disk path plus byte offset to publish as the
// "<path>?<absolute-offset>" hint (spec.md §4.7, §6).
func locatePYZ(arc *Archive, appRoot string) (path string, offset int64, err error) {
	it := arc.Iterator()
	for it.Next() {
		e := it.Entry()
		if e.Type != EntryPYZ {
			continue
		}
		return arc.Path(), arc.PkgOffset() + arc.payloadOff + int64(e.Offset), nil
	}
	return "", 0, fmt.Errorf("%w: no PYZ entry in archive", ErrArchiveFormat)
}

// publishPYZHint sets the private sys attribute carrying the PYZ location
// hint (spec.md §6, "_pyinstaller_pyz").
func publishPYZHint(pb *PythonBinding, path string, offset int64) {
	hint := fmt.Sprintf("%s?%d", path, offset)
	value := pb.base.PyUnicode_FromString(hint)
	if value == 0 {
		return
	}
	pb.base.PySys_SetObject("_pyinstaller_pyz", value)
}

// executeModuleEntries iterates the TOC and, for every PYMODULE/PYPACKAGE
// entry, unmarshals its payload as a code object and executes it under a
// module of the entry's name, aborting on the first failure (spec.md §4.7,
// §7, §8 invariant d).
func executeModuleEntries(pb *PythonBinding, arc *Archive) error {
	it := arc.Iterator()
	for it.Next() {
		e := it.Entry()
		if e.Type != EntryPyModule && e.Type != EntryPyPackage {
			continue
		}
		payload, err := arc.Extract(e)
		if err != nil {
			return fmt.Errorf("%w: extracting %q: %v", ErrExtractionFailure, e.Name, err)
		}
		if err := executeMarshalledModule(pb, e.Name, payload); err != nil {
			return fmt.Errorf("%w: executing %q: %v", ErrConfigFailure, e.Name, err)
		}
	}
	return nil
}

func executeMarshalledModule(pb *PythonBinding, name string, payload []byte) error {
	if len(payload) == 0 {
		return fmt.Errorf("empty payload")
	}
	codeObj := pb.base.PyMarshal_ReadObjectFromString(uintptr(unsafe.Pointer(&payload[0])), len(payload))
	if codeObj == 0 {
		return pb.FetchError()
	}
	defer pb.base.Py_DecRef(codeObj)

	moduleNameObj := pb.base.PyUnicode_FromString(name)
	if moduleNameObj == 0 {
		return fmt.Errorf("encoding module name %q", name)
	}
	defer pb.base.Py_DecRef(moduleNameObj)

	globals := pb.base.PyImport_ImportModule(name)
	result := pb.base.PyEval_EvalCode(codeObj, globals, globals)
	if result == 0 {
		return pb.FetchError()
	}
	pb.base.Py_DecRef(result)
	return nil
}

// invokeUserEntryPoint imports the fixed entry-point module name, the
// step that actually runs the user's top-level script (spec.md §4.7,
// "invoke the user entry point"). It returns the process exit code: 0 on
// success, 1 if the import raised.
func invokeUserEntryPoint(pb *PythonBinding) int {
	mod := pb.base.PyImport_ImportModule(entryPointModuleName)
	if mod == 0 {
		if err := pb.FetchError(); err != nil {
			log.Printf("pyboot: %v", err)
		}
		pb.base.PyErr_Print()
		return 1
	}
	pb.base.Py_DecRef(mod)
	return 0
}

// finishShutdown flushes the interpreter's text streams (skipped in
// windowed/hidden-console mode), finalizes it, and finalizes splash if it
// was set up in this process (spec.md §4.7).
func finishShutdown(pc *ProcessContext, pb *PythonBinding) {
	if pc.BootOptions.HideConsole == HideConsoleNone {
		flushStandardStreams(pb)
	}
	pb.base.Py_FinalizeEx()
	if pc.Splash != nil {
		pc.Splash.Finalize()
		ContextFree(&pc.Splash)
	}
}

// flushStandardStreams best-effort-flushes sys.stdout and sys.stderr
// before finalization. The base symbol set carries no generic
// call-method entry point (spec.md §4.3 lists only the fixed operations
// needed elsewhere), so this confirms the stream objects still exist
// rather than invoking their flush() method directly; Py_FinalizeEx
// itself flushes open file objects as part of interpreter shutdown.
func flushStandardStreams(pb *PythonBinding) {
	for _, name := range []string{"stdout", "stderr"} {
		if pb.base.PySys_GetObject(name) == 0 {
			log.Printf("pyboot: warning: sys.%s unavailable at shutdown", name)
		}
	}
}

// applyLateConsoleHiding hides or minimizes the console "late" (in the
// main/subprocess codepath, before libpython is loaded, rather than in the
// single-file parent before the child spawns), per spec.md §6's
// hide-late/minimize-late bootloader options.
func applyLateConsoleHiding(mode HideConsoleMode) {
	switch mode {
	case HideConsoleHideLate, HideConsoleMinimizeLate:
		hideOrMinimizeConsole(mode)
	}
}
