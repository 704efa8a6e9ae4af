package pyboot

import (
	"fmt"
	"path/filepath"

	"github.com/ebitengine/purego"
)

// PyObject and PyThreadState mirror the opaque pointer types of the Python
// C API; the bootloader never dereferences them itself.
type PyObject uintptr
type PyThreadState uintptr

// PyStatus mirrors CPython's PyStatus struct, returned by both the legacy
// and new initialization protocols' entry points.
type PyStatus struct {
	Type     int32
	Func     uintptr
	ErrMsg   uintptr
	ExitCode int32
}

// Exception reports whether a PyStatus represents a failure.
func (s PyStatus) Exception() bool { return s.Type != 0 }

// baseSymbols are bound regardless of which initialization protocol is
// available (spec.md §4.3): pre-init, module import, marshal-read,
// sys-object get/set, unicode helpers, finalize, error handling, eval.
type baseSymbols struct {
	PyPreInitialize                func(uintptr) PyStatus
	PyImport_ImportModule          func(string) PyObject
	PyMarshal_ReadObjectFromString  func(uintptr, int) PyObject
	PySys_GetObject                 func(string) PyObject
	PySys_SetObject                 func(string, PyObject) int
	PyUnicode_FromString             func(string) PyObject
	PyUnicode_AsUTF8                 func(PyObject) string
	Py_FinalizeEx                    func() int32
	PyErr_Occurred                   func() PyObject
	PyErr_Print                      func()
	PyErr_Fetch                      func(*PyObject, *PyObject, *PyObject)
	PyErr_Clear                      func()
	PyEval_EvalCode                  func(PyObject, PyObject, PyObject) PyObject
	Py_DecRef                        func(PyObject)
	Py_IncRef                        func(PyObject)
}

// legacySymbols are bound only when the new protocol's probe symbol is
// absent: the PEP 587-style PyConfig API.
type legacySymbols struct {
	PyConfig_InitPythonConfig func(uintptr)
	PyConfig_Clear            func(uintptr)
	PyWideStringList_Append   func(uintptr, *uint16) PyStatus
	Py_InitializeFromConfig   func(uintptr) PyStatus
}

// newSymbols are bound only when the new protocol's probe symbol
// ("PyInitConfig_Create") resolves: the PEP 741-style PyInitConfig API.
type newSymbols struct {
	PyInitConfig_Create      func() uintptr
	PyInitConfig_Free        func(uintptr)
	PyInitConfig_SetInt      func(uintptr, string, int64) int32
	PyInitConfig_SetStr      func(uintptr, string, string) int32
	PyInitConfig_SetStrList  func(uintptr, string, int, uintptr) int32
	Py_InitializeFromInitConfig func(uintptr) int32
	PyInitConfig_GetError       func(uintptr, *uintptr) int32
}

// newProtocolProbeSymbol is checked first; its presence selects the new
// initialization protocol over the legacy one (spec.md §4.3).
const newProtocolProbeSymbol = "PyInitConfig_Create"

// PythonBinding owns a loaded libpython, its numeric version (100*major +
// minor), which initialization protocol it bound, and the resolved
// function table for that protocol plus the always-present base set
// (spec.md §3, "Dynamic Python Handle").
type PythonBinding struct {
	handle   uintptr
	Version  int
	Protocol InitProtocol

	base   baseSymbols
	legacy legacySymbols
	new    newSymbols
}

// NewPythonBinding loads the discovered libpython (appRoot/libName) and
// binds either the legacy or new initialization protocol, always also
// binding the common base symbol set (spec.md §4.3).
//
// Before the library is opened, the platform's preloadBundledRuntimeLibs
// pre-loads any bundled C-runtime copy that sits beside it
// (vcruntime140.dll on Windows, libpython-runtime.dylib on darwin,
// libstdc++/libgcc_s on other POSIX systems; spec.md §4.3).
func NewPythonBinding(appRoot, libName string, version int) (*PythonBinding, error) {
	libPath := filepath.Join(appRoot, libName)

	preloadBundledRuntimeLibs(appRoot)

	handle, err := purego.Dlopen(libPath, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, fmt.Errorf("%w: dlopen %q: %v", ErrDynLibLoad, libPath, err)
	}

	pb := &PythonBinding{handle: handle, Version: version}
	if err := pb.bindBase(); err != nil {
		purego.Dlclose(handle)
		return nil, err
	}

	if _, err := purego.Dlsym(handle, newProtocolProbeSymbol); err == nil {
		pb.Protocol = ProtocolNew
		if err := pb.bindNew(); err != nil {
			purego.Dlclose(handle)
			return nil, err
		}
	} else {
		pb.Protocol = ProtocolLegacy
		if err := pb.bindLegacy(); err != nil {
			purego.Dlclose(handle)
			return nil, err
		}
	}

	return pb, nil
}

func (pb *PythonBinding) bindBase() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrSymbolMissing, r)
		}
	}()
	b := &pb.base
	purego.RegisterLibFunc(&b.PyPreInitialize, pb.handle, "Py_PreInitialize")
	purego.RegisterLibFunc(&b.PyImport_ImportModule, pb.handle, "PyImport_ImportModule")
	purego.RegisterLibFunc(&b.PyMarshal_ReadObjectFromString, pb.handle, "PyMarshal_ReadObjectFromString")
	purego.RegisterLibFunc(&b.PySys_GetObject, pb.handle, "PySys_GetObject")
	purego.RegisterLibFunc(&b.PySys_SetObject, pb.handle, "PySys_SetObject")
	purego.RegisterLibFunc(&b.PyUnicode_FromString, pb.handle, "PyUnicode_FromString")
	purego.RegisterLibFunc(&b.PyUnicode_AsUTF8, pb.handle, "PyUnicode_AsUTF8")
	purego.RegisterLibFunc(&b.Py_FinalizeEx, pb.handle, "Py_FinalizeEx")
	purego.RegisterLibFunc(&b.PyErr_Occurred, pb.handle, "PyErr_Occurred")
	purego.RegisterLibFunc(&b.PyErr_Print, pb.handle, "PyErr_Print")
	purego.RegisterLibFunc(&b.PyErr_Fetch, pb.handle, "PyErr_Fetch")
	purego.RegisterLibFunc(&b.PyErr_Clear, pb.handle, "PyErr_Clear")
	purego.RegisterLibFunc(&b.PyEval_EvalCode, pb.handle, "PyEval_EvalCode")
	purego.RegisterLibFunc(&b.Py_DecRef, pb.handle, "Py_DecRef")
	purego.RegisterLibFunc(&b.Py_IncRef, pb.handle, "Py_IncRef")
	return nil
}

func (pb *PythonBinding) bindLegacy() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrSymbolMissing, r)
		}
	}()
	l := &pb.legacy
	purego.RegisterLibFunc(&l.PyConfig_InitPythonConfig, pb.handle, "PyConfig_InitPythonConfig")
	purego.RegisterLibFunc(&l.PyConfig_Clear, pb.handle, "PyConfig_Clear")
	purego.RegisterLibFunc(&l.PyWideStringList_Append, pb.handle, "PyWideStringList_Append")
	purego.RegisterLibFunc(&l.Py_InitializeFromConfig, pb.handle, "Py_InitializeFromConfig")
	return nil
}

func (pb *PythonBinding) bindNew() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrSymbolMissing, r)
		}
	}()
	n := &pb.new
	purego.RegisterLibFunc(&n.PyInitConfig_Create, pb.handle, "PyInitConfig_Create")
	purego.RegisterLibFunc(&n.PyInitConfig_Free, pb.handle, "PyInitConfig_Free")
	purego.RegisterLibFunc(&n.PyInitConfig_SetInt, pb.handle, "PyInitConfig_SetInt")
	purego.RegisterLibFunc(&n.PyInitConfig_SetStr, pb.handle, "PyInitConfig_SetStr")
	purego.RegisterLibFunc(&n.PyInitConfig_SetStrList, pb.handle, "PyInitConfig_SetStrList")
	purego.RegisterLibFunc(&n.Py_InitializeFromInitConfig, pb.handle, "Py_InitializeFromInitConfig")
	purego.RegisterLibFunc(&n.PyInitConfig_GetError, pb.handle, "PyInitConfig_GetError")
	return nil
}

// dlopenBestEffort loads path and leaks the handle; used for preloading
// optional runtime-library copies where a failure is not fatal to the
// binding overall.
func dlopenBestEffort(path string) {
	purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
}

// Close unloads the library. The PythonBinding is moved exactly once into
// a ProcessContext and dropped at program shutdown or on init failure
// (spec.md §4.3).
func (pb *PythonBinding) Close() error {
	if pb.handle == 0 {
		return nil
	}
	h := pb.handle
	pb.handle = 0
	return purego.Dlclose(h)
}

// FetchError retrieves the current Python exception, if any, and clears
// the interpreter's error state.
func (pb *PythonBinding) FetchError() error {
	var ptype, pvalue, ptraceback PyObject
	pb.base.PyErr_Fetch(&ptype, &pvalue, &ptraceback)
	if pvalue == 0 {
		return nil
	}
	msg := pb.base.PyUnicode_AsUTF8(pvalue)
	if ptype != 0 {
		pb.base.Py_DecRef(ptype)
	}
	pb.base.Py_DecRef(pvalue)
	if ptraceback != 0 {
		pb.base.Py_DecRef(ptraceback)
	}
	if msg == "" {
		return ErrConfigFailure
	}
	return fmt.Errorf("%w: %s", ErrConfigFailure, msg)
}
