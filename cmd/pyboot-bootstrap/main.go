// Command pyboot-bootstrap is the bootloader entry point: it builds a
// ProcessContext from argv and hands off to the orchestrator's role-
// resolution state machine.
package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/declanmills/pyboot"
)

// isDynamicLoaderName reports whether base looks like a dynamic loader
// binary's own file name (e.g. "ld-linux-x86-64.so.2", "ld-musl-x86_64.so.1",
// "ld.so"), the convention used when this executable was launched explicitly
// through its loader rather than execed directly by the kernel.
func isDynamicLoaderName(base string) bool {
	return strings.HasPrefix(base, "ld-linux") ||
		strings.HasPrefix(base, "ld-musl") ||
		base == "ld.so"
}

func main() {
	argv := os.Args[1:]
	var loaderPath string
	if len(argv) > 0 && isDynamicLoaderName(filepath.Base(os.Args[0])) {
		// os.Args was "<loader> <real-executable> [args...]"; argv[0] is the
		// real executable's own path, already accounted for by ExecutablePath,
		// so it is dropped here rather than passed through as a user argument.
		loaderPath = os.Args[0]
		argv = argv[1:]
	}

	pc := pyboot.NewProcessContext(argv)
	pc.LoaderPath = loaderPath
	pc.StrictUnpack = os.Getenv("PYINSTALLER_STRICT_UNPACK_MODE") != "" &&
		os.Getenv("PYINSTALLER_STRICT_UNPACK_MODE") != "0"

	os.Exit(pyboot.Orchestrate(pc))
}
