//go:build linux

package pyboot

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// applyLinuxProcessName sets this process's kernel-visible name via
// prctl(PR_SET_NAME), consuming _PYI_LINUX_PROCESS_NAME (spec.md §6,
// "Environment variables (consumed)": "_PYI_LINUX_PROCESS_NAME (≤ 15 bytes,
// linux-only)"). The kernel silently truncates at 15 bytes plus the NUL
// terminator, so longer names are truncated here rather than rejected.
func applyLinuxProcessName(name string) {
	if name == "" {
		return
	}
	if len(name) > 15 {
		name = name[:15]
	}
	buf := make([]byte, len(name)+1)
	copy(buf, name)
	unix.Prctl(unix.PR_SET_NAME, uintptr(unsafe.Pointer(&buf[0])), 0, 0, 0)
}
