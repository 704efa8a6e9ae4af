package pyboot

import "runtime"

// platformClass buckets the running GOOS into the four families the role
// table (spec.md §4.1) branches on.
type platformClass int

const (
	platformWin32 platformClass = iota
	platformDarwin
	platformCygwin
	platformOtherPOSIX
)

func (p platformClass) String() string {
	switch p {
	case platformWin32:
		return "win32"
	case platformDarwin:
		return "darwin"
	case platformCygwin:
		return "cygwin"
	default:
		return "other-posix"
	}
}

// currentPlatformClass classifies runtime.GOOS. Cygwin is never reported by
// runtime.GOOS on the Go toolchain (Cygwin builds are plain windows/linux
// binaries from Go's point of view); platformCygwin is retained only so
// resolveRole and its tests can exercise the role table's cygwin cells by
// passing that class directly.
func currentPlatformClass() platformClass {
	switch runtime.GOOS {
	case "windows":
		return platformWin32
	case "darwin":
		return platformDarwin
	default:
		return platformOtherPOSIX
	}
}
