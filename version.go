package pyboot

import (
	"fmt"
	"strings"
)

// Version represents a Python major.minor.patch version. Minor and Patch
// may be -1 if not specified (e.g. "3" parses as {3, -1, -1}).
type Version struct {
	// Major is the major version number (required).
	Major int

	// Minor is the minor version number (-1 if not specified).
	Minor int

	// Patch is the patch version number (-1 if not specified).
	Patch int
}

// ParseVersion parses a version string into a Version struct.
// Accepts formats: "X.Y.Z", "X.Y", or "X". Any trailing text is ignored.
//
// Examples:
//   - "3.10.5" -> {3, 10, 5}
//   - "3.10" -> {3, 10, -1}
//   - "3" -> {3, -1, -1}
func ParseVersion(versionStr string) (Version, error) {
	version := Version{
		Minor: -1,
		Patch: -1,
	}
	_, err := fmt.Sscanf(versionStr, "%d.%d.%d", &version.Major, &version.Minor, &version.Patch)
	if err != nil {
		_, err = fmt.Sscanf(versionStr, "%d.%d", &version.Major, &version.Minor)
		if err != nil {
			_, err = fmt.Sscanf(versionStr, "%d", &version.Major)
			if err != nil {
				return Version{}, fmt.Errorf("error parsing version: %v", err)
			}
		}
	}
	if version.Major < 0 || version.Minor < -1 || version.Patch < -1 {
		return Version{}, fmt.Errorf("invalid version: %s", versionStr)
	}
	return version, nil
}

// ParseDiscoveredLibName recovers the major.minor Version encoded in a
// discovered libpython file name, e.g. "libpython3.11.so.1.0",
// "libpython3.11.dylib", or "python311.dll" (spec.md §4.3, "load a
// dynamically discovered Python runtime library of unknown-at-build-time
// version"). Unlike ParseVersion, this strips the platform-specific
// prefix/suffix noise first.
func ParseDiscoveredLibName(name string) (Version, error) {
	base := name
	for _, prefix := range []string{"libpython", "python"} {
		if strings.HasPrefix(base, prefix) {
			base = strings.TrimPrefix(base, prefix)
			break
		}
	}
	for _, suffix := range []string{".dylib", ".dll", ".so"} {
		if i := strings.Index(base, suffix); i >= 0 {
			base = base[:i]
			break
		}
	}
	if !strings.Contains(base, ".") && len(base) >= 2 {
		// Compact win32 form, e.g. "311" -> "3.11".
		base = base[:1] + "." + base[1:]
	}
	v, err := ParseVersion(base)
	if err != nil {
		return Version{}, fmt.Errorf("%w: %v", ErrUnsupportedPythonVersion, err)
	}
	return v, nil
}

// Compare returns -1 if v < other, 0 if v == other, or 1 if v > other.
// Comparison is done component by component (major, then minor, then patch).
func (v *Version) Compare(other Version) int {
	if v.Major != other.Major {
		if v.Major > other.Major {
			return 1
		}
		return -1
	}
	if v.Minor != other.Minor {
		if v.Minor > other.Minor {
			return 1
		}
		return -1
	}
	if v.Patch != other.Patch {
		if v.Patch > other.Patch {
			return 1
		}
		return -1
	}
	return 0
}

// String returns the version as a string, omitting unspecified components.
func (v *Version) String() string {
	if v.Patch != -1 {
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	}
	if v.Minor != -1 {
		return fmt.Sprintf("%d.%d", v.Major, v.Minor)
	}
	return fmt.Sprintf("%d", v.Major)
}

// MinorString returns the version as "major.minor" (e.g. "3.10").
func (v *Version) MinorString() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// MinorStringCompact returns the version without a separator (e.g.
// "310"), the form win32 library names use.
func (v *Version) MinorStringCompact() string {
	return fmt.Sprintf("%d%d", v.Major, v.Minor)
}

// Encoded returns the 100*major+minor encoding the legacy layout table
// and PythonBinding.Version use throughout this package.
func (v *Version) Encoded() int { return 100*v.Major + v.Minor }

// LibName returns the conventional shared-library file name for this
// version on the given platform class.
func (v *Version) LibName(p platformClass) string {
	switch p {
	case platformWin32:
		return fmt.Sprintf("python%s.dll", v.MinorStringCompact())
	case platformDarwin:
		return fmt.Sprintf("libpython%s.dylib", v.MinorString())
	default:
		return fmt.Sprintf("libpython%s.so", v.MinorString())
	}
}
