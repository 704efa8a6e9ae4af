//go:build windows

package pyboot

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// toWide converts a UTF-8 Go string to a null-terminated UTF-16 buffer,
// matching win32's native wchar_t width.
func toWide(s string) (wideString, error) {
	units, err := windows.UTF16FromString(s)
	if err != nil {
		return wideString{}, err
	}
	return wideString{ptr: uintptr(unsafe.Pointer(&units[0])), len: len(units) - 1}, nil
}

// fromWide converts a null-terminated UTF-16 buffer back to a UTF-8 string.
func fromWide(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}
	return windows.UTF16PtrToString((*uint16)(unsafe.Pointer(ptr)))
}

// localeToUTF8 decodes bytes in the process's ANSI code page to UTF-8.
// Console/argv bytes on win32 are already UTF-16 by the time Go sees them
// (via os.Args), so this is a passthrough on this platform.
func localeToUTF8(b []byte) string { return string(b) }

// utf8ToLocale is the inverse of localeToUTF8.
func utf8ToLocale(s string) []byte { return []byte(s) }
