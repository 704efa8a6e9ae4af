//go:build !windows

package pyboot

import "unsafe"

// toWide converts a UTF-8 Go string to a null-terminated UCS-4 buffer,
// matching POSIX's native wchar_t width. The returned pointer refers to a
// slice kept alive for the duration of the call by the caller retaining a
// reference; callers that hand it to purego must runtime.KeepAlive the
// backing slice until the call returns.
func toWide(s string) (wideString, error) {
	runes := []rune(s)
	buf := make([]uint32, len(runes)+1)
	for i, r := range runes {
		buf[i] = uint32(r)
	}
	return wideString{ptr: uintptr(unsafe.Pointer(&buf[0])), len: len(runes)}, nil
}

// fromWide converts a null-terminated UCS-4 buffer back to a UTF-8 string.
func fromWide(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}
	var runes []rune
	base := (*uint32)(unsafe.Pointer(ptr))
	for i := 0; ; i++ {
		u := *(*uint32)(unsafe.Pointer(uintptr(unsafe.Pointer(base)) + uintptr(i)*4))
		if u == 0 {
			break
		}
		runes = append(runes, rune(u))
	}
	return string(runes)
}

// localeToUTF8 decodes locale-encoded bytes to UTF-8. POSIX platforms in
// practice run with a UTF-8 locale; this is the single point a
// re-implementation would hook iconv/nl_langinfo based recoding for
// non-UTF-8 locales.
func localeToUTF8(b []byte) string { return string(b) }

// utf8ToLocale is the inverse of localeToUTF8.
func utf8ToLocale(s string) []byte { return []byte(s) }
