//go:build !windows

package pyboot

import (
	"runtime"
	"testing"
)

func TestWideStringRoundTrip(t *testing.T) {
	const s = "hello, world"
	w, err := toWide(s)
	if err != nil {
		t.Fatalf("toWide: %v", err)
	}
	got := fromWide(w.ptr)
	runtime.KeepAlive(s)
	if got != s {
		t.Errorf("fromWide(toWide(%q)) = %q", s, got)
	}
}

func TestWideStringRoundTripEmpty(t *testing.T) {
	w, err := toWide("")
	if err != nil {
		t.Fatalf("toWide: %v", err)
	}
	if got := fromWide(w.ptr); got != "" {
		t.Errorf("fromWide(toWide(\"\")) = %q, want empty", got)
	}
}

func TestFromWideNilPointer(t *testing.T) {
	if got := fromWide(0); got != "" {
		t.Errorf("fromWide(0) = %q, want empty", got)
	}
}

func TestLocaleUTF8RoundTrip(t *testing.T) {
	const s = "some locale text"
	if got := localeToUTF8(utf8ToLocale(s)); got != s {
		t.Errorf("localeToUTF8(utf8ToLocale(%q)) = %q", s, got)
	}
}
