package main

import "testing"

func TestIsDynamicLoaderName(t *testing.T) {
	cases := map[string]bool{
		"ld-linux-x86-64.so.2": true,
		"ld-linux.so.2":        true,
		"ld-musl-x86_64.so.1":  true,
		"ld.so":                true,
		"myapp":                false,
		"python3.11":           false,
		"":                     false,
	}
	for name, want := range cases {
		if got := isDynamicLoaderName(name); got != want {
			t.Errorf("isDynamicLoaderName(%q) = %v, want %v", name, got, want)
		}
	}
}
