package pyboot

import (
	"os"
	"testing"
)

func TestReadParentLevelAbsent(t *testing.T) {
	os.Unsetenv(parentLevelEnvVar)
	if got := readParentLevel(); got != LevelUnknown {
		t.Errorf("readParentLevel() = %v, want LevelUnknown", got)
	}
}

func TestReadParentLevelRoundTrip(t *testing.T) {
	t.Cleanup(func() { os.Unsetenv(parentLevelEnvVar) })
	for _, lvl := range []ProcessLevel{LevelParentNeedsRestart, LevelParent, LevelMain, LevelSubprocess} {
		if err := publishLevel(lvl); err != nil {
			t.Fatalf("publishLevel(%v): %v", lvl, err)
		}
		if lvl == LevelSubprocess {
			if _, ok := os.LookupEnv(parentLevelEnvVar); ok {
				t.Errorf("SUBPROCESS must not publish, but env var is set")
			}
			os.Unsetenv(parentLevelEnvVar)
			continue
		}
		if got := readParentLevel(); got != lvl {
			t.Errorf("round-trip of %v produced %v", lvl, got)
		}
	}
}

func TestReadParentLevelMalformed(t *testing.T) {
	os.Setenv(parentLevelEnvVar, "not-a-number")
	t.Cleanup(func() { os.Unsetenv(parentLevelEnvVar) })
	if got := readParentLevel(); got != LevelUnknown {
		t.Errorf("readParentLevel() with malformed value = %v, want LevelUnknown", got)
	}
}

func TestProcessLevelString(t *testing.T) {
	cases := map[ProcessLevel]string{
		LevelUnknown:            "UNKNOWN",
		LevelParentNeedsRestart: "PARENT_NEEDS_RESTART",
		LevelParent:             "PARENT",
		LevelMain:               "MAIN",
		LevelSubprocess:         "SUBPROCESS",
	}
	for lvl, want := range cases {
		if got := lvl.String(); got != want {
			t.Errorf("%v.String() = %q, want %q", int(lvl), got, want)
		}
	}
}
