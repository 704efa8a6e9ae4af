package pyboot

import "testing"

func TestEncodeLayoutKey(t *testing.T) {
	cases := []struct {
		version     int
		gilDisabled bool
		want        int
	}{
		{311, false, 622},
		{311, true, 623},
		{313, true, 627},
	}
	for _, c := range cases {
		if got := encodeLayoutKey(c.version, c.gilDisabled); got != c.want {
			t.Errorf("encodeLayoutKey(%d, %v) = %d, want %d", c.version, c.gilDisabled, got, c.want)
		}
	}
}

func TestLookupLegacyLayoutKnownVersions(t *testing.T) {
	for _, minor := range []int{8, 9, 10, 11, 12, 13} {
		version := 300 + minor
		if _, err := lookupLegacyLayout(version, false); err != nil {
			t.Errorf("lookupLegacyLayout(%d, false): %v", version, err)
		}
	}
	if _, err := lookupLegacyLayout(313, true); err != nil {
		t.Errorf("lookupLegacyLayout(313, true): %v", err)
	}
}

func TestLookupLegacyLayoutUnsupportedVersion(t *testing.T) {
	if _, err := lookupLegacyLayout(270, false); err == nil {
		t.Fatalf("expected an error for python 2.70's legacy layout")
	}
}

func TestLookupLegacyLayoutGilDisabledOnlyFor313(t *testing.T) {
	if _, err := lookupLegacyLayout(312, true); err == nil {
		t.Fatalf("expected an error: GIL-disabled builds only exist from 3.13")
	}
}
