package pyboot

import "testing"

func TestParseVersionFull(t *testing.T) {
	v, err := ParseVersion("3.11.5")
	if err != nil {
		t.Fatalf("ParseVersion: %v", err)
	}
	if v != (Version{3, 11, 5}) {
		t.Errorf("ParseVersion(3.11.5) = %+v", v)
	}
}

func TestParseVersionMinorOnly(t *testing.T) {
	v, err := ParseVersion("3.11")
	if err != nil {
		t.Fatalf("ParseVersion: %v", err)
	}
	if v != (Version{3, 11, -1}) {
		t.Errorf("ParseVersion(3.11) = %+v", v)
	}
}

func TestParseVersionMajorOnly(t *testing.T) {
	v, err := ParseVersion("3")
	if err != nil {
		t.Fatalf("ParseVersion: %v", err)
	}
	if v != (Version{3, -1, -1}) {
		t.Errorf("ParseVersion(3) = %+v", v)
	}
}

func TestParseVersionInvalid(t *testing.T) {
	if _, err := ParseVersion("not-a-version"); err == nil {
		t.Fatalf("expected an error for a non-numeric version string")
	}
}

func TestVersionCompare(t *testing.T) {
	cases := []struct {
		a, b Version
		want int
	}{
		{Version{3, 11, 0}, Version{3, 11, 0}, 0},
		{Version{3, 10, 9}, Version{3, 11, 0}, -1},
		{Version{3, 12, 0}, Version{3, 11, 9}, 1},
		{Version{3, 11, 1}, Version{3, 11, 2}, -1},
	}
	for _, c := range cases {
		a := c.a
		if got := a.Compare(c.b); got != c.want {
			t.Errorf("%+v.Compare(%+v) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestVersionStringForms(t *testing.T) {
	v := Version{3, 11, 5}
	if got := v.String(); got != "3.11.5" {
		t.Errorf("String() = %q", got)
	}
	if got := v.MinorString(); got != "3.11" {
		t.Errorf("MinorString() = %q", got)
	}
	if got := v.MinorStringCompact(); got != "311" {
		t.Errorf("MinorStringCompact() = %q", got)
	}

	partial := Version{3, -1, -1}
	if got := partial.String(); got != "3" {
		t.Errorf("String() on major-only = %q", got)
	}
}

func TestVersionEncoded(t *testing.T) {
	v := Version{3, 11, 5}
	if got := v.Encoded(); got != 311 {
		t.Errorf("Encoded() = %d, want 311", got)
	}
}

func TestVersionLibName(t *testing.T) {
	v := Version{3, 11, -1}
	cases := []struct {
		class platformClass
		want  string
	}{
		{platformWin32, "python311.dll"},
		{platformDarwin, "libpython3.11.dylib"},
		{platformOtherPOSIX, "libpython3.11.so"},
		{platformCygwin, "libpython3.11.so"},
	}
	for _, c := range cases {
		if got := v.LibName(c.class); got != c.want {
			t.Errorf("LibName(%v) = %q, want %q", c.class, got, c.want)
		}
	}
}

func TestParseDiscoveredLibName(t *testing.T) {
	cases := []struct {
		name string
		want Version
	}{
		{"libpython3.11.so.1.0", Version{3, 11, -1}},
		{"libpython3.11.dylib", Version{3, 11, -1}},
		{"python311.dll", Version{3, 11, -1}},
	}
	for _, c := range cases {
		got, err := ParseDiscoveredLibName(c.name)
		if err != nil {
			t.Fatalf("ParseDiscoveredLibName(%q): %v", c.name, err)
		}
		if got != c.want {
			t.Errorf("ParseDiscoveredLibName(%q) = %+v, want %+v", c.name, got, c.want)
		}
	}
}

func TestParseDiscoveredLibNameRejectsGarbage(t *testing.T) {
	if _, err := ParseDiscoveredLibName("not-a-python-lib.txt"); err == nil {
		t.Fatalf("expected an error for an unrecognized library file name")
	}
}
