package pyboot

import "testing"

func TestPlatformClassString(t *testing.T) {
	cases := map[platformClass]string{
		platformWin32:      "win32",
		platformDarwin:     "darwin",
		platformCygwin:     "cygwin",
		platformOtherPOSIX: "other-posix",
	}
	for class, want := range cases {
		if got := class.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(class), got, want)
		}
	}
}
