//go:build darwin

package pyboot

import (
	"reflect"
	"testing"
)

func TestAppBundleFrameworksDirReanchors(t *testing.T) {
	got := appBundleFrameworksDir("/Applications/Foo.app/Contents/MacOS")
	want := "/Applications/Foo.app/Contents/Frameworks"
	if got != want {
		t.Errorf("appBundleFrameworksDir = %q, want %q", got, want)
	}
}

func TestAppBundleFrameworksDirLeavesNonBundlePathsAlone(t *testing.T) {
	got := appBundleFrameworksDir("/opt/myapp/bin")
	if got != "/opt/myapp/bin" {
		t.Errorf("appBundleFrameworksDir = %q, want unchanged", got)
	}
}

func TestAppleEventArgvEmulationFiltersPSN(t *testing.T) {
	got := appleEventArgvEmulation([]string{"/Applications/Foo.app/Contents/MacOS/Foo", "-psn_0_123456", "--flag"})
	want := []string{"/Applications/Foo.app/Contents/MacOS/Foo", "--flag"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("appleEventArgvEmulation = %v, want %v", got, want)
	}
}

func TestAppleEventArgvEmulationNoOpWithoutPSN(t *testing.T) {
	argv := []string{"/bin/foo", "--flag", "value"}
	got := appleEventArgvEmulation(argv)
	if !reflect.DeepEqual(got, argv) {
		t.Errorf("appleEventArgvEmulation = %v, want %v unchanged", got, argv)
	}
}
