package selftest

import "testing"

func TestRunAllChecksPass(t *testing.T) {
	failures := Run()
	for _, f := range failures {
		t.Errorf("%s", f.String())
	}
}
