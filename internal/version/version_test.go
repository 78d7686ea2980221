package version

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	origCommit, origDate := GitCommit, BuildDate
	t.Cleanup(func() { GitCommit, BuildDate = origCommit, origDate })

	GitCommit = "abc1234"
	BuildDate = "2026-10-16"

	got := String()
	want := Version() + "@abc1234 " + Platform() + " 2026-10-16"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if strings.ContainsAny(Version(), " \n") {
		t.Errorf("Version() = %q should be trimmed", Version())
	}
}
