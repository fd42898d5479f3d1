package buildinfo

import "testing"

func TestCurrentPrefersLinkerValues(t *testing.T) {
	prevC, prevD := Commit, Date
	t.Cleanup(func() { Commit, Date = prevC, prevD })

	Commit, Date = "abc1234", "2026-10-01T12:00:00Z"
	got := Current()
	if got.Commit != "abc1234" || got.Date != "2026-10-01T12:00:00Z" || got.Version != Version {
		t.Fatalf("info = %+v", got)
	}
}

func TestCurrentNeverReportsEmptyCommit(t *testing.T) {
	prevC := Commit
	t.Cleanup(func() { Commit = prevC })

	Commit = ""
	if got := Current(); got.Commit == "" {
		t.Fatalf("info = %+v", got)
	}
}
