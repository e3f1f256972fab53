package version

import (
	"testing"

	"github.com/fatih/color"
)

func TestLine(t *testing.T) {
	saved := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = saved }()

	tests := []struct {
		version, commit, date string
		want                  string
	}{
		{"0.3.0-dev", "", "", "cnav 0.3.0-dev"},
		{"1.2.3", "abc123", "", "cnav 1.2.3 (abc123)"},
		{"1.2.3-rc.1", "abc123", "2026-01-15", "cnav 1.2.3-rc.1 (abc123) built 2026-01-15"},
		{"custom", "", "", "cnav custom"},
	}
	origV, origC, origD := Version, GitCommit, BuildDate
	defer func() { Version, GitCommit, BuildDate = origV, origC, origD }()
	for _, tt := range tests {
		Version, GitCommit, BuildDate = tt.version, tt.commit, tt.date
		if got := Line(); got != tt.want {
			t.Fatalf("Line() = %q, want %q", got, tt.want)
		}
	}
}
