package buildinfo

import "testing"

func TestShort(t *testing.T) {
	defer func(v, c string) { Version, Commit = v, c }(Version, Commit)

	tests := []struct {
		version, commit, want string
	}{
		{version: "dev", commit: "unknown", want: "dev"},
		{version: "dev", commit: "abc123", want: "abc123"},
		{version: "v0.2.0", commit: "abc123", want: "v0.2.0"},
		{version: "", commit: "", want: "dev"},
	}
	for _, tt := range tests {
		Version, Commit = tt.version, tt.commit
		if got := Short(); got != tt.want {
			t.Errorf("Short() with version %q commit %q = %q, want %q", tt.version, tt.commit, got, tt.want)
		}
	}
}
