package version

import "testing"

func TestString(t *testing.T) {
	defer func(v, c, d string) { Version, Commit, Date = v, c, d }(Version, Commit, Date)

	tests := []struct {
		commit, date, want string
	}{
		{"", "", "v1.2.0"},
		{"abc123", "", "v1.2.0 (abc123)"},
		{"", "2024-05-01", "v1.2.0 (2024-05-01)"},
		{"abc123", "2024-05-01", "v1.2.0 (abc123, 2024-05-01)"},
	}
	for _, tt := range tests {
		Version, Commit, Date = "v1.2.0", tt.commit, tt.date
		if got := String(); got != tt.want {
			t.Fatalf("String() = %q, want %q", got, tt.want)
		}
	}
}
