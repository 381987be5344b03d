package version

import "fmt"

// These variables can be overridden at build time using -ldflags.
// Example:
// go build -ldflags "-X pmplanner/pkg/version.Version=v0.1.0 -X pmplanner/pkg/version.Commit=$(git rev-parse --short HEAD) -X pmplanner/pkg/version.Date=$(date -u +%Y-%m-%d)"

var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// String renders "Version (Commit, Date)", leaving out what is unset.
func String() string {
	switch {
	case Commit != "" && Date != "":
		return fmt.Sprintf("%s (%s, %s)", Version, Commit, Date)
	case Commit != "":
		return fmt.Sprintf("%s (%s)", Version, Commit)
	case Date != "":
		return fmt.Sprintf("%s (%s)", Version, Date)
	}
	return Version
}
