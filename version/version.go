package version

import "fmt"

var (
	RELEASE = "UNKNOWN"
	REPO    = "UNKNOWN"
	COMMIT  = "UNKNOWN"
)

func String() string {
	return fmt.Sprintf(`
Contactmerge
  Release:	%v
  Build:	%v
  Repository:	%v
	`, RELEASE, COMMIT, REPO)
}

// UserAgent identifies requests to the ticketing system.
func UserAgent() string {
	return "contactmerge/" + RELEASE
}
