package scanner

import (
	"strings"

	"github.com/samber/lo"
)

// homeRoots are the leading path components stripped together with the user name
var homeRoots = []string{"Users", "home"}

// ProjectDisplayName turns an encoded project directory name such as
// "-Users-me-code-app" into a shorter label ("code-app"). Names that are not
// path-encoded are returned unchanged.
func ProjectDisplayName(dir string) string {
	if !strings.HasPrefix(dir, "-") {
		return dir
	}

	parts := lo.Compact(strings.Split(dir, "-"))
	if len(parts) > 2 && lo.Contains(homeRoots, parts[0]) {
		parts = parts[2:]
	}
	if len(parts) == 0 {
		return dir
	}
	return strings.Join(parts, "-")
}
