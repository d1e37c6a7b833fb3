package browserdata

import (
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// parseVersion reads a browser version such as "120", "15.6" or "20.10.0".
// Tokens like "all" (Opera Mini) and "tp" (Safari Technology Preview) are
// not versions.
func parseVersion(version string) (*semver.Version, bool) {
	v, err := semver.NewVersion(version)
	if err != nil {
		return nil, false
	}
	return v, true
}

// compareVersions orders browser versions. Tokens that are not versions sort
// after every version.
func compareVersions(a, b string) int {
	aVersion, aOK := parseVersion(a)
	bVersion, bOK := parseVersion(b)
	switch {
	case aOK && bOK:
		return aVersion.Compare(bVersion)
	case aOK:
		return -1
	case bOK:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

func majorVersion(version string) string {
	v, ok := parseVersion(version)
	if !ok {
		return version
	}
	return strconv.FormatUint(v.Major(), 10)
}

// rayConstraint builds "<op> <bound>" with the bound written out in full, so
// "safari > 16" selects 16.6 instead of treating 16 as 16.x.
func rayConstraint(op, bound string) (*semver.Constraints, error) {
	v, err := semver.NewVersion(bound)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers report the query instead
	}
	return semver.NewConstraint(op + " " + v.String()) //nolint:wrapcheck // callers report the query instead
}

// rangeConstraint selects versions from through to, both inclusive.
func rangeConstraint(from, to string) (*semver.Constraints, error) {
	fromVersion, err := semver.NewVersion(from)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers report the query instead
	}
	toVersion, err := semver.NewVersion(to)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers report the query instead
	}
	return semver.NewConstraint(">= " + fromVersion.String() + ", <= " + toVersion.String()) //nolint:wrapcheck // callers report the query instead
}

// matchingVersions keeps the versions satisfying constraint in their
// original order. Tokens that are not versions never match.
func matchingVersions(versions []string, constraint *semver.Constraints) []string {
	var matched []string
	for _, version := range versions {
		if v, ok := parseVersion(version); ok && constraint.Check(v) {
			matched = append(matched, version)
		}
	}
	return matched
}

func matchesShare(share float64, op string, percent float64) bool {
	switch op {
	case ">":
		return share > percent
	case ">=":
		return share >= percent
	case "<":
		return share < percent
	case "<=":
		return share <= percent
	default:
		return false
	}
}
