package plugin

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	modsemver "golang.org/x/mod/semver"
)

// ValidateSemver checks that version is a full semantic version such as
// 1.2.3, 1.2.3-beta.1 or v2.0.0+build.5.
func ValidateSemver(version string) error {
	if strings.TrimSpace(version) == "" {
		return fmt.Errorf("version cannot be empty")
	}
	v := canonical(version)
	if !modsemver.IsValid(v) || modsemver.Canonical(v) != strings.SplitN(v, "+", 2)[0] {
		return fmt.Errorf("invalid semantic version: %s", version)
	}
	return nil
}

// canonical adds the "v" prefix x/mod/semver expects.
func canonical(version string) string {
	v := strings.TrimSpace(version)
	if strings.HasPrefix(v, "V") {
		v = "v" + v[1:]
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

// ValidateRange checks that rng parses as a version constraint.
func ValidateRange(rng string) error {
	_, err := parseRange(rng)
	return err
}

// Satisfies reports whether version falls inside rng. Ranges follow the
// Masterminds constraint syntax: ">=1.2.0", "^1.2", "~1.2.3", "1.x",
// ">=1 <2" and "||" alternatives. An empty range or "*" accepts any version.
func Satisfies(version, rng string) (bool, error) {
	v, err := semver.NewVersion(strings.TrimSpace(version))
	if err != nil {
		return false, fmt.Errorf("parsing version %q: %w", version, err)
	}
	c, err := parseRange(rng)
	if err != nil {
		return false, err
	}
	return c.Check(v), nil
}

func parseRange(rng string) (*semver.Constraints, error) {
	r := strings.TrimSpace(rng)
	if r == "" {
		r = "*"
	}
	c, err := semver.NewConstraint(r)
	if err != nil {
		return nil, fmt.Errorf("parsing range %q: %w", rng, err)
	}
	return c, nil
}
