package version

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ParseError indicates a version string that does not reduce to a valid
// major.minor.patch[-pre] form. The raw input is retained for diagnosis.
type ParseError struct {
	Raw   string
	cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse version %q: %v", e.Raw, e.cause)
}

func (e *ParseError) Unwrap() error { return e.cause }

// devSuffix matches the non-semver "developmental release" suffix X.Y.Z.devN
// used by the backend's packaging scheme.
var devSuffix = regexp.MustCompile(`^(\d+\.\d+\.\d+)\.dev(\d+)$`)

// RewriteDevSuffix rewrites a developmental-release suffix into a
// semver-compatible pre-release form: X.Y.Z.devN becomes X.Y.Z-dev.N.
// Strings already in that form, or without the suffix, pass through
// unchanged; the rewrite is idempotent.
func RewriteDevSuffix(raw string) string {
	if m := devSuffix.FindStringSubmatch(raw); m != nil {
		return fmt.Sprintf("%s-dev.%s", m[1], m[2])
	}
	return raw
}

// Version is a normalized semantic version. A version with a pre-release
// tag sorts below the same release without one.
type Version struct {
	sv *semver.Version
}

// Normalize parses a raw version string, accepting a leading "v" and the
// developmental-release suffix, and returns the normalized Version.
func Normalize(raw string) (Version, error) {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(trimmed, "v")
	trimmed = RewriteDevSuffix(trimmed)

	sv, err := semver.StrictNewVersion(trimmed)
	if err != nil {
		return Version{}, &ParseError{Raw: raw, cause: err}
	}
	return Version{sv: sv}, nil
}

// MustNormalize is for statically known version literals.
func MustNormalize(raw string) Version {
	v, err := Normalize(raw)
	if err != nil {
		panic(err)
	}
	return v
}

// String renders the normalized form.
func (v Version) String() string {
	if v.sv == nil {
		return ""
	}
	return v.sv.String()
}

// Major returns the major component.
func (v Version) Major() uint64 { return v.sv.Major() }

// LessThan reports whether v orders strictly before other. Equal versions
// are never less than each other.
func LessThan(a, b Version) bool {
	return a.sv.LessThan(b.sv)
}

// SatisfiesMinimum reports whether v is at least min.
func SatisfiesMinimum(v, min Version) bool {
	return !v.sv.LessThan(min.sv)
}

// WithinMajorOf reports whether v satisfies the constraint
// "less than major(current)+1". A latest version outside that bound is a
// major bump relative to current.
func WithinMajorOf(v, current Version) bool {
	bound := semver.New(current.Major()+1, 0, 0, "", "")
	return v.sv.LessThan(bound)
}
