// Package version reports the zonehub release version.
package version

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
)

// Version is the release version. Release builds override it with
// -ldflags "-X github.com/zonehub/zonehub-go/pkg/version.Version=v1.2.3".
var Version = "v0.1.0-dev"

// Release is a parsed "vMAJOR.MINOR.PATCH[-suffix]" version.
type Release struct {
	Major  uint16
	Minor  uint16
	Patch  uint16
	Suffix string
}

// Parse parses a release version. The leading "v" is optional.
func Parse(s string) (Release, error) {
	core := strings.TrimPrefix(s, "v")
	var r Release
	if i := strings.IndexByte(core, '-'); i >= 0 {
		r.Suffix = core[i+1:]
		core = core[:i]
		if r.Suffix == "" {
			return Release{}, fmt.Errorf("invalid version %q: empty suffix", s)
		}
	}

	parts := strings.Split(core, ".")
	if len(parts) != 3 {
		return Release{}, fmt.Errorf("invalid version %q: expected major.minor.patch", s)
	}

	fields := []*uint16{&r.Major, &r.Minor, &r.Patch}
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 16)
		if err != nil {
			return Release{}, fmt.Errorf("invalid version %q: bad component %q", s, p)
		}
		*fields[i] = uint16(n)
	}
	return r, nil
}

// String returns the version as "vMAJOR.MINOR.PATCH[-suffix]".
func (r Release) String() string {
	s := fmt.Sprintf("v%d.%d.%d", r.Major, r.Minor, r.Patch)
	if r.Suffix != "" {
		s += "-" + r.Suffix
	}
	return s
}

// Prerelease reports whether r carries a suffix such as "dev" or "rc1".
func (r Release) Prerelease() bool {
	return r.Suffix != ""
}

// Current parses Version. Builds stamped with a non-release string
// report ok=false.
func Current() (r Release, ok bool) {
	r, err := Parse(Version)
	return r, err == nil
}

// Info returns a one-line description for -version output.
func Info(program string) string {
	v := Version
	switch r, ok := Current(); {
	case !ok:
		v += " [unversioned build]"
	case r.Prerelease():
		v = r.String() + " [pre-release]"
	default:
		v = r.String()
	}
	return fmt.Sprintf("%s %s (%s, %s/%s)", program, v, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
