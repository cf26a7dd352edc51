package pagestore

import (
	"fmt"
	"strconv"
	"strings"
)

// Release is the version of this module.
const Release = "0.34.7"

// Version is the on-disk format version recorded in the configuration file.
type Version struct {
	Major int
	Minor int
}

// CurrentVersion is the format version written by this build.
var CurrentVersion = mustParseVersion(Release)

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Compatible reports whether a database written with stored can be opened
// by v without an export/import upgrade.
func (v Version) Compatible(stored Version) bool {
	return v == stored
}

// ParseVersion parses "major.minor". Trailing components such as a patch
// level are ignored.
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) < 2 {
		return Version{}, fmt.Errorf("version %q: expected major.minor", s)
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil || major < 0 {
		return Version{}, fmt.Errorf("version %q: bad major component", s)
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil || minor < 0 {
		return Version{}, fmt.Errorf("version %q: bad minor component", s)
	}
	return Version{Major: major, Minor: minor}, nil
}

func mustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}
