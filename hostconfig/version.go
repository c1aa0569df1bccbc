package hostconfig

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Version is a host runtime API version (major.minor).
type Version struct {
	Major int
	Minor int
}

// SupportedVersions are the API versions that have cfg-style conditionals.
// The order matters: it is the order Cfgs reports them in.
var SupportedVersions = []Version{{2, 7}, {3, 0}, {3, 1}}

// Thresholds for version-gated capabilities.
var (
	compactionSince      = Version{2, 7}
	frozenShareableSince = Version{3, 0}
	// Creating a binding from native code stopped working after 3.1.
	bindingNewUntil = Version{3, 1}
)

// ParseVersion parses "major.minor" (any further components are ignored).
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) < 2 {
		return Version{}, fmt.Errorf("invalid API version %q: expected major.minor", s)
	}
	major, err := strconv.ParseUint(parts[0], 10, 8)
	if err != nil {
		return Version{}, fmt.Errorf("invalid API version %q: %w", s, err)
	}
	minor, err := strconv.ParseUint(parts[1], 10, 8)
	if err != nil {
		return Version{}, fmt.Errorf("invalid API version %q: %w", s, err)
	}
	return Version{Major: int(major), Minor: int(minor)}, nil
}

// MustParseVersion is ParseVersion for constants known to be valid.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Compare returns -1, 0 or +1.
func (v Version) Compare(o Version) int {
	switch {
	case v.Major < o.Major:
		return -1
	case v.Major > o.Major:
		return 1
	case v.Minor < o.Minor:
		return -1
	case v.Minor > o.Minor:
		return 1
	}
	return 0
}

// Less reports whether v < o.
func (v Version) Less(o Version) bool { return v.Compare(o) < 0 }

// AtLeast reports whether v >= o.
func (v Version) AtLeast(o Version) bool { return v.Compare(o) >= 0 }

// IsZero reports whether v is the zero Version.
func (v Version) IsZero() bool { return v == Version{} }

// Features are the version-gated capabilities of a host API version.
type Features struct {
	// Compaction reports whether the collector can move objects and call
	// compact callbacks.
	Compaction bool
	// FrozenShareable reports whether the frozen-shareable data type flag exists.
	FrozenShareable bool
	// BindingNew reports whether native code may create execution-context bindings.
	BindingNew bool
}

// Features returns the capabilities available at v.
func (v Version) Features() Features {
	return Features{
		Compaction:      v.AtLeast(compactionSince),
		FrozenShareable: v.AtLeast(frozenShareableSince),
		BindingNew:      !bindingNewUntil.Less(v),
	}
}

// Cfgs returns the conditional names that hold for v, relative to each of
// SupportedVersions: lt_X_Y, lte_X_Y, eq_X_Y, gte_X_Y, gt_X_Y.
func Cfgs(v Version) []string {
	var out []string
	for _, s := range SupportedVersions {
		suffix := fmt.Sprintf("%d_%d", s.Major, s.Minor)
		c := v.Compare(s)
		if c < 0 {
			out = append(out, "lt_"+suffix)
		}
		if c <= 0 {
			out = append(out, "lte_"+suffix)
		}
		if c == 0 {
			out = append(out, "eq_"+suffix)
		}
		if c >= 0 {
			out = append(out, "gte_"+suffix)
		}
		if c > 0 {
			out = append(out, "gt_"+suffix)
		}
	}
	return out
}

// Compiled returns the API version recorded at build time by cmd/hostprobe.
func Compiled() Version {
	return Version{Major: compiledMajor, Minor: compiledMinor}
}

// HasCfg reports whether the named conditional holds for the compiled version.
func HasCfg(name string) bool {
	return slices.Contains(Cfgs(Compiled()), name)
}
