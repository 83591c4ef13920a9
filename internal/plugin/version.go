package plugin

import (
	"strconv"
	"strings"
)

// CompareVersions compares two dotted version strings numerically, component
// by component. Missing components count as zero, so "2.1" equals "2.1.0".
// Pre-release and build suffixes ("-rc1", "+meta") are stripped before the
// numeric compare, matching the tolerant parsing plugins rely on.
func CompareVersions(a, b string) int {
	av := parseDotted(a)
	bv := parseDotted(b)
	for i := 0; i < len(av) || i < len(bv); i++ {
		var x, y int
		if i < len(av) {
			x = av[i]
		}
		if i < len(bv) {
			y = bv[i]
		}
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
	}
	return 0
}

// HostSupports reports whether a host at version actual satisfies a plugin's
// minimum-version requirement. An empty requirement always passes.
func HostSupports(required, actual string) bool {
	if strings.TrimSpace(required) == "" {
		return true
	}
	return CompareVersions(actual, required) >= 0
}

func parseDotted(v string) []int {
	v = strings.TrimSpace(v)
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		v = v[:i]
	}
	parts := strings.Split(v, ".")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			n = 0
		}
		out = append(out, n)
	}
	return out
}
