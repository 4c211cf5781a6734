// Package fbos derives FarmBot OS update state from release and device data.
package fbos

import (
	"strings"

	"golang.org/x/mod/semver"
)

// SemverResult is the outcome of SemverCompare.
type SemverResult int

const (
	RightIsGreater SemverResult = -1
	Equal          SemverResult = 0
	LeftIsGreater  SemverResult = 1
)

// SemverCompare orders two version strings with or without a leading "v".
// Invalid or empty versions sort below valid ones and equal each other.
func SemverCompare(left, right string) SemverResult {
	return SemverResult(semver.Compare(canonical(left), canonical(right)))
}

func canonical(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}
