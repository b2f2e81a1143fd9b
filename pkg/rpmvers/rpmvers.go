// Package rpmvers implements numeric-aware ordering of RPM-style package
// version and release strings. Plain string comparison is wrong for packaging
// revisions ("13.el7" must sort after "9.el7"), so segments are compared the
// way rpm does: alternating numeric and alphabetic runs, numerics compared as
// integers, with a tilde sorting before everything.
package rpmvers

import (
	"fmt"
	"strings"
	"unicode"
)

// Compare returns -1, 0, or 1 depending on whether a sorts before, equal to,
// or after b under rpm version ordering.
func Compare(a, b string) int {
	if a == b {
		return 0
	}

	for a != "" || b != "" {
		// Tilde sorts before anything, including the end of the string.
		aTilde := strings.HasPrefix(a, "~")
		bTilde := strings.HasPrefix(b, "~")
		if aTilde || bTilde {
			if !aTilde {
				return 1
			}
			if !bTilde {
				return -1
			}
			a, b = a[1:], b[1:]
			continue
		}

		a = trimSeparators(a)
		b = trimSeparators(b)
		if a == "" || b == "" {
			break
		}

		aSeg, aRest, aNumeric := nextSegment(a)
		bSeg, bRest, bNumeric := nextSegment(b)

		// A numeric segment always sorts after an alphabetic one.
		if aNumeric != bNumeric {
			if aNumeric {
				return 1
			}
			return -1
		}

		var cmp int
		if aNumeric {
			cmp = compareNumeric(aSeg, bSeg)
		} else {
			cmp = strings.Compare(aSeg, bSeg)
		}
		if cmp != 0 {
			return cmp
		}

		a, b = aRest, bRest
	}

	switch {
	case a == "" && b == "":
		return 0
	case a == "":
		return -1
	default:
		return 1
	}
}

// PackageRevision extracts the release portion of a package string given its
// content version, e.g. ("scap-security-guide-0.1.49-13.el7", "0.1.49")
// yields "13.el7". Returns an error when the version is not embedded in the
// package name; callers treat that as the lowest possible rank.
func PackageRevision(pkg, version string) (string, error) {
	marker := "-" + version + "-"
	idx := strings.LastIndex(pkg, marker)
	if idx < 0 {
		return "", fmt.Errorf("version %q not found in package %q", version, pkg)
	}
	revision := pkg[idx+len(marker):]
	if revision == "" {
		return "", fmt.Errorf("empty revision in package %q", pkg)
	}
	return revision, nil
}

// trimSeparators drops leading characters that are neither alphanumeric nor a
// tilde; rpm treats them purely as segment separators.
func trimSeparators(s string) string {
	return strings.TrimLeftFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '~'
	})
}

// nextSegment splits the leading run of digits or letters from s.
func nextSegment(s string) (segment, rest string, numeric bool) {
	if s == "" {
		return "", "", false
	}
	numeric = unicode.IsDigit(rune(s[0]))
	i := 0
	for i < len(s) {
		r := rune(s[i])
		if numeric && !unicode.IsDigit(r) {
			break
		}
		if !numeric && !unicode.IsLetter(r) {
			break
		}
		i++
	}
	return s[:i], s[i:], numeric
}

// compareNumeric compares two digit runs as integers of arbitrary length.
func compareNumeric(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}
