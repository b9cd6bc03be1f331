// Package ordinal orders scene identifiers such as "16", "16.1" and "16.10".
//
// An identifier is ordered by its leading integer (major) and an optional
// ".minor" integer. A whole-numbered scene sorts before its fractional
// children, and identifiers without a leading number sort last.
package ordinal

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// NoMinor is the minor value of an identifier without a fractional part.
const NoMinor = -1

// Ordinal is the parsed, comparable form of an identifier.
type Ordinal struct {
	Major int
	Minor int
	Valid bool
}

// Parse reads the leading "major[.minor]" from an identifier.
// Leading whitespace is ignored; anything after the number is ignored too,
// so "16.1 The Escape" parses as {16, 1}.
func Parse(id string) Ordinal {
	s := strings.TrimLeftFunc(id, unicode.IsSpace)

	majorDigits := leadingDigits(s)
	if majorDigits == "" {
		return Ordinal{Major: math.MaxInt, Minor: math.MaxInt}
	}
	major, err := strconv.Atoi(majorDigits)
	if err != nil {
		return Ordinal{Major: math.MaxInt, Minor: math.MaxInt}
	}

	minor := NoMinor
	rest := s[len(majorDigits):]
	if strings.HasPrefix(rest, ".") {
		if minorDigits := leadingDigits(rest[1:]); minorDigits != "" {
			if v, err := strconv.Atoi(minorDigits); err == nil {
				minor = v
			}
		}
	}

	return Ordinal{Major: major, Minor: minor, Valid: true}
}

// String renders the ordinal back to its canonical "major[.minor]" form.
func (o Ordinal) String() string {
	if !o.Valid {
		return ""
	}
	if o.Minor == NoMinor {
		return strconv.Itoa(o.Major)
	}
	return strconv.Itoa(o.Major) + "." + strconv.Itoa(o.Minor)
}

// Compare returns -1, 0 or 1. Invalid ordinals compare greater than every
// valid one and equal to each other.
func (o Ordinal) Compare(other Ordinal) int {
	switch {
	case !o.Valid && !other.Valid:
		return 0
	case !o.Valid:
		return 1
	case !other.Valid:
		return -1
	}
	if o.Major != other.Major {
		if o.Major < other.Major {
			return -1
		}
		return 1
	}
	if o.Minor != other.Minor {
		if o.Minor < other.Minor {
			return -1
		}
		return 1
	}
	return 0
}

// Compare parses and compares two identifiers.
func Compare(a, b string) int {
	return Parse(a).Compare(Parse(b))
}

// Less reports whether identifier a sorts before b.
func Less(a, b string) bool {
	return Compare(a, b) < 0
}

// SortFunc stably sorts items by the identifier returned from key.
func SortFunc[T any](items []T, key func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		return Less(key(items[i]), key(items[j]))
	})
}

func leadingDigits(s string) string {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return s[:end]
}
