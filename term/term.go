// Package term holds the fixed term-name vocabulary of transcripts: the
// header grammar, chronological ranks and semester keys.
package term

import (
	"regexp"
	"strconv"
	"strings"
)

// Term names as printed on transcripts.
const (
	Winter       = "Winter"
	Spring       = "Spring"
	Summer       = "Summer"
	Fall         = "Fall"
	FallWinter   = "Fall/Winter"
	WinterSummer = "Winter/Summer"
)

// TransferCredits is the pseudo-term under which transfer credits may be
// listed alongside regular semesters.
const TransferCredits = "Transfer Credits"

// Names lists every recognized term name.
var Names = []string{Winter, Spring, Summer, Fall, FallWinter, WinterSummer}

// headerPattern matches "TermName Year" where Year is \d{4} with an optional
// -\d{2} suffix. Compound names come first so they win the alternation.
var headerPattern = regexp.MustCompile(`^(Fall/Winter|Winter/Summer|Winter|Spring|Summer|Fall) (\d{4}(?:-\d{2})?)$`)

// Parse reports whether s is a term header and returns its parts. Runs of
// whitespace are treated as a single space.
func Parse(s string) (name, year string, ok bool) {
	s = strings.Join(strings.Fields(s), " ")
	m := headerPattern.FindStringSubmatch(s)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// IsName reports whether s is one of the recognized term names.
func IsName(s string) bool {
	for _, n := range Names {
		if n == s {
			return true
		}
	}
	return false
}

// Rank orders terms within a year. Unknown names sort last.
func Rank(name string) float64 {
	switch name {
	case Winter:
		return 1
	case Spring:
		return 2
	case Summer:
		return 3
	case Fall:
		return 4
	case FallWinter:
		return 4.5
	default:
		return 5
	}
}

// YearPrefix returns the integer part of a year before an optional "-"
// suffix ("2023-24" -> 2023). Unparseable years yield 0.
func YearPrefix(year string) int {
	if i := strings.IndexByte(year, '-'); i >= 0 {
		year = year[:i]
	}
	n, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil {
		return 0
	}
	return n
}

// Key renders the semester key "{term} {year}", or just the name when the
// year is unknown.
func Key(name, year string) string {
	if year == "" {
		return name
	}
	return name + " " + year
}

// SplitKey is the inverse of Key.
func SplitKey(key string) (name, year string) {
	i := strings.LastIndexByte(key, ' ')
	if i < 0 {
		return key, ""
	}
	tail := key[i+1:]
	if YearPrefix(tail) == 0 {
		return key, ""
	}
	return key[:i], tail
}

// Less orders semester keys chronologically by (year prefix, rank).
func Less(a, b string) bool {
	an, ay := SplitKey(a)
	bn, by := SplitKey(b)
	if ya, yb := YearPrefix(ay), YearPrefix(by); ya != yb {
		return ya < yb
	}
	return Rank(an) < Rank(bn)
}
