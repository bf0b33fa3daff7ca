package layout

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/iKozay/TrackMyDegree-sub000/parser"
	"github.com/iKozay/TrackMyDegree-sub000/term"
)

// ---------------------------------------------------------------------------
// Token patterns
// ---------------------------------------------------------------------------

var (
	subjectPattern = regexp.MustCompile(`^[A-Z]{2,4}$`)
	numberPattern  = regexp.MustCompile(`^\d{3}$`)
	sectionPattern = regexp.MustCompile(`^[A-Za-z0-9]{1,3}$`)
	creditsPattern = regexp.MustCompile(`^\d+\.\d{2}$`)
	gradePattern   = regexp.MustCompile(`^([A-F][+-]?|PASS|EX|TRC|DISC)$`)
	letterPattern  = regexp.MustCompile(`^[A-F][+-]?$`)
	yearPattern    = regexp.MustCompile(`^\d{4}$`)
	decimalPattern = regexp.MustCompile(`^\d+\.?\d*$`)
)

// stopWords are uppercase column labels that look like subject codes.
var stopWords = map[string]bool{
	"COURSE": true, "GRADE": true, "GPA": true, "AVG": true, "SIZE": true,
	"OTHER": true, "NOTATION": true, "CLASS": true, "PROGRAM": true,
	"EARNED": true, "EX": true, "TRC": true, "NA": true, "TRANSFER": true,
	"CREDITS": true, "ATTEMPTED": true, "DESCRIPTION": true, "YEAR": true,
	"BEGINNING": true, "END": true, "RECORD": true, "WEB": true, "PAGE": true,
}

func isSubject(s string) bool { return subjectPattern.MatchString(s) && !stopWords[s] }

func isNumber(s string) bool { return numberPattern.MatchString(s) }

func isCredits(s string) bool { return creditsPattern.MatchString(s) }

func isGrade(s string) bool { return gradePattern.MatchString(s) }

func isTransferGrade(s string) bool { return s == "EX" || s == "TRC" }

// isCoursePair reports whether toks[i], toks[i+1] read as "SUBJ 123".
func isCoursePair(toks []parser.Token, i int) bool {
	return i+1 < len(toks) && isSubject(toks[i].Text) && isNumber(toks[i+1].Text)
}

// isCourseTriple reports whether a course row starts at toks[i].
func isCourseTriple(toks []parser.Token, i int) bool {
	return isCoursePair(toks, i) && i+2 < len(toks) && sectionPattern.MatchString(toks[i+2].Text)
}

// ---------------------------------------------------------------------------
// Page classification
// ---------------------------------------------------------------------------

func (st *parseState) classifyPage(toks []parser.Token) {
	starts := st.detectHeaders(toks)
	sec := st.detectSection(toks)
	if sec != nil {
		st.sections = append(st.sections, *sec)
	}
	st.detectCourses(toks, starts)
	st.detectTermGPAs(toks)
	st.extractTransfers(toks, sec)
}

// detectHeaders registers a TermHeader wherever a token, or a token joined
// with its successor, reads "TermName Year". It returns the token indices
// that start a header.
func (st *parseState) detectHeaders(toks []parser.Token) map[int]bool {
	starts := make(map[int]bool)
	for i := 0; i < len(toks); i++ {
		name, year, ok := term.Parse(toks[i].Text)
		width := 1
		if !ok && i+1 < len(toks) {
			name, year, ok = term.Parse(toks[i].Text + " " + toks[i+1].Text)
			width = 2
		}
		if !ok {
			continue
		}
		t := toks[i]
		st.headers = append(st.headers, TermHeader{
			Page:  t.Page,
			Y:     t.Y0,
			Index: t.Index,
			Term:  name,
			Year:  year,
		})
		starts[i] = true
		i += width - 1
	}
	return starts
}

// detectSection finds the page's first transfer/exemption label. The section
// runs to the next term header below it on the same page.
func (st *parseState) detectSection(toks []parser.Token) *section {
	for i, t := range toks {
		label := strings.Contains(t.Text, "Exempt") ||
			strings.Contains(t.Text, "Transfer Credit") ||
			(t.Text == "Transfer" && i+1 < len(toks) && strings.HasPrefix(toks[i+1].Text, "Credit"))
		if !label {
			continue
		}

		sec := &section{page: t.Page, start: PositionOf(t), endY: unbounded}
		for _, h := range st.headers {
			if h.Page == t.Page && sec.start.Less(h.Pos()) && h.Y < sec.endY {
				sec.endY = h.Y
			}
		}
		return sec
	}
	return nil
}

// detectTermGPAs records a GPA candidate for every "Term GPA" label (also
// when split as "G" "PA") followed within three tokens by a number.
func (st *parseState) detectTermGPAs(toks []parser.Token) {
	for i := 0; i+1 < len(toks); i++ {
		if toks[i].Text != "Term" {
			continue
		}
		end := -1
		switch {
		case strings.Contains(toks[i+1].Text, "GPA"):
			end = i + 1
		case toks[i+1].Text == "G" && i+2 < len(toks) && strings.HasPrefix(toks[i+2].Text, "PA"):
			end = i + 2
		}
		if end < 0 {
			continue
		}

		for k := end + 1; k <= end+3 && k < len(toks); k++ {
			if v, ok := parseDecimal(toks[k].Text); ok {
				st.gpas = append(st.gpas, gpaCandidate{at: PositionOf(toks[i]), value: v})
				break
			}
		}
		i = end
	}
}

// parseDecimal parses "3.45", "3." or "3" (fraction defaults to 0).
func parseDecimal(s string) (float64, bool) {
	if !decimalPattern.MatchString(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "."), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
