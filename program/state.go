package program

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/iKozay/TrackMyDegree-sub000/term"
)

// State is a position in the first-page scan.
type State int

const (
	// AwaitingLabel skips lines until a known label appears.
	AwaitingLabel State = iota
	// InAddressBlock collects the address lines printed under the name.
	InAddressBlock
	// InProgramSection reads program-history fields.
	InProgramSection
	// Done is reached at the start of the course record.
	Done
)

func (s State) String() string {
	switch s {
	case AwaitingLabel:
		return "AwaitingLabel"
	case InAddressBlock:
		return "InAddressBlock"
	case InProgramSection:
		return "InProgramSection"
	case Done:
		return "Done"
	}
	return "State(" + strconv.Itoa(int(s)) + ")"
}

type field int

const (
	fieldName field = iota
	fieldAddress
	fieldStudentID
	fieldBirthdate
	fieldActiveDate
	fieldAdmitTerm
	fieldMatriculated
	fieldDegree
	fieldMajor
	fieldCoop
	fieldExtendedCredit
	fieldMinCredits
	fieldCreditsEarned
	fieldCumulativeGPA
	fieldWritingSkills
)

// event is a single field emitted by a transition.
type event struct {
	field  field
	value  string
	extra  string
	number *float64
}

const (
	labelName          = "Student Name:"
	labelStudentID     = "Student ID:"
	labelBirthdate     = "Birthdate:"
	labelAdmitTerm     = "Admit Term"
	labelActive        = "Active in Program"
	labelMatriculated  = "Matriculated"
	labelMinCredits    = "Min. Credits Required:"
	labelCreditsEarned = "Program Credits Earned:"
	labelCumulativeGPA = "Cumulative GPA:"
	labelWriting       = "Writing Skills Requirement:"
	labelMember        = "Member Institute for Co-operative Education"
	labelWithdrew      = "Withdrew Institute for Co-operative Education"

	recordStart          = "Beginning of Undergraduate Record"
	extendedCreditMarker = "Extended Credit Program"
)

var degreePrefixes = []string{"Bachelor of", "Master of", "Doctor of"}

var fieldLabels = []string{
	labelName, labelStudentID, labelBirthdate, labelAdmitTerm, labelActive,
	labelMatriculated, labelMinCredits, labelCreditsEarned, labelCumulativeGPA,
	labelWriting, labelMember, labelWithdrew, recordStart, extendedCreditMarker,
}

var (
	datePattern   = regexp.MustCompile(`^(\d{4}[-/]\d{1,2}[-/]\d{1,2}|\d{1,2}[-/]\d{1,2}[-/]\d{4}|[A-Z][a-z]{2,8}\.? \d{1,2},? \d{4})$`)
	numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

func isDate(s string) bool { return datePattern.MatchString(strings.TrimSpace(s)) }

func isDegree(s string) bool {
	for _, p := range degreePrefixes {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// isLabel reports whether line starts a known field, so it must not be
// swallowed as the value of the line above it.
func isLabel(line string) bool {
	if isDegree(line) {
		return true
	}
	for _, l := range fieldLabels {
		if strings.HasPrefix(line, l) {
			return true
		}
	}
	_, _, ok := term.Parse(line)
	return ok
}

// valueOf returns the text after label on the same line, or the next line
// when the label stands alone and the next line is not a label itself.
func valueOf(line, label, next string) (string, int) {
	v := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line[strings.Index(line, label)+len(label):]), ":"))
	if v != "" {
		return v, 1
	}
	if next != "" && !isLabel(next) {
		return next, 2
	}
	return "", 1
}

func parseNumber(s string) *float64 {
	m := numberPattern.FindString(s)
	if m == "" {
		return nil
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return nil
	}
	return &f
}

func hasCoopMarker(s string) bool {
	return strings.Contains(s, "(Co-op)") || strings.Contains(s, "COOP")
}

// step is the transition function. Given the current state, the current line
// and its successor, it returns the next state, how many lines were consumed
// and the fields recognized.
func step(st State, line, next string) (State, int, []event) {
	if st == Done {
		return Done, 1, nil
	}
	if strings.Contains(line, recordStart) {
		return Done, 1, nil
	}
	if _, _, ok := term.Parse(line); ok {
		return Done, 1, nil
	}

	switch {
	case strings.HasPrefix(line, labelName):
		v, n := valueOf(line, labelName, next)
		return InAddressBlock, n, []event{{field: fieldName, value: v}}

	case strings.HasPrefix(line, labelStudentID):
		v, n := valueOf(line, labelStudentID, next)
		return leaveAddress(st), n, []event{{field: fieldStudentID, value: v}}

	case strings.HasPrefix(line, labelBirthdate):
		v, n := valueOf(line, labelBirthdate, next)
		return leaveAddress(st), n, []event{{field: fieldBirthdate, value: v}}

	case strings.HasPrefix(line, labelActive):
		v := strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(line, labelActive), ":"))
		n := 1
		if v == "" && isDate(next) {
			v, n = next, 2
		}
		return InProgramSection, n, []event{{field: fieldActiveDate, value: v}}

	case strings.HasPrefix(line, labelAdmitTerm):
		v := strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(line, labelAdmitTerm), ":"))
		n := 1
		if v == "" {
			if _, _, ok := term.Parse(next); ok {
				v, n = next, 2
			}
		}
		if name, year, ok := term.Parse(v); ok {
			return InProgramSection, n, []event{{field: fieldAdmitTerm, value: name, extra: year}}
		}
		return InProgramSection, n, []event{{field: fieldAdmitTerm, value: v}}

	case strings.HasPrefix(line, labelMatriculated):
		v := strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(line, labelMatriculated), ":"))
		n := 1
		if v == "" {
			if _, _, ok := term.Parse(next); ok {
				v, n = next, 2
			}
		}
		return InProgramSection, n, []event{{field: fieldMatriculated, value: v}}

	case strings.HasPrefix(line, labelMember):
		return InProgramSection, 1, []event{{field: fieldCoop, value: "true"}}

	case strings.HasPrefix(line, labelWithdrew):
		return InProgramSection, 1, []event{{field: fieldCoop, value: "false"}}

	case strings.HasPrefix(line, labelMinCredits):
		return numericField(line, labelMinCredits, next, fieldMinCredits)

	case strings.HasPrefix(line, labelCreditsEarned):
		return numericField(line, labelCreditsEarned, next, fieldCreditsEarned)

	case strings.HasPrefix(line, labelCumulativeGPA):
		return numericField(line, labelCumulativeGPA, next, fieldCumulativeGPA)

	case strings.HasPrefix(line, labelWriting):
		v, n := valueOf(line, labelWriting, next)
		return InProgramSection, n, []event{{field: fieldWritingSkills, value: v}}

	case isDegree(line):
		return degreeLine(line, next)
	}

	switch st {
	case InAddressBlock:
		return InAddressBlock, 1, []event{{field: fieldAddress, value: line}}
	case InProgramSection:
		var evs []event
		if hasCoopMarker(line) {
			evs = append(evs, event{field: fieldCoop, value: "true"})
		}
		if strings.Contains(line, extendedCreditMarker) {
			evs = append(evs, event{field: fieldExtendedCredit})
		}
		return InProgramSection, 1, evs
	}
	return st, 1, nil
}

func leaveAddress(st State) State {
	if st == InAddressBlock {
		return AwaitingLabel
	}
	return st
}

func numericField(line, label, next string, f field) (State, int, []event) {
	v, n := valueOf(line, label, next)
	num := parseNumber(v)
	if num == nil {
		// Malformed value: leave the field unset and don't eat the next line.
		return InProgramSection, 1, nil
	}
	return InProgramSection, n, []event{{field: f, number: num}}
}

// degreeLine reads "Bachelor of X, Major" or a degree line followed by the
// major on its own line.
func degreeLine(line, next string) (State, int, []event) {
	var evs []event
	if hasCoopMarker(line) {
		evs = append(evs, event{field: fieldCoop, value: "true"})
	}
	if strings.Contains(line, extendedCreditMarker) {
		evs = append(evs, event{field: fieldExtendedCredit})
	}

	if i := strings.IndexByte(line, ','); i >= 0 {
		evs = append(evs,
			event{field: fieldDegree, value: strings.TrimSpace(line[:i])},
			event{field: fieldMajor, value: strings.TrimSpace(line[i+1:])},
		)
		return InProgramSection, 1, evs
	}

	evs = append(evs, event{field: fieldDegree, value: line})
	if next != "" && !isLabel(next) && !isDate(next) {
		evs = append(evs, event{field: fieldMajor, value: next})
		if hasCoopMarker(next) {
			evs = append(evs, event{field: fieldCoop, value: "true"})
		}
		return InProgramSection, 2, evs
	}
	return InProgramSection, 1, evs
}
