// Package program reads the biographical block and program history printed on
// the first page of a transcript.
//
// The first page is scanned line by line with an explicit state machine. Each
// recognized label consumes its own line, or its line and the next when the
// value is printed underneath. A new "Active in Program" line after a degree
// has been seen starts a new history entry, which is how program changes show
// up as separate entries.
package program

import (
	"strings"
)

// Student holds the biographical fields of the first page.
type Student struct {
	Name      string   `json:"name,omitempty"`
	ID        string   `json:"id,omitempty"`
	Birthdate string   `json:"birthdate,omitempty"`
	Address   []string `json:"address,omitempty"`
}

// Entry is one program-history record. Every field is optional.
type Entry struct {
	ActiveDate               string   `json:"activeDate,omitempty"`
	AdmitTerm                string   `json:"admitTerm,omitempty"`
	AdmitYear                string   `json:"admitYear,omitempty"`
	Matriculated             bool     `json:"matriculated,omitempty"`
	MatriculationTerm        string   `json:"matriculationTerm,omitempty"`
	DegreeType               string   `json:"degreeType,omitempty"`
	Major                    string   `json:"major,omitempty"`
	Coop                     *bool    `json:"coop,omitempty"`
	ExtendedCreditProgram    bool     `json:"extendedCreditProgram,omitempty"`
	MinCreditsRequired       *float64 `json:"minCreditsRequired,omitempty"`
	ProgramCreditsEarned     *float64 `json:"programCreditsEarned,omitempty"`
	CumulativeGPA            *float64 `json:"cumulativeGPA,omitempty"`
	WritingSkillsRequirement string   `json:"writingSkillsRequirement,omitempty"`
}

func (e *Entry) empty() bool {
	return *e == Entry{}
}

// History is the parsed first page.
type History struct {
	Student Student `json:"student"`
	Entries []Entry `json:"entries"`

	// ExtendedCreditText is set when the Extended Credit Program marker
	// appears anywhere on the first page, inside a program window or not.
	ExtendedCreditText bool `json:"extendedCreditText,omitempty"`
}

// Last returns the most recent program entry, or nil if none was found.
func (h *History) Last() *Entry {
	if h == nil || len(h.Entries) == 0 {
		return nil
	}
	return &h.Entries[len(h.Entries)-1]
}

// IsExtendedCreditProgram reports whether any entry or the page text signals
// the Extended Credit Program.
func (h *History) IsExtendedCreditProgram() bool {
	if h == nil {
		return false
	}
	if h.ExtendedCreditText {
		return true
	}
	for _, e := range h.Entries {
		if e.ExtendedCreditProgram {
			return true
		}
	}
	return false
}

// Parse scans the first page's plain text.
func Parse(text string) *History {
	var lines []string
	for _, l := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if l = strings.Join(strings.Fields(l), " "); l != "" {
			lines = append(lines, l)
		}
	}

	b := &builder{h: &History{Entries: []Entry{}}}
	b.h.ExtendedCreditText = strings.Contains(text, extendedCreditMarker)

	st := AwaitingLabel
	for i := 0; i < len(lines) && st != Done; {
		next := ""
		if i+1 < len(lines) {
			next = lines[i+1]
		}
		var evs []event
		var consumed int
		st, consumed, evs = step(st, lines[i], next)
		for _, ev := range evs {
			b.apply(ev)
		}
		i += consumed
	}
	b.flush()
	return b.h
}

// builder accumulates events into a History.
type builder struct {
	h   *History
	cur Entry
}

func (b *builder) flush() {
	if !b.cur.empty() {
		b.h.Entries = append(b.h.Entries, b.cur)
	}
	b.cur = Entry{}
}

func (b *builder) apply(ev event) {
	e := &b.cur
	switch ev.field {
	case fieldName:
		b.h.Student.Name = ev.value
	case fieldAddress:
		b.h.Student.Address = append(b.h.Student.Address, ev.value)
	case fieldStudentID:
		b.h.Student.ID = ev.value
	case fieldBirthdate:
		b.h.Student.Birthdate = ev.value
	case fieldActiveDate:
		if e.DegreeType != "" {
			b.flush()
		}
		b.cur.ActiveDate = ev.value
	case fieldAdmitTerm:
		e.AdmitTerm = ev.value
		e.AdmitYear = ev.extra
	case fieldMatriculated:
		e.Matriculated = true
		e.MatriculationTerm = ev.value
	case fieldDegree:
		e.DegreeType = ev.value
	case fieldMajor:
		e.Major = ev.value
	case fieldCoop:
		v := ev.value == "true"
		e.Coop = &v
	case fieldExtendedCredit:
		e.ExtendedCreditProgram = true
	case fieldMinCredits:
		e.MinCreditsRequired = ev.number
	case fieldCreditsEarned:
		e.ProgramCreditsEarned = ev.number
	case fieldCumulativeGPA:
		e.CumulativeGPA = ev.number
	case fieldWritingSkills:
		e.WritingSkillsRequirement = ev.value
	}
}
