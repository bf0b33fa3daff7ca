package layout

import (
	"strings"

	"github.com/iKozay/TrackMyDegree-sub000/program"
	"github.com/iKozay/TrackMyDegree-sub000/term"
)

// TermHeader marks the start of a semester's course block.
type TermHeader struct {
	Page  int      `json:"page"`
	Y     float64  `json:"y"`
	Index int      `json:"index"`
	Term  string   `json:"term"`
	Year  string   `json:"year"`
	GPA   *float64 `json:"gpa,omitempty"`
}

// Pos returns the header's position in reading order.
func (h TermHeader) Pos() Position { return Position{Page: h.Page, Y: h.Y, Index: h.Index} }

// Key returns the semester key, e.g. "Fall 2023".
func (h TermHeader) Key() string { return term.Key(h.Term, h.Year) }

// CourseRecord is a course row. At is only meaningful while the record is
// being placed; Term and Year are filled in by assignment.
type CourseRecord struct {
	CourseCode string   `json:"courseCode"` // "COMP 101"
	Section    string   `json:"section"`
	Credits    float64  `json:"credits"`
	Grade      string   `json:"grade,omitempty"`
	GPA        *float64 `json:"gpa,omitempty"`
	Other      string   `json:"other,omitempty"`
	Term       string   `json:"term,omitempty"`
	Year       string   `json:"year,omitempty"`

	At           Position `json:"-"`
	assignedTerm string
}

// Code returns the compact course code used in output ("COMP101").
func (c CourseRecord) Code() string { return compactCode(c.CourseCode) }

// Key returns the semester key the record was assigned to.
func (c CourseRecord) Key() string { return term.Key(c.Term, c.Year) }

// TransferCreditRecord is an exemption (EX) or transfer credit (TRC).
type TransferCreditRecord struct {
	CourseCode   string  `json:"courseCode"`
	CourseTitle  string  `json:"courseTitle,omitempty"`
	Grade        string  `json:"grade"`
	YearAttended string  `json:"yearAttended,omitempty"`
	Credits      float64 `json:"credits"`
}

// Code returns courseCode+courseNumber without a separator.
func (r TransferCreditRecord) Code() string { return compactCode(r.CourseCode) }

func compactCode(s string) string { return strings.ReplaceAll(s, " ", "") }

// ---------------------------------------------------------------------------
// Output
// ---------------------------------------------------------------------------

// ParsedTranscript is the serialized result. Field names match what
// downstream consumers read and must not change.
type ParsedTranscript struct {
	ProgramInfo       *ProgramInfo `json:"programInfo,omitempty"`
	Semesters         []Semester   `json:"semesters"`
	ExemptedCourses   []string     `json:"exemptedCourses"`
	TransferedCourses []string     `json:"transferedCourses"`
	DeficiencyCourses []string     `json:"deficiencyCourses"`
}

// Semester groups the courses of one term.
type Semester struct {
	Term    string   `json:"term"`
	Courses []Course `json:"courses"`
}

// Course is a course as listed in a semester.
type Course struct {
	Code  string `json:"code"`
	Grade string `json:"grade,omitempty"`
}

// ProgramInfo summarizes the most recent program-history entry. Whole
// numbers serialize without a fractional part.
type ProgramInfo struct {
	Degree                   string   `json:"degree,omitempty"`
	FirstTerm                string   `json:"firstTerm,omitempty"`
	LastTerm                 string   `json:"lastTerm,omitempty"`
	IsCoop                   bool     `json:"isCoop"`
	IsExtendedCreditProgram  bool     `json:"isExtendedCreditProgram"`
	MinCreditsRequired       *float64 `json:"minCreditsRequired,omitempty"`
	ProgramCreditsEarned     *float64 `json:"programCreditsEarned,omitempty"`
	CumulativeGPA            *float64 `json:"cumulativeGPA,omitempty"`
	WritingSkillsRequirement string   `json:"writingSkillsRequirement,omitempty"`
	ActiveDate               string   `json:"activeDate,omitempty"`
}

// Analysis is the full reconstruction: the serialized transcript plus the
// intermediate structure it was assembled from.
type Analysis struct {
	Transcript ParsedTranscript       `json:"transcript"`
	Student    program.Student        `json:"student"`
	Programs   []program.Entry        `json:"programs"`
	Terms      []TermHeader           `json:"terms"`
	Courses    []CourseRecord         `json:"courses"`
	Transfers  []TransferCreditRecord `json:"transfers"`
	PageCount  int                    `json:"pageCount"`
}
