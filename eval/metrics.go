package eval

import (
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	transcript "github.com/iKozay/TrackMyDegree-sub000"
)

// Scores compares one parsed transcript against its expected form. Every
// score is in [0, 1].
type Scores struct {
	SemesterRecall  float64 `json:"semester_recall"`
	CourseRecall    float64 `json:"course_recall"`
	CoursePrecision float64 `json:"course_precision"`
	GradeAccuracy   float64 `json:"grade_accuracy"`
	CreditRecall    float64 `json:"credit_recall"` // exempted and transfered codes
	ProgramInfo     float64 `json:"program_info"`
}

var transcriptOpts = cmp.Options{cmpopts.EquateEmpty()}

// Score computes Scores for got against want.
func Score(want, got transcript.ParsedTranscript) Scores {
	wantCourses := courseGrades(want)
	gotCourses := courseGrades(got)

	var s Scores
	s.SemesterRecall = recall(termSet(want), termSet(got))
	s.CourseRecall = recall(keySet(wantCourses), keySet(gotCourses))
	s.CoursePrecision = recall(keySet(gotCourses), keySet(wantCourses))

	matched, sameGrade := 0, 0
	for k, g := range wantCourses {
		if gg, ok := gotCourses[k]; ok {
			matched++
			if strings.EqualFold(g, gg) {
				sameGrade++
			}
		}
	}
	s.GradeAccuracy = ratio(sameGrade, matched)

	s.CreditRecall = recall(
		union(want.ExemptedCourses, want.TransferedCourses),
		union(got.ExemptedCourses, got.TransferedCourses),
	)

	if cmp.Equal(want.ProgramInfo, got.ProgramInfo, transcriptOpts) {
		s.ProgramInfo = 1
	}
	return s
}

// Diff reports the differences between want and got, or "" when they match.
func Diff(want, got transcript.ParsedTranscript) string {
	return cmp.Diff(want, got, transcriptOpts)
}

// courseGrades maps "term|code" to grade.
func courseGrades(t transcript.ParsedTranscript) map[string]string {
	out := make(map[string]string)
	for _, s := range t.Semesters {
		for _, c := range s.Courses {
			out[s.Term+"|"+c.Code] = c.Grade
		}
	}
	return out
}

func termSet(t transcript.ParsedTranscript) map[string]bool {
	out := make(map[string]bool, len(t.Semesters))
	for _, s := range t.Semesters {
		out[s.Term] = true
	}
	return out
}

func keySet(m map[string]string) map[string]bool {
	out := make(map[string]bool, len(m))
	for k := range m {
		out[k] = true
	}
	return out
}

func union(lists ...[]string) map[string]bool {
	out := make(map[string]bool)
	for _, l := range lists {
		for _, v := range l {
			out[v] = true
		}
	}
	return out
}

// recall is the share of want found in got. An empty want scores 1.
func recall(want, got map[string]bool) float64 {
	if len(want) == 0 {
		return 1
	}
	found := 0
	for k := range want {
		if got[k] {
			found++
		}
	}
	return ratio(found, len(want))
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 1
	}
	return float64(n) / float64(d)
}
