package layout

import (
	"sort"

	"github.com/iKozay/TrackMyDegree-sub000/program"
	"github.com/iKozay/TrackMyDegree-sub000/term"
)

// assemble builds the final result from placed courses.
func (st *parseState) assemble(h *program.History, courses, transfers []CourseRecord, pages int) *Analysis {
	courses = dedupeCourses(courses)

	kept := make([]CourseRecord, 0, len(courses))
	for _, c := range courses {
		if isTransferGrade(c.Grade) {
			continue
		}
		kept = append(kept, c)
	}

	semesters := groupSemesters(kept)
	regular := make([]string, 0, len(semesters))
	for _, s := range semesters {
		regular = append(regular, s.Term)
	}
	if !st.cfg.OmitTransferTerm {
		transfers = dedupeCourses(transfers)
		semesters = append(semesters, groupSemesters(transfers)...)
		sortSemesters(semesters)
	}

	exempted, transfered := reconcile(st.raw, st.transfers)

	a := &Analysis{
		Transcript: ParsedTranscript{
			ProgramInfo:       buildProgramInfo(h, regular),
			Semesters:         semesters,
			ExemptedCourses:   exempted,
			TransferedCourses: transfered,
			DeficiencyCourses: []string{},
		},
		Student:   h.Student,
		Programs:  h.Entries,
		Terms:     st.headers,
		Courses:   append(kept, transfers...),
		Transfers: st.transfers,
		PageCount: pages,
	}
	if a.Terms == nil {
		a.Terms = []TermHeader{}
	}
	if a.Transfers == nil {
		a.Transfers = []TransferCreditRecord{}
	}
	return a
}

// dedupeCourses keeps the first record for each (course code, section).
func dedupeCourses(recs []CourseRecord) []CourseRecord {
	seen := make(map[[2]string]bool, len(recs))
	out := make([]CourseRecord, 0, len(recs))
	for _, r := range recs {
		k := [2]string{r.CourseCode, r.Section}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	return out
}

// groupSemesters groups records by "{term} {year}" and orders the groups
// chronologically. Courses keep document order within a group.
func groupSemesters(recs []CourseRecord) []Semester {
	idx := make(map[string]int)
	semesters := []Semester{}
	for _, r := range recs {
		k := r.Key()
		i, ok := idx[k]
		if !ok {
			i = len(semesters)
			idx[k] = i
			semesters = append(semesters, Semester{Term: k, Courses: []Course{}})
		}
		semesters[i].Courses = append(semesters[i].Courses, Course{Code: r.Code(), Grade: r.Grade})
	}
	sortSemesters(semesters)
	return semesters
}

func sortSemesters(s []Semester) {
	sort.SliceStable(s, func(i, j int) bool { return term.Less(s[i].Term, s[j].Term) })
}

// reconcile recomputes the exempted and transfer lists from every
// course-like record seen, whichever pass found it.
func reconcile(raw []CourseRecord, transfers []TransferCreditRecord) (exempted, transfered []string) {
	ex := make(map[string]bool)
	trc := make(map[string]bool)
	add := func(code, grade string) {
		switch grade {
		case "EX":
			ex[code] = true
		case "TRC":
			trc[code] = true
		}
	}
	for _, r := range raw {
		add(r.Code(), r.Grade)
	}
	for _, t := range transfers {
		add(t.Code(), t.Grade)
	}
	return sortedKeys(ex), sortedKeys(trc)
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// buildProgramInfo reports the last program entry. firstTerm falls back to
// the earliest semester when no admit term was printed.
func buildProgramInfo(h *program.History, semesterKeys []string) *ProgramInfo {
	last := h.Last()
	ecp := h.IsExtendedCreditProgram()
	if last == nil && len(semesterKeys) == 0 && !ecp {
		return nil
	}

	info := &ProgramInfo{IsExtendedCreditProgram: ecp}
	if n := len(semesterKeys); n > 0 {
		info.FirstTerm = semesterKeys[0]
		info.LastTerm = semesterKeys[n-1]
	}
	if last == nil {
		return info
	}

	switch {
	case last.DegreeType != "" && last.Major != "":
		info.Degree = last.DegreeType + ", " + last.Major
	case last.DegreeType != "":
		info.Degree = last.DegreeType
	default:
		info.Degree = last.Major
	}
	if last.AdmitTerm != "" {
		info.FirstTerm = term.Key(last.AdmitTerm, last.AdmitYear)
	}
	info.IsCoop = last.Coop != nil && *last.Coop
	info.MinCreditsRequired = last.MinCreditsRequired
	info.ProgramCreditsEarned = last.ProgramCreditsEarned
	info.CumulativeGPA = last.CumulativeGPA
	info.WritingSkillsRequirement = last.WritingSkillsRequirement
	info.ActiveDate = last.ActiveDate
	return info
}
