package layout

import (
	"sort"

	"github.com/iKozay/TrackMyDegree-sub000/term"
)

// assign places every semester candidate under its governing term header and
// every GPA candidate on the header it follows. It returns the placed
// courses in document order, then the pseudo-term transfer courses. Courses
// with no header before them are dropped.
func (st *parseState) assign() (courses, transfers []CourseRecord) {
	sort.SliceStable(st.headers, func(i, j int) bool {
		return st.headers[i].Pos().Less(st.headers[j].Pos())
	})

	byKey := make(map[string]TermHeader, len(st.headers))
	for _, h := range st.headers {
		if _, ok := byKey[h.Key()]; !ok {
			byKey[h.Key()] = h
		}
	}
	// Pseudo-term headers exist only by name; they never take part in
	// positional lookup.
	for _, c := range st.pseudo {
		if _, ok := byKey[c.assignedTerm]; !ok {
			name, year := term.SplitKey(c.assignedTerm)
			byKey[c.assignedTerm] = TermHeader{Page: c.At.Page, Y: c.At.Y, Index: c.At.Index, Term: name, Year: year}
		}
	}

	courses = st.place(st.candidates, byKey)
	transfers = st.place(st.pseudo, byKey)

	for _, g := range st.gpas {
		i := st.preceding(g.at)
		if i < 0 {
			continue
		}
		if st.headers[i].GPA == nil {
			v := g.value
			st.headers[i].GPA = &v
		}
	}

	return courses, transfers
}

func (st *parseState) place(recs []CourseRecord, byKey map[string]TermHeader) []CourseRecord {
	placed := make([]CourseRecord, 0, len(recs))
	for _, c := range recs {
		h, ok := st.headerFor(c, byKey)
		if !ok {
			st.log.Debug("layout: course before any term header",
				"course", c.CourseCode, "at", c.At.String())
			continue
		}
		c.Term, c.Year = h.Term, h.Year
		placed = append(placed, c)
	}
	return placed
}

// headerFor honours a pre-assigned term when that header exists, and falls
// back to the nearest preceding header otherwise.
func (st *parseState) headerFor(c CourseRecord, byKey map[string]TermHeader) (TermHeader, bool) {
	if c.assignedTerm != "" {
		if h, ok := byKey[c.assignedTerm]; ok {
			return h, true
		}
	}
	i := st.preceding(c.At)
	if i < 0 {
		return TermHeader{}, false
	}
	return st.headers[i], true
}

// preceding returns the index of the last header strictly before p in the
// sorted header list, or -1. Headers on earlier pages precede every position
// on later pages, so a page with no header of its own inherits the last
// header of the pages before it.
func (st *parseState) preceding(p Position) int {
	return sort.Search(len(st.headers), func(i int) bool {
		return !st.headers[i].Pos().Less(p)
	}) - 1
}
