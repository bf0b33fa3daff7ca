package layout

import (
	"strconv"
	"strings"

	"github.com/iKozay/TrackMyDegree-sub000/parser"
	"github.com/iKozay/TrackMyDegree-sub000/term"
)

const (
	// maxTitleTokens bounds the description between a course number and
	// its EX/TRC grade.
	maxTitleTokens = 12
	// sweepWindow is how far the unscoped sweep looks past a course pair
	// for an EX/TRC grade.
	sweepWindow = 10
	// yearNeighborhood is how many tokens around a transfer entry are
	// searched for its year.
	yearNeighborhood = 5
)

// transferFormat matches one exemption/transfer layout starting at toks[i].
// It returns the record and the index just past the match.
type transferFormat func(toks []parser.Token, i int) (TransferCreditRecord, int, bool)

// scopedFormats are tried in order inside a transfer/exemption section.
var scopedFormats = []transferFormat{matchCodeFirst, matchGradeFirst, matchLoose}

// sweepFormats are tried across the whole page.
var sweepFormats = []transferFormat{matchLoose}

// extractTransfers runs the scoped matchers over the page's section and the
// sweep matchers over the whole page. Entries found twice are deduplicated
// by addTransfer.
func (st *parseState) extractTransfers(toks []parser.Token, sec *section) {
	if sec != nil {
		st.runFormats(toks, scopedFormats, sec.contains)
	}
	st.runFormats(toks, sweepFormats, func(parser.Token) bool { return true })
}

func (st *parseState) runFormats(toks []parser.Token, formats []transferFormat, in func(parser.Token) bool) {
	for i := 0; i < len(toks); i++ {
		if !in(toks[i]) {
			continue
		}
		for _, match := range formats {
			rec, next, ok := match(toks, i)
			if !ok {
				continue
			}
			st.raw = append(st.raw, CourseRecord{
				CourseCode: rec.CourseCode,
				Credits:    rec.Credits,
				Grade:      rec.Grade,
				At:         PositionOf(toks[i]),
			})
			st.addTransfer(rec, toks, i)
			i = next - 1
			break
		}
	}
}

// addTransfer records an EX/TRC entry once per course. TRC entries are also
// listed as courses of the "Transfer Credits" pseudo-term.
func (st *parseState) addTransfer(rec TransferCreditRecord, toks []parser.Token, at int) {
	key := rec.Code()
	if !st.transferSeen[key] {
		st.transferSeen[key] = true
		st.transfers = append(st.transfers, rec)
	}
	if rec.Grade != "TRC" || st.cfg.OmitTransferTerm || st.pseudoSeen[key] {
		return
	}
	st.pseudoSeen[key] = true

	year := rec.YearAttended
	if year == "" {
		year = yearNear(toks, at)
	}
	if year == "" {
		year = st.cfg.TransferYearFallback
	}
	st.pseudo = append(st.pseudo, CourseRecord{
		CourseCode:   rec.CourseCode,
		Credits:      rec.Credits,
		Grade:        rec.Grade,
		At:           PositionOf(toks[at]),
		assignedTerm: term.Key(term.TransferCredits, year),
	})
}

// yearNear returns the first 4-digit token within yearNeighborhood tokens of
// toks[at].
func yearNear(toks []parser.Token, at int) string {
	lo, hi := at-yearNeighborhood, at+yearNeighborhood
	if lo < 0 {
		lo = 0
	}
	if hi >= len(toks) {
		hi = len(toks) - 1
	}
	for j := lo; j <= hi; j++ {
		if yearPattern.MatchString(toks[j].Text) {
			return toks[j].Text
		}
	}
	return ""
}

func isYearOrNA(s string) bool { return s == "NA" || yearPattern.MatchString(s) }

func yearValue(s string) string {
	if s == "NA" {
		return ""
	}
	return s
}

func parseCredits(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

// ---------------------------------------------------------------------------
// Formats
// ---------------------------------------------------------------------------

// matchCodeFirst: SUBJ 123 [title...] EX|TRC NA|year credits
func matchCodeFirst(toks []parser.Token, i int) (TransferCreditRecord, int, bool) {
	if !isCoursePair(toks, i) {
		return TransferCreditRecord{}, 0, false
	}
	j := i + 2
	var title []string
	for ; j < len(toks) && !isTransferGrade(toks[j].Text); j++ {
		if len(title) == maxTitleTokens || isCoursePair(toks, j) || isCredits(toks[j].Text) {
			return TransferCreditRecord{}, 0, false
		}
		title = append(title, toks[j].Text)
	}
	if j+2 >= len(toks) || !isYearOrNA(toks[j+1].Text) || !isCredits(toks[j+2].Text) {
		return TransferCreditRecord{}, 0, false
	}
	return TransferCreditRecord{
		CourseCode:   toks[i].Text + " " + toks[i+1].Text,
		CourseTitle:  strings.Join(title, " "),
		Grade:        toks[j].Text,
		YearAttended: yearValue(toks[j+1].Text),
		Credits:      parseCredits(toks[j+2].Text),
	}, j + 3, true
}

// matchGradeFirst: EX|TRC NA|year credits SUBJ 123 [title...]
func matchGradeFirst(toks []parser.Token, i int) (TransferCreditRecord, int, bool) {
	if i+4 >= len(toks) || !isTransferGrade(toks[i].Text) || !isYearOrNA(toks[i+1].Text) ||
		!isCredits(toks[i+2].Text) || !isCoursePair(toks, i+3) {
		return TransferCreditRecord{}, 0, false
	}
	j := i + 5
	var title []string
	for ; j < len(toks) && len(title) < maxTitleTokens; j++ {
		s := toks[j].Text
		if isTransferGrade(s) || isCredits(s) || isCoursePair(toks, j) {
			break
		}
		title = append(title, s)
	}
	return TransferCreditRecord{
		CourseCode:   toks[i+3].Text + " " + toks[i+4].Text,
		CourseTitle:  strings.Join(title, " "),
		Grade:        toks[i].Text,
		YearAttended: yearValue(toks[i+1].Text),
		Credits:      parseCredits(toks[i+2].Text),
	}, j, true
}

// matchLoose: SUBJ 123 followed within sweepWindow tokens by EX|TRC. Credits
// come from the credits token nearest the grade, on either side. A row that
// shows credits and then a letter grade is a regular course and is skipped.
func matchLoose(toks []parser.Token, i int) (TransferCreditRecord, int, bool) {
	if !isCoursePair(toks, i) {
		return TransferCreditRecord{}, 0, false
	}

	end := i + 2 + sweepWindow
	if end > len(toks) {
		end = len(toks)
	}
	gradeIdx := -1
	sawCredits := false
	for j := i + 2; j < end; j++ {
		s := toks[j].Text
		if isCoursePair(toks, j) {
			end = j
			break
		}
		if isTransferGrade(s) {
			gradeIdx = j
			break
		}
		if isCredits(s) {
			sawCredits = true
		} else if sawCredits && letterPattern.MatchString(s) {
			return TransferCreditRecord{}, 0, false
		}
	}
	if gradeIdx < 0 {
		return TransferCreditRecord{}, 0, false
	}

	limit := gradeIdx + 4
	if limit > end {
		limit = end
	}
	for j := gradeIdx + 1; j < limit; j++ {
		if isCoursePair(toks, j) {
			limit = j
			break
		}
	}
	credIdx := -1
	for j := i + 2; j < limit; j++ {
		if !isCredits(toks[j].Text) {
			continue
		}
		if credIdx < 0 || absInt(j-gradeIdx) < absInt(credIdx-gradeIdx) {
			credIdx = j
		}
	}

	var title []string
	for j := i + 2; j < gradeIdx; j++ {
		s := toks[j].Text
		if isSubject(s) || isNumber(s) || isCredits(s) || isGrade(s) || s == "NA" {
			continue
		}
		title = append(title, s)
	}

	rec := TransferCreditRecord{
		CourseCode:  toks[i].Text + " " + toks[i+1].Text,
		CourseTitle: strings.Join(title, " "),
		Grade:       toks[gradeIdx].Text,
	}
	if gradeIdx+1 < len(toks) && yearPattern.MatchString(toks[gradeIdx+1].Text) {
		rec.YearAttended = toks[gradeIdx+1].Text
	}
	next := gradeIdx + 1
	if credIdx >= 0 {
		rec.Credits = parseCredits(toks[credIdx].Text)
		if credIdx >= next {
			next = credIdx + 1
		}
	}
	return rec, next, true
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
