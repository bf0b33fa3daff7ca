package layout

import (
	"math"
	"strconv"

	"github.com/iKozay/TrackMyDegree-sub000/parser"
)

// workTermSubject is the co-op work-term subject. Work terms may carry zero
// credits and no grade and are still kept.
const workTermSubject = "CWTE"

// notations mark work-term rows on the same printed line.
var notations = map[string]bool{"WKRT": true, "RPT": true, "PASS": true, "EX": true}

// sameLineTolerance is the vertical distance within which two tokens are on
// the same printed line.
const sameLineTolerance = 5.0

// detectCourses scans for "SUBJ 123 SEC" rows. After the row start it looks,
// in order, for credits, then a grade, then a positive GPA. The search is
// bounded by the scan window and stops at the next row or term header.
func (st *parseState) detectCourses(toks []parser.Token, headerStarts map[int]bool) {
	for i := 0; i+2 < len(toks); i++ {
		if !isCourseTriple(toks, i) {
			continue
		}
		rec, gradeIdx, ok := st.matchCourse(toks, i, headerStarts)
		if !ok {
			st.log.Debug("layout: course row without credits or grade",
				"course", rec.CourseCode, "at", rec.At.String())
			i += 2
			continue
		}

		st.raw = append(st.raw, rec)
		if isTransferGrade(rec.Grade) {
			tr := TransferCreditRecord{
				CourseCode: rec.CourseCode,
				Grade:      rec.Grade,
				Credits:    rec.Credits,
			}
			if gradeIdx+1 < len(toks) && yearPattern.MatchString(toks[gradeIdx+1].Text) {
				tr.YearAttended = toks[gradeIdx+1].Text
			}
			st.addTransfer(tr, toks, i)
		} else {
			st.candidates = append(st.candidates, rec)
		}
		i += 2
	}
}

// matchCourse reads the row starting at toks[i]. It returns the record, the
// index of its grade token (or -1), and whether the row should be kept.
func (st *parseState) matchCourse(toks []parser.Token, i int, headerStarts map[int]bool) (CourseRecord, int, bool) {
	rec := CourseRecord{
		CourseCode: toks[i].Text + " " + toks[i+1].Text,
		Section:    toks[i+2].Text,
		At:         PositionOf(toks[i]),
	}

	end := i + 3 + st.cfg.CourseScanWindow
	if end > len(toks) {
		end = len(toks)
	}
	for j := i + 3; j < end; j++ {
		if headerStarts[j] || isCourseTriple(toks, j) {
			end = j
			break
		}
	}

	credIdx := -1
	for j := i + 3; j < end; j++ {
		if isCredits(toks[j].Text) {
			credIdx = j
			break
		}
	}

	gradeIdx := -1
	if isTransferGrade(rec.Section) {
		// Untitled EX/TRC rows print the grade where the section would be.
		rec.Section = ""
		gradeIdx = i + 2
	}
	from := i + 3
	if credIdx >= 0 {
		from = credIdx + 1
	}
	for j := from; j < end && gradeIdx < 0; j++ {
		if isGrade(toks[j].Text) {
			gradeIdx = j
		}
	}
	if gradeIdx < 0 && credIdx >= 0 {
		// Layouts that print the grade before the credits.
		for j := i + 3; j < credIdx; j++ {
			if isGrade(toks[j].Text) {
				gradeIdx = j
				break
			}
		}
	}

	if credIdx >= 0 {
		rec.Credits, _ = strconv.ParseFloat(toks[credIdx].Text, 64)
	}
	if gradeIdx >= 0 {
		rec.Grade = toks[gradeIdx].Text
		for j := max(gradeIdx, credIdx) + 1; j < end; j++ {
			if !isCredits(toks[j].Text) {
				continue
			}
			if v, err := strconv.ParseFloat(toks[j].Text, 64); err == nil && v > 0 {
				rec.GPA = &v
				break
			}
		}
	}

	if toks[i].Text == workTermSubject {
		rec.Other = sameLineNotation(toks, i)
		return rec, gradeIdx, true
	}
	return rec, gradeIdx, credIdx >= 0 || gradeIdx >= 0
}

// sameLineNotation returns the first notation printed on the same line as the
// row starting at toks[i], preferring tokens to the right of the row.
func sameLineNotation(toks []parser.Token, i int) string {
	y := toks[i].Y0
	check := func(j int) bool {
		return math.Abs(toks[j].Y0-y) < sameLineTolerance && notations[toks[j].Text]
	}
	for j := i + 3; j < len(toks); j++ {
		if check(j) {
			return toks[j].Text
		}
	}
	for j := 0; j < i; j++ {
		if check(j) {
			return toks[j].Text
		}
	}
	return ""
}
