// Package export renders reconstructed transcripts as spreadsheets.
package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/iKozay/TrackMyDegree-sub000/layout"
)

// Sheet names, in workbook order.
const (
	SheetProgram    = "Program"
	SheetSemesters  = "Semesters"
	SheetExemptions = "Exemptions"
	SheetTransfers  = "Transfers"
)

var (
	semesterHeader = []any{"Term", "Course", "Section", "Credits", "Grade", "GPA", "Other", "Term GPA"}
	transferHeader = []any{"Course", "Title", "Grade", "Year", "Credits"}
)

// WriteXLSX writes a workbook describing a to w.
func WriteXLSX(w io.Writer, a *layout.Analysis) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", SheetProgram); err != nil {
		return err
	}
	for _, name := range []string{SheetSemesters, SheetExemptions, SheetTransfers} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("creating sheet %s: %w", name, err)
		}
	}

	sheets := []struct {
		name   string
		header []any
		rows   [][]any
	}{
		{SheetProgram, []any{"Field", "Value"}, programRows(a)},
		{SheetSemesters, semesterHeader, semesterRows(a)},
		{SheetExemptions, transferHeader, transferRows(a, "EX")},
		{SheetTransfers, transferHeader, transferRows(a, "TRC")},
	}
	for _, s := range sheets {
		if err := writeTable(f, s.name, s.header, s.rows, bold); err != nil {
			return fmt.Errorf("writing sheet %s: %w", s.name, err)
		}
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeTable(f *excelize.File, sheet string, header []any, rows [][]any, style int) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func programRows(a *layout.Analysis) [][]any {
	rows := [][]any{}
	add := func(k string, v any) { rows = append(rows, []any{k, v}) }

	if a.Student.Name != "" {
		add("Student Name", a.Student.Name)
	}
	if a.Student.ID != "" {
		add("Student ID", a.Student.ID)
	}

	info := a.Transcript.ProgramInfo
	if info == nil {
		return rows
	}
	add("Degree", info.Degree)
	add("First Term", info.FirstTerm)
	add("Last Term", info.LastTerm)
	add("Co-op", info.IsCoop)
	add("Extended Credit Program", info.IsExtendedCreditProgram)
	if info.MinCreditsRequired != nil {
		add("Min. Credits Required", *info.MinCreditsRequired)
	}
	if info.ProgramCreditsEarned != nil {
		add("Program Credits Earned", *info.ProgramCreditsEarned)
	}
	if info.CumulativeGPA != nil {
		add("Cumulative GPA", *info.CumulativeGPA)
	}
	if info.WritingSkillsRequirement != "" {
		add("Writing Skills Requirement", info.WritingSkillsRequirement)
	}
	if info.ActiveDate != "" {
		add("Active Date", info.ActiveDate)
	}
	return rows
}

func semesterRows(a *layout.Analysis) [][]any {
	termGPA := make(map[string]*float64, len(a.Terms))
	for _, t := range a.Terms {
		if _, ok := termGPA[t.Key()]; !ok || termGPA[t.Key()] == nil {
			termGPA[t.Key()] = t.GPA
		}
	}

	rows := [][]any{}
	for _, c := range a.Courses {
		rows = append(rows, []any{
			c.Key(), c.Code(), c.Section, c.Credits, c.Grade,
			optional(c.GPA), c.Other, optional(termGPA[c.Key()]),
		})
	}
	return rows
}

func transferRows(a *layout.Analysis, grade string) [][]any {
	rows := [][]any{}
	for _, t := range a.Transfers {
		if t.Grade != grade {
			continue
		}
		rows = append(rows, []any{t.Code(), t.CourseTitle, t.Grade, t.YearAttended, t.Credits})
	}
	return rows
}

func optional(v *float64) any {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}
