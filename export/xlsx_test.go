package export

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"

	"github.com/iKozay/TrackMyDegree-sub000/layout"
	"github.com/iKozay/TrackMyDegree-sub000/parser"
)

const record = `Student Name: Jane Doe
Student ID: 40012345
Active in Program
2019-09-03
Admit Term Fall 2019
Bachelor of Engineering, Software Engineering
Beginning of Undergraduate Record
Fall 2019
COMP 248 EC 3.50 A- 3.70
Term GPA 3.45
Exemptions
ENGR 201 Physics EX NA 3.50
Transfer Credits
MATH 205 Calculus TRC 2019 3.00`

func openWorkbook(t *testing.T, a *layout.Analysis) *excelize.File {
	t.Helper()
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, a); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("opening workbook: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestWriteXLSXSheets(t *testing.T) {
	a := layout.Reconstruct(parser.FromText(record), layout.Config{})
	f := openWorkbook(t, a)

	want := []string{SheetProgram, SheetSemesters, SheetExemptions, SheetTransfers}
	if diff := cmp.Diff(want, f.GetSheetList()); diff != "" {
		t.Errorf("sheets (-want +got):\n%s", diff)
	}
}

func TestWriteXLSXSemesters(t *testing.T) {
	a := layout.Reconstruct(parser.FromText(record), layout.Config{})
	f := openWorkbook(t, a)

	rows, err := f.GetRows(SheetSemesters)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %v", rows)
	}
	if rows[0][0] != "Term" || rows[0][7] != "Term GPA" {
		t.Errorf("header = %v", rows[0])
	}

	first := rows[1]
	if first[0] != "Fall 2019" || first[1] != "COMP248" || first[2] != "EC" || first[4] != "A-" {
		t.Errorf("first row = %v", first)
	}
	if first[5] != "3.70" || first[7] != "3.45" {
		t.Errorf("first row gpa columns = %q %q", first[5], first[7])
	}

	second := rows[2]
	if second[0] != "Transfer Credits 2019" || second[1] != "MATH205" || second[4] != "TRC" {
		t.Errorf("second row = %v", second)
	}
}

func TestWriteXLSXTransfers(t *testing.T) {
	a := layout.Reconstruct(parser.FromText(record), layout.Config{})
	f := openWorkbook(t, a)

	ex, err := f.GetRows(SheetExemptions)
	if err != nil {
		t.Fatal(err)
	}
	if len(ex) != 2 || ex[1][0] != "ENGR201" || ex[1][1] != "Physics" || ex[1][2] != "EX" {
		t.Errorf("exemptions = %v", ex)
	}

	trc, err := f.GetRows(SheetTransfers)
	if err != nil {
		t.Fatal(err)
	}
	if len(trc) != 2 || trc[1][0] != "MATH205" || trc[1][3] != "2019" {
		t.Errorf("transfers = %v", trc)
	}
}

func TestWriteXLSXProgram(t *testing.T) {
	a := layout.Reconstruct(parser.FromText(record), layout.Config{})
	f := openWorkbook(t, a)

	rows, err := f.GetRows(SheetProgram)
	if err != nil {
		t.Fatal(err)
	}
	got := make(map[string]string)
	for _, r := range rows[1:] {
		if len(r) == 2 {
			got[r[0]] = r[1]
		}
	}
	for k, v := range map[string]string{
		"Student Name": "Jane Doe",
		"Degree":       "Bachelor of Engineering, Software Engineering",
		"First Term":   "Fall 2019",
		"Last Term":    "Fall 2019",
		"Active Date":  "2019-09-03",
	} {
		if got[k] != v {
			t.Errorf("%s = %q, want %q", k, got[k], v)
		}
	}
}

func TestWriteXLSXEmpty(t *testing.T) {
	f := openWorkbook(t, layout.Reconstruct(nil, layout.Config{}))

	rows, err := f.GetRows(SheetSemesters)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Errorf("expected header only, got %v", rows)
	}
}
