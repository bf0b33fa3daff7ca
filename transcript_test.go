package transcript

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const sampleRecord = `Student Name: Jane Doe
Student ID: 40012345
Admit Term Fall 2022
Bachelor of Computer Science, Computer Science
Beginning of Undergraduate Record
Fall 2022
COMP 248 EC 3.50 A-
Term GPA 3.70
Winter 2023
COMP 249 EC 3.50 B+
Exemptions
ENGR 201 Physics EX NA 3.50
Transfer Credits
MATH 205 Calculus TRC 2019 3.00`

func newStatelessEngine(t *testing.T) Engine {
	t.Helper()
	cfg := DefaultConfig()
	cfg.DisableStore = true
	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

// ---------------------------------------------------------------------------
// Stateless engine
// ---------------------------------------------------------------------------

func TestParseTextFile(t *testing.T) {
	e := newStatelessEngine(t)
	path := writeFile(t, "record.txt", sampleRecord)

	res, err := e.Parse(context.Background(), path)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if res.DocumentID != 0 || res.Cached {
		t.Errorf("stateless result = %+v", res)
	}

	tr := res.Transcript
	var terms []string
	for _, s := range tr.Semesters {
		terms = append(terms, s.Term)
	}
	if diff := cmp.Diff([]string{"Transfer Credits 2019", "Fall 2022", "Winter 2023"}, terms); diff != "" {
		t.Errorf("semesters (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"ENGR201"}, tr.ExemptedCourses); diff != "" {
		t.Errorf("exempted (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"MATH205"}, tr.TransferedCourses); diff != "" {
		t.Errorf("transfered (-want +got):\n%s", diff)
	}
	if tr.ProgramInfo == nil || tr.ProgramInfo.Degree != "Bachelor of Computer Science, Computer Science" {
		t.Errorf("programInfo = %+v", tr.ProgramInfo)
	}
}

func TestParseReaderText(t *testing.T) {
	e := newStatelessEngine(t)

	res, err := e.ParseReader(context.Background(), "upload.txt", strings.NewReader(sampleRecord))
	if err != nil {
		t.Fatalf("ParseReader: %v", err)
	}
	if len(res.Transcript.Semesters) != 3 {
		t.Errorf("expected 3 semesters, got %+v", res.Transcript.Semesters)
	}
}

func TestParseOmitTransferTerm(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DisableStore = true
	cfg.IncludeTransferTerm = false
	e, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	res, err := e.ParseReader(context.Background(), "upload.txt", strings.NewReader(sampleRecord))
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range res.Transcript.Semesters {
		if strings.HasPrefix(s.Term, "Transfer Credits") {
			t.Errorf("unexpected pseudo-term %q", s.Term)
		}
	}
}

func TestParseUnsupportedFormat(t *testing.T) {
	e := newStatelessEngine(t)
	path := writeFile(t, "record.docx", "whatever")

	if _, err := e.Parse(context.Background(), path); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestParseUnreadable(t *testing.T) {
	e := newStatelessEngine(t)
	ctx := context.Background()

	if _, err := e.Parse(ctx, filepath.Join(t.TempDir(), "missing.pdf")); !errors.Is(err, ErrDocumentUnreadable) {
		t.Errorf("missing file: err = %v, want ErrDocumentUnreadable", err)
	}
	if _, err := e.ParseReader(ctx, "bad.pdf", strings.NewReader("not a pdf")); !errors.Is(err, ErrDocumentUnreadable) {
		t.Errorf("garbage pdf: err = %v, want ErrDocumentUnreadable", err)
	}
	if _, err := e.ParseReader(ctx, "bad.json", strings.NewReader("{")); !errors.Is(err, ErrDocumentUnreadable) {
		t.Errorf("garbage tokens: err = %v, want ErrDocumentUnreadable", err)
	}
}

func TestParseEmptyDocument(t *testing.T) {
	e := newStatelessEngine(t)

	res, err := e.ParseReader(context.Background(), "empty.txt", strings.NewReader(""))
	if err != nil {
		t.Fatalf("ParseReader: %v", err)
	}
	tr := res.Transcript
	if tr.ProgramInfo != nil || len(tr.Semesters) != 0 || tr.DeficiencyCourses == nil || tr.ExemptedCourses == nil {
		t.Errorf("unexpected transcript for empty input: %+v", tr)
	}
}

func TestStatelessLookups(t *testing.T) {
	e := newStatelessEngine(t)
	ctx := context.Background()

	if _, err := e.Get(ctx, 1); !errors.Is(err, ErrStoreDisabled) {
		t.Errorf("Get err = %v", err)
	}
	if _, err := e.List(ctx); !errors.Is(err, ErrStoreDisabled) {
		t.Errorf("List err = %v", err)
	}
	if err := e.Delete(ctx, 1); !errors.Is(err, ErrStoreDisabled) {
		t.Errorf("Delete err = %v", err)
	}
	if err := e.ExportXLSX(ctx, 1, nil); !errors.Is(err, ErrStoreDisabled) {
		t.Errorf("ExportXLSX err = %v", err)
	}
	if _, err := e.Terms(ctx, 1); !errors.Is(err, ErrStoreDisabled) {
		t.Errorf("Terms err = %v", err)
	}
	if _, err := e.Courses(ctx, 1, ""); !errors.Is(err, ErrStoreDisabled) {
		t.Errorf("Courses err = %v", err)
	}
}

func TestClosedEngine(t *testing.T) {
	e := newStatelessEngine(t)
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}
	if err := e.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	_, err := e.ParseReader(context.Background(), "x.txt", strings.NewReader(sampleRecord))
	if !errors.Is(err, ErrStoreClosed) {
		t.Errorf("err = %v, want ErrStoreClosed", err)
	}
}

func TestNewInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StorageDir = "s3"
	if _, err := New(cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("err = %v, want ErrInvalidConfig", err)
	}
}
