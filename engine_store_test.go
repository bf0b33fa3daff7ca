//go:build cgo

package transcript

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"
)

func newTestEngine(t *testing.T) Engine {
	t.Helper()
	cfg := DefaultConfig()
	cfg.DBPath = filepath.Join(t.TempDir(), "transcripts.db")
	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

// ---------------------------------------------------------------------------
// Persistence
// ---------------------------------------------------------------------------

func TestParseStoresResult(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	path := writeFile(t, "record.txt", sampleRecord)

	res, err := e.Parse(ctx, path, WithMetadata(map[string]string{"student": "40012345"}))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if res.DocumentID == 0 {
		t.Fatal("expected a document id")
	}

	got, err := e.Get(ctx, res.DocumentID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if diff := cmp.Diff(res.Transcript, got.Transcript); diff != "" {
		t.Errorf("stored transcript differs (-parsed +stored):\n%s", diff)
	}
	if got.Analysis == nil || got.Analysis.PageCount != 1 {
		t.Errorf("stored analysis = %+v", got.Analysis)
	}

	docs, err := e.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	d := docs[0]
	if d.Status != "parsed" || d.ParseMethod != "text" || d.PageCount != 1 || d.Metadata["student"] != "40012345" {
		t.Errorf("document = %+v", d)
	}

	stats, err := e.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Documents != 1 || stats.Transcripts != 1 || stats.Courses == 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestParseUnchangedUsesStoredResult(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	path := writeFile(t, "record.txt", sampleRecord)

	first, err := e.Parse(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.Parse(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if !second.Cached || second.DocumentID != first.DocumentID {
		t.Errorf("second parse = id %d cached %v, want id %d cached", second.DocumentID, second.Cached, first.DocumentID)
	}

	forced, err := e.Parse(ctx, path, WithForceReparse())
	if err != nil {
		t.Fatal(err)
	}
	if forced.Cached || forced.DocumentID != first.DocumentID {
		t.Errorf("forced parse = id %d cached %v", forced.DocumentID, forced.Cached)
	}

	if err := os.WriteFile(path, []byte(sampleRecord+"\nSummer 2023\nSOEN 287 S 3.00 A"), 0o644); err != nil {
		t.Fatal(err)
	}
	changed, err := e.Parse(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if changed.Cached || len(changed.Transcript.Semesters) != 4 {
		t.Errorf("changed file: cached=%v semesters=%d", changed.Cached, len(changed.Transcript.Semesters))
	}
}

func TestParseFailureRecordsError(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.ParseReader(ctx, "broken.json", strings.NewReader("{"))
	if !errors.Is(err, ErrDocumentUnreadable) {
		t.Fatalf("err = %v, want ErrDocumentUnreadable", err)
	}

	docs, err := e.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 || docs[0].Status != "error" {
		t.Errorf("documents = %+v", docs)
	}
}

func TestDelete(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	res, err := e.ParseReader(ctx, "record.txt", strings.NewReader(sampleRecord))
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Delete(ctx, res.DocumentID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := e.Get(ctx, res.DocumentID); !errors.Is(err, ErrTranscriptNotFound) {
		t.Errorf("Get after delete: err = %v", err)
	}
	if err := e.Delete(ctx, res.DocumentID); !errors.Is(err, ErrTranscriptNotFound) {
		t.Errorf("second Delete: err = %v", err)
	}
}

func TestExportXLSX(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	res, err := e.ParseReader(ctx, "record.txt", strings.NewReader(sampleRecord))
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := e.ExportXLSX(ctx, res.DocumentID, &buf); err != nil {
		t.Fatalf("ExportXLSX: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("opening workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Semesters")
	if err != nil {
		t.Fatal(err)
	}
	// Header, two semester courses and the transfer pseudo-term course.
	if len(rows) != 4 {
		t.Errorf("expected 4 rows, got %v", rows)
	}

	if err := e.ExportXLSX(ctx, 999, &buf); !errors.Is(err, ErrTranscriptNotFound) {
		t.Errorf("missing document: err = %v", err)
	}
}

func TestCoursesByKind(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	res, err := e.ParseReader(ctx, "record.txt", strings.NewReader(sampleRecord))
	if err != nil {
		t.Fatal(err)
	}

	codes := func(kind string) []string {
		t.Helper()
		rows, err := e.Courses(ctx, res.DocumentID, kind)
		if err != nil {
			t.Fatalf("Courses(%q): %v", kind, err)
		}
		out := []string{}
		for _, c := range rows {
			out = append(out, c.Code)
		}
		return out
	}

	tests := []struct {
		kind string
		want []string
	}{
		{"semester", []string{"COMP248", "COMP249"}},
		{"exempted", []string{"ENGR201"}},
		{"transfer", []string{"MATH205"}},
		{"", []string{"COMP248", "COMP249", "ENGR201", "MATH205"}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, codes(tt.kind)); diff != "" {
			t.Errorf("kind %q (-want +got):\n%s", tt.kind, diff)
		}
	}

	transfers, err := e.Courses(ctx, res.DocumentID, "transfer")
	if err != nil {
		t.Fatal(err)
	}
	if transfers[0].Grade != "TRC" || transfers[0].YearAttended != "2019" || transfers[0].Credits != 3 {
		t.Errorf("transfer row = %+v", transfers[0])
	}

	stats, err := e.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Courses != 4 {
		t.Errorf("stats.Courses = %d, want 4 (transfer credits stored once)", stats.Courses)
	}

	if _, err := e.Courses(ctx, res.DocumentID, "elective"); !errors.Is(err, ErrInvalidCourseKind) {
		t.Errorf("unknown kind: err = %v", err)
	}
	if _, err := e.Courses(ctx, 999, ""); !errors.Is(err, ErrTranscriptNotFound) {
		t.Errorf("missing document: err = %v", err)
	}
}

func TestTerms(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	res, err := e.ParseReader(ctx, "record.txt", strings.NewReader(sampleRecord))
	if err != nil {
		t.Fatal(err)
	}
	terms, err := e.Terms(ctx, res.DocumentID)
	if err != nil {
		t.Fatalf("Terms: %v", err)
	}
	if len(terms) != len(res.Analysis.Terms) {
		t.Fatalf("stored %d terms, analysis has %d", len(terms), len(res.Analysis.Terms))
	}
	last := terms[len(terms)-1]
	if last.Term != "Winter" || last.Year != "2023" || last.DocumentID != res.DocumentID {
		t.Errorf("last term = %+v", last)
	}

	if _, err := e.Terms(ctx, 999); !errors.Is(err, ErrTranscriptNotFound) {
		t.Errorf("missing document: err = %v", err)
	}
}
