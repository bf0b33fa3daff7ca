//go:build cgo

package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func ptr(v float64) *float64 { return &v }

// ---------------------------------------------------------------------------
// Schema / construction
// ---------------------------------------------------------------------------

func TestNew(t *testing.T) {
	s := newTestStore(t)
	if s.db == nil {
		t.Fatal("expected non-nil *sql.DB")
	}
	v, err := s.SchemaVersion(context.Background())
	if err != nil {
		t.Fatalf("reading schema version: %v", err)
	}
	if v != len(migrations) {
		t.Errorf("schema version = %d, want %d", v, len(migrations))
	}
}

func TestNewCreatesParentDir(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "sub", "dir", "test.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("creating store in nested dir: %v", err)
	}
	s.Close()
}

func TestReopenKeepsVersion(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = New(dbPath)
	if err != nil {
		t.Fatalf("reopening: %v", err)
	}
	defer s.Close()
	if v, _ := s.SchemaVersion(context.Background()); v != len(migrations) {
		t.Errorf("schema version = %d after reopen", v)
	}
}

// ---------------------------------------------------------------------------
// Document CRUD
// ---------------------------------------------------------------------------

func sampleDoc(path string) Document {
	return Document{
		Path:        path,
		Filename:    "record.pdf",
		Format:      "pdf",
		ContentHash: "abc123",
		ParseMethod: "pending",
		Status:      StatusProcessing,
		Metadata:    `{"source":"upload"}`,
	}
}

func TestUpsertAndGetDocument(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.UpsertDocument(ctx, sampleDoc("/tmp/record.pdf"))
	if err != nil {
		t.Fatalf("upserting document: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero document id")
	}

	got, err := s.GetDocument(ctx, id)
	if err != nil {
		t.Fatalf("getting document by id: %v", err)
	}
	if got.Path != "/tmp/record.pdf" || got.Status != StatusProcessing || got.Metadata != `{"source":"upload"}` {
		t.Errorf("unexpected document: %+v", got)
	}

	byPath, err := s.GetDocumentByPath(ctx, "/tmp/record.pdf")
	if err != nil {
		t.Fatalf("getting document by path: %v", err)
	}
	if byPath.ID != id {
		t.Errorf("by path id = %d, want %d", byPath.ID, id)
	}
}

func TestUpsertDocumentSamePathKeepsID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	other, err := s.UpsertDocument(ctx, sampleDoc("/tmp/other.pdf"))
	if err != nil {
		t.Fatal(err)
	}
	id, err := s.UpsertDocument(ctx, sampleDoc("/tmp/record.pdf"))
	if err != nil {
		t.Fatal(err)
	}

	doc := sampleDoc("/tmp/record.pdf")
	doc.ContentHash = "def456"
	again, err := s.UpsertDocument(ctx, doc)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if again != id || again == other {
		t.Errorf("upsert id = %d, want %d", again, id)
	}

	got, _ := s.GetDocument(ctx, id)
	if got.ContentHash != "def456" {
		t.Errorf("content hash = %q, want def456", got.ContentHash)
	}
}

func TestGetDocumentNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.GetDocument(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetDocument err = %v, want ErrNotFound", err)
	}
	if _, err := s.GetDocumentByPath(ctx, "/nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetDocumentByPath err = %v, want ErrNotFound", err)
	}
	if err := s.UpdateDocumentStatus(ctx, 42, StatusParsed); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateDocumentStatus err = %v, want ErrNotFound", err)
	}
	if err := s.DeleteDocument(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteDocument err = %v, want ErrNotFound", err)
	}
}

func TestListDocuments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	docs, err := s.ListDocuments(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if docs == nil || len(docs) != 0 {
		t.Fatalf("expected empty non-nil list, got %v", docs)
	}

	for _, p := range []string{"/a.pdf", "/b.pdf", "/c.pdf"} {
		if _, err := s.UpsertDocument(ctx, sampleDoc(p)); err != nil {
			t.Fatal(err)
		}
	}
	docs, err = s.ListDocuments(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 3 {
		t.Fatalf("expected 3 documents, got %d", len(docs))
	}
}

func TestUpdateDocumentStatusAndParse(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, _ := s.UpsertDocument(ctx, sampleDoc("/tmp/record.pdf"))
	if err := s.UpdateDocumentStatus(ctx, id, StatusParsed); err != nil {
		t.Fatalf("updating status: %v", err)
	}
	if err := s.UpdateDocumentParse(ctx, id, "native", 3); err != nil {
		t.Fatalf("updating parse info: %v", err)
	}

	got, _ := s.GetDocument(ctx, id)
	if got.Status != StatusParsed || got.ParseMethod != "native" || got.PageCount != 3 {
		t.Errorf("unexpected document: %+v", got)
	}
}

// ---------------------------------------------------------------------------
// Transcripts
// ---------------------------------------------------------------------------

func sampleRecord() TranscriptRecord {
	return TranscriptRecord{
		Result:   []byte(`{"semesters":[]}`),
		Analysis: []byte(`{"pageCount":1}`),
		Terms: []Term{
			{Term: "Fall", Year: "2022", Page: 0, Y: 100, GPA: ptr(3.7)},
			{Term: "Winter", Year: "2023", Page: 1, Y: 40},
		},
		Courses: []Course{
			{TermKey: "Fall 2022", Code: "COMP248", Section: "EC", Credits: 3.5, Grade: "A-", GPA: ptr(3.2), Kind: KindSemester},
			{TermKey: "Winter 2023", Code: "CWTE100", Section: "W", Other: "WKRT", Kind: KindSemester},
			{Code: "ENGR201", Title: "Physics", Credits: 3.5, Grade: "EX", Kind: KindExempted},
			{Code: "MATH205", Credits: 3, Grade: "TRC", YearAttended: "2019", Kind: KindTransfer},
		},
	}
}

func TestSaveAndGetTranscript(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, _ := s.UpsertDocument(ctx, sampleDoc("/tmp/record.pdf"))
	rec := sampleRecord()
	if err := s.SaveTranscript(ctx, id, rec); err != nil {
		t.Fatalf("saving transcript: %v", err)
	}

	tr, err := s.GetTranscript(ctx, id)
	if err != nil {
		t.Fatalf("getting transcript: %v", err)
	}
	if string(tr.Result) != `{"semesters":[]}` || string(tr.Analysis) != `{"pageCount":1}` {
		t.Errorf("unexpected transcript: result=%s analysis=%s", tr.Result, tr.Analysis)
	}

	terms, err := s.ListTerms(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	ignore := cmpopts.IgnoreFields(Term{}, "ID", "DocumentID")
	if diff := cmp.Diff(rec.Terms, terms, ignore); diff != "" {
		t.Errorf("terms (-want +got):\n%s", diff)
	}

	courses, err := s.ListCourses(ctx, id, "")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(rec.Courses, courses, cmpopts.IgnoreFields(Course{}, "ID", "DocumentID")); diff != "" {
		t.Errorf("courses (-want +got):\n%s", diff)
	}

	exempted, err := s.ListCourses(ctx, id, KindExempted)
	if err != nil {
		t.Fatal(err)
	}
	if len(exempted) != 1 || exempted[0].Code != "ENGR201" {
		t.Errorf("exempted = %+v", exempted)
	}
}

func TestSaveTranscriptReplaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, _ := s.UpsertDocument(ctx, sampleDoc("/tmp/record.pdf"))
	if err := s.SaveTranscript(ctx, id, sampleRecord()); err != nil {
		t.Fatal(err)
	}
	next := TranscriptRecord{
		Result:  []byte(`{"semesters":[{"term":"Fall 2024","courses":[]}]}`),
		Courses: []Course{{TermKey: "Fall 2024", Code: "SOEN287", Kind: KindSemester}},
	}
	if err := s.SaveTranscript(ctx, id, next); err != nil {
		t.Fatalf("second save: %v", err)
	}

	courses, _ := s.ListCourses(ctx, id, "")
	if len(courses) != 1 || courses[0].Code != "SOEN287" {
		t.Errorf("courses after replace = %+v", courses)
	}
	terms, _ := s.ListTerms(ctx, id)
	if len(terms) != 0 {
		t.Errorf("terms after replace = %+v", terms)
	}
	tr, _ := s.GetTranscript(ctx, id)
	if tr.Analysis != nil {
		t.Errorf("analysis after replace = %s, want none", tr.Analysis)
	}
}

func TestSaveTranscriptRejectsBadKind(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, _ := s.UpsertDocument(ctx, sampleDoc("/tmp/record.pdf"))
	if err := s.SaveTranscript(ctx, id, sampleRecord()); err != nil {
		t.Fatal(err)
	}

	bad := TranscriptRecord{
		Result:  []byte(`{}`),
		Courses: []Course{{Code: "COMP248", Kind: "bogus"}},
	}
	if err := s.SaveTranscript(ctx, id, bad); err == nil {
		t.Fatal("expected error for invalid course kind")
	}

	// The failed save must leave the previous transcript intact.
	courses, _ := s.ListCourses(ctx, id, "")
	if len(courses) != 4 {
		t.Errorf("expected 4 courses after rollback, got %d", len(courses))
	}
}

func TestGetTranscriptNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetTranscript(context.Background(), 7); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteDocumentCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, _ := s.UpsertDocument(ctx, sampleDoc("/tmp/record.pdf"))
	if err := s.SaveTranscript(ctx, id, sampleRecord()); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteDocument(ctx, id); err != nil {
		t.Fatalf("deleting document: %v", err)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(&Stats{}, stats); diff != "" {
		t.Errorf("stats after delete (-want +got):\n%s", diff)
	}
}

func TestStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, _ := s.UpsertDocument(ctx, sampleDoc("/tmp/record.pdf"))
	if err := s.SaveTranscript(ctx, id, sampleRecord()); err != nil {
		t.Fatal(err)
	}
	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := &Stats{Documents: 1, Transcripts: 1, Terms: 2, Courses: 4}
	if diff := cmp.Diff(want, stats); diff != "" {
		t.Errorf("stats (-want +got):\n%s", diff)
	}
}
