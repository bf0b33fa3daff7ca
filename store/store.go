package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("store: not found")

// Course kinds.
const (
	KindSemester = "semester"
	KindExempted = "exempted"
	KindTransfer = "transfer"
)

// Document statuses.
const (
	StatusProcessing = "processing"
	StatusParsed     = "parsed"
	StatusError      = "error"
)

// Document represents a row in the documents table.
type Document struct {
	ID          int64  `json:"id"`
	Path        string `json:"path"`
	Filename    string `json:"filename"`
	Format      string `json:"format"`
	ContentHash string `json:"content_hash"`
	ParseMethod string `json:"parse_method"`
	Status      string `json:"status"`
	PageCount   int    `json:"page_count"`
	Metadata    string `json:"metadata,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// Transcript holds the serialized result of one reconstruction.
type Transcript struct {
	DocumentID int64  `json:"document_id"`
	Result     []byte `json:"result"`
	Analysis   []byte `json:"analysis,omitempty"`
	CreatedAt  string `json:"created_at"`
}

// Term represents a row in the terms table.
type Term struct {
	ID         int64    `json:"id"`
	DocumentID int64    `json:"document_id"`
	Term       string   `json:"term"`
	Year       string   `json:"year"`
	Page       int      `json:"page"`
	Y          float64  `json:"y"`
	GPA        *float64 `json:"gpa,omitempty"`
}

// Course represents a row in the courses table.
type Course struct {
	ID           int64    `json:"id"`
	DocumentID   int64    `json:"document_id"`
	TermKey      string   `json:"term_key,omitempty"`
	Code         string   `json:"code"`
	Section      string   `json:"section,omitempty"`
	Title        string   `json:"title,omitempty"`
	Credits      float64  `json:"credits"`
	Grade        string   `json:"grade,omitempty"`
	GPA          *float64 `json:"gpa,omitempty"`
	Other        string   `json:"other,omitempty"`
	YearAttended string   `json:"year_attended,omitempty"`
	Kind         string   `json:"kind"`
}

// Stats holds row counts.
type Stats struct {
	Documents   int `json:"documents"`
	Transcripts int `json:"transcripts"`
	Terms       int `json:"terms"`
	Courses     int `json:"courses"`
}

// Store wraps the SQLite database holding parsed transcripts.
type Store struct {
	db *sql.DB
}

// New opens (or creates) a SQLite database at the given path and
// initialises the schema.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &Store{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// --- Document operations ---

// UpsertDocument inserts or updates a document keyed by path. Returns the
// document ID.
func (s *Store) UpsertDocument(ctx context.Context, doc Document) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO documents (path, filename, format, content_hash, parse_method, status, page_count, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			filename = excluded.filename,
			format = excluded.format,
			content_hash = excluded.content_hash,
			parse_method = excluded.parse_method,
			status = excluded.status,
			page_count = excluded.page_count,
			metadata = excluded.metadata,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id
	`, doc.Path, doc.Filename, doc.Format, doc.ContentHash, doc.ParseMethod, doc.Status,
		doc.PageCount, nullString(doc.Metadata)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upserting document: %w", err)
	}
	return id, nil
}

const documentColumns = `id, path, filename, format, content_hash, parse_method, status, page_count, metadata, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*Document, error) {
	doc := &Document{}
	var metadata sql.NullString
	err := row.Scan(&doc.ID, &doc.Path, &doc.Filename, &doc.Format,
		&doc.ContentHash, &doc.ParseMethod, &doc.Status, &doc.PageCount,
		&metadata, &doc.CreatedAt, &doc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	doc.Metadata = metadata.String
	return doc, nil
}

// GetDocumentByPath retrieves a document by its file path.
func (s *Store) GetDocumentByPath(ctx context.Context, path string) (*Document, error) {
	return scanDocument(s.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE path = ?", path))
}

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(ctx context.Context, id int64) (*Document, error) {
	return scanDocument(s.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE id = ?", id))
}

// ListDocuments returns all documents, newest first.
func (s *Store) ListDocuments(ctx context.Context) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+documentColumns+" FROM documents ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *d)
	}
	return docs, rows.Err()
}

// UpdateDocumentStatus updates just the status field.
func (s *Store) UpdateDocumentStatus(ctx context.Context, id int64, status string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE documents SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		status, id)
	if err != nil {
		return err
	}
	return expectRow(res)
}

// UpdateDocumentParse records the decoder used and the page count.
func (s *Store) UpdateDocumentParse(ctx context.Context, id int64, method string, pages int) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE documents SET parse_method = ?, page_count = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		method, pages, id)
	return err
}

// DeleteDocument removes a document. Transcripts, terms and courses cascade.
func (s *Store) DeleteDocument(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return err
	}
	return expectRow(res)
}

// --- Transcript operations ---

// TranscriptRecord is everything saved for one reconstruction.
type TranscriptRecord struct {
	Result   []byte
	Analysis []byte
	Terms    []Term
	Courses  []Course
}

// SaveTranscript replaces the stored result, terms and courses of a
// document in one transaction.
func (s *Store) SaveTranscript(ctx context.Context, docID int64, rec TranscriptRecord) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, q := range []string{
			"DELETE FROM courses WHERE document_id = ?",
			"DELETE FROM terms WHERE document_id = ?",
			"DELETE FROM transcripts WHERE document_id = ?",
		} {
			if _, err := tx.ExecContext(ctx, q, docID); err != nil {
				return fmt.Errorf("clearing old data: %w", err)
			}
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO transcripts (document_id, result, analysis) VALUES (?, ?, ?)",
			docID, string(rec.Result), nullString(string(rec.Analysis))); err != nil {
			return fmt.Errorf("inserting transcript: %w", err)
		}

		termStmt, err := tx.PrepareContext(ctx,
			"INSERT INTO terms (document_id, term, year, page, y, gpa) VALUES (?, ?, ?, ?, ?, ?)")
		if err != nil {
			return err
		}
		defer termStmt.Close()
		for _, t := range rec.Terms {
			if _, err := termStmt.ExecContext(ctx, docID, t.Term, t.Year, t.Page, t.Y, nullFloat(t.GPA)); err != nil {
				return fmt.Errorf("inserting term: %w", err)
			}
		}

		courseStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO courses (document_id, term_key, code, section, title, credits, grade, gpa, other, year_attended, kind)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer courseStmt.Close()
		for _, c := range rec.Courses {
			if _, err := courseStmt.ExecContext(ctx, docID,
				nullString(c.TermKey), c.Code, nullString(c.Section), nullString(c.Title),
				c.Credits, nullString(c.Grade), nullFloat(c.GPA), nullString(c.Other),
				nullString(c.YearAttended), c.Kind); err != nil {
				return fmt.Errorf("inserting course %s: %w", c.Code, err)
			}
		}
		return nil
	})
}

// GetTranscript returns the stored result for a document.
func (s *Store) GetTranscript(ctx context.Context, docID int64) (*Transcript, error) {
	t := &Transcript{}
	var result string
	var analysis sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT document_id, result, analysis, created_at FROM transcripts WHERE document_id = ?",
		docID).Scan(&t.DocumentID, &result, &analysis, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	t.Result = []byte(result)
	if analysis.Valid {
		t.Analysis = []byte(analysis.String)
	}
	return t, nil
}

// ListTerms returns a document's term headers in reading order.
func (s *Store) ListTerms(ctx context.Context, docID int64) ([]Term, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, document_id, term, year, page, y, gpa FROM terms WHERE document_id = ? ORDER BY id",
		docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	terms := []Term{}
	for rows.Next() {
		var t Term
		var gpa sql.NullFloat64
		if err := rows.Scan(&t.ID, &t.DocumentID, &t.Term, &t.Year, &t.Page, &t.Y, &gpa); err != nil {
			return nil, err
		}
		t.GPA = floatPtr(gpa)
		terms = append(terms, t)
	}
	return terms, rows.Err()
}

// ListCourses returns a document's courses in insertion order. An empty
// kind returns every kind.
func (s *Store) ListCourses(ctx context.Context, docID int64, kind string) ([]Course, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, term_key, code, section, title, credits, grade, gpa, other, year_attended, kind
		FROM courses
		WHERE document_id = ? AND (? = '' OR kind = ?)
		ORDER BY id`, docID, kind, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courses := []Course{}
	for rows.Next() {
		var c Course
		var termKey, section, title, grade, other, year sql.NullString
		var credits, gpa sql.NullFloat64
		if err := rows.Scan(&c.ID, &c.DocumentID, &termKey, &c.Code, &section, &title,
			&credits, &grade, &gpa, &other, &year, &c.Kind); err != nil {
			return nil, err
		}
		c.TermKey = termKey.String
		c.Section = section.String
		c.Title = title.String
		c.Credits = credits.Float64
		c.Grade = grade.String
		c.GPA = floatPtr(gpa)
		c.Other = other.String
		c.YearAttended = year.String
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

// Stats returns row counts of the main tables.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	queries := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM documents", &stats.Documents},
		{"SELECT COUNT(*) FROM transcripts", &stats.Transcripts},
		{"SELECT COUNT(*) FROM terms", &stats.Terms},
		{"SELECT COUNT(*) FROM courses", &stats.Courses},
	}
	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.query).Scan(q.dest); err != nil {
			return nil, fmt.Errorf("counting %s: %w", q.query, err)
		}
	}
	return stats, nil
}

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func floatPtr(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}
