// Package transcript reconstructs academic transcripts from PDF (or plain
// text / token stream) documents into structured JSON, and keeps the results
// in a local SQLite database.
package transcript

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/iKozay/TrackMyDegree-sub000/export"
	"github.com/iKozay/TrackMyDegree-sub000/layout"
	"github.com/iKozay/TrackMyDegree-sub000/parser"
	"github.com/iKozay/TrackMyDegree-sub000/store"
)

// ParsedTranscript is the serialized transcript consumed downstream.
type ParsedTranscript = layout.ParsedTranscript

// Analysis is the full reconstruction behind a ParsedTranscript.
type Analysis = layout.Analysis

type (
	Semester    = layout.Semester
	Course      = layout.Course
	ProgramInfo = layout.ProgramInfo
)

// StoredTerm and StoredCourse are the flattened rows kept per document.
type (
	StoredTerm   = store.Term
	StoredCourse = store.Course
)

// CourseKinds lists the values accepted by Engine.Courses.
var CourseKinds = []string{store.KindSemester, store.KindExempted, store.KindTransfer}

// Engine is the main entry point for parsing transcripts.
type Engine interface {
	// Parse decodes the file at path and reconstructs its transcript.
	// Skips decoding if the file's content hash is unchanged.
	Parse(ctx context.Context, path string, opts ...ParseOption) (*Result, error)

	// ParseReader is Parse for content that is not on disk. name supplies
	// the format through its extension.
	ParseReader(ctx context.Context, name string, r io.Reader, opts ...ParseOption) (*Result, error)

	// Get returns a stored result.
	Get(ctx context.Context, documentID int64) (*Result, error)

	// List returns all parsed documents, newest first.
	List(ctx context.Context) ([]Document, error)

	// Delete removes a document and its transcript.
	Delete(ctx context.Context, documentID int64) error

	// ExportXLSX writes a stored transcript as a workbook.
	ExportXLSX(ctx context.Context, documentID int64, w io.Writer) error

	// Terms returns the term headers stored for a document, in reading order.
	Terms(ctx context.Context, documentID int64) ([]StoredTerm, error)

	// Courses returns the course rows stored for a document. kind is one of
	// "semester", "exempted" or "transfer"; empty returns all of them.
	Courses(ctx context.Context, documentID int64, kind string) ([]StoredCourse, error)

	// Stats returns database row counts.
	Stats(ctx context.Context) (*store.Stats, error)

	// Close cleanly shuts down the engine.
	Close() error
}

// Result is the outcome of parsing one document.
type Result struct {
	DocumentID int64             `json:"document_id,omitempty"`
	Transcript *ParsedTranscript `json:"transcript"`
	Analysis   *Analysis         `json:"analysis,omitempty"`
	Cached     bool              `json:"cached,omitempty"`
}

// Document represents a parsed document.
type Document struct {
	ID          int64             `json:"id"`
	Path        string            `json:"path"`
	Filename    string            `json:"filename"`
	Format      string            `json:"format"`
	ContentHash string            `json:"content_hash"`
	ParseMethod string            `json:"parse_method"`
	Status      string            `json:"status"`
	PageCount   int               `json:"page_count"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   string            `json:"created_at"`
	UpdatedAt   string            `json:"updated_at"`
}

// ParseOption configures parsing behavior.
type ParseOption func(*parseOptions)

type parseOptions struct {
	forceReparse bool
	format       string
	metadata     map[string]string
}

// WithForceReparse forces re-parsing even if the hash hasn't changed.
func WithForceReparse() ParseOption {
	return func(o *parseOptions) { o.forceReparse = true }
}

// WithFormat overrides the format derived from the file extension.
func WithFormat(format string) ParseOption {
	return func(o *parseOptions) { o.format = strings.ToLower(format) }
}

// WithMetadata attaches custom metadata to the stored document.
func WithMetadata(metadata map[string]string) ParseOption {
	return func(o *parseOptions) { o.metadata = metadata }
}

// engine is the concrete implementation of Engine.
type engine struct {
	cfg     Config
	store   *store.Store // nil when DisableStore is set
	parsers *parser.Registry
	log     *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// New creates a transcript engine with the given configuration.
func New(cfg Config) (Engine, error) {
	return NewWithLogger(cfg, slog.Default())
}

// NewWithLogger is New with an explicit logger.
func NewWithLogger(cfg Config, logger *slog.Logger) (Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	e := &engine{
		cfg:     cfg,
		parsers: parser.NewRegistry(cfg.StrictPDF, logger),
		log:     logger,
	}
	if cfg.DisableStore {
		return e, nil
	}

	s, err := store.New(cfg.resolveDBPath())
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	e.store = s
	return e, nil
}

func (e *engine) Parse(ctx context.Context, path string, opts ...ParseOption) (*Result, error) {
	options := collect(opts)

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	hash, err := fileHash(absPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDocumentUnreadable, err)
	}

	return e.run(ctx, source{
		path:     absPath,
		filename: filepath.Base(absPath),
		hash:     hash,
		decode: func(p parser.Parser) (*parser.Document, error) {
			return p.Parse(ctx, absPath)
		},
	}, options)
}

func (e *engine) ParseReader(ctx context.Context, name string, r io.Reader, opts ...ParseOption) (*Result, error) {
	options := collect(opts)

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDocumentUnreadable, err)
	}
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])
	filename := filepath.Base(name)

	return e.run(ctx, source{
		// Uploads have no path; identical content under the same name maps
		// to the same document.
		path:     "upload:" + hash[:16] + "/" + filename,
		filename: filename,
		hash:     hash,
		decode: func(p parser.Parser) (*parser.Document, error) {
			if bp, ok := p.(parser.BytesParser); ok {
				return bp.ParseBytes(ctx, data)
			}
			return parseViaTempFile(ctx, p, filename, data)
		},
	}, options)
}

// source is one document to parse, wherever it came from.
type source struct {
	path     string
	filename string
	hash     string
	decode   func(parser.Parser) (*parser.Document, error)
}

func (e *engine) run(ctx context.Context, src source, options *parseOptions) (*Result, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()

	format := options.format
	if format == "" {
		format = strings.ToLower(strings.TrimPrefix(filepath.Ext(src.filename), "."))
	}
	p, err := e.parsers.Get(format)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	if e.store != nil && !options.forceReparse {
		existing, err := e.store.GetDocumentByPath(ctx, src.path)
		if err == nil && existing.ContentHash == src.hash && existing.Status == store.StatusParsed {
			e.log.Info("parse: unchanged, using stored result", "file", src.filename, "doc_id", existing.ID)
			res, err := e.get(ctx, existing.ID)
			if err == nil {
				res.Cached = true
				return res, nil
			}
			e.log.Warn("parse: stored result unreadable, reparsing", "doc_id", existing.ID, "error", err)
		}
	}

	var docID int64
	if e.store != nil {
		var metadataJSON string
		if options.metadata != nil {
			data, _ := json.Marshal(options.metadata)
			metadataJSON = string(data)
		}
		docID, err = e.store.UpsertDocument(ctx, store.Document{
			Path:        src.path,
			Filename:    src.filename,
			Format:      format,
			ContentHash: src.hash,
			ParseMethod: "pending",
			Status:      store.StatusProcessing,
			Metadata:    metadataJSON,
		})
		if err != nil {
			return nil, fmt.Errorf("upserting document: %w", err)
		}
	}

	e.log.Info("parse: decoding document", "file", src.filename, "format", format, "doc_id", docID)
	start := time.Now()

	doc, err := src.decode(p)
	if err != nil {
		e.markError(ctx, docID)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrDocumentUnreadable, err)
	}

	cfg := e.cfg.layoutConfig()
	cfg.Logger = e.log
	a := layout.Reconstruct(doc, cfg)

	e.log.Info("parse: transcript reconstructed",
		"file", src.filename, "method", doc.Method, "pages", a.PageCount,
		"semesters", len(a.Transcript.Semesters),
		"exempted", len(a.Transcript.ExemptedCourses),
		"transfered", len(a.Transcript.TransferedCourses),
		"elapsed", time.Since(start).Round(time.Millisecond))

	res := &Result{DocumentID: docID, Transcript: &a.Transcript, Analysis: a}
	if e.store == nil {
		return res, nil
	}

	if err := e.save(ctx, docID, doc.Method, a); err != nil {
		e.markError(ctx, docID)
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}
	return res, nil
}

func (e *engine) save(ctx context.Context, docID int64, method string, a *Analysis) error {
	rec, err := toRecord(a)
	if err != nil {
		return err
	}
	if err := e.store.SaveTranscript(ctx, docID, rec); err != nil {
		return err
	}
	if err := e.store.UpdateDocumentParse(ctx, docID, method, a.PageCount); err != nil {
		return err
	}
	return e.store.UpdateDocumentStatus(ctx, docID, store.StatusParsed)
}

func (e *engine) markError(ctx context.Context, docID int64) {
	if e.store == nil || docID == 0 {
		return
	}
	if err := e.store.UpdateDocumentStatus(context.WithoutCancel(ctx), docID, store.StatusError); err != nil {
		e.log.Warn("parse: could not record failure", "doc_id", docID, "error", err)
	}
}

func (e *engine) Get(ctx context.Context, documentID int64) (*Result, error) {
	if err := e.checkStore(); err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.get(ctx, documentID)
}

func (e *engine) get(ctx context.Context, documentID int64) (*Result, error) {
	t, err := e.store.GetTranscript(ctx, documentID)
	if err != nil {
		return nil, notFound(err, documentID)
	}

	res := &Result{DocumentID: documentID, Transcript: &ParsedTranscript{}}
	if err := json.Unmarshal(t.Result, res.Transcript); err != nil {
		return nil, fmt.Errorf("decoding stored transcript %d: %w", documentID, err)
	}
	if len(t.Analysis) > 0 {
		res.Analysis = &Analysis{}
		if err := json.Unmarshal(t.Analysis, res.Analysis); err != nil {
			return nil, fmt.Errorf("decoding stored analysis %d: %w", documentID, err)
		}
	}
	return res, nil
}

func (e *engine) List(ctx context.Context) ([]Document, error) {
	if err := e.checkStore(); err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()

	docs, err := e.store.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]Document, len(docs))
	for i, d := range docs {
		result[i] = Document{
			ID:          d.ID,
			Path:        d.Path,
			Filename:    d.Filename,
			Format:      d.Format,
			ContentHash: d.ContentHash,
			ParseMethod: d.ParseMethod,
			Status:      d.Status,
			PageCount:   d.PageCount,
			CreatedAt:   d.CreatedAt,
			UpdatedAt:   d.UpdatedAt,
		}
		if d.Metadata != "" {
			_ = json.Unmarshal([]byte(d.Metadata), &result[i].Metadata)
		}
	}
	return result, nil
}

func (e *engine) Delete(ctx context.Context, documentID int64) error {
	if err := e.checkStore(); err != nil {
		return err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return notFound(e.store.DeleteDocument(ctx, documentID), documentID)
}

func (e *engine) ExportXLSX(ctx context.Context, documentID int64, w io.Writer) error {
	res, err := e.Get(ctx, documentID)
	if err != nil {
		return err
	}
	if res.Analysis == nil {
		return fmt.Errorf("%w: document %d has no stored analysis", ErrTranscriptNotFound, documentID)
	}
	return export.WriteXLSX(w, res.Analysis)
}

func (e *engine) Terms(ctx context.Context, documentID int64) ([]StoredTerm, error) {
	if err := e.checkStore(); err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()

	if _, err := e.store.GetDocument(ctx, documentID); err != nil {
		return nil, notFound(err, documentID)
	}
	return e.store.ListTerms(ctx, documentID)
}

func (e *engine) Courses(ctx context.Context, documentID int64, kind string) ([]StoredCourse, error) {
	if kind != "" && !slices.Contains(CourseKinds, kind) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCourseKind, kind)
	}
	if err := e.checkStore(); err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()

	if _, err := e.store.GetDocument(ctx, documentID); err != nil {
		return nil, notFound(err, documentID)
	}
	return e.store.ListCourses(ctx, documentID, kind)
}

func (e *engine) Stats(ctx context.Context) (*store.Stats, error) {
	if err := e.checkStore(); err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.Stats(ctx)
}

// Close releases the database. It is safe to call more than once.
func (e *engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	if e.store != nil {
		return e.store.Close()
	}
	return nil
}

func (e *engine) checkOpen() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return ErrStoreClosed
	}
	return nil
}

func (e *engine) checkStore() error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	if e.store == nil {
		return ErrStoreDisabled
	}
	return nil
}

func collect(opts []ParseOption) *parseOptions {
	options := &parseOptions{}
	for _, o := range opts {
		o(options)
	}
	return options
}

func notFound(err error, id int64) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %d", ErrTranscriptNotFound, id)
	}
	return err
}

// toRecord flattens an analysis into store rows.
func toRecord(a *Analysis) (store.TranscriptRecord, error) {
	result, err := json.Marshal(a.Transcript)
	if err != nil {
		return store.TranscriptRecord{}, fmt.Errorf("encoding transcript: %w", err)
	}
	analysis, err := json.Marshal(a)
	if err != nil {
		return store.TranscriptRecord{}, fmt.Errorf("encoding analysis: %w", err)
	}

	rec := store.TranscriptRecord{Result: result, Analysis: analysis}
	for _, t := range a.Terms {
		rec.Terms = append(rec.Terms, store.Term{
			Term: t.Term, Year: t.Year, Page: t.Page, Y: t.Y, GPA: t.GPA,
		})
	}
	for _, c := range a.Courses {
		if c.Grade == "TRC" {
			// Pseudo-term rows; stored once below as transfers.
			continue
		}
		rec.Courses = append(rec.Courses, store.Course{
			TermKey: c.Key(),
			Code:    c.Code(),
			Section: c.Section,
			Credits: c.Credits,
			Grade:   c.Grade,
			GPA:     c.GPA,
			Other:   c.Other,
			Kind:    store.KindSemester,
		})
	}
	for _, t := range a.Transfers {
		kind := store.KindTransfer
		if t.Grade == "EX" {
			kind = store.KindExempted
		}
		rec.Courses = append(rec.Courses, store.Course{
			Code:         t.Code(),
			Title:        t.CourseTitle,
			Credits:      t.Credits,
			Grade:        t.Grade,
			YearAttended: t.YearAttended,
			Kind:         kind,
		})
	}
	return rec, nil
}

func parseViaTempFile(ctx context.Context, p parser.Parser, name string, data []byte) (*parser.Document, error) {
	f, err := os.CreateTemp("", "transcript-*"+filepath.Ext(name))
	if err != nil {
		return nil, err
	}
	defer os.Remove(f.Name())
	if _, err := f.Write(data); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}
	return p.Parse(ctx, f.Name())
}

func fileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
