// Package layout reconstructs transcript structure from positioned tokens.
//
// A transcript carries no table markup. Term headers, course rows, term GPAs
// and exemption/transfer entries are recognized from token content, then tied
// together by position: every course belongs to the nearest term header that
// precedes it in reading order, across page breaks.
//
// Usage:
//
//	a := layout.Reconstruct(doc, layout.Config{})
//	json.NewEncoder(os.Stdout).Encode(a.Transcript)
package layout

import (
	"log/slog"
	"math"

	"github.com/iKozay/TrackMyDegree-sub000/parser"
	"github.com/iKozay/TrackMyDegree-sub000/program"
)

// Config controls reconstruction.
type Config struct {
	// CourseScanWindow is how many tokens after a course code are searched
	// for credits, grade and GPA (default 20).
	CourseScanWindow int

	// OmitTransferTerm keeps TRC records out of the semester listing. By
	// default they are listed under a "Transfer Credits" pseudo-term.
	OmitTransferTerm bool

	// TransferYearFallback is the pseudo-term year used when no year can be
	// found near a transfer credit. Empty means unknown.
	TransferYearFallback string

	// Logger for diagnostics on unrecognized candidates.
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.CourseScanWindow <= 0 {
		c.CourseScanWindow = 20
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// section is a page's transfer/exemption range: from the label's position
// down to the next term header on the same page.
type section struct {
	page  int
	start Position
	endY  float64
}

func (s *section) contains(t parser.Token) bool {
	if s == nil || t.Page != s.page {
		return false
	}
	return !PositionOf(t).Less(s.start) && t.Y0 < s.endY
}

type gpaCandidate struct {
	at    Position
	value float64
}

// parseState is everything one reconstruction accumulates. It is created per
// call and never shared.
type parseState struct {
	cfg Config
	log *slog.Logger

	headers    []TermHeader
	candidates []CourseRecord // semester candidates, document order
	raw        []CourseRecord // every course-like record, EX/TRC included
	gpas       []gpaCandidate
	sections   []section

	transfers    []TransferCreditRecord
	transferSeen map[string]bool
	pseudo       []CourseRecord
	pseudoSeen   map[string]bool
}

func newParseState(cfg Config) *parseState {
	cfg.defaults()
	return &parseState{
		cfg:          cfg,
		log:          cfg.Logger,
		transferSeen: make(map[string]bool),
		pseudoSeen:   make(map[string]bool),
	}
}

// Reconstruct turns a decoded document into a transcript. Pages are
// classified strictly in order; empty pages contribute nothing. A document
// without pages yields an empty but complete result.
func Reconstruct(doc *parser.Document, cfg Config) *Analysis {
	st := newParseState(cfg)

	var pages []parser.Page
	if doc != nil {
		pages = doc.Pages
	}

	firstText := ""
	if len(pages) > 0 {
		firstText = pages[0].Text
	}
	history := program.Parse(firstText)

	for _, pg := range pages {
		if len(pg.Tokens) == 0 {
			st.log.Debug("layout: page has no tokens", "page", pg.Number)
			continue
		}
		st.classifyPage(pg.Tokens)
	}

	courses, transfers := st.assign()
	return st.assemble(history, courses, transfers, len(pages))
}

// unbounded is the end of a section with no term header below it.
var unbounded = math.Inf(1)
