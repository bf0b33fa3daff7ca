package parser

import "context"

// Document is what a parser produces from a transcript file: one entry per
// page, in page order.
type Document struct {
	Pages    []Page            `json:"pages"`
	Method   string            `json:"method"` // "native", "text", "tokens"
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Page holds the decoded content of a single page.
type Page struct {
	Number int     `json:"number"` // 0-based page index
	Text   string  `json:"text"`   // plain text, one line per visual row
	Tokens []Token `json:"tokens"` // positioned tokens in reading order
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
}

// Token is a single text run with its bounding box. Coordinates are top-down:
// Y0 is the top edge and grows toward the bottom of the page.
type Token struct {
	Page  int     `json:"page"`
	X0    float64 `json:"x0"`
	Y0    float64 `json:"y0"`
	X1    float64 `json:"x1"`
	Y1    float64 `json:"y1"`
	Text  string  `json:"text"`
	Index int     `json:"index"` // reading-order index within the page
	Block int     `json:"block"`
	Line  int     `json:"line"`
	Word  int     `json:"word"`
}

// PageCount returns the number of pages, tolerating a nil document.
func (d *Document) PageCount() int {
	if d == nil {
		return 0
	}
	return len(d.Pages)
}

// Parser can decode a specific document format into a token stream.
type Parser interface {
	Parse(ctx context.Context, path string) (*Document, error)
	SupportedFormats() []string
}

// BytesParser is implemented by parsers that can decode in-memory content,
// e.g. an HTTP upload, without a file on disk.
type BytesParser interface {
	ParseBytes(ctx context.Context, data []byte) (*Document, error)
}
