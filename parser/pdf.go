package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// defaultPageHeight is US Letter, used when a page has no readable MediaBox.
const defaultPageHeight = 792.0

// PDFParser decodes PDFs into positioned word tokens.
type PDFParser struct {
	// Strict runs pdfcpu structural validation before decoding.
	Strict bool
	Logger *slog.Logger
}

func (p *PDFParser) SupportedFormats() []string { return []string{"pdf"} }

func (p *PDFParser) Parse(ctx context.Context, path string) (*Document, error) {
	if p.Strict {
		if _, err := ValidatePDFFile(path); err != nil {
			return nil, err
		}
	}

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer f.Close()

	return p.decode(ctx, reader)
}

// ParseBytes decodes an in-memory PDF, e.g. an HTTP upload.
func (p *PDFParser) ParseBytes(ctx context.Context, data []byte) (*Document, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("opening PDF: empty content")
	}
	if p.Strict {
		if _, err := ValidatePDF(bytes.NewReader(data)); err != nil {
			return nil, err
		}
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	return p.decode(ctx, reader)
}

// ParseReader buffers r and decodes it with ParseBytes.
func (p *PDFParser) ParseReader(ctx context.Context, r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading PDF: %w", err)
	}
	return p.ParseBytes(ctx, data)
}

func (p *PDFParser) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

func (p *PDFParser) decode(ctx context.Context, reader *pdf.Reader) (*Document, error) {
	total := reader.NumPage()
	doc := &Document{
		Pages:    make([]Page, 0, total),
		Method:   "native",
		Metadata: map[string]string{"page_count": fmt.Sprintf("%d", total)},
	}

	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := Page{Number: i - 1}
		pg := reader.Page(i)
		if pg.V.IsNull() {
			doc.Pages = append(doc.Pages, page)
			continue
		}

		runs, err := pageRuns(pg)
		if err != nil {
			// A broken content stream only loses this page.
			p.logger().Debug("pdf: skipping page", "page", i, "error", err)
			doc.Pages = append(doc.Pages, page)
			continue
		}

		page.Width, page.Height = pageSize(pg)
		page.Tokens, page.Text = layoutWords(buildWords(runs, page.Height), i-1)
		doc.Pages = append(doc.Pages, page)
	}

	return doc, nil
}

// pageRuns reads the page's text runs, converting decoder panics on malformed
// content streams into errors.
func pageRuns(pg pdf.Page) (runs []pdf.Text, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reading content stream: %v", r)
		}
	}()
	return pg.Content().Text, nil
}

// pageSize returns the MediaBox width and height, searching inherited page
// tree attributes.
func pageSize(pg pdf.Page) (float64, float64) {
	v := pg.V
	for depth := 0; depth < 16 && !v.IsNull(); depth++ {
		box := v.Key("MediaBox")
		if box.Len() == 4 {
			w := box.Index(2).Float64() - box.Index(0).Float64()
			h := box.Index(3).Float64() - box.Index(1).Float64()
			if h > 0 {
				return w, h
			}
		}
		v = v.Key("Parent")
	}
	return 0, defaultPageHeight
}

// ---------------------------------------------------------------------------
// Word assembly
// ---------------------------------------------------------------------------

type word struct {
	text       strings.Builder
	x0, x1     float64
	base, size float64
}

// buildWords merges glyph runs into words. A run starts a new word when it is
// whitespace, sits on a different baseline, or leaves a horizontal gap wider
// than a fraction of the font size.
func buildWords(runs []pdf.Text, height float64) []Token {
	var out []Token
	var cur *word

	flush := func() {
		if cur == nil {
			return
		}
		s := strings.TrimSpace(cur.text.String())
		if s != "" {
			size := cur.size
			if size <= 0 {
				size = 10
			}
			out = append(out, Token{
				X0:   cur.x0,
				X1:   cur.x1,
				Y0:   height - (cur.base + size),
				Y1:   height - cur.base,
				Text: s,
			})
		}
		cur = nil
	}

	for _, r := range runs {
		if strings.TrimSpace(r.S) == "" {
			flush()
			continue
		}
		size := r.FontSize
		if size <= 0 {
			size = 10
		}
		if cur != nil {
			sameLine := math.Abs(r.Y-cur.base) <= size*0.5
			gap := r.X - cur.x1
			if !sameLine || gap > size*0.3 || r.X < cur.x0-1 {
				flush()
			}
		}
		if cur == nil {
			cur = &word{x0: r.X, base: r.Y, size: size}
		}
		cur.text.WriteString(r.S)
		cur.x1 = r.X + r.W
		if size > cur.size {
			cur.size = size
		}
	}
	flush()
	return out
}

// lineTolerance is the maximum top-edge difference for two words to share a
// visual line.
const lineTolerance = 3.0

// layoutWords orders words into lines (top-down, then left-right), numbers
// them in reading order and renders the page's plain text.
func layoutWords(words []Token, page int) ([]Token, string) {
	if len(words) == 0 {
		return nil, ""
	}
	sort.SliceStable(words, func(i, j int) bool {
		if words[i].Y0 != words[j].Y0 {
			return words[i].Y0 < words[j].Y0
		}
		return words[i].X0 < words[j].X0
	})

	var lines [][]Token
	lineTop := math.Inf(-1)
	for _, w := range words {
		if len(lines) == 0 || w.Y0-lineTop > lineTolerance {
			lines = append(lines, nil)
			lineTop = w.Y0
		}
		lines[len(lines)-1] = append(lines[len(lines)-1], w)
	}

	var text strings.Builder
	tokens := make([]Token, 0, len(words))
	for li, line := range lines {
		sort.SliceStable(line, func(i, j int) bool { return line[i].X0 < line[j].X0 })
		if li > 0 {
			text.WriteByte('\n')
		}
		for wi, w := range line {
			if wi > 0 {
				text.WriteByte(' ')
			}
			text.WriteString(w.Text)
			w.Page = page
			w.Line = li
			w.Word = wi
			w.Index = len(tokens)
			tokens = append(tokens, w)
		}
	}
	return tokens, text.String()
}
