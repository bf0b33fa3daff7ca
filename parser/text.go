package parser

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode"
)

// Synthetic geometry for plain-text input: every line is one row and every
// character one fixed-width cell.
const (
	textLineHeight = 12.0
	textGlyphWidth = 6.0
)

// TextParser handles plain text (.txt) transcripts. Pages are separated by
// form feeds.
type TextParser struct{}

func (p *TextParser) SupportedFormats() []string { return []string{"txt"} }

func (p *TextParser) Parse(ctx context.Context, path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading text file: %w", err)
	}
	return FromText(string(data)), nil
}

func (p *TextParser) ParseBytes(ctx context.Context, data []byte) (*Document, error) {
	return FromText(string(data)), nil
}

// FromText builds a Document from plain text, giving each whitespace
// separated word a synthetic bounding box.
func FromText(content string) *Document {
	doc := &Document{Method: "text"}
	if strings.TrimSpace(content) == "" {
		return doc
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	for n, raw := range strings.Split(content, "\f") {
		page := Page{Number: n}
		var text []string
		row := 0
		for _, line := range strings.Split(raw, "\n") {
			line = strings.TrimRightFunc(line, unicode.IsSpace)
			if strings.TrimSpace(line) == "" {
				continue
			}
			text = append(text, strings.TrimSpace(line))
			page.Tokens = append(page.Tokens, lineTokens(line, n, row, len(page.Tokens))...)
			row++
		}
		page.Text = strings.Join(text, "\n")
		page.Height = float64(row) * textLineHeight
		doc.Pages = append(doc.Pages, page)
	}
	return doc
}

func lineTokens(line string, page, row, start int) []Token {
	var out []Token
	y := float64(row) * textLineHeight
	col := -1
	flush := func(end int) {
		if col < 0 {
			return
		}
		out = append(out, Token{
			Page:  page,
			X0:    float64(col) * textGlyphWidth,
			X1:    float64(end) * textGlyphWidth,
			Y0:    y,
			Y1:    y + textLineHeight - 2,
			Text:  line[col:end],
			Index: start + len(out),
			Line:  row,
			Word:  len(out),
		})
		col = -1
	}
	for i, r := range line {
		if unicode.IsSpace(r) {
			flush(i)
			continue
		}
		if col < 0 {
			col = i
		}
	}
	flush(len(line))
	return out
}
