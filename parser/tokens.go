package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// TokenParser reads a token stream serialized as a JSON Document. This is the
// hand-off format for decoders that run outside this process.
type TokenParser struct{}

func (p *TokenParser) SupportedFormats() []string { return []string{"json"} }

func (p *TokenParser) Parse(ctx context.Context, path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening token file: %w", err)
	}
	defer f.Close()
	return ReadTokens(f)
}

func (p *TokenParser) ParseBytes(ctx context.Context, data []byte) (*Document, error) {
	return ReadTokens(bytes.NewReader(data))
}

// ReadTokens decodes a JSON Document and normalises page and index fields so
// callers may omit them.
func ReadTokens(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding token stream: %w", err)
	}
	if doc.Method == "" {
		doc.Method = "tokens"
	}
	for pi := range doc.Pages {
		page := &doc.Pages[pi]
		page.Number = pi
		for ti := range page.Tokens {
			page.Tokens[ti].Page = pi
			page.Tokens[ti].Index = ti
		}
	}
	return &doc, nil
}

// WriteTokens serializes doc in the format ReadTokens accepts.
func WriteTokens(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
