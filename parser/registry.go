package parser

import (
	"fmt"
	"log/slog"
)

type Registry struct {
	parsers map[string]Parser
}

// NewRegistry returns a registry with the built-in decoders. When strict is
// set, PDFs are structurally validated with pdfcpu before decoding.
func NewRegistry(strict bool, logger *slog.Logger) *Registry {
	r := &Registry{parsers: make(map[string]Parser)}
	pdf := &PDFParser{Strict: strict, Logger: logger}
	txt := &TextParser{}
	tok := &TokenParser{}

	for _, p := range []Parser{pdf, txt, tok} {
		for _, f := range p.SupportedFormats() {
			r.parsers[f] = p
		}
	}
	return r
}

func (r *Registry) Get(format string) (Parser, error) {
	p, ok := r.parsers[format]
	if !ok {
		return nil, fmt.Errorf("no parser for format: %s", format)
	}
	return p, nil
}

func (r *Registry) Register(format string, p Parser) {
	r.parsers[format] = p
}
