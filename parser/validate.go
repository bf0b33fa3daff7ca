package parser

import (
	"fmt"
	"io"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ValidatePDF runs pdfcpu's structural validation over rs and returns the
// page count. It rejects files that are not PDFs or whose cross-reference
// table is damaged beyond repair.
func ValidatePDF(rs io.ReadSeeker) (int, error) {
	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(rs, conf)
	if err != nil {
		return 0, fmt.Errorf("pdfcpu validate: %w", err)
	}
	return ctx.PageCount, nil
}

// ValidatePDFFile is ValidatePDF for a file on disk.
func ValidatePDFFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return ValidatePDF(f)
}
