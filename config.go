package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/iKozay/TrackMyDegree-sub000/layout"
)

// Config holds all configuration for the transcript engine.
type Config struct {
	// DBPath is the full path to the SQLite database file.
	// If empty, defaults to ~/.transcript/<DBName>.db
	DBPath string `json:"db_path" yaml:"db_path"`

	// DBName is the name for the database (used when DBPath is empty).
	// Defaults to "transcripts".
	DBName string `json:"db_name" yaml:"db_name"`

	// StorageDir controls where the database is created when DBPath
	// is not explicitly set. Options: "home" (default) uses ~/.transcript/,
	// "local" uses the current working directory.
	StorageDir string `json:"storage_dir" yaml:"storage_dir"`

	// DisableStore runs the engine without a database. Parse still works;
	// lookups return ErrStoreDisabled.
	DisableStore bool `json:"disable_store" yaml:"disable_store"`

	// StrictPDF validates PDF structure with pdfcpu before decoding.
	StrictPDF bool `json:"strict_pdf" yaml:"strict_pdf"`

	// IncludeTransferTerm lists transfer credits under a "Transfer Credits"
	// pseudo-semester.
	IncludeTransferTerm bool `json:"include_transfer_term" yaml:"include_transfer_term"`

	// TransferYearFallback is the pseudo-semester year used when a transfer
	// credit has no year nearby. Empty leaves the year out.
	TransferYearFallback string `json:"transfer_year_fallback" yaml:"transfer_year_fallback"`

	// CourseScanWindow is how many tokens after a course code are searched
	// for its credits, grade and GPA.
	CourseScanWindow int `json:"course_scan_window" yaml:"course_scan_window"`

	// MaxUploadBytes caps uploaded documents.
	MaxUploadBytes int64 `json:"max_upload_bytes" yaml:"max_upload_bytes"`
}

// DefaultConfig returns a Config with sensible defaults.
// Database is stored in ~/.transcript/transcripts.db by default.
func DefaultConfig() Config {
	return Config{
		DBName:              "transcripts",
		StorageDir:          "home",
		IncludeTransferTerm: true,
		CourseScanWindow:    20,
		MaxUploadBytes:      20 << 20,
	}
}

// LoadConfig reads a YAML or JSON config file over DefaultConfig. The format
// is chosen by extension; anything but .json is read as YAML.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &cfg)
	default:
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return cfg, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	return cfg, cfg.Validate()
}

// Validate reports configuration values that can never work.
func (c *Config) Validate() error {
	switch c.StorageDir {
	case "", "home", "local", "cwd":
	default:
		return fmt.Errorf("%w: storage_dir %q", ErrInvalidConfig, c.StorageDir)
	}
	if c.CourseScanWindow < 0 {
		return fmt.Errorf("%w: course_scan_window must not be negative", ErrInvalidConfig)
	}
	if c.MaxUploadBytes < 0 {
		return fmt.Errorf("%w: max_upload_bytes must not be negative", ErrInvalidConfig)
	}
	return nil
}

// resolveDBPath computes the final database path from config fields.
func (c *Config) resolveDBPath() string {
	if c.DBPath != "" {
		return c.DBPath
	}

	name := c.DBName
	if name == "" {
		name = "transcripts"
	}

	switch c.StorageDir {
	case "local", "cwd":
		return name + ".db"
	default: // "home" or empty
		home, err := os.UserHomeDir()
		if err != nil {
			return name + ".db"
		}
		return filepath.Join(home, ".transcript", name+".db")
	}
}

// layoutConfig maps engine settings onto reconstruction settings.
func (c *Config) layoutConfig() layout.Config {
	return layout.Config{
		CourseScanWindow:     c.CourseScanWindow,
		OmitTransferTerm:     !c.IncludeTransferTerm,
		TransferYearFallback: c.TransferYearFallback,
	}
}
