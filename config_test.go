package transcript

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigYAML(t *testing.T) {
	path := writeFile(t, "transcript.yaml", `
db_path: /var/lib/transcripts.db
strict_pdf: true
include_transfer_term: false
transfer_year_fallback: "2020"
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	want := DefaultConfig()
	want.DBPath = "/var/lib/transcripts.db"
	want.StrictPDF = true
	want.IncludeTransferTerm = false
	want.TransferYearFallback = "2020"
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config (-want +got):\n%s", diff)
	}
}

func TestLoadConfigJSON(t *testing.T) {
	path := writeFile(t, "transcript.json", `{"db_name":"records","storage_dir":"local","course_scan_window":12}`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.DBName != "records" || cfg.CourseScanWindow != 12 || !cfg.IncludeTransferTerm {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if got := cfg.resolveDBPath(); got != "records.db" {
		t.Errorf("resolveDBPath = %q, want records.db", got)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"bad yaml", "c.yaml", "db_path: [unclosed"},
		{"bad json", "c.json", "{"},
		{"bad storage dir", "c.yaml", "storage_dir: cloud"},
		{"negative window", "c.yaml", "course_scan_window: -1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeFile(t, tt.file, tt.content))
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("err = %v, want ErrInvalidConfig", err)
			}
		})
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestResolveDBPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"explicit", Config{DBPath: "/tmp/x.db", DBName: "ignored"}, "/tmp/x.db"},
		{"local", Config{DBName: "records", StorageDir: "local"}, "records.db"},
		{"home default", Config{}, filepath.Join(home, ".transcript", "transcripts.db")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.resolveDBPath(); got != tt.want {
				t.Errorf("resolveDBPath = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLayoutConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.layoutConfig().OmitTransferTerm {
		t.Error("default config should list the transfer pseudo-term")
	}
	cfg.IncludeTransferTerm = false
	cfg.TransferYearFallback = "2020"
	lc := cfg.layoutConfig()
	if !lc.OmitTransferTerm || lc.TransferYearFallback != "2020" || lc.CourseScanWindow != 20 {
		t.Errorf("layout config = %+v", lc)
	}
}
