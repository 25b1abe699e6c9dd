package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", StorageDriverMemory)
	t.Setenv("ENVIRONMENT", "test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.TablePrefix != "test_" {
		t.Errorf("TablePrefix = %q, want %q", cfg.TablePrefix, "test_")
	}
	if cfg.BlobFetchTimeout != 15*time.Second {
		t.Errorf("BlobFetchTimeout = %v, want 15s", cfg.BlobFetchTimeout)
	}
	if cfg.MaxShareDays != DefaultMaxShareDays {
		t.Errorf("MaxShareDays = %d, want %d", cfg.MaxShareDays, DefaultMaxShareDays)
	}
	if cfg.AuditRetention != 0 {
		t.Errorf("AuditRetention = %d, want 0", cfg.AuditRetention)
	}
}

func TestLoad_ConfigFileOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "campusdocs.yaml")
	content := "storage_driver: memory\nmax_share_days: 30\npublic_base_url: https://docs.example.edu/\nport: 9000\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "7000") // environment wins over the file

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MaxShareDays != 30 {
		t.Errorf("MaxShareDays = %d, want 30", cfg.MaxShareDays)
	}
	if cfg.PublicBaseURL != "https://docs.example.edu" {
		t.Errorf("PublicBaseURL = %q, want trailing slash trimmed", cfg.PublicBaseURL)
	}
	if cfg.Port != "7000" {
		t.Errorf("Port = %q, want %q", cfg.Port, "7000")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"postgres without url", map[string]string{"STORAGE_DRIVER": "postgres", "DATABASE_URL": ""}},
		{"unknown blob driver", map[string]string{"STORAGE_DRIVER": "memory", "BLOB_DRIVER": "ftp"}},
		{"s3 without bucket", map[string]string{"STORAGE_DRIVER": "memory", "BLOB_DRIVER": "s3"}},
		{"bad timeout", map[string]string{"STORAGE_DRIVER": "memory", "BLOB_FETCH_TIMEOUT": "soon"}},
		{"zero share days", map[string]string{"STORAGE_DRIVER": "memory", "MAX_SHARE_DAYS": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Error("Load() error = nil, want error")
			}
		})
	}
}

func TestSetupLogFile_PrunesOldFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"campusdocs-2020-01-01T00-00-00.log", "campusdocs-2020-01-02T00-00-00.log", "campusdocs-2020-01-03T00-00-00.log"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	f, err := SetupLogFile(dir, 2)
	if err != nil {
		t.Fatalf("SetupLogFile() error = %v", err)
	}
	defer f.Close()

	files, _ := filepath.Glob(filepath.Join(dir, "campusdocs-*.log"))
	if len(files) != 2 {
		t.Errorf("log files = %d, want 2", len(files))
	}
	if _, err := os.Stat(filepath.Join(dir, "campusdocs-2020-01-01T00-00-00.log")); !os.IsNotExist(err) {
		t.Error("oldest log file was not removed")
	}
}
