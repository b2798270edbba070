package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	off := false
	original := &Config{
		CaseID:  "case-2024-017",
		BaseDir: "/home/analyst/.local/share/vortex",
		LogDir:  "/home/analyst/.local/share/vortex/log",
		Analysis: AnalysisConfig{
			PCADir:             "/evidence/host1/pca",
			ComputeHash:        &off,
			Workers:            6,
			SmallFileThreshold: 4096,
			SkipVersionCheck:   true,
		},
		Journal: JournalConfig{Enabled: &off, ReplayDir: "/evidence/host1/usn", BufferSize: 8192},
		Archives: []ArchiveConfig{
			{Type: "filesystem", Name: "local", FSRoot: "/evidence/reports"},
			{Type: "s3", Name: "offsite", S3Bucket: "ir-evidence", S3Prefix: "cases/", S3Region: "eu-west-1", S3Endpoint: "http://minio:9000"},
		},
		Encryption: EncryptionConfig{
			Type:           "age",
			PublicKeyPath:  "/keys/vortex.pub",
			PrivateKeyPath: "/keys/vortex.key",
			Armor:          true,
		},
		Database: DatabaseConfig{Type: "sqlite", DataDir: "/home/analyst/.local/share/vortex/db"},
	}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.CaseID != original.CaseID {
		t.Errorf("CaseID = %q, want %q", got.CaseID, original.CaseID)
	}
	if got.Analysis.PCADir != "/evidence/host1/pca" {
		t.Errorf("Analysis.PCADir = %q", got.Analysis.PCADir)
	}
	if got.Analysis.HashEnabled() {
		t.Error("Analysis.HashEnabled() = true, want false")
	}
	if !got.Analysis.SignatureEnabled() {
		t.Error("Analysis.SignatureEnabled() = false, want true")
	}
	if got.Analysis.Workers != 6 || got.Analysis.SmallFileThreshold != 4096 || !got.Analysis.SkipVersionCheck {
		t.Errorf("Analysis = %+v", got.Analysis)
	}
	if got.Journal.IsEnabled() || got.Journal.ReplayDir != "/evidence/host1/usn" || got.Journal.BufferSize != 8192 {
		t.Errorf("Journal = %+v", got.Journal)
	}
	if len(got.Archives) != 2 {
		t.Fatalf("len(Archives) = %d, want 2", len(got.Archives))
	}
	if got.Archives[1].S3Endpoint != "http://minio:9000" || got.Archives[1].S3Bucket != "ir-evidence" {
		t.Errorf("Archives[1] = %+v", got.Archives[1])
	}
	if got.Archives[0].FSRoot != "/evidence/reports" {
		t.Errorf("Archives[0].FSRoot = %q", got.Archives[0].FSRoot)
	}
	if !got.Encryption.Armor || got.Encryption.PrivateKeyPath != "/keys/vortex.key" {
		t.Errorf("Encryption = %+v", got.Encryption)
	}
	if got.Database.Type != "sqlite" {
		t.Errorf("Database.Type = %q, want %q", got.Database.Type, "sqlite")
	}
}

func TestManager_Read_AppliesDefaults(t *testing.T) {
	m := &Manager{}
	got, err := m.Read(strings.NewReader(`case_id = "minimal"` + "\n"))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.Analysis.PCADir != `%SystemRoot%\appcompat\pca` {
		t.Errorf("Analysis.PCADir = %q", got.Analysis.PCADir)
	}
	if !got.Analysis.HashEnabled() || !got.Analysis.SignatureEnabled() {
		t.Error("hash and signature checks should default to on")
	}
	if got.Analysis.SmallFileThreshold != 1<<20 {
		t.Errorf("SmallFileThreshold = %d, want %d", got.Analysis.SmallFileThreshold, 1<<20)
	}
	if !got.Journal.IsEnabled() || got.Journal.BufferSize != 64*1024 {
		t.Errorf("Journal = %+v", got.Journal)
	}
	if got.Database.Type != "memory" {
		t.Errorf("Database.Type = %q, want memory", got.Database.Type)
	}
	if got.Encryption.Type != "age" {
		t.Errorf("Encryption.Type = %q, want age", got.Encryption.Type)
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("case-1", "/data/vortex")

	if cfg.CaseID != "case-1" {
		t.Errorf("CaseID = %q, want %q", cfg.CaseID, "case-1")
	}
	if cfg.LogDir != "/data/vortex/log" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/data/vortex/log")
	}
	if cfg.Database.Type != "sqlite" || cfg.Database.DataDir != "/data/vortex/db" {
		t.Errorf("Database = %+v", cfg.Database)
	}
	if len(cfg.Archives) != 1 || cfg.Archives[0].FSRoot != "/data/vortex/reports" {
		t.Errorf("Archives = %+v", cfg.Archives)
	}
	if cfg.Encryption.PublicKeyPath != "/data/vortex/keys/vortex.pub" {
		t.Errorf("Encryption.PublicKeyPath = %q", cfg.Encryption.PublicKeyPath)
	}
	if cfg.Encryption.PrivateKeyPath != "/data/vortex/keys/vortex.key" {
		t.Errorf("Encryption.PrivateKeyPath = %q", cfg.Encryption.PrivateKeyPath)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unnamed archive", func(c *Config) { c.Archives = append(c.Archives, ArchiveConfig{Type: "memory"}) }},
		{"duplicate archive", func(c *Config) { c.Archives = append(c.Archives, ArchiveConfig{Type: "memory", Name: "local"}) }},
		{"sqlite without dir", func(c *Config) { c.Database.DataDir = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig("c", "/data")
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() expected error")
			}
		})
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "vortex.toml")
		cfg := NewConfig("c1", dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "vortex.toml")
		cfg := NewConfig("c1", dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}

		err := Init(path, cfg)
		if err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "vortex.toml")
		cfg := NewConfig("read-test", dir)
		cfg.Database = DatabaseConfig{Type: "memory"}

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.CaseID != "read-test" {
			t.Errorf("CaseID = %q, want %q", got.CaseID, "read-test")
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		_, err := ReadFromFile("/nonexistent/path/vortex.toml")
		if err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}
