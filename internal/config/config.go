package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const (
	defaultPCADir      = `%SystemRoot%\appcompat\pca`
	defaultBufferSize  = 64 * 1024
	defaultSmallFile   = 1 << 20
	defaultArchiveName = "local"
)

// Config represents the main configuration for vortex.
type Config struct {
	CaseID     string           `toml:"case_id"`
	BaseDir    string           `toml:"base_dir"`
	LogDir     string           `toml:"log_dir"`
	Analysis   AnalysisConfig   `toml:"analysis"`
	Journal    JournalConfig    `toml:"journal"`
	Database   DatabaseConfig   `toml:"database"`
	Archives   []ArchiveConfig  `toml:"archives"`
	Encryption EncryptionConfig `toml:"encryption"`
}

// AnalysisConfig controls artifact parsing and file enhancement.
type AnalysisConfig struct {
	PCADir             string `toml:"pca_dir"`
	ComputeHash        *bool  `toml:"compute_hash,omitempty"`
	CheckSignature     *bool  `toml:"check_signature,omitempty"`
	Workers            int    `toml:"workers"`              // 0 = half the CPUs, at least 2
	SmallFileThreshold int64  `toml:"small_file_threshold"` // files at or below this are hashed in one read
	SkipVersionCheck   bool   `toml:"skip_version_check"`
}

// HashEnabled reports whether content hashes are computed. Defaults to true.
func (a AnalysisConfig) HashEnabled() bool {
	return a.ComputeHash == nil || *a.ComputeHash
}

// SignatureEnabled reports whether the certificate table is checked. Defaults to true.
func (a AnalysisConfig) SignatureEnabled() bool {
	return a.CheckSignature == nil || *a.CheckSignature
}

// JournalConfig controls change journal scanning.
type JournalConfig struct {
	Enabled    *bool  `toml:"enabled,omitempty"`
	ReplayDir  string `toml:"replay_dir,omitempty"` // directory of <letter>.usncap captures used instead of devices
	BufferSize int    `toml:"buffer_size"`
}

// IsEnabled reports whether the journal is scanned. Defaults to true.
func (j JournalConfig) IsEnabled() bool {
	return j.Enabled == nil || *j.Enabled
}

// EncryptionConfig holds paths to the age key pair used for report encryption.
type EncryptionConfig struct {
	Type           string `toml:"type"` // "age" (default) or "test"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
	Armor          bool   `toml:"armor"` // PEM-style ASCII output
}

// ArchiveConfig represents configuration for a report archive backend.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type ArchiveConfig struct {
	Type string `toml:"type"` // "memory", "s3", or "filesystem"
	Name string `toml:"name"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket   string `toml:"s3_bucket,omitempty"`
	S3Prefix   string `toml:"s3_prefix,omitempty"`
	S3Region   string `toml:"s3_region,omitempty"`
	S3Endpoint string `toml:"s3_endpoint,omitempty"` // S3-compatible stores such as MinIO

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSRoot string `toml:"fs_root,omitempty"`
}

// DatabaseConfig represents configuration for the case database.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// NewConfig creates a new Config with the provided values, default key
// paths and a filesystem archive under baseDir.
func NewConfig(caseID, baseDir string) *Config {
	cfg := &Config{
		CaseID:  caseID,
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Database: DatabaseConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "db"),
		},
		Archives: []ArchiveConfig{
			{Type: "filesystem", Name: defaultArchiveName, FSRoot: filepath.Join(baseDir, "reports")},
		},
		Encryption: EncryptionConfig{
			PublicKeyPath:  filepath.Join(baseDir, "keys", "vortex.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "vortex.key"),
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills every unset field that has a default. Sections left
// out of a config file read back as their defaults.
func (c *Config) ApplyDefaults() {
	if c.LogDir == "" && c.BaseDir != "" {
		c.LogDir = filepath.Join(c.BaseDir, "log")
	}
	if c.Analysis.PCADir == "" {
		c.Analysis.PCADir = defaultPCADir
	}
	if c.Analysis.SmallFileThreshold <= 0 {
		c.Analysis.SmallFileThreshold = defaultSmallFile
	}
	if c.Analysis.Workers < 0 {
		c.Analysis.Workers = 0
	}
	if c.Journal.BufferSize <= 0 {
		c.Journal.BufferSize = defaultBufferSize
	}
	if c.Database.Type == "" {
		c.Database.Type = "memory"
	}
	if c.Encryption.Type == "" {
		c.Encryption.Type = "age"
	}
}

// Validate reports configuration that cannot be wired.
func (c *Config) Validate() error {
	names := make(map[string]bool)
	for i, a := range c.Archives {
		if a.Name == "" {
			return fmt.Errorf("archive %d: name is required", i)
		}
		if names[a.Name] {
			return fmt.Errorf("archive %q: duplicate name", a.Name)
		}
		names[a.Name] = true
	}
	if c.Database.Type == "sqlite" && c.Database.DataDir == "" {
		return fmt.Errorf("database: data_dir is required for sqlite")
	}
	return nil
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader and applies defaults.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
