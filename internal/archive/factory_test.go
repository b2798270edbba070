package archive

import (
	"context"
	"testing"

	"github.com/spf13/afero"

	"vortex-go/internal/config"
)

func TestNewArchiveFromConfig(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.ArchiveConfig
		wantErr  bool
		validate bool
	}{
		{
			name:     "memory archive",
			cfg:      config.ArchiveConfig{Type: "memory", Name: "test-memory"},
			validate: true,
		},
		{
			name:     "filesystem archive",
			cfg:      config.ArchiveConfig{Type: "filesystem", Name: "test-fs", FSRoot: "/cases"},
			validate: true,
		},
		{
			name:    "filesystem archive without root",
			cfg:     config.ArchiveConfig{Type: "filesystem", Name: "test-fs"},
			wantErr: true,
		},
		{
			name:    "s3 archive without bucket",
			cfg:     config.ArchiveConfig{Type: "s3", Name: "test-s3"},
			wantErr: true,
		},
		{
			name:    "unknown archive type",
			cfg:     config.ArchiveConfig{Type: "unknown", Name: "test-unknown"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewArchiveFromConfig(context.Background(), tt.cfg, afero.NewMemMapFs(), nil)

			if (err != nil) != tt.wantErr {
				t.Fatalf("NewArchiveFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if got != nil {
					t.Errorf("NewArchiveFromConfig() = %v, want nil on error", got)
				}
				return
			}
			if got.Name() != tt.cfg.Name {
				t.Errorf("Name() = %q, want %q", got.Name(), tt.cfg.Name)
			}
			if tt.validate {
				if err := got.ValidateSetup(); err != nil {
					t.Errorf("ValidateSetup() error = %v", err)
				}
			}
		})
	}
}

func TestNewArchivesFromConfig(t *testing.T) {
	cfgs := []config.ArchiveConfig{
		{Type: "memory", Name: "a"},
		{Type: "filesystem", Name: "b", FSRoot: "/b"},
	}
	archives, err := NewArchivesFromConfig(context.Background(), cfgs, afero.NewMemMapFs(), nil)
	if err != nil {
		t.Fatalf("NewArchivesFromConfig() error = %v", err)
	}
	if len(archives) != 2 || archives[0].Name() != "a" || archives[1].Name() != "b" {
		t.Errorf("archives = %v", archives)
	}

	cfgs = append(cfgs, config.ArchiveConfig{Type: "bogus", Name: "c"})
	if _, err := NewArchivesFromConfig(context.Background(), cfgs, afero.NewMemMapFs(), nil); err == nil {
		t.Error("NewArchivesFromConfig() succeeded with an unknown type")
	}
}
