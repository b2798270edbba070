package database

import (
	"fmt"
	"os"
	"path/filepath"

	"vortex-go/internal/config"
	"vortex-go/internal/vortex"
)

// NewCaseStoreFromConfig creates a CaseStore based on the database config
// type. A sqlite store lives at <data_dir>/<caseID>.db.
func NewCaseStoreFromConfig(cfg config.DatabaseConfig, caseID string) (vortex.CaseStore, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		if caseID == "" {
			return nil, fmt.Errorf("case id required for sqlite database")
		}
		if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
			return nil, fmt.Errorf("creating data dir: %w", err)
		}
		return open(filepath.Join(cfg.DataDir, caseID+".db"))
	case "memory":
		return open(memoryPath)
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}

func open(path string) (vortex.CaseStore, error) {
	store, err := NewSQLiteCaseStore(path)
	if err != nil {
		return nil, err
	}
	return store, nil
}
