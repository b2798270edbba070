package encryption

import (
	"fmt"

	"github.com/spf13/afero"

	"vortex-go/internal/config"
	"vortex-go/internal/vortex"
)

// NewEncryptorFromConfig creates an Encryptor based on the configuration
// type. Key files live on fs.
func NewEncryptorFromConfig(fs afero.Fs, cfg config.EncryptionConfig) (vortex.Encryptor, error) {
	switch cfg.Type {
	case "age", "":
		return NewAgeEncryptorFs(fs, cfg), nil
	case "test":
		return NewTestEncryptor(), nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Type)
	}
}
