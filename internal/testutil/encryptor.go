package testutil

import (
	"vortex-go/internal/encryption"
	"vortex-go/internal/vortex"
)

// NewTestEncryptor creates a new test encryptor for testing.
func NewTestEncryptor() vortex.Encryptor {
	return encryption.NewTestEncryptor()
}
