// Package archive implements vortex.Archive backends for exported reports.
package archive

import (
	"fmt"
	"strings"
)

// validateKey rejects keys that could escape an archive's namespace.
func validateKey(key string) error {
	switch {
	case key == "":
		return fmt.Errorf("empty report key")
	case strings.ContainsAny(key, `/\:`), strings.Contains(key, ".."):
		return fmt.Errorf("invalid report key: %q", key)
	}
	return nil
}
