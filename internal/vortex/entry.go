package vortex

import (
	"fmt"
	"time"
)

// FileStatus records whether the file behind an execution record is still on disk.
type FileStatus int

const (
	FileStatusUnknown FileStatus = iota
	FileStatusDeleted
	FileStatusPresent
)

func (s FileStatus) String() string {
	switch s {
	case FileStatusDeleted:
		return "Deleted"
	case FileStatusPresent:
		return "Present"
	default:
		return "Unknown"
	}
}

func (s FileStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *FileStatus) UnmarshalText(b []byte) error {
	switch string(b) {
	case "Deleted":
		*s = FileStatusDeleted
	case "Present":
		*s = FileStatusPresent
	case "Unknown", "":
		*s = FileStatusUnknown
	default:
		return fmt.Errorf("unknown file status: %q", b)
	}
	return nil
}

// PresenceCheck is the outcome of the existence check. PresenceError means the
// check itself could not be performed, which is distinct from PresenceFalse.
type PresenceCheck int

const (
	PresenceError PresenceCheck = iota
	PresenceFalse
	PresenceTrue
)

func (p PresenceCheck) String() string {
	switch p {
	case PresenceFalse:
		return "False"
	case PresenceTrue:
		return "True"
	default:
		return "Error"
	}
}

func (p PresenceCheck) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *PresenceCheck) UnmarshalText(b []byte) error {
	switch string(b) {
	case "False":
		*p = PresenceFalse
	case "True":
		*p = PresenceTrue
	case "Error", "":
		*p = PresenceError
	default:
		return fmt.Errorf("unknown presence check: %q", b)
	}
	return nil
}

// SignatureStatus reports whether a PE image carries a certificate table.
// It does not say anything about the validity of the signature.
type SignatureStatus int

const (
	SignatureUnknown SignatureStatus = iota
	SignatureUnsigned
	SignatureSigned
)

func (s SignatureStatus) String() string {
	switch s {
	case SignatureUnsigned:
		return "Unsigned"
	case SignatureSigned:
		return "Signed"
	default:
		return "Unknown"
	}
}

func (s SignatureStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *SignatureStatus) UnmarshalText(b []byte) error {
	switch string(b) {
	case "Unsigned":
		*s = SignatureUnsigned
	case "Signed":
		*s = SignatureSigned
	case "Unknown", "":
		*s = SignatureUnknown
	default:
		return fmt.Errorf("unknown signature status: %q", b)
	}
	return nil
}

// EnhancedEntry is the forensic snapshot of one path.
// Nil pointers and empty strings mean "could not be determined".
// When FileStatus is FileStatusDeleted every OS-derived field is unset.
type EnhancedEntry struct {
	OriginalPath    string          `json:"original_path"`
	FileStatus      FileStatus      `json:"file_status"`
	IsFilePresent   PresenceCheck   `json:"is_file_present"`
	CreatedAt       *time.Time      `json:"created_at,omitempty"`
	ModifiedAt      *time.Time      `json:"modified_at,omitempty"`
	AccessedAt      *time.Time      `json:"accessed_at,omitempty"`
	RawFileSize     *int64          `json:"raw_file_size,omitempty"`
	FileSizeBytes   string          `json:"file_size_bytes,omitempty"`
	FileSizeMB      string          `json:"file_size_mb,omitempty"`
	SignatureStatus SignatureStatus `json:"signature_status"`
	MD5             string          `json:"md5,omitempty"`
	CompiledAt      *time.Time      `json:"compiled_at,omitempty"`
	DebugAllowed    *bool           `json:"debug_allowed,omitempty"`
	EntryPoint      *uint32         `json:"entry_point,omitempty"`
	ErrorMessage    string          `json:"error_message,omitempty"`
}

// EnhancementProgress is reported periodically during bulk enhancement.
type EnhancementProgress struct {
	Total       int
	Processed   int
	CurrentPath string
}

// PercentComplete returns the integer completion percentage.
func (p EnhancementProgress) PercentComplete() int {
	if p.Total <= 0 {
		return 0
	}
	return p.Processed * 100 / p.Total
}

// EnhanceOptions selects the optional, more expensive parts of enhancement.
type EnhanceOptions struct {
	ComputeHash    bool
	CheckSignature bool
}

// DefaultEnhanceOptions hashes content and checks for a certificate table.
func DefaultEnhanceOptions() EnhanceOptions {
	return EnhanceOptions{ComputeHash: true, CheckSignature: true}
}
