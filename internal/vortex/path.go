package vortex

import (
	"regexp"
	"strings"
)

// windowsPathPattern accepts "<letter>:\" or "\\server\share\" followed by
// one or more segments free of \ / : * ? < > |, where the last segment must
// contain a word character. An optional leading quote is tolerated.
var windowsPathPattern = regexp.MustCompile(
	`^(?:"?[a-zA-Z]:|\\\\[^\\/:*?<>|]+\\[^\\/:*?<>|]*)\\(?:[^\\/:*?<>|]+\\)*[^\\/:*?<>|]*[\p{L}\p{N}_][^\\/:*?<>|]*$`)

// ValidatePath reports whether path is a syntactically valid absolute
// Windows path. Rejection is a normal outcome, not a fault.
func ValidatePath(path string) bool {
	if strings.TrimSpace(path) == "" {
		return false
	}
	return windowsPathPattern.MatchString(path)
}

// FoldPath returns the case-insensitive key used for path-keyed maps.
func FoldPath(path string) string {
	return strings.ToUpper(path)
}

// IsValidAbsolutePath is the looser check used during resolution:
// "X:\" or "X:/" with an ASCII drive letter, or any UNC prefix.
func IsValidAbsolutePath(path string) bool {
	if strings.TrimSpace(path) == "" {
		return false
	}
	if len(path) >= 3 && path[1] == ':' && (path[2] == '\\' || path[2] == '/') {
		c := path[0] &^ 0x20
		return c >= 'A' && c <= 'Z'
	}
	return strings.HasPrefix(path, `\\`) && len(path) > 2
}

// hasDrivePrefix reports whether path starts with "X:".
func hasDrivePrefix(path string) bool {
	return len(path) >= 2 && path[1] == ':'
}

// StripDrive removes a leading "X:" so paths from different volumes can be
// compared by their tail. UNC and drive-less paths are returned unchanged.
func StripDrive(path string) string {
	if strings.TrimSpace(path) == "" {
		return ""
	}
	if hasDrivePrefix(path) {
		return path[2:]
	}
	return path
}

// DriveOf returns the upper-cased "X:" prefix of path, or "" if there is none.
func DriveOf(path string) string {
	if strings.TrimSpace(path) == "" || !hasDrivePrefix(path) {
		return ""
	}
	return strings.ToUpper(path[:2])
}

// DriveLetterOf returns the upper-cased drive letter of path without the colon.
func DriveLetterOf(path string) string {
	d := DriveOf(path)
	if d == "" {
		return ""
	}
	return d[:1]
}

// BaseName returns the final element of a Windows or slash-separated path.
func BaseName(path string) string {
	if i := strings.LastIndexAny(path, `\/`); i >= 0 {
		return path[i+1:]
	}
	if hasDrivePrefix(path) {
		return path[2:]
	}
	return path
}
