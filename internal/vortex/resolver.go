package vortex

import (
	"strings"
)

// Resolver pins execution-database paths to absolute paths, using the
// launch dictionary's absolute paths to disambiguate drive-less entries.
type Resolver struct {
	fs     Filesystem
	drives DriveLister
	lookup LookupEnvFunc
	logger Logger
}

// NewResolver creates a Resolver. lookup expands %VAR% tokens and may be nil.
func NewResolver(fs Filesystem, drives DriveLister, lookup LookupEnvFunc, logger Logger) *Resolver {
	return &Resolver{fs: fs, drives: drives, lookup: lookup, logger: logger}
}

// Resolve sets ResolvedPath, PathStatus and RunCount on every execution entry.
// Resolution is sequential because each decision needs the full launch list.
func (r *Resolver) Resolve(executions []*ExecutionEntry, launches []*LaunchEntry) {
	if len(executions) == 0 {
		return
	}

	candidates := r.substitutionDrives()
	for _, e := range executions {
		r.resolveOne(e, launches, candidates)
	}

	counts := make(map[string]int)
	for _, e := range executions {
		if strings.TrimSpace(e.ResolvedPath) != "" {
			counts[FoldPath(e.ResolvedPath)]++
		}
	}
	for _, e := range executions {
		e.RunCount = 1
		if strings.TrimSpace(e.ResolvedPath) != "" {
			if n, ok := counts[FoldPath(e.ResolvedPath)]; ok {
				e.RunCount = n
			}
		}
	}
}

func (r *Resolver) substitutionDrives() []string {
	list, err := r.drives.Drives()
	if err != nil {
		r.logger.Warn("listing drives failed", "error", err)
		return nil
	}
	return SubstitutionDrives(list)
}

func (r *Resolver) resolveOne(e *ExecutionEntry, launches []*LaunchEntry, drives []string) {
	original := e.Path
	if strings.TrimSpace(original) == "" {
		e.ResolvedPath = original
		e.PathStatus = ResolutionEmpty
		return
	}

	expanded := original
	expandedChanged := false
	if strings.Contains(original, "%") {
		expanded = ExpandWindowsEnv(original, r.lookup)
		expandedChanged = !strings.EqualFold(original, expanded)
	}

	valid := IsValidAbsolutePath(expanded)
	if valid && r.fs.Exists(expanded) {
		r.set(e, expanded, ResolutionResolved)
		return
	}
	if expandedChanged && valid {
		r.set(e, expanded, ResolutionResolved)
		return
	}

	tail := StripDrive(expanded)
	if len(launches) == 0 || strings.TrimSpace(tail) == "" {
		if valid {
			r.set(e, expanded, ResolutionResolved)
		} else {
			r.set(e, expanded, ResolutionUnknown)
		}
		return
	}

	var matches []string
	for _, l := range launches {
		if strings.TrimSpace(l.Path) == "" {
			continue
		}
		if strings.EqualFold(StripDrive(l.Path), tail) {
			matches = append(matches, l.Path)
		}
	}

	switch {
	case len(matches) == 0:
		if hit, ok := r.substituteDrive(expanded, drives); ok {
			r.set(e, hit, ResolutionResolved)
		} else {
			r.set(e, expanded, ResolutionUnknown)
		}

	case distinctDrives(matches) > 1:
		r.set(e, expanded, ResolutionDuplicate)
		if strings.HasPrefix(expanded, `\`) {
			if hit, ok := r.substituteDrive(expanded, drives); ok {
				r.set(e, hit, ResolutionResolved)
			}
		}

	default:
		r.set(e, matches[0], ResolutionResolved)
		if !r.fs.Exists(e.ResolvedPath) && strings.HasPrefix(expanded, `\`) {
			if hit, ok := r.substituteDrive(expanded, drives); ok {
				e.ResolvedPath = hit
			}
		}
	}
}

func (r *Resolver) set(e *ExecutionEntry, path string, status ResolutionStatus) {
	e.ResolvedPath = path
	e.PathStatus = status
}

// substituteDrive prefixes a drive-less, backslash-rooted path with each
// candidate drive in turn and returns the first one that exists.
func (r *Resolver) substituteDrive(path string, drives []string) (string, bool) {
	if strings.TrimSpace(path) == "" || hasDrivePrefix(path) || !strings.HasPrefix(path, `\`) {
		return "", false
	}
	for _, d := range drives {
		candidate := d + ":" + path
		if r.fs.Exists(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func distinctDrives(paths []string) int {
	seen := make(map[string]struct{})
	for _, p := range paths {
		seen[DriveOf(p)] = struct{}{}
	}
	return len(seen)
}
