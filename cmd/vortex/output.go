package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"vortex-go/internal/config"
	"vortex-go/internal/vortex"
)

const timeLayout = "2006-01-02 15:04:05"

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Format(timeLayout)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func printConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintf(w, "Case ID:    %s\n", cfg.CaseID)
	fmt.Fprintf(w, "Base Dir:   %s\n", cfg.BaseDir)
	fmt.Fprintf(w, "Log Dir:    %s\n", cfg.LogDir)
	fmt.Fprintf(w, "PCA Dir:    %s\n", cfg.Analysis.PCADir)
	fmt.Fprintf(w, "Hashing:    %t (single read up to %s)\n", cfg.Analysis.HashEnabled(),
		humanize.IBytes(uint64(cfg.Analysis.SmallFileThreshold)))
	fmt.Fprintf(w, "Signatures: %t\n", cfg.Analysis.SignatureEnabled())
	fmt.Fprintf(w, "Journal:    %t", cfg.Journal.IsEnabled())
	if cfg.Journal.ReplayDir != "" {
		fmt.Fprintf(w, " (replaying %s)", cfg.Journal.ReplayDir)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Database:   %s %s\n", cfg.Database.Type, cfg.Database.DataDir)
	for _, a := range cfg.Archives {
		loc := a.FSRoot
		if a.Type == "s3" {
			loc = "s3://" + a.S3Bucket + "/" + a.S3Prefix
		}
		fmt.Fprintf(w, "Archive:    %s (%s) %s\n", a.Name, a.Type, loc)
	}
	fmt.Fprintf(w, "Encryption: %s %s\n", cfg.Encryption.Type, cfg.Encryption.PublicKeyPath)
}

func printAnalysis(w io.Writer, r *vortex.AnalysisResult) {
	fmt.Fprintf(w, "Run %s  host %s (build %d)  UTC offset %s\n", r.RunID, r.Host.Version, r.Host.Build, r.UTCOffset)
	if r.Unsupported {
		fmt.Fprintf(w, "Host build predates Windows 11 22H2 (%d); the artifact stores are not written here.\n", vortex.MinJournalBuild)
		return
	}

	fmt.Fprintf(w, "\nArtifacts in %s\n", r.ArtifactDir)
	for _, f := range r.Files {
		if !f.Present {
			fmt.Fprintf(w, "  %-22s missing\n", f.Name)
			continue
		}
		fmt.Fprintf(w, "  %-22s %6d KB  modified %s\n", f.Name, f.SizeKB, formatTime(f.ModifiedAt))
	}

	if len(r.Drives) > 0 {
		fmt.Fprintln(w)
		printDriveStatuses(w, r.Drives)
	}

	fmt.Fprintf(w, "\nLaunch dictionary (%d)\n", len(r.Launches))
	for _, l := range r.Launches {
		status, md5 := "-", "-"
		if l.Enhancement != nil {
			status, md5 = l.Enhancement.FileStatus.String(), orDash(l.Enhancement.MD5)
		}
		fmt.Fprintf(w, "  %s  %-8s %-32s %-8s %s\n", l.LastExecutedLoc.Format(timeLayout), status, md5, journalDisplay(l.Journal), l.Path)
	}

	fmt.Fprintf(w, "\nGeneral database (%d)\n", len(r.Executions))
	for _, e := range r.Executions {
		status := "-"
		if e.Enhancement != nil {
			status = e.Enhancement.FileStatus.String()
		}
		fmt.Fprintf(w, "  %s  %-9s %-8s runs=%-3d %-8s %s\n", e.TimestampLocal.Format(timeLayout),
			e.PathStatus, status, e.RunCount, journalDisplay(e.Journal), e.EnhancementPath())
	}

	fmt.Fprintf(w, "\n%d path(s) enhanced, %d with journal events, in %s\n",
		len(r.Enhanced), r.JournalHits(), r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
}

func journalDisplay(l *vortex.JournalLookup) string {
	if l == nil {
		return "-"
	}
	return orDash(l.Display())
}

func printEnhanced(w io.Writer, e *vortex.EnhancedEntry) {
	fmt.Fprintf(w, "%s\n", e.OriginalPath)
	fmt.Fprintf(w, "  Status:     %s\n", e.FileStatus)
	if e.FileStatus == vortex.FileStatusPresent {
		fmt.Fprintf(w, "  Size:       %s (%s)\n", orDash(e.FileSizeBytes), orDash(e.FileSizeMB))
		fmt.Fprintf(w, "  Created:    %s\n", formatTime(e.CreatedAt))
		fmt.Fprintf(w, "  Modified:   %s\n", formatTime(e.ModifiedAt))
		fmt.Fprintf(w, "  Accessed:   %s\n", formatTime(e.AccessedAt))
		fmt.Fprintf(w, "  MD5:        %s\n", orDash(e.MD5))
		fmt.Fprintf(w, "  Signature:  %s\n", e.SignatureStatus)
		fmt.Fprintf(w, "  Compiled:   %s\n", formatTime(e.CompiledAt))
		if e.EntryPoint != nil {
			fmt.Fprintf(w, "  EntryPoint: 0x%X\n", *e.EntryPoint)
		}
		if e.DebugAllowed != nil {
			fmt.Fprintf(w, "  Debug:      %t\n", *e.DebugAllowed)
		}
	}
	if e.ErrorMessage != "" {
		fmt.Fprintf(w, "  Error:      %s\n", e.ErrorMessage)
	}
}

func printDriveStatuses(w io.Writer, statuses []vortex.DriveStatus) {
	for _, s := range statuses {
		fmt.Fprintf(w, "  %s: %-28s %s event(s)\n", s.Drive, s.Status, humanize.Comma(int64(s.Records)))
	}
}

func printResolution(w io.Writer, execs []*vortex.ExecutionEntry) {
	if len(execs) == 0 {
		fmt.Fprintln(w, "No general database entries.")
		return
	}
	width := 0
	for _, e := range execs {
		width = max(width, len(e.Path))
	}
	for _, e := range execs {
		fmt.Fprintf(w, "%-*s  %-9s  runs=%-3d %s\n", width, e.Path, e.PathStatus, e.RunCount, orDash(strings.TrimSpace(e.ResolvedPath)))
	}
}

func printRuns(w io.Writer, runs []*vortex.AnalysisRun) {
	for _, r := range runs {
		duration := ""
		if r.FinishedAt != nil {
			duration = r.FinishedAt.Sub(r.StartedAt).Truncate(time.Millisecond).String()
		}
		fmt.Fprintf(w, "%s  %s (%s)  %-11s  launches=%d executions=%d enhanced=%d journal=%d  %s\n",
			r.ID,
			r.StartedAt.Local().Format(timeLayout),
			humanize.Time(r.StartedAt),
			r.Status,
			r.LaunchCount, r.ExecutionCount, r.EnhancedCount, r.JournalHits,
			duration,
		)
	}
}
