package main

import (
	"fmt"
	"os"
	"strings"

	"vortex-go/internal/app"
	"vortex-go/internal/config"
	"vortex-go/internal/vortex"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a VortexApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "analyze", "report export").
func newApp(operation string) (*app.VortexApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewVortexApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// readPassphrase prompts on stderr and reads a passphrase without echo.
func readPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func progressPrinter(enabled bool) vortex.ProgressFunc {
	if !enabled {
		return nil
	}
	return func(p vortex.EnhancementProgress) {
		fmt.Fprintf(os.Stderr, "\rEnhancing %d/%d (%d%%)", p.Processed, p.Total, p.PercentComplete())
		if p.Processed == p.Total {
			fmt.Fprintln(os.Stderr)
		}
	}
}

var rootCmd = &cobra.Command{
	Use:          "vortex",
	Short:        "Program execution artifact analysis",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		caseID, _ := cmd.Flags().GetString("case")
		if caseID == "" {
			caseID = uuid.New().String()
		}

		cfg := config.NewConfig(caseID, defaults.BaseDir)
		if err := config.Init(defaults.ConfigPath, cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults.ConfigPath)
		fmt.Printf("Case ID:  %s\n", caseID)
		fmt.Printf("Base Dir: %s\n", defaults.BaseDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults.ConfigPath)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults.ConfigPath)
		printConfig(os.Stdout, cfg)
		return nil
	},
}

// keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage report encryption keys",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the report encryption key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		pass, err := readPassphrase("Passphrase: ")
		if err != nil {
			return fmt.Errorf("reading passphrase: %w", err)
		}
		confirm, err := readPassphrase("Confirm passphrase: ")
		if err != nil {
			return fmt.Errorf("reading passphrase: %w", err)
		}
		if pass != confirm {
			return fmt.Errorf("passphrases do not match")
		}

		a, err := newApp("keys init")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.InitKeys(pass); err != nil {
			return err
		}
		fmt.Println("Encryption keys generated.")
		return nil
	},
}

// analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Parse, resolve, enhance and journal-check the execution artifacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		quiet, _ := cmd.Flags().GetBool("quiet")
		export, _ := cmd.Flags().GetBool("export")
		plain, _ := cmd.Flags().GetBool("plain")

		a, err := newApp("analyze")
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.Analyze(progressPrinter(!quiet))
		if err != nil {
			return fmt.Errorf("analysis failed: %w", err)
		}
		printAnalysis(os.Stdout, result)

		if export && !result.Unsupported {
			key, err := a.ExportReport(result.RunID, plain)
			if err != nil {
				return fmt.Errorf("exporting report: %w", err)
			}
			fmt.Printf("\nReport stored as %s\n", key)
		}
		return nil
	},
}

// enhance command
var enhanceCmd = &cobra.Command{
	Use:   "enhance PATH...",
	Short: "Snapshot file status, hash and PE header of paths",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("enhance")
		if err != nil {
			return err
		}
		defer a.Close()

		m := a.Enhance(args, nil)
		for _, p := range args {
			if e, ok := m.Get(p); ok {
				printEnhanced(os.Stdout, e)
			}
		}
		return nil
	},
}

// journal command
var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query and capture the NTFS change journal",
}

var journalLookupCmd = &cobra.Command{
	Use:   "lookup PATH...",
	Short: "Find delete and rename events for file names",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("journal lookup")
		if err != nil {
			return err
		}
		defer a.Close()

		m, statuses, err := a.LookupJournal(args)
		if err != nil {
			return err
		}
		printDriveStatuses(os.Stdout, statuses)
		fmt.Println()
		for _, p := range args {
			l, _ := m.Get(p)
			text := "no events"
			if l != nil && l.Found {
				text = l.Text()
			}
			fmt.Printf("%s\n    %s\n", p, text)
		}
		return nil
	},
}

var journalCaptureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Record a drive's journal for offline replay",
	RunE: func(cmd *cobra.Command, args []string) error {
		drive, _ := cmd.Flags().GetString("drive")
		out, _ := cmd.Flags().GetString("out")
		drive = strings.ToUpper(strings.TrimSuffix(drive, ":"))
		if out == "" {
			out = drive + ".usncap"
		}

		a, err := newApp("journal capture")
		if err != nil {
			return err
		}
		defer a.Close()

		frames, err := a.CaptureJournal(drive, out)
		if err != nil {
			return err
		}
		fmt.Printf("Captured %d buffer(s) from %s: to %s\n", frames, drive, out)
		return nil
	},
}

// resolve command
var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Print how general database paths resolve",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("resolve")
		if err != nil {
			return err
		}
		defer a.Close()

		execs, err := a.Resolve()
		if err != nil {
			return err
		}
		printResolution(os.Stdout, execs)
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View analysis run history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("history")
		if err != nil {
			return err
		}
		defer a.Close()

		runs, err := a.History()
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No analysis runs recorded.")
			return nil
		}
		if limit > 0 && len(runs) > limit {
			runs = runs[:limit]
		}
		printRuns(os.Stdout, runs)
		return nil
	},
}

// report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Export and retrieve analysis reports",
}

var reportExportCmd = &cobra.Command{
	Use:   "export RUN_ID",
	Short: "Store a run's report in the configured archives",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		plain, _ := cmd.Flags().GetBool("plain")

		a, err := newApp("report export")
		if err != nil {
			return err
		}
		defer a.Close()

		key, err := a.ExportReport(args[0], plain)
		if err != nil {
			return err
		}
		fmt.Printf("Report stored as %s\n", key)
		return nil
	},
}

var reportGetCmd = &cobra.Command{
	Use:   "get RUN_ID",
	Short: "Retrieve a run's report, decrypting it if needed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")

		a, err := newApp("report get")
		if err != nil {
			return err
		}
		defer a.Close()

		w := os.Stdout
		if out != "" {
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("creating output file: %w", err)
			}
			defer f.Close()
			w = f
		}
		return a.FetchReport(args[0], w, func() (string, error) {
			return readPassphrase("Passphrase: ")
		})
	},
}

// search command
var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search recorded runs",
}

var searchMD5Cmd = &cobra.Command{
	Use:   "md5 DIGEST",
	Short: "Find enhanced entries with a content hash",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("search md5")
		if err != nil {
			return err
		}
		defer a.Close()

		matches, err := a.SearchMD5(args[0])
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			fmt.Println("No matches.")
			return nil
		}
		for _, m := range matches {
			fmt.Printf("%s  %s  %s  %s\n", m.RunID, m.StartedAt.Format(timeLayout), m.Entry.FileStatus, m.Entry.OriginalPath)
		}
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().String("case", "", "Case identifier (default: a new UUID)")
	configCmd.AddCommand(configListCmd)

	keysCmd.AddCommand(keysInitCmd)

	journalCmd.AddCommand(journalLookupCmd)
	journalCmd.AddCommand(journalCaptureCmd)
	journalCaptureCmd.Flags().StringP("drive", "d", "C", "Drive letter to capture")
	journalCaptureCmd.Flags().StringP("out", "o", "", "Capture file (default: <drive>.usncap)")

	reportCmd.AddCommand(reportExportCmd)
	reportExportCmd.Flags().Bool("plain", false, "Store the report unencrypted")
	reportCmd.AddCommand(reportGetCmd)
	reportGetCmd.Flags().StringP("out", "o", "", "Write the report to a file instead of stdout")

	searchCmd.AddCommand(searchMD5Cmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().BoolP("quiet", "q", false, "Do not print progress")
	analyzeCmd.Flags().Bool("export", false, "Store the report in the configured archives")
	analyzeCmd.Flags().Bool("plain", false, "With --export, store the report unencrypted")
	rootCmd.AddCommand(enhanceCmd)
	rootCmd.AddCommand(journalCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of runs to show")
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(searchCmd)
}
