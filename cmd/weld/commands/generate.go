package commands

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/xyproto/env/v2"

	"weld/internal/diag"
	"weld/internal/driver"
)

var (
	generateConfigPath string
	generateSuffix     string
	generateJobs       int
	generateFormat     bool
	generateCheck      bool
	generateDryRun     bool
	generateNoColor    bool
)

var generateCmd = &cobra.Command{
	Use:   "generate [directory]",
	Short: "Expand weld triggers in a package",
	Long: `Generate scans one package directory for weld directives, expands every
trigger and writes the generated files next to the sources.

Settings resolve in order: flags, WELD_* environment variables, weld.toml
(discovered by walking up from the package directory), built-in defaults.

Examples:
  weld generate                 # Expand the current directory
  weld generate ./mypkg         # Expand a specific package
  weld generate --check         # Fail if generated files are out of date
  weld generate -n              # Print generated output without writing
  weld generate --format        # gofmt the output`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&generateConfigPath, "config", "c", "", "Path to weld.toml")
	generateCmd.Flags().StringVar(&generateSuffix, "suffix", "", "Suffix for generated names without an explicit target")
	generateCmd.Flags().IntVarP(&generateJobs, "jobs", "j", 0, "Parallel expansions (default GOMAXPROCS)")
	generateCmd.Flags().BoolVar(&generateFormat, "format", false, "Run gofmt over generated files")
	generateCmd.Flags().BoolVar(&generateCheck, "check", false, "Verify generated files are current instead of writing")
	generateCmd.Flags().BoolVarP(&generateDryRun, "dry-run", "n", false, "Print generated files to stdout instead of writing")
	generateCmd.Flags().BoolVar(&generateNoColor, "no-color", false, "Disable colored diagnostics")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	configureColor()

	cfg := driver.DefaultConfig()
	if len(args) > 0 {
		cfg.Dir = args[0]
	}
	if generateConfigPath != "" {
		cfg.ConfigPath = generateConfigPath
	}
	if generateSuffix != "" {
		cfg.Suffix = generateSuffix
	}
	if generateJobs > 0 {
		cfg.Jobs = generateJobs
	}
	cfg.Format = generateFormat
	cfg.Check = generateCheck
	cfg.DryRun = generateDryRun

	report, err := driver.Run(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	errors := printDiagnostics(report)

	switch {
	case generateCheck:
		for _, name := range report.Drift {
			fmt.Printf("stale %s\n", name)
		}
		if len(report.Drift) > 0 {
			return fmt.Errorf("%d generated file(s) out of date, run weld to refresh", len(report.Drift))
		}
	case generateDryRun:
		for _, gf := range report.Generated {
			fmt.Printf("--- %s\n%s", gf.Name, gf.Content)
		}
	default:
		for _, name := range report.Written {
			fmt.Printf("wrote %s\n", name)
		}
	}

	if errors > 0 {
		return fmt.Errorf("%d error(s) during expansion", errors)
	}
	return nil
}

// configureColor disables colored output when asked by flag or by the
// WELD_NO_COLOR environment variable.
func configureColor() {
	if generateNoColor || env.Bool("WELD_NO_COLOR") {
		color.NoColor = true
	}
}

// printDiagnostics renders every diagnostic to stderr and returns the hard
// failure count.
func printDiagnostics(report *driver.Report) int {
	printer := diag.NewPrinter(os.Stderr)
	errors, warnings := 0, 0
	for _, d := range report.Diagnostics {
		printer.Diagnostic(d.Err, d.SourceLine)
		if d.Err.Category.Soft() {
			warnings++
		} else {
			errors++
		}
	}
	printer.Summary(errors, warnings)
	return errors
}
