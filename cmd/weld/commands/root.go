// Package commands provides the CLI commands for the weld tool.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "weld [directory]",
	Short: "Template-driven call inliner for Go packages",
	Long: `weld generates specialized siblings of annotated Go methods by inlining
marked call sites through their callee's declared template.

A callee declares how its call sites expand:

  //weld:template for _, {action.arg0} := range self {
  //weld:template 	{action.body}
  //weld:template }
  func (xs IntList) ForEach(action func(int)) { ... }

A caller opts in and receives a generated sibling next to the original:

  //weld:expand target=SumFast
  func (xs IntList) Sum() int { ... }

Usage:
  weld                    Expand the package in the current directory
  weld ./mypkg            Expand a specific package directory
  weld generate ./mypkg   Same, explicitly
  weld templates          List the templates a run would use
  weld version            Print version`,
	Args:          cobra.MaximumNArgs(1),
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runGenerate,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(templatesCmd)
	rootCmd.AddCommand(versionCmd)

	// Mirror the generate flags on the root command so plain `weld` works.
	rootCmd.Flags().StringVarP(&generateConfigPath, "config", "c", "", "Path to weld.toml")
	rootCmd.Flags().StringVar(&generateSuffix, "suffix", "", "Suffix for generated names without an explicit target")
	rootCmd.Flags().IntVarP(&generateJobs, "jobs", "j", 0, "Parallel expansions (default GOMAXPROCS)")
	rootCmd.Flags().BoolVar(&generateFormat, "format", false, "Run gofmt over generated files")
	rootCmd.Flags().BoolVar(&generateCheck, "check", false, "Verify generated files are current instead of writing")
	rootCmd.Flags().BoolVarP(&generateDryRun, "dry-run", "n", false, "Print generated files to stdout instead of writing")
	rootCmd.Flags().BoolVar(&generateNoColor, "no-color", false, "Disable colored diagnostics")
}
