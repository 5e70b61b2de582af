package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"weld/internal/driver"
)

var templatesVerbose bool

var templatesCmd = &cobra.Command{
	Use:   "templates [directory]",
	Short: "List the templates a run would use",
	Long: `Templates lists every expansion template visible to a run of weld:
//weld:template declarations found in the package merged with [[template]]
entries from weld.toml, sorted by callee.

Examples:
  weld templates                # List callees and declaration sites
  weld templates -v ./mypkg     # Include the template text`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTemplates,
}

func init() {
	templatesCmd.Flags().BoolVarP(&templatesVerbose, "verbose", "v", false, "Print template text")
}

func runTemplates(cmd *cobra.Command, args []string) error {
	configureColor()

	cfg := driver.DefaultConfig()
	if len(args) > 0 {
		cfg.Dir = args[0]
	}
	if generateConfigPath != "" {
		cfg.ConfigPath = generateConfigPath
	}

	entries, report, err := driver.Templates(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	errors := printDiagnostics(report)

	for _, e := range entries {
		fmt.Printf("%s  (%s)\n", e.Key, e.Site())
		if templatesVerbose {
			for _, line := range strings.Split(e.Text, "\n") {
				fmt.Printf("\t%s\n", line)
			}
		}
	}

	if errors > 0 {
		return fmt.Errorf("%d error(s) while scanning", errors)
	}
	return nil
}
