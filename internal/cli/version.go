// internal/cli/version.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(stdout, "bpkg version %s\n", Version)
		fmt.Fprintln(stdout, "Binary package manager")
		fmt.Fprintln(stdout, "https://github.com/arc-language/bpkg")
	},
}
