// internal/cli/manage.go
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arc-language/bpkg"
)

var initNoInstall bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the registry and install bpkg with itself",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(cmd, func(ctx context.Context, m *bpkg.Manager) error {
			return m.Init(ctx, &bpkg.InitOptions{NoInstall: initNoInstall})
		})
	},
}

var removeCmd = &cobra.Command{
	Use:               "remove <name>",
	Aliases:           []string{"uninstall", "delete"},
	Short:             "Delete a package and its backup",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeInstalled,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(cmd, func(ctx context.Context, m *bpkg.Manager) error {
			return m.Delete(args[0])
		})
	},
}

var revertCmd = &cobra.Command{
	Use:               "revert <name>",
	Short:             "Restore the binary replaced by the last install or update",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeInstalled,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(cmd, func(ctx context.Context, m *bpkg.Manager) error {
			return m.Revert(args[0])
		})
	},
}

var updateCmd = &cobra.Command{
	Use:   "update [name...]",
	Short: "Update packages in parallel",
	Long: `Update the named packages, or every installed package when none is
given. A failing package never stops the others; the command exits with
an error listing every failure once all updates are done.`,
	ValidArgsFunction: completeInstalled,
	RunE:              runUpdate,
}

func init() {
	initCmd.Flags().BoolVar(&initNoInstall, "no-install", false, "only create the registry")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	return withManager(cmd, func(ctx context.Context, m *bpkg.Manager) error {
		report, err := m.Update(ctx, args)
		if err != nil {
			return err
		}
		if failed := report.Failures(); len(failed) > 0 {
			return fmt.Errorf("%d of %d updates failed:\n%w", len(failed), len(report.Outcomes), report.Err())
		}
		return nil
	})
}
