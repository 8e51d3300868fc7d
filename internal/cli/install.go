// internal/cli/install.go
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arc-language/bpkg"
	"github.com/arc-language/bpkg/pkg/codec"
)

var (
	installPath        string
	installCompression string
	installArchive     string
	installForce       bool
)

var installCmd = &cobra.Command{
	Use:   "install <name> <url|owner/repo>",
	Short: "Install a package",
	Long: `Install a single executable under the given name.

The source is either a download URL or a GitHub repository written as
owner/repo, in which case the latest release is used and you pick one of
its assets. Compression and archive formats are inferred from the URL
unless given explicitly.`,
	Args: cobra.ExactArgs(2),
	RunE: runInstall,
}

func init() {
	installCmd.Flags().StringVarP(&installPath, "path", "p", "", "install location (default is <bin_dir>/<name>)")
	installCmd.Flags().StringVarP(&installCompression, "compression", "c", "", fmt.Sprintf("compression %v", codec.Compressions()))
	installCmd.Flags().StringVarP(&installArchive, "archive", "a", "", fmt.Sprintf("archive %v", codec.Archives()))
	installCmd.Flags().BoolVarP(&installForce, "force", "f", false, "overwrite an installed package without asking")

	installCmd.RegisterFlagCompletionFunc("compression", cobra.FixedCompletions(codec.Compressions(), cobra.ShellCompDirectiveNoFileComp))
	installCmd.RegisterFlagCompletionFunc("archive", cobra.FixedCompletions(codec.Archives(), cobra.ShellCompDirectiveNoFileComp))
}

func runInstall(cmd *cobra.Command, args []string) error {
	// Empty flags leave the formats to be inferred from the URL
	var (
		compression codec.Compression
		archive     codec.Archive
		err         error
	)
	if installCompression != "" {
		if compression, err = codec.ParseCompression(installCompression); err != nil {
			return err
		}
	}
	if installArchive != "" {
		if archive, err = codec.ParseArchive(installArchive); err != nil {
			return err
		}
	}

	req := &bpkg.InstallRequest{
		Name:        args[0],
		Source:      args[1],
		Path:        installPath,
		Compression: compression,
		Archive:     archive,
		Force:       installForce,
	}
	return withManager(cmd, func(ctx context.Context, m *bpkg.Manager) error {
		return m.Install(ctx, req)
	})
}
