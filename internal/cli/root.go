// internal/cli/root.go
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/arc-language/bpkg"
	"github.com/arc-language/bpkg/pkg/core"
	"github.com/arc-language/bpkg/pkg/metrics"
	"github.com/arc-language/bpkg/pkg/ui"
)

// Version is stamped at build time
var Version = "0.1.0"

var (
	cfgFile string
	debug   bool
	workers int
	config  *core.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "bpkg",
	Short: "Binary package manager",
	Long: `bpkg - Binary package manager

Installs single executables from a download URL or from the latest
GitHub release of a repository, keeps a backup of the binary each
install replaces and updates everything in parallel.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute executes the root command
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "settings file (default is $XDG_CONFIG_HOME/bpkg/settings.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "write debug logs to the log file")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "parallel updates (default one per package, at most 8)")

	// Add commands
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(revertCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	var err error
	config, err = core.LoadConfig(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		config = core.DefaultConfig()
	}

	// Override config with flags
	if debug {
		config.Debug = true
	}
	if workers > 0 {
		config.Workers = workers
	}
}

// withManager runs fn with a manager whose output actor owns the terminal
// for the duration of the call
func withManager(cmd *cobra.Command, fn func(ctx context.Context, m *bpkg.Manager) error) error {
	if err := config.EnsureDirs(); err != nil {
		return err
	}

	logger, closer, err := core.NewLogger(config)
	if err != nil {
		return err
	}
	defer closer.Close()

	out := ui.New(&ui.Options{Logger: logger, Plain: !ui.IsInteractive()})
	out.Start()

	m, err := bpkg.NewManager(&bpkg.Options{
		Config:  config,
		UI:      out,
		Logger:  logger,
		Metrics: metrics.New(),
	})
	if err != nil {
		out.Handle("", "").Quit()
		return err
	}

	runErr := fn(cmd.Context(), m)
	if err := m.Close(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// stdout is where listings go; tests swap it
var stdout io.Writer = os.Stdout

