// internal/cli/list.go
package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/arc-language/bpkg/pkg/core"
	"github.com/arc-language/bpkg/pkg/registry"
)

var (
	nameStyle  = lipgloss.NewStyle().Bold(true)
	faintStyle = lipgloss.NewStyle().Faint(true)
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List installed packages",
	Args:    cobra.NoArgs,
	RunE:    runList,
}

var infoCmd = &cobra.Command{
	Use:               "info <name>",
	Short:             "Show details of an installed package",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeInstalled,
	RunE:              runInfo,
}

func runList(cmd *cobra.Command, args []string) error {
	reg, err := registry.Load(config.Registry)
	if err != nil {
		return err
	}
	for _, p := range reg.List() {
		fmt.Fprintf(stdout, "%s %s\n", nameStyle.Render(p.Name), source(p))
	}
	return nil
}

func runInfo(cmd *cobra.Command, args []string) error {
	reg, err := registry.Load(config.Registry)
	if err != nil {
		return err
	}
	p, ok := reg.Get(args[0])
	if !ok {
		return fmt.Errorf("%s: package not installed", args[0])
	}

	lastUpdate := "never"
	if p.LastUpdate != nil {
		lastUpdate = p.LastUpdate.Local().Format("2006-01-02 15:04:05")
	}
	backup := faintStyle.Render("none")
	if p.Installer.HasBackup() {
		backup = p.Installer.Backup
	}

	rows := [][2]string{
		{"Package", nameStyle.Render(p.Name)},
		{"Source", source(p)},
		{"Path", p.Installer.Path},
		{"Release", p.Release.String()},
		{"Last update", lastUpdate},
		{"Compression", p.Installer.Compression.String()},
		{"Archive", p.Installer.Archive.String()},
		{"Backup", backup},
	}
	for _, row := range rows {
		fmt.Fprintf(stdout, "%-12s %s\n", row[0]+":", row[1])
	}
	return nil
}

// source is the GitHub repository for release packages, else the URL
func source(p *core.Package) string {
	if p.Origin != "" {
		return p.Origin
	}
	return p.Installer.URL
}

func completeInstalled(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	reg, err := registry.Load(config.Registry)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	var names []string
	for _, name := range reg.Names() {
		if strings.HasPrefix(name, toComplete) {
			names = append(names, name)
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
