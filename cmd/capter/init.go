package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/blackcoderx/capter/pkg/core"
	"github.com/blackcoderx/capter/pkg/report"
)

var forceInit bool

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "overwrite the example workflow without asking")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the .capter folder with an example workflow",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit(cmd.OutOrStdout(), forceInit, confirmOverwrite)
	},
}

var (
	diffAddStyle    = lipgloss.NewStyle().Foreground(report.PassColor)
	diffRemoveStyle = lipgloss.NewStyle().Foreground(report.ErrorColor)
	diffMetaStyle   = lipgloss.NewStyle().Foreground(report.DimColor)
	hintStyle       = lipgloss.NewStyle().Foreground(report.AccentColor)
)

// runInit creates .capter and writes the example workflow. An existing,
// different example is only replaced when force is set or confirm agrees.
func runInit(out io.Writer, force bool, confirm func(path string) (bool, error)) error {
	if err := core.InitializeCapterFolder(); err != nil {
		return err
	}

	change, err := core.PlanExample()
	if err != nil {
		return err
	}

	switch {
	case change.Identical:
		fmt.Fprintf(out, "%s is up to date\n", change.Path)
	case change.IsNewFile || force:
		if err := core.WriteExample(); err != nil {
			return err
		}
		fmt.Fprintf(out, "Created %s\n", change.Path)
	default:
		fmt.Fprintln(out, colorDiff(change.Diff))
		ok, err := confirm(change.Path)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintf(out, "Kept %s\n", change.Path)
			return nil
		}
		if err := core.WriteExample(); err != nil {
			return err
		}
		fmt.Fprintf(out, "Updated %s\n", change.Path)
	}

	fmt.Fprintf(out, "\nRun it with:\n\n  %s\n", hintStyle.Render("capter test "+core.ExampleWorkflowFile))
	return nil
}

func confirmOverwrite(path string) (bool, error) {
	var ok bool
	err := huh.NewConfirm().
		Title(fmt.Sprintf("%s has local changes. Overwrite it?", path)).
		Affirmative("Overwrite").
		Negative("Keep").
		Value(&ok).
		Run()
	return ok, err
}

func colorDiff(diff string) string {
	lines := strings.Split(strings.TrimRight(diff, "\n"), "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"), strings.HasPrefix(line, "@@"):
			lines[i] = diffMetaStyle.Render(line)
		case strings.HasPrefix(line, "+"):
			lines[i] = diffAddStyle.Render(line)
		case strings.HasPrefix(line, "-"):
			lines[i] = diffRemoveStyle.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}
