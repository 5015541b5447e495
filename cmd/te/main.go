// Command te edits keys in a TOML file from the command line while
// preserving the file's comments and formatting.
//
// Arguments are a series of keys and values, optionally interleaved
// with mode switches. The default mode is @ (auto):
//
//	te project.version 0.2.0
//	te -p tool.ruff fix true + extend-include "*.pyw"
//	te - project.license
//
// The switches @ = + - select auto, set, add, and remove for the
// arguments that follow, until the next switch.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/maurice/tomledit"
)

var version = "dev"

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	keyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#3B82F6"))
	switchStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
)

var (
	flagFile    string
	flagFind    string
	flagPrefix  string
	flagBackup  bool
	flagVerbose bool

	rootCmd = &cobra.Command{
		Use:   "te [flags] [switch] key value ...",
		Short: "Edit keys in TOML files without disturbing the rest",
		Long: titleStyle.Render("te") + mutedStyle.Render(" - edit keys in TOML files without disturbing the rest") + `

Keys use the same dotted syntax as TOML headers, e.g.
` + keyStyle.Render(`super.sub."dotted.key"`) + `. Values may be plain strings or any
TOML literal (numbers, booleans, arrays, inline tables).

The switches ` + switchStyle.Render("@ = + -") + ` change the edit mode for the arguments that
follow, until the next switch:

  @  auto    key value ...   append if the key holds a list, else set
  =  set     key value ...   set the key, replacing any existing value
  +  add     key value ...   append to the list, creating or converting
                             the existing value to a list if needed
  -  remove  key ...         remove the entries at the given keys

Without --file, the target is the nearest ` + keyStyle.Render("pyproject.toml") + ` in the
current directory or its parents (change the name with --find).

Examples:
  te project.version 0.2.0 project.readme README.md
  te -p tool.ruff fix true + extend-include '"*.pyw"'
  te -b - project.license`,
		Args: cobra.MinimumNArgs(1),
		RunE: runEdit,
	}
)

func init() {
	rootCmd.Flags().SetInterspersed(false)
	rootCmd.Flags().StringVarP(&flagFile, "file", "f", "", "the TOML file to edit")
	rootCmd.Flags().StringVarP(&flagFind, "find", "F", "pyproject.toml", "if --file is not given, find a file with this name here or in a parent directory")
	rootCmd.Flags().StringVarP(&flagPrefix, "prefix", "p", "", "key prefix applied to every key (e.g. tool.uv)")
	rootCmd.Flags().BoolVarP(&flagBackup, "backup", "b", false, "keep the previous file contents in <file>~")
	rootCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "report on the operations performed")
}

func newLogger() *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "te"})
	if flagVerbose {
		logger.SetLevel(log.InfoLevel)
	} else {
		logger.SetLevel(log.WarnLevel)
	}
	return logger
}

func runEdit(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	logger := newLogger()

	requests, err := tokenizeEdits(args)
	if err != nil {
		return err
	}

	var prefix []string
	if flagPrefix != "" {
		prefix, err = tomledit.ParseKeyPath(flagPrefix)
		if err != nil {
			return fmt.Errorf("invalid prefix: %w", err)
		}
	}

	path := flagFile
	if path == "" {
		path = findInParents(flagFind)
	}

	doc, err := loadDocument(path)
	if err != nil {
		return err
	}
	if flagPrefix != "" {
		logger.Info("editing", "file", path, "table", flagPrefix)
	} else {
		logger.Info("editing", "file", path)
	}

	if err := tomledit.ApplyAll(doc, prefix, requests); err != nil {
		// Nothing is written; the file is left exactly as it was.
		return err
	}
	for _, req := range requests {
		logger.Info("applied", "key", req.Key)
	}

	return writeDocument(path, doc, flagBackup, logger)
}

func main() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}
