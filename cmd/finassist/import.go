package main

import (
	"fmt"
	"io"
	"os"

	"github.com/Veraticus/finassist/internal/cli"
	"github.com/spf13/cobra"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Record expense messages from a file, one per line",
		Long: `Record every line of a file as an expense message. Blank lines and lines
starting with # are skipped. Lines whose category is ambiguous are left
unsaved and listed at the end so they can be recorded with 'finassist record'.

Examples:
  finassist import receipts.txt --user 1
  pbpaste | finassist import - --user 1`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}

	cmd.Flags().StringP("user", "u", "", "User recording the expenses (default: user.id setting)")
	cmd.Flags().Bool("no-progress", false, "Hide the progress bar")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	userFlag, _ := cmd.Flags().GetString("user")
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	user := userID(userFlag)
	if user == "" {
		return fmt.Errorf("no user given: pass --user or set user.id")
	}

	var input io.Reader = cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", args[0], err)
		}
		defer func() { _ = f.Close() }()
		input = f
	}

	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.close()

	importer := cli.NewImporter(a.assistant, cmd.OutOrStdout(), user, !noProgress)
	stats, err := importer.Import(ctx, input)
	if err != nil {
		return err
	}
	importer.ShowCompletion(stats)

	if len(stats.Failed) > 0 {
		return fmt.Errorf("%d of %d messages could not be recorded", len(stats.Failed), stats.Total)
	}
	return nil
}
