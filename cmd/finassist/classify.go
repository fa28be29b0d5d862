// Package main contains the finassist CLI commands.
package main

import (
	"fmt"
	"strings"

	"github.com/Veraticus/finassist/internal/cli"
	"github.com/spf13/cobra"
)

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify <merchant>",
		Short: "Pick a category for a merchant",
		Long: `Classify a merchant or expense description against the live categories
without recording anything.

Examples:
  finassist classify Costco
  finassist classify "tacos el guero" --category "dining out"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runClassify,
	}

	cmd.Flags().StringP("category", "c", "", "Category hint to try before the rule table")

	return cmd
}

func runClassify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	explicit, _ := cmd.Flags().GetString("category")
	merchant := strings.Join(args, " ")

	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.close()

	result, err := a.assistant.Classify(ctx, merchant, explicit)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderClassification(merchant, result))
	return nil
}
