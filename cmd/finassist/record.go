package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/Veraticus/finassist/internal/cli"
	"github.com/spf13/cobra"
)

func recordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record <message>",
		Short: "Record an expense from a short message",
		Long: `Parse a message like "Costco 120.54" or "57.74 CAD supermarket", pick its
category and save it. When the category is ambiguous the suggestions are
shown and you choose one, unless --no-prompt is set.

Examples:
  finassist record Costco 120.54 --user 1
  finassist record "tacos 85" --category "dining out"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runRecord,
	}

	cmd.Flags().StringP("category", "c", "", "Category to try before the rule table")
	cmd.Flags().StringP("user", "u", "", "User recording the expense (default: user.id setting)")
	cmd.Flags().Bool("no-prompt", false, "Leave ambiguous expenses unsaved instead of asking")

	return cmd
}

func runRecord(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	explicit, _ := cmd.Flags().GetString("category")
	userFlag, _ := cmd.Flags().GetString("user")
	noPrompt, _ := cmd.Flags().GetBool("no-prompt")

	user := userID(userFlag)
	if user == "" {
		return fmt.Errorf("no user given: pass --user or set user.id")
	}

	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.close()

	rec, err := a.assistant.Record(ctx, strings.Join(args, " "), user, explicit)
	if err != nil {
		return err
	}

	if rec.Pending() {
		if noPrompt {
			fmt.Fprintln(out, cli.RenderClassification(rec.Parsed.Merchant, rec.Classification))
			return rec.Err()
		}

		prompter := cli.NewPrompter(cli.NewLineReader(os.Stdin), out)
		picked, ok, err := prompter.ChooseCategory(ctx, rec.Parsed.Merchant, rec.Classification.Suggestions)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, cli.FormatInfo("Skipped "+rec.Parsed.Merchant))
			return nil
		}
		if rec, err = a.assistant.Confirm(ctx, rec.Parsed, user, picked.ID); err != nil {
			return err
		}
	}

	fmt.Fprintln(out, cli.FormatSuccess(cli.SavedMessage(rec)))
	return nil
}
