package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <message>",
		Short: "Show how a message would be read as an expense",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.close()

			parsed, err := a.assistant.Parse(strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "merchant: %s\namount:   %s\ncurrency: %s\n",
				parsed.Merchant, parsed.Amount.StringFixed(2), parsed.Currency)
			return nil
		},
	}
}
