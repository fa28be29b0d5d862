package main

import (
	"fmt"
	"strings"

	"github.com/Veraticus/finassist/internal/cli"
	"github.com/spf13/cobra"
)

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <sql>",
		Short: "Check a SQL statement against the read-only guardrail",
		Long: `Report whether a SQL statement would be accepted for execution.
The command exits non-zero when the statement is rejected.

Examples:
  finassist validate "SELECT SUM(amount) FROM expenses"
  finassist validate "DROP TABLE expenses"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := loadPolicy(guardrailPath())
			if err != nil {
				return err
			}

			verdict := policy.Validate(strings.Join(args, " "))
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderVerdict(verdict))
			return verdict.Err()
		},
	}
}

// guardrailPath reads guardrail.path without loading the full config, so
// validation works without a configured store.
func guardrailPath() string {
	return expandSetting("guardrail.path")
}
