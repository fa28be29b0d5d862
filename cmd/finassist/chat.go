package main

import (
	"fmt"

	"github.com/Veraticus/finassist/internal/cli"
	"github.com/spf13/cobra"
)

func chatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Record expenses and ask questions interactively",
		RunE: func(cmd *cobra.Command, _ []string) error {
			userFlag, _ := cmd.Flags().GetString("user")
			user := userID(userFlag)
			if user == "" {
				return fmt.Errorf("no user given: pass --user or set user.id")
			}

			interruptHandler := cli.NewInterruptHandler(cmd.OutOrStdout(), "Bye!")
			ctx := interruptHandler.HandleInterrupts(cmd.Context())

			a, err := newApp(ctx, true)
			if err != nil {
				return err
			}
			defer a.close()

			return cli.NewSession(a.assistant, cmd.InOrStdin(), cmd.OutOrStdout(), user).Run(ctx)
		},
	}

	cmd.Flags().StringP("user", "u", "", "User recording expenses (default: user.id setting)")

	return cmd
}
