package main

import (
	"fmt"
	"strings"

	"github.com/Veraticus/finassist/internal/cli"
	"github.com/Veraticus/finassist/internal/model"
	"github.com/Veraticus/finassist/internal/service"
	"github.com/spf13/cobra"
)

func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage the family members who record expenses",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, false)
			if err != nil {
				return err
			}
			defer a.close()

			users, err := a.store.Fetch(ctx, service.Query{
				Table:   service.TableUsers,
				Columns: []string{"id", "name", "telegram_id"},
				Order:   []service.Order{{Column: "name"}},
			})
			if err != nil {
				return fmt.Errorf("failed to get users: %w", err)
			}

			rows := make([][]string, 0, len(users))
			for _, u := range users {
				rows = append(rows, []string{u.String("id"), u.String("name"), u.String("telegram_id")})
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTable([]string{"ID", "Name", "Telegram"}, rows))
			return nil
		},
	})

	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a user, or rename the one with the same Telegram id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			telegramID, _ := cmd.Flags().GetString("telegram-id")

			a, err := newApp(ctx, false)
			if err != nil {
				return err
			}
			defer a.close()

			db, err := a.requireSQLite()
			if err != nil {
				return err
			}

			user, err := db.UpsertUser(ctx, model.User{Name: strings.Join(args, " "), TelegramID: telegramID})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("User %q has ID %s", user.Name, user.ID)))
			return nil
		},
	}
	add.Flags().String("telegram-id", "", "Telegram user id")
	cmd.AddCommand(add)

	return cmd
}
