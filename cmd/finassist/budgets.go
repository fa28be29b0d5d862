package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/finassist/internal/assistant"
	"github.com/Veraticus/finassist/internal/cli"
	"github.com/Veraticus/finassist/internal/model"
	"github.com/Veraticus/finassist/internal/query"
	"github.com/Veraticus/finassist/internal/report"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func budgetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budgets",
		Short: "Manage monthly category budgets",
	}

	cmd.AddCommand(setBudgetCmd())
	cmd.AddCommand(showBudgetsCmd())

	return cmd
}

func setBudgetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <category> <amount>",
		Short: "Set the budget for a category and month",
		Long: `Create or replace the budget for one category in one calendar month.

Examples:
  finassist budgets set Groceries 6000
  finassist budgets set "Dining Out" 2500 --month april --year 2024`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			monthFlag, _ := cmd.Flags().GetString("month")
			year, _ := cmd.Flags().GetInt("year")
			currency, _ := cmd.Flags().GetString("currency")

			amount, err := decimal.NewFromString(args[1])
			if err != nil || !amount.IsPositive() {
				return fmt.Errorf("invalid budget amount %q", args[1])
			}

			a, err := newApp(ctx, false)
			if err != nil {
				return err
			}
			defer a.close()

			db, err := a.requireSQLite()
			if err != nil {
				return err
			}

			month, year, err := budgetMonth(monthFlag, year, a.cfg.Location)
			if err != nil {
				return err
			}

			category, err := db.GetCategoryByName(ctx, args[0])
			if err != nil {
				return err
			}

			value, _ := amount.Round(2).Float64()
			budget, err := db.SetBudget(ctx, model.Budget{
				CategoryID: category.ID,
				Currency:   strings.ToUpper(currency),
				Amount:     value,
				Month:      int(month),
				Year:       year,
			})
			if err != nil {
				return fmt.Errorf("failed to set budget: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("%s budget for %s %d set to %s",
				category.Name, month, budget.Year, report.FormatMoney(budget.Amount, budget.Currency))))
			return nil
		},
	}

	cmd.Flags().StringP("month", "m", "", "Month name or number (default: current month)")
	cmd.Flags().IntP("year", "y", 0, "Year (default: current year)")
	cmd.Flags().String("currency", model.DefaultCurrency, "Budget currency")

	return cmd
}

func showBudgetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Compare budgets with spending for a month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			monthFlag, _ := cmd.Flags().GetString("month")
			year, _ := cmd.Flags().GetInt("year")

			a, err := newApp(ctx, false)
			if err != nil {
				return err
			}
			defer a.close()

			opts := assistant.AskOptions{Template: query.BudgetVsSpending.String()}
			if monthFlag != "" {
				opts = assistant.AskOptions{Template: query.CustomMonthBudget.String(), Month: monthFlag, Year: year}
			}

			answer, err := a.assistant.Ask(ctx, "", opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderReport(report.Build(answer.Result)))
			return nil
		},
	}

	cmd.Flags().StringP("month", "m", "", "Month name or number (default: current month)")
	cmd.Flags().IntP("year", "y", 0, "Year, with --month (default: current year)")

	return cmd
}

// budgetMonth resolves the month and year flags, defaulting to the current
// month in loc.
func budgetMonth(monthFlag string, year int, loc *time.Location) (time.Month, int, error) {
	now := time.Now().In(loc)
	if year == 0 {
		year = now.Year()
	}
	if monthFlag == "" {
		return now.Month(), year, nil
	}
	if m, ok := query.ParseMonth(monthFlag); ok {
		return m, year, nil
	}
	return 0, 0, fmt.Errorf("invalid month %q", monthFlag)
}
