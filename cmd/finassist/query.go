package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Veraticus/finassist/internal/assistant"
	"github.com/Veraticus/finassist/internal/cli"
	"github.com/Veraticus/finassist/internal/query"
	"github.com/Veraticus/finassist/internal/report"
	"github.com/spf13/cobra"
)

func queryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query [question]",
		Short: "Answer a question about spending",
		Long: `Answer a question using a fixed report template, raw SQL, or SQL generated
from the question by the configured LLM.

Examples:
  finassist query "how much did we spend this week?"
  finassist query --template month_by_category
  finassist query --template custom_month_category --month march --year 2024
  finassist query --sql "SELECT SUM(amount) FROM expenses WHERE expense_date >= '2024-03-01'"`,
		RunE: runQuery,
	}

	cmd.Flags().StringP("template", "t", "", "Run a fixed template instead of routing the question")
	cmd.Flags().StringP("month", "m", "", "Month for custom_month_* templates (name or number)")
	cmd.Flags().IntP("year", "y", 0, "Year for custom_month_* templates (default: current year)")
	cmd.Flags().IntP("limit", "n", 0, "Row limit for top_categories_period and recent_expenses")
	cmd.Flags().String("sql", "", "Execute this SQL through the guardrail")
	cmd.Flags().Bool("json", false, "Print the raw result as JSON")
	cmd.Flags().Bool("templates", false, "List the available templates")

	return cmd
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if list, _ := cmd.Flags().GetBool("templates"); list {
		rows := make([][]string, 0, len(query.Templates()))
		for _, t := range query.Templates() {
			rows = append(rows, []string{t.String(), t.Description()})
		}
		fmt.Fprintln(out, cli.RenderTable([]string{"Template", "Description"}, rows))
		return nil
	}

	template, _ := cmd.Flags().GetString("template")
	month, _ := cmd.Flags().GetString("month")
	year, _ := cmd.Flags().GetInt("year")
	limit, _ := cmd.Flags().GetInt("limit")
	customSQL, _ := cmd.Flags().GetString("sql")
	asJSON, _ := cmd.Flags().GetBool("json")
	question := strings.Join(args, " ")

	needsLLM := template == "" && customSQL == ""
	a, err := newApp(ctx, needsLLM)
	if err != nil {
		return err
	}
	defer a.close()

	answer, err := a.assistant.Ask(ctx, question, assistant.AskOptions{
		Template:  template,
		Month:     month,
		CustomSQL: customSQL,
		Year:      year,
		Limit:     limit,
	})
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(answer)
	}

	if answer.SQL != "" {
		fmt.Fprintln(out, cli.FormatInfo("SQL: "+answer.SQL))
	}
	fmt.Fprintln(out, cli.RenderReport(report.Build(answer.Result)))
	return nil
}
