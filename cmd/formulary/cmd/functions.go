package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/solatis/formulary/internal/formula"
)

var functionsCategory string

var functionsCmd = &cobra.Command{
	Use:   "functions",
	Short: "List built-in formula functions",
	RunE: func(cmd *cobra.Command, args []string) error {
		defs := formula.Builtins.All()
		if functionsCategory != "" {
			defs = formula.Builtins.ByCategory(formula.Category(functionsCategory))
			if len(defs) == 0 {
				return fmt.Errorf("unknown category %q (expected math, text, logic, array)", functionsCategory)
			}
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, defs)
		}
		tw := newTable(out, "Name", "Category", "Syntax", "Description")
		for _, d := range defs {
			tw.AppendRow([]any{d.Name, d.Category, d.Syntax, d.Description})
		}
		tw.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(functionsCmd)
	functionsCmd.Flags().StringVar(&functionsCategory, "category", "", "only list one category (math, text, logic, array)")
}
