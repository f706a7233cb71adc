package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/solatis/formulary/internal/computed"
	"github.com/solatis/formulary/internal/formula"
)

var (
	validateFormID      string
	validateFormula     string
	validateFields      []string
	validateVariables   []string
	validateOwnVariable string
)

var validateCmd = &cobra.Command{
	Use:   "validate [FORM_FILE]",
	Short: "Validate computed variables or a single formula",
	Long: `Validate the computed variables of a form definition: ids, names, formulas,
result types and dependency cycles. Exits non-zero when problems are found.

With --formula only that formula is checked, against the ids given with
--field and --variable.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVar(&validateFormID, "form-id", "", "validate a stored form")
	validateCmd.Flags().StringVar(&validateFormula, "formula", "", "validate a single formula")
	validateCmd.Flags().StringArrayVar(&validateFields, "field", nil, "field id the formula may reference (repeatable)")
	validateCmd.Flags().StringArrayVar(&validateVariables, "variable", nil, "variable id the formula may reference (repeatable)")
	validateCmd.Flags().StringVar(&validateOwnVariable, "owner", "", "id of the variable that owns the formula")
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if validateFormula != "" {
		result := formula.Validate(validateFormula, formula.ValidateOptions{
			FieldIDs:    validateFields,
			VariableIDs: validateVariables,
			VariableID:  validateOwnVariable,
		})
		if jsonOutput {
			if err := printJSON(out, result); err != nil {
				return err
			}
		} else if result.Valid {
			fmt.Fprintln(out, "formula is valid")
		} else {
			tw := newTable(out, "Position", "Message")
			for _, e := range result.Errors {
				tw.AppendRow([]any{positionCell(e.Position), e.Message})
			}
			tw.Render()
		}
		if !result.Valid {
			return fmt.Errorf("%d validation error(s)", len(result.Errors))
		}
		return nil
	}

	form, err := resolveForm(cmd, args, validateFormID)
	if err != nil {
		return err
	}

	errs := computed.ValidateVariables(form.Variables, form.Fields)
	if jsonOutput {
		if errs == nil {
			errs = []computed.VariableError{}
		}
		if err := printJSON(out, map[string]any{"valid": len(errs) == 0, "errors": errs}); err != nil {
			return err
		}
	} else if len(errs) == 0 {
		fmt.Fprintf(out, "%d computed variable(s) valid\n", len(form.Variables))
	} else {
		tw := newTable(out, "Index", "Variable", "Field", "Position", "Message")
		for _, e := range errs {
			tw.AppendRow([]any{e.Index, e.VariableID, e.Field, positionCell(e.Position), e.Message})
		}
		tw.Render()
	}

	if len(errs) > 0 {
		return fmt.Errorf("%d validation error(s)", len(errs))
	}
	return nil
}

func positionCell(pos int) string {
	if pos == 0 {
		return ""
	}
	return fmt.Sprint(pos)
}
