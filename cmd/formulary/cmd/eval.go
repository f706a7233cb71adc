package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/solatis/formulary/internal/computed"
	"github.com/solatis/formulary/internal/core/db"
	"github.com/solatis/formulary/internal/formfile"
	"github.com/solatis/formulary/internal/formula"
	"github.com/solatis/formulary/internal/types"
)

var (
	evalDataFile string
	evalFormID   string
	evalFormula  string
)

var evalCmd = &cobra.Command{
	Use:   "eval [FORM_FILE]",
	Short: "Evaluate computed variables against form data",
	Long: `Evaluate every computed variable of a form definition against a data file.

The form comes from FORM_FILE (.json, .yaml or .toml) or, with --form-id, from
the database. With --formula a single formula is evaluated instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)
	evalCmd.Flags().StringVar(&evalDataFile, "data", "", "form data file (.json, .yaml or .toml)")
	evalCmd.Flags().StringVar(&evalFormID, "form-id", "", "evaluate a stored form")
	evalCmd.Flags().StringVar(&evalFormula, "formula", "", "evaluate a single formula")
}

func runEval(cmd *cobra.Command, args []string) error {
	data := map[string]any{}
	if evalDataFile != "" {
		d, err := formfile.LoadData(evalDataFile)
		if err != nil {
			return err
		}
		data = d
	}

	out := cmd.OutOrStdout()
	if evalFormula != "" {
		value := formula.Evaluate(evalFormula, formula.NewContext(data))
		if jsonOutput {
			return printJSON(out, map[string]any{"value": value})
		}
		fmt.Fprintln(out, displayValue(value))
		return nil
	}

	form, err := resolveForm(cmd, args, evalFormID)
	if err != nil {
		return err
	}

	result := computed.NewEngine(logger).EvaluateForm(form, data)
	if jsonOutput {
		return printJSON(out, result)
	}

	failed := make(map[string]bool, len(result.Failed))
	for _, id := range result.Failed {
		failed[id] = true
	}
	names := make(map[string]string, len(form.Variables))
	for _, v := range form.Variables {
		names[v.ID] = v.Name
	}

	tw := newTable(out, "Variable", "Name", "Value")
	for _, id := range result.Order {
		value := displayValue(result.Values[id])
		if failed[id] {
			value = blankCell + " circular dependency"
		}
		tw.AppendRow([]any{id, names[id], value})
	}
	tw.Render()
	return nil
}

// resolveForm loads a form from the single file argument or, when formID
// is set, from the database.
func resolveForm(cmd *cobra.Command, args []string, formID string) (*types.FormDefinition, error) {
	switch {
	case formID != "" && len(args) > 0:
		return nil, fmt.Errorf("pass either a form file or --form-id, not both")
	case formID != "":
		store, closeDB, err := openFormStore()
		if err != nil {
			return nil, err
		}
		defer closeDB()

		id, err := types.ParseFormID(formID)
		if err != nil {
			return nil, fmt.Errorf("--form-id %q: %w", formID, err)
		}
		stored, err := store.Get(cmd.Context(), id)
		if err != nil {
			return nil, err
		}
		return &stored.FormDefinition, nil
	case len(args) == 1:
		return formfile.Load(args[0])
	default:
		return nil, fmt.Errorf("a form file or --form-id is required")
	}
}

// openFormStore opens the configured database for form commands.
func openFormStore() (*db.FormStore, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	store, err := db.NewFormStore(database)
	if err != nil {
		database.Close()
		return nil, nil, err
	}
	return store, func() { database.Close() }, nil
}
