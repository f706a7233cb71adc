package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/solatis/formulary/internal/computed"
	"github.com/solatis/formulary/internal/formfile"
	"github.com/solatis/formulary/internal/types"
)

var (
	importSkipValidation bool
	showFormat           string
)

var formsCmd = &cobra.Command{
	Use:   "forms",
	Short: "Manage stored form definitions",
}

var formsImportCmd = &cobra.Command{
	Use:   "import FILE...",
	Short: "Store form definitions from files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeDB, err := openFormStore()
		if err != nil {
			return err
		}
		defer closeDB()

		for _, path := range args {
			form, err := formfile.Load(path)
			if err != nil {
				return err
			}
			if !importSkipValidation {
				if errs := computed.ValidateVariables(form.Variables, form.Fields); len(errs) > 0 {
					for _, e := range errs {
						logger.Error("invalid computed variable", "file", path, "error", e.Error())
					}
					return fmt.Errorf("%s: %d validation error(s)", path, len(errs))
				}
			}

			saved, err := store.Save(cmd.Context(), *form)
			if err != nil {
				return err
			}
			logger.Info("imported form", "file", path, "form_id", saved.ID, "variables", len(saved.Variables))
			fmt.Fprintln(cmd.OutOrStdout(), saved.ID)
		}
		return nil
	},
}

var formsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored forms",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeDB, err := openFormStore()
		if err != nil {
			return err
		}
		defer closeDB()

		forms, err := store.List(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, forms)
		}

		tw := newTable(out, "ID", "Name", "Fields", "Variables", "Updated")
		for _, f := range forms {
			tw.AppendRow([]any{f.ID, f.Name, len(f.Fields), len(f.Variables), f.UpdatedAt.Format(time.RFC3339)})
		}
		tw.Render()
		return nil
	},
}

var formsShowCmd = &cobra.Command{
	Use:   "show FORM_ID",
	Short: "Print a stored form definition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := formfile.ParseFormat(showFormat)
		if err != nil {
			return err
		}
		id, err := types.ParseFormID(args[0])
		if err != nil {
			return fmt.Errorf("%q: %w", args[0], err)
		}

		store, closeDB, err := openFormStore()
		if err != nil {
			return err
		}
		defer closeDB()

		stored, err := store.Get(cmd.Context(), id)
		if err != nil {
			return err
		}
		return formfile.Encode(cmd.OutOrStdout(), &stored.FormDefinition, format)
	},
}

var formsDeleteCmd = &cobra.Command{
	Use:   "delete FORM_ID",
	Short: "Delete a stored form definition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := types.ParseFormID(args[0])
		if err != nil {
			return fmt.Errorf("%q: %w", args[0], err)
		}

		store, closeDB, err := openFormStore()
		if err != nil {
			return err
		}
		defer closeDB()

		if err := store.Delete(cmd.Context(), id); err != nil {
			return err
		}
		logger.Info("deleted form", "form_id", id)
		return nil
	},
}

func init() {
	formsImportCmd.Flags().BoolVar(&importSkipValidation, "skip-validation", false, "store forms even when computed variables are invalid")
	formsShowCmd.Flags().StringVar(&showFormat, "format", "yaml", "output format (json, yaml, toml)")
	formsCmd.AddCommand(formsImportCmd, formsListCmd, formsShowCmd, formsDeleteCmd)
	rootCmd.AddCommand(formsCmd)
}
