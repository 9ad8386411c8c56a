package cli

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newSchemaCommand() *cobra.Command {
	var formPath string
	cmd := &cobra.Command{
		Use:     "schema",
		Short:   "Print the JSON Schema of the value a form produces",
		Example: `  formdata schema --form form.yaml`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			form, err := loadForm(formPath, "uploads")
			if err != nil {
				return err
			}
			s, err := form.JSONSchema()
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), s)
		},
	}
	cmd.Flags().StringVarP(&formPath, "form", "f", "", "YAML form declaration")
	_ = cmd.MarkFlagRequired("form")
	return cmd
}
