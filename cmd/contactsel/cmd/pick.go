package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/contactsel/internal/application"
	"github.com/JonMunkholm/contactsel/internal/schema"
)

func newPickCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "pick FILE",
		Short: "Choose contacts interactively",
		Long: `Open the terminal picker. Space moves the highlighted contact between
the Unselected and Selected lists, / searches, tab switches lists, x
exports and q quits.`,
		Args: cobra.ExactArgs(1),
		RunE: runPick,
	}
	c.Flags().StringP("output", "o", schema.ExportFileName, "Output workbook path")
	return c
}

func runPick(cmd *cobra.Command, args []string) error {
	state, codec, err := loadContacts(cmd.Context(), cmd, args[0])
	if err != nil {
		return err
	}
	output, _ := cmd.Flags().GetString("output")

	final, err := application.Run(state, codec, output)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d of %d contacts selected\n", final.SelectedCount(), final.Total())
	return nil
}
