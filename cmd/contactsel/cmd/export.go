package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/contactsel/internal/schema"
)

func newExportCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "export FILE",
		Short: "Export chosen contacts without the picker",
		Long: `Select contacts by number (as shown by "list") or by search text and
write them to an XLSX workbook. Contacts chosen with --id are exported
in the order given.

Examples:
  contactsel export contacts.csv --id 4 --id 1
  contactsel export contacts.xlsx --match smith -o smiths.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: runExport,
	}
	c.Flags().IntSlice("id", nil, "Contact number to select (repeatable)")
	c.Flags().String("match", "", "Select every contact whose name or phone contains this text")
	c.Flags().StringP("output", "o", schema.ExportFileName, "Output workbook path")
	c.MarkFlagsOneRequired("id", "match")
	c.MarkFlagsMutuallyExclusive("id", "match")
	return c
}

func runExport(cmd *cobra.Command, args []string) error {
	state, codec, err := loadContacts(cmd.Context(), cmd, args[0])
	if err != nil {
		return err
	}

	ids, _ := cmd.Flags().GetIntSlice("id")
	match, _ := cmd.Flags().GetString("match")
	output, _ := cmd.Flags().GetString("output")

	if cmd.Flags().Changed("match") {
		ids = nil
		for _, c := range state.SetQuery(match).Visible() {
			ids = append(ids, c.ID)
		}
	}

	for _, id := range ids {
		state, err = state.Select(state.ImportID(), id)
		if err != nil {
			return fmt.Errorf("contact %d: %w", id, err)
		}
	}

	rows, err := state.Export()
	if err != nil {
		return err
	}
	data, err := codec.Encode(rows)
	if err != nil {
		return fmt.Errorf("encode workbook: %w", err)
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}

	slog.Info("contacts exported", "source", state.Source(), "count", len(rows), "output", output)
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d of %d contacts to %s\n", len(rows), state.Total(), output)
	return nil
}
