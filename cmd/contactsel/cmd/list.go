package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/contactsel/internal/core"
	"github.com/JonMunkholm/contactsel/internal/schema"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

func newListCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "list FILE",
		Short: "Show the contacts in a spreadsheet",
		Long: `Show the contacts in a spreadsheet with the number used by
"export --id". Missing names print as Unknown and missing phones as N/A.

Examples:
  contactsel list contacts.csv
  contactsel list contacts.xlsx --query ada`,
		Args: cobra.ExactArgs(1),
		RunE: runList,
	}
	c.Flags().StringP("query", "q", "", "Only show contacts whose name or phone contains this text")
	return c
}

func runList(cmd *cobra.Command, args []string) error {
	state, _, err := loadContacts(cmd.Context(), cmd, args[0])
	if err != nil {
		return err
	}

	all := state.Unselected()
	if len(all) > 0 && !recognized(all) {
		names := make([]string, len(schema.ImportColumns))
		for i, col := range schema.ImportColumns {
			names[i] = strconv.Quote(col.Name)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "note: none of the columns %s were found\n", strings.Join(names, ", "))
	}

	query, _ := cmd.Flags().GetString("query")
	contacts := state.SetQuery(query).Visible()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, contactTable(contacts))
	fmt.Fprintf(out, "%d of %d contacts\n", len(contacts), state.Total())
	return nil
}

func contactTable(contacts []core.Contact) string {
	headers := append([]string{"#"}, schema.ExportHeader()...)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for _, c := range contacts {
		t.Row(strconv.Itoa(c.ID), c.DisplayName(), c.Phone1(), c.Phone2())
	}
	return t.String()
}

// recognized reports whether any contact has a value in a column the
// normalizer reads.
func recognized(contacts []core.Contact) bool {
	for _, c := range contacts {
		for _, col := range schema.ImportColumns {
			if c.Fields.Get(col.Name) != "" {
				return true
			}
		}
	}
	return false
}
