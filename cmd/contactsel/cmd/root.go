// Package cmd provides the CLI commands for contactsel.
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/contactsel/internal/core"
	"github.com/JonMunkholm/contactsel/internal/logging"
	"github.com/JonMunkholm/contactsel/internal/sheet"
)

// Version is set by main before Execute.
var Version = "dev"

// NewRootCmd builds the full command tree. Each call returns fresh commands
// so tests can run them independently.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "contactsel",
		Short: "Pick contacts from a spreadsheet and export them",
		Long: `contactsel reads a CSV or XLSX contact list and exports a chosen subset
as selected_contacts.xlsx with the columns Name, Phone 1 - Value and
Phone 2 - Value.

Use "list" to see contacts and their numbers, "export" to select
contacts by number or search text, or "pick" to choose them
interactively.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level, _ := cmd.Flags().GetString("log-level")
			format, _ := cmd.Flags().GetString("log-format")
			logging.SetupWriter(cmd.ErrOrStderr(), level, format)
		},
	}
	root.SetVersionTemplate("contactsel {{.Version}}\n")

	root.PersistentFlags().String("log-level", "warn", "Log level: debug, info, warn, error")
	root.PersistentFlags().String("log-format", "text", "Log format: text, json")
	root.PersistentFlags().Int64("max-file-size", sheet.DefaultMaxFileSize, "Largest input file accepted, in bytes")

	root.AddCommand(newListCmd(), newExportCmd(), newPickCmd())
	return root
}

// Execute runs the CLI and exits non-zero on error.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		msg := err.Error()
		if core.IsUserFacing(err) {
			msg = core.FormatUserError(err)
		}
		fmt.Fprintln(root.ErrOrStderr(), "Error:", msg)
		os.Exit(1)
	}
}

// loadContacts decodes path into a fresh state with every contact unselected.
func loadContacts(ctx context.Context, cmd *cobra.Command, path string) (core.State, *sheet.Codec, error) {
	maxSize, _ := cmd.Flags().GetInt64("max-file-size")
	codec := sheet.New(maxSize)

	rows, err := codec.DecodeFile(ctx, path)
	if err != nil {
		return core.State{}, nil, err
	}
	state := core.State{}.ImportAll(uuid.NewString(), filepath.Base(path), rows)
	return state, codec, nil
}
