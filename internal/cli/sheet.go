package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"exceltoquiz/internal/app"
	"exceltoquiz/internal/sheet"
	"github.com/spf13/cobra"
)

// NewParseCmd prints what an upload of file would produce.
func NewParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a spreadsheet and print the questions it yields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			upload, err := app.NewAuthorService(nil, nil).Preview(f, filepath.Base(args[0]))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), upload)
		},
	}
}

// NewTemplateCmd writes the demo workbook.
func NewTemplateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "template [out]",
		Short: "Write the demo quiz template workbook",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := sheet.TemplateFileName
			if len(args) == 1 {
				out = args[0]
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := sheet.WriteTemplate(f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return nil
		},
	}
}
