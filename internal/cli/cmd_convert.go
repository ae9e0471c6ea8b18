package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/odysseus0/chatvault/internal/convert"
)

func newExtractCmd() *cobra.Command {
	var sanitized bool

	cmd := &cobra.Command{
		Use:   "extract <file|->",
		Short: "Convert an HTML fragment to markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if sanitized {
				return writeLine(out, convert.Sanitize(string(raw)))
			}
			md, err := convert.ExtractHTML(string(raw))
			if err != nil {
				return fmt.Errorf("extract: %w", err)
			}
			return writeLine(out, md)
		},
	}
	cmd.Flags().BoolVar(&sanitized, "sanitize", false, "Print the sanitized HTML instead of markdown")
	return cmd
}

func newRenderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "render <file|->",
		Short: "Render markdown to HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			return writeLine(cmd.OutOrStdout(), convert.Render(string(raw)))
		},
	}
}

func writeLine(out io.Writer, s string) error {
	if s == "" {
		return nil
	}
	_, err := fmt.Fprintln(out, s)
	return err
}
