package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/odysseus0/chatvault/internal/transport"
)

func newSearchCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	var source string
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search over titles and messages",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp(getApp)
			if err != nil {
				return err
			}
			resp, err := app.service.Do(cmd.Context(), transport.Request{
				Type:   transport.SearchConversations,
				Query:  strings.Join(args, " "),
				Source: source,
				Limit:  limit,
			})
			if err != nil {
				return fmt.Errorf("search conversations: %w", err)
			}
			return writeSummaries(cmd, getOutput(), resp.Conversations)
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "Only conversations captured from this source")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of results")
	return cmd
}
