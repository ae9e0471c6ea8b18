package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odysseus0/chatvault/internal/transport"
)

func newRemoveCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove resources",
	}
	cmd.AddCommand(newRemoveConversationCmd(getApp, getOutput))
	return cmd
}

func newRemoveConversationCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	return &cobra.Command{
		Use:   "conversation <id>",
		Short: "Remove a conversation by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp(getApp)
			if err != nil {
				return err
			}
			if _, err := app.service.Do(cmd.Context(), transport.Request{
				Type: transport.DeleteConversation,
				ID:   args[0],
			}); err != nil {
				return fmt.Errorf("remove conversation: %w", err)
			}
			if getOutput() == OutputJSON {
				return writeJSON(cmd.OutOrStdout(), RemoveConversationResponse{RemovedConversationID: args[0]})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed conversation %s\n", args[0])
			return nil
		},
	}
}
