package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odysseus0/chatvault/internal/model"
	"github.com/odysseus0/chatvault/internal/outline"
	"github.com/odysseus0/chatvault/internal/transport"
)

func newGetCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Get conversations and stats",
	}

	cmd.AddCommand(newGetConversationsCmd(getApp, getOutput))
	cmd.AddCommand(newGetConversationCmd(getApp, getOutput))
	cmd.AddCommand(newGetStatsCmd(getApp, getOutput))
	return cmd
}

func newGetConversationsCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	var source string
	var limit int

	cmd := &cobra.Command{
		Use:   "conversations",
		Short: "List conversations, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp(getApp)
			if err != nil {
				return err
			}
			resp, err := app.service.Do(cmd.Context(), transport.Request{
				Type:   transport.GetAllConversations,
				Source: source,
				Limit:  limit,
			})
			if err != nil {
				return fmt.Errorf("list conversations: %w", err)
			}
			return writeSummaries(cmd, getOutput(), resp.Conversations)
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "Only conversations captured from this source")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of conversations")
	return cmd
}

func newGetConversationCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	var showOutline bool

	cmd := &cobra.Command{
		Use:   "conversation <id>",
		Short: "Show one conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp(getApp)
			if err != nil {
				return err
			}
			resp, err := app.service.Do(cmd.Context(), transport.Request{
				Type: transport.GetConversation,
				ID:   args[0],
			})
			if err != nil {
				return fmt.Errorf("get conversation: %w", err)
			}
			c := *resp.Conversation
			out := cmd.OutOrStdout()

			if showOutline {
				headings := conversationOutline(c)
				if getOutput() == OutputJSON {
					return writeJSON(out, OutlineResponse{ID: c.ID, Headings: headings})
				}
				writeOutline(out, headings)
				return nil
			}
			if getOutput() == OutputJSON {
				return writeJSON(out, c)
			}
			return writeTranscript(out, c)
		},
	}
	cmd.Flags().BoolVar(&showOutline, "outline", false, "Print the headings of the assistant messages")
	return cmd
}

func newGetStatsCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show archive statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp(getApp)
			if err != nil {
				return err
			}
			resp, err := app.service.Do(cmd.Context(), transport.Request{Type: transport.GetStats})
			if err != nil {
				return fmt.Errorf("get stats: %w", err)
			}
			if getOutput() == OutputJSON {
				return writeJSON(cmd.OutOrStdout(), resp.Stats)
			}
			writeStatsTable(cmd.OutOrStdout(), *resp.Stats)
			return nil
		},
	}
}

func conversationOutline(c Conversation) []OutlineHeading {
	headings := make([]OutlineHeading, 0)
	for i, m := range c.Messages {
		if m.Role != model.RoleAssistant {
			continue
		}
		for _, h := range outline.Build(m.Content) {
			headings = append(headings, OutlineHeading{Message: i, Heading: h})
		}
	}
	return headings
}

func writeSummaries(cmd *cobra.Command, format OutputFormat, list []ConversationSummary) error {
	if list == nil {
		list = []ConversationSummary{}
	}
	out := cmd.OutOrStdout()
	switch format {
	case OutputJSON:
		return writeJSON(out, list)
	case OutputWide:
		writeConversationsTable(out, list, true)
	default:
		writeConversationsTable(out, list, false)
	}
	return nil
}
