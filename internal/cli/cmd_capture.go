package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/odysseus0/chatvault/internal/capture"
	"github.com/odysseus0/chatvault/internal/fetch"
	"github.com/odysseus0/chatvault/internal/transport"
)

type page struct {
	source string
	url    string
	body   []byte
}

func newCaptureCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	var req capture.Request
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "capture <file|-|url>...",
		Short: "Capture saved or shared chat pages into the archive",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp(getApp)
			if err != nil {
				return err
			}
			if len(args) > 1 && (req.ID != "" || req.Title != "" || req.URL != "") {
				return fmt.Errorf("%w: --id, --title and --url apply to a single page", errInvalidArgs)
			}
			if !cmd.Flags().Changed("html") {
				req.IncludeHTML = app.cfg.IncludeHTML
			}

			ctx := cmd.Context()
			pages, err := loadPages(ctx, app.fetcher, cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			for _, p := range pages {
				if p.url != "" {
					app.logger.Debug("fetched page", "url", p.url, "bytes", len(p.body))
				}
			}

			out := cmd.OutOrStdout()
			convs := make([]Conversation, 0, len(pages))
			responses := make([]CaptureResponse, 0, len(pages))
			for _, p := range pages {
				r := req
				if r.URL == "" {
					r.URL = p.url
				}
				conv, err := app.capturer.Capture(ctx, bytes.NewReader(p.body), r)
				if err != nil {
					return fmt.Errorf("capture %s: %w", p.source, err)
				}
				convs = append(convs, conv)
				if dryRun {
					continue
				}
				if _, err := app.service.Do(ctx, transport.Request{
					Type:         transport.SaveConversation,
					Conversation: &conv,
				}); err != nil {
					return fmt.Errorf("save conversation from %s: %w", p.source, err)
				}
				responses = append(responses, CaptureResponse{
					ID:       conv.ID,
					Source:   conv.Source,
					Title:    conv.Title,
					Messages: len(conv.Messages),
					Saved:    true,
				})
			}

			if dryRun {
				return writeCaptured(out, getOutput(), convs)
			}
			if getOutput() == OutputJSON {
				if len(responses) == 1 {
					return writeJSON(out, responses[0])
				}
				return writeJSON(out, responses)
			}
			for _, resp := range responses {
				fmt.Fprintf(out, "Saved conversation %s (%d messages from %s): %s\n", resp.ID, resp.Messages, resp.Source, resp.Title)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Source, "source", "", "Profile to use (default: detect from the page)")
	cmd.Flags().StringVar(&req.Title, "title", "", "Conversation title")
	cmd.Flags().StringVar(&req.URL, "url", "", "Original conversation URL")
	cmd.Flags().StringVar(&req.ID, "id", "", "Conversation ID; an existing conversation is replaced")
	cmd.Flags().BoolVar(&req.IncludeHTML, "html", false, "Store the sanitized HTML of each message")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the captured conversation without saving it")
	return cmd
}

// loadPages reads every source in order. URLs are downloaded concurrently.
func loadPages(ctx context.Context, f *fetch.Fetcher, stdin io.Reader, sources []string) ([]page, error) {
	pages := make([]page, len(sources))
	var urls []string
	var urlIdx []int
	for i, src := range sources {
		pages[i].source = src
		if fetch.IsURL(src) {
			urls = append(urls, src)
			urlIdx = append(urlIdx, i)
			continue
		}
		body, err := readInput(stdin, src)
		if err != nil {
			return nil, err
		}
		pages[i].body = body
	}
	if len(urls) == 0 {
		return pages, nil
	}

	for j, res := range f.FetchAll(ctx, urls) {
		if res.Err != nil {
			return nil, fmt.Errorf("fetch %s: %w", res.URL, res.Err)
		}
		i := urlIdx[j]
		pages[i].url = res.URL
		pages[i].body = res.Body
	}
	return pages, nil
}

func writeCaptured(out io.Writer, format OutputFormat, convs []Conversation) error {
	if format == OutputJSON {
		if len(convs) == 1 {
			return writeJSON(out, convs[0])
		}
		return writeJSON(out, convs)
	}
	for i, c := range convs {
		if i > 0 {
			fmt.Fprintln(out)
		}
		if err := writeTranscript(out, c); err != nil {
			return err
		}
	}
	return nil
}
