package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/odysseus0/chatvault/internal/transport"
)

const (
	exportMarkdown = "markdown"
	exportHTML     = "html"
	exportJSON     = "json"
	exportYAML     = "yaml"
)

func newImportCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Import conversations from a JSON or YAML export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp(getApp)
			if err != nil {
				return err
			}
			data, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			convs, err := decodeConversations(data, isYAMLPath(args[0]))
			if err != nil {
				return fmt.Errorf("%w: %s: %v", errInvalidArgs, args[0], err)
			}

			rep := ImportReport{IDs: make([]string, 0, len(convs))}
			for i := range convs {
				resp, err := app.service.Do(cmd.Context(), transport.Request{
					Type:         transport.SaveConversation,
					Conversation: &convs[i],
				})
				if err != nil {
					return fmt.Errorf("import conversation %d: %w", i+1, err)
				}
				rep.Imported++
				rep.IDs = append(rep.IDs, resp.ID)
			}

			out := cmd.OutOrStdout()
			switch getOutput() {
			case OutputJSON:
				return writeJSON(out, rep)
			case OutputWide:
				for _, id := range rep.IDs {
					fmt.Fprintln(out, id)
				}
			}
			fmt.Fprintf(out, "Imported %d conversation(s)\n", rep.Imported)
			return nil
		},
	}
}

func newExportCmd(getApp func() *App) *cobra.Command {
	var format string
	var outPath string

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export a conversation as markdown, html, json or yaml",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp(getApp)
			if err != nil {
				return err
			}
			format = strings.ToLower(strings.TrimSpace(format))
			switch format {
			case exportMarkdown, exportHTML, exportJSON, exportYAML:
			default:
				return fmt.Errorf("%w: invalid export format %q (expected markdown|html|json|yaml)", errInvalidArgs, format)
			}

			resp, err := app.service.Do(cmd.Context(), transport.Request{
				Type: transport.GetConversation,
				ID:   args[0],
			})
			if err != nil {
				return fmt.Errorf("export conversation: %w", err)
			}

			var buf bytes.Buffer
			if err := encodeConversation(&buf, *resp.Conversation, format); err != nil {
				return fmt.Errorf("encode %s: %w", format, err)
			}
			if outPath == "" || outPath == "-" {
				_, err = buf.WriteTo(cmd.OutOrStdout())
				return err
			}
			if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", outPath, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %s to %s\n", args[0], outPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", exportMarkdown, "Export format: markdown, html, json, yaml")
	cmd.Flags().StringVar(&outPath, "out", "", "Write to this file instead of stdout")
	return cmd
}

func encodeConversation(w io.Writer, c Conversation, format string) error {
	switch format {
	case exportHTML:
		return transport.WriteConversationPage(w, c)
	case exportJSON:
		return writeJSON(w, c)
	case exportYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(c); err != nil {
			return err
		}
		return enc.Close()
	default:
		return writeTranscript(w, c)
	}
}

// decodeConversations accepts either a list of conversations or a single one.
func decodeConversations(data []byte, asYAML bool) ([]Conversation, error) {
	if asYAML {
		var list []Conversation
		if err := yaml.Unmarshal(data, &list); err == nil {
			return list, nil
		}
		var one Conversation
		if err := yaml.Unmarshal(data, &one); err != nil {
			return nil, err
		}
		return []Conversation{one}, nil
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty input")
	}
	if trimmed[0] == '[' {
		var list []Conversation
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, err
		}
		return list, nil
	}
	var one Conversation
	if err := json.Unmarshal(trimmed, &one); err != nil {
		return nil, err
	}
	return []Conversation{one}, nil
}

func isYAMLPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}
