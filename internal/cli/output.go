package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/odysseus0/chatvault/internal/model"
)

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeConversationsTable(out io.Writer, list []ConversationSummary, wide bool) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	if wide {
		fmt.Fprintln(tw, "ID\tSOURCE\tTITLE\tMESSAGES\tSAVED\tUPDATED\tURL\tPREVIEW")
		for _, c := range list {
			fmt.Fprintf(
				tw,
				"%s\t%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
				c.ID,
				c.Source,
				compactText(fallback(c.Title, "(untitled)"), 56),
				c.MessageCount,
				formatDate(c.SavedAt),
				humanAgo(c.UpdatedAt),
				compactText(c.URL, 48),
				compactText(c.Preview, 90),
			)
		}
	} else {
		fmt.Fprintln(tw, "ID\tSOURCE\tTITLE\tMESSAGES\tUPDATED")
		for _, c := range list {
			fmt.Fprintf(
				tw,
				"%s\t%s\t%s\t%d\t%s\n",
				c.ID,
				c.Source,
				compactText(fallback(c.Title, "(untitled)"), 56),
				c.MessageCount,
				humanAgo(c.UpdatedAt),
			)
		}
	}
	_ = tw.Flush()
}

func writeStatsTable(out io.Writer, st Stats) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "METRIC\tVALUE")
	fmt.Fprintf(tw, "conversations\t%d\n", st.Conversations)
	fmt.Fprintf(tw, "messages\t%d\n", st.Messages)
	sources := make([]string, 0, len(st.BySource))
	for s := range st.BySource {
		sources = append(sources, s)
	}
	sort.Strings(sources)
	for _, s := range sources {
		fmt.Fprintf(tw, "source:%s\t%d\n", s, st.BySource[s])
	}
	_ = tw.Flush()
}

func writeOutline(out io.Writer, headings []OutlineHeading) {
	for _, h := range headings {
		indent := strings.Repeat("  ", max(h.Level-1, 0))
		fmt.Fprintf(out, "%s%s  [message %d]\n", indent, h.Text, h.Message)
	}
}

// writeTranscript prints c as a markdown document: a title, a meta line and
// one section per message.
func writeTranscript(out io.Writer, c Conversation) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", fallback(c.Title, "(untitled)"))
	meta := []string{c.Source}
	if c.URL != "" {
		meta = append(meta, c.URL)
	}
	if !c.SavedAt.IsZero() {
		meta = append(meta, "saved "+formatDate(c.SavedAt))
	}
	fmt.Fprintf(&b, "_%s_\n", strings.Join(meta, " · "))
	for _, m := range c.Messages {
		fmt.Fprintf(&b, "\n## %s\n\n%s\n", roleHeading(m.Role), strings.TrimRight(m.Content, "\n"))
	}
	_, err := io.WriteString(out, b.String())
	return err
}

func roleHeading(r model.Role) string {
	switch r {
	case model.RoleUser:
		return "User"
	case model.RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}
