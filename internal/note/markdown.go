package note

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// RenderMarkdown converts a note to its Markdown protocol form: attendees,
// goals, discussion notes, action items, meeting details, summary, and the
// raw transcript. Goals and action items are filled in by hand after the
// meeting, so they render as placeholders.
func RenderMarkdown(n *Note) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", n.Title)
	b.WriteString("---\n## Attendees\n")
	b.WriteString(strings.Join(n.Participants, ", "))
	b.WriteString("\n\n---\n## Goals\n1. *No goals set*\n")
	b.WriteString("\n## Discussion Notes\n")
	if len(n.Content) == 0 {
		b.WriteString("- *No notes taken*\n")
	} else {
		for _, c := range n.Content {
			fmt.Fprintf(&b, "- %s\n", c)
		}
	}
	b.WriteString("\n## Action Items\n- [ ] *No action items set*\n")

	b.WriteString("\n---\n## Meeting Details\n")
	fmt.Fprintf(&b, "- Date: %s\n", n.StartTime.Format("2006-01-02 15:04"))
	if d := n.Duration(); d > 0 {
		fmt.Fprintf(&b, "- Duration: %s\n", d)
	} else {
		b.WriteString("- Duration: Ongoing\n")
	}
	fmt.Fprintf(&b, "- Tags: %s\n", strings.Join(n.Tags, ", "))

	b.WriteString("\n## Summary\n")
	if n.Summary == "" {
		b.WriteString("*No summary available*\n")
	} else {
		b.WriteString(n.Summary)
		b.WriteString("\n")
	}

	b.WriteString("\n## Transcript\n```\n")
	if n.RawText == "" {
		b.WriteString("*No transcript available*")
	} else {
		b.WriteString(n.RawText)
	}
	b.WriteString("\n```\n")

	if len(n.Metadata) > 0 {
		b.WriteString("\n## Metadata\n")
		keys := make([]string, 0, len(n.Metadata))
		for k := range n.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s: %s\n", k, n.Metadata[k])
		}
	}

	return b.String()
}

// SaveMarkdown writes the note's Markdown form next to its JSON file, or
// into dir when the note was never saved.
func SaveMarkdown(n *Note, dir string) error {
	var path string
	if n.FilePath != "" {
		path = strings.TrimSuffix(n.FilePath, ".json") + ".md"
	} else {
		path = filepath.Join(dir, strings.TrimSuffix(n.Filename(), ".json")+".md")
	}

	if err := os.WriteFile(path, []byte(RenderMarkdown(n)), 0o644); err != nil {
		return fmt.Errorf("note: write markdown %s: %w", path, err)
	}
	return nil
}
