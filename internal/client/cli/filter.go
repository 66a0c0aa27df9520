package cli

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/deepnote/internal/client/models"
)

// parseFilter reads list arguments: one of all, archived, pinned, voice or
// text, and key=value pairs color=..., q=....
func parseFilter(args []string) (models.Filter, error) {
	var f models.Filter
	for _, arg := range args {
		if k, v, ok := strings.Cut(arg, "="); ok {
			switch k {
			case "color":
				f.Color = v
			case "q":
				f.Query = v
			default:
				return models.Filter{}, fmt.Errorf("unknown filter %q", k)
			}
			continue
		}
		switch arg {
		case "all":
		case "archived":
			f.Archived = true
		case "pinned":
			pinned := true
			f.Pinned = &pinned
		case "voice":
			f.Type = models.NoteTypeVoice
		case "text":
			f.Type = models.NoteTypeText
		default:
			// a bare word searches
			f.Query = arg
		}
	}
	return f, nil
}

func formatNote(n *models.Note) string {
	var b strings.Builder
	if n.Pinned {
		b.WriteString("* ")
	} else {
		b.WriteString("  ")
	}
	fmt.Fprintf(&b, "%s  %s", n.ID, n.Title)
	if n.Color != "" {
		fmt.Fprintf(&b, " [%s]", n.Color)
	}
	if n.Type == models.NoteTypeVoice {
		b.WriteString(" (voice)")
	}
	if !n.UpdatedAt.IsZero() {
		fmt.Fprintf(&b, "  %s", n.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	return b.String()
}
