// package formatter renders a user's categorized subscriptions as CSV, Markdown, plain text or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/desertthunder/ytcat/internal/models"
	"github.com/desertthunder/ytcat/internal/shared"
	"github.com/desertthunder/ytcat/internal/tasks"
)

// UncategorizedLabel names the group of records filed without a category.
const UncategorizedLabel = "Uncategorized"

// Format is an export output format.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
	FormatJSON     Format = "json"
)

// ParseFormat maps a user supplied format name (or common file extension) to a [Format].
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "text", "txt", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, s)
	}
}

// Extension is the file extension used for the format's default filename.
func (f Format) Extension() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatMarkdown:
		return "md"
	case FormatJSON:
		return "json"
	default:
		return "txt"
	}
}

// Export is a user's categorized subscriptions grouped by category.
type Export struct {
	Owner       string                `json:"owner"`
	GeneratedAt time.Time             `json:"generated_at"`
	Groups      []tasks.CategoryGroup `json:"groups"`
}

// NewExport creates an [Export] stamped with the current UTC time.
func NewExport(owner string, groups []tasks.CategoryGroup) *Export {
	return &Export{Owner: owner, GeneratedAt: time.Now().UTC(), Groups: groups}
}

// Count is the number of records across all groups.
func (e *Export) Count() int {
	n := 0
	for _, g := range e.Groups {
		n += len(g.Subscriptions)
	}
	return n
}

func groupName(g tasks.CategoryGroup) string {
	if g.Category == nil {
		return UncategorizedLabel
	}
	return g.Category.Name
}

// ChannelURL is the public YouTube page of a channel.
func ChannelURL(channelID string) string {
	return "https://www.youtube.com/channel/" + channelID
}

// ToCSV renders one row per record with columns: Channel ID, Title, Category, Thumbnail, Categorized At
func ToCSV(export *Export) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Channel ID", "Title", "Category", "Thumbnail", "Categorized At"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, g := range export.Groups {
		for _, s := range g.Subscriptions {
			record := []string{
				s.ChannelID,
				s.ChannelTitle,
				s.Category(""),
				s.Thumbnail(),
				s.CreatedAt.UTC().Format(time.RFC3339),
			}
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ToMarkdown renders a heading per category with a linked channel list under each.
//
// Empty categories are listed with a placeholder line so the full category set is visible.
func ToMarkdown(export *Export) ([]byte, error) {
	var buf bytes.Buffer

	title := "Subscriptions"
	if export.Owner != "" {
		title = fmt.Sprintf("Subscriptions of %s", export.Owner)
	}
	fmt.Fprintf(&buf, "# %s\n\n", title)
	fmt.Fprintf(&buf, "**Channels**: %d\n", export.Count())
	fmt.Fprintf(&buf, "**Generated**: %s\n\n", export.GeneratedAt.UTC().Format(time.RFC3339))

	for _, g := range export.Groups {
		fmt.Fprintf(&buf, "## %s (%d)\n\n", groupName(g), len(g.Subscriptions))
		if len(g.Subscriptions) == 0 {
			buf.WriteString("_No channels yet._\n\n")
			continue
		}
		for _, s := range g.Subscriptions {
			fmt.Fprintf(&buf, "- [%s](%s)\n", markdownEscape(s.ChannelTitle), ChannelURL(s.ChannelID))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ToText renders the same grouping as [ToMarkdown] without markup.
func ToText(export *Export) ([]byte, error) {
	var buf bytes.Buffer

	if export.Owner != "" {
		fmt.Fprintf(&buf, "User: %s\n", export.Owner)
	}
	fmt.Fprintf(&buf, "Channels: %d\n\n", export.Count())

	for _, g := range export.Groups {
		fmt.Fprintf(&buf, "%s (%d)\n", groupName(g), len(g.Subscriptions))
		for i, s := range g.Subscriptions {
			fmt.Fprintf(&buf, "  %d. %s [%s]\n", i+1, s.ChannelTitle, s.ChannelID)
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ToJSON renders the export as indented JSON.
func ToJSON(export *Export) ([]byte, error) {
	return shared.MarshalJSON(export, true)
}

// Render dispatches to the renderer for format.
func Render(export *Export, format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ToCSV(export)
	case FormatMarkdown:
		return ToMarkdown(export)
	case FormatJSON:
		return ToJSON(export)
	case FormatText:
		return ToText(export)
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, format)
	}
}

// WriteExport renders export and writes it to path.
//
// Defaults to subscriptions.{ext} in the working directory.
func WriteExport(export *Export, format Format, path string) (string, error) {
	if path == "" {
		path = "subscriptions." + format.Extension()
	}

	data, err := Render(export, format)
	if err != nil {
		return "", fmt.Errorf("failed to render %s export: %w", format, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

var markdownReplacer = strings.NewReplacer("[", `\[`, "]", `\]`)

func markdownEscape(s string) string {
	return markdownReplacer.Replace(s)
}

// Subscriptions flattens the export back to its records, in group order.
func (e *Export) Subscriptions() []models.CategorizedSubscription {
	out := make([]models.CategorizedSubscription, 0, e.Count())
	for _, g := range e.Groups {
		out = append(out, g.Subscriptions...)
	}
	return out
}
