package formatter

import (
	"encoding/csv"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/ytcat/internal/models"
	"github.com/desertthunder/ytcat/internal/shared"
	"github.com/desertthunder/ytcat/internal/tasks"
	th "github.com/desertthunder/ytcat/internal/testing"
)

func strPtr(s string) *string { return &s }

func sampleExport() *Export {
	gaming := &models.Category{ID: 1, UserID: 7, Name: "Gaming"}
	music := &models.Category{ID: 2, UserID: 7, Name: "Music"}
	at := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

	sub := func(id, title string, categoryID *int64, name *string, thumb *string) models.CategorizedSubscription {
		return models.CategorizedSubscription{
			Subscription: models.Subscription{
				UserID:           7,
				ChannelID:        id,
				ChannelTitle:     title,
				ChannelThumbnail: thumb,
				CategoryID:       categoryID,
				CreatedAt:        at,
			},
			CategoryName: name,
		}
	}

	return &Export{
		Owner:       "viewer@example.com",
		GeneratedAt: at,
		Groups: []tasks.CategoryGroup{
			{Category: gaming, Subscriptions: []models.CategorizedSubscription{
				sub("Z", "Zed Plays", &gaming.ID, strPtr("Gaming"), strPtr("https://i.ytimg.com/z.jpg")),
				sub("X", "[X] Speedruns", &gaming.ID, strPtr("Gaming"), nil),
			}},
			{Category: music},
			{Subscriptions: []models.CategorizedSubscription{
				sub("Y", "Loose Channel", nil, nil, nil),
			}},
		},
	}
}

func TestExporters(t *testing.T) {
	export := sampleExport()

	t.Run("Count", func(t *testing.T) {
		if got := export.Count(); got != 3 {
			t.Errorf("expected 3 records, got %d", got)
		}
		if got := len(export.Subscriptions()); got != 3 {
			t.Errorf("expected 3 flattened records, got %d", got)
		}
	})

	t.Run("ToCSV", func(t *testing.T) {
		data, err := ToCSV(export)
		if err != nil {
			t.Fatalf("ToCSV failed: %v", err)
		}

		rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		if err != nil {
			t.Fatalf("output is not valid CSV: %v", err)
		}
		if len(rows) != 4 {
			t.Fatalf("expected header + 3 rows, got %d", len(rows))
		}

		if strings.Join(rows[0], ",") != "Channel ID,Title,Category,Thumbnail,Categorized At" {
			t.Errorf("unexpected headers: %v", rows[0])
		}
		if rows[1][0] != "Z" || rows[1][2] != "Gaming" || rows[1][3] != "https://i.ytimg.com/z.jpg" {
			t.Errorf("unexpected first row: %v", rows[1])
		}
		if rows[1][4] != "2025-03-04T05:06:07Z" {
			t.Errorf("unexpected timestamp: %s", rows[1][4])
		}
		if rows[3][0] != "Y" || rows[3][2] != "" {
			t.Errorf("uncategorized row should have an empty category, got %v", rows[3])
		}
	})

	t.Run("ToMarkdown", func(t *testing.T) {
		data, err := ToMarkdown(export)
		if err != nil {
			t.Fatalf("ToMarkdown failed: %v", err)
		}

		output := string(data)

		for _, want := range []string{
			"# Subscriptions of viewer@example.com",
			"**Channels**: 3",
			"## Gaming (2)",
			"- [Zed Plays](https://www.youtube.com/channel/Z)",
			`- [\[X\] Speedruns](https://www.youtube.com/channel/X)`,
			"## Music (0)",
			"_No channels yet._",
			"## Uncategorized (1)",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got:\n%s", want, output)
			}
		}

		if strings.Index(output, "## Gaming") > strings.Index(output, "## Uncategorized") {
			t.Errorf("uncategorized group should come last")
		}
	})

	t.Run("ToMarkdown without owner", func(t *testing.T) {
		data, err := ToMarkdown(&Export{})
		if err != nil {
			t.Fatalf("ToMarkdown failed: %v", err)
		}
		if !strings.HasPrefix(string(data), "# Subscriptions\n") {
			t.Errorf("unexpected title: %s", data)
		}
	})

	t.Run("ToText", func(t *testing.T) {
		data, err := ToText(export)
		if err != nil {
			t.Fatalf("ToText failed: %v", err)
		}

		output := string(data)

		for _, want := range []string{
			"User: viewer@example.com",
			"Channels: 3",
			"Gaming (2)",
			"  1. Zed Plays [Z]",
			"  2. [X] Speedruns [X]",
			"Uncategorized (1)",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Text missing %q", want)
			}
		}
	})

	t.Run("ToJSON", func(t *testing.T) {
		data, err := ToJSON(export)
		if err != nil {
			t.Fatalf("ToJSON failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{`"owner": "viewer@example.com"`, `"channel_id": "Z"`, `"name": "Music"`} {
			if !strings.Contains(output, want) {
				t.Errorf("JSON missing %s", want)
			}
		}
	})
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{"csv", FormatCSV},
		{"CSV", FormatCSV},
		{"md", FormatMarkdown},
		{"markdown", FormatMarkdown},
		{"txt", FormatText},
		{"", FormatText},
		{" json ", FormatJSON},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if err != nil {
				t.Fatalf("ParseFormat(%q) failed: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}

	t.Run("unknown", func(t *testing.T) {
		if _, err := ParseFormat("xml"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestWriteExport(t *testing.T) {
	export := sampleExport()

	t.Run("WithDefaultPath", func(t *testing.T) {
		tempDir := t.TempDir()
		originalDir := th.MustGetwd(t)
		th.MustChdir(t, tempDir)
		defer th.MustChdir(t, originalDir)

		path, err := WriteExport(export, FormatMarkdown, "")
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if path != "subscriptions.md" {
			t.Errorf("expected subscriptions.md, got %s", path)
		}

		th.AssertFileExists(t, path)
		if !strings.Contains(th.MustReadFile(t, path), "## Gaming (2)") {
			t.Errorf("export file missing Gaming group")
		}
	})

	t.Run("WithCustomPath", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.csv")

		got, err := WriteExport(export, FormatCSV, path)
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if got != path {
			t.Errorf("expected %s, got %s", path, got)
		}
		if !strings.HasPrefix(th.MustReadFile(t, path), "Channel ID,Title") {
			t.Errorf("CSV file missing headers")
		}
	})

	t.Run("UnwritablePath", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing", "out.txt")
		if _, err := WriteExport(export, FormatText, path); err == nil {
			t.Error("expected an error writing into a missing directory")
		}
	})

	t.Run("UnknownFormat", func(t *testing.T) {
		if _, err := Render(export, Format("xml")); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}
