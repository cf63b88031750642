package formatter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/desertthunder/ytcat/internal/shared"
)

// ImportRow is one line of a categorization CSV.
type ImportRow struct {
	Line      int
	ChannelID string
	Title     string
	Category  string
	Thumbnail string
}

// ParseCSV reads rows in the layout written by [ToCSV]. Columns are matched by header name,
// so extra columns and a different order are accepted; "Channel ID" is the only required one.
//
// Blank lines are skipped. A row with an empty channel id is an error.
func ParseCSV(r io.Reader) ([]ImportRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: CSV is empty", shared.ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := columns["channel id"]; !ok {
		return nil, fmt.Errorf("%w: CSV header has no \"Channel ID\" column", shared.ErrInvalidInput)
	}

	field := func(record []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	rows := []ImportRow{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}

		line, _ := reader.FieldPos(0)
		row := ImportRow{
			Line:      line,
			ChannelID: field(record, "channel id"),
			Title:     field(record, "title"),
			Category:  field(record, "category"),
			Thumbnail: field(record, "thumbnail"),
		}
		if row.ChannelID == "" {
			return nil, fmt.Errorf("%w: line %d has no channel id", shared.ErrInvalidInput, line)
		}
		rows = append(rows, row)
	}

	return rows, nil
}
