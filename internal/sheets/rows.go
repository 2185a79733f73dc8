package sheets

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// Row is one data row keyed by its column headers. Index is the 1-based
// sheet row number, usable directly in A1 ranges for status write-back.
type Row struct {
	Index    int
	RecordID string
	Cells    map[string]interface{}
}

// Table is a parsed data sheet: the header row plus every row that carries
// a record id.
type Table struct {
	Headers []string
	Rows    []Row
}

// idHeader is the reserved column linking a sheet row to its CRM record.
const idHeader = "ID"

// ParseTable turns raw sheet values into header-keyed rows. The first row
// is the header row; rows without a value in the ID column are skipped,
// since there is no record to update for them.
func ParseTable(data [][]interface{}) *Table {
	if len(data) == 0 {
		log.Debug().Msg("Sheet is empty, nothing to parse")
		return &Table{}
	}

	headers := make([]string, len(data[0]))
	for i, h := range data[0] {
		headers[i] = strings.TrimSpace(fmt.Sprintf("%v", h))
	}

	table := &Table{Headers: headers}
	for i, raw := range data[1:] {
		row := Row{Index: i + 2, Cells: make(map[string]interface{})}
		for col, header := range headers {
			if header == "" || col >= len(raw) || raw[col] == nil {
				continue
			}
			if header == idHeader {
				row.RecordID = strings.TrimSpace(fmt.Sprintf("%v", raw[col]))
				continue
			}
			row.Cells[header] = raw[col]
		}
		if row.RecordID == "" {
			log.Debug().Int("row", row.Index).Msg("Skipping row without record id")
			continue
		}
		table.Rows = append(table.Rows, row)
	}

	log.Debug().
		Int("total_rows", len(data)-1).
		Int("parsed_rows", len(table.Rows)).
		Msg("Parsed sheet table")
	return table
}

// ReadMapping loads the header-to-field-key mapping from a two-column
// mapping sheet (header | field key). Rows missing either column are
// skipped with a warning.
func ReadMapping(ctx context.Context, client *Client, spreadsheetID, mappingRange string) (map[string]string, error) {
	data, err := client.ReadSheet(ctx, spreadsheetID, mappingRange)
	if err != nil {
		return nil, fmt.Errorf("failed to read column mapping: %w", err)
	}

	mapping := make(map[string]string)
	for i, row := range data {
		if len(row) < 2 || row[0] == nil || row[1] == nil {
			log.Warn().Int("row", i+1).Msg("Skipping incomplete mapping row")
			continue
		}
		header := strings.TrimSpace(fmt.Sprintf("%v", row[0]))
		key := strings.TrimSpace(fmt.Sprintf("%v", row[1]))
		if header == "" || key == "" {
			continue
		}
		mapping[header] = key
	}

	log.Debug().Int("columns", len(mapping)).Msg("Loaded column mapping")
	return mapping, nil
}
