package sheets

import (
	"context"

	"crm_sheet_sync/internal/config"
	"crm_sheet_sync/internal/retry"

	"github.com/rs/zerolog/log"
)

// Sync status values written back to the sheet.
const (
	StatusSynced = "Synced"
	StatusFailed = "Failed"
)

// RowStatus is the outcome written back next to one processed row.
type RowStatus struct {
	RowIndex int
	Status   string
	Message  string
}

// WriteStatuses writes each row's outcome into the status and message
// columns. A failed write is logged and the remaining rows still get their
// status: one bad cell must not lose a whole batch's reporting.
func WriteStatuses(ctx context.Context, client *Client, spreadsheetID, sheetName, statusColumn, messageColumn string, statuses []RowStatus) {
	log.Debug().Int("rows", len(statuses)).Msg("Writing row statuses")

	for _, s := range statuses {
		if !writeStatusCell(ctx, client, spreadsheetID, sheetName, statusColumn, s.RowIndex, s.Status) {
			continue
		}
		if messageColumn != "" {
			writeStatusCell(ctx, client, spreadsheetID, sheetName, messageColumn, s.RowIndex, s.Message)
		}
	}

	log.Debug().Int("rows", len(statuses)).Msg("Finished writing row statuses")
}

func writeStatusCell(ctx context.Context, client *Client, spreadsheetID, sheetName, column string, rowIndex int, value string) bool {
	_, err := retry.WithRetry(ctx, config.DefaultResilienceConfig.SheetWrite, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, client.UpdateCell(ctx, spreadsheetID, sheetName, column, rowIndex, value)
	})
	if err != nil {
		log.Error().Err(err).Int("row", rowIndex).Str("column", column).Msg("Failed to write status cell")
		return false
	}
	return true
}
