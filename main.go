package main

import (
	"context"
	"strconv"
	"strings"
	"time"

	"crm_sheet_sync/internal/app"
	"crm_sheet_sync/internal/config"
	"crm_sheet_sync/internal/crm"
	"crm_sheet_sync/internal/payload"
	"crm_sheet_sync/internal/retry"
	"crm_sheet_sync/internal/sheets"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Debug().Msg("Starting application")
	app.SetupEnvironment()

	ctx := context.Background()
	crmClient, sheetsClient := app.InitializeClients(ctx)

	entityKind := payload.Kind(app.GetEnvWithDefault("ENTITY_KIND", string(payload.Deal)))

	log.Info().
		Str("entity_kind", string(entityKind)).
		Msg("Starting sheet-to-CRM sync. Running immediately and then every minute...")

	runPushLoop(ctx, crmClient, sheetsClient, entityKind)

	if app.GetEnvWithDefault("RUN_ONCE", "false") == "true" {
		return
	}

	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		runPushLoop(ctx, crmClient, sheetsClient, entityKind)
	}
}

// runPushLoop processes one pass over the sheet: load the column mapping,
// read the data table, push every pending row to the CRM, and write each
// row's outcome back. Rows are strictly sequential; one row's failure never
// aborts the rest of the batch.
func runPushLoop(ctx context.Context, crmClient *crm.Client, sheetsClient *sheets.Client, kind payload.Kind) {
	runID := uuid.NewString()
	logger := log.With().Str("run_id", runID).Logger()
	logger.Debug().Msg("Starting push loop")

	crmClient.ResetAPICallCount()

	spreadsheetID := app.GetRequiredEnv("SPREADSHEET_ID")
	dataRange := app.GetEnvWithDefault("SPREADSHEET_RANGE", "Data!A1:Z1000")
	mappingRange := app.GetEnvWithDefault("MAPPING_RANGE", "Mapping!A1:B100")
	sheetName := strings.Split(dataRange, "!")[0]
	statusColumn := app.GetEnvWithDefault("STATUS_COLUMN", "Y")
	messageColumn := app.GetEnvWithDefault("MESSAGE_COLUMN", "Z")

	mapping, err := retry.WithRetry(ctx, config.DefaultResilienceConfig.SheetRead, func(ctx context.Context) (map[string]string, error) {
		return sheets.ReadMapping(ctx, sheetsClient, spreadsheetID, mappingRange)
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load column mapping, skipping this run")
		return
	}
	if len(mapping) == 0 {
		logger.Warn().Msg("Column mapping is empty, nothing to sync")
		return
	}

	data, err := retry.WithRetry(ctx, config.DefaultResilienceConfig.SheetRead, func(ctx context.Context) ([][]interface{}, error) {
		return sheetsClient.ReadSheet(ctx, spreadsheetID, dataRange)
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to read data sheet, skipping this run")
		return
	}

	table := sheets.ParseTable(data)
	if len(table.Rows) == 0 {
		logger.Debug().Msg("No rows to push")
		return
	}

	var statuses []sheets.RowStatus
	synced, failed := 0, 0
	for _, row := range table.Rows {
		result := pushRow(ctx, crmClient, kind, row, mapping)

		status := sheets.RowStatus{RowIndex: row.Index, Status: sheets.StatusSynced}
		if !result.Success {
			status.Status = sheets.StatusFailed
			status.Message = result.Err
			failed++
			logger.Warn().
				Int("row", row.Index).
				Str("record_id", row.RecordID).
				Str("error", result.Err).
				Str("error_info", result.ErrorInfo).
				Msg("Row update failed")
		} else {
			status.Message = warningSummary(result)
			synced++
		}

		for _, w := range result.Warnings {
			logger.Info().
				Int("row", row.Index).
				Str("field", w.Field).
				Str("warning", w.Message).
				Msg("Row warning")
		}

		statuses = append(statuses, status)
	}

	sheets.WriteStatuses(ctx, sheetsClient, spreadsheetID, sheetName, statusColumn, messageColumn, statuses)

	logger.Info().
		Int("synced", synced).
		Int("failed", failed).
		Int64("api_calls", crmClient.GetAPICallCount()).
		Msg("Push loop complete")
}

// pushRow dispatches one row to the right entity adapter. Lead ids stay
// strings; every other entity uses numeric ids.
func pushRow(ctx context.Context, crmClient *crm.Client, kind payload.Kind, row sheets.Row, mapping map[string]string) crm.Result {
	if kind == payload.Lead {
		return crmClient.UpdateLead(ctx, row.RecordID, row.Cells, mapping)
	}

	id, err := strconv.Atoi(row.RecordID)
	if err != nil {
		return crm.Result{Err: "record id is not numeric: " + row.RecordID}
	}

	switch kind {
	case payload.Deal:
		return crmClient.UpdateDeal(ctx, id, row.Cells, mapping)
	case payload.Person:
		return crmClient.UpdatePerson(ctx, id, row.Cells, mapping)
	case payload.Organization:
		return crmClient.UpdateOrganization(ctx, id, row.Cells, mapping)
	case payload.Product:
		return crmClient.UpdateProduct(ctx, id, row.Cells, mapping)
	case payload.Activity:
		return crmClient.UpdateActivity(ctx, id, row.Cells, mapping)
	}
	return crm.Result{Err: "unsupported entity kind: " + string(kind)}
}

func warningSummary(result crm.Result) string {
	if len(result.Warnings) == 0 {
		return ""
	}
	parts := make([]string, 0, len(result.Warnings))
	for _, w := range result.Warnings {
		parts = append(parts, w.Field+": "+w.Message)
	}
	return strings.Join(parts, "; ")
}
