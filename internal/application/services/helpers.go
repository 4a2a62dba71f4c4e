package services

import (
	"time"

	"github.com/hromada-tools/backoffice/internal/domain"
)

// importDateFor derives the YYYY-MM-DD import date from the first record of
// a sync batch, falling back to the current date when the batch is empty or
// undated. Batches are single-dated by the all_by_date query semantics.
func importDateFor(records []domain.DebtorRecord, now time.Time) string {
	if len(records) > 0 && records[0].Date != "" {
		if parsed, err := records[0].ParsedDate(); err == nil {
			return parsed.Format("2006-01-02")
		}
	}
	return now.Format("2006-01-02")
}

// asOfDateFor formats the human-readable "as of" date for the notification:
// the first day of the batch month as DD.MM.YYYY. importDate is the
// fallback when the batch carries no parsable date.
func asOfDateFor(records []domain.DebtorRecord, importDate string) string {
	if len(records) > 0 && records[0].Date != "" {
		if parsed, err := records[0].ParsedDate(); err == nil {
			firstOfMonth := time.Date(parsed.Year(), parsed.Month(), 1, 0, 0, 0, 0, parsed.Location())
			return firstOfMonth.Format("02.01.2006")
		}
	}
	if parsed, err := time.Parse("2006-01-02", importDate); err == nil {
		firstOfMonth := time.Date(parsed.Year(), parsed.Month(), 1, 0, 0, 0, 0, time.UTC)
		return firstOfMonth.Format("02.01.2006")
	}
	return importDate
}
