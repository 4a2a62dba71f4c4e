package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hromada-tools/backoffice/internal/domain"
)

// DebtorRepository owns the local mirror of the remote debtor register.
// The mirror is always replaced wholesale: FlushTable then BulkInsert.
type DebtorRepository struct {
	db *pgxpool.Pool
}

func NewDebtorRepository(db *pgxpool.Pool) *DebtorRepository {
	return &DebtorRepository{db: db}
}

// FlushTable removes every row of the mirror table.
func (r *DebtorRepository) FlushTable(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `DELETE FROM ower.ower`)
	if err != nil {
		return fmt.Errorf("failed to flush debtor table: %w", err)
	}
	return nil
}

// BulkInsert loads a batch of records through COPY and reports how many rows
// were written against how many the source offered.
func (r *DebtorRepository) BulkInsert(ctx context.Context, records []domain.DebtorRecord) (*domain.InsertResult, error) {
	if len(records) == 0 {
		return &domain.InsertResult{}, nil
	}

	rows := make([][]any, 0, len(records))
	for _, record := range records {
		var date *time.Time
		if record.Date != "" {
			parsed, err := record.ParsedDate()
			if err != nil {
				return nil, fmt.Errorf("invalid record date %q: %w", record.Date, err)
			}
			date = &parsed
		}

		rows = append(rows, []any{
			record.Name,
			record.Identification,
			record.Address,
			record.Phone,
			record.NonResidentialDebt,
			record.ResidentialDebt,
			record.LandDebt,
			record.OrendaDebt,
			record.MPZ,
			date,
		})
	}

	copied, err := r.db.CopyFrom(
		ctx,
		pgx.Identifier{"ower", "ower"},
		[]string{
			"name", "identification", "address", "phone",
			"non_residential_debt", "residential_debt", "land_debt",
			"orenda_debt", "mpz", "date",
		},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to bulk insert debtors: %w", err)
	}

	return &domain.InsertResult{
		Inserted:           int(copied),
		TotalSourceRecords: len(records),
	}, nil
}

// ImportRegistryToHistory folds the just-loaded mirror into the historical
// ledger for the given YYYY-MM-DD date via a stored procedure.
func (r *DebtorRepository) ImportRegistryToHistory(ctx context.Context, date string) error {
	_, err := r.db.Exec(ctx, `SELECT import_registry_to_history($1)`, date)
	if err != nil {
		return fmt.Errorf("import_registry_to_history failed: %w", err)
	}
	return nil
}
