package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Selami79/rubber-ds/internal"
	scrapDatamodel "github.com/Selami79/rubber-ds/internal/core/datamodel/scrap"
	"github.com/Selami79/rubber-ds/internal/scrap"
	"github.com/jmoiron/sqlx"
)

const scrapColumns = `id, product_id, batch_number, machine_id, quantity, unit, reason, sub_reason,
status, cost, notes, location, operator_id, recorded_at`

// Reader serves the report queries with plain SQL over the shared pool.
type Reader struct {
	db *sqlx.DB
}

func NewReader(db *sqlx.DB) scrap.ReaderAPI {
	return &Reader{db: db}
}

func (r *Reader) List(ctx context.Context) ([]*scrapDatamodel.ScrapRecord, error) {
	ctx, cancel := internal.WithTimeout(ctx, internal.DefaultQueryTimeout)
	defer cancel()

	var rows []*scrapDatamodel.ScrapRecord
	query := "SELECT " + scrapColumns + " FROM scrap_records ORDER BY recorded_at DESC, id DESC"
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list scrap records: %w", err)
	}
	return rows, nil
}

func (r *Reader) GetByID(ctx context.Context, id int64) (*scrapDatamodel.ScrapRecord, error) {
	ctx, cancel := internal.WithTimeout(ctx, internal.DefaultQueryTimeout)
	defer cancel()

	var row scrapDatamodel.ScrapRecord
	query := r.db.Rebind("SELECT " + scrapColumns + " FROM scrap_records WHERE id = ?")
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get scrap record: %w", err)
	}
	return &row, nil
}

func (r *Reader) Between(ctx context.Context, from, to time.Time) ([]*scrapDatamodel.ScrapRecord, error) {
	ctx, cancel := internal.WithTimeout(ctx, internal.DefaultQueryTimeout)
	defer cancel()

	var rows []*scrapDatamodel.ScrapRecord
	query := r.db.Rebind("SELECT " + scrapColumns + ` FROM scrap_records
WHERE recorded_at >= ? AND recorded_at <= ?
ORDER BY recorded_at DESC, id DESC`)
	if err := r.db.SelectContext(ctx, &rows, query, from.UTC(), to.UTC()); err != nil {
		return nil, fmt.Errorf("scrap records between: %w", err)
	}
	return rows, nil
}

func (r *Reader) WithMachine(ctx context.Context) ([]*scrapDatamodel.ScrapRecord, error) {
	ctx, cancel := internal.WithTimeout(ctx, internal.DefaultQueryTimeout)
	defer cancel()

	var rows []*scrapDatamodel.ScrapRecord
	query := "SELECT " + scrapColumns + ` FROM scrap_records
WHERE machine_id IS NOT NULL
ORDER BY machine_id ASC, recorded_at ASC, id ASC`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("scrap records by machine: %w", err)
	}
	return rows, nil
}
