package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/dmolina/cash-closure/internal/closure"
	"github.com/dmolina/cash-closure/internal/domain"
)

// LedgerFeed reads register movements from BigQuery. It holds a shared client
// to avoid creating a new connection per fetch.
type LedgerFeed struct {
	client  *bigquery.Client
	dataset string
}

// NewLedgerFeed creates a feed over <projectID>.<datasetID>.
func NewLedgerFeed(ctx context.Context, projectID, datasetID string) (*LedgerFeed, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewLedgerFeed: creating client: %w", err)
	}
	return &LedgerFeed{client: client, dataset: datasetID}, nil
}

// Close closes the underlying BigQuery client.
func (f *LedgerFeed) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

// Fetch implements the closure.Feed interface. Ordering by occurrence time
// and ID keeps pages stable, so a fixed historical window always reads back
// the same rows.
func (f *LedgerFeed) Fetch(ctx context.Context, start, end time.Time, page, pageSize int) ([]domain.Transaction, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = closure.DefaultPageSize
	}

	windowParams := []bigquery.QueryParameter{
		{Name: "start_ts", Value: start.UTC()},
		{Name: "end_ts", Value: end.UTC()},
	}

	countQ := f.client.Query(fmt.Sprintf(`
		SELECT COUNT(*) AS total
		FROM %s.%s
		WHERE occurred_ts >= @start_ts
		  AND occurred_ts < @end_ts
	`, f.dataset, transactionsTable))
	countQ.Parameters = windowParams

	it, err := countQ.Read(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("Fetch: count query: %w", err)
	}
	var countRow struct {
		Total int64 `bigquery:"total"`
	}
	if err := it.Next(&countRow); err != nil {
		return nil, 0, fmt.Errorf("Fetch: reading count: %w", err)
	}

	q := f.client.Query(fmt.Sprintf(`
		SELECT
			transaction_id,
			amount,
			occurred_ts,
			occurred_local,
			method_tag,
			method_ref_id,
			method_ref_name,
			affects_balance,
			category
		FROM %s.%s
		WHERE occurred_ts >= @start_ts
		  AND occurred_ts < @end_ts
		ORDER BY occurred_ts, transaction_id
		LIMIT @page_size
		OFFSET @page_offset
	`, f.dataset, transactionsTable))
	q.Parameters = append(windowParams,
		bigquery.QueryParameter{Name: "page_size", Value: int64(pageSize)},
		bigquery.QueryParameter{Name: "page_offset", Value: int64((page - 1) * pageSize)},
	)

	rowIt, err := q.Read(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("Fetch: page query: %w", err)
	}

	var txs []domain.Transaction
	for {
		var r transactionRow
		err := rowIt.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("Fetch: iterating rows: %w", err)
		}
		txs = append(txs, r.toDomain())
	}

	return txs, int(countRow.Total), nil
}

// Ensure LedgerFeed implements the closure.Feed interface.
var _ closure.Feed = (*LedgerFeed)(nil)
