package bigquery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/dmolina/cash-closure/internal/closure"
	"github.com/dmolina/cash-closure/internal/domain"
)

// watermarkConflictMarker is raised inside the commit script when the stored
// watermark no longer matches the caller's expectation.
const watermarkConflictMarker = "watermark_conflict"

// ClosureStore persists closures and the watermark for one cash register.
type ClosureStore struct {
	client     *bigquery.Client
	dataset    string
	registerID string
}

// NewClosureStore creates a store over <projectID>.<datasetID> scoped to one
// register.
func NewClosureStore(ctx context.Context, projectID, datasetID, registerID string) (*ClosureStore, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewClosureStore: creating client: %w", err)
	}
	return &ClosureStore{client: client, dataset: datasetID, registerID: registerID}, nil
}

// Close closes the underlying BigQuery client.
func (s *ClosureStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// Watermark implements the closure.Store interface. A register with no prior
// close has no watermark row and returns nil.
func (s *ClosureStore) Watermark(ctx context.Context) (*time.Time, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT watermark
		FROM %s.%s
		WHERE register_id = @register_id
	`, s.dataset, watermarkTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "register_id", Value: s.registerID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("Watermark: query: %w", err)
	}

	var row struct {
		Watermark time.Time `bigquery:"watermark"`
	}
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Watermark: reading row: %w", err)
	}
	wm := row.Watermark.UTC()
	return &wm, nil
}

// CommitClosure implements the closure.Store interface. The watermark check,
// the closure insert and the watermark replace run inside one BigQuery
// multi-statement transaction; a watermark that moved since the caller
// resolved its period aborts the script with the conflict marker.
func (s *ClosureStore) CommitClosure(ctx context.Context, expected *time.Time, c *domain.CashClosure) error {
	methodTotals, err := marshalMethodTotals(c.PaymentMethods)
	if err != nil {
		return fmt.Errorf("CommitClosure: %w", err)
	}

	var closedTS bigquery.NullTimestamp
	if c.ClosedAt != nil {
		closedTS = bigquery.NullTimestamp{Timestamp: c.ClosedAt.UTC(), Valid: true}
	}
	var expectedTS bigquery.NullTimestamp
	if expected != nil {
		expectedTS = bigquery.NullTimestamp{Timestamp: expected.UTC(), Valid: true}
	}

	q := s.client.Query(fmt.Sprintf(`
		DECLARE current_wm TIMESTAMP DEFAULT (
			SELECT watermark FROM %[1]s.%[2]s WHERE register_id = @register_id
		);

		IF (current_wm IS NOT DISTINCT FROM @expected_wm) THEN
			BEGIN TRANSACTION;

			INSERT INTO %[1]s.%[3]s (
				closure_id, register_id, period_start, period_end, status,
				total_credit, total_debit, total_amount,
				method_totals, closed_ts, closed_by
			)
			VALUES (
				@closure_id, @register_id, @period_start, @period_end, @status,
				@total_credit, @total_debit, @total_amount,
				@method_totals, @closed_ts, @closed_by
			);

			DELETE FROM %[1]s.%[2]s WHERE register_id = @register_id;
			INSERT INTO %[1]s.%[2]s (register_id, watermark)
			VALUES (@register_id, @new_wm);

			COMMIT TRANSACTION;
		ELSE
			SELECT ERROR('%[4]s');
		END IF;
	`, s.dataset, watermarkTable, closuresTable, watermarkConflictMarker))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "register_id", Value: s.registerID},
		{Name: "expected_wm", Value: expectedTS},
		{Name: "new_wm", Value: c.PeriodEnd.UTC()},
		{Name: "closure_id", Value: c.ID},
		{Name: "period_start", Value: c.PeriodStart.UTC()},
		{Name: "period_end", Value: c.PeriodEnd.UTC()},
		{Name: "status", Value: string(c.Status)},
		{Name: "total_credit", Value: c.TotalCredit.Rat()},
		{Name: "total_debit", Value: c.TotalDebit.Rat()},
		{Name: "total_amount", Value: c.TotalAmount.Rat()},
		{Name: "method_totals", Value: methodTotals},
		{Name: "closed_ts", Value: closedTS},
		{Name: "closed_by", Value: c.ClosedBy},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("CommitClosure: running script: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		if isWatermarkConflict(err) {
			return closure.ErrAlreadyClosed
		}
		return fmt.Errorf("CommitClosure: waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		if isWatermarkConflict(err) {
			return closure.ErrAlreadyClosed
		}
		return fmt.Errorf("CommitClosure: job error: %w", err)
	}
	return nil
}

func isWatermarkConflict(err error) bool {
	return err != nil && strings.Contains(err.Error(), watermarkConflictMarker)
}

// ListClosures implements the closure.Store interface. Results come back
// newest first.
func (s *ClosureStore) ListClosures(ctx context.Context, f closure.Filter) ([]*domain.CashClosure, int, error) {
	where := []string{"register_id = @register_id"}
	params := []bigquery.QueryParameter{
		{Name: "register_id", Value: s.registerID},
	}
	if f.Status != "" {
		where = append(where, "status = @status")
		params = append(params, bigquery.QueryParameter{Name: "status", Value: string(f.Status)})
	}
	if f.Start != nil {
		where = append(where, "period_end >= @start_ts")
		params = append(params, bigquery.QueryParameter{Name: "start_ts", Value: f.Start.UTC()})
	}
	if f.End != nil {
		where = append(where, "period_start < @end_ts")
		params = append(params, bigquery.QueryParameter{Name: "end_ts", Value: f.End.UTC()})
	}
	cond := strings.Join(where, " AND ")

	countQ := s.client.Query(fmt.Sprintf(`
		SELECT COUNT(*) AS total FROM %s.%s WHERE %s
	`, s.dataset, closuresTable, cond))
	countQ.Parameters = params

	it, err := countQ.Read(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("ListClosures: count query: %w", err)
	}
	var countRow struct {
		Total int64 `bigquery:"total"`
	}
	if err := it.Next(&countRow); err != nil {
		return nil, 0, fmt.Errorf("ListClosures: reading count: %w", err)
	}

	page, pageSize := f.Page, f.PageSize
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = closure.DefaultPageSize
	}

	q := s.client.Query(fmt.Sprintf(`
		SELECT
			closure_id, register_id, period_start, period_end, status,
			total_credit, total_debit, total_amount,
			method_totals, closed_ts, closed_by
		FROM %s.%s
		WHERE %s
		ORDER BY period_end DESC
		LIMIT @page_size
		OFFSET @page_offset
	`, s.dataset, closuresTable, cond))
	q.Parameters = append(params,
		bigquery.QueryParameter{Name: "page_size", Value: int64(pageSize)},
		bigquery.QueryParameter{Name: "page_offset", Value: int64((page - 1) * pageSize)},
	)

	rowIt, err := q.Read(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("ListClosures: page query: %w", err)
	}

	var closures []*domain.CashClosure
	for {
		var r closureRow
		err := rowIt.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("ListClosures: iterating rows: %w", err)
		}
		c, err := r.toDomain()
		if err != nil {
			return nil, 0, fmt.Errorf("ListClosures: %w", err)
		}
		closures = append(closures, c)
	}

	return closures, int(countRow.Total), nil
}

// Ensure ClosureStore implements the closure.Store interface.
var _ closure.Store = (*ClosureStore)(nil)
