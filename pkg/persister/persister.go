// pkg/persister/persister.go
package persister

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/DanCorvesor/environ-policies/pkg/model"
	"github.com/DanCorvesor/environ-policies/pkg/schema"
)

// ErrTableNotEmpty is returned by the fail-if-exists policy when the
// destination table already holds rows.
var ErrTableNotEmpty = errors.New("destination table already holds rows")

// Persister writes validated records into one kind's destination table per
// call, applying a conflict policy. Multi-value fields are written as native
// ordered text[] columns.
type Persister struct {
	db        *sqlx.DB
	logger    *zap.Logger
	pgSchema  string
	batchSize int
}

// NewPersister creates a Persister writing into the given database schema.
func NewPersister(db *sqlx.DB, logger *zap.Logger, pgSchema string) *Persister {
	return &Persister{
		db:        db,
		logger:    logger.Named("persister"),
		pgSchema:  pgSchema,
		batchSize: 500,
	}
}

// WithBatchSize sets the multi-row insert batch size and returns the
// modified persister.
func (p *Persister) WithBatchSize(n int) *Persister {
	if n > 0 {
		p.batchSize = n
	}
	return p
}

// EnsureTable creates the kind's destination table if it does not exist.
func (p *Persister) EnsureTable(ctx context.Context, kind model.Kind, table string) error {
	sch, err := schema.ForKind(kind)
	if err != nil {
		return err
	}
	if _, err := p.db.ExecContext(ctx, sch.CreateStatement(p.pgSchema, table)); err != nil {
		return fmt.Errorf("failed to create table %s.%s: %w", p.pgSchema, table, err)
	}
	p.logger.Info("Ensured destination table",
		zap.String("table", p.fullName(table)),
		zap.String("kind", kind.String()))
	return nil
}

// Persist writes the batch under the given conflict policy and returns a
// write summary including a post-write row count.
func (p *Persister) Persist(ctx context.Context, records []model.Record, kind model.Kind, table string, policy model.ConflictPolicy) (*model.WriteSummary, error) {
	sch, err := schema.ForKind(kind)
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		if r.RecordKind() != kind {
			return nil, fmt.Errorf("record kind %s does not match persist kind %s", r.RecordKind(), kind)
		}
	}

	start := time.Now()
	summary := &model.WriteSummary{Table: p.fullName(table), Policy: policy}

	switch policy {
	case model.ConflictReplace:
		err = p.replaceAll(ctx, records, sch, table, summary)
	case model.ConflictAppend:
		err = p.appendRows(ctx, records, sch, table, summary)
	case model.ConflictFail:
		err = p.insertIfEmpty(ctx, records, sch, table, summary)
	default:
		err = fmt.Errorf("unknown conflict policy: %q", policy)
	}
	if err != nil {
		return nil, err
	}

	if count, err := p.tableCount(ctx, table); err != nil {
		p.logger.Warn("Post-write count verification failed", zap.Error(err))
	} else {
		summary.TableCount = count
	}
	summary.Duration = time.Since(start)

	p.logger.Info("Persisted batch",
		zap.String("table", summary.Table),
		zap.String("policy", string(policy)),
		zap.Int64("rows_written", summary.RowsWritten),
		zap.Int("conflicts", len(summary.Conflicts)),
		zap.Int64("table_count", summary.TableCount),
		zap.Duration("duration", summary.Duration))
	return summary, nil
}

// replaceAll removes the table's rows and writes the batch in their place
// within one transaction, holding an exclusive lock so concurrent replaces
// and appends against the same table serialize.
func (p *Persister) replaceAll(ctx context.Context, records []model.Record, sch *schema.Schema, table string, summary *model.WriteSummary) error {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	full := p.fullName(table)
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("LOCK TABLE %s IN ACCESS EXCLUSIVE MODE", full)); err != nil {
		return fmt.Errorf("failed to lock %s: %w", full, err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", full)); err != nil {
		return fmt.Errorf("failed to clear %s: %w", full, err)
	}

	written, err := p.insertBatches(ctx, tx, records, sch, table)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit replace: %w", err)
	}

	summary.RowsWritten = written
	return nil
}

// appendRows inserts rows one at a time so a primary-key collision rejects
// only the colliding row; any other database error aborts the call.
func (p *Persister) appendRows(ctx context.Context, records []model.Record, sch *schema.Schema, table string, summary *model.WriteSummary) error {
	query := buildInsert(p.fullName(table), sch.Columns(), 1)

	for _, record := range records {
		args, err := encodeRecord(record)
		if err != nil {
			return err
		}
		if _, err := p.db.ExecContext(ctx, query, args...); err != nil {
			if isUniqueViolation(err) {
				summary.Conflicts = append(summary.Conflicts, model.RowConflict{
					Key:    record.Key(),
					Reason: "primary key already exists",
				})
				p.logger.Warn("Append conflict",
					zap.String("table", summary.Table),
					zap.String("key", record.Key()))
				continue
			}
			return fmt.Errorf("failed to append row %s: %w", record.Key(), err)
		}
		summary.RowsWritten++
	}
	return nil
}

// insertIfEmpty aborts before writing anything if the table holds rows.
func (p *Persister) insertIfEmpty(ctx context.Context, records []model.Record, sch *schema.Schema, table string, summary *model.WriteSummary) error {
	count, err := p.tableCount(ctx, table)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: %s has %d rows", ErrTableNotEmpty, p.fullName(table), count)
	}

	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	written, err := p.insertBatches(ctx, tx, records, sch, table)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit insert: %w", err)
	}

	summary.RowsWritten = written
	return nil
}

// insertBatches performs multi-row inserts in batchSize chunks.
func (p *Persister) insertBatches(ctx context.Context, tx *sqlx.Tx, records []model.Record, sch *schema.Schema, table string) (int64, error) {
	columns := sch.Columns()
	var written int64

	for i := 0; i < len(records); i += p.batchSize {
		end := i + p.batchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[i:end]

		args := make([]interface{}, 0, len(batch)*len(columns))
		for _, record := range batch {
			rowArgs, err := encodeRecord(record)
			if err != nil {
				return written, err
			}
			args = append(args, rowArgs...)
		}

		query := buildInsert(p.fullName(table), columns, len(batch))
		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return written, fmt.Errorf("batch insert failed: %w", err)
		}
		if affected, err := result.RowsAffected(); err == nil {
			written += affected
		} else {
			written += int64(len(batch))
		}
	}
	return written, nil
}

func (p *Persister) tableCount(ctx context.Context, table string) (int64, error) {
	var count int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", p.fullName(table))
	if err := p.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("failed to count rows in %s: %w", p.fullName(table), err)
	}
	return count, nil
}

func (p *Persister) fullName(table string) string {
	return fmt.Sprintf("%s.%s", p.pgSchema, table)
}

// buildInsert constructs a multi-row INSERT with numbered placeholders.
func buildInsert(fullTable string, columns []string, rowCount int) string {
	placeholders := make([]string, rowCount)
	for i := 0; i < rowCount; i++ {
		row := make([]string, len(columns))
		for j := range columns {
			row[j] = fmt.Sprintf("$%d", i*len(columns)+j+1)
		}
		placeholders[i] = fmt.Sprintf("(%s)", strings.Join(row, ", "))
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		fullTable, strings.Join(columns, ", "), strings.Join(placeholders, ", "))
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
