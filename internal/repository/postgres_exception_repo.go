package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/sukima/internal/model"
)

// PostgresExceptionRepo はPostgreSQLを使用した繰り返し例外リポジトリ。
type PostgresExceptionRepo struct {
	db *sql.DB
}

// NewPostgresExceptionRepo はPostgresExceptionRepoを生成する。
func NewPostgresExceptionRepo(db *sql.DB) *PostgresExceptionRepo {
	return &PostgresExceptionRepo{db: db}
}

// ListByOwnerDates は所有者の例外のうち指定日付に対応するものを返す。
func (r *PostgresExceptionRepo) ListByOwnerDates(ctx context.Context, ownerID string, dates []time.Time) ([]*model.RecurrenceException, error) {
	if len(dates) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(dates))
	for _, d := range dates {
		keys = append(keys, model.DateKey(d))
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, recurrence_id, owner_id, exception_date,
		        modified_start, modified_end, modified_category, modified_description, created_at
		 FROM recurrence_exceptions
		 WHERE owner_id = $1 AND exception_date = ANY($2)
		 ORDER BY exception_date`,
		ownerID, pq.Array(keys),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query exceptions: %w", err)
	}
	defer rows.Close()

	var exceptions []*model.RecurrenceException
	for rows.Next() {
		ex, err := scanException(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan exception: %w", err)
		}
		exceptions = append(exceptions, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate exceptions: %w", err)
	}
	return exceptions, nil
}

// Upsert は(recurrence_id, exception_date)をキーに例外を冪等にUPSERTする。
// 同一オカレンスを再度編集・削除した場合は既存の例外を置き換える。
func (r *PostgresExceptionRepo) Upsert(ctx context.Context, ex *model.RecurrenceException) error {
	var (
		mStart, mEnd sql.NullTime
		mCat, mDesc  sql.NullString
	)
	if ex.Modified != nil {
		mStart = sql.NullTime{Time: ex.Modified.Start, Valid: true}
		mEnd = sql.NullTime{Time: ex.Modified.End, Valid: true}
		mCat = sql.NullString{String: string(ex.Modified.Category), Valid: true}
		mDesc = sql.NullString{String: ex.Modified.Description, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO recurrence_exceptions
		   (id, recurrence_id, owner_id, exception_date,
		    modified_start, modified_end, modified_category, modified_description, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (recurrence_id, exception_date) DO UPDATE
		 SET modified_start = EXCLUDED.modified_start,
		     modified_end = EXCLUDED.modified_end,
		     modified_category = EXCLUDED.modified_category,
		     modified_description = EXCLUDED.modified_description`,
		ex.ID, ex.RecurrenceID, ex.OwnerID, model.DateKey(ex.ExceptionDate),
		mStart, mEnd, mCat, mDesc, ex.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert exception: %w", err)
	}
	return nil
}

// DeleteByRecurrenceAndDate は指定オカレンスの例外を削除する。
// 対象がない場合もエラーにしない（冪等）。
func (r *PostgresExceptionRepo) DeleteByRecurrenceAndDate(ctx context.Context, recurrenceID string, date time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM recurrence_exceptions WHERE recurrence_id = $1 AND exception_date = $2`,
		recurrenceID, model.DateKey(date),
	)
	if err != nil {
		return fmt.Errorf("failed to delete exception: %w", err)
	}
	return nil
}

func scanException(rows *sql.Rows) (*model.RecurrenceException, error) {
	ex := &model.RecurrenceException{}
	var (
		mStart, mEnd sql.NullTime
		mCat, mDesc  sql.NullString
	)
	err := rows.Scan(&ex.ID, &ex.RecurrenceID, &ex.OwnerID, &ex.ExceptionDate,
		&mStart, &mEnd, &mCat, &mDesc, &ex.CreatedAt)
	if err != nil {
		return nil, err
	}
	if mStart.Valid {
		ex.Modified = &model.Interval{
			ID:       ex.RecurrenceID,
			OwnerID:  ex.OwnerID,
			Start:    mStart.Time,
			End:      mEnd.Time,
			Category: model.Category(mCat.String),
		}
		if mDesc.Valid {
			ex.Modified.Description = mDesc.String
		}
	}
	return ex, nil
}

// compile-time interface check
var _ ExceptionRepository = (*PostgresExceptionRepo)(nil)
