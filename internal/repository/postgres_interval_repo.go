package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/sukima/internal/model"
)

// PostgresIntervalRepo はPostgreSQLを使用した時間帯リポジトリ。
// 単発の予定と繰り返しテンプレートを同一テーブルで管理し、
// recurrence_typeの有無でテンプレートを区別する。
type PostgresIntervalRepo struct {
	db *sql.DB
}

// NewPostgresIntervalRepo はPostgresIntervalRepoを生成する。
func NewPostgresIntervalRepo(db *sql.DB) *PostgresIntervalRepo {
	return &PostgresIntervalRepo{db: db}
}

const intervalColumns = `id, owner_id, start_at, end_at, category, description,
	recurrence_type, days_of_week, day_of_month, recurrence_until, created_at, updated_at`

// FindByID は指定IDの時間帯を取得する。見つからない場合はnilを返す。
func (r *PostgresIntervalRepo) FindByID(ctx context.Context, id string) (*model.Interval, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+intervalColumns+` FROM intervals WHERE id = $1`, id)
	iv, err := scanInterval(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find interval by ID: %w", err)
	}
	return iv, nil
}

// ListByOwner は所有者の全時間帯を開始昇順で返す。
func (r *PostgresIntervalRepo) ListByOwner(ctx context.Context, ownerID string) ([]*model.Interval, error) {
	return r.query(ctx,
		`SELECT `+intervalColumns+` FROM intervals WHERE owner_id = $1 ORDER BY start_at`,
		ownerID)
}

// ListOneTimeInRange は所有者の単発の時間帯のうち [from, to) と交差する
// ものを開始昇順で返す。半開区間同士の交差条件 start < to AND end > from。
func (r *PostgresIntervalRepo) ListOneTimeInRange(ctx context.Context, ownerID string, from, to time.Time) ([]*model.Interval, error) {
	return r.query(ctx,
		`SELECT `+intervalColumns+` FROM intervals
		 WHERE owner_id = $1 AND recurrence_type IS NULL
		   AND start_at < $3 AND end_at > $2
		 ORDER BY start_at`,
		ownerID, from, to)
}

// ListTemplates は所有者の全繰り返しテンプレートを返す。
func (r *PostgresIntervalRepo) ListTemplates(ctx context.Context, ownerID string) ([]*model.Interval, error) {
	return r.query(ctx,
		`SELECT `+intervalColumns+` FROM intervals
		 WHERE owner_id = $1 AND recurrence_type IS NOT NULL
		 ORDER BY start_at`,
		ownerID)
}

// Create は時間帯を作成する。
func (r *PostgresIntervalRepo) Create(ctx context.Context, iv *model.Interval) error {
	rt, days, dom, until := recurrenceFields(iv.Recurrence)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO intervals (id, owner_id, start_at, end_at, category, description,
		   recurrence_type, days_of_week, day_of_month, recurrence_until, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		iv.ID, iv.OwnerID, iv.Start, iv.End, string(iv.Category), iv.Description,
		rt, days, dom, until, iv.CreatedAt, iv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert interval: %w", err)
	}
	return nil
}

// Update は時間帯を上書き更新する。
func (r *PostgresIntervalRepo) Update(ctx context.Context, iv *model.Interval) error {
	rt, days, dom, until := recurrenceFields(iv.Recurrence)
	result, err := r.db.ExecContext(ctx,
		`UPDATE intervals
		 SET start_at = $2, end_at = $3, category = $4, description = $5,
		     recurrence_type = $6, days_of_week = $7, day_of_month = $8,
		     recurrence_until = $9, updated_at = $10
		 WHERE id = $1`,
		iv.ID, iv.Start, iv.End, string(iv.Category), iv.Description,
		rt, days, dom, until, iv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update interval: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("interval not found: %s", iv.ID)
	}
	return nil
}

// Delete は指定IDの時間帯を削除する。関連する例外はCASCADE削除される。
func (r *PostgresIntervalRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM intervals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete interval: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("interval not found: %s", id)
	}
	return nil
}

func (r *PostgresIntervalRepo) query(ctx context.Context, q string, args ...interface{}) ([]*model.Interval, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query intervals: %w", err)
	}
	defer rows.Close()

	var intervals []*model.Interval
	for rows.Next() {
		iv, err := scanInterval(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan interval: %w", err)
		}
		intervals = append(intervals, iv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate intervals: %w", err)
	}
	return intervals, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanInterval(row rowScanner) (*model.Interval, error) {
	iv := &model.Interval{}
	var (
		category string
		rt       sql.NullString
		days     pq.Int64Array
		dom      sql.NullInt64
		until    sql.NullTime
	)
	err := row.Scan(&iv.ID, &iv.OwnerID, &iv.Start, &iv.End, &category, &iv.Description,
		&rt, &days, &dom, &until, &iv.CreatedAt, &iv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	iv.Category = model.Category(category)
	if rt.Valid {
		rule := &model.RecurrenceRule{Type: model.RecurrenceType(rt.String)}
		for _, d := range days {
			rule.DaysOfWeek = append(rule.DaysOfWeek, model.Weekday(d))
		}
		if dom.Valid {
			rule.DayOfMonth = int(dom.Int64)
		}
		if until.Valid {
			u := until.Time
			rule.Until = &u
		}
		iv.Recurrence = rule
	}
	return iv, nil
}

// recurrenceFields はRecurrenceRuleをNULL許容のDBカラム値に展開する。
func recurrenceFields(rule *model.RecurrenceRule) (rt sql.NullString, days pq.Int64Array, dom sql.NullInt64, until sql.NullTime) {
	if rule == nil {
		return
	}
	rt = sql.NullString{String: string(rule.Type), Valid: true}
	for _, d := range rule.DaysOfWeek {
		days = append(days, int64(d))
	}
	if rule.DayOfMonth > 0 {
		dom = sql.NullInt64{Int64: int64(rule.DayOfMonth), Valid: true}
	}
	if rule.Until != nil {
		until = sql.NullTime{Time: *rule.Until, Valid: true}
	}
	return
}

// compile-time interface check
var _ IntervalRepository = (*PostgresIntervalRepo)(nil)
