// Package cleanup はスケジュールデータの自動削除ジョブを提供する。
// 保持期間（デフォルト90日）を過ぎた単発の時間帯と、対象日が過ぎた
// 繰り返し例外を日次バッチで削除する。繰り返しテンプレート自体は
// 将来の展開に使われ続けるため削除しない。
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// CleanupJob は保持期間を超過したスケジュールデータの自動削除ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	db            Executor
	logger        *slog.Logger
	RetentionDays int // 過去データの保持日数（デフォルト: 90）
}

// NewCleanupJob は新しいCleanupJobを生成する。
// デフォルトの保持日数は90日。
func NewCleanupJob(db Executor, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		db:            db,
		logger:        logger,
		RetentionDays: 90,
	}
}

// Run は保持期間を超過したデータを削除する。
// 1. end_atがRetentionDays日前より古い単発の時間帯をDELETEする。
// 2. exception_dateがRetentionDays日前より古い繰り返し例外をDELETEする
//    （テンプレートの削除時はCASCADEで消えるが、生きているテンプレートの
//    過去分例外はここでしか消えない）。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	interval := fmt.Sprintf("%d days", j.RetentionDays)

	intervalQuery := `DELETE FROM intervals WHERE recurrence_type IS NULL AND end_at < now() - $1::interval`
	result, err := j.db.ExecContext(ctx, intervalQuery, interval)
	if err != nil {
		j.logger.Error("時間帯クリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
			slog.Int("retention_days", j.RetentionDays),
		)
		return fmt.Errorf("時間帯クリーンアップの実行に失敗: %w", err)
	}

	deletedIntervals, err := result.RowsAffected()
	if err != nil {
		j.logger.Error("削除件数の取得に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("削除件数の取得に失敗: %w", err)
	}

	exceptionQuery := `DELETE FROM recurrence_exceptions WHERE exception_date < now() - $1::interval`
	result, err = j.db.ExecContext(ctx, exceptionQuery, interval)
	if err != nil {
		j.logger.Error("繰り返し例外クリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
			slog.Int("retention_days", j.RetentionDays),
		)
		return fmt.Errorf("繰り返し例外クリーンアップの実行に失敗: %w", err)
	}

	deletedExceptions, err := result.RowsAffected()
	if err != nil {
		j.logger.Error("削除件数の取得に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("削除件数の取得に失敗: %w", err)
	}

	duration := time.Since(start)
	j.logger.Info("スケジュールクリーンアップジョブが完了しました",
		slog.Int64("deleted_intervals", deletedIntervals),
		slog.Int64("deleted_exceptions", deletedExceptions),
		slog.Int("retention_days", j.RetentionDays),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}
