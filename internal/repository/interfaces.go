// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/sukima/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
// スケジュール照会時のタイムゾーン解決（timezoneOf契約）もここが担う。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error

	// List は全ユーザーを作成日時昇順で返す。
	List(ctx context.Context) ([]*model.User, error)
}

// IntervalRepository は時間帯データの永続化インターフェース。
// 単発の予定と繰り返しテンプレートの両方を扱う。
type IntervalRepository interface {
	// FindByID は指定IDの時間帯を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Interval, error)

	// ListByOwner は所有者の全時間帯（単発・テンプレート両方）を返す。
	// 書き込み経路の重複判定に使用する。
	ListByOwner(ctx context.Context, ownerID string) ([]*model.Interval, error)

	// ListOneTimeInRange は所有者の単発の時間帯のうち、絶対時刻範囲
	// [from, to) と交差するものを開始昇順で返す。
	ListOneTimeInRange(ctx context.Context, ownerID string, from, to time.Time) ([]*model.Interval, error)

	// ListTemplates は所有者の全繰り返しテンプレートを返す。
	ListTemplates(ctx context.Context, ownerID string) ([]*model.Interval, error)

	// Create は時間帯を作成する。
	Create(ctx context.Context, iv *model.Interval) error

	// Update は時間帯を上書き更新する。
	Update(ctx context.Context, iv *model.Interval) error

	// Delete は指定IDの時間帯を削除する。テンプレートの場合、関連する
	// 例外はCASCADE削除される。
	Delete(ctx context.Context, id string) error
}

// ExceptionRepository は繰り返し例外の永続化インターフェース。
type ExceptionRepository interface {
	// ListByOwnerDates は所有者の例外のうち、指定日付のいずれかに
	// 対応するものを返す。
	ListByOwnerDates(ctx context.Context, ownerID string, dates []time.Time) ([]*model.RecurrenceException, error)

	// Upsert は(recurrence_id, exception_date)をキーに例外を冪等に
	// UPSERTする。同一オカレンスへの例外は常に最大1件となる。
	Upsert(ctx context.Context, ex *model.RecurrenceException) error

	// DeleteByRecurrenceAndDate は指定オカレンスの例外を削除する
	// （オカレンスをテンプレート通りに戻す）。
	DeleteByRecurrenceAndDate(ctx context.Context, recurrenceID string, date time.Time) error
}
