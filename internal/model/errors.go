package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, schedule, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidDate        = "INVALID_DATE"
	ErrCodeInvalidTimezone    = "INVALID_TIMEZONE"
	ErrCodeInvalidTimeRange   = "INVALID_TIME_RANGE"
	ErrCodeInvalidCategory    = "INVALID_CATEGORY"
	ErrCodeInvalidRecurrence  = "INVALID_RECURRENCE"
	ErrCodeInvalidUserList    = "INVALID_USER_LIST"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeIntervalNotFound   = "INTERVAL_NOT_FOUND"
	ErrCodeScheduleConflict   = "SCHEDULE_CONFLICT"
	ErrCodeComputationTimeout = "COMPUTATION_TIMEOUT"
	ErrCodeInvariantViolation = "SCHEDULE_INVARIANT_VIOLATION"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// NewInvalidDateError は日付形式エラーを生成する。
func NewInvalidDateError(date string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidDate,
		Message:  fmt.Sprintf("無効な日付形式です: %s", date),
		Category: "validation",
		Action:   "日付はYYYY-MM-DD形式で指定してください。",
	}
}

// NewInvalidTimezoneError は無効なタイムゾーン名エラーを生成する。
func NewInvalidTimezoneError(tz string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidTimezone,
		Message:  fmt.Sprintf("無効なタイムゾーンです: %s", tz),
		Category: "validation",
		Action:   "IANAタイムゾーン名（例: Asia/Tokyo）を指定してください。",
	}
}

// NewInvalidTimeRangeError は時間範囲エラーを生成する。
func NewInvalidTimeRangeError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidTimeRange,
		Message:  fmt.Sprintf("無効な時間範囲です: %s", reason),
		Category: "validation",
		Action:   "開始時刻と終了時刻を確認してください。",
	}
}

// NewInvalidCategoryError は無効な種別エラーを生成する。
func NewInvalidCategoryError(category string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCategory,
		Message:  fmt.Sprintf("無効な種別です: %s", category),
		Category: "validation",
		Action:   "種別には sleep、busy、other のいずれかを指定してください。",
	}
}

// NewInvalidRecurrenceError は繰り返しルールエラーを生成する。
func NewInvalidRecurrenceError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRecurrence,
		Message:  fmt.Sprintf("無効な繰り返しルールです: %s", reason),
		Category: "validation",
		Action:   "繰り返しルールの指定内容を確認してください。",
	}
}

// NewInvalidUserListError は照会ユーザーリストのエラーを生成する。
func NewInvalidUserListError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidUserList,
		Message:  fmt.Sprintf("無効なユーザー指定です: %s", reason),
		Category: "validation",
		Action:   "照会対象のユーザーを1人以上、上限以内で指定してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError(userID string) *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  fmt.Sprintf("指定されたユーザーが見つかりません: %s", userID),
		Category: "validation",
		Action:   "ユーザーIDを確認してください。",
	}
}

// NewIntervalNotFoundError は時間帯が見つからない場合のエラーを生成する。
func NewIntervalNotFoundError(intervalID string) *APIError {
	return &APIError{
		Code:     ErrCodeIntervalNotFound,
		Message:  fmt.Sprintf("指定された時間帯が見つかりません: %s", intervalID),
		Category: "validation",
		Action:   "時間帯のIDを確認してください。",
	}
}

// NewScheduleConflictError は既存の時間帯との重複エラーを生成する。
func NewScheduleConflictError() *APIError {
	return &APIError{
		Code:     ErrCodeScheduleConflict,
		Message:  "指定された時間帯は既存の予定と重複しています。",
		Category: "schedule",
		Action:   "重複しない時間帯を指定するか、既存の予定を編集してください。",
	}
}

// NewComputationTimeoutError はスケジュール計算のタイムアウトエラーを生成する。
// 呼び出し側が再試行を提示できるよう、他の内部エラーと区別する。
func NewComputationTimeoutError() *APIError {
	return &APIError{
		Code:     ErrCodeComputationTimeout,
		Message:  "スケジュール計算が制限時間内に完了しませんでした。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewInvariantViolationError は読み取り時に非重複不変条件の破れを検出した
// 場合のエラーを生成する。正常運用では発生しない。黙って重複した出力を
// 返すと後段の交差計算が成立しないため、検出時は明示的に失敗させる。
func NewInvariantViolationError(ownerID string) *APIError {
	return &APIError{
		Code:     ErrCodeInvariantViolation,
		Message:  fmt.Sprintf("スケジュールデータの整合性エラーを検出しました: %s", ownerID),
		Category: "system",
		Action:   "管理者に問い合わせてください。",
	}
}

// NewInternalError は内部エラーの統一表現を生成する。
// ストレージ層の生のエラーメッセージをクライアントに露出しないために使う。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
