package model

import "time"

// Category は時間帯の種別を表す。
type Category string

const (
	// CategorySleep は睡眠時間を示す。
	CategorySleep Category = "sleep"
	// CategoryBusy は予定あり（内容非公開）を示す。
	CategoryBusy Category = "busy"
	// CategoryOther はその他の予定を示す。Descriptionと組み合わせて使う。
	CategoryOther Category = "other"
)

// Valid はCategoryが定義済みの値かどうかを返す。
func (c Category) Valid() bool {
	switch c {
	case CategorySleep, CategoryBusy, CategoryOther:
		return true
	}
	return false
}

// Weekday は曜日を表す。月曜=1 .. 日曜=7 のISO 8601方式で番号付けする。
// time.Weekday（日曜=0）との変換は必ずWeekdayOfを経由すること。
type Weekday int

const (
	Monday Weekday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// WeekdayOf は時刻のローカル曜日を月曜=1..日曜=7に変換して返す。
// time.Weekdayは日曜=0..土曜=6のため、0を7へ写像する変換境界となる。
func WeekdayOf(t time.Time) Weekday {
	d := int(t.Weekday())
	if d == 0 {
		return Sunday
	}
	return Weekday(d)
}

// Valid はWeekdayが1..7の範囲内かどうかを返す。
func (w Weekday) Valid() bool {
	return w >= Monday && w <= Sunday
}

// RecurrenceType は繰り返しパターンの種別を表す。
type RecurrenceType string

const (
	// RecurrenceDaily は毎日の繰り返しを示す。
	RecurrenceDaily RecurrenceType = "daily"
	// RecurrenceWeekly は指定曜日の週次繰り返しを示す。
	RecurrenceWeekly RecurrenceType = "weekly"
	// RecurrenceMonthly は指定日の月次繰り返しを示す。
	RecurrenceMonthly RecurrenceType = "monthly"
)

// RecurrenceRule はテンプレートIntervalに付与される繰り返しルール。
// テンプレート自身のStart/Endの時刻部分が全オカレンスに適用され、
// 日付のみがルールに従って変化する。
type RecurrenceRule struct {
	Type RecurrenceType

	// DaysOfWeek はweeklyで必須（空不可）。dailyでは暗黙に全曜日、
	// monthlyでは使用しない。
	DaysOfWeek []Weekday

	// DayOfMonth はmonthlyで必須（1..31）。
	DayOfMonth int

	// Until は繰り返しの上限。この時刻より厳密に後に開始するオカレンスは
	// 存在しない。nilの場合は無期限。
	Until *time.Time
}

// ContainsWeekday はルールが指定曜日に適用されうるかを返す。
// monthlyは日付ベースのため、originDayはテンプレート元日付の曜日を渡す。
func (r *RecurrenceRule) ContainsWeekday(w Weekday, originDay Weekday) bool {
	switch r.Type {
	case RecurrenceDaily:
		return true
	case RecurrenceWeekly:
		for _, d := range r.DaysOfWeek {
			if d == w {
				return true
			}
		}
		return false
	case RecurrenceMonthly:
		return w == originDay
	}
	return false
}

// MaxIntervalDuration はIntervalの最大長。これを超える登録は拒否する。
const MaxIntervalDuration = 7 * 24 * time.Hour

// Interval はユーザーが所有する半開時間範囲 [Start, End) を表す。
// Start/EndはUTCの絶対時刻で保持する。Recurrenceが非nilの場合、この
// Intervalは具体的な予定ではなく繰り返しテンプレートとして扱う。
type Interval struct {
	ID          string
	OwnerID     string
	Start       time.Time
	End         time.Time
	Category    Category
	Description string
	Recurrence  *RecurrenceRule
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsTemplate はこのIntervalが繰り返しテンプレートかどうかを返す。
func (iv *Interval) IsTemplate() bool {
	return iv.Recurrence != nil
}

// Validate はIntervalの不変条件を検証する。
// 違反がある場合は*APIErrorを返し、問題なければnilを返す。
func (iv *Interval) Validate() error {
	if !iv.End.After(iv.Start) {
		return NewInvalidTimeRangeError("終了時刻は開始時刻より後である必要があります")
	}
	if iv.End.Sub(iv.Start) > MaxIntervalDuration {
		return NewInvalidTimeRangeError("7日を超える時間帯は登録できません")
	}
	if !iv.Category.Valid() {
		return NewInvalidCategoryError(string(iv.Category))
	}
	if iv.Recurrence != nil {
		if err := validateRecurrence(iv.Recurrence); err != nil {
			return err
		}
		// テンプレートの長さがオカレンス間隔に達すると、連続する
		// オカレンス同士が重複し読み取り経路の非重複不変条件が壊れる。
		if iv.End.Sub(iv.Start) >= minOccurrenceGap(iv.Recurrence) {
			return NewInvalidRecurrenceError("繰り返しの間隔以上の長さの時間帯は登録できません")
		}
	}
	return nil
}

// minOccurrenceGap は連続するオカレンスの開始間隔の最小値を返す。
// 夏時間で1日が23時間に縮む日があるため、間隔ちょうどの長さも拒否する
// （呼び出し側は >= で比較すること）。
func minOccurrenceGap(r *RecurrenceRule) time.Duration {
	switch r.Type {
	case RecurrenceDaily:
		return 24 * time.Hour
	case RecurrenceWeekly:
		return time.Duration(minWeekdayGap(r.DaysOfWeek)) * 24 * time.Hour
	case RecurrenceMonthly:
		// 最短の月は28日
		return 28 * 24 * time.Hour
	}
	return 24 * time.Hour
}

// minWeekdayGap は選択された曜日集合の循環的な最小間隔（日数）を返す。
func minWeekdayGap(days []Weekday) int {
	var seen [8]bool
	for _, d := range days {
		if d.Valid() {
			seen[d] = true
		}
	}
	var sorted []int
	for d := 1; d <= 7; d++ {
		if seen[d] {
			sorted = append(sorted, d)
		}
	}
	if len(sorted) <= 1 {
		return 7
	}
	gap := sorted[0] + 7 - sorted[len(sorted)-1]
	for i := 1; i < len(sorted); i++ {
		if g := sorted[i] - sorted[i-1]; g < gap {
			gap = g
		}
	}
	return gap
}

func validateRecurrence(r *RecurrenceRule) error {
	switch r.Type {
	case RecurrenceDaily:
		// 曜日指定は不要
	case RecurrenceWeekly:
		if len(r.DaysOfWeek) == 0 {
			return NewInvalidRecurrenceError("週次の繰り返しには曜日の指定が必要です")
		}
		for _, d := range r.DaysOfWeek {
			if !d.Valid() {
				return NewInvalidRecurrenceError("曜日は月曜=1から日曜=7の範囲で指定してください")
			}
		}
	case RecurrenceMonthly:
		if r.DayOfMonth < 1 || r.DayOfMonth > 31 {
			return NewInvalidRecurrenceError("月次の繰り返し日は1から31の範囲で指定してください")
		}
	default:
		return NewInvalidRecurrenceError("繰り返し種別は daily、weekly、monthly のいずれかを指定してください")
	}
	return nil
}

// DateKey は時刻の日付部分を"2006-01-02"形式のキーに変換する。
// 例外テーブルの(recurrence_id, exception_date)一意性判定に使用する。
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// RecurrenceException は繰り返しテンプレートの単一オカレンスに対する
// 上書きまたは抑止を表す。(RecurrenceID, ExceptionDate)ごとに最大1件。
type RecurrenceException struct {
	ID           string
	RecurrenceID string
	OwnerID      string

	// ExceptionDate は対象オカレンスのカレンダー日付（時刻部分は無視）。
	ExceptionDate time.Time

	// Modified が非nilの場合、その時間範囲・種別で当日のオカレンスを
	// 置き換える。nilの場合は当日のオカレンスを削除（抑止）する。
	Modified *Interval

	CreatedAt time.Time
}

// Suppressed はこの例外がオカレンスの抑止（削除）かどうかを返す。
func (e *RecurrenceException) Suppressed() bool {
	return e.Modified == nil
}
