// Package recurrence は繰り返しテンプレートから日付ごとの具体的な
// オカレンスを導出する。例外（上書き・抑止）の解決もここで行う。
package recurrence

import (
	"time"

	"github.com/hitoshi/sukima/internal/model"
)

// Occurrence は繰り返しテンプレートを特定日付に具体化した結果。
type Occurrence struct {
	TemplateID  string
	Start       time.Time
	End         time.Time
	Category    model.Category
	Description string

	// Modified は例外による上書きで生成されたオカレンスかどうかを示す。
	// セグメント構築時の優先順位判定に使用する。
	Modified bool
}

// Expand はテンプレートが指定日付（locのカレンダー日付）にオカレンスを
// 持つかを判定し、持つ場合はその開始・終了の絶対時刻を具体化して返す。
// 持たない場合、または例外で抑止されている場合はnilを返す。
//
// テンプレート自身の壁時計の時刻部分が全オカレンスに適用され、日付のみが
// 変化する。日付をまたぐテンプレート（終了の壁時計 < 開始の壁時計）の
// オカレンスは翌日に終了するが、開始日に属するものとして扱う。
// exceptionsはオカレンス日付のDateKeyで引ける形で渡す。同一入力に対する
// 結果は常に同一で、呼び出し順序に依存しない。
func Expand(tmpl *model.Interval, exceptions map[string]*model.RecurrenceException, year int, month time.Month, day int, loc *time.Location) *Occurrence {
	rule := tmpl.Recurrence
	if rule == nil {
		return nil
	}

	targetDate := time.Date(year, month, day, 0, 0, 0, 0, loc)
	origin := tmpl.Start.In(loc)
	originDate := time.Date(origin.Year(), origin.Month(), origin.Day(), 0, 0, 0, 0, loc)

	// テンプレートの元日付より前にはオカレンスは存在しない。
	if targetDate.Before(originDate) {
		return nil
	}

	if !occursOn(rule, targetDate, origin) {
		return nil
	}

	start := time.Date(year, month, day, origin.Hour(), origin.Minute(), origin.Second(), 0, loc)
	end := start.Add(tmpl.End.Sub(tmpl.Start))

	// untilより厳密に後に開始するオカレンスは存在しない。
	if rule.Until != nil && start.After(*rule.Until) {
		return nil
	}

	if ex, found := exceptions[model.DateKey(targetDate)]; found && ex.RecurrenceID == tmpl.ID {
		if ex.Suppressed() {
			return nil
		}
		return &Occurrence{
			TemplateID:  tmpl.ID,
			Start:       ex.Modified.Start,
			End:         ex.Modified.End,
			Category:    ex.Modified.Category,
			Description: ex.Modified.Description,
			Modified:    true,
		}
	}

	return &Occurrence{
		TemplateID:  tmpl.ID,
		Start:       start,
		End:         end,
		Category:    tmpl.Category,
		Description: tmpl.Description,
	}
}

// occursOn はルール単体での発生判定を行う。例外は考慮しない。
func occursOn(rule *model.RecurrenceRule, targetDate, origin time.Time) bool {
	switch rule.Type {
	case model.RecurrenceDaily:
		return true
	case model.RecurrenceWeekly:
		w := model.WeekdayOf(targetDate)
		for _, d := range rule.DaysOfWeek {
			if d == w {
				return true
			}
		}
		return false
	case model.RecurrenceMonthly:
		day := targetDate.Day()
		if day == rule.DayOfMonth {
			return true
		}
		// 指定日が存在しない短い月は月末日に丸める。
		last := daysInMonth(targetDate.Year(), targetDate.Month())
		return rule.DayOfMonth > last && day == last
	}
	return false
}

// daysInMonth は指定月の日数を返す。
func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
