package timeline

import (
	"testing"
	"time"

	"github.com/hitoshi/sukima/internal/model"
)

func oneTime(id string, start, end time.Time) *model.Interval {
	return &model.Interval{
		ID:       id,
		OwnerID:  "user-1",
		Start:    start,
		End:      end,
		Category: model.CategoryBusy,
	}
}

func weeklyTemplate(id string, start, end time.Time, days ...model.Weekday) *model.Interval {
	iv := oneTime(id, start, end)
	iv.Recurrence = &model.RecurrenceRule{Type: model.RecurrenceWeekly, DaysOfWeek: days}
	return iv
}

func at(day, hour, min int) time.Time {
	return time.Date(2024, 3, day, hour, min, 0, 0, time.UTC)
}

// TestWouldOverlap_TouchingEndpoints は端点が接するだけの区間が重複と
// みなされないことを検証する。10:00-11:00 と 11:00-12:00 は共存できる。
func TestWouldOverlap_TouchingEndpoints(t *testing.T) {
	v := NewValidator(time.UTC)
	existing := []*model.Interval{oneTime("iv-1", at(11, 11, 0), at(11, 12, 0))}
	candidate := oneTime("", at(11, 10, 0), at(11, 11, 0))

	if v.WouldOverlap(candidate, existing, "") {
		t.Error("touching endpoints should not overlap")
	}
}

// TestWouldOverlap_OneTimeConflict は単発同士の時間帯衝突を検証する。
func TestWouldOverlap_OneTimeConflict(t *testing.T) {
	v := NewValidator(time.UTC)
	existing := []*model.Interval{oneTime("iv-1", at(11, 10, 0), at(11, 12, 0))}

	if !v.WouldOverlap(oneTime("", at(11, 11, 0), at(11, 13, 0)), existing, "") {
		t.Error("expected overlap for 11:00-13:00 vs 10:00-12:00")
	}
	// 別日の同時刻は衝突しない。
	if v.WouldOverlap(oneTime("", at(12, 11, 0), at(12, 13, 0)), existing, "") {
		t.Error("different days should not overlap")
	}
}

// TestWouldOverlap_ExcludeID は編集対象自身の旧版が無視されることを検証する。
func TestWouldOverlap_ExcludeID(t *testing.T) {
	v := NewValidator(time.UTC)
	existing := []*model.Interval{oneTime("iv-1", at(11, 10, 0), at(11, 12, 0))}
	candidate := oneTime("iv-1", at(11, 10, 30), at(11, 11, 30))

	if v.WouldOverlap(candidate, existing, "iv-1") {
		t.Error("interval should not conflict with its own prior version")
	}
	if !v.WouldOverlap(candidate, existing, "") {
		t.Error("without exclusion the edit should conflict")
	}
}

// TestWouldOverlap_RecurringDayFilter は繰り返し候補が曜日を共有しない
// 既存区間とは時間帯に関わらず衝突しないことを検証する。
func TestWouldOverlap_RecurringDayFilter(t *testing.T) {
	v := NewValidator(time.UTC)

	// 2024-03-11は月曜。月曜9:00-10:00の週次テンプレートが既存。
	existing := []*model.Interval{
		weeklyTemplate("iv-1", at(11, 9, 0), at(11, 10, 0), model.Monday),
	}

	// 火曜のみの候補は同時刻でも衝突しない。
	tue := weeklyTemplate("", at(12, 9, 0), at(12, 10, 0), model.Tuesday)
	if v.WouldOverlap(tue, existing, "") {
		t.Error("non-shared weekday should never conflict")
	}

	// 月曜を含む候補は衝突する。
	monWed := weeklyTemplate("", at(11, 9, 30), at(11, 10, 30), model.Monday, model.Wednesday)
	if !v.WouldOverlap(monWed, existing, "") {
		t.Error("shared weekday with overlapping time should conflict")
	}

	// 月曜を含むが時間帯が接するだけの候補は衝突しない。
	monLater := weeklyTemplate("", at(11, 10, 0), at(11, 11, 0), model.Monday)
	if v.WouldOverlap(monLater, existing, "") {
		t.Error("touching wall-clock ranges should not conflict")
	}
}

// TestWouldOverlap_DailyAgainstOneTime は毎日繰り返しの候補が任意曜日の
// 単発予定と曜日を共有することを検証する。
func TestWouldOverlap_DailyAgainstOneTime(t *testing.T) {
	v := NewValidator(time.UTC)
	existing := []*model.Interval{oneTime("iv-1", at(13, 9, 0), at(13, 10, 0))}

	daily := oneTime("", at(11, 9, 30), at(11, 10, 30))
	daily.Recurrence = &model.RecurrenceRule{Type: model.RecurrenceDaily}

	if !v.WouldOverlap(daily, existing, "") {
		t.Error("daily template should conflict with one-time at overlapping wall-clock")
	}
}

// TestWouldOverlap_MidnightEnd は終了00:00の夜間予定が22:00-23:59として
// 解釈されることを検証する。正規化後は23:00開始の既存予定と衝突する。
func TestWouldOverlap_MidnightEnd(t *testing.T) {
	v := NewValidator(time.UTC)

	// 毎日23:00-23:30のテンプレートが既存。
	existing := []*model.Interval{
		func() *model.Interval {
			iv := oneTime("iv-1", at(11, 23, 0), at(11, 23, 30))
			iv.Recurrence = &model.RecurrenceRule{Type: model.RecurrenceDaily}
			return iv
		}(),
	}

	// 22:00開始、終了が翌日0:00ちょうどの毎日テンプレート。
	candidate := oneTime("", at(11, 22, 0), at(12, 0, 0))
	candidate.Recurrence = &model.RecurrenceRule{Type: model.RecurrenceDaily}

	if !v.WouldOverlap(candidate, existing, "") {
		t.Error("22:00-00:00 should normalize to 22:00-23:59 and conflict with 23:00-23:30")
	}
}
