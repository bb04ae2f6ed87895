package timeline

import (
	"time"

	"github.com/hitoshi/sukima/internal/model"
)

// Validator は書き込み経路の重複判定を行う。
// ここで重複する書き込みをすべて拒否することにより、読み取り経路
// （セグメント構築）は同一所有者の区間が重複しないことを前提にできる。
// この前提は読み取り時に再検証しない。locは所有者のタイムゾーン。
type Validator struct {
	loc *time.Location
}

// NewValidator は所有者タイムゾーンに基づくValidatorを生成する。
func NewValidator(loc *time.Location) *Validator {
	return &Validator{loc: loc}
}

// WouldOverlap は候補区間が既存区間のいずれかと時間帯衝突するかを返す。
// excludeIDは編集対象自身の旧版を無視するために指定する。
// 半開区間の重複判定のため、端点が接するだけの場合は重複とみなさない。
func (v *Validator) WouldOverlap(candidate *model.Interval, existing []*model.Interval, excludeID string) bool {
	for _, iv := range existing {
		if excludeID != "" && iv.ID == excludeID {
			continue
		}
		if iv.OwnerID != candidate.OwnerID {
			continue
		}
		if v.conflicts(candidate, iv) {
			return true
		}
	}
	return false
}

func (v *Validator) conflicts(a, b *model.Interval) bool {
	// 双方が単発の場合は絶対時刻で直接比較できる。
	if !a.IsTemplate() && !b.IsTemplate() {
		return a.Start.Before(b.End) && a.End.After(b.Start)
	}

	// 繰り返しが絡む場合は曜日の適用可能性を先に判定する。
	// 共有する曜日が1つもなければ時間帯に関わらず衝突しない。
	if !v.shareWeekday(a, b) {
		return false
	}

	aS, aE := v.wallRange(a)
	bS, bE := v.wallRange(b)
	return aS < bE && aE > bS
}

// shareWeekday は2区間の適用曜日が少なくとも1つ重なるかを返す。
func (v *Validator) shareWeekday(a, b *model.Interval) bool {
	for _, d := range v.weekdays(a) {
		for _, e := range v.weekdays(b) {
			if d == e {
				return true
			}
		}
	}
	return false
}

// weekdays は区間が適用される曜日の集合を返す。
// 単発は開始日のローカル曜日のみ、daily は全曜日、weekly は指定曜日、
// monthly はテンプレート元日付の曜日として扱う。
func (v *Validator) weekdays(iv *model.Interval) []model.Weekday {
	origin := model.WeekdayOf(iv.Start.In(v.loc))
	if !iv.IsTemplate() {
		return []model.Weekday{origin}
	}
	switch iv.Recurrence.Type {
	case model.RecurrenceDaily:
		return []model.Weekday{
			model.Monday, model.Tuesday, model.Wednesday, model.Thursday,
			model.Friday, model.Saturday, model.Sunday,
		}
	case model.RecurrenceWeekly:
		return iv.Recurrence.DaysOfWeek
	default: // monthly
		return []model.Weekday{origin}
	}
}

// wallRange は区間の壁時計範囲を経過分で返す。
// 終端の00:00は終端規則（NormalizeWallRange）で日の終わりに読み替える。
// 日付をまたぐ区間は開始日の側、すなわち [開始分, DayEndMinute) として
// 比較する。翌日へ伸びる側は翌日のオカレンスとして扱われる。
func (v *Validator) wallRange(iv *model.Interval) (int, int) {
	s := MinuteOfDay(iv.Start, v.loc)
	e := MinuteOfDay(iv.End, v.loc)
	s, e = NormalizeWallRange(s, e)
	if e <= s {
		e = DayEndMinute
	}
	return s, e
}
