package timeline

import "time"

// DayWindow は指定カレンダー日付のlocにおける1日分の絶対時刻範囲
// [開始, 終了) を返す。夏時間の切り替え日にも対応するため、24時間の
// 加算ではなく翌日0時のtime.Dateで終端を求める。
func DayWindow(year int, month time.Month, day int, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(year, month, day, 0, 0, 0, 0, loc)
	end := time.Date(year, month, day+1, 0, 0, 0, 0, loc)
	return start, end
}

// MinuteOfDay は絶対時刻のlocにおける壁時計を0時からの経過分で返す。
func MinuteOfDay(t time.Time, loc *time.Location) int {
	lt := t.In(loc)
	return lt.Hour()*60 + lt.Minute()
}

// ClipToDay は絶対時刻の半開区間 [start, end) を基準日の窓
// [dayStart, dayEnd) に射影し、ローカル分の範囲を返す。
// 基準日と交差しない場合、または切り詰め後に長さが0になる場合は
// ok=falseを返す。窓の終端に達する区間はDayEndMinuteで切り詰める。
func ClipToDay(start, end, dayStart, dayEnd time.Time, loc *time.Location) (startMin, endMin int, ok bool) {
	if !end.After(dayStart) || !start.Before(dayEnd) {
		return 0, 0, false
	}

	if start.Before(dayStart) {
		startMin = 0
	} else {
		startMin = MinuteOfDay(start, loc)
	}

	if end.Before(dayEnd) {
		endMin = MinuteOfDay(end, loc)
	} else {
		endMin = DayEndMinute
	}
	if endMin > DayEndMinute {
		endMin = DayEndMinute
	}

	if endMin <= startMin {
		return 0, 0, false
	}
	return startMin, endMin, true
}
