// Package timeline は1日分の時間軸（0時からの経過分）上の区間演算を提供する。
// 重複判定、予定セグメントの構築、空き時間の補集合、複数ユーザーの交差計算を含む。
package timeline

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// MinutesPerDay は1日の分数。
	MinutesPerDay = 1440

	// DayEndMinute は「日の終わり」を表す排他的終端マーカー。
	// 表示上は23:59として扱う。深夜0時と日の終わりを同じ00:00で
	// 多重表現しないため、終端は常にこの値で表す。
	DayEndMinute = 1439
)

// ParseWall は"HH:mm"形式の壁時計時刻を0時からの経過分に変換する。
// 終端入力の互換のため"24:00"はDayEndMinuteに正規化して受け付ける。
func ParseWall(s string) (int, error) {
	h, m, ok := splitWall(s)
	if !ok {
		return 0, fmt.Errorf("invalid wall-clock time: %q", s)
	}
	if h == 24 && m == 0 {
		return DayEndMinute, nil
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("wall-clock time out of range: %q", s)
	}
	return h*60 + m, nil
}

func splitWall(s string) (h, m int, ok bool) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	m, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	return h, m, true
}

// FormatMinute は経過分を"HH:mm"形式に変換する。
// DayEndMinute以上は日の終端として"23:59"を返す。
func FormatMinute(m int) string {
	if m >= DayEndMinute {
		return "23:59"
	}
	if m < 0 {
		m = 0
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// NormalizeWallRange は壁時計の開始・終了分に終端規則を適用する。
// 終了が00:00かつ開始が12:00以降の場合、夜の予定の終端入力とみなして
// 日の終わり（DayEndMinute）へ読み替える。終了がDayEndMinuteを超える
// 場合も終端へ丸める。
func NormalizeWallRange(start, end int) (int, int) {
	if end == 0 && start >= 12*60 {
		end = DayEndMinute
	}
	if end > DayEndMinute {
		end = DayEndMinute
	}
	return start, end
}
