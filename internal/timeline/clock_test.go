package timeline

import (
	"testing"
	"time"
)

// TestParseWall は壁時計文字列の解析と24:00終端の正規化を検証する。
func TestParseWall(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:30", 570, false},
		{"23:59", 1439, false},
		{"24:00", DayEndMinute, false},
		{"24:01", 0, true},
		{"25:00", 0, true},
		{"12:60", 0, true},
		{"onemo", 0, true},
		{"12", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseWall(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseWall(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("ParseWall(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

// TestFormatMinute は経過分の表示形式と終端マーカーの描画を検証する。
func TestFormatMinute(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "00:00"},
		{570, "09:30"},
		{1438, "23:58"},
		{DayEndMinute, "23:59"},
		{MinutesPerDay, "23:59"},
	}
	for _, tt := range tests {
		if got := FormatMinute(tt.in); got != tt.want {
			t.Errorf("FormatMinute(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// TestNormalizeWallRange は終了00:00の終端読み替え規則を検証する。
// 開始が12時以降の場合のみ、終了00:00は日の終わりとみなす。
func TestNormalizeWallRange(t *testing.T) {
	// 22:00-00:00 は 22:00-23:59 に読み替えられる。
	s, e := NormalizeWallRange(22*60, 0)
	if s != 22*60 || e != DayEndMinute {
		t.Errorf("NormalizeWallRange(22:00, 00:00) = (%d, %d), want (%d, %d)", s, e, 22*60, DayEndMinute)
	}

	// 開始が午前の場合は読み替えない（日付またぎとして扱う）。
	s, e = NormalizeWallRange(8*60, 0)
	if e != 0 {
		t.Errorf("NormalizeWallRange(08:00, 00:00) end = %d, want 0", e)
	}

	// 通常の範囲はそのまま。
	s, e = NormalizeWallRange(9*60, 10*60)
	if s != 9*60 || e != 10*60 {
		t.Errorf("NormalizeWallRange(09:00, 10:00) = (%d, %d)", s, e)
	}
}

// TestDayWindow は基準日の窓が翌日0時で閉じることを検証する。
func TestDayWindow(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}

	start, end := DayWindow(2024, time.March, 10, loc)
	if !start.Equal(time.Date(2024, 3, 10, 0, 0, 0, 0, loc)) {
		t.Errorf("start = %v", start)
	}
	if !end.Equal(time.Date(2024, 3, 11, 0, 0, 0, 0, loc)) {
		t.Errorf("end = %v", end)
	}
	if got := end.Sub(start); got != 24*time.Hour {
		t.Errorf("window length = %v, want 24h", got)
	}
}

// TestDayWindow_DSTTransition は夏時間切り替え日の窓が24時間ちょうどに
// ならないことを検証する。米国の2024年は春が23時間、秋が25時間となる。
func TestDayWindow_DSTTransition(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}

	tests := []struct {
		name  string
		month time.Month
		day   int
		want  time.Duration
	}{
		{"spring forward", time.March, 10, 23 * time.Hour},
		{"fall back", time.November, 3, 25 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := DayWindow(2024, tt.month, tt.day, loc)
			if got := end.Sub(start); got != tt.want {
				t.Errorf("window length = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestMinuteOfDay は絶対時刻のローカル経過分への変換を検証する。
func TestMinuteOfDay(t *testing.T) {
	jst, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}

	// UTC 00:30 = JST 09:30
	instant := time.Date(2024, 6, 15, 0, 30, 0, 0, time.UTC)
	if got := MinuteOfDay(instant, time.UTC); got != 30 {
		t.Errorf("MinuteOfDay(UTC) = %d, want 30", got)
	}
	if got := MinuteOfDay(instant, jst); got != 9*60+30 {
		t.Errorf("MinuteOfDay(JST) = %d, want %d", got, 9*60+30)
	}
}

// TestClipToDay は絶対区間の基準日への射影と切り詰めを検証する。
func TestClipToDay(t *testing.T) {
	loc := time.UTC
	dayStart, dayEnd := DayWindow(2024, time.March, 10, loc)

	tests := []struct {
		name      string
		start     time.Time
		end       time.Time
		wantStart int
		wantEnd   int
		wantOK    bool
	}{
		{
			name:      "fully inside",
			start:     time.Date(2024, 3, 10, 9, 0, 0, 0, loc),
			end:       time.Date(2024, 3, 10, 10, 0, 0, 0, loc),
			wantStart: 540, wantEnd: 600, wantOK: true,
		},
		{
			name:      "spills from previous day",
			start:     time.Date(2024, 3, 9, 23, 0, 0, 0, loc),
			end:       time.Date(2024, 3, 10, 7, 0, 0, 0, loc),
			wantStart: 0, wantEnd: 420, wantOK: true,
		},
		{
			name:      "runs past midnight",
			start:     time.Date(2024, 3, 10, 23, 0, 0, 0, loc),
			end:       time.Date(2024, 3, 11, 7, 0, 0, 0, loc),
			wantStart: 1380, wantEnd: DayEndMinute, wantOK: true,
		},
		{
			name:   "entirely before",
			start:  time.Date(2024, 3, 9, 9, 0, 0, 0, loc),
			end:    time.Date(2024, 3, 9, 10, 0, 0, 0, loc),
			wantOK: false,
		},
		{
			name:   "entirely after",
			start:  time.Date(2024, 3, 11, 9, 0, 0, 0, loc),
			end:    time.Date(2024, 3, 11, 10, 0, 0, 0, loc),
			wantOK: false,
		},
		{
			name:   "touches window start only",
			start:  time.Date(2024, 3, 9, 23, 0, 0, 0, loc),
			end:    dayStart,
			wantOK: false,
		},
		{
			name:   "zero length after clipping",
			start:  time.Date(2024, 3, 10, 23, 59, 0, 0, loc),
			end:    dayEnd,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, e, ok := ClipToDay(tt.start, tt.end, dayStart, dayEnd, loc)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && (s != tt.wantStart || e != tt.wantEnd) {
				t.Errorf("clip = (%d, %d), want (%d, %d)", s, e, tt.wantStart, tt.wantEnd)
			}
		})
	}
}
