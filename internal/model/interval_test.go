package model

import (
	"errors"
	"testing"
	"time"
)

func validInterval() *Interval {
	start := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	return &Interval{
		ID:       "iv-1",
		OwnerID:  "user-1",
		Start:    start,
		End:      start.Add(time.Hour),
		Category: CategoryBusy,
	}
}

// TestInterval_Validate_OK は正常なIntervalが検証を通過することを検証する。
func TestInterval_Validate_OK(t *testing.T) {
	if err := validInterval().Validate(); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
}

// TestInterval_Validate_EndNotAfterStart は終了<=開始のIntervalが
// 拒否されることを検証する。
func TestInterval_Validate_EndNotAfterStart(t *testing.T) {
	iv := validInterval()
	iv.End = iv.Start

	err := iv.Validate()
	if err == nil {
		t.Fatal("expected error for zero-length interval")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != ErrCodeInvalidTimeRange {
		t.Errorf("error = %v, want code %s", err, ErrCodeInvalidTimeRange)
	}
}

// TestInterval_Validate_TooLong は7日を超えるIntervalが拒否されることを検証する。
func TestInterval_Validate_TooLong(t *testing.T) {
	iv := validInterval()
	iv.End = iv.Start.Add(MaxIntervalDuration + time.Minute)

	if err := iv.Validate(); err == nil {
		t.Fatal("expected error for interval longer than 7 days")
	}
}

// TestInterval_Validate_InvalidCategory は未定義の種別が拒否されることを検証する。
func TestInterval_Validate_InvalidCategory(t *testing.T) {
	iv := validInterval()
	iv.Category = Category("vacation")

	err := iv.Validate()
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != ErrCodeInvalidCategory {
		t.Errorf("error = %v, want code %s", err, ErrCodeInvalidCategory)
	}
}

// TestInterval_Validate_Recurrence は繰り返しルールの検証を表で確認する。
func TestInterval_Validate_Recurrence(t *testing.T) {
	tests := []struct {
		name    string
		rule    *RecurrenceRule
		wantErr bool
	}{
		{"daily", &RecurrenceRule{Type: RecurrenceDaily}, false},
		{"weekly with days", &RecurrenceRule{Type: RecurrenceWeekly, DaysOfWeek: []Weekday{Monday, Friday}}, false},
		{"weekly without days", &RecurrenceRule{Type: RecurrenceWeekly}, true},
		{"weekly out-of-range day", &RecurrenceRule{Type: RecurrenceWeekly, DaysOfWeek: []Weekday{8}}, true},
		{"monthly day 31", &RecurrenceRule{Type: RecurrenceMonthly, DayOfMonth: 31}, false},
		{"monthly day 0", &RecurrenceRule{Type: RecurrenceMonthly}, true},
		{"monthly day 32", &RecurrenceRule{Type: RecurrenceMonthly, DayOfMonth: 32}, true},
		{"unknown type", &RecurrenceRule{Type: RecurrenceType("yearly")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iv := validInterval()
			iv.Recurrence = tt.rule
			err := iv.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestInterval_Validate_SelfOverlappingRecurrence はオカレンス間隔以上の
// 長さを持つテンプレートが拒否されることを検証する。こうしたテンプレートは
// 自身の連続オカレンス同士が重複し、セグメント構築の非重複前提を壊す。
func TestInterval_Validate_SelfOverlappingRecurrence(t *testing.T) {
	tests := []struct {
		name     string
		rule     *RecurrenceRule
		duration time.Duration
		wantErr  bool
	}{
		{"daily 25h overlaps next occurrence", &RecurrenceRule{Type: RecurrenceDaily}, 25 * time.Hour, true},
		{"daily exactly 24h rejected", &RecurrenceRule{Type: RecurrenceDaily}, 24 * time.Hour, true},
		{"daily 23h ok", &RecurrenceRule{Type: RecurrenceDaily}, 23 * time.Hour, false},
		{"weekly Mon+Wed 50h overlaps Wednesday", &RecurrenceRule{Type: RecurrenceWeekly, DaysOfWeek: []Weekday{Monday, Wednesday}}, 50 * time.Hour, true},
		{"weekly Mon+Wed 40h ok", &RecurrenceRule{Type: RecurrenceWeekly, DaysOfWeek: []Weekday{Monday, Wednesday}}, 40 * time.Hour, false},
		{"weekly single day 3d ok", &RecurrenceRule{Type: RecurrenceWeekly, DaysOfWeek: []Weekday{Monday}}, 3 * 24 * time.Hour, false},
		{"weekly Sun+Mon wraps to 24h gap", &RecurrenceRule{Type: RecurrenceWeekly, DaysOfWeek: []Weekday{Sunday, Monday}}, 30 * time.Hour, true},
		{"monthly 5d ok", &RecurrenceRule{Type: RecurrenceMonthly, DayOfMonth: 15}, 5 * 24 * time.Hour, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iv := validInterval()
			iv.End = iv.Start.Add(tt.duration)
			iv.Recurrence = tt.rule

			err := iv.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				var apiErr *APIError
				if !errors.As(err, &apiErr) || apiErr.Code != ErrCodeInvalidRecurrence {
					t.Errorf("error = %v, want code %s", err, ErrCodeInvalidRecurrence)
				}
			}
		})
	}
}

// TestWeekdayOf は日曜=0のtime.Weekdayから月曜=1..日曜=7への変換を検証する。
func TestWeekdayOf(t *testing.T) {
	// 2024-03-10は日曜、2024-03-11は月曜。
	sunday := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	if got := WeekdayOf(sunday); got != Sunday {
		t.Errorf("WeekdayOf(sunday) = %d, want %d", got, Sunday)
	}
	monday := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	if got := WeekdayOf(monday); got != Monday {
		t.Errorf("WeekdayOf(monday) = %d, want %d", got, Monday)
	}
	saturday := time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC)
	if got := WeekdayOf(saturday); got != Saturday {
		t.Errorf("WeekdayOf(saturday) = %d, want %d", got, Saturday)
	}
}

// TestRecurrenceRule_ContainsWeekday は曜日適用判定を検証する。
func TestRecurrenceRule_ContainsWeekday(t *testing.T) {
	daily := &RecurrenceRule{Type: RecurrenceDaily}
	for d := Monday; d <= Sunday; d++ {
		if !daily.ContainsWeekday(d, Monday) {
			t.Errorf("daily should contain weekday %d", d)
		}
	}

	weekly := &RecurrenceRule{Type: RecurrenceWeekly, DaysOfWeek: []Weekday{Tuesday, Thursday}}
	if !weekly.ContainsWeekday(Tuesday, Monday) {
		t.Error("weekly should contain Tuesday")
	}
	if weekly.ContainsWeekday(Friday, Monday) {
		t.Error("weekly should not contain Friday")
	}

	monthly := &RecurrenceRule{Type: RecurrenceMonthly, DayOfMonth: 15}
	if !monthly.ContainsWeekday(Wednesday, Wednesday) {
		t.Error("monthly should match its origin weekday")
	}
	if monthly.ContainsWeekday(Thursday, Wednesday) {
		t.Error("monthly should not match other weekdays")
	}
}
