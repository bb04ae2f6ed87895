// Package interval は時間帯の登録・編集・削除のドメインロジックを提供する。
// すべての書き込みは重複判定（timeline.Validator）を通過する。ここで重複を
// 拒否することが、読み取り経路が前提とする非重複不変条件の根拠となる。
package interval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/sukima/internal/model"
	"github.com/hitoshi/sukima/internal/recurrence"
	"github.com/hitoshi/sukima/internal/repository"
	"github.com/hitoshi/sukima/internal/timeline"
)

// Service は時間帯管理のサービス層。
type Service struct {
	users      repository.UserRepository
	intervals  repository.IntervalRepository
	exceptions repository.ExceptionRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	users repository.UserRepository,
	intervals repository.IntervalRepository,
	exceptions repository.ExceptionRepository,
) *Service {
	return &Service{
		users:      users,
		intervals:  intervals,
		exceptions: exceptions,
	}
}

// RecurrenceInput は繰り返しルールの入力。
type RecurrenceInput struct {
	Type       model.RecurrenceType
	DaysOfWeek []int
	DayOfMonth int
	Until      string // "2006-01-02" 任意
}

// Input は時間帯の登録・編集入力。時刻は所有者タイムゾーンの壁時計で
// 受け取る。Endには終端入力の互換として"24:00"も指定できる。
type Input struct {
	Date        string // "2006-01-02"（単発: 当日、テンプレート: 元日付）
	Start       string // "HH:mm"
	End         string // "HH:mm"
	Category    model.Category
	Description string
	Recurrence  *RecurrenceInput
}

// Create は時間帯を新規登録する。既存の時間帯と重複する場合は
// SCHEDULE_CONFLICTエラーを返す。
func (s *Service) Create(ctx context.Context, ownerID string, in Input) (*model.Interval, error) {
	owner, loc, err := s.resolveOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	iv, err := buildInterval(ownerID, in, loc)
	if err != nil {
		return nil, err
	}
	if err := iv.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.intervals.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("既存の時間帯の取得に失敗しました: %w", err)
	}
	if timeline.NewValidator(loc).WouldOverlap(iv, existing, "") {
		return nil, model.NewScheduleConflictError()
	}

	now := time.Now().UTC()
	iv.ID = uuid.NewString()
	iv.CreatedAt = now
	iv.UpdatedAt = now

	if err := s.intervals.Create(ctx, iv); err != nil {
		return nil, fmt.Errorf("時間帯の登録に失敗しました: %w", err)
	}

	slog.Info("時間帯を登録しました",
		slog.String("interval_id", iv.ID),
		slog.String("owner_id", owner.ID),
		slog.Bool("template", iv.IsTemplate()),
	)
	return iv, nil
}

// Update は時間帯を上書き編集する。編集対象自身の旧版は重複判定から
// 除外される。
func (s *Service) Update(ctx context.Context, ownerID, id string, in Input) (*model.Interval, error) {
	_, loc, err := s.resolveOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	current, err := s.intervals.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("時間帯の取得に失敗しました: %w", err)
	}
	if current == nil || current.OwnerID != ownerID {
		return nil, model.NewIntervalNotFoundError(id)
	}

	iv, err := buildInterval(ownerID, in, loc)
	if err != nil {
		return nil, err
	}
	if err := iv.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.intervals.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("既存の時間帯の取得に失敗しました: %w", err)
	}
	if timeline.NewValidator(loc).WouldOverlap(iv, existing, id) {
		return nil, model.NewScheduleConflictError()
	}

	iv.ID = id
	iv.CreatedAt = current.CreatedAt
	iv.UpdatedAt = time.Now().UTC()

	if err := s.intervals.Update(ctx, iv); err != nil {
		return nil, fmt.Errorf("時間帯の更新に失敗しました: %w", err)
	}
	return iv, nil
}

// Delete は時間帯を削除する。テンプレートの場合は関連する例外も
// CASCADEで消える。
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	current, err := s.intervals.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("時間帯の取得に失敗しました: %w", err)
	}
	if current == nil || current.OwnerID != ownerID {
		return model.NewIntervalNotFoundError(id)
	}
	if err := s.intervals.Delete(ctx, id); err != nil {
		return fmt.Errorf("時間帯の削除に失敗しました: %w", err)
	}
	return nil
}

// List は所有者の時間帯を返す。dateが空の場合は全件（テンプレート含む）、
// 指定された場合は所有者ローカルのその日の具体的な予定だけを返す。
func (s *Service) List(ctx context.Context, ownerID, date string) ([]*model.Interval, error) {
	_, loc, err := s.resolveOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if date == "" {
		intervals, err := s.intervals.ListByOwner(ctx, ownerID)
		if err != nil {
			return nil, fmt.Errorf("時間帯の取得に失敗しました: %w", err)
		}
		return intervals, nil
	}
	return s.listForDate(ctx, ownerID, date, loc)
}

// listForDate は所有者ローカルの指定日に実在する予定だけを返す。
// 単発はその日と交差するもの、テンプレートは当日のオカレンスを
// 具体化したもの（例外適用後）を開始昇順で返す。
func (s *Service) listForDate(ctx context.Context, ownerID, date string, loc *time.Location) ([]*model.Interval, error) {
	day, err := parseDate(date, loc)
	if err != nil {
		return nil, err
	}
	dayStart, dayEnd := timeline.DayWindow(day.Year(), day.Month(), day.Day(), loc)

	oneTime, err := s.intervals.ListOneTimeInRange(ctx, ownerID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("時間帯の取得に失敗しました: %w", err)
	}

	templates, err := s.intervals.ListTemplates(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("繰り返しテンプレートの取得に失敗しました: %w", err)
	}

	var result []*model.Interval
	result = append(result, oneTime...)

	if len(templates) > 0 {
		exceptions, err := s.exceptions.ListByOwnerDates(ctx, ownerID, []time.Time{day})
		if err != nil {
			return nil, fmt.Errorf("オカレンス例外の取得に失敗しました: %w", err)
		}
		byRecurrence := make(map[string]map[string]*model.RecurrenceException)
		for _, ex := range exceptions {
			m := byRecurrence[ex.RecurrenceID]
			if m == nil {
				m = make(map[string]*model.RecurrenceException)
				byRecurrence[ex.RecurrenceID] = m
			}
			m[model.DateKey(ex.ExceptionDate)] = ex
		}

		for _, tmpl := range templates {
			occ := recurrence.Expand(tmpl, byRecurrence[tmpl.ID], day.Year(), day.Month(), day.Day(), loc)
			if occ == nil {
				continue
			}
			result = append(result, &model.Interval{
				ID:          tmpl.ID,
				OwnerID:     ownerID,
				Start:       occ.Start,
				End:         occ.End,
				Category:    occ.Category,
				Description: occ.Description,
				Recurrence:  tmpl.Recurrence,
				CreatedAt:   tmpl.CreatedAt,
				UpdatedAt:   tmpl.UpdatedAt,
			})
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Start.Before(result[j].Start)
	})
	return result, nil
}

// OccurrenceInput は単一オカレンス編集の入力。
type OccurrenceInput struct {
	Start       string // "HH:mm"
	End         string // "HH:mm"
	Category    model.Category
	Description string
}

// ModifyOccurrence はテンプレートの単一オカレンスだけを変更する例外を
// 登録する。同一オカレンスへの再編集は既存の例外を置き換える。
func (s *Service) ModifyOccurrence(ctx context.Context, ownerID, templateID, date string, in OccurrenceInput) (*model.RecurrenceException, error) {
	tmpl, loc, day, err := s.resolveOccurrence(ctx, ownerID, templateID, date)
	if err != nil {
		return nil, err
	}

	startMin, endMin, err := parseWallRange(in.Start, in.End)
	if err != nil {
		return nil, err
	}
	modified := &model.Interval{
		ID:          templateID,
		OwnerID:     ownerID,
		Start:       instantAt(day, startMin, loc),
		End:         endInstant(day, startMin, endMin, loc),
		Category:    in.Category,
		Description: in.Description,
	}
	if err := modified.Validate(); err != nil {
		return nil, err
	}

	// 変更後の時間帯も他の予定と重複してはならない。元のテンプレートは
	// 当日は置き換えられるため判定から除外する。
	existing, err := s.intervals.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("既存の時間帯の取得に失敗しました: %w", err)
	}
	if timeline.NewValidator(loc).WouldOverlap(modified, existing, templateID) {
		return nil, model.NewScheduleConflictError()
	}

	ex := &model.RecurrenceException{
		ID:            uuid.NewString(),
		RecurrenceID:  tmpl.ID,
		OwnerID:       ownerID,
		ExceptionDate: day,
		Modified:      modified,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.exceptions.Upsert(ctx, ex); err != nil {
		return nil, fmt.Errorf("オカレンス例外の登録に失敗しました: %w", err)
	}
	return ex, nil
}

// RemoveOccurrence はテンプレートの単一オカレンスだけを削除する
// 抑止例外を登録する。
func (s *Service) RemoveOccurrence(ctx context.Context, ownerID, templateID, date string) error {
	tmpl, _, day, err := s.resolveOccurrence(ctx, ownerID, templateID, date)
	if err != nil {
		return err
	}

	ex := &model.RecurrenceException{
		ID:            uuid.NewString(),
		RecurrenceID:  tmpl.ID,
		OwnerID:       ownerID,
		ExceptionDate: day,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.exceptions.Upsert(ctx, ex); err != nil {
		return fmt.Errorf("オカレンス例外の登録に失敗しました: %w", err)
	}
	return nil
}

// resolveOwner は所有者の存在確認とタイムゾーン解決を行う。
func (s *Service) resolveOwner(ctx context.Context, ownerID string) (*model.User, *time.Location, error) {
	owner, err := s.users.FindByID(ctx, ownerID)
	if err != nil {
		return nil, nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if owner == nil {
		return nil, nil, model.NewUserNotFoundError(ownerID)
	}
	loc, err := owner.Location()
	if err != nil {
		return nil, nil, fmt.Errorf("ユーザーのタイムゾーン解決に失敗しました: %w", err)
	}
	return owner, loc, nil
}

// resolveOccurrence はテンプレートの取得と対象日付の解決を行う。
func (s *Service) resolveOccurrence(ctx context.Context, ownerID, templateID, date string) (*model.Interval, *time.Location, time.Time, error) {
	_, loc, err := s.resolveOwner(ctx, ownerID)
	if err != nil {
		return nil, nil, time.Time{}, err
	}

	tmpl, err := s.intervals.FindByID(ctx, templateID)
	if err != nil {
		return nil, nil, time.Time{}, fmt.Errorf("時間帯の取得に失敗しました: %w", err)
	}
	if tmpl == nil || tmpl.OwnerID != ownerID {
		return nil, nil, time.Time{}, model.NewIntervalNotFoundError(templateID)
	}
	if !tmpl.IsTemplate() {
		return nil, nil, time.Time{}, model.NewInvalidRecurrenceError("繰り返しではない時間帯にオカレンス例外は登録できません")
	}

	day, err := parseDate(date, loc)
	if err != nil {
		return nil, nil, time.Time{}, err
	}
	return tmpl, loc, day, nil
}

// buildInterval は壁時計の入力を所有者タイムゾーンの絶対時刻に変換する。
func buildInterval(ownerID string, in Input, loc *time.Location) (*model.Interval, error) {
	day, err := parseDate(in.Date, loc)
	if err != nil {
		return nil, err
	}
	startMin, endMin, err := parseWallRange(in.Start, in.End)
	if err != nil {
		return nil, err
	}

	iv := &model.Interval{
		OwnerID:     ownerID,
		Start:       instantAt(day, startMin, loc),
		End:         endInstant(day, startMin, endMin, loc),
		Category:    in.Category,
		Description: in.Description,
	}

	if in.Recurrence != nil {
		rule := &model.RecurrenceRule{
			Type:       in.Recurrence.Type,
			DayOfMonth: in.Recurrence.DayOfMonth,
		}
		for _, d := range in.Recurrence.DaysOfWeek {
			rule.DaysOfWeek = append(rule.DaysOfWeek, model.Weekday(d))
		}
		if in.Recurrence.Until != "" {
			until, err := parseDate(in.Recurrence.Until, loc)
			if err != nil {
				return nil, err
			}
			// until当日の終わりまでを繰り返し範囲に含める。
			u := instantAt(until, timeline.DayEndMinute, loc)
			rule.Until = &u
		}
		iv.Recurrence = rule
	}
	return iv, nil
}

// parseWallRange は壁時計範囲を解析し、終端規則を適用して返す。
func parseWallRange(start, end string) (int, int, error) {
	startMin, err := timeline.ParseWall(start)
	if err != nil {
		return 0, 0, model.NewInvalidTimeRangeError(fmt.Sprintf("開始時刻を解析できません: %s", start))
	}
	endMin, err := timeline.ParseWall(end)
	if err != nil {
		return 0, 0, model.NewInvalidTimeRangeError(fmt.Sprintf("終了時刻を解析できません: %s", end))
	}
	startMin, endMin = timeline.NormalizeWallRange(startMin, endMin)
	return startMin, endMin, nil
}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return time.Time{}, model.NewInvalidDateError(s)
	}
	return d, nil
}

// instantAt は日付の0時からminutes経過した壁時計の絶対時刻を返す。
func instantAt(day time.Time, minutes int, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), minutes/60, minutes%60, 0, 0, loc)
}

// endInstant は終了時刻の絶対時刻を返す。終了の壁時計が開始以前の場合は
// 日付またぎとして翌日に割り付ける。
func endInstant(day time.Time, startMin, endMin int, loc *time.Location) time.Time {
	if endMin <= startMin {
		next := day.AddDate(0, 0, 1)
		return instantAt(next, endMin, loc)
	}
	return instantAt(day, endMin, loc)
}
