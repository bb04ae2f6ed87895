// Package schedule はスケジュール照会パイプラインを提供する。
// 取得 → 繰り返し展開 → セグメント構築 → 交差計算までを1リクエストの
// 同期計算として実行する。保存状態は一切変更しない純粋な読み取り射影で、
// 照会のたびに再計算する。
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/hitoshi/sukima/internal/model"
	"github.com/hitoshi/sukima/internal/recurrence"
	"github.com/hitoshi/sukima/internal/repository"
	"github.com/hitoshi/sukima/internal/timeline"
)

// Request はスケジュール照会リクエスト。
type Request struct {
	Date              string   // ISO-8601日付（"2006-01-02"）
	UserIDs           []string // 照会対象。1人以上、上限はConfig依存
	ReferenceTimezone string   // 基準となるIANAタイムゾーン（照会者のゾーン）
}

// UserSchedule は1ユーザー分の照会結果。busyとavailableのセグメントを
// 開始昇順で交互に含み、基準日全体を隙間なく覆う。
type UserSchedule struct {
	UserID   string
	Segments []model.TimelineSegment
}

// Result は照会結果全体。Matchは対象ユーザーが2人以上の場合のみ
// 意味を持つ。
type Result struct {
	Date     string
	Timezone string
	Users    []UserSchedule
	Match    []model.TimelineSegment
}

// Service はスケジュール照会のサービス層。
type Service struct {
	users      repository.UserRepository
	intervals  repository.IntervalRepository
	exceptions repository.ExceptionRepository

	timeout  time.Duration
	maxUsers int
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	users repository.UserRepository,
	intervals repository.IntervalRepository,
	exceptions repository.ExceptionRepository,
	timeout time.Duration,
	maxUsers int,
) *Service {
	return &Service{
		users:      users,
		intervals:  intervals,
		exceptions: exceptions,
		timeout:    timeout,
		maxUsers:   maxUsers,
	}
}

// Query は指定日の各ユーザーの予定・空き状況を計算する。
//
// 基準日の境界は常に照会者の基準タイムゾーンの0時に固定し、各ユーザーの
// 予定を同じ基準軸へ射影してから交差を計算する。ユーザーごとの取得と
// 構築は独立しているため並行に実行し、交差計算の前に全員分の完了を
// 待ち合わせる。パイプライン全体は制限時間内に完了しなければならず、
// 超過時は部分的な結果ではなくCOMPUTATION_TIMEOUTを返す。
func (s *Service) Query(ctx context.Context, req Request) (*Result, error) {
	date, refLoc, err := s.validate(req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	dayStart, dayEnd := timeline.DayWindow(date.Year(), date.Month(), date.Day(), refLoc)

	schedules := make([]UserSchedule, len(req.UserIDs))
	avails := make([][]model.TimelineSegment, len(req.UserIDs))
	errs := make([]error, len(req.UserIDs))

	var wg sync.WaitGroup
	for i, userID := range req.UserIDs {
		wg.Add(1)
		go func(i int, userID string) {
			defer wg.Done()
			busy, avail, err := s.buildUserDay(ctx, userID, dayStart, dayEnd, refLoc)
			if err != nil {
				errs[i] = err
				cancel() // 残りの取得を待たずに打ち切る
				return
			}
			schedules[i] = UserSchedule{
				UserID:   userID,
				Segments: interleave(busy, avail),
			}
			avails[i] = avail
		}(i, userID)
	}
	wg.Wait()

	// 失敗したゴルーチンがcancelを呼ぶため、他のゴルーチンには巻き添えの
	// context.Canceledが残りうる。本来の原因を優先して選ぶ。
	var firstErr error
	for _, err := range errs {
		if err == nil {
			continue
		}
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			return nil, apiErr
		}
		if firstErr == nil || errors.Is(firstErr, context.Canceled) {
			firstErr = err
		}
	}
	if firstErr != nil {
		if errors.Is(firstErr, context.DeadlineExceeded) {
			return nil, model.NewComputationTimeoutError()
		}
		// ストレージ層の詳細はログのみに残し、呼び出し側へは汎用エラー
		// として返す。
		slog.Error("スケジュール照会の上流取得に失敗しました",
			slog.String("error", firstErr.Error()),
		)
		return nil, model.NewInternalError()
	}
	if err := ctx.Err(); errors.Is(err, context.DeadlineExceeded) {
		return nil, model.NewComputationTimeoutError()
	}

	result := &Result{
		Date:     req.Date,
		Timezone: req.ReferenceTimezone,
		Users:    schedules,
	}
	if len(req.UserIDs) >= 2 {
		result.Match = timeline.IntersectFree(avails)
	}
	return result, nil
}

// validate はリクエストの構文検証を行い、日付と基準タイムゾーンを返す。
func (s *Service) validate(req Request) (time.Time, *time.Location, error) {
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return time.Time{}, nil, model.NewInvalidDateError(req.Date)
	}
	refLoc, err := time.LoadLocation(req.ReferenceTimezone)
	if err != nil || req.ReferenceTimezone == "" {
		return time.Time{}, nil, model.NewInvalidTimezoneError(req.ReferenceTimezone)
	}
	if len(req.UserIDs) == 0 {
		return time.Time{}, nil, model.NewInvalidUserListError("ユーザーが指定されていません")
	}
	if len(req.UserIDs) > s.maxUsers {
		return time.Time{}, nil, model.NewInvalidUserListError(
			fmt.Sprintf("指定数が上限を超えています（上限: %d）", s.maxUsers))
	}
	seen := make(map[string]struct{}, len(req.UserIDs))
	for _, id := range req.UserIDs {
		if _, dup := seen[id]; dup {
			return time.Time{}, nil, model.NewInvalidUserListError(
				fmt.Sprintf("ユーザーが重複しています: %s", id))
		}
		seen[id] = struct{}{}
	}
	return date, refLoc, nil
}

// buildUserDay は1ユーザー分の取得・展開・構築を行う。
func (s *Service) buildUserDay(ctx context.Context, userID string, dayStart, dayEnd time.Time, refLoc *time.Location) (busy, avail []model.TimelineSegment, err error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, nil, model.NewUserNotFoundError(userID)
	}
	ownerLoc, err := user.Location()
	if err != nil {
		return nil, nil, fmt.Errorf("ユーザーのタイムゾーン解決に失敗しました: %w", err)
	}

	// 単発: 基準日の窓と交差するものをそのまま取得する。
	oneTime, err := s.intervals.ListOneTimeInRange(ctx, userID, dayStart, dayEnd)
	if err != nil {
		return nil, nil, fmt.Errorf("単発の時間帯の取得に失敗しました: %w", err)
	}

	templates, err := s.intervals.ListTemplates(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("繰り返しテンプレートの取得に失敗しました: %w", err)
	}

	// テンプレートは所有者タイムゾーンのカレンダー日付単位で展開される。
	// 基準窓が所有者ゾーンでどの日付に重なるかに加え、日付またぎの
	// 前日分のオカレンスも窓に流れ込むため、前後1日を含めて展開する。
	dates := expansionDates(dayStart, dayEnd, ownerLoc)

	exceptions, err := s.exceptions.ListByOwnerDates(ctx, userID, dates)
	if err != nil {
		return nil, nil, fmt.Errorf("繰り返し例外の取得に失敗しました: %w", err)
	}
	exByTemplate := groupExceptions(exceptions)

	var spans []timeline.Span
	for _, iv := range oneTime {
		spans = append(spans, timeline.Span{
			Start:    iv.Start,
			End:      iv.End,
			Category: iv.Category,
			Rank:     timeline.RankOneTime,
		})
	}
	for _, tmpl := range templates {
		for _, d := range dates {
			occ := recurrence.Expand(tmpl, exByTemplate[tmpl.ID], d.Year(), d.Month(), d.Day(), ownerLoc)
			if occ == nil {
				continue
			}
			rank := timeline.RankRecurring
			if occ.Modified {
				rank = timeline.RankModified
			}
			spans = append(spans, timeline.Span{
				Start:    occ.Start,
				End:      occ.End,
				Category: occ.Category,
				Rank:     rank,
			})
		}
	}

	busy, err = timeline.BuildDay(userID, spans, dayStart, dayEnd, refLoc)
	if err != nil {
		return nil, nil, err
	}
	return busy, timeline.Complement(busy), nil
}

// expansionDates は基準窓に影響しうる所有者ゾーンのカレンダー日付を返す。
func expansionDates(dayStart, dayEnd time.Time, ownerLoc *time.Location) []time.Time {
	first := dayStart.In(ownerLoc)
	last := dayEnd.In(ownerLoc)

	start := time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, ownerLoc).AddDate(0, 0, -1)
	end := time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, ownerLoc).AddDate(0, 0, 1)

	var dates []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

// groupExceptions は例外をテンプレートIDごとの日付マップに整理する。
func groupExceptions(exceptions []*model.RecurrenceException) map[string]map[string]*model.RecurrenceException {
	grouped := make(map[string]map[string]*model.RecurrenceException)
	for _, ex := range exceptions {
		byDate := grouped[ex.RecurrenceID]
		if byDate == nil {
			byDate = make(map[string]*model.RecurrenceException)
			grouped[ex.RecurrenceID] = byDate
		}
		byDate[model.DateKey(ex.ExceptionDate)] = ex
	}
	return grouped
}

// interleave はbusyとavailableを開始昇順で1本のセグメント列に結合する。
func interleave(busy, avail []model.TimelineSegment) []model.TimelineSegment {
	segments := make([]model.TimelineSegment, 0, len(busy)+len(avail))
	segments = append(segments, busy...)
	segments = append(segments, avail...)
	sort.Slice(segments, func(i, j int) bool { return segments[i].Start < segments[j].Start })
	return segments
}
