package timeline

import (
	"sort"
	"time"

	"github.com/hitoshi/sukima/internal/model"
)

// Rank はセグメント構築時の優先順位を表す。値が小さいほど優先される。
// 単発 > 例外で変更された繰り返し > 変更なしの繰り返し の設計順で、
// 繰り返し枠を単発予定で上書きする使い方を成立させる。
type Rank int

const (
	// RankOneTime は単発の予定。
	RankOneTime Rank = iota
	// RankModified は例外により変更された繰り返しオカレンス。
	RankModified
	// RankRecurring は変更なしの繰り返しオカレンス。
	RankRecurring
)

// Span はセグメント構築の入力となる具体化済みの予定区間。
// Start/Endは絶対時刻の半開区間 [Start, End)。
type Span struct {
	Start    time.Time
	End      time.Time
	Category model.Category
	Rank     Rank
}

type minuteSpan struct {
	start, end int
	category   model.SegmentCategory
}

// BuildDay は1ユーザー分の予定区間を基準日へ射影し、優先順位を解決した
// 重複なし・開始昇順のbusyセグメント列を返す。
//
// 同一優先順位内で重複が見つかった場合、書き込み経路の非重複保証が
// 破れているためInvariantViolationエラーを返す。黙って重複した出力を
// 返すと後段の交差計算が成立しない。
func BuildDay(ownerID string, spans []Span, dayStart, dayEnd time.Time, loc *time.Location) ([]model.TimelineSegment, error) {
	byRank := [3][]minuteSpan{}
	for _, sp := range spans {
		s, e, ok := ClipToDay(sp.Start, sp.End, dayStart, dayEnd, loc)
		if !ok {
			continue
		}
		byRank[sp.Rank] = append(byRank[sp.Rank], minuteSpan{
			start:    s,
			end:      e,
			category: model.SegmentCategoryOf(sp.Category),
		})
	}

	var occupied []minuteSpan
	for _, rankSpans := range byRank {
		sort.Slice(rankSpans, func(i, j int) bool { return rankSpans[i].start < rankSpans[j].start })

		// 同一優先順位内の重複は設計上の衝突ではなく不変条件違反。
		for i := 1; i < len(rankSpans); i++ {
			if rankSpans[i].start < rankSpans[i-1].end {
				return nil, model.NewInvariantViolationError(ownerID)
			}
		}

		// 上位優先順位が占有済みの範囲を差し引いて残りを採用する。
		for _, sp := range rankSpans {
			occupied = append(occupied, subtract(sp, occupied)...)
		}
	}

	sort.Slice(occupied, func(i, j int) bool { return occupied[i].start < occupied[j].start })

	segments := make([]model.TimelineSegment, 0, len(occupied))
	for _, sp := range occupied {
		n := len(segments)
		if n > 0 && segments[n-1].End == sp.start && segments[n-1].Category == sp.category {
			segments[n-1].End = sp.end
			continue
		}
		segments = append(segments, model.TimelineSegment{
			Start:    sp.start,
			End:      sp.end,
			Category: sp.category,
		})
	}
	return segments, nil
}

// subtract はspanからoccupiedの占有範囲を取り除いた残りの断片を返す。
func subtract(span minuteSpan, occupied []minuteSpan) []minuteSpan {
	pieces := []minuteSpan{span}
	for _, oc := range occupied {
		next := pieces[:0:0]
		for _, p := range pieces {
			if oc.end <= p.start || oc.start >= p.end {
				next = append(next, p)
				continue
			}
			if oc.start > p.start {
				next = append(next, minuteSpan{start: p.start, end: oc.start, category: p.category})
			}
			if oc.end < p.end {
				next = append(next, minuteSpan{start: oc.end, end: p.end, category: p.category})
			}
		}
		pieces = next
	}
	return pieces
}

// Complement はbusyセグメント列（開始昇順・重複なし）の補集合として
// availableセグメント列を返す。1日のどこにも予定がない場合は全日1件、
// 全日が埋まっている場合は0件となり、長さ0のセグメントは生成しない。
func Complement(busy []model.TimelineSegment) []model.TimelineSegment {
	var avail []model.TimelineSegment
	cursor := 0
	for _, b := range busy {
		if b.Start > cursor {
			avail = append(avail, model.TimelineSegment{
				Start:    cursor,
				End:      b.Start,
				Category: model.SegmentAvailable,
			})
		}
		if b.End > cursor {
			cursor = b.End
		}
	}
	if cursor < DayEndMinute {
		avail = append(avail, model.TimelineSegment{
			Start:    cursor,
			End:      DayEndMinute,
			Category: model.SegmentAvailable,
		})
	}
	return avail
}
