package timeline

import (
	"sort"

	"github.com/hitoshi/sukima/internal/model"
)

// IntersectFree は複数ユーザーのavailableセグメント列（共通の基準日軸に
// 射影済み）から、全員が同時に空いている範囲をmatchセグメントとして返す。
//
// 全ユーザーのセグメント境界を昇順に並べ、隣接する境界間の微小区間ごとに
// 全員の空きが覆っているかを判定し、連続して成立する微小区間を1つの
// セグメントへ結合する。ユーザー数が2未満の場合、交差は意味を持たない
// ためnilを返す（呼び出し側で恒等通過として扱う）。
func IntersectFree(avail [][]model.TimelineSegment) []model.TimelineSegment {
	if len(avail) < 2 {
		return nil
	}

	boundarySet := map[int]struct{}{}
	for _, segs := range avail {
		for _, s := range segs {
			boundarySet[s.Start] = struct{}{}
			boundarySet[s.End] = struct{}{}
		}
	}
	if len(boundarySet) == 0 {
		return nil
	}

	boundaries := make([]int, 0, len(boundarySet))
	for b := range boundarySet {
		boundaries = append(boundaries, b)
	}
	sort.Ints(boundaries)

	var match []model.TimelineSegment
	for i := 0; i+1 < len(boundaries); i++ {
		lo, hi := boundaries[i], boundaries[i+1]
		if !coveredByAll(avail, lo, hi) {
			continue
		}
		n := len(match)
		if n > 0 && match[n-1].End == lo {
			match[n-1].End = hi
			continue
		}
		match = append(match, model.TimelineSegment{
			Start:    lo,
			End:      hi,
			Category: model.SegmentMatch,
		})
	}
	return match
}

// coveredByAll は微小区間 [lo, hi) が全ユーザーのavailableセグメントに
// 覆われているかを返す。
func coveredByAll(avail [][]model.TimelineSegment, lo, hi int) bool {
	for _, segs := range avail {
		covered := false
		for _, s := range segs {
			if s.Start <= lo && s.End >= hi {
				covered = true
				break
			}
		}
		if !covered {
			return false
		}
	}
	return true
}
