package model

// SegmentCategory はタイムラインセグメントの種別を表す。
// Intervalの種別に加えて、空き時間を示すavailableと、複数ユーザーの
// 空き時間が一致する範囲を示すmatchを持つ。
type SegmentCategory string

const (
	SegmentSleep     SegmentCategory = "sleep"
	SegmentBusy      SegmentCategory = "busy"
	SegmentOther     SegmentCategory = "other"
	SegmentAvailable SegmentCategory = "available"
	SegmentMatch     SegmentCategory = "match"
)

// SegmentCategoryOf はIntervalのCategoryを対応するSegmentCategoryへ変換する。
func SegmentCategoryOf(c Category) SegmentCategory {
	switch c {
	case CategorySleep:
		return SegmentSleep
	case CategoryOther:
		return SegmentOther
	default:
		return SegmentBusy
	}
}

// TimelineSegment はエンジン出力の単位。基準日のローカル時刻軸上の
// 連続した時間範囲を表す。Start/Endは0時からの経過分で、半開区間
// [Start, End) として扱う。1439（23:59）が日の終端マーカー。
type TimelineSegment struct {
	Start    int
	End      int
	Category SegmentCategory
}
