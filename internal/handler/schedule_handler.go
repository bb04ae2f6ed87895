package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hitoshi/sukima/internal/metrics"
	"github.com/hitoshi/sukima/internal/model"
	"github.com/hitoshi/sukima/internal/schedule"
	"github.com/hitoshi/sukima/internal/timeline"
)

// ScheduleServiceInterface はスケジュールハンドラーが必要とするサービスインターフェース。
type ScheduleServiceInterface interface {
	// Query は指定日の各ユーザーの予定・空き状況を計算する。
	Query(ctx context.Context, req schedule.Request) (*schedule.Result, error)
}

// ScheduleHandler はスケジュール照会のHTTPハンドラー。
type ScheduleHandler struct {
	service   ScheduleServiceInterface
	collector metrics.MetricsCollector
}

// NewScheduleHandler はScheduleHandlerを生成する。
// collectorはnilを許容する（テスト用）。
func NewScheduleHandler(service ScheduleServiceInterface, collector metrics.MetricsCollector) *ScheduleHandler {
	return &ScheduleHandler{
		service:   service,
		collector: collector,
	}
}

// segmentResponse はタイムラインセグメントのAPIレスポンス。
type segmentResponse struct {
	Start    string `json:"start"` // "HH:mm"
	End      string `json:"end"`   // "HH:mm"（日の終端は"23:59"）
	Category string `json:"category"`
}

// userScheduleResponse は1ユーザー分のスケジュールレスポンス。
type userScheduleResponse struct {
	UserID   string            `json:"user_id"`
	Segments []segmentResponse `json:"segments"`
}

// scheduleResponse はスケジュール照会のAPIレスポンス。
type scheduleResponse struct {
	Date     string                 `json:"date"`
	Timezone string                 `json:"timezone"`
	Users    []userScheduleResponse `json:"users"`
	Match    []segmentResponse      `json:"match,omitempty"`
}

// GetSchedule はスケジュール照会を処理する。
// GET /api/schedule?date=YYYY-MM-DD&users=a,b&tz=Area/City
func (h *ScheduleHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var userIDs []string
	for _, part := range strings.Split(q.Get("users"), ",") {
		if id := strings.TrimSpace(part); id != "" {
			userIDs = append(userIDs, id)
		}
	}

	req := schedule.Request{
		Date:              q.Get("date"),
		UserIDs:           userIDs,
		ReferenceTimezone: q.Get("tz"),
	}

	start := time.Now()
	result, err := h.service.Query(r.Context(), req)
	if h.collector != nil {
		h.collector.RecordScheduleQuery(len(userIDs))
		h.collector.RecordQueryLatency(time.Since(start))
	}
	if err != nil {
		h.recordQueryError(err)
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toScheduleResponse(result))
}

// recordQueryError は照会エラーのうちメトリクス対象のものを記録する。
func (h *ScheduleHandler) recordQueryError(err error) {
	if h.collector == nil {
		return
	}
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		return
	}
	switch apiErr.Code {
	case model.ErrCodeComputationTimeout:
		h.collector.RecordQueryTimeout()
	case model.ErrCodeInvariantViolation:
		h.collector.RecordInvariantViolation()
	}
}

// --- ヘルパー関数 ---

// toScheduleResponse はschedule.ResultからAPIレスポンスに変換する。
func toScheduleResponse(result *schedule.Result) scheduleResponse {
	resp := scheduleResponse{
		Date:     result.Date,
		Timezone: result.Timezone,
		Users:    make([]userScheduleResponse, 0, len(result.Users)),
	}
	for _, us := range result.Users {
		resp.Users = append(resp.Users, userScheduleResponse{
			UserID:   us.UserID,
			Segments: toSegmentResponses(us.Segments),
		})
	}
	resp.Match = toSegmentResponses(result.Match)
	return resp
}

// toSegmentResponses はセグメント列を壁時計表記のレスポンスに変換する。
func toSegmentResponses(segments []model.TimelineSegment) []segmentResponse {
	if segments == nil {
		return nil
	}
	out := make([]segmentResponse, 0, len(segments))
	for _, seg := range segments {
		out = append(out, segmentResponse{
			Start:    timeline.FormatMinute(seg.Start),
			End:      timeline.FormatMinute(seg.End),
			Category: string(seg.Category),
		})
	}
	return out
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, model.NewInternalError())
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeInvalidDate,
		model.ErrCodeInvalidTimezone,
		model.ErrCodeInvalidTimeRange,
		model.ErrCodeInvalidCategory,
		model.ErrCodeInvalidRecurrence,
		model.ErrCodeInvalidUserList,
		"INVALID_REQUEST":
		return http.StatusBadRequest
	case model.ErrCodeUserNotFound, model.ErrCodeIntervalNotFound:
		return http.StatusNotFound
	case model.ErrCodeScheduleConflict:
		return http.StatusConflict
	case model.ErrCodeComputationTimeout:
		return http.StatusGatewayTimeout
	case model.ErrCodeInvariantViolation:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
