package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/sukima/internal/interval"
	"github.com/hitoshi/sukima/internal/metrics"
	"github.com/hitoshi/sukima/internal/model"
)

// IntervalServiceInterface は時間帯ハンドラーが必要とするサービスインターフェース。
type IntervalServiceInterface interface {
	// Create は時間帯を新規登録する。
	Create(ctx context.Context, ownerID string, in interval.Input) (*model.Interval, error)
	// Update は時間帯を上書き編集する。
	Update(ctx context.Context, ownerID, id string, in interval.Input) (*model.Interval, error)
	// Delete は時間帯を削除する。
	Delete(ctx context.Context, ownerID, id string) error
	// List は所有者の全時間帯を返す。
	List(ctx context.Context, ownerID, date string) ([]*model.Interval, error)
	// ModifyOccurrence は単一オカレンスを変更する例外を登録する。
	ModifyOccurrence(ctx context.Context, ownerID, templateID, date string, in interval.OccurrenceInput) (*model.RecurrenceException, error)
	// RemoveOccurrence は単一オカレンスを削除する抑止例外を登録する。
	RemoveOccurrence(ctx context.Context, ownerID, templateID, date string) error
}

// IntervalHandler は時間帯管理のHTTPハンドラー。
type IntervalHandler struct {
	service   IntervalServiceInterface
	collector metrics.MetricsCollector
}

// NewIntervalHandler はIntervalHandlerを生成する。
// collectorはnilを許容する（テスト用）。
func NewIntervalHandler(service IntervalServiceInterface, collector metrics.MetricsCollector) *IntervalHandler {
	return &IntervalHandler{
		service:   service,
		collector: collector,
	}
}

// recurrenceRequest は繰り返しルールのリクエストボディ。
type recurrenceRequest struct {
	Type       string `json:"type"`
	DaysOfWeek []int  `json:"days_of_week,omitempty"`
	DayOfMonth int    `json:"day_of_month,omitempty"`
	Until      string `json:"until,omitempty"`
}

// intervalRequest は時間帯登録・編集リクエストのボディ。
type intervalRequest struct {
	OwnerID     string             `json:"owner_id"`
	Date        string             `json:"date"`
	Start       string             `json:"start"`
	End         string             `json:"end"`
	Category    string             `json:"category"`
	Description string             `json:"description,omitempty"`
	Recurrence  *recurrenceRequest `json:"recurrence,omitempty"`
}

// occurrenceRequest は単一オカレンス編集リクエストのボディ。
type occurrenceRequest struct {
	OwnerID     string `json:"owner_id"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
}

// recurrenceResponse は繰り返しルールのAPIレスポンス。
type recurrenceResponse struct {
	Type       string `json:"type"`
	DaysOfWeek []int  `json:"days_of_week,omitempty"`
	DayOfMonth int    `json:"day_of_month,omitempty"`
	Until      string `json:"until,omitempty"`
}

// intervalResponse は時間帯のAPIレスポンス。
type intervalResponse struct {
	ID          string              `json:"id"`
	OwnerID     string              `json:"owner_id"`
	Start       string              `json:"start"` // RFC 3339
	End         string              `json:"end"`   // RFC 3339
	Category    string              `json:"category"`
	Description string              `json:"description,omitempty"`
	Recurrence  *recurrenceResponse `json:"recurrence,omitempty"`
}

// CreateInterval は時間帯登録を処理する。
// POST /api/intervals
func (h *IntervalHandler) CreateInterval(w http.ResponseWriter, r *http.Request) {
	var req intervalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidBodyError())
		return
	}
	if req.OwnerID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, missingOwnerError())
		return
	}

	iv, err := h.service.Create(r.Context(), req.OwnerID, toIntervalInput(req))
	if err != nil {
		h.recordConflict(err)
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toIntervalResponse(iv))
}

// ListIntervals は所有者の時間帯一覧を取得する。
// dateを指定すると所有者ローカルのその日の予定だけを返す。
// GET /api/intervals?owner=xxx&date=YYYY-MM-DD
func (h *IntervalHandler) ListIntervals(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner")
	if ownerID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, missingOwnerError())
		return
	}

	intervals, err := h.service.List(r.Context(), ownerID, r.URL.Query().Get("date"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]intervalResponse, 0, len(intervals))
	for _, iv := range intervals {
		resp = append(resp, toIntervalResponse(iv))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// UpdateInterval は時間帯の上書き編集を処理する。
// PATCH /api/intervals/:id
func (h *IntervalHandler) UpdateInterval(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req intervalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidBodyError())
		return
	}
	if req.OwnerID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, missingOwnerError())
		return
	}

	iv, err := h.service.Update(r.Context(), req.OwnerID, id, toIntervalInput(req))
	if err != nil {
		h.recordConflict(err)
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toIntervalResponse(iv))
}

// DeleteInterval は時間帯の削除を処理する。
// DELETE /api/intervals/:id?owner=xxx
func (h *IntervalHandler) DeleteInterval(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ownerID := r.URL.Query().Get("owner")
	if ownerID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, missingOwnerError())
		return
	}

	if err := h.service.Delete(r.Context(), ownerID, id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ModifyOccurrence は繰り返しの単一オカレンス変更を処理する。
// PUT /api/intervals/:id/occurrences/:date
func (h *IntervalHandler) ModifyOccurrence(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	date := chi.URLParam(r, "date")

	var req occurrenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidBodyError())
		return
	}
	if req.OwnerID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, missingOwnerError())
		return
	}

	in := interval.OccurrenceInput{
		Start:       req.Start,
		End:         req.End,
		Category:    model.Category(req.Category),
		Description: req.Description,
	}
	ex, err := h.service.ModifyOccurrence(r.Context(), req.OwnerID, id, date, in)
	if err != nil {
		h.recordConflict(err)
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toIntervalResponse(ex.Modified))
}

// RemoveOccurrence は繰り返しの単一オカレンス削除を処理する。
// DELETE /api/intervals/:id/occurrences/:date?owner=xxx
func (h *IntervalHandler) RemoveOccurrence(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	date := chi.URLParam(r, "date")
	ownerID := r.URL.Query().Get("owner")
	if ownerID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, missingOwnerError())
		return
	}

	if err := h.service.RemoveOccurrence(r.Context(), ownerID, id, date); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// recordConflict は重複による拒否をメトリクスに記録する。
func (h *IntervalHandler) recordConflict(err error) {
	if h.collector == nil {
		return
	}
	var apiErr *model.APIError
	if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeScheduleConflict {
		h.collector.RecordConflictRejection()
	}
}

// --- ヘルパー関数 ---

// toIntervalInput はリクエストボディをサービス層の入力に変換する。
func toIntervalInput(req intervalRequest) interval.Input {
	in := interval.Input{
		Date:        req.Date,
		Start:       req.Start,
		End:         req.End,
		Category:    model.Category(req.Category),
		Description: req.Description,
	}
	if req.Recurrence != nil {
		in.Recurrence = &interval.RecurrenceInput{
			Type:       model.RecurrenceType(req.Recurrence.Type),
			DaysOfWeek: req.Recurrence.DaysOfWeek,
			DayOfMonth: req.Recurrence.DayOfMonth,
			Until:      req.Recurrence.Until,
		}
	}
	return in
}

// toIntervalResponse はmodel.IntervalからAPIレスポンスに変換する。
func toIntervalResponse(iv *model.Interval) intervalResponse {
	resp := intervalResponse{
		ID:          iv.ID,
		OwnerID:     iv.OwnerID,
		Start:       iv.Start.Format(time.RFC3339),
		End:         iv.End.Format(time.RFC3339),
		Category:    string(iv.Category),
		Description: iv.Description,
	}
	if iv.Recurrence != nil {
		rec := &recurrenceResponse{
			Type:       string(iv.Recurrence.Type),
			DayOfMonth: iv.Recurrence.DayOfMonth,
		}
		for _, d := range iv.Recurrence.DaysOfWeek {
			rec.DaysOfWeek = append(rec.DaysOfWeek, int(d))
		}
		if iv.Recurrence.Until != nil {
			rec.Until = iv.Recurrence.Until.Format(time.RFC3339)
		}
		resp.Recurrence = rec
	}
	return resp
}

// invalidBodyError はリクエストボディの解析エラーを組み立てる。
func invalidBodyError() *model.APIError {
	return &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// missingOwnerError は所有者未指定のエラーを組み立てる。
func missingOwnerError() *model.APIError {
	return &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  "所有者が指定されていません。",
		Category: "validation",
		Action:   "owner_idを指定してください。",
	}
}
