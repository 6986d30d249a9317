package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/birdjournal/internal/middleware"
	"github.com/hitoshi/birdjournal/internal/model"
	"github.com/hitoshi/birdjournal/internal/sighting"
)

// SightingServiceInterface は観察記録ハンドラーが必要とするサービスインターフェース。
type SightingServiceInterface interface {
	Create(ctx context.Context, userID string, draft model.SightingDraft) (*model.Sighting, error)
	List(ctx context.Context, userID string) ([]model.Sighting, error)
	Get(ctx context.Context, userID, id string) (*model.Sighting, error)
	Delete(ctx context.Context, userID, id string) error
	Subscribe(ctx context.Context, userID string, fn func([]model.Sighting)) (*sighting.Subscription, error)
}

// SightingHandler は観察記録のHTTPハンドラー。
type SightingHandler struct {
	service SightingServiceInterface
}

// NewSightingHandler はSightingHandlerを生成する。
func NewSightingHandler(service SightingServiceInterface) *SightingHandler {
	return &SightingHandler{service: service}
}

// createSightingRequest は観察記録作成リクエストのボディ。
type createSightingRequest struct {
	ComName     string `json:"com_name"`
	SciName     string `json:"sci_name"`
	SpeciesCode string `json:"species_code"`
	Time        string `json:"time"` // RFC3339。省略時は現在時刻
	Location    string `json:"location"`
	Comment     string `json:"comment"`
}

// sightingResponse は観察記録のAPIレスポンス。
// Indexは一覧内での表示連番（1始まり）で、配信のたびに振り直される。
type sightingResponse struct {
	ID          string `json:"id"`
	Index       int    `json:"index"`
	ComName     string `json:"com_name"`
	SciName     string `json:"sci_name"`
	SpeciesCode string `json:"species_code"`
	Time        string `json:"time"`
	Location    string `json:"location"`
	Comment     string `json:"comment"`
}

// Create は観察記録の作成を処理する。
// POST /api/sightings
func (h *SightingHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req createSightingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidRequestError())
		return
	}

	if req.ComName == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "鳥の名前が指定されていません。",
			Category: "validation",
			Action:   "com_name を指定してください。",
		})
		return
	}

	var observedAt time.Time
	if req.Time != "" {
		observedAt, err = time.Parse(time.RFC3339, req.Time)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
				Code:     "INVALID_REQUEST",
				Message:  "timeの形式が正しくありません。",
				Category: "validation",
				Action:   "RFC3339形式で指定してください。",
			})
			return
		}
	}

	created, err := h.service.Create(r.Context(), userID, model.SightingDraft{
		ComName:     req.ComName,
		SciName:     req.SciName,
		SpeciesCode: req.SpeciesCode,
		Time:        observedAt,
		Location:    req.Location,
		Comment:     req.Comment,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toSightingResponse(created, 0))
}

// List はユーザーの観察記録一覧を返す。
// GET /api/sightings
func (h *SightingHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	sightings, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toSightingResponses(sightings))
}

// Delete は観察記録の削除を処理する。
// DELETE /api/sightings/{id}?confirm=true
// confirm=true がない場合は削除を実行せずCONFIRMATION_REQUIREDを返す。
func (h *SightingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	if r.URL.Query().Get("confirm") != "true" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewConfirmationRequiredError())
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Share は観察記録のSNS共有用テキストを返す。
// GET /api/sightings/{id}/share
func (h *SightingHandler) Share(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	id := chi.URLParam(r, "id")
	s, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"text": sighting.ShareText(s),
	})
}

// Stream は観察記録スナップショットをServer-Sent Eventsで配信する。
// GET /api/sightings/stream
// 接続直後に現在のスナップショットを送り、以後コレクションが変化するたびに
// 全件スナップショットを再送する。
func (h *SightingHandler) Stream(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeInternalError(w)
		return
	}

	// 購読コールバックはHubのゴルーチンから呼ばれるため、チャネル経由で受け渡す。
	// バッファが埋まっている場合は古いスナップショットを捨てて最新のみ保持する。
	snapshots := make(chan []model.Sighting, 1)
	sub, err := h.service.Subscribe(r.Context(), userID, func(s []model.Sighting) {
		for {
			select {
			case snapshots <- s:
				return
			default:
				select {
				case <-snapshots:
				default:
				}
			}
		}
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	defer sub.Cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	for {
		select {
		case <-r.Context().Done():
			return
		case snap := <-snapshots:
			payload, err := json.Marshal(toSightingResponses(snap))
			if err != nil {
				slog.Error("failed to marshal snapshot", slog.String("error", err.Error()))
				continue
			}
			fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

// --- ヘルパー関数 ---

// toSightingResponse はmodel.SightingからAPIレスポンスに変換する。
func toSightingResponse(s *model.Sighting, index int) sightingResponse {
	return sightingResponse{
		ID:          s.ID,
		Index:       index,
		ComName:     s.ComName,
		SciName:     s.SciName,
		SpeciesCode: s.SpeciesCode,
		Time:        s.Time.Format(time.RFC3339),
		Location:    s.Location,
		Comment:     s.Comment,
	}
}

// toSightingResponses は一覧を表示連番付きのレスポンスに変換する。
func toSightingResponses(sightings []model.Sighting) []sightingResponse {
	result := make([]sightingResponse, len(sightings))
	for i := range sightings {
		result[i] = toSightingResponse(&sightings[i], i+1)
	}
	return result
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

// invalidRequestError はボディ解析失敗時の共通エラー。
func invalidRequestError() *model.APIError {
	return &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// writeInternalError は内部サーバーエラーの統一レスポンスを書き込む。
func writeInternalError(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeInternalError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeInvalidCredentials, model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeEmailInUse:
		return http.StatusConflict
	case model.ErrCodeInvalidEmail, model.ErrCodeWeakPassword, model.ErrCodePasswordMismatch:
		return http.StatusBadRequest
	case model.ErrCodeConfirmationRequired, model.ErrCodeInvalidCoordinate:
		return http.StatusBadRequest
	case model.ErrCodeSightingNotFound:
		return http.StatusNotFound
	case model.ErrCodeUnknownSpecies:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
