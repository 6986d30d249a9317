package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/birdjournal/internal/geo"
	"github.com/hitoshi/birdjournal/internal/model"
)

// LocationResolverInterface は位置解決ハンドラーが必要とするインターフェース。
type LocationResolverInterface interface {
	ResolveCurrentLocation(ctx context.Context, source geo.Source) (string, error)
}

// LocationHandler は位置解決のHTTPハンドラー。
type LocationHandler struct {
	resolver LocationResolverInterface
}

// NewLocationHandler はLocationHandlerを生成する。
func NewLocationHandler(resolver LocationResolverInterface) *LocationHandler {
	return &LocationHandler{resolver: resolver}
}

// resolveLocationRequest は位置解決リクエストのボディ。
// latとlngがnullの場合は位置情報の利用拒否とみなす。
type resolveLocationRequest struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// resolveLocationResponse は位置解決のAPIレスポンス。
// 拒否時はresolved=falseでlocationは空のまま（呼び出し側は現状維持）。
type resolveLocationResponse struct {
	Resolved bool   `json:"resolved"`
	Location string `json:"location"`
}

// Resolve は座標を表示用の位置文字列に解決する。
// POST /api/location/resolve
func (h *LocationHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req resolveLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidRequestError())
		return
	}

	// 座標が提供されない場合は拒否として扱う。拒否経路では
	// 逆ジオコーディングは呼ばれない。
	var source geo.Source = geo.DeniedSource{}
	if req.Lat != nil && req.Lng != nil {
		if *req.Lat < -90 || *req.Lat > 90 {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidCoordinateError("latは-90〜90の範囲で指定してください"))
			return
		}
		if *req.Lng < -180 || *req.Lng > 180 {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidCoordinateError("lngは-180〜180の範囲で指定してください"))
			return
		}
		source = geo.StaticSource{Coords: geo.Coordinates{Lat: *req.Lat, Lon: *req.Lng}}
	}

	location, err := h.resolver.ResolveCurrentLocation(r.Context(), source)
	if err != nil {
		if errors.Is(err, geo.ErrPermissionDenied) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(resolveLocationResponse{Resolved: false})
			return
		}
		slog.Error("failed to resolve location", slog.String("error", err.Error()))
		// 解決失敗は空のままフォームに戻す（手入力は常に可能）
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resolveLocationResponse{Resolved: false})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resolveLocationResponse{
		Resolved: true,
		Location: location,
	})
}
