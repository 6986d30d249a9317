package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/hitoshi/birdjournal/internal/ebird"
	"github.com/hitoshi/birdjournal/internal/geo"
	"github.com/hitoshi/birdjournal/internal/model"
	"github.com/hitoshi/birdjournal/internal/nearby"
)

// NearbyServiceInterface は周辺観察ハンドラーが必要とするサービスインターフェース。
type NearbyServiceInterface interface {
	FetchNearbyFromSource(ctx context.Context, source geo.Source) []model.NearbyObservation
}

// NearbyHandler は周辺観察情報のHTTPハンドラー。
type NearbyHandler struct {
	service NearbyServiceInterface
}

// NewNearbyHandler はNearbyHandlerを生成する。
func NewNearbyHandler(service NearbyServiceInterface) *NearbyHandler {
	return &NearbyHandler{service: service}
}

// nearbyObservationResponse は周辺観察のAPIレスポンス。
type nearbyObservationResponse struct {
	ComName     string `json:"com_name"`
	SciName     string `json:"sci_name"`
	HowMany     int    `json:"how_many"`
	Time        string `json:"time"`     // 表示用フォーマット（DD.MM.YYYY, HH:MM）
	Location    string `json:"location"` // 正規化済みの地名
	SpeciesCode string `json:"species_code"`
	SpeciesURL  string `json:"species_url"`
}

// nearbyListResponse は周辺観察一覧のAPIレスポンス。
type nearbyListResponse struct {
	Observations []nearbyObservationResponse `json:"observations"`
}

// List は座標周辺の最近の観察情報を返す。
// GET /api/observations/nearby?lat=60.17&lng=24.94
// lat/lngが未指定の場合は位置情報拒否とみなし、外部APIを呼ばずに空リストを返す。
func (h *NearbyHandler) List(w http.ResponseWriter, r *http.Request) {
	latStr := r.URL.Query().Get("lat")
	lngStr := r.URL.Query().Get("lng")

	// 位置情報の提供を拒否した（パラメータなし）場合は拒否経路として扱い、
	// サービス側が外部APIを呼ばずに空リストへ縮退する
	var source geo.Source = geo.DeniedSource{}
	if latStr != "" || lngStr != "" {
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidCoordinateError("lat"))
			return
		}
		lng, err := strconv.ParseFloat(lngStr, 64)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidCoordinateError("lng"))
			return
		}
		if lat < -90 || lat > 90 {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidCoordinateError("latは-90〜90の範囲で指定してください"))
			return
		}
		if lng < -180 || lng > 180 {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidCoordinateError("lngは-180〜180の範囲で指定してください"))
			return
		}
		source = geo.StaticSource{Coords: geo.Coordinates{Lat: lat, Lon: lng}}
	}

	observations := h.service.FetchNearbyFromSource(r.Context(), source)
	writeNearbyResponse(w, observations)
}

// writeNearbyResponse は周辺観察一覧を表示用に整形して書き込む。
func writeNearbyResponse(w http.ResponseWriter, observations []model.NearbyObservation) {
	resp := nearbyListResponse{
		Observations: make([]nearbyObservationResponse, len(observations)),
	}
	for i, o := range observations {
		resp.Observations[i] = nearbyObservationResponse{
			ComName:     o.ComName,
			SciName:     o.SciName,
			HowMany:     o.HowMany,
			Time:        nearby.FormatObsTime(o.ObsDt),
			Location:    nearby.NormalizeLocName(o.LocName),
			SpeciesCode: o.SpeciesCode,
			SpeciesURL:  ebird.SpeciesURL(o.SpeciesCode),
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
