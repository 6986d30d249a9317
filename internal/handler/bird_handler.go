package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/birdjournal/internal/ebird"
	"github.com/hitoshi/birdjournal/internal/model"
)

// TaxonomyInterface は鳥検索ハンドラーが必要とする分類リストインターフェース。
type TaxonomyInterface interface {
	Ready() bool
	Filter(query string) []model.TaxonomyEntry
	FindBySpeciesCode(code string) *model.TaxonomyEntry
}

// BirdHandler は鳥検索のHTTPハンドラー。
type BirdHandler struct {
	taxonomy TaxonomyInterface
}

// NewBirdHandler はBirdHandlerを生成する。
func NewBirdHandler(taxonomy TaxonomyInterface) *BirdHandler {
	return &BirdHandler{taxonomy: taxonomy}
}

// birdResponse は分類エントリのAPIレスポンス。
type birdResponse struct {
	ComName     string `json:"com_name"`
	SciName     string `json:"sci_name"`
	SpeciesCode string `json:"species_code"`
}

// birdListResponse は鳥検索のAPIレスポンス。
type birdListResponse struct {
	Ready bool           `json:"ready"`
	Birds []birdResponse `json:"birds"`
}

// Search は英名の部分一致で分類リストを検索する。
// GET /api/birds?q=robin
// 空クエリの場合は全件を返す。キャッシュ未ロード時は ready=false の空リストを返す。
func (h *BirdHandler) Search(w http.ResponseWriter, r *http.Request) {
	resp := birdListResponse{
		Ready: h.taxonomy.Ready(),
		Birds: []birdResponse{},
	}

	if resp.Ready {
		entries := h.taxonomy.Filter(r.URL.Query().Get("q"))
		resp.Birds = make([]birdResponse, len(entries))
		for i, e := range entries {
			resp.Birds[i] = birdResponse{
				ComName:     e.ComName,
				SciName:     e.SciName,
				SpeciesCode: e.SpeciesCode,
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// Links は種コードに対応する外部リンクを返す。
// GET /api/birds/{speciesCode}/links
// 種コードの検証は行わない。リンクは種コードから機械的に組み立てられる。
func (h *BirdHandler) Links(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "speciesCode")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"species_url":       ebird.SpeciesURL(code),
		"media_catalog_url": ebird.MediaCatalogURL(code),
	})
}
