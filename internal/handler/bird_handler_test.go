package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/birdjournal/internal/model"
)

// --- モック定義 ---

type mockTaxonomy struct {
	ready   bool
	entries []model.TaxonomyEntry
}

func (m *mockTaxonomy) Ready() bool { return m.ready }

func (m *mockTaxonomy) Filter(query string) []model.TaxonomyEntry {
	if query == "" {
		return m.entries
	}
	result := []model.TaxonomyEntry{}
	for _, e := range m.entries {
		if e.ComName == query {
			result = append(result, e)
		}
	}
	return result
}

func (m *mockTaxonomy) FindBySpeciesCode(code string) *model.TaxonomyEntry {
	for _, e := range m.entries {
		if e.SpeciesCode == code {
			entry := e
			return &entry
		}
	}
	return nil
}

var _ TaxonomyInterface = (*mockTaxonomy)(nil)

// --- テスト ---

func TestBirdSearchHandler_ReturnsMatches(t *testing.T) {
	taxonomy := &mockTaxonomy{
		ready: true,
		entries: []model.TaxonomyEntry{
			{ComName: "European Robin", SciName: "Erithacus rubecula", SpeciesCode: "eurrob1"},
			{ComName: "Mallard", SciName: "Anas platyrhynchos", SpeciesCode: "mallar3"},
		},
	}
	h := NewBirdHandler(taxonomy)

	req := httptest.NewRequest(http.MethodGet, "/api/birds?q=Mallard", nil)
	w := httptest.NewRecorder()

	h.Search(w, req)

	var resp birdListResponse
	if err := json.NewDecoder(w.Result().Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Ready {
		t.Error("expected ready = true")
	}
	if len(resp.Birds) != 1 {
		t.Fatalf("birds length = %d, want 1", len(resp.Birds))
	}
	if resp.Birds[0].SpeciesCode != "mallar3" {
		t.Errorf("species_code = %q, want %q", resp.Birds[0].SpeciesCode, "mallar3")
	}
}

func TestBirdSearchHandler_NotReadyReturnsEmptyList(t *testing.T) {
	h := NewBirdHandler(&mockTaxonomy{ready: false})

	req := httptest.NewRequest(http.MethodGet, "/api/birds", nil)
	w := httptest.NewRecorder()

	h.Search(w, req)

	var resp birdListResponse
	if err := json.NewDecoder(w.Result().Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Ready {
		t.Error("expected ready = false")
	}
	if len(resp.Birds) != 0 {
		t.Errorf("birds length = %d, want 0", len(resp.Birds))
	}
}

func TestBirdLinksHandler_BuildsURLsFromSpeciesCode(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/birds/{speciesCode}/links", NewBirdHandler(&mockTaxonomy{}).Links)

	req := httptest.NewRequest(http.MethodGet, "/api/birds/eurrob1/links", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	var resp map[string]string
	if err := json.NewDecoder(w.Result().Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["species_url"] != "https://ebird.org/species/eurrob1" {
		t.Errorf("species_url = %q", resp["species_url"])
	}
	if resp["media_catalog_url"] != "https://media.ebird.org/catalog?sort=rating_rank_desc&taxonCode=eurrob1" {
		t.Errorf("media_catalog_url = %q", resp["media_catalog_url"])
	}
}
