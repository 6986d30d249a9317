package taxonomy

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/hitoshi/birdjournal/internal/model"
)

// --- モック定義 ---

type mockLoader struct {
	fetchTaxonomyFunc func(ctx context.Context) ([]model.TaxonomyEntry, error)
	callCount         int
}

func (m *mockLoader) FetchTaxonomy(ctx context.Context) ([]model.TaxonomyEntry, error) {
	m.callCount++
	return m.fetchTaxonomyFunc(ctx)
}

// --- compile-time interface checks ---

var _ Loader = (*mockLoader)(nil)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEntries() []model.TaxonomyEntry {
	return []model.TaxonomyEntry{
		{ComName: "Common Chaffinch", SciName: "Fringilla coelebs", SpeciesCode: "comcha"},
		{ComName: "European Robin", SciName: "Erithacus rubecula", SpeciesCode: "eurrob1"},
		{ComName: "Great Cormorant", SciName: "Phalacrocorax carbo", SpeciesCode: "grecor"},
		{ComName: "Eurasian Blackbird", SciName: "Turdus merula", SpeciesCode: "eurbla"},
	}
}

// --- テスト ---

func TestLoad_CachesEntries(t *testing.T) {
	loader := &mockLoader{
		fetchTaxonomyFunc: func(ctx context.Context) ([]model.TaxonomyEntry, error) {
			return testEntries(), nil
		},
	}
	cache := NewCache(loader, testLogger())

	if cache.Ready() {
		t.Error("cache should not be ready before Load")
	}

	if err := cache.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if !cache.Ready() {
		t.Error("cache should be ready after Load")
	}
	if cache.Size() != 4 {
		t.Errorf("Size() = %d, want 4", cache.Size())
	}
}

func TestLoad_DoesNotBlockReadsDuringFetch(t *testing.T) {
	// 取得が長引いてもReadyやSizeの読み取りが待たされないこと
	fetchStarted := make(chan struct{})
	release := make(chan struct{})
	loader := &mockLoader{
		fetchTaxonomyFunc: func(ctx context.Context) ([]model.TaxonomyEntry, error) {
			close(fetchStarted)
			<-release
			return testEntries(), nil
		},
	}
	cache := NewCache(loader, testLogger())

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := cache.Load(context.Background()); err != nil {
			t.Errorf("Load returned error: %v", err)
		}
	}()

	<-fetchStarted
	if cache.Ready() {
		t.Error("cache should not be ready while fetch is in flight")
	}
	if cache.Size() != 0 {
		t.Errorf("Size() during fetch = %d, want 0", cache.Size())
	}
	if got := cache.Filter(""); len(got) != 0 {
		t.Errorf("Filter during fetch returned %d entries, want 0", len(got))
	}

	close(release)
	<-done

	if !cache.Ready() {
		t.Error("cache should be ready after Load completes")
	}
	if cache.Size() != 4 {
		t.Errorf("Size() = %d, want 4", cache.Size())
	}
}

func TestLoad_OnlyFetchesOnce(t *testing.T) {
	loader := &mockLoader{
		fetchTaxonomyFunc: func(ctx context.Context) ([]model.TaxonomyEntry, error) {
			return testEntries(), nil
		},
	}
	cache := NewCache(loader, testLogger())

	if err := cache.Load(context.Background()); err != nil {
		t.Fatalf("first Load returned error: %v", err)
	}
	if err := cache.Load(context.Background()); err != nil {
		t.Fatalf("second Load returned error: %v", err)
	}

	if loader.callCount != 1 {
		t.Errorf("loader called %d times, want 1", loader.callCount)
	}
}

func TestLoad_FetchFailure_DegradesToEmptyList(t *testing.T) {
	loader := &mockLoader{
		fetchTaxonomyFunc: func(ctx context.Context) ([]model.TaxonomyEntry, error) {
			return nil, errors.New("upstream unreachable")
		},
	}
	cache := NewCache(loader, testLogger())

	// 取得失敗でもエラーは返さない
	if err := cache.Load(context.Background()); err != nil {
		t.Fatalf("Load should not return error on fetch failure, got %v", err)
	}

	// 空リストで準備完了として扱われる
	if !cache.Ready() {
		t.Error("cache should be ready even after fetch failure")
	}
	if cache.Size() != 0 {
		t.Errorf("Size() = %d, want 0", cache.Size())
	}
	if got := cache.Filter(""); len(got) != 0 {
		t.Errorf("Filter(\"\") returned %d entries, want 0", len(got))
	}
}

func TestFilter_EmptyQuery_ReturnsAllEntries(t *testing.T) {
	cache := loadedCache(t)

	got := cache.Filter("")
	if len(got) != 4 {
		t.Fatalf("Filter(\"\") returned %d entries, want 4", len(got))
	}

	// ソースの返却順を保持すること
	if got[0].SpeciesCode != "comcha" || got[3].SpeciesCode != "eurbla" {
		t.Errorf("Filter(\"\") should preserve source order, got %v", got)
	}
}

func TestFilter_CaseInsensitiveSubstringMatch(t *testing.T) {
	cache := loadedCache(t)

	tests := []struct {
		query string
		want  []string // 期待されるspeciesCode（順序を含む）
	}{
		{query: "obin", want: []string{"eurrob1"}},
		{query: "ROBIN", want: []string{"eurrob1"}},
		{query: "eur", want: []string{"eurrob1", "eurbla"}},
		{query: "great cormorant", want: []string{"grecor"}},
		{query: "no-such-bird", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := cache.Filter(tt.query)
			if len(got) != len(tt.want) {
				t.Fatalf("Filter(%q) returned %d entries, want %d", tt.query, len(got), len(tt.want))
			}
			for i, code := range tt.want {
				if got[i].SpeciesCode != code {
					t.Errorf("Filter(%q)[%d].SpeciesCode = %q, want %q", tt.query, i, got[i].SpeciesCode, code)
				}
			}
		})
	}
}

func TestFilter_DoesNotMatchScientificName(t *testing.T) {
	cache := loadedCache(t)

	// 検索対象は英名のみ。学名にはマッチしない。
	got := cache.Filter("turdus")
	if len(got) != 0 {
		t.Errorf("Filter(\"turdus\") returned %d entries, want 0 (sciName should not match)", len(got))
	}
}

func TestFilter_ReturnedSliceIsIndependent(t *testing.T) {
	cache := loadedCache(t)

	got := cache.Filter("")
	got[0].ComName = "mutated"

	again := cache.Filter("")
	if again[0].ComName != "Common Chaffinch" {
		t.Errorf("cache entry was mutated via returned slice: %q", again[0].ComName)
	}
}

func TestFindBySpeciesCode_Found(t *testing.T) {
	cache := loadedCache(t)

	entry := cache.FindBySpeciesCode("eurrob1")
	if entry == nil {
		t.Fatal("FindBySpeciesCode(\"eurrob1\") returned nil")
	}
	if entry.ComName != "European Robin" {
		t.Errorf("ComName = %q, want %q", entry.ComName, "European Robin")
	}
	if entry.SciName != "Erithacus rubecula" {
		t.Errorf("SciName = %q, want %q", entry.SciName, "Erithacus rubecula")
	}
}

func TestFindBySpeciesCode_NotFound_ReturnsNil(t *testing.T) {
	cache := loadedCache(t)

	if entry := cache.FindBySpeciesCode("nosuch1"); entry != nil {
		t.Errorf("FindBySpeciesCode(\"nosuch1\") = %v, want nil", entry)
	}
}

func loadedCache(t *testing.T) *Cache {
	t.Helper()
	loader := &mockLoader{
		fetchTaxonomyFunc: func(ctx context.Context) ([]model.TaxonomyEntry, error) {
			return testEntries(), nil
		},
	}
	cache := NewCache(loader, testLogger())
	if err := cache.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	return cache
}
