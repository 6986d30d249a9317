// Package taxonomy は種の参照リストのセッションキャッシュを提供する。
package taxonomy

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/hitoshi/birdjournal/internal/model"
)

// Loader は分類リストの取得インターフェース。
// ebird.Clientを抽象化してテスタビリティを向上させる。
type Loader interface {
	FetchTaxonomy(ctx context.Context) ([]model.TaxonomyEntry, error)
}

// Cache は分類リストのインメモリキャッシュ。
// プロセス起動後の初回Loadで全件を取り込み、以後はイミュータブルとして扱う。
// 再取得は次回のコールドスタートのみ。
type Cache struct {
	loader Loader
	logger *slog.Logger

	mu      sync.RWMutex
	loaded  bool
	loading bool
	entries []model.TaxonomyEntry // ソースの返却順を保持
}

// NewCache はCacheの新しいインスタンスを生成する。
func NewCache(loader Loader, logger *slog.Logger) *Cache {
	return &Cache{
		loader: loader,
		logger: logger,
	}
}

// Load は分類リストを取得してキャッシュする。
// 取得失敗時は空リストをキャッシュしてnilを返す（フォームをブロックしない）。
// 既にロード済み、または他のゴルーチンが取得中の場合は何もしない。
// 取得はロックの外で行う。ロックを握ったまま外部呼び出しをすると、
// 取得が終わるまでReadyやFilterの読み取りが止まってしまう。
func (c *Cache) Load(ctx context.Context) error {
	c.mu.Lock()
	if c.loaded || c.loading {
		c.mu.Unlock()
		return nil
	}
	c.loading = true
	c.mu.Unlock()

	entries, err := c.loader.FetchTaxonomy(ctx)
	if err != nil {
		// 失敗は空の検索可能リストに縮退する。画面は「準備完了」として描画される。
		c.logger.Error("分類リストの取得に失敗しました。空リストで継続します",
			slog.String("error", err.Error()),
		)
		entries = []model.TaxonomyEntry{}
	}

	c.mu.Lock()
	c.entries = entries
	c.loaded = true
	c.loading = false
	c.mu.Unlock()

	c.logger.Info("分類リストをロードしました",
		slog.Int("species_count", len(entries)),
	)
	return nil
}

// Ready はキャッシュがロード試行済みかを返す。
// 取得に失敗していても（空リストでも）trueを返す。
func (c *Cache) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Filter は英名（comName）に対する大文字小文字を区別しない部分一致検索を行う。
// 空クエリの場合はキャッシュ全件をそのままの順序で返す。
// 毎回キャッシュ全件に対して再評価するステートレスな操作で、
// 返却されるスライスはキャッシュと独立している。
func (c *Cache) Filter(query string) []model.TaxonomyEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if query == "" {
		result := make([]model.TaxonomyEntry, len(c.entries))
		copy(result, c.entries)
		return result
	}

	q := strings.ToLower(query)
	result := []model.TaxonomyEntry{}
	for _, e := range c.entries {
		if strings.Contains(strings.ToLower(e.ComName), q) {
			result = append(result, e)
		}
	}
	return result
}

// FindBySpeciesCode は種コードで分類エントリを検索する。
// 見つからない場合はnilを返す。外部フィードとの結合キーの検証に使用する。
func (c *Cache) FindBySpeciesCode(code string) *model.TaxonomyEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, e := range c.entries {
		if e.SpeciesCode == code {
			entry := e
			return &entry
		}
	}
	return nil
}

// Size はキャッシュ済みエントリ数を返す。
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
