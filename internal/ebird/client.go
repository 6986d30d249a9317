// Package ebird はeBird API連携機能を提供する。
// 分類リスト（taxonomy）の取得と周辺の観察記録フィードの取得を含む。
package ebird

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hitoshi/birdjournal/internal/metrics"
	"github.com/hitoshi/birdjournal/internal/model"
)

const (
	// defaultBaseURL はeBird API v2のベースURL。
	defaultBaseURL = "https://api.ebird.org/v2"
	// apiTokenHeader はAPIトークンを渡すリクエストヘッダー名。
	apiTokenHeader = "X-eBirdApiToken"
)

// メトリクスのsourceラベル値。
const (
	sourceTaxonomy = "ebird_taxonomy"
	sourceNearby   = "ebird_nearby"
)

// Config はClientの設定。
type Config struct {
	BaseURL  string // 空の場合はdefaultBaseURLを使用
	APIToken string
	Region   string // 分類リスト取得対象の国コード（例: "FI"）
	Locale   string // 分類リストの言語（例: "en"）
}

// Client はeBird APIのクライアント。
// 全リクエストにAPIトークンヘッダーを付与する。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	collector  metrics.MetricsCollector // nilの場合は記録しない
	config     Config
}

// NewClient はClientの新しいインスタンスを生成する。
// collectorはnilを許容する（メトリクス収集なしで動作する）。
func NewClient(httpClient *http.Client, logger *slog.Logger, collector metrics.MetricsCollector, config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		collector:  collector,
		config:     config,
	}
}

// taxonomyRecord はeBird分類APIのレスポンス1件を表す。
// 必要なフィールドのみデコードする。
type taxonomyRecord struct {
	ComName     string `json:"comName"`
	SciName     string `json:"sciName"`
	SpeciesCode string `json:"speciesCode"`
}

// FetchTaxonomy は設定された地域・言語の全種リストを取得する。
// 返却順はAPIの返却順をそのまま保持する（再ソートしない）。
func (c *Client) FetchTaxonomy(ctx context.Context) ([]model.TaxonomyEntry, error) {
	reqURL := fmt.Sprintf("%s/ref/taxonomy/ebird?fmt=json&locale=%s&cat=species&countryCode=%s",
		c.config.BaseURL, url.QueryEscape(c.config.Locale), url.QueryEscape(c.config.Region))

	body, err := c.get(ctx, reqURL, sourceTaxonomy)
	if err != nil {
		return nil, err
	}

	var records []taxonomyRecord
	if err := json.Unmarshal(body, &records); err != nil {
		c.recordFailure(sourceTaxonomy, "parse")
		c.logger.Error("分類リストのレスポンスのパースに失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	entries := make([]model.TaxonomyEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, model.TaxonomyEntry{
			ComName:     r.ComName,
			SciName:     r.SciName,
			SpeciesCode: r.SpeciesCode,
		})
	}

	c.recordSuccess(sourceTaxonomy)
	return entries, nil
}

// observationRecord はeBird周辺観察APIのレスポンス1件を表す。
type observationRecord struct {
	ComName     string `json:"comName"`
	SciName     string `json:"sciName"`
	HowMany     int    `json:"howMany"`
	ObsDt       string `json:"obsDt"`
	LocName     string `json:"locName"`
	SpeciesCode string `json:"speciesCode"`
}

// FetchNearbyObservations は指定座標周辺の最近の観察記録を取得する。
// フィードの並び順をそのまま返す（ソート・フィルタ・重複排除は行わない）。
func (c *Client) FetchNearbyObservations(ctx context.Context, lat, lon float64) ([]model.NearbyObservation, error) {
	reqURL := fmt.Sprintf("%s/data/obs/geo/recent?lat=%s&lng=%s",
		c.config.BaseURL,
		strconv.FormatFloat(lat, 'f', -1, 64),
		strconv.FormatFloat(lon, 'f', -1, 64),
	)

	body, err := c.get(ctx, reqURL, sourceNearby)
	if err != nil {
		return nil, err
	}

	var records []observationRecord
	if err := json.Unmarshal(body, &records); err != nil {
		c.recordFailure(sourceNearby, "parse")
		c.logger.Error("周辺観察フィードのレスポンスのパースに失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	observations := make([]model.NearbyObservation, 0, len(records))
	for _, r := range records {
		observations = append(observations, model.NearbyObservation{
			ComName:     r.ComName,
			SciName:     r.SciName,
			HowMany:     r.HowMany,
			ObsDt:       r.ObsDt,
			LocName:     r.LocName,
			SpeciesCode: r.SpeciesCode,
		})
	}

	c.recordSuccess(sourceNearby)
	return observations, nil
}

// get は指定URLへのGETリクエストを実行し、レスポンスボディを返す。
func (c *Client) get(ctx context.Context, reqURL, source string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set(apiTokenHeader, c.config.APIToken)
	req.Header.Set("User-Agent", "BirdJournal/1.0")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if c.collector != nil {
		c.collector.RecordUpstreamLatency(source, time.Since(start))
	}
	if err != nil {
		c.recordFailure(source, "transport")
		c.logger.Error("eBird APIの呼び出しに失敗しました",
			slog.String("source", source),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.recordFailure(source, "http_status")
		c.logger.Error("eBird APIがエラーステータスを返しました",
			slog.String("source", source),
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, fmt.Errorf("eBird APIがステータス %d を返しました", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.recordFailure(source, "read_body")
		c.logger.Error("レスポンスボディの読み取りに失敗しました",
			slog.String("source", source),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	return body, nil
}

func (c *Client) recordSuccess(source string) {
	if c.collector != nil {
		c.collector.RecordUpstreamSuccess(source)
	}
}

func (c *Client) recordFailure(source, reason string) {
	if c.collector != nil {
		c.collector.RecordUpstreamFailure(source, reason)
	}
}
