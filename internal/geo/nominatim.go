package geo

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
)

// defaultNominatimBaseURL はOSM Nominatimの公開エンドポイント。
const defaultNominatimBaseURL = "https://nominatim.openstreetmap.org"

// sourceGeocoder はメトリクスのsourceラベル値。
const sourceGeocoder = "geocoder"

// NominatimGeocoder はNominatim互換の逆ジオコーディングAPIクライアント。
type NominatimGeocoder struct {
	httpClient *http.Client
	logger     *slog.Logger
	collector  metrics.MetricsCollector // nilの場合は記録しない
	baseURL    string
}

// NewNominatimGeocoder はNominatimGeocoderの新しいインスタンスを生成する。
// baseURLが空の場合は公開エンドポイントを使用する。
func NewNominatimGeocoder(httpClient *http.Client, logger *slog.Logger, collector metrics.MetricsCollector, baseURL string) *NominatimGeocoder {
	if baseURL == "" {
		baseURL = defaultNominatimBaseURL
	}
	return &NominatimGeocoder{
		httpClient: httpClient,
		logger:     logger,
		collector:  collector,
		baseURL:    baseURL,
	}
}

// reverseResponse はNominatim reverse APIのレスポンスを表す。
// 必要なフィールドのみデコードする。
type reverseResponse struct {
	Name    string `json:"name"`
	Address struct {
		City         string `json:"city"`
		Town         string `json:"town"`
		Village      string `json:"village"`
		Municipality string `json:"municipality"`
	} `json:"address"`
}

// ReverseGeocode は座標を地点名と市町村名に変換する。
func (g *NominatimGeocoder) ReverseGeocode(ctx context.Context, coords Coordinates) (*Place, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(coords.Lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(coords.Lon, 'f', -1, 64))
	reqURL := g.baseURL + "/reverse?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("User-Agent", "BirdJournal/1.0")

	start := time.Now()
	resp, err := g.httpClient.Do(req)
	if g.collector != nil {
		g.collector.RecordUpstreamLatency(sourceGeocoder, time.Since(start))
	}
	if err != nil {
		g.recordFailure("transport")
		g.logger.Error("ジオコーダの呼び出しに失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		g.recordFailure("http_status")
		g.logger.Error("ジオコーダがエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, fmt.Errorf("ジオコーダがステータス %d を返しました", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		g.recordFailure("read_body")
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	var result reverseResponse
	if err := json.Unmarshal(body, &result); err != nil {
		g.recordFailure("parse")
		g.logger.Error("ジオコーダのレスポンスのパースに失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	if g.collector != nil {
		g.collector.RecordUpstreamSuccess(sourceGeocoder)
	}

	return &Place{
		Name: result.Name,
		City: pickCity(result),
	}, nil
}

// pickCity は市区町村相当のフィールドを優先順位付きで選択する。
// Nominatimは地域によりcity/town/village/municipalityのいずれかを返す。
func pickCity(r reverseResponse) string {
	switch {
	case r.Address.City != "":
		return r.Address.City
	case r.Address.Town != "":
		return r.Address.Town
	case r.Address.Village != "":
		return r.Address.Village
	default:
		return r.Address.Municipality
	}
}

func (g *NominatimGeocoder) recordFailure(reason string) {
	if g.collector != nil {
		g.collector.RecordUpstreamFailure(sourceGeocoder, reason)
	}
}

// compile-time interface check
var _ ReverseGeocoder = (*NominatimGeocoder)(nil)
