// Package nearby は周辺の観察記録フィードの取得と表示用整形を提供する。
package nearby

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hitoshi/birdjournal/internal/geo"
	"github.com/hitoshi/birdjournal/internal/model"
)

// Fetcher は周辺観察フィードの取得インターフェース。
// ebird.Clientを抽象化してテスタビリティを向上させる。
type Fetcher interface {
	FetchNearbyObservations(ctx context.Context, lat, lon float64) ([]model.NearbyObservation, error)
}

// Service は周辺観察フィードのサービス層。
// 位置解決 → フィード取得 → 縮退ポリシーの適用を統括する。
type Service struct {
	fetcher Fetcher
	logger  *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(fetcher Fetcher, logger *slog.Logger) *Service {
	return &Service{
		fetcher: fetcher,
		logger:  logger,
	}
}

// FetchNearby は指定座標周辺の観察記録をフィードの順序のまま返す。
// ネットワーク・パース失敗時は空リストに縮退し、診断ログのみ残す。
// 分類キャッシュと同じ縮退ポリシーで、一覧系の読み取り経路の挙動を揃える。
func (s *Service) FetchNearby(ctx context.Context, lat, lon float64) []model.NearbyObservation {
	observations, err := s.fetcher.FetchNearbyObservations(ctx, lat, lon)
	if err != nil {
		s.logger.Error("周辺観察フィードの取得に失敗しました。空リストで継続します",
			slog.String("error", err.Error()),
		)
		return []model.NearbyObservation{}
	}
	return observations
}

// FetchNearbyFromSource は位置取得元から座標を解決してフィードを取得する。
// 位置の許可が拒否された場合はネットワーク呼び出しを一切行わず、
// 空リストを返す（空状態の表示であってエラーではない）。
func (s *Service) FetchNearbyFromSource(ctx context.Context, source geo.Source) []model.NearbyObservation {
	coords, err := source.CurrentCoordinates(ctx)
	if err != nil {
		if errors.Is(err, geo.ErrPermissionDenied) {
			s.logger.Info("位置情報の利用が拒否されたため、周辺観察の取得をスキップします")
		} else {
			s.logger.Error("現在座標の取得に失敗しました",
				slog.String("error", err.Error()),
			)
		}
		return []model.NearbyObservation{}
	}

	return s.FetchNearby(ctx, coords.Lat, coords.Lon)
}
