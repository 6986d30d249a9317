// Package geo は現在地の解決と逆ジオコーディングを提供する。
package geo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrPermissionDenied は位置情報の利用が拒否されたことを表す。
// 拒否は正常系の結果であり、呼び出し側の画面を失敗させない。
var ErrPermissionDenied = errors.New("location permission denied")

// Coordinates はWGS84の座標を表す。
type Coordinates struct {
	Lat float64
	Lon float64
}

// Place は逆ジオコーディング結果の地名を表す。
type Place struct {
	Name string // 地点名（通り、広場など）
	City string // 市町村名
}

// Source は現在座標の取得インターフェース。
// デバイス側の位置情報取得を抽象化する。許可が拒否された場合は
// ErrPermissionDeniedを返す。
type Source interface {
	CurrentCoordinates(ctx context.Context) (Coordinates, error)
}

// ReverseGeocoder は座標から地名への変換インターフェース。
type ReverseGeocoder interface {
	ReverseGeocode(ctx context.Context, coords Coordinates) (*Place, error)
}

// Resolver は座標取得と逆ジオコーディングを組み合わせ、
// 表示用の位置文字列を生成する。
// 結果は一度きりのデフォルト値であり、以後の編集はユーザーに委ねられる。
type Resolver struct {
	geocoder ReverseGeocoder
	logger   *slog.Logger
}

// NewResolver はResolverの新しいインスタンスを生成する。
func NewResolver(geocoder ReverseGeocoder, logger *slog.Logger) *Resolver {
	return &Resolver{
		geocoder: geocoder,
		logger:   logger,
	}
}

// ResolveCurrentLocation は渡されたSourceから現在地を解決し、
// 表示用の位置文字列を返す。
// 許可が拒否された場合はErrPermissionDeniedを返し、呼び出し側の
// 位置フィールドは現状維持となる（画面は失敗しない）。
// 座標の読み取りは許可の確認が完了してからのみ行われる。
func (r *Resolver) ResolveCurrentLocation(ctx context.Context, source Source) (string, error) {
	coords, err := source.CurrentCoordinates(ctx)
	if err != nil {
		if errors.Is(err, ErrPermissionDenied) {
			r.logger.Info("位置情報の利用が拒否されました")
			return "", ErrPermissionDenied
		}
		return "", fmt.Errorf("現在座標の取得に失敗しました: %w", err)
	}

	return r.ResolveLocation(ctx, coords)
}

// ResolveLocation は既知の座標を逆ジオコーディングし、表示用の位置文字列を返す。
func (r *Resolver) ResolveLocation(ctx context.Context, coords Coordinates) (string, error) {
	place, err := r.geocoder.ReverseGeocode(ctx, coords)
	if err != nil {
		return "", fmt.Errorf("逆ジオコーディングに失敗しました: %w", err)
	}

	return FormatPlace(place, coords), nil
}

// FormatPlace は地名と座標を "<name>, <city> (<lat>, <lon>)" 形式に整形する。
// 緯度経度は小数点以下3桁に丸める。
func FormatPlace(place *Place, coords Coordinates) string {
	return fmt.Sprintf("%s, %s (%.3f, %.3f)", place.Name, place.City, coords.Lat, coords.Lon)
}

// StaticSource は常に同じ座標を返すSource実装。
// HTTPリクエストのパラメータ由来の座標をResolverに渡す用途とテストで使用する。
type StaticSource struct {
	Coords Coordinates
}

// CurrentCoordinates は保持している座標を返す。
func (s StaticSource) CurrentCoordinates(ctx context.Context) (Coordinates, error) {
	return s.Coords, nil
}

// DeniedSource は常にErrPermissionDeniedを返すSource実装。
// 許可が得られなかった経路を表す。
type DeniedSource struct{}

// CurrentCoordinates はErrPermissionDeniedを返す。
func (DeniedSource) CurrentCoordinates(ctx context.Context) (Coordinates, error) {
	return Coordinates{}, ErrPermissionDenied
}
