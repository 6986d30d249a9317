package geo

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
)

// --- モック定義 ---

type mockGeocoder struct {
	reverseGeocodeFunc func(ctx context.Context, coords Coordinates) (*Place, error)
	callCount          int
}

func (m *mockGeocoder) ReverseGeocode(ctx context.Context, coords Coordinates) (*Place, error) {
	m.callCount++
	return m.reverseGeocodeFunc(ctx, coords)
}

// --- compile-time interface checks ---

var _ ReverseGeocoder = (*mockGeocoder)(nil)
var _ Source = StaticSource{}
var _ Source = DeniedSource{}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- テスト ---

func TestResolveCurrentLocation_ReturnsFormattedLocation(t *testing.T) {
	source := StaticSource{Coords: Coordinates{Lat: 60.16785, Lon: 24.95255}}
	geocoder := &mockGeocoder{
		reverseGeocodeFunc: func(ctx context.Context, coords Coordinates) (*Place, error) {
			return &Place{Name: "Kauppatori", City: "Helsinki"}, nil
		},
	}
	resolver := NewResolver(geocoder, testLogger())

	got, err := resolver.ResolveCurrentLocation(context.Background(), source)
	if err != nil {
		t.Fatalf("ResolveCurrentLocation returned error: %v", err)
	}

	want := "Kauppatori, Helsinki (60.168, 24.953)"
	if got != want {
		t.Errorf("ResolveCurrentLocation = %q, want %q", got, want)
	}
}

func TestResolveCurrentLocation_PermissionDenied(t *testing.T) {
	geocoder := &mockGeocoder{
		reverseGeocodeFunc: func(ctx context.Context, coords Coordinates) (*Place, error) {
			return &Place{Name: "Kauppatori", City: "Helsinki"}, nil
		},
	}
	resolver := NewResolver(geocoder, testLogger())

	got, err := resolver.ResolveCurrentLocation(context.Background(), DeniedSource{})
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if got != "" {
		t.Errorf("ResolveCurrentLocation = %q, want empty string", got)
	}

	// 許可拒否時はジオコーダを呼び出さない
	if geocoder.callCount != 0 {
		t.Errorf("geocoder called %d times, want 0", geocoder.callCount)
	}
}

func TestResolveLocation_GeocodeFailure_ReturnsError(t *testing.T) {
	source := StaticSource{Coords: Coordinates{Lat: 60.16, Lon: 24.93}}
	geocoder := &mockGeocoder{
		reverseGeocodeFunc: func(ctx context.Context, coords Coordinates) (*Place, error) {
			return nil, errors.New("service unavailable")
		},
	}
	resolver := NewResolver(geocoder, testLogger())

	_, err := resolver.ResolveLocation(context.Background(), source.Coords)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestFormatPlace_RoundsToThreeDecimals(t *testing.T) {
	tests := []struct {
		name   string
		place  *Place
		coords Coordinates
		want   string
	}{
		{
			name:   "ヘルシンキ中心部",
			place:  &Place{Name: "Kauppatori", City: "Helsinki"},
			coords: Coordinates{Lat: 60.16785, Lon: 24.95255},
			want:   "Kauppatori, Helsinki (60.168, 24.953)",
		},
		{
			name:   "負の座標",
			place:  &Place{Name: "Plaza", City: "Buenos Aires"},
			coords: Coordinates{Lat: -34.60368, Lon: -58.38157},
			want:   "Plaza, Buenos Aires (-34.604, -58.382)",
		},
		{
			name:   "整数座標は0埋めされる",
			place:  &Place{Name: "Null Island", City: "Atlantic"},
			coords: Coordinates{Lat: 0, Lon: 0},
			want:   "Null Island, Atlantic (0.000, 0.000)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatPlace(tt.place, tt.coords)
			if got != tt.want {
				t.Errorf("FormatPlace = %q, want %q", got, tt.want)
			}
		})
	}
}
