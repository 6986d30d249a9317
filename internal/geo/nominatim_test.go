package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNominatimGeocoder_ReverseGeocode(t *testing.T) {
	var gotPath string
	var gotQuery map[string]string
	var gotUserAgent string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = map[string]string{
			"format": r.URL.Query().Get("format"),
			"lat":    r.URL.Query().Get("lat"),
			"lon":    r.URL.Query().Get("lon"),
		}
		gotUserAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"Kauppatori","address":{"city":"Helsinki"}}`))
	}))
	defer ts.Close()

	geocoder := NewNominatimGeocoder(ts.Client(), testLogger(), nil, ts.URL)

	place, err := geocoder.ReverseGeocode(context.Background(), Coordinates{Lat: 60.168, Lon: 24.953})
	if err != nil {
		t.Fatalf("ReverseGeocode returned error: %v", err)
	}

	if gotPath != "/reverse" {
		t.Errorf("request path = %q, want %q", gotPath, "/reverse")
	}
	if gotQuery["format"] != "jsonv2" {
		t.Errorf("format = %q, want %q", gotQuery["format"], "jsonv2")
	}
	if gotQuery["lat"] != "60.168" {
		t.Errorf("lat = %q, want %q", gotQuery["lat"], "60.168")
	}
	if gotQuery["lon"] != "24.953" {
		t.Errorf("lon = %q, want %q", gotQuery["lon"], "24.953")
	}
	if gotUserAgent == "" {
		t.Error("expected User-Agent header to be set")
	}

	if place.Name != "Kauppatori" {
		t.Errorf("Name = %q, want %q", place.Name, "Kauppatori")
	}
	if place.City != "Helsinki" {
		t.Errorf("City = %q, want %q", place.City, "Helsinki")
	}
}

func TestNominatimGeocoder_CityFallbackPriority(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "cityが最優先",
			body: `{"name":"X","address":{"city":"Helsinki","town":"T","village":"V","municipality":"M"}}`,
			want: "Helsinki",
		},
		{
			name: "cityがなければtown",
			body: `{"name":"X","address":{"town":"Porvoo","village":"V","municipality":"M"}}`,
			want: "Porvoo",
		},
		{
			name: "townがなければvillage",
			body: `{"name":"X","address":{"village":"Fiskars","municipality":"M"}}`,
			want: "Fiskars",
		},
		{
			name: "最後のフォールバックはmunicipality",
			body: `{"name":"X","address":{"municipality":"Raasepori"}}`,
			want: "Raasepori",
		},
		{
			name: "全て空なら空文字列",
			body: `{"name":"X","address":{}}`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			geocoder := NewNominatimGeocoder(ts.Client(), testLogger(), nil, ts.URL)
			place, err := geocoder.ReverseGeocode(context.Background(), Coordinates{Lat: 60, Lon: 24})
			if err != nil {
				t.Fatalf("ReverseGeocode returned error: %v", err)
			}
			if place.City != tt.want {
				t.Errorf("City = %q, want %q", place.City, tt.want)
			}
		})
	}
}

func TestNominatimGeocoder_ErrorStatus_ReturnsError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	geocoder := NewNominatimGeocoder(ts.Client(), testLogger(), nil, ts.URL)

	_, err := geocoder.ReverseGeocode(context.Background(), Coordinates{Lat: 60, Lon: 24})
	if err == nil {
		t.Fatal("expected error for 429 response, got nil")
	}
}

func TestNominatimGeocoder_InvalidJSON_ReturnsError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer ts.Close()

	geocoder := NewNominatimGeocoder(ts.Client(), testLogger(), nil, ts.URL)

	_, err := geocoder.ReverseGeocode(context.Background(), Coordinates{Lat: 60, Lon: 24})
	if err == nil {
		t.Fatal("expected error for invalid JSON, got nil")
	}
}
