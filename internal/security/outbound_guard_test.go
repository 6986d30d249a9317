package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// TestNewOutboundGuard はOutboundGuardの生成をテストする。
func TestNewOutboundGuard(t *testing.T) {
	guard := NewOutboundGuard()
	if guard == nil {
		t.Fatal("NewOutboundGuard() returned nil")
	}
}

// TestNewSafeClient はSSRF防止付きHTTPクライアントの生成をテストする。
func TestNewSafeClient(t *testing.T) {
	guard := NewOutboundGuard()
	client := guard.NewSafeClient(10*time.Second, 10*1024*1024)
	if client == nil {
		t.Fatal("NewSafeClient() returned nil")
	}
}

// TestNewSafeClientTimeout はタイムアウト設定が反映されることをテストする。
func TestNewSafeClientTimeout(t *testing.T) {
	guard := NewOutboundGuard()
	timeout := 5 * time.Second
	client := guard.NewSafeClient(timeout, 10*1024*1024)
	if client.Timeout != timeout {
		t.Errorf("expected timeout %v, got %v", timeout, client.Timeout)
	}
}

// TestNewSafeClientHasTransport はSafeClientにカスタムTransportが設定されていることをテストする。
// safeurlはnet.DialerのControlフックでIPアドレス検証を行うため、
// Transportが標準のhttp.DefaultTransportではないことを確認する。
func TestNewSafeClientHasTransport(t *testing.T) {
	guard := NewOutboundGuard()
	client := guard.NewSafeClient(5*time.Second, 10*1024*1024)

	if client.Transport == nil {
		t.Fatal("expected custom Transport to be set, got nil")
	}
	if client.Transport == http.DefaultTransport {
		t.Fatal("expected custom Transport, got http.DefaultTransport")
	}
}

// TestNewSafeClientBlocksLoopback はSafeClientがループバックへのリクエストをブロックすることをテストする。
// httptestサーバーは127.0.0.1で起動されるため、safeurlがブロックする。
func TestNewSafeClientBlocksLoopback(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	guard := NewOutboundGuard()
	client := guard.NewSafeClient(5*time.Second, 10*1024*1024)

	_, err := client.Get(ts.URL)
	if err == nil {
		t.Fatal("expected error for loopback address request, got nil")
	}
}

// TestValidateEndpoint_PublicURL は公開URLの検証が成功することをテストする。
func TestValidateEndpoint_PublicURL(t *testing.T) {
	guard := NewOutboundGuard()

	publicURLs := []string{
		"https://api.ebird.org/v2",
		"https://nominatim.openstreetmap.org",
		"http://geocoder.example.org/reverse",
	}

	for _, u := range publicURLs {
		t.Run(u, func(t *testing.T) {
			err := guard.ValidateEndpoint(u)
			if err != nil {
				t.Errorf("ValidateEndpoint(%q) returned error: %v", u, err)
			}
		})
	}
}

// TestValidateEndpoint_PrivateIP はプライベートIPアドレスの拒否をテストする。
func TestValidateEndpoint_PrivateIP(t *testing.T) {
	guard := NewOutboundGuard()

	privateURLs := []string{
		"http://10.0.0.1/api",
		"http://10.255.255.255/api",
		"http://172.16.0.1/api",
		"http://172.31.255.255/api",
		"http://192.168.0.1/api",
		"http://192.168.1.100/api",
	}

	for _, u := range privateURLs {
		t.Run(u, func(t *testing.T) {
			err := guard.ValidateEndpoint(u)
			if err == nil {
				t.Errorf("ValidateEndpoint(%q) should have returned error for private IP", u)
			}
		})
	}
}

// TestValidateEndpoint_LoopbackAddress はループバックアドレスの拒否をテストする。
func TestValidateEndpoint_LoopbackAddress(t *testing.T) {
	guard := NewOutboundGuard()

	loopbackURLs := []string{
		"http://127.0.0.1/api",
		"http://127.0.0.2/api",
		"http://localhost/api",
	}

	for _, u := range loopbackURLs {
		t.Run(u, func(t *testing.T) {
			err := guard.ValidateEndpoint(u)
			if err == nil {
				t.Errorf("ValidateEndpoint(%q) should have returned error for loopback address", u)
			}
		})
	}
}

// TestValidateEndpoint_MetadataIP はクラウドメタデータIPアドレスの拒否をテストする。
func TestValidateEndpoint_MetadataIP(t *testing.T) {
	guard := NewOutboundGuard()

	metadataURLs := []string{
		"http://169.254.169.254/latest/meta-data/",                        // AWS
		"http://169.254.169.254/metadata/instance?api-version=2021-02-01", // Azure
		"http://169.254.169.254/computeMetadata/v1/",                      // GCP
	}

	for _, u := range metadataURLs {
		t.Run(u, func(t *testing.T) {
			err := guard.ValidateEndpoint(u)
			if err == nil {
				t.Errorf("ValidateEndpoint(%q) should have returned error for metadata IP", u)
			}
		})
	}
}

// TestValidateEndpoint_InvalidURL は無効なURLの検証が失敗することをテストする。
func TestValidateEndpoint_InvalidURL(t *testing.T) {
	guard := NewOutboundGuard()

	invalidURLs := []string{
		"",
		"not-a-url",
		"ftp://example.com/api",
		"file:///etc/passwd",
		"gopher://example.com",
	}

	for _, u := range invalidURLs {
		t.Run(u, func(t *testing.T) {
			err := guard.ValidateEndpoint(u)
			if err == nil {
				t.Errorf("ValidateEndpoint(%q) should have returned error for invalid URL", u)
			}
		})
	}
}

// TestValidateEndpoint_IPv6Loopback はIPv6ループバックアドレスの拒否をテストする。
func TestValidateEndpoint_IPv6Loopback(t *testing.T) {
	guard := NewOutboundGuard()

	err := guard.ValidateEndpoint("http://[::1]/api")
	if err == nil {
		t.Error("ValidateEndpoint(\"http://[::1]/api\") should have returned error for IPv6 loopback")
	}
}

// --- compile-time interface checks ---

var _ OutboundGuardService = (*outboundGuard)(nil)
