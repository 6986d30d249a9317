package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/birdjournal/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	CSRFConfig        middleware.CSRFConfig
	RateLimiter       *middleware.RateLimiter

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// 観察記録
	SightingService SightingServiceInterface

	// 鳥検索
	Taxonomy TaxonomyInterface

	// 周辺観察
	NearbyService NearbyServiceInterface

	// 位置解決
	LocationResolver LocationResolverInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORSMiddleware → SessionMiddleware → CSRFMiddleware → RateLimitMiddleware(GeneralMiddleware)
//
// 認証ルート（/auth/*）とヘルスチェックはミドルウェアチェーンの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// CORS ミドルウェアを最上位に適用（全ルートに効く）
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	sightingHandler := NewSightingHandler(deps.SightingService)
	birdHandler := NewBirdHandler(deps.Taxonomy)
	nearbyHandler := NewNearbyHandler(deps.NearbyService)
	locationHandler := NewLocationHandler(deps.LocationResolver)

	// --- 認証不要のルート ---

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig).ServeHTTP)

	// 認証ルート
	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.SignUp)
		r.Post("/login", authHandler.SignIn)
		r.Post("/logout", authHandler.SignOut)
		r.Get("/me", authHandler.Me)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → CSRF → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// 観察記録
		r.Route("/api/sightings", func(r chi.Router) {
			// 書き込みには専用レート制限を追加で適用する
			r.With(deps.RateLimiter.SightingWriteMiddleware()).Post("/", sightingHandler.Create)

			r.Get("/", sightingHandler.List)
			r.Get("/stream", sightingHandler.Stream)

			r.Route("/{id}", func(r chi.Router) {
				r.With(deps.RateLimiter.SightingWriteMiddleware()).Delete("/", sightingHandler.Delete)
				r.Get("/share", sightingHandler.Share)
			})
		})

		// 鳥検索
		r.Route("/api/birds", func(r chi.Router) {
			r.Get("/", birdHandler.Search)
			r.Get("/{speciesCode}/links", birdHandler.Links)
		})

		// 周辺観察
		r.Get("/api/observations/nearby", nearbyHandler.List)

		// 位置解決
		r.Post("/api/location/resolve", locationHandler.Resolve)
	})

	return r
}
