package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/sukima/internal/metrics"
	"github.com/hitoshi/sukima/internal/middleware"
)

// HealthChecker はヘルスチェックのDB疎通確認インターフェース。
// *sql.DB を受け付けることができる。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// ヘルスチェック
	HealthChecker HealthChecker

	// メトリクス
	Collector metrics.MetricsCollector
	Gatherer  prometheus.Gatherer

	// サービス
	ScheduleService ScheduleServiceInterface
	IntervalService IntervalServiceInterface
	UserService     UserServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RecoveryMiddleware → SecurityHeaders → CORSMiddleware → LoggingMiddleware
//	→ RateLimitMiddleware(GeneralMiddleware)
//
// /health と /metrics はレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(slog.Default()))

	scheduleHandler := NewScheduleHandler(deps.ScheduleService, deps.Collector)
	intervalHandler := NewIntervalHandler(deps.IntervalService, deps.Collector)
	userHandler := NewUserHandler(deps.UserService)

	// --- 運用エンドポイント（レート制限の外） ---

	r.Get("/health", healthHandler(deps.HealthChecker))

	if deps.Gatherer != nil {
		r.Get("/metrics", metrics.Handler(deps.Gatherer).ServeHTTP)
	}

	// --- APIルート ---
	// ミドルウェアスタック: RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// スケジュール照会（照会専用レート制限を追加）
		r.With(deps.RateLimiter.QueryMiddleware()).
			Get("/api/schedule", scheduleHandler.GetSchedule)

		// 時間帯管理
		r.Route("/api/intervals", func(r chi.Router) {
			r.Post("/", intervalHandler.CreateInterval)
			r.Get("/", intervalHandler.ListIntervals)

			r.Route("/{id}", func(r chi.Router) {
				r.Patch("/", intervalHandler.UpdateInterval)
				r.Delete("/", intervalHandler.DeleteInterval)

				// 繰り返しの単一オカレンス編集
				r.Route("/occurrences/{date}", func(r chi.Router) {
					r.Put("/", intervalHandler.ModifyOccurrence)
					r.Delete("/", intervalHandler.RemoveOccurrence)
				})
			})
		})

		// ユーザー管理
		r.Route("/api/users", func(r chi.Router) {
			r.Post("/", userHandler.RegisterUser)
			r.Get("/", userHandler.ListUsers)
			r.Get("/{id}", userHandler.GetUser)
		})
	})

	return r
}

// healthHandler はDB疎通を確認するヘルスチェックハンドラーを返す。
func healthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		if checker != nil {
			if err := checker.PingContext(ctx); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				http.Error(w, "unhealthy", http.StatusServiceUnavailable)
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}
}
