// Package server 提供推荐服务的 HTTP 接口。
//
//	POST /api/v1/recommendations  人口属性 → 推荐列表
//	GET  /healthz                 存活检查
//	GET  /readyz                  目录已加载时返回 200
//	GET  /metrics                 Prometheus 指标
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rushteam/novelrec/core"
	"github.com/rushteam/novelrec/pkg/logging"
	"github.com/rushteam/novelrec/recommend"
)

// Recommender 是 HTTP 层依赖的推荐能力，*recommend.Service 实现了它。
type Recommender interface {
	Recommend(ctx context.Context, req recommend.Request) (*recommend.Response, error)
}

// Config HTTP 服务配置
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server 包装 http.Server 与路由。
type Server struct {
	cfg      Config
	rec      Recommender
	catalog  core.Catalog
	validate *validator.Validate
	router   chi.Router
	http     *http.Server
}

// New 创建 Server；catalog 仅用于就绪检查，可以为 nil。
func New(cfg Config, rec Recommender, catalog core.Catalog) *Server {
	s := &Server{
		cfg:      cfg,
		rec:      rec,
		catalog:  catalog,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	s.router = s.routes()
	s.http = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler 返回根路由，测试中直接挂到 httptest。
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(accessLog)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/recommendations", s.handleRecommend)
	})
	return r
}

// ListenAndServe 启动服务，ctx 取消时优雅退出。
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", s.cfg.Addr).Msg("http server listening")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logging.Info().Msg("http server shutting down")
	return s.http.Shutdown(shutdownCtx)
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logging.Debug().
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	})
}
