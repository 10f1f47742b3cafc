// Package api 提供推理服务的 HTTP 接口（chi 路由）。
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rushteam/airsat/service"
)

// DefaultMaxBodyBytes 单条预测请求体的上限
const DefaultMaxBodyBytes int64 = 64 << 10

// Server 持有推理服务及 HTTP 层配置
type Server struct {
	svc          service.MLService
	maxBodyBytes int64
}

// Option 配置 Server
type Option func(*Server)

// WithMaxBodyBytes 设置请求体上限，非正数时保持默认值
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

func NewServer(svc service.MLService, opts ...Option) *Server {
	s := &Server{svc: svc, maxBodyBytes: DefaultMaxBodyBytes}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router 返回挂好全部路由与中间件的 handler
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", s.Health)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/predict/satisfaction", s.PredictSatisfaction)

	return r
}
