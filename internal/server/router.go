package server

import (
	"net/http"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（无需第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

// NewRouter 创建路由器
func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterRoutes 注册全部 API 路由
func (r *Router) RegisterRoutes(h *Handler) {
	r.Handle("/health", methodOnly(http.MethodGet, h.Health))

	r.Handle("/api/login", methodOnly(http.MethodPost, h.Login))
	r.Handle("/api/signup", methodOnly(http.MethodPost, h.Signup))
	r.Handle("/api/session", methodOnly(http.MethodGet, h.Session))
	r.Handle("/api/logout", methodOnly(http.MethodPost, h.Logout))

	r.Handle("/api/process-next", methodOnly(http.MethodPost, h.ProcessNext))

	r.Handle("/api/orders", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			h.ListOrders(w, req)
		case http.MethodPost:
			h.CreateOrder(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	r.Handle("/api/orders/export", methodOnly(http.MethodGet, h.ExportOrders))
}

func methodOnly(method string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != method {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		next(w, req)
	}
}
