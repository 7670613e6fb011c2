package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"toytrack/internal/models"

	"go.uber.org/zap"
)

// OrderService 订单处理入口（由 service.OrderProcessor 实现）
type OrderService interface {
	ProcessNext(ctx context.Context, personName string) (models.ActionResponse, error)
	ListOrders(ctx context.Context) ([]models.Order, error)
	CreateOrder(ctx context.Context, order models.Order) (models.Order, error)
}

// Handler HTTP 处理器集合
type Handler struct {
	orders OrderService
	auth   *AuthStore
	tokens *TokenStore
	logger *zap.Logger
}

// NewHandler 创建处理器
func NewHandler(orders OrderService, auth *AuthStore, tokens *TokenStore, logger *zap.Logger) *Handler {
	return &Handler{
		orders: orders,
		auth:   auth,
		tokens: tokens,
		logger: logger,
	}
}

type credentials struct {
	Account  string `json:"account"`
	Password string `json:"password"`
}

type sessionResult struct {
	Token string `json:"token"`
	User  string `json:"user"`
}

// Login 登录
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	user, ok := h.auth.Verify(creds.Account, creds.Password)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, Fail("invalid account or password"))
		return
	}

	token, err := h.tokens.Issue(r.Context(), user.Account)
	if err != nil {
		h.logger.Error("Failed to issue token", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to create session"))
		return
	}

	writeJSON(w, http.StatusOK, Ok(sessionResult{Token: token, User: user.Account}))
}

// Signup 注册并建立会话
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	if creds.Account == "" || creds.Password == "" {
		writeJSON(w, http.StatusBadRequest, Fail("account and password are required"))
		return
	}

	user, ok := h.auth.Register(creds.Account, creds.Password)
	if !ok {
		writeJSON(w, http.StatusConflict, Fail("account already exists"))
		return
	}

	token, err := h.tokens.Issue(r.Context(), user.Account)
	if err != nil {
		h.logger.Error("Failed to issue token", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to create session"))
		return
	}

	writeJSON(w, http.StatusOK, Ok(sessionResult{Token: token, User: user.Account}))
}

// Session 校验持久化 Token（客户端启动时的免登录恢复）
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	account, ok := h.authorize(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, Ok(sessionResult{Token: bearerToken(r), User: account}))
}

// Logout 吊销当前 Token
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if err := h.tokens.Revoke(r.Context(), token); err != nil {
		h.logger.Warn("Failed to revoke token", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, Ok(true))
}

// ProcessNext 设备端扫描入口
// 响应保持设备契约的裸 JSON 形状 {"action","led"}，不加包裹
// （固件解析越简单越好）
func (h *Handler) ProcessNext(w http.ResponseWriter, r *http.Request) {
	var req models.ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PersonName == "" {
		writeJSON(w, http.StatusBadRequest, models.ActionResponse{})
		return
	}

	resp, err := h.orders.ProcessNext(r.Context(), req.PersonName)
	if err != nil {
		h.logger.Error("Process-next failed",
			zap.String("person", req.PersonName),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, models.ActionResponse{})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// ListOrders 全量拉取
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r); !ok {
		return
	}

	orders, err := h.orders.ListOrders(r.Context())
	if err != nil {
		h.logger.Error("Failed to list orders", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to list orders"))
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	writeJSON(w, http.StatusOK, Ok(orders))
}

// CreateOrder 创建订单
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r); !ok {
		return
	}

	var order models.Order
	if err := json.NewDecoder(r.Body).Decode(&order); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	created, err := h.orders.CreateOrder(r.Context(), order)
	if err != nil {
		h.logger.Warn("Failed to create order", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(created))
}

// ExportOrders 导出订单清单 Excel
func (h *Handler) ExportOrders(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r); !ok {
		return
	}

	orders, err := h.orders.ListOrders(r.Context())
	if err != nil {
		h.logger.Error("Failed to list orders for export", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to export orders"))
		return
	}

	data, err := GenerateOrdersExport(orders)
	if err != nil {
		h.logger.Error("Failed to generate export", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to export orders"))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="orders.xlsx"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Health 健康检查（设备端连通性探测依赖此端点）
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// authorize 校验 Bearer Token；失败时已写出 401
func (h *Handler) authorize(w http.ResponseWriter, r *http.Request) (string, bool) {
	token := bearerToken(r)
	account, ok := h.tokens.Validate(r.Context(), token)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, Fail("invalid or expired session"))
		return "", false
	}
	return account, true
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
