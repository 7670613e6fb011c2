package client

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"toytrack/internal/models"
	"toytrack/internal/store"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// OrderPublisher 出站流发布（新建订单广播给其他在线客户端）
type OrderPublisher interface {
	PublishOrder(order models.Order) error
}

// envelope 服务端统一响应包裹
type envelope[T any] struct {
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
	Result  T      `json:"result"`
}

// sessionResult 登录/注册/会话恢复的返回
type sessionResult struct {
	Token string `json:"token"`
	User  string `json:"user"`
}

// Client 鉴权 REST 客户端
// 持有会话；拉取、创建、登出都以会话 Token 为凭证
type Client struct {
	httpClient *resty.Client
	session    models.Session
	orderStore *store.OrderStore
	publisher  OrderPublisher
	tokenFile  string
	logger     *zap.Logger
}

// NewClient 创建 REST 客户端
func NewClient(baseURL string, tokenFile string, orderStore *store.OrderStore, publisher OrderPublisher, logger *zap.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		httpClient: httpClient,
		orderStore: orderStore,
		publisher:  publisher,
		tokenFile:  tokenFile,
		logger:     logger,
	}
}

// Session 当前会话快照
func (c *Client) Session() models.Session {
	return c.session
}

// Login 登录
// 失败以错误返回给调用方（带用户可见信息），不重试
func (c *Client) Login(ctx context.Context, account, password string) error {
	return c.authenticate(ctx, "/api/login", account, password)
}

// Signup 注册并建立会话
func (c *Client) Signup(ctx context.Context, account, password string) error {
	return c.authenticate(ctx, "/api/signup", account, password)
}

func (c *Client) authenticate(ctx context.Context, path, account, password string) error {
	var env envelope[sessionResult]
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(map[string]string{"account": account, "password": password}).
		SetResult(&env).
		Post(path)
	if err != nil {
		return fmt.Errorf("auth request failed: %w", err)
	}
	if resp.IsError() || env.Result.Token == "" {
		if env.Message != "" {
			return fmt.Errorf("authentication failed: %s", env.Message)
		}
		return fmt.Errorf("authentication failed: status %d", resp.StatusCode())
	}

	c.session = models.Session{
		User:      env.Result.User,
		Token:     env.Result.Token,
		Connected: true,
	}
	c.saveToken()
	c.logger.Info("Session established", zap.String("user", c.session.User))
	return nil
}

// RestoreSession 启动时从持久化 Token 恢复会话
// 没有 Token 或校验失败时返回 false，调用方再走登录
func (c *Client) RestoreSession(ctx context.Context) bool {
	if c.tokenFile == "" {
		return false
	}
	data, err := os.ReadFile(c.tokenFile)
	if err != nil {
		return false
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return false
	}

	var env envelope[sessionResult]
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetResult(&env).
		Get("/api/session")
	if err != nil || resp.IsError() || env.Result.User == "" {
		c.logger.Info("Persisted session invalid, login required")
		return false
	}

	c.session = models.Session{
		User:      env.Result.User,
		Token:     token,
		Connected: true,
	}
	c.logger.Info("Session restored", zap.String("user", c.session.User))
	return true
}

// FetchOrders 拉取全部订单并整体替换本地集合
// 失败时不做任何局部应用，本地集合保持原样
func (c *Client) FetchOrders(ctx context.Context) ([]models.Order, error) {
	var env envelope[[]models.Order]
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetAuthToken(c.session.Token).
		SetResult(&env).
		Get("/api/orders")
	if err != nil {
		return nil, fmt.Errorf("fetch orders failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch orders returned status %d", resp.StatusCode())
	}

	c.orderStore.ReplaceAll(env.Result)
	c.logger.Info("Orders fetched", zap.Int("count", len(env.Result)))
	return env.Result, nil
}

// CreateOrder 创建订单
// 成功后：新订单发布到在线流（其他客户端可见）并插入本地最前；
// 失败时返回错误且不做任何本地变更
func (c *Client) CreateOrder(ctx context.Context, order models.Order) (models.Order, error) {
	var env envelope[models.Order]
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetAuthToken(c.session.Token).
		SetBody(order).
		SetResult(&env).
		Post("/api/orders")
	if err != nil {
		return models.Order{}, fmt.Errorf("create order failed: %w", err)
	}
	if resp.IsError() || env.Result.ID == "" {
		return models.Order{}, fmt.Errorf("create order returned status %d: %s", resp.StatusCode(), env.Message)
	}

	created := env.Result
	if c.publisher != nil {
		if err := c.publisher.PublishOrder(created); err != nil {
			// 广播失败不回滚创建；其他客户端等下次全量刷新
			c.logger.Warn("Failed to publish created order", zap.Error(err))
		}
	}
	c.orderStore.Prepend(created)
	c.logger.Info("Order created", zap.String("order_id", created.ID))
	return created, nil
}

// Logout 登出：吊销 Token、断开流、清空本地集合
// 调用方需先停掉流消费者；完成后订阅者看不到任何残留状态
func (c *Client) Logout(ctx context.Context) {
	if c.session.Token != "" {
		_, err := c.httpClient.R().
			SetContext(ctx).
			SetAuthToken(c.session.Token).
			Post("/api/logout")
		if err != nil {
			c.logger.Warn("Logout request failed", zap.Error(err))
		}
	}
	c.session = models.Session{}
	c.orderStore.Clear()
	if c.tokenFile != "" {
		_ = os.Remove(c.tokenFile)
	}
	c.logger.Info("Session cleared")
}

// saveToken 持久化会话 Token（下次启动免登录）
func (c *Client) saveToken() {
	if c.tokenFile == "" {
		return
	}
	if err := os.WriteFile(c.tokenFile, []byte(c.session.Token), 0600); err != nil {
		c.logger.Warn("Failed to persist session token", zap.Error(err))
	}
}

// MQTTPublisher 通过 MQTT 客户端实现 OrderPublisher
type MQTTPublisher struct {
	Topic string
	QoS   byte
	Pub   interface {
		Publish(topic string, qos byte, retained bool, payload []byte) error
	}
}

// PublishOrder 序列化订单并发布到流主题
func (p *MQTTPublisher) PublishOrder(order models.Order) error {
	payload, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("failed to marshal order: %w", err)
	}
	return p.Pub.Publish(p.Topic, p.QoS, false, payload)
}
