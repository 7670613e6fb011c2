package action

import (
	"context"
	"fmt"
	"time"

	"toytrack/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Requester 动作请求器
// 对单次扫描执行一次同步请求-响应交换；超时上限由配置给定，
// 调用方必须先确认连通性（断网时跳过请求而不是尝试）
type Requester struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewRequester 创建动作请求器
func NewRequester(baseURL string, timeout time.Duration, logger *zap.Logger) *Requester {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Requester{
		httpClient: client,
		logger:     logger,
	}
}

// ProcessNext 请求指定人员的下一个待处理动作
// 传输失败、非 2xx、响应缺字段都返回错误；对反馈而言这些失败等价，
// 具体原因只进日志。除服务端自身的状态变更外无副作用
func (r *Requester) ProcessNext(ctx context.Context, personName string) (models.ActionResponse, error) {
	var out models.ActionResponse

	resp, err := r.httpClient.R().
		SetContext(ctx).
		SetBody(models.ActionRequest{PersonName: personName}).
		SetResult(&out).
		Post("/api/process-next")

	if err != nil {
		r.logger.Warn("Action request transport failure",
			zap.String("person", personName),
			zap.Error(err),
		)
		return models.ActionResponse{}, fmt.Errorf("process-next request failed: %w", err)
	}

	if resp.IsError() {
		r.logger.Warn("Action request returned error status",
			zap.String("person", personName),
			zap.Int("status", resp.StatusCode()),
		)
		return models.ActionResponse{}, fmt.Errorf("process-next returned status %d", resp.StatusCode())
	}

	// 解析失败（缺少 action 字段）等同于请求失败，不向上抛崩溃
	if out.Action == "" {
		r.logger.Warn("Action response malformed",
			zap.String("person", personName),
			zap.String("body", string(resp.Body())),
		)
		return models.ActionResponse{}, fmt.Errorf("process-next response malformed")
	}

	return out, nil
}

// Healthy 探测服务端可达性（扫描循环的连通性检查）
func (r *Requester) Healthy(ctx context.Context) bool {
	resp, err := r.httpClient.R().SetContext(ctx).Get("/health")
	return err == nil && resp.IsSuccess()
}
