package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"expensio/backend/config"
)

var (
	ErrRateUnavailable = errors.New("目标币种汇率不可用")
	ErrRequestFailed   = errors.New("汇率服务请求失败")
)

// Converter 汇率转换接口
// 调用方约定：转换失败时回退为原始金额，绝不阻塞审批流程
type Converter interface {
	Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error)
}

// Client exchangerate-api 风格接口的 HTTP 客户端
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient 创建汇率服务客户端
func NewClient(cfg *config.CurrencyConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

// ratesResponse GET {base_url}/{from} 的响应体
type ratesResponse struct {
	Base  string                     `json:"base"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

// Convert 将 amount 从 from 币种转换为 to 币种，结果保留两位小数
// 同币种直接返回原金额，不发起请求
func (c *Client) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s", c.baseURL, from), nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("%w: 状态码 %d", ErrRequestFailed, resp.StatusCode)
	}

	var body ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	rate, ok := body.Rates[to]
	if !ok || rate.IsZero() {
		return decimal.Zero, ErrRateUnavailable
	}

	return amount.Mul(rate).Round(2), nil
}
