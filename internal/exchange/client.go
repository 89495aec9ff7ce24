package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"futures-trader/internal/config"
)

const (
	serverTimePath  = "/fapi/v1/time"
	tickerPricePath = "/fapi/v1/ticker/price"
	orderPath       = "/fapi/v1/order"

	apiKeyHeader = "X-MBX-APIKEY"
)

// Client 封装 Binance USDⓈ-M 合约 REST 接口的签名调用。
// 凭证与时间偏移在构造后不再变化，可在单一调用方下顺序复用；
// 内部没有同步机制，不支持并发使用。
type Client struct {
	cfg        config.ExchangeConfig
	logger     *zap.Logger
	httpClient *http.Client
	signer     *Signer
	baseURL    string
	timeOffset int64
}

// NewClient 构造客户端并完成一次服务器时间同步。
// 同步失败不阻断交易：偏移按 0 处理，时钟偏差过大时交易所会以普通错误拒单。
func NewClient(cfg config.ExchangeConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Client{
		cfg:        cfg,
		logger:     logger,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		signer:     NewSigner(cfg.APISecret),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
	}

	c.timeOffset = c.syncServerTime()

	return c
}

// TimeOffset 返回本地时钟与服务器时钟的毫秒偏移。
func (c *Client) TimeOffset() int64 {
	return c.timeOffset
}

func (c *Client) timestamp() int64 {
	return time.Now().UnixMilli() + c.timeOffset
}

func (c *Client) syncServerTime() int64 {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.TimeSyncTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+serverTimePath, nil)
	if err != nil {
		c.logger.Warn("构造时间同步请求失败，偏移按0处理", zap.Error(err))
		return 0
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("获取服务器时间失败，偏移按0处理", zap.Error(err))
		return 0
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("服务器时间接口返回异常状态，偏移按0处理", zap.Int("status", resp.StatusCode))
		return 0
	}

	var payload struct {
		ServerTime int64 `json:"serverTime"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.logger.Warn("解析服务器时间失败，偏移按0处理", zap.Error(err))
		return 0
	}

	offset := payload.ServerTime - time.Now().UnixMilli()
	c.logger.Info("服务器时间同步完成", zap.Int64("offset_ms", offset))
	return offset
}

// TickerPrice 查询指定交易对的最新成交价。
func (c *Client) TickerPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	endpoint := c.baseURL + tickerPricePath + "?symbol=" + url.QueryEscape(symbol)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("exchange: 构造价格请求失败: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("exchange: 查询价格失败: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Zero, fmt.Errorf("exchange: 读取价格应答失败: %w", err)
	}

	c.logger.Debug("价格查询应答",
		zap.String("symbol", symbol),
		zap.Int("status", resp.StatusCode),
		zap.ByteString("body", body),
	)

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("exchange: 价格接口返回 HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload struct {
		Price string `json:"price"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return decimal.Zero, fmt.Errorf("exchange: 解析价格应答失败: %w", err)
	}

	price, err := decimal.NewFromString(payload.Price)
	if err != nil {
		return decimal.Zero, fmt.Errorf("exchange: 非法价格 %q: %w", payload.Price, err)
	}

	return price, nil
}

// PlaceOrder 提交一笔签名委托。任何传输层或交易所层失败都折叠为
// OrderResult 的错误记录返回，不会以 error 形式越过该边界。
func (c *Client) PlaceOrder(ctx context.Context, order OrderRequest) OrderResult {
	params := order.params(c.timestamp(), c.cfg.RecvWindow)
	body := c.signer.Sign(params)
	endpoint := c.baseURL + orderPath

	c.logger.Debug("提交委托",
		zap.String("url", endpoint),
		zap.String("params", params.Encode()),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(body))
	if err != nil {
		c.logger.Error("构造委托请求失败", zap.Error(err))
		return OrderResult{Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(apiKeyHeader, c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("委托请求失败", zap.String("url", endpoint), zap.Error(err))
		return OrderResult{Message: err.Error()}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("读取委托应答失败", zap.Error(err))
		return OrderResult{Message: err.Error()}
	}

	c.logger.Debug("委托应答",
		zap.Int("status", resp.StatusCode),
		zap.ByteString("body", respBody),
	)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return OrderResult{Payload: respBody}
	}

	var apiErr struct {
		Code int64  `json:"code"`
		Msg  string `json:"msg"`
	}
	if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Msg != "" {
		return OrderResult{Code: apiErr.Code, Message: apiErr.Msg}
	}

	return OrderResult{Message: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))}
}
