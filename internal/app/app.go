package app

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"futures-trader/internal/config"
	"futures-trader/internal/exchange"
	"futures-trader/internal/execution"
)

// gateway 聚合下单与价格查询两个通道，便于在测试中以假交易所替换。
type gateway interface {
	PlaceOrder(ctx context.Context, order exchange.OrderRequest) exchange.OrderResult
	TickerPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// Outcome 是一次运行的结果：单笔委托或 TWAP 记录，二者有且仅有其一。
type Outcome struct {
	Single *exchange.OrderResult
	TWAP   execution.Record
}

// App 聚合核心依赖并驱动完整的下单流程。
type App struct {
	cfg      *config.Config
	logger   *zap.Logger
	gateway  gateway
	retrier  *execution.Retrier
	adjuster *execution.Adjuster
	twap     *execution.TWAPExecutor
}

// New 创建 App 实例。客户端构造内部完成一次服务器时间同步。
func New(cfg *config.Config, logger *zap.Logger) *App {
	client := exchange.NewClient(cfg.Exchange, logger)
	return newWithGateway(cfg, logger, client)
}

func newWithGateway(cfg *config.Config, logger *zap.Logger, gw gateway) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{
		cfg:      cfg,
		logger:   logger,
		gateway:  gw,
		retrier:  execution.NewRetrier(gw, cfg.Execution.Retry, logger),
		adjuster: execution.NewAdjuster(gw, cfg.Execution.MinNotional, logger),
		twap:     execution.NewTWAPExecutor(gw, logger),
	}
}

// Run 执行一条已校验的下单意图。
// TWAP 走切片执行器；MARKET/LIMIT 先做最小名义价值调整，
// LIMIT 未指定价格时按现价自动定价，再经重试包装提交。
func (a *App) Run(ctx context.Context, intent execution.OrderIntent) (*Outcome, error) {
	if intent.Type == execution.IntentTWAP {
		record := a.twap.Run(ctx, intent.TWAPPlan())
		a.logger.Info("TWAP 执行完成", zap.Int("slices", len(record)))
		return &Outcome{TWAP: record}, nil
	}

	quantity, err := a.adjuster.Adjust(ctx, intent.Symbol, intent.Quantity)
	if err != nil {
		return nil, err
	}
	intent.Quantity = quantity

	if intent.Type == execution.IntentLimit && !intent.Price.IsPositive() {
		price, err := a.autoLimitPrice(ctx, intent.Symbol, intent.Side)
		if err != nil {
			return nil, err
		}
		intent.Price = price
	}

	a.logger.Info("提交委托",
		zap.String("symbol", intent.Symbol),
		zap.String("side", string(intent.Side)),
		zap.String("type", string(intent.Type)),
		zap.String("quantity", intent.Quantity.String()),
	)

	result := a.retrier.PlaceOrder(ctx, intent.Order())
	if !result.Ok() {
		a.logger.Error("委托未成交",
			zap.Int64("code", result.Code),
			zap.String("msg", result.Message),
		)
	}

	return &Outcome{Single: &result}, nil
}

// autoLimitPrice 按现价对未定价的 LIMIT 意图取价：买单加1，卖单减1。
func (a *App) autoLimitPrice(ctx context.Context, symbol string, side exchange.Side) (decimal.Decimal, error) {
	current, err := a.gateway.TickerPrice(ctx, symbol)
	if err != nil {
		return decimal.Zero, fmt.Errorf("app: 自动定价失败: %w", err)
	}

	one := decimal.NewFromInt(1)
	price := current.Add(one)
	if side == exchange.SideSell {
		price = current.Sub(one)
	}

	a.logger.Info("LIMIT 未指定价格，按现价自动定价",
		zap.String("symbol", symbol),
		zap.String("current", current.String()),
		zap.String("price", price.String()),
	)

	return price, nil
}
