package execution

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"futures-trader/internal/exchange"
)

// IntentType 表示 CLI 层面的订单种类。TWAP 在交易所侧展开为一组市价单。
type IntentType string

const (
	IntentMarket IntentType = "MARKET"
	IntentLimit  IntentType = "LIMIT"
	IntentTWAP   IntentType = "TWAP"
)

// orderPlacer 抽象下单通道，方便以假网关测试。
type orderPlacer interface {
	PlaceOrder(ctx context.Context, order exchange.OrderRequest) exchange.OrderResult
}

// priceFetcher 抽象现价查询。
type priceFetcher interface {
	TickerPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// OrderIntent 是校验后的下单意图，由 CLI 解析产生。
// Price 为零值表示未指定；LIMIT 意图未指定价格时按现价自动定价。
type OrderIntent struct {
	Symbol      string
	Side        exchange.Side
	Type        IntentType
	Quantity    decimal.Decimal
	Price       decimal.Decimal
	TimeInForce exchange.TimeInForce
	Slices      int
	Interval    time.Duration
}

// Order 将 MARKET/LIMIT 意图转换为交易所委托。
func (i OrderIntent) Order() exchange.OrderRequest {
	order := exchange.OrderRequest{
		Symbol:   i.Symbol,
		Side:     i.Side,
		Type:     exchange.OrderTypeMarket,
		Quantity: i.Quantity,
	}

	if i.Type == IntentLimit {
		order.Type = exchange.OrderTypeLimit
		order.Price = i.Price
		order.TimeInForce = i.TimeInForce
	}

	return order
}

// TWAPPlan 将 TWAP 意图转换为执行计划。
func (i OrderIntent) TWAPPlan() Plan {
	return Plan{
		Symbol:        i.Symbol,
		Side:          i.Side,
		TotalQuantity: i.Quantity,
		Slices:        i.Slices,
		Interval:      i.Interval,
	}
}
