package execution

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// quantityPrecision 是数量的固定小数位数。
const quantityPrecision = 6

// Adjuster 以现价校验委托的最小名义价值，不足时抬升数量。
// TWAP 意图不经过该调整：总量豁免，切片数量也不单独复查。
type Adjuster struct {
	pricer      priceFetcher
	minNotional decimal.Decimal
	logger      *zap.Logger
}

// NewAdjuster 创建数量调整器。
func NewAdjuster(pricer priceFetcher, minNotional float64, logger *zap.Logger) *Adjuster {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adjuster{
		pricer:      pricer,
		minNotional: decimal.NewFromFloat(minNotional),
		logger:      logger,
	}
}

// Adjust 返回满足最小名义价值的数量，结果固定保留6位小数。
func (a *Adjuster) Adjust(ctx context.Context, symbol string, quantity decimal.Decimal) (decimal.Decimal, error) {
	price, err := a.pricer.TickerPrice(ctx, symbol)
	if err != nil {
		return decimal.Zero, fmt.Errorf("execution: 获取现价失败: %w", err)
	}
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("execution: 现价非法 %s", price)
	}

	if quantity.Mul(price).LessThan(a.minNotional) {
		adjusted := a.minNotional.DivRound(price, quantityPrecision)
		a.logger.Info("数量已抬升以满足最小名义价值",
			zap.String("symbol", symbol),
			zap.String("quantity", quantity.String()),
			zap.String("adjusted", adjusted.String()),
			zap.String("price", price.String()),
		)
		return adjusted, nil
	}

	return quantity.Round(quantityPrecision), nil
}
