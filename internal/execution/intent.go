package execution

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"futures-trader/internal/exchange"
)

// Validate 在构造任何请求之前完成全部业务校验，
// 校验失败以聚合错误返回，供上层以用户可见信息退出。
func (i OrderIntent) Validate() error {
	var err error

	if i.Symbol == "" {
		err = multierr.Append(err, errors.New("symbol 不能为空"))
	}

	switch i.Side {
	case exchange.SideBuy, exchange.SideSell:
	default:
		err = multierr.Append(err, fmt.Errorf("side 必须为 BUY 或 SELL，收到 %q", string(i.Side)))
	}

	switch i.Type {
	case IntentMarket, IntentLimit, IntentTWAP:
	default:
		err = multierr.Append(err, fmt.Errorf("ordertype 必须为 MARKET、LIMIT 或 TWAP，收到 %q", string(i.Type)))
	}

	if !i.Quantity.IsPositive() {
		err = multierr.Append(err, errors.New("quantity 必须大于0"))
	}

	if i.Price.IsNegative() {
		err = multierr.Append(err, errors.New("price 不能为负"))
	}

	switch i.TimeInForce {
	case "", exchange.TimeInForceGTC, exchange.TimeInForceIOC, exchange.TimeInForceFOK:
	default:
		err = multierr.Append(err, fmt.Errorf("time-in-force 必须为 GTC、IOC 或 FOK，收到 %q", string(i.TimeInForce)))
	}

	if i.Type == IntentTWAP {
		if i.Slices <= 0 {
			err = multierr.Append(err, errors.New("TWAP 的 slices 必须大于0"))
		}
		if i.Interval < 0 {
			err = multierr.Append(err, errors.New("TWAP 的 interval 不能为负"))
		}
	}

	if err != nil {
		return fmt.Errorf("execution: 参数校验失败: %w", err)
	}

	return nil
}
