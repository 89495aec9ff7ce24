package execution

import (
	"context"
	"errors"

	backoff "github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"futures-trader/internal/config"
	"futures-trader/internal/exchange"
)

// errTransient 仅在重试循环内部流转，用于告知退避策略继续尝试。
var errTransient = errors.New("execution: 交易所返回内部瞬时错误")

// Retrier 以固定退避包装单笔下单调用。
// 只有交易所标记为内部瞬时故障的错误码触发重试，其余结果一律立即返回。
type Retrier struct {
	gateway orderPlacer
	cfg     config.RetryConfig
	logger  *zap.Logger
}

// NewRetrier 创建重试包装器。
func NewRetrier(gateway orderPlacer, cfg config.RetryConfig, logger *zap.Logger) *Retrier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retrier{
		gateway: gateway,
		cfg:     cfg,
		logger:  logger,
	}
}

// PlaceOrder 提交委托，瞬时错误码最多尝试 MaxAttempts 次。
// 重试耗尽时原样返回最后一次结果，由调用方决定如何解读；
// 退避等待期间上下文取消同样返回最后一次结果。
func (r *Retrier) PlaceOrder(ctx context.Context, order exchange.OrderRequest) exchange.OrderResult {
	var result exchange.OrderResult
	attempt := 0

	op := func() error {
		attempt++
		result = r.gateway.PlaceOrder(ctx, order)
		if exchange.IsRetryable(result) {
			r.logger.Warn("交易所内部错误，准备重试",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", r.cfg.MaxAttempts),
				zap.Int64("code", result.Code),
				zap.String("msg", result.Message),
			)
			return errTransient
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewConstantBackOff(r.cfg.Backoff),
			uint64(r.cfg.MaxAttempts-1),
		),
		ctx,
	)

	_ = backoff.Retry(op, policy)

	return result
}
