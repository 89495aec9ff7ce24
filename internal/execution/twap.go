package execution

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"futures-trader/internal/exchange"
)

// Plan 描述一次 TWAP 执行：TotalQuantity 均分为 Slices 笔市价单，
// 相邻切片之间等待 Interval。
type Plan struct {
	Symbol        string
	Side          exchange.Side
	TotalQuantity decimal.Decimal
	Slices        int
	Interval      time.Duration
}

// Record 按切片顺序保存每笔下单结果。正常跑完时长度恒等于切片数，
// 失败的切片以错误结果占位，不会缺项。
type Record []exchange.OrderResult

// TWAPExecutor 顺序执行 TWAP 计划。切片直接走下单通道，
// 不套重试：对瞬时错误采取一次性提交的更窄失败策略。
type TWAPExecutor struct {
	gateway orderPlacer
	logger  *zap.Logger
}

// NewTWAPExecutor 创建 TWAP 执行器。
func NewTWAPExecutor(gateway orderPlacer, logger *zap.Logger) *TWAPExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TWAPExecutor{
		gateway: gateway,
		logger:  logger,
	}
}

// Run 依次提交全部切片并返回完整记录。单笔失败只记录不中断；
// 切片间等待期间上下文取消会放弃剩余切片，已提交的切片保持原样。
// 前置条件 Slices > 0 由意图校验保证。
func (e *TWAPExecutor) Run(ctx context.Context, plan Plan) Record {
	if plan.Slices <= 0 {
		return nil
	}

	perSlice := plan.TotalQuantity.Div(decimal.NewFromInt(int64(plan.Slices)))
	record := make(Record, 0, plan.Slices)

	e.logger.Info("开始 TWAP 执行",
		zap.String("symbol", plan.Symbol),
		zap.String("side", string(plan.Side)),
		zap.Int("slices", plan.Slices),
		zap.String("per_slice", perSlice.String()),
		zap.Duration("interval", plan.Interval),
	)

	for i := 0; i < plan.Slices; i++ {
		e.logger.Info("TWAP 切片下单",
			zap.Int("slice", i+1),
			zap.Int("total", plan.Slices),
			zap.String("quantity", perSlice.String()),
		)

		res := e.gateway.PlaceOrder(ctx, exchange.OrderRequest{
			Symbol:   plan.Symbol,
			Side:     plan.Side,
			Type:     exchange.OrderTypeMarket,
			Quantity: perSlice,
		})
		if !res.Ok() {
			e.logger.Warn("TWAP 切片失败",
				zap.Int("slice", i+1),
				zap.Int64("code", res.Code),
				zap.String("msg", res.Message),
			)
		}
		record = append(record, res)

		if i < plan.Slices-1 && plan.Interval > 0 {
			timer := time.NewTimer(plan.Interval)
			select {
			case <-ctx.Done():
				timer.Stop()
				e.logger.Warn("TWAP 序列被取消，放弃剩余切片",
					zap.Int("placed", len(record)),
					zap.Int("total", plan.Slices),
				)
				return record
			case <-timer.C:
			}
		}
	}

	return record
}
