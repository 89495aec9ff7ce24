package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"futures-trader/internal/app"
	"futures-trader/internal/config"
	"futures-trader/internal/exchange"
	"futures-trader/internal/execution"
	"futures-trader/internal/log"
)

func main() {
	var (
		configPath  string
		symbol      string
		side        string
		orderType   string
		quantity    string
		price       string
		slices      int
		intervalSec int
		timeInForce string
	)

	flag.StringVar(&configPath, "config", "", "配置文件路径，默认使用 configs/config.yaml")
	flag.StringVar(&symbol, "symbol", "", "交易对，例如 BTCUSDT")
	flag.StringVar(&side, "side", "", "方向：BUY 或 SELL")
	flag.StringVar(&orderType, "ordertype", "", "订单类型：MARKET、LIMIT 或 TWAP")
	flag.StringVar(&quantity, "quantity", "", "下单数量")
	flag.StringVar(&price, "price", "", "价格（LIMIT 可选，缺省按现价自动定价）")
	flag.IntVar(&slices, "slices", 1, "TWAP 切片数")
	flag.IntVar(&intervalSec, "interval", 10, "TWAP 切片间隔秒数")
	flag.StringVar(&timeInForce, "time-in-force", "GTC", "LIMIT 有效期策略：GTC、IOC 或 FOK")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger, err := log.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	intent, err := buildIntent(symbol, side, orderType, quantity, price, slices, intervalSec, timeInForce)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if err := intent.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	outcome, err := app.New(cfg, logger).Run(ctx, intent)
	if err != nil {
		logger.Error("下单流程失败", zap.Error(err))
		fmt.Fprintln(os.Stderr, "订单执行失败，详情见日志文件。")
		os.Exit(1)
	}

	printOutcome(outcome)
}

func buildIntent(symbol, side, orderType, quantity, price string, slices, intervalSec int, timeInForce string) (execution.OrderIntent, error) {
	intent := execution.OrderIntent{
		Symbol:      symbol,
		Side:        exchange.Side(strings.ToUpper(side)),
		Type:        execution.IntentType(strings.ToUpper(orderType)),
		TimeInForce: exchange.TimeInForce(strings.ToUpper(timeInForce)),
		Slices:      slices,
		Interval:    time.Duration(intervalSec) * time.Second,
	}

	if quantity == "" {
		return intent, fmt.Errorf("quantity 不能为空")
	}
	qty, err := decimal.NewFromString(quantity)
	if err != nil {
		return intent, fmt.Errorf("quantity 解析失败: %w", err)
	}
	intent.Quantity = qty

	if price != "" {
		p, err := decimal.NewFromString(price)
		if err != nil {
			return intent, fmt.Errorf("price 解析失败: %w", err)
		}
		intent.Price = p
	}

	return intent, nil
}

func printOutcome(outcome *app.Outcome) {
	if outcome.Single != nil {
		fmt.Println("--- ORDER RESULT ---")
		fmt.Println(formatResult(*outcome.Single))
		return
	}

	fmt.Println("--- TWAP RESULTS ---")
	for i, res := range outcome.TWAP {
		fmt.Printf("Slice %d: %s\n", i+1, formatResult(res))
	}
}

func formatResult(res exchange.OrderResult) string {
	if res.Ok() {
		return string(res.Payload)
	}
	if res.Code != 0 {
		return fmt.Sprintf("错误 code=%d msg=%s", res.Code, res.Message)
	}
	return "错误: " + res.Message
}
