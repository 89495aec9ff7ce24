package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"
)

// Config 聚合了系统运行所需的全部配置项。
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Exchange  ExchangeConfig  `mapstructure:"exchange"`
	Execution ExecutionConfig `mapstructure:"execution"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// AppConfig 控制应用级参数。
type AppConfig struct {
	Environment string `mapstructure:"environment"`
}

// ExchangeConfig 描述交易所 REST 连接信息。
// APIKey 随请求头发送；APISecret 只作为 HMAC 密钥使用，绝不上传。
type ExchangeConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	APIKey          string        `mapstructure:"api_key"`
	APISecret       string        `mapstructure:"api_secret"`
	RecvWindow      int64         `mapstructure:"recv_window"`
	HTTPTimeout     time.Duration `mapstructure:"http_timeout"`
	TimeSyncTimeout time.Duration `mapstructure:"time_sync_timeout"`
}

// RetryConfig 控制瞬时错误的重试机制。
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	Backoff     time.Duration `mapstructure:"backoff"`
}

// ExecutionConfig 控制下单行为。
type ExecutionConfig struct {
	MinNotional float64     `mapstructure:"min_notional"`
	Retry       RetryConfig `mapstructure:"retry"`
}

// LoggingConfig 控制日志输出。
type LoggingConfig struct {
	Level            string        `mapstructure:"level"`
	Encoding         string        `mapstructure:"encoding"`
	Development      bool          `mapstructure:"development"`
	OutputPaths      []string      `mapstructure:"output_paths"`
	ErrorOutputPaths []string      `mapstructure:"error_output_paths"`
	File             LogFileConfig `mapstructure:"file"`
}

// LogFileConfig 控制诊断日志文件的滚动策略。
type LogFileConfig struct {
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// Validate 对配置进行基本校验。凭证缺失在此失败，先于任何网络请求。
func (c *Config) Validate() error {
	var err error

	if c.App.Environment == "" {
		err = multierr.Append(err, errors.New("app.environment 不能为空"))
	}
	if c.Exchange.BaseURL == "" {
		err = multierr.Append(err, errors.New("exchange.base_url 不能为空"))
	} else if !strings.HasPrefix(c.Exchange.BaseURL, "http") {
		err = multierr.Append(err, errors.New("exchange.base_url 必须为 http(s) 地址"))
	}
	if c.Exchange.APIKey == "" {
		err = multierr.Append(err, errors.New("exchange.api_key 不能为空，请在 .env 或环境变量中设置"))
	}
	if c.Exchange.APISecret == "" {
		err = multierr.Append(err, errors.New("exchange.api_secret 不能为空，请在 .env 或环境变量中设置"))
	}
	if c.Exchange.RecvWindow <= 0 {
		err = multierr.Append(err, errors.New("exchange.recv_window 必须大于0"))
	}
	if c.Exchange.HTTPTimeout <= 0 {
		err = multierr.Append(err, errors.New("exchange.http_timeout 必须大于0"))
	}
	if c.Exchange.TimeSyncTimeout <= 0 {
		err = multierr.Append(err, errors.New("exchange.time_sync_timeout 必须大于0"))
	}
	if c.Execution.MinNotional <= 0 {
		err = multierr.Append(err, errors.New("execution.min_notional 必须大于0"))
	}
	if c.Execution.Retry.MaxAttempts <= 0 {
		err = multierr.Append(err, errors.New("execution.retry.max_attempts 必须大于0"))
	}
	if c.Execution.Retry.Backoff < 0 {
		err = multierr.Append(err, errors.New("execution.retry.backoff 不能为负"))
	}
	if c.Logging.Level == "" {
		err = multierr.Append(err, errors.New("logging.level 不能为空"))
	}
	if c.Logging.Encoding == "" {
		err = multierr.Append(err, errors.New("logging.encoding 不能为空"))
	}
	if len(c.Logging.OutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.output_paths 至少包含一个输出目标"))
	}
	if len(c.Logging.ErrorOutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.error_output_paths 至少包含一个输出目标"))
	}
	if c.Logging.File.Path != "" {
		if c.Logging.File.MaxSizeMB <= 0 {
			err = multierr.Append(err, errors.New("logging.file.max_size_mb 必须大于0"))
		}
		if c.Logging.File.MaxBackups < 0 {
			err = multierr.Append(err, errors.New("logging.file.max_backups 不能为负"))
		}
	}

	if err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}

	return nil
}
