package log

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"futures-trader/internal/config"
)

// NewLogger 根据配置创建 zap.Logger。
// 控制台核按配置级别输出用户可见日志；若配置了日志文件，
// 额外挂一个 Debug 级别的滚动文件核，记录完整的请求/响应诊断信息。
func NewLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if err := level.Set(strings.ToLower(cfg.Level)); err != nil {
		return nil, fmt.Errorf("解析日志级别失败: %w", err)
	}

	if len(cfg.OutputPaths) == 0 {
		cfg.OutputPaths = []string{"stdout"}
	}
	if len(cfg.ErrorOutputPaths) == 0 {
		cfg.ErrorOutputPaths = []string{"stderr"}
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	encoderConfig.TimeKey = "ts"
	encoderConfig.NameKey = "logger"
	encoderConfig.CallerKey = "caller"

	var consoleEncoder zapcore.Encoder
	switch strings.ToLower(cfg.Encoding) {
	case "json":
		jsonCfg := encoderConfig
		jsonCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		consoleEncoder = zapcore.NewJSONEncoder(jsonCfg)
	case "console":
		consoleEncoder = zapcore.NewConsoleEncoder(encoderConfig)
	default:
		return nil, fmt.Errorf("不支持的日志编码 %q", cfg.Encoding)
	}

	consoleSink, _, err := zap.Open(cfg.OutputPaths...)
	if err != nil {
		return nil, fmt.Errorf("打开日志输出失败: %w", err)
	}
	errSink, _, err := zap.Open(cfg.ErrorOutputPaths...)
	if err != nil {
		return nil, fmt.Errorf("打开错误日志输出失败: %w", err)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(consoleEncoder, consoleSink, level),
	}

	if cfg.File.Path != "" {
		fileCfg := encoderConfig
		fileCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		fileSink := zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    cfg.File.MaxSizeMB,
			MaxBackups: cfg.File.MaxBackups,
		})
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileCfg), fileSink, zapcore.DebugLevel))
	}

	logger := zap.New(zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddCallerSkip(1),
		zap.ErrorOutput(errSink),
		zap.Fields(zap.String("service", "futures-trader")),
	)

	return logger, nil
}
