package exchange

// CodeInternalError 是交易所标记为内部瞬时故障的错误码，
// 按 API 约定重试不会产生重复成交的副作用。
const CodeInternalError int64 = -1000

// IsRetryable 判断下单结果是否可重试。
func IsRetryable(res OrderResult) bool {
	return !res.Ok() && res.Code == CodeInternalError
}
