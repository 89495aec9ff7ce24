package exchange

import (
	"encoding/json"
	"strconv"

	"github.com/shopspring/decimal"
)

// Side 表示下单方向。
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderType 表示委托类型。
type OrderType string

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
)

// TimeInForce 表示限价单的有效期策略。
type TimeInForce string

const (
	TimeInForceGTC TimeInForce = "GTC"
	TimeInForceIOC TimeInForce = "IOC"
	TimeInForceFOK TimeInForce = "FOK"
)

// OrderRequest 描述一笔待提交的委托。
// Price/TimeInForce 仅对 LIMIT 有意义；MARKET 委托即使携带价格也不会上链路。
type OrderRequest struct {
	Symbol        string
	Side          Side
	Type          OrderType
	Quantity      decimal.Decimal
	Price         decimal.Decimal
	TimeInForce   TimeInForce
	ReduceOnly    bool
	ClosePosition bool
}

// params 将委托按固定插入顺序展开为待签名参数。
// 顺序即签名覆盖的字节顺序，不可调整。
func (o OrderRequest) params(timestamp, recvWindow int64) *Params {
	p := NewParams()
	p.Add("symbol", o.Symbol)
	p.Add("side", string(o.Side))
	p.Add("type", string(o.Type))
	p.Add("quantity", o.Quantity.String())
	p.Add("timestamp", strconv.FormatInt(timestamp, 10))
	p.Add("recvWindow", strconv.FormatInt(recvWindow, 10))
	p.Add("reduceOnly", strconv.FormatBool(o.ReduceOnly))
	p.Add("closePosition", strconv.FormatBool(o.ClosePosition))

	if o.Type == OrderTypeLimit {
		p.Add("price", o.Price.String())
		tif := o.TimeInForce
		if tif == "" {
			tif = TimeInForceGTC
		}
		p.Add("timeInForce", string(tif))
	}

	return p
}

// OrderResult 是交易所边界的统一返回值：要么携带成功应答的原始报文，
// 要么携带错误记录 {code, message}。该边界之内的失败不以 error 形式上抛。
type OrderResult struct {
	Payload json.RawMessage
	Code    int64
	Message string
}

// Ok 返回该结果是否为成功应答。
func (r OrderResult) Ok() bool {
	return r.Message == ""
}
