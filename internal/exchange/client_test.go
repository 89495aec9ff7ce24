package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"futures-trader/internal/config"
)

func testExchangeConfig(baseURL string) config.ExchangeConfig {
	return config.ExchangeConfig{
		BaseURL:         baseURL,
		APIKey:          "test-key",
		APISecret:       testSecret,
		RecvWindow:      10000,
		HTTPTimeout:     5 * time.Second,
		TimeSyncTimeout: 2 * time.Second,
	}
}

func serveTime(mux *http.ServeMux, serverTime func() int64) {
	mux.HandleFunc("/fapi/v1/time", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"serverTime":%d}`, serverTime())
	})
}

func TestNewClient_TimeSyncOffset(t *testing.T) {
	const skew = int64(5000)
	mux := http.NewServeMux()
	serveTime(mux, func() int64 { return time.Now().UnixMilli() + skew })
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(testExchangeConfig(srv.URL), nil)

	offset := client.TimeOffset()
	if offset < skew-2000 || offset > skew+2000 {
		t.Fatalf("unexpected offset %d, want ~%d", offset, skew)
	}
}

func TestNewClient_TimeSyncFallbackToZero(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/fapi/v1/time", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(testExchangeConfig(srv.URL), nil)

	if offset := client.TimeOffset(); offset != 0 {
		t.Fatalf("expected offset 0 on time sync failure, got %d", offset)
	}
}

func TestTickerPrice(t *testing.T) {
	mux := http.NewServeMux()
	serveTime(mux, func() int64 { return time.Now().UnixMilli() })
	mux.HandleFunc("/fapi/v1/ticker/price", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("symbol"); got != "BTCUSDT" {
			t.Errorf("unexpected symbol %q", got)
		}
		fmt.Fprint(w, `{"symbol":"BTCUSDT","price":"60000.10"}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(testExchangeConfig(srv.URL), nil)

	price, err := client.TickerPrice(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("TickerPrice returned error: %v", err)
	}
	if !price.Equal(decimal.RequireFromString("60000.10")) {
		t.Fatalf("unexpected price %s", price)
	}
}

func TestPlaceOrder_MarketOmitsPrice(t *testing.T) {
	var rawBody string
	var apiKey string

	mux := http.NewServeMux()
	serveTime(mux, func() int64 { return time.Now().UnixMilli() })
	mux.HandleFunc("/fapi/v1/order", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		rawBody = string(body)
		apiKey = r.Header.Get("X-MBX-APIKEY")
		fmt.Fprint(w, `{"orderId":12345,"status":"NEW"}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(testExchangeConfig(srv.URL), nil)

	res := client.PlaceOrder(context.Background(), OrderRequest{
		Symbol:   "BTCUSDT",
		Side:     SideBuy,
		Type:     OrderTypeMarket,
		Quantity: decimal.RequireFromString("0.001"),
		Price:    decimal.RequireFromString("60000"), // 上游残留的价格不得上链路
	})

	if !res.Ok() {
		t.Fatalf("expected success, got %+v", res)
	}
	if apiKey != "test-key" {
		t.Errorf("unexpected api key header %q", apiKey)
	}

	values, err := url.ParseQuery(rawBody)
	if err != nil {
		t.Fatalf("request body is not form-encoded: %v", err)
	}
	if values.Has("price") {
		t.Errorf("MARKET order transmitted a price field: %s", rawBody)
	}
	if values.Has("timeInForce") {
		t.Errorf("MARKET order transmitted timeInForce: %s", rawBody)
	}
	for _, key := range []string{"symbol", "side", "type", "quantity", "timestamp", "recvWindow", "reduceOnly", "closePosition", "signature"} {
		if !values.Has(key) {
			t.Errorf("missing field %q in body %s", key, rawBody)
		}
	}
	if got := values.Get("type"); got != "MARKET" {
		t.Errorf("unexpected type %q", got)
	}

	assertSignatureCoversBody(t, rawBody)
}

func TestPlaceOrder_LimitCarriesPriceAndTimeInForce(t *testing.T) {
	var rawBody string

	mux := http.NewServeMux()
	serveTime(mux, func() int64 { return time.Now().UnixMilli() })
	mux.HandleFunc("/fapi/v1/order", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		rawBody = string(body)
		fmt.Fprint(w, `{"orderId":12346,"status":"NEW"}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(testExchangeConfig(srv.URL), nil)

	res := client.PlaceOrder(context.Background(), OrderRequest{
		Symbol:      "BTCUSDT",
		Side:        SideSell,
		Type:        OrderTypeLimit,
		Quantity:    decimal.RequireFromString("0.001"),
		Price:       decimal.RequireFromString("59999"),
		TimeInForce: TimeInForceIOC,
	})

	if !res.Ok() {
		t.Fatalf("expected success, got %+v", res)
	}

	values, err := url.ParseQuery(rawBody)
	if err != nil {
		t.Fatalf("request body is not form-encoded: %v", err)
	}
	if got := values.Get("price"); got != "59999" {
		t.Errorf("unexpected price %q", got)
	}
	if got := values.Get("timeInForce"); got != "IOC" {
		t.Errorf("unexpected timeInForce %q", got)
	}

	// 插入顺序固定：symbol 开头，signature 结尾。
	if !strings.HasPrefix(rawBody, "symbol=BTCUSDT&side=SELL&type=LIMIT&quantity=0.001&") {
		t.Errorf("unexpected field order: %s", rawBody)
	}
	assertSignatureCoversBody(t, rawBody)
}

func TestPlaceOrder_ExchangeError(t *testing.T) {
	mux := http.NewServeMux()
	serveTime(mux, func() int64 { return time.Now().UnixMilli() })
	mux.HandleFunc("/fapi/v1/order", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"code":-2019,"msg":"Margin is insufficient."}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(testExchangeConfig(srv.URL), nil)

	res := client.PlaceOrder(context.Background(), marketOrder("0.001"))

	if res.Ok() {
		t.Fatalf("expected error result")
	}
	if res.Code != -2019 || res.Message != "Margin is insufficient." {
		t.Fatalf("unexpected result %+v", res)
	}
	if IsRetryable(res) {
		t.Fatalf("code -2019 must not be retryable")
	}
}

func TestPlaceOrder_TransientErrorClassification(t *testing.T) {
	mux := http.NewServeMux()
	serveTime(mux, func() int64 { return time.Now().UnixMilli() })
	mux.HandleFunc("/fapi/v1/order", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"code":-1000,"msg":"An unknown error occurred while processing the request."}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(testExchangeConfig(srv.URL), nil)

	res := client.PlaceOrder(context.Background(), marketOrder("0.001"))

	if !IsRetryable(res) {
		t.Fatalf("code -1000 must be retryable, got %+v", res)
	}
}

func TestPlaceOrder_UnparseableBody(t *testing.T) {
	mux := http.NewServeMux()
	serveTime(mux, func() int64 { return time.Now().UnixMilli() })
	mux.HandleFunc("/fapi/v1/order", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "<html>Bad Gateway</html>")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(testExchangeConfig(srv.URL), nil)

	res := client.PlaceOrder(context.Background(), marketOrder("0.001"))

	if res.Ok() {
		t.Fatalf("expected error result")
	}
	if res.Code != 0 {
		t.Fatalf("unexpected code %d for unparseable body", res.Code)
	}
	if !strings.Contains(res.Message, "HTTP 502") {
		t.Fatalf("message should carry HTTP status: %q", res.Message)
	}
}

func TestPlaceOrder_TransportError(t *testing.T) {
	mux := http.NewServeMux()
	serveTime(mux, func() int64 { return time.Now().UnixMilli() })
	srv := httptest.NewServer(mux)

	client := NewClient(testExchangeConfig(srv.URL), nil)
	srv.Close() // 构造连接失败

	res := client.PlaceOrder(context.Background(), marketOrder("0.001"))

	if res.Ok() {
		t.Fatalf("expected error result after server shutdown")
	}
	if res.Code != 0 || res.Message == "" {
		t.Fatalf("transport failure must carry message only, got %+v", res)
	}
	if IsRetryable(res) {
		t.Fatalf("transport failure must not map to the transient exchange code")
	}
}

func marketOrder(quantity string) OrderRequest {
	return OrderRequest{
		Symbol:   "BTCUSDT",
		Side:     SideBuy,
		Type:     OrderTypeMarket,
		Quantity: decimal.RequireFromString(quantity),
	}
}

// assertSignatureCoversBody 用同一密钥对签名字段之前的字节重算 HMAC，
// 验证签名覆盖的正是传输的字节序列。
func assertSignatureCoversBody(t *testing.T, rawBody string) {
	t.Helper()

	idx := strings.LastIndex(rawBody, "&signature=")
	if idx < 0 {
		t.Fatalf("body missing signature field: %s", rawBody)
	}
	payload := rawBody[:idx]
	gotSig := rawBody[idx+len("&signature="):]

	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(payload))
	wantSig := hex.EncodeToString(mac.Sum(nil))

	if gotSig != wantSig {
		t.Fatalf("signature does not cover transmitted bytes:\n got %s\nwant %s", gotSig, wantSig)
	}
}
