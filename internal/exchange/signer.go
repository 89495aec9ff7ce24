package exchange

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// Param 表示一个待签名的查询参数。
type Param struct {
	Key   string
	Value string
}

// Params 按插入顺序保存查询参数。签名覆盖的字节序列
// 由该顺序决定，传输时必须复用完全相同的编码结果。
type Params struct {
	items []Param
}

// NewParams 创建空参数表。
func NewParams() *Params {
	return &Params{}
}

// Add 追加一个参数。空值参数由调用方在构造阶段剔除，这里不做过滤。
func (p *Params) Add(key, value string) {
	p.items = append(p.items, Param{Key: key, Value: value})
}

// Len 返回参数个数。
func (p *Params) Len() int {
	return len(p.items)
}

// Encode 按插入顺序对参数做 URL 编码。
func (p *Params) Encode() string {
	var sb strings.Builder
	for i, item := range p.items {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(item.Key))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(item.Value))
	}
	return sb.String()
}

// Signer 负责对请求参数做 HMAC-SHA256 签名。
// 密钥以 []byte 持有，仅用于本地摘要计算，绝不上传。
type Signer struct {
	secret []byte
}

// NewSigner 创建签名器。
func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Sign 对编码后的参数串计算签名，并以最后一个字段的形式追加。
// 返回值即请求体本身：编码与签名使用同一份字节，二者不允许分离。
func (s *Signer) Sign(p *Params) string {
	encoded := p.Encode()

	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(encoded))
	signature := hex.EncodeToString(mac.Sum(nil))

	return encoded + "&signature=" + signature
}
