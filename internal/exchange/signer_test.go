package exchange

import (
	"strings"
	"testing"
)

const testSecret = "NhqPtmdSJYdKjVHjA7PZj4Mge3R5YNiP1e3UZjInClVN65XAbvqqM6A7H5fATj0j"

func buildDocParams() *Params {
	p := NewParams()
	p.Add("symbol", "LTCBTC")
	p.Add("side", "BUY")
	p.Add("type", "LIMIT")
	p.Add("timeInForce", "GTC")
	p.Add("quantity", "1")
	p.Add("price", "0.1")
	p.Add("recvWindow", "5000")
	p.Add("timestamp", "1499827319559")
	return p
}

func TestSigner_KnownVector(t *testing.T) {
	signer := NewSigner(testSecret)
	signed := signer.Sign(buildDocParams())

	wantQuery := "symbol=LTCBTC&side=BUY&type=LIMIT&timeInForce=GTC&quantity=1&price=0.1&recvWindow=5000&timestamp=1499827319559"
	wantSig := "c8db56825ae71d6d79447849e617115f4a920fa2acdcab2b053c4b2838bd6b71"

	if got := buildDocParams().Encode(); got != wantQuery {
		t.Fatalf("unexpected encoding:\n got %s\nwant %s", got, wantQuery)
	}
	if signed != wantQuery+"&signature="+wantSig {
		t.Fatalf("unexpected signed body: %s", signed)
	}
}

func TestSigner_Deterministic(t *testing.T) {
	signer := NewSigner(testSecret)

	first := signer.Sign(buildDocParams())
	second := signer.Sign(buildDocParams())

	if first != second {
		t.Fatalf("sign is not deterministic:\n%s\n%s", first, second)
	}
}

func TestSigner_OrderSensitive(t *testing.T) {
	signer := NewSigner(testSecret)
	base := signer.Sign(buildDocParams())

	reordered := NewParams()
	reordered.Add("side", "BUY")
	reordered.Add("symbol", "LTCBTC")
	reordered.Add("type", "LIMIT")
	reordered.Add("timeInForce", "GTC")
	reordered.Add("quantity", "1")
	reordered.Add("price", "0.1")
	reordered.Add("recvWindow", "5000")
	reordered.Add("timestamp", "1499827319559")

	if sigOf(base) == sigOf(signer.Sign(reordered)) {
		t.Fatalf("reordered params produced identical signature")
	}
}

func TestSigner_SingleCharacterPerturbation(t *testing.T) {
	signer := NewSigner(testSecret)
	base := signer.Sign(buildDocParams())

	perturbed := NewParams()
	perturbed.Add("symbol", "LTCBTC")
	perturbed.Add("side", "BUY")
	perturbed.Add("type", "LIMIT")
	perturbed.Add("timeInForce", "GTC")
	perturbed.Add("quantity", "1")
	perturbed.Add("price", "0.2")
	perturbed.Add("recvWindow", "5000")
	perturbed.Add("timestamp", "1499827319559")

	if sigOf(base) == sigOf(signer.Sign(perturbed)) {
		t.Fatalf("perturbed params produced identical signature")
	}
}

func TestSigner_SignatureIsFinalField(t *testing.T) {
	signer := NewSigner(testSecret)
	signed := signer.Sign(buildDocParams())

	idx := strings.LastIndex(signed, "&signature=")
	if idx < 0 {
		t.Fatalf("signed body missing signature field: %s", signed)
	}
	if rest := signed[idx+len("&signature="):]; strings.ContainsAny(rest, "&=") {
		t.Fatalf("signature is not the final field: %s", signed)
	}
}

func TestParams_EncodeEscapes(t *testing.T) {
	p := NewParams()
	p.Add("note", "a b&c")

	if got := p.Encode(); got != "note=a+b%26c" {
		t.Fatalf("unexpected escaping: %s", got)
	}
}

func sigOf(signed string) string {
	idx := strings.LastIndex(signed, "&signature=")
	return signed[idx:]
}
