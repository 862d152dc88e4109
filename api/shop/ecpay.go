package shop

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"storefront.GO/config"
	"storefront.GO/model/entity"
	shopEntity "storefront.GO/model/entity/shop"
)

// PaymentConfig holds the gateway merchant settings. The defaults are the
// gateway's public staging credentials.
type PaymentConfig struct {
	MerchantID string
	HashKey    string
	HashIV     string
	BaseURL    string
	Now        func() time.Time
}

func LoadPaymentConfig() PaymentConfig {
	return PaymentConfig{
		MerchantID: config.GetEnv("ECPAY_MERCHANT_ID", "3002607"),
		HashKey:    config.GetEnv("ECPAY_HASH_KEY", "pwFHCqoQZGmho4w6"),
		HashIV:     config.GetEnv("ECPAY_HASH_IV", "EkRm7iFT261dpevs"),
		BaseURL:    strings.TrimRight(config.GetEnv("SHOP_BASE_URL", "http://localhost:8080"), "/"),
		Now:        time.Now,
	}
}

// CheckoutForm builds the hidden fields posted to the gateway for an order.
func (p PaymentConfig) CheckoutForm(o *shopEntity.Order, lines []shopEntity.OrderLine) entity.PaymentParams {
	now := p.Now()
	names := make([]string, 0, len(lines))
	for _, l := range lines {
		names = append(names, fmt.Sprintf("%s x %d", l.Name, l.Quantity))
	}
	params := entity.PaymentParams{
		"MerchantID":        p.MerchantID,
		"MerchantTradeNo":   fmt.Sprintf("TW%d%d", o.OrderID, now.UnixMilli()%10000),
		"MerchantTradeDate": now.Format("2006/01/02 15:04:05"),
		"PaymentType":       "aio",
		"TotalAmount":       strconv.FormatInt(o.TotalAmount, 10),
		"TradeDesc":         "線上購物結帳",
		"ItemName":          strings.Join(names, "#"),
		"ReturnURL":         p.BaseURL + "/api/ecpay/callback",
		"ClientBackURL":     p.BaseURL + "/index.html",
		"ChoosePayment":     "ALL",
		"EncryptType":       "1",
		"Language":          "CHT",
	}
	params["CheckMacValue"] = p.CheckMacValue(params)
	return params
}

// gateway encoding keeps these characters literal
var macUnescape = strings.NewReplacer(
	"%2d", "-", "%5f", "_", "%2e", ".", "%21", "!", "%2a", "*", "%28", "(", "%29", ")",
)

// CheckMacValue signs params: keys sorted case-insensitively, wrapped in
// HashKey/HashIV, url-encoded, lowercased, SHA256, uppercase hex.
func (p PaymentConfig) CheckMacValue(params entity.PaymentParams) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k != "CheckMacValue" {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return strings.ToLower(keys[i]) < strings.ToLower(keys[j]) })

	var b strings.Builder
	b.WriteString("HashKey=" + p.HashKey)
	for _, k := range keys {
		b.WriteString("&" + k + "=" + params[k])
	}
	b.WriteString("&HashIV=" + p.HashIV)

	encoded := macUnescape.Replace(strings.ToLower(url.QueryEscape(b.String())))
	sum := sha256.Sum256([]byte(encoded))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// Verify reports whether params carry a valid CheckMacValue.
func (p PaymentConfig) Verify(params entity.PaymentParams) bool {
	got := params["CheckMacValue"]
	return got != "" && strings.EqualFold(got, p.CheckMacValue(params))
}
