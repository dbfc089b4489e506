package service

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/bitfantasy/autotrade/internal/market/entity"
)

// 模拟供应商报价的定价启发式。真实系统里价格来自供应商门户，
// 这里按产品基准价+数量折扣+供应商评级系数合成一个可信的首轮报价。

// basePrices 产品基准单价表，按小写产品名查找
var basePrices = map[string]float64{
	"tomato sauce":   2.50,
	"ketchup":        3.00,
	"mustard":        2.80,
	"mayonnaise":     3.20,
	"barbecue sauce": 3.50,
}

// defaultBasePrice 表外产品的兜底基准价
const defaultBasePrice = 2.00

// quoteValidityDays 报价有效期
const quoteValidityDays = 7

// BasePrice 产品基准价×数量折扣
// >1000件九折，>500件九五折
func BasePrice(productName string, quantity float64) float64 {
	price, ok := basePrices[strings.ToLower(productName)]
	if !ok {
		price = defaultBasePrice
	}

	switch {
	case quantity > 1000:
		return price * 0.90
	case quantity > 500:
		return price * 0.95
	default:
		return price
	}
}

// VendorMultiplier 供应商评级系数，评级越高溢价越高
func VendorMultiplier(vendor *entity.Vendor) float64 {
	switch {
	case vendor.Rating >= 4.8:
		return 1.10
	case vendor.Rating >= 4.5:
		return 1.05
	case vendor.Rating >= 4.0:
		return 1.00
	default:
		return 0.95
	}
}

// SimulateQuotePrice 合成供应商首轮报价
func SimulateQuotePrice(productName string, quantity float64, vendor *entity.Vendor) (unitPrice, totalPrice float64) {
	unitPrice = Round2(BasePrice(productName, quantity) * VendorMultiplier(vendor))
	totalPrice = Round2(unitPrice * quantity)
	return unitPrice, totalPrice
}

// DeliverySlipDays 供应商交期偏移
// 评级>4.5的供应商按需求日期交付，其余随机延后1-3天
func DeliverySlipDays(vendor *entity.Vendor) int {
	if vendor.Rating > 4.5 {
		return 0
	}
	return rand.IntN(3) + 1
}

// SimulateDeliveryDate 基于需求交付日和供应商评级合成交付日期
// requested解析失败时原样返回
func SimulateDeliveryDate(requested string, vendor *entity.Vendor) string {
	t, err := time.Parse("2006-01-02", requested)
	if err != nil {
		return requested
	}
	return t.AddDate(0, 0, DeliverySlipDays(vendor)).Format("2006-01-02")
}

// QuoteValidUntil 报价有效期截止时间
func QuoteValidUntil(now time.Time) time.Time {
	return now.AddDate(0, 0, quoteValidityDays)
}

// VendorInterested 供应商是否对需求感兴趣（仅参考，不做准入门槛）
func VendorInterested(quantity float64, vendor *entity.Vendor) bool {
	return quantity*2.5 >= vendor.MinOrderValue
}

// VendorNotes 合成报价备注
func VendorNotes(vendor *entity.Vendor) string {
	verified := "Verification pending"
	if vendor.Verified {
		verified = "Verified vendor"
	}
	return fmt.Sprintf("Trusted supplier with %.1f/5 rating. Minimum order value: $%.0f. Payment terms: %s. %s",
		vendor.Rating, vendor.MinOrderValue, vendor.PaymentTerms, verified)
}

// Round2 金额保留两位小数
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
