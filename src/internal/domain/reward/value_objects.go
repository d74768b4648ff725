package reward

import (
	"github.com/shopspring/decimal"
)

// PointsAmount 積分數量值對象（不可變、>= 0）
type PointsAmount struct {
	value int64
}

// NewPointsAmount 建構函數（checked 版本）
func NewPointsAmount(value int64) (PointsAmount, error) {
	if value < 0 {
		return PointsAmount{}, ErrNegativePointsAmount.WithContext("value", value)
	}
	return PointsAmount{value: value}, nil
}

// Value 獲取積分數量
func (p PointsAmount) Value() int64 {
	return p.value
}

// Add 相加（返回新的 PointsAmount）
func (p PointsAmount) Add(other PointsAmount) PointsAmount {
	return PointsAmount{value: p.value + other.value}
}

// IsZero 是否為 0
func (p PointsAmount) IsZero() bool {
	return p.value == 0
}

// Decimal 轉為 decimal（帳本記錄統一使用 decimal）
func (p PointsAmount) Decimal() decimal.Decimal {
	return decimal.NewFromInt(p.value)
}

// CashAmount 現金金額值對象（不可變、>= 0、兩位小數）
type CashAmount struct {
	value decimal.Decimal
}

// NewCashAmount 建構函數
func NewCashAmount(value decimal.Decimal) (CashAmount, error) {
	if value.IsNegative() {
		return CashAmount{}, ErrNegativeCashAmount.WithContext("value", value.String())
	}
	return CashAmount{value: value.Round(2)}, nil
}

// Value 獲取金額
func (c CashAmount) Value() decimal.Decimal {
	return c.value
}

// Add 相加
func (c CashAmount) Add(other CashAmount) CashAmount {
	return CashAmount{value: c.value.Add(other.value)}
}

// IsZero 是否為 0
func (c CashAmount) IsZero() bool {
	return c.value.IsZero()
}

// RoundToPoints 將金額換算為積分（四捨五入，.5 遠離 0）
//
// 業務規則：
// - 99.6 → 100、99.4 → 99、99.5 → 100
// - 負數金額返回 0
func RoundToPoints(amount decimal.Decimal) int64 {
	points := amount.Round(0).IntPart()
	if points < 0 {
		return 0
	}
	return points
}
