package campaign

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CompletedOrder 已完成訂單（由訂單 CRUD 提供的讀取模型）
type CompletedOrder struct {
	ID               string
	UserID           string
	ShopID           string
	FoodSubtotal     decimal.Decimal
	CampaignDiscount decimal.Decimal
	CompletedAt      time.Time
}

// Validate 檢查訂單欄位
func (o CompletedOrder) Validate() error {
	if strings.TrimSpace(o.ID) == "" {
		return ErrInvalidOrder.WithContext("field", "id")
	}
	if strings.TrimSpace(o.UserID) == "" {
		return ErrInvalidOrder.WithContext("field", "userId")
	}
	if strings.TrimSpace(o.ShopID) == "" {
		return ErrInvalidOrder.WithContext("field", "shopId")
	}
	if o.FoodSubtotal.IsNegative() || o.CampaignDiscount.IsNegative() {
		return ErrInvalidOrder.WithContext("field", "amount", "reason", "must not be negative")
	}
	return nil
}

// HasCampaignDiscount 訂單是否帶有活動折扣（需支付商店擁有者積分）
func (o CompletedOrder) HasCampaignDiscount() bool {
	return o.CampaignDiscount.IsPositive()
}

// AppliedCampaign 訂單套用的活動（order_id + campaign_id 唯一）
type AppliedCampaign struct {
	OrderID       string
	CampaignID    CampaignID
	CampaignName  string
	PointsAwarded int64
	AppliedAt     time.Time
}
