package coupon

import (
	"context"
	"time"
)

// SourceCheckin 打卡優惠券來源
const SourceCheckin = "checkin_reward"

// IssueRequest 發放優惠券請求
//
// 優惠碼產生與兌換規則由外部優惠券服務負責。
type IssueRequest struct {
	UserID          string
	ShopID          string
	DiscountPercent int
	ExpiresAt       time.Time
	Source          string
	// ReferenceID 觸發來源鍵，同一 (Source, ReferenceID) 只發放一次
	ReferenceID string
}

// Issuer 優惠券發放（外部協作者）
type Issuer interface {
	// Issue 返回是否為新的發放請求；重複的來源鍵返回 false
	Issue(ctx context.Context, req IssueRequest) (bool, error)
}

// DailyCheckinReference 每日首次打卡優惠券的來源鍵（使用者 + 營業日）
func DailyCheckinReference(userID, businessDay string) string {
	return "checkin:" + userID + ":" + businessDay
}
