package settings

import (
	"context"
	"strconv"
	"strings"
)

// 設定鍵
const (
	KeyCheckinPoints         = "checkin_points"
	KeyAutoCouponEnabled     = "auto_coupon_enabled"
	KeyCouponDiscountPercent = "checkin_coupon_discount_percent"
	KeyCouponExpiryDays      = "checkin_coupon_expiry_days"
)

// 預設值（設定缺少或格式錯誤時使用）
const (
	DefaultCheckinPoints         int64 = 10
	DefaultAutoCouponEnabled           = false
	DefaultCouponDiscountPercent       = 10
	DefaultCouponExpiryDays            = 7
)

// Store 鍵值設定來源
type Store interface {
	// Get 讀取設定值；ok=false 表示未設定
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// QuestSettings 任務引擎使用的設定
type QuestSettings struct {
	CheckinPoints         int64
	AutoCouponEnabled     bool
	CouponDiscountPercent int
	CouponExpiryDays      int
}

// Defaults 返回預設設定
func Defaults() QuestSettings {
	return QuestSettings{
		CheckinPoints:         DefaultCheckinPoints,
		AutoCouponEnabled:     DefaultAutoCouponEnabled,
		CouponDiscountPercent: DefaultCouponDiscountPercent,
		CouponExpiryDays:      DefaultCouponExpiryDays,
	}
}

// Load 從 Store 讀取設定
//
// 缺少或無法解析的鍵使用預設值；只有 Store 本身失敗時返回錯誤（同時返回預設值）。
func Load(ctx context.Context, store Store) (QuestSettings, error) {
	s := Defaults()

	if v, ok, err := store.Get(ctx, KeyCheckinPoints); err != nil {
		return Defaults(), err
	} else if ok {
		if n, perr := strconv.ParseInt(strings.TrimSpace(v), 10, 64); perr == nil && n >= 0 {
			s.CheckinPoints = n
		}
	}

	if v, ok, err := store.Get(ctx, KeyAutoCouponEnabled); err != nil {
		return Defaults(), err
	} else if ok {
		if b, perr := strconv.ParseBool(strings.TrimSpace(v)); perr == nil {
			s.AutoCouponEnabled = b
		}
	}

	if v, ok, err := store.Get(ctx, KeyCouponDiscountPercent); err != nil {
		return Defaults(), err
	} else if ok {
		if n, perr := strconv.Atoi(strings.TrimSpace(v)); perr == nil && n > 0 && n <= 100 {
			s.CouponDiscountPercent = n
		}
	}

	if v, ok, err := store.Get(ctx, KeyCouponExpiryDays); err != nil {
		return Defaults(), err
	} else if ok {
		if n, perr := strconv.Atoi(strings.TrimSpace(v)); perr == nil && n > 0 {
			s.CouponExpiryDays = n
		}
	}

	return s, nil
}
