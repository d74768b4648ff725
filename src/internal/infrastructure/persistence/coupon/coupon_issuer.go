package coupon

import (
	"context"
	"fmt"
	"time"

	"github.com/jackyeh168/quest_crm/src/internal/domain/coupon"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 發放請求狀態（由外部優惠券服務推進）
const (
	RequestStatusPending = "pending"
)

// CouponRequestGORM 優惠券發放請求（outbox）
//
// 外部優惠券服務輪詢 pending 列並產生優惠碼。
// (source, reference_id) 唯一：同一觸發來源只寫入一次。
type CouponRequestGORM struct {
	ID              uint      `gorm:"column:id;primaryKey;autoIncrement"`
	UserID          string    `gorm:"column:user_id;type:varchar(64);not null;index"`
	ShopID          string    `gorm:"column:shop_id;type:varchar(64);not null"`
	DiscountPercent int       `gorm:"column:discount_percent;not null"`
	ExpiresAt       time.Time `gorm:"column:expires_at;not null"`
	Source          string    `gorm:"column:source;type:varchar(32);not null;uniqueIndex:idx_coupon_requests_source_ref,priority:1"`
	ReferenceID     string    `gorm:"column:reference_id;type:varchar(128);not null;uniqueIndex:idx_coupon_requests_source_ref,priority:2"`
	Status          string    `gorm:"column:status;type:varchar(16);not null;index"`
	CreatedAt       time.Time `gorm:"column:created_at;not null"`
}

// TableName 指定資料表名稱
func (CouponRequestGORM) TableName() string {
	return "coupon_requests"
}

// OutboxIssuer 以寫入 outbox 列實作 coupon.Issuer
type OutboxIssuer struct {
	db  *gorm.DB
	now func() time.Time
}

// NewOutboxIssuer 創建 outbox 發放器
func NewOutboxIssuer(db *gorm.DB) *OutboxIssuer {
	return &OutboxIssuer{db: db, now: time.Now}
}

// Issue 寫入發放請求；重複的 (source, reference_id) 直接忽略並返回 false
//
// 並發寫入同一來源鍵時由唯一索引決定唯一的勝出者。
func (i *OutboxIssuer) Issue(ctx context.Context, req coupon.IssueRequest) (bool, error) {
	row := &CouponRequestGORM{
		UserID:          req.UserID,
		ShopID:          req.ShopID,
		DiscountPercent: req.DiscountPercent,
		ExpiresAt:       req.ExpiresAt.UTC(),
		Source:          req.Source,
		ReferenceID:     req.ReferenceID,
		Status:          RequestStatusPending,
		CreatedAt:       i.now().UTC(),
	}
	result := i.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "source"}, {Name: "reference_id"}},
			DoNothing: true,
		}).
		Create(row)
	if result.Error != nil {
		return false, fmt.Errorf("failed to enqueue coupon request: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}
