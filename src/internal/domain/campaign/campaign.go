package campaign

import (
	"strings"
	"time"

	"github.com/jackyeh168/quest_crm/src/internal/domain/reward"
	"github.com/shopspring/decimal"
)

// PointsType 積分計算方式
type PointsType string

const (
	PointsFixed             PointsType = "fixed"
	PointsEqualToFoodAmount PointsType = "equal_to_food_amount"
)

// Type 活動完成限制
type Type string

const (
	TypeOneTime Type = "one_time"
	TypeDaily   Type = "daily"
)

// Status 活動狀態
type Status string

const (
	StatusDraft  Status = "draft"
	StatusActive Status = "active"
	StatusPaused Status = "paused"
	StatusEnded  Status = "ended"
)

// Definition 活動定義（由商店 CRUD 提供）
type Definition struct {
	ShopID              string
	Name                string
	PointsPerCompletion int64
	PointsType          PointsType
	MaxOrderBaht        decimal.Decimal
	Type                Type
	MaxParticipants     int
	StartDate           time.Time
	EndDate             *time.Time
}

// ===========================
// Campaign 聚合根
// ===========================

// Campaign 商店出資的加碼積分活動
//
// 業務不變條件：
// - maxParticipants > 0 時 currentParticipants <= maxParticipants
// - one_time 活動每位參加者最多發放一次；daily 活動每個營業日最多一次
type Campaign struct {
	id                  CampaignID
	definition          Definition
	currentParticipants int
	status              Status
	deleted             bool
	createdAt           time.Time
	updatedAt           time.Time
}

// NewCampaign 建立活動（狀態為 draft）
func NewCampaign(def Definition, now time.Time) (*Campaign, error) {
	def.Name = strings.TrimSpace(def.Name)
	if def.StartDate.IsZero() {
		def.StartDate = now
	}
	if err := validateDefinition(def); err != nil {
		return nil, err
	}
	return &Campaign{
		id:         NewCampaignID(),
		definition: def,
		status:     StatusDraft,
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

// ReconstructCampaign 從持久化存儲重建聚合根
func ReconstructCampaign(
	id CampaignID,
	def Definition,
	currentParticipants int,
	status Status,
	deleted bool,
	createdAt, updatedAt time.Time,
) (*Campaign, error) {
	if id.IsEmpty() {
		return nil, ErrInvalidCampaignID.WithContext("reason", "invalid campaign ID in database")
	}
	return &Campaign{
		id:                  id,
		definition:          def,
		currentParticipants: currentParticipants,
		status:              status,
		deleted:             deleted,
		createdAt:           createdAt,
		updatedAt:           updatedAt,
	}, nil
}

func (c *Campaign) ID() CampaignID           { return c.id }
func (c *Campaign) Definition() Definition   { return c.definition }
func (c *Campaign) ShopID() string           { return c.definition.ShopID }
func (c *Campaign) Name() string             { return c.definition.Name }
func (c *Campaign) Type() Type               { return c.definition.Type }
func (c *Campaign) CurrentParticipants() int { return c.currentParticipants }
func (c *Campaign) Status() Status           { return c.status }
func (c *Campaign) IsDeleted() bool          { return c.deleted }
func (c *Campaign) CreatedAt() time.Time     { return c.createdAt }
func (c *Campaign) UpdatedAt() time.Time     { return c.updatedAt }

// IsRunning 活動在 now 是否進行中（active、在期間內、未刪除）
func (c *Campaign) IsRunning(now time.Time) bool {
	if c.deleted || c.status != StatusActive {
		return false
	}
	if now.Before(c.definition.StartDate) {
		return false
	}
	return c.definition.EndDate == nil || !now.After(*c.definition.EndDate)
}

// CheckJoinable 檢查活動是否開放參加
func (c *Campaign) CheckJoinable(now time.Time) error {
	if c.deleted {
		return ErrCampaignNotFound.WithContext("campaign_id", c.id.String())
	}
	if !c.IsRunning(now) {
		return ErrCampaignNotActive.WithContext(
			"campaign_id", c.id.String(),
			"status", string(c.status),
		)
	}
	return nil
}

// Qualifies 訂單是否符合活動條件
//
// 業務規則：同一商店，且 maxOrderBaht = 0 或 foodSubtotal <= maxOrderBaht
func (c *Campaign) Qualifies(order CompletedOrder) bool {
	if order.ShopID != c.definition.ShopID {
		return false
	}
	limit := c.definition.MaxOrderBaht
	return limit.IsZero() || order.FoodSubtotal.LessThanOrEqual(limit)
}

// PointsFor 計算此訂單可獲得的積分
//
// equal_to_food_amount：round(foodSubtotal)；fixed：pointsPerCompletion
func (c *Campaign) PointsFor(order CompletedOrder) int64 {
	if c.definition.PointsType == PointsEqualToFoodAmount {
		return reward.RoundToPoints(order.FoodSubtotal)
	}
	return c.definition.PointsPerCompletion
}

// Activate 啟用活動
func (c *Campaign) Activate(now time.Time) {
	c.status = StatusActive
	c.updatedAt = now
}

// ChangeStatus 變更活動狀態
func (c *Campaign) ChangeStatus(status Status, now time.Time) error {
	switch status {
	case StatusDraft, StatusActive, StatusPaused, StatusEnded:
	default:
		return ErrInvalidCampaign.WithContext("field", "status", "value", string(status))
	}
	c.status = status
	c.updatedAt = now
	return nil
}

// SoftDelete 標記刪除
func (c *Campaign) SoftDelete(now time.Time) {
	c.deleted = true
	c.status = StatusEnded
	c.updatedAt = now
}

func validateDefinition(def Definition) error {
	if def.Name == "" {
		return ErrInvalidCampaign.WithContext("field", "name")
	}
	if strings.TrimSpace(def.ShopID) == "" {
		return ErrInvalidCampaign.WithContext("field", "shopId")
	}
	switch def.PointsType {
	case PointsFixed:
		if def.PointsPerCompletion <= 0 {
			return ErrInvalidCampaign.WithContext("field", "pointsPerCompletion", "reason", "must be positive for fixed campaigns")
		}
	case PointsEqualToFoodAmount:
	default:
		return ErrInvalidCampaign.WithContext("field", "pointsType", "value", string(def.PointsType))
	}
	if def.Type != TypeOneTime && def.Type != TypeDaily {
		return ErrInvalidCampaign.WithContext("field", "type", "value", string(def.Type))
	}
	if def.MaxOrderBaht.IsNegative() || def.MaxParticipants < 0 {
		return ErrInvalidCampaign.WithContext("field", "limits", "reason", "must not be negative")
	}
	if def.EndDate != nil && def.EndDate.Before(def.StartDate) {
		return ErrInvalidCampaign.WithContext("field", "endDate", "reason", "before startDate")
	}
	return nil
}
