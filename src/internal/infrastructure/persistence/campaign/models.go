package campaign

import (
	"time"

	"github.com/jackyeh168/quest_crm/src/internal/domain/campaign"
	"github.com/jackyeh168/quest_crm/src/internal/infrastructure/persistence"
	"github.com/shopspring/decimal"
)

// ===========================
// GORM Models
// ===========================

// CampaignGORM 活動資料表模型
//
// 資料庫約束：
// - id: 主鍵（UUID）
// - current_participants: 只由 TryAdmit 條件遞增
// - max_order_baht = 0 表示不限訂單金額
type CampaignGORM struct {
	ID                  string          `gorm:"column:id;type:varchar(36);primaryKey"`
	ShopID              string          `gorm:"column:shop_id;type:varchar(64);not null;index"`
	Name                string          `gorm:"column:name;type:varchar(255);not null"`
	PointsPerCompletion int64           `gorm:"column:points_per_completion;not null"`
	PointsType          string          `gorm:"column:points_type;type:varchar(32);not null"`
	MaxOrderBaht        decimal.Decimal `gorm:"column:max_order_baht;type:decimal(12,2);not null"`
	Type                string          `gorm:"column:type;type:varchar(16);not null"`
	MaxParticipants     int             `gorm:"column:max_participants;not null;check:max_participants >= 0"`
	CurrentParticipants int             `gorm:"column:current_participants;not null;check:current_participants >= 0"`
	Status              string          `gorm:"column:status;type:varchar(16);not null;index"`
	StartDate           time.Time       `gorm:"column:start_date;not null"`
	EndDate             *time.Time      `gorm:"column:end_date"`
	IsDeleted           bool            `gorm:"column:is_deleted;not null"`
	CreatedAt           time.Time       `gorm:"column:created_at;not null"`
	UpdatedAt           time.Time       `gorm:"column:updated_at;not null"`
}

// TableName 指定資料表名稱
func (CampaignGORM) TableName() string {
	return "campaigns"
}

// ParticipationGORM 活動參加記錄資料表模型
//
// 資料庫約束：
// - (campaign_id, user_id): 唯一索引
// - last_completed_date: 營業日字串（YYYY-MM-DD，UTC+7）
type ParticipationGORM struct {
	ID                string     `gorm:"column:id;type:varchar(36);primaryKey"`
	CampaignID        string     `gorm:"column:campaign_id;type:varchar(36);not null;uniqueIndex:idx_campaign_participations_pair,priority:1"`
	UserID            string     `gorm:"column:user_id;type:varchar(64);not null;uniqueIndex:idx_campaign_participations_pair,priority:2;index"`
	Status            string     `gorm:"column:status;type:varchar(16);not null"`
	CompletedAt       *time.Time `gorm:"column:completed_at"`
	PointsAwarded     int64      `gorm:"column:points_awarded;not null"`
	CompletionCount   int        `gorm:"column:completion_count;not null"`
	LastCompletedDate string     `gorm:"column:last_completed_date;type:varchar(10)"`
	JoinedAt          time.Time  `gorm:"column:joined_at;not null"`
	Version           int        `gorm:"column:version;not null"`
}

// TableName 指定資料表名稱
func (ParticipationGORM) TableName() string {
	return "campaign_participations"
}

// AppliedCampaignGORM 訂單套用活動記錄
//
// (order_id, campaign_id) 唯一：同一訂單重送不會重複發放。
type AppliedCampaignGORM struct {
	ID            uint      `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID       string    `gorm:"column:order_id;type:varchar(64);not null;uniqueIndex:idx_order_applied_campaigns_pair,priority:1"`
	CampaignID    string    `gorm:"column:campaign_id;type:varchar(36);not null;uniqueIndex:idx_order_applied_campaigns_pair,priority:2"`
	CampaignName  string    `gorm:"column:campaign_name;type:varchar(255)"`
	PointsAwarded int64     `gorm:"column:points_awarded;not null"`
	AppliedAt     time.Time `gorm:"column:applied_at;not null"`
}

// TableName 指定資料表名稱
func (AppliedCampaignGORM) TableName() string {
	return "order_applied_campaigns"
}

// ShopGORM 商店讀取模型（由商店 CRUD 維護，此處只讀取擁有者）
type ShopGORM struct {
	ID      string `gorm:"column:id;type:varchar(64);primaryKey"`
	OwnerID string `gorm:"column:owner_id;type:varchar(64);not null;index"`
	Name    string `gorm:"column:name;type:varchar(255)"`
}

// TableName 指定資料表名稱
func (ShopGORM) TableName() string {
	return "shops"
}

// ===========================
// Mapper Functions
// ===========================

func (g *CampaignGORM) toDomain() (*campaign.Campaign, error) {
	id, err := campaign.CampaignIDFromString(g.ID)
	if err != nil {
		return nil, err
	}
	return campaign.ReconstructCampaign(
		id,
		campaign.Definition{
			ShopID:              g.ShopID,
			Name:                g.Name,
			PointsPerCompletion: g.PointsPerCompletion,
			PointsType:          campaign.PointsType(g.PointsType),
			MaxOrderBaht:        g.MaxOrderBaht,
			Type:                campaign.Type(g.Type),
			MaxParticipants:     g.MaxParticipants,
			StartDate:           g.StartDate,
			EndDate:             g.EndDate,
		},
		g.CurrentParticipants,
		campaign.Status(g.Status),
		g.IsDeleted,
		g.CreatedAt,
		g.UpdatedAt,
	)
}

func toCampaignGORM(c *campaign.Campaign) *CampaignGORM {
	def := c.Definition()
	return &CampaignGORM{
		ID:                  c.ID().String(),
		ShopID:              def.ShopID,
		Name:                def.Name,
		PointsPerCompletion: def.PointsPerCompletion,
		PointsType:          string(def.PointsType),
		MaxOrderBaht:        def.MaxOrderBaht,
		Type:                string(def.Type),
		MaxParticipants:     def.MaxParticipants,
		CurrentParticipants: c.CurrentParticipants(),
		Status:              string(c.Status()),
		StartDate:           def.StartDate.UTC(),
		EndDate:             persistence.UTCPtr(def.EndDate),
		IsDeleted:           c.IsDeleted(),
		CreatedAt:           c.CreatedAt().UTC(),
		UpdatedAt:           c.UpdatedAt().UTC(),
	}
}

func (g *ParticipationGORM) toDomain() (*campaign.Participation, error) {
	id, err := campaign.ParticipationIDFromString(g.ID)
	if err != nil {
		return nil, err
	}
	campaignID, err := campaign.CampaignIDFromString(g.CampaignID)
	if err != nil {
		return nil, err
	}
	return campaign.ReconstructParticipation(campaign.ParticipationRecord{
		ID:                id,
		CampaignID:        campaignID,
		UserID:            g.UserID,
		Status:            campaign.ParticipationStatus(g.Status),
		CompletedAt:       g.CompletedAt,
		PointsAwarded:     g.PointsAwarded,
		CompletionCount:   g.CompletionCount,
		LastCompletedDate: g.LastCompletedDate,
		JoinedAt:          g.JoinedAt,
		Version:           g.Version,
	})
}

func toParticipationGORM(p *campaign.Participation) *ParticipationGORM {
	return &ParticipationGORM{
		ID:                p.ID().String(),
		CampaignID:        p.CampaignID().String(),
		UserID:            p.UserID(),
		Status:            string(p.Status()),
		CompletedAt:       persistence.UTCPtr(p.CompletedAt()),
		PointsAwarded:     p.PointsAwarded(),
		CompletionCount:   p.CompletionCount(),
		LastCompletedDate: p.LastCompletedDate(),
		JoinedAt:          p.JoinedAt().UTC(),
		Version:           p.Version(),
	}
}

func (g *AppliedCampaignGORM) toDomain() (campaign.AppliedCampaign, error) {
	campaignID, err := campaign.CampaignIDFromString(g.CampaignID)
	if err != nil {
		return campaign.AppliedCampaign{}, err
	}
	return campaign.AppliedCampaign{
		OrderID:       g.OrderID,
		CampaignID:    campaignID,
		CampaignName:  g.CampaignName,
		PointsAwarded: g.PointsAwarded,
		AppliedAt:     g.AppliedAt,
	}, nil
}
