package quest

import (
	"time"

	"github.com/jackyeh168/quest_crm/src/internal/domain/geo"
	"github.com/jackyeh168/quest_crm/src/internal/domain/quest"
	"github.com/jackyeh168/quest_crm/src/internal/infrastructure/persistence"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ===========================
// GORM Models
// ===========================

// QuestGORM 任務資料表模型
//
// 資料庫約束：
// - id: 主鍵（UUID）
// - tourist_attraction_id: 部分唯一索引，僅涵蓋未刪除且 active 的資料列
//   （每個景點最多一筆可參加的系統任務；已刪除或暫停的舊任務不佔用；商店任務為 NULL）
// - current_participants / total_spent: 只由 CapacityGuard 的條件更新修改
// - status: 單一狀態欄位，是否啟用由狀態推導
type QuestGORM struct {
	// 識別欄位
	ID                  string  `gorm:"column:id;type:varchar(36);primaryKey"`
	ShopID              *string `gorm:"column:shop_id;type:varchar(64);index"`
	TouristAttractionID *string `gorm:"column:tourist_attraction_id;type:varchar(64);uniqueIndex:idx_quests_live_attraction,where:is_deleted = false AND status = 'active'"`

	// 任務定義
	Name               string `gorm:"column:name;type:varchar(255);not null"`
	Description        string `gorm:"column:description;type:text"`
	Type               string `gorm:"column:type;type:varchar(32);not null"`
	VerificationMethod string `gorm:"column:verification_method;type:varchar(32);not null"`

	// 獎勵
	RewardAmount decimal.Decimal `gorm:"column:reward_amount;type:decimal(12,2);not null"`
	RewardPoints int64           `gorm:"column:reward_points;not null"`

	// 名額與預算
	MaxParticipants     int             `gorm:"column:max_participants;not null;check:max_participants >= 0"`
	CurrentParticipants int             `gorm:"column:current_participants;not null;check:current_participants >= 0"`
	Budget              decimal.Decimal `gorm:"column:budget;type:decimal(12,2);not null"`
	TotalSpent          decimal.Decimal `gorm:"column:total_spent;type:decimal(12,2);not null"`

	// 期間
	StartDate time.Time  `gorm:"column:start_date;not null"`
	EndDate   *time.Time `gorm:"column:end_date"`

	// 地理圍欄
	Latitude     *float64 `gorm:"column:latitude"`
	Longitude    *float64 `gorm:"column:longitude"`
	RadiusMeters float64  `gorm:"column:radius_meters;not null"`

	// 其他規則
	IsOneTime        bool           `gorm:"column:is_one_time;not null"`
	RequiredHashtags datatypes.JSON `gorm:"column:required_hashtags"`
	PlaceNameHint    string         `gorm:"column:place_name_hint;type:varchar(255)"`
	RequiredData     datatypes.JSON `gorm:"column:required_data"`

	// 狀態
	Status    string `gorm:"column:status;type:varchar(16);not null;index"`
	IsDeleted bool   `gorm:"column:is_deleted;not null"`

	// 審計欄位
	CreatedBy string    `gorm:"column:created_by;type:varchar(64);not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

// TableName 指定資料表名稱
func (QuestGORM) TableName() string {
	return "quests"
}

// ===========================
// Mapper Functions
// ===========================

// toDomain 將 GORM 模型轉換為 Domain 模型
func (g *QuestGORM) toDomain() (*quest.Quest, error) {
	id, err := quest.QuestIDFromString(g.ID)
	if err != nil {
		return nil, err
	}
	tags, err := persistence.StringsFromJSON(g.RequiredHashtags)
	if err != nil {
		return nil, err
	}
	requiredData, err := persistence.DocumentFromJSON(g.RequiredData)
	if err != nil {
		return nil, err
	}

	def := quest.Definition{
		ShopID:              deref(g.ShopID),
		TouristAttractionID: deref(g.TouristAttractionID),
		Name:                g.Name,
		Description:         g.Description,
		Type:                quest.QuestType(g.Type),
		Verification:        quest.VerificationMethod(g.VerificationMethod),
		RewardAmount:        g.RewardAmount,
		RewardPoints:        g.RewardPoints,
		MaxParticipants:     g.MaxParticipants,
		StartDate:           g.StartDate,
		EndDate:             g.EndDate,
		RadiusMeters:        g.RadiusMeters,
		Budget:              g.Budget,
		OneTime:             g.IsOneTime,
		RequiredHashtags:    tags,
		PlaceNameHint:       g.PlaceNameHint,
		RequiredData:        requiredData,
		CreatedBy:           g.CreatedBy,
	}
	if g.Latitude != nil && g.Longitude != nil {
		def.Location = &geo.Point{Lat: *g.Latitude, Lon: *g.Longitude}
	}

	return quest.ReconstructQuest(id, def, quest.State{
		CurrentParticipants: g.CurrentParticipants,
		TotalSpent:          g.TotalSpent,
		Status:              quest.Status(g.Status),
		Deleted:             g.IsDeleted,
		CreatedAt:           g.CreatedAt,
		UpdatedAt:           g.UpdatedAt,
	})
}

// toGORM 將 Domain 模型轉換為 GORM 模型
func toGORM(q *quest.Quest) (*QuestGORM, error) {
	def := q.Definition()
	tags, err := persistence.StringsToJSON(def.RequiredHashtags)
	if err != nil {
		return nil, err
	}
	requiredData, err := persistence.DocumentToJSON(def.RequiredData)
	if err != nil {
		return nil, err
	}

	g := &QuestGORM{
		ID:                  q.ID().String(),
		ShopID:              nullable(def.ShopID),
		TouristAttractionID: nullable(def.TouristAttractionID),
		Name:                def.Name,
		Description:         def.Description,
		Type:                string(def.Type),
		VerificationMethod:  string(def.Verification),
		RewardAmount:        def.RewardAmount,
		RewardPoints:        def.RewardPoints,
		MaxParticipants:     def.MaxParticipants,
		CurrentParticipants: q.CurrentParticipants(),
		Budget:              def.Budget,
		TotalSpent:          q.TotalSpent(),
		StartDate:           def.StartDate.UTC(),
		EndDate:             persistence.UTCPtr(def.EndDate),
		RadiusMeters:        def.RadiusMeters,
		IsOneTime:           def.OneTime,
		RequiredHashtags:    tags,
		PlaceNameHint:       def.PlaceNameHint,
		RequiredData:        requiredData,
		Status:              string(q.Status()),
		IsDeleted:           q.IsDeleted(),
		CreatedBy:           def.CreatedBy,
		CreatedAt:           q.CreatedAt().UTC(),
		UpdatedAt:           q.UpdatedAt().UTC(),
	}
	if def.Location != nil {
		lat, lon := def.Location.Lat, def.Location.Lon
		g.Latitude = &lat
		g.Longitude = &lon
	}
	return g, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
