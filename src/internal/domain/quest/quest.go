package quest

import (
	"strings"
	"time"

	"github.com/jackyeh168/quest_crm/src/internal/domain/geo"
	"github.com/jackyeh168/quest_crm/src/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DefaultRadiusMeters 打卡任務未指定半徑時的預設值
const DefaultRadiusMeters = 100.0

// ===========================
// Quest 聚合根
// ===========================

// Quest 任務聚合根
//
// 業務不變條件：
// - maxParticipants > 0 時 currentParticipants <= maxParticipants
// - budget > 0 時 totalSpent <= budget
// - 商店任務帶 shopID，觀光景點任務帶 touristAttractionID，二者擇一
//
// 計數器（currentParticipants、totalSpent）只能透過 CapacityGuard 的條件更新修改，
// 聚合上的值僅為讀取時的快照。
type Quest struct {
	id         QuestID
	definition Definition

	currentParticipants int
	totalSpent          decimal.Decimal
	status              Status
	deleted             bool

	createdAt time.Time
	updatedAt time.Time
}

// Definition 任務定義（建立時由商店、管理員或系統提供）
type Definition struct {
	ShopID              string
	TouristAttractionID string
	Name                string
	Description         string
	Type                QuestType
	Verification        VerificationMethod
	RewardAmount        decimal.Decimal
	RewardPoints        int64
	MaxParticipants     int
	StartDate           time.Time
	EndDate             *time.Time
	Location            *geo.Point
	RadiusMeters        float64
	Budget              decimal.Decimal
	OneTime             bool
	RequiredHashtags    []string
	PlaceNameHint       string
	RequiredData        *shared.Document
	CreatedBy           string
}

// State 持久化的可變狀態（僅供重建使用）
type State struct {
	CurrentParticipants int
	TotalSpent          decimal.Decimal
	Status              Status
	Deleted             bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// TouristAttraction 觀光景點快照（由景點 CRUD 提供）
type TouristAttraction struct {
	ID           string
	Name         string
	Location     geo.Point
	RadiusMeters float64
	RewardPoints int64
}

// NewQuest 建立新任務
//
// 業務規則：
// - 名稱、類型、驗證方式必填
// - 地理圍欄驗證需要座標，半徑未指定時使用 DefaultRadiusMeters
// - 社群驗證需要至少一個 hashtag 或地點名稱
// - 結束日期不可早於開始日期
// - 新任務狀態為 active
func NewQuest(def Definition, now time.Time) (*Quest, error) {
	def = normalizeDefinition(def, now)
	if err := validateDefinition(def); err != nil {
		return nil, err
	}

	return &Quest{
		id:         NewQuestID(),
		definition: def,
		totalSpent: decimal.Zero,
		status:     StatusActive,
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

// NewTouristQuest 為觀光景點建立系統任務
func NewTouristQuest(attraction TouristAttraction, now time.Time) (*Quest, error) {
	if strings.TrimSpace(attraction.ID) == "" {
		return nil, ErrInvalidQuestDefinition.WithContext("reason", "attraction id is required")
	}
	location := attraction.Location
	name := attraction.Name
	if name == "" {
		name = attraction.ID
	}
	return NewQuest(Definition{
		TouristAttractionID: attraction.ID,
		Name:                "Check in at " + name,
		Type:                TypeLocationCheckin,
		Verification:        VerifyLocation,
		RewardAmount:        decimal.Zero,
		RewardPoints:        attraction.RewardPoints,
		StartDate:           now,
		Location:            &location,
		RadiusMeters:        attraction.RadiusMeters,
		Budget:              decimal.Zero,
		CreatedBy:           shared.SystemAuthor,
	}, now)
}

// ReconstructQuest 從持久化存儲重建聚合根（不執行建立規則）
func ReconstructQuest(id QuestID, def Definition, state State) (*Quest, error) {
	if id.IsEmpty() {
		return nil, ErrInvalidQuestID.WithContext("reason", "invalid quest ID in database")
	}
	if _, err := ParseStatus(string(state.Status)); err != nil {
		return nil, err
	}
	return &Quest{
		id:                  id,
		definition:          def,
		currentParticipants: state.CurrentParticipants,
		totalSpent:          state.TotalSpent,
		status:              state.Status,
		deleted:             state.Deleted,
		createdAt:           state.CreatedAt,
		updatedAt:           state.UpdatedAt,
	}, nil
}

// ===========================
// 查詢方法
// ===========================

func (q *Quest) ID() QuestID                      { return q.id }
func (q *Quest) Definition() Definition           { return q.definition }
func (q *Quest) ShopID() string                   { return q.definition.ShopID }
func (q *Quest) TouristAttractionID() string      { return q.definition.TouristAttractionID }
func (q *Quest) Name() string                     { return q.definition.Name }
func (q *Quest) Type() QuestType                  { return q.definition.Type }
func (q *Quest) Verification() VerificationMethod { return q.definition.Verification }
func (q *Quest) RewardAmount() decimal.Decimal    { return q.definition.RewardAmount }
func (q *Quest) RewardPoints() int64              { return q.definition.RewardPoints }
func (q *Quest) MaxParticipants() int             { return q.definition.MaxParticipants }
func (q *Quest) CurrentParticipants() int         { return q.currentParticipants }
func (q *Quest) Budget() decimal.Decimal          { return q.definition.Budget }
func (q *Quest) TotalSpent() decimal.Decimal      { return q.totalSpent }
func (q *Quest) Status() Status                   { return q.status }
func (q *Quest) IsDeleted() bool                  { return q.deleted }
func (q *Quest) IsOneTime() bool                  { return q.definition.OneTime }
func (q *Quest) CreatedAt() time.Time             { return q.createdAt }
func (q *Quest) UpdatedAt() time.Time             { return q.updatedAt }

// IsActive 是否啟用（由 Status 推導）
func (q *Quest) IsActive() bool {
	return q.status == StatusActive
}

// IsCheckin 是否為每日打卡任務
func (q *Quest) IsCheckin() bool {
	return q.definition.Type.IsCheckin()
}

// Geofence 返回地理圍欄中心與半徑
func (q *Quest) Geofence() (geo.Point, float64, bool) {
	if q.definition.Location == nil {
		return geo.Point{}, 0, false
	}
	return *q.definition.Location, q.definition.RadiusMeters, true
}

// SocialRequirement 返回社群驗證所需的 hashtag 與地點名稱
func (q *Quest) SocialRequirement() ([]string, string) {
	tags := make([]string, len(q.definition.RequiredHashtags))
	copy(tags, q.definition.RequiredHashtags)
	return tags, q.definition.PlaceNameHint
}

// ===========================
// 業務規則
// ===========================

// CheckJoinable 檢查任務在 now 是否開放參加
//
// 錯誤：ErrQuestNotActive（狀態非 active 或不在 [startDate, endDate] 區間）
func (q *Quest) CheckJoinable(now time.Time) error {
	if q.deleted {
		return ErrQuestNotFound.WithContext("quest_id", q.id.String())
	}
	if !q.IsActive() {
		return ErrQuestNotActive.WithContext(
			"quest_id", q.id.String(),
			"status", string(q.status),
		)
	}
	if now.Before(q.definition.StartDate) {
		return ErrQuestNotActive.WithContext(
			"quest_id", q.id.String(),
			"reason", "not_started",
			"start_date", q.definition.StartDate,
		)
	}
	if q.definition.EndDate != nil && now.After(*q.definition.EndDate) {
		return ErrQuestNotActive.WithContext(
			"quest_id", q.id.String(),
			"reason", "ended",
			"end_date", *q.definition.EndDate,
		)
	}
	return nil
}

// IsAvailableAt 任務在 now 是否可參加
func (q *Quest) IsAvailableAt(now time.Time) bool {
	return q.CheckJoinable(now) == nil
}

// HasCapacity 快照上是否仍有名額（僅供提示，准入由條件更新決定）
func (q *Quest) HasCapacity() bool {
	limit := q.definition.MaxParticipants
	return limit == 0 || q.currentParticipants < limit
}

// CheckinPoints 打卡任務的積分：任務設定 > 0 時使用任務設定，否則使用系統預設
func (q *Quest) CheckinPoints(defaultPoints int64) int64 {
	if q.definition.RewardPoints > 0 {
		return q.definition.RewardPoints
	}
	return defaultPoints
}

// ChangeStatus 變更任務狀態
func (q *Quest) ChangeStatus(status Status, now time.Time) error {
	if _, err := ParseStatus(string(status)); err != nil {
		return err
	}
	q.status = status
	q.updatedAt = now
	return nil
}

// SoftDelete 標記刪除（有提交記錄後不可硬刪除）
func (q *Quest) SoftDelete(now time.Time) {
	q.deleted = true
	q.status = StatusCancelled
	q.updatedAt = now
}

// ===========================
// 私有輔助方法
// ===========================

func normalizeDefinition(def Definition, now time.Time) Definition {
	def.Name = strings.TrimSpace(def.Name)
	def.PlaceNameHint = strings.TrimSpace(def.PlaceNameHint)
	if def.StartDate.IsZero() {
		def.StartDate = now
	}
	if def.Location != nil && def.RadiusMeters <= 0 {
		def.RadiusMeters = DefaultRadiusMeters
	}
	tags := make([]string, 0, len(def.RequiredHashtags))
	for _, tag := range def.RequiredHashtags {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	def.RequiredHashtags = tags
	if def.RequiredData == nil {
		def.RequiredData = shared.NewDocument()
	}
	return def
}

func validateDefinition(def Definition) error {
	if def.Name == "" {
		return ErrInvalidQuestDefinition.WithContext("field", "name")
	}
	hasShop := strings.TrimSpace(def.ShopID) != ""
	hasAttraction := strings.TrimSpace(def.TouristAttractionID) != ""
	if hasShop == hasAttraction {
		return ErrInvalidQuestDefinition.WithContext(
			"field", "owner",
			"reason", "exactly one of shopId or touristAttractionId is required",
		)
	}
	if _, err := ParseQuestType(string(def.Type)); err != nil {
		return err
	}
	if _, err := ParseVerificationMethod(string(def.Verification)); err != nil {
		return err
	}
	if def.RewardAmount.IsNegative() || def.RewardPoints < 0 {
		return ErrInvalidQuestDefinition.WithContext("field", "reward", "reason", "must not be negative")
	}
	if def.MaxParticipants < 0 {
		return ErrInvalidQuestDefinition.WithContext("field", "maxParticipants", "reason", "must not be negative")
	}
	if def.Budget.IsNegative() {
		return ErrInvalidQuestDefinition.WithContext("field", "budget", "reason", "must not be negative")
	}
	if def.EndDate != nil && def.EndDate.Before(def.StartDate) {
		return ErrInvalidQuestDefinition.WithContext("field", "endDate", "reason", "before startDate")
	}
	if def.Verification.RequiresGeofence() && def.Location == nil {
		return ErrInvalidQuestDefinition.WithContext("field", "coordinates", "reason", "required for location verification")
	}
	if def.Location != nil {
		if _, err := geo.NewPoint(def.Location.Lat, def.Location.Lon); err != nil {
			return err
		}
	}
	if def.Verification.RequiresSocialProof() && len(def.RequiredHashtags) == 0 && def.PlaceNameHint == "" {
		return ErrInvalidQuestDefinition.WithContext("field", "requiredHashtags", "reason", "hashtag or place name required for social verification")
	}
	if strings.TrimSpace(def.CreatedBy) == "" {
		return ErrInvalidQuestDefinition.WithContext("field", "createdBy")
	}
	return nil
}
