package quest

import (
	"time"

	"github.com/jackyeh168/quest_crm/src/internal/domain/quest"
	"github.com/jackyeh168/quest_crm/src/internal/domain/shared"
	"github.com/jackyeh168/quest_crm/src/internal/infrastructure/persistence"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ===========================
// QuestRepositoryImpl
// ===========================

// QuestRepositoryImpl 任務倉儲實現（GORM）
//
// 設計原則：
// - 實作 quest.Repository 與 quest.CapacityGuard
// - 所有查詢排除已軟刪除的任務
// - 計數器只透過條件式 UPDATE 修改，Update 不會覆寫
type QuestRepositoryImpl struct {
	db *gorm.DB
}

// NewQuestRepository 創建新的任務倉儲實例
func NewQuestRepository(db *gorm.DB) *QuestRepositoryImpl {
	return &QuestRepositoryImpl{db: db}
}

// Save 保存新任務
//
// 錯誤處理：
// - UNIQUE constraint 違反（tourist_attraction_id 重複）→ ErrQuestAlreadyExists
func (r *QuestRepositoryImpl) Save(ctx shared.TransactionContext, q *quest.Quest) error {
	gormModel, err := toGORM(q)
	if err != nil {
		return err
	}

	result := r.getDB(ctx).Create(gormModel)
	if result.Error != nil {
		if persistence.IsUniqueConstraintError(result.Error) {
			return quest.ErrQuestAlreadyExists.WithContext(
				"quest_id", q.ID().String(),
				"tourist_attraction_id", q.TouristAttractionID(),
			)
		}
		return persistence.RepositoryError(quest.ErrRepositoryError, "save quest", result.Error)
	}
	return nil
}

// SaveIfAbsentForAttraction 景點尚無可參加的任務時插入，返回最終存在的任務
//
// 實作邏輯：
// 1. INSERT ... ON CONFLICT DO NOTHING（衝突來自 idx_quests_live_attraction 部分唯一索引）
// 2. 重新讀取 active 任務（並發時讀到先插入的那一筆）
//
// 部分索引無法以欄位推斷衝突目標，因此不指定 conflict target。
func (r *QuestRepositoryImpl) SaveIfAbsentForAttraction(ctx shared.TransactionContext, q *quest.Quest) (*quest.Quest, error) {
	if q.TouristAttractionID() == "" {
		return nil, quest.ErrInvalidQuestDefinition.WithContext("reason", "not a tourist attraction quest")
	}
	gormModel, err := toGORM(q)
	if err != nil {
		return nil, err
	}

	result := r.getDB(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(gormModel)
	if result.Error != nil {
		return nil, persistence.RepositoryError(quest.ErrRepositoryError, "insert tourist quest", result.Error)
	}

	return r.FindByTouristAttraction(ctx, q.TouristAttractionID())
}

// FindByID 根據 ID 查找任務
//
// 錯誤處理：
// - gorm.ErrRecordNotFound → quest.ErrQuestNotFound
func (r *QuestRepositoryImpl) FindByID(ctx shared.TransactionContext, id quest.QuestID) (*quest.Quest, error) {
	var gormModel QuestGORM
	result := r.getDB(ctx).
		Where("id = ? AND is_deleted = ?", id.String(), false).
		First(&gormModel)
	if result.Error != nil {
		if persistence.IsNotFound(result.Error) {
			return nil, quest.ErrQuestNotFound.WithContext("quest_id", id.String())
		}
		return nil, persistence.RepositoryError(quest.ErrRepositoryError, "find quest", result.Error)
	}
	return gormModel.toDomain()
}

// FindActiveByShop 查找商店在 now 可參加的任務（依建立時間排序）
func (r *QuestRepositoryImpl) FindActiveByShop(ctx shared.TransactionContext, shopID string, now time.Time) ([]*quest.Quest, error) {
	now = now.UTC()

	var gormModels []QuestGORM
	result := r.getDB(ctx).
		Where("shop_id = ? AND status = ? AND is_deleted = ?", shopID, string(quest.StatusActive), false).
		Where("start_date <= ?", now).
		Where("end_date IS NULL OR end_date >= ?", now).
		Order("created_at ASC").
		Find(&gormModels)
	if result.Error != nil {
		return nil, persistence.RepositoryError(quest.ErrRepositoryError, "find active quests", result.Error)
	}

	quests := make([]*quest.Quest, 0, len(gormModels))
	for i := range gormModels {
		q, err := gormModels[i].toDomain()
		if err != nil {
			return nil, err
		}
		quests = append(quests, q)
	}
	return quests, nil
}

// FindByTouristAttraction 查找景點目前 active 的任務
//
// 已軟刪除或非 active（暫停、結束）的舊任務不會返回。
func (r *QuestRepositoryImpl) FindByTouristAttraction(ctx shared.TransactionContext, attractionID string) (*quest.Quest, error) {
	var gormModel QuestGORM
	result := r.getDB(ctx).
		Where("tourist_attraction_id = ? AND status = ? AND is_deleted = ?", attractionID, string(quest.StatusActive), false).
		First(&gormModel)
	if result.Error != nil {
		if persistence.IsNotFound(result.Error) {
			return nil, quest.ErrQuestNotFound.WithContext("tourist_attraction_id", attractionID)
		}
		return nil, persistence.RepositoryError(quest.ErrRepositoryError, "find tourist quest", result.Error)
	}
	return gormModel.toDomain()
}

// Update 更新任務定義、狀態與刪除旗標
//
// 注意：使用 map 而非 struct，零值欄位（例如 is_deleted = false）也會寫入；
// current_participants 與 total_spent 不在更新欄位中。
func (r *QuestRepositoryImpl) Update(ctx shared.TransactionContext, q *quest.Quest) error {
	g, err := toGORM(q)
	if err != nil {
		return err
	}

	result := r.getDB(ctx).
		Model(&QuestGORM{}).
		Where("id = ?", g.ID).
		Updates(map[string]interface{}{
			"name":              g.Name,
			"description":       g.Description,
			"reward_amount":     g.RewardAmount,
			"reward_points":     g.RewardPoints,
			"max_participants":  g.MaxParticipants,
			"budget":            g.Budget,
			"start_date":        g.StartDate,
			"end_date":          g.EndDate,
			"latitude":          g.Latitude,
			"longitude":         g.Longitude,
			"radius_meters":     g.RadiusMeters,
			"is_one_time":       g.IsOneTime,
			"required_hashtags": g.RequiredHashtags,
			"place_name_hint":   g.PlaceNameHint,
			"required_data":     g.RequiredData,
			"status":            g.Status,
			"is_deleted":        g.IsDeleted,
			"updated_at":        g.UpdatedAt,
		})
	if result.Error != nil {
		// 重新啟用景點任務時，該景點已有另一筆 active 任務
		if persistence.IsUniqueConstraintError(result.Error) {
			return quest.ErrQuestAlreadyExists.WithContext(
				"quest_id", g.ID,
				"tourist_attraction_id", q.TouristAttractionID(),
			)
		}
		return persistence.RepositoryError(quest.ErrRepositoryError, "update quest", result.Error)
	}
	if result.RowsAffected == 0 {
		return quest.ErrQuestNotFound.WithContext("quest_id", g.ID)
	}
	return nil
}

// ===========================
// CapacityGuard
// ===========================

// TryAdmit 條件遞增 current_participants
//
//	UPDATE quests SET current_participants = current_participants + 1
//	WHERE id = ? AND (max_participants = 0 OR current_participants < max_participants)
//
// 影響 0 列時區分任務不存在與名額已滿。
func (r *QuestRepositoryImpl) TryAdmit(ctx shared.TransactionContext, id quest.QuestID) error {
	db := r.getDB(ctx)
	result := db.
		Model(&QuestGORM{}).
		Where("id = ? AND is_deleted = ?", id.String(), false).
		Where("max_participants = 0 OR current_participants < max_participants").
		UpdateColumn("current_participants", gorm.Expr("current_participants + 1"))
	if result.Error != nil {
		return persistence.RepositoryError(quest.ErrRepositoryError, "admit participant", result.Error)
	}
	if result.RowsAffected == 0 {
		if err := r.ensureExists(db, id); err != nil {
			return err
		}
		return quest.ErrQuestFull.WithContext("quest_id", id.String())
	}
	return nil
}

// Release 遞減 current_participants（不低於 0）
func (r *QuestRepositoryImpl) Release(ctx shared.TransactionContext, id quest.QuestID) error {
	result := r.getDB(ctx).
		Model(&QuestGORM{}).
		Where("id = ? AND current_participants > 0", id.String()).
		UpdateColumn("current_participants", gorm.Expr("current_participants - 1"))
	if result.Error != nil {
		return persistence.RepositoryError(quest.ErrRepositoryError, "release participant", result.Error)
	}
	return nil
}

// TrySpend 條件累加 total_spent
//
//	UPDATE quests SET total_spent = total_spent + ?
//	WHERE id = ? AND (budget = 0 OR total_spent + ? <= budget)
func (r *QuestRepositoryImpl) TrySpend(ctx shared.TransactionContext, id quest.QuestID, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return nil
	}
	db := r.getDB(ctx)
	result := db.
		Model(&QuestGORM{}).
		Where("id = ?", id.String()).
		Where("budget = 0 OR total_spent + ? <= budget", amount).
		UpdateColumn("total_spent", gorm.Expr("total_spent + ?", amount))
	if result.Error != nil {
		return persistence.RepositoryError(quest.ErrRepositoryError, "spend budget", result.Error)
	}
	if result.RowsAffected == 0 {
		if err := r.ensureExists(db, id); err != nil {
			return err
		}
		return quest.ErrBudgetExhausted.WithContext(
			"quest_id", id.String(),
			"amount", amount.String(),
		)
	}
	return nil
}

// ===========================
// Helper Methods
// ===========================

// getDB 獲取 GORM DB 實例
//
// 行為：
//   - ctx != nil: 使用事務中的 DB（從 TransactionContext 獲取）
//   - ctx == nil: 使用預設 DB（auto-commit 模式）
func (r *QuestRepositoryImpl) getDB(ctx shared.TransactionContext) *gorm.DB {
	return persistence.TxDB(ctx, r.db)
}

func (r *QuestRepositoryImpl) ensureExists(db *gorm.DB, id quest.QuestID) error {
	var count int64
	if err := db.Model(&QuestGORM{}).Where("id = ? AND is_deleted = ?", id.String(), false).Count(&count).Error; err != nil {
		return persistence.RepositoryError(quest.ErrRepositoryError, "count quest", err)
	}
	if count == 0 {
		return quest.ErrQuestNotFound.WithContext("quest_id", id.String())
	}
	return nil
}
