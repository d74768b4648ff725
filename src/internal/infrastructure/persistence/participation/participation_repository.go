package participation

import (
	"github.com/jackyeh168/quest_crm/src/internal/domain/participation"
	"github.com/jackyeh168/quest_crm/src/internal/domain/quest"
	"github.com/jackyeh168/quest_crm/src/internal/domain/shared"
	"github.com/jackyeh168/quest_crm/src/internal/infrastructure/persistence"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ===========================
// UserQuestRepositoryImpl
// ===========================

// UserQuestRepositoryImpl 參加記錄倉儲實現（GORM）
//
// 設計原則：
// - (user_id, quest_id) 唯一索引保證每位使用者每個任務只有一筆記錄
// - Update / Delete 以 version（與 status）為條件，並發的狀態轉換只有一個成功
// - 事務中查詢使用 SELECT ... FOR UPDATE 鎖定記錄（SQLite 以資料庫鎖代替）
type UserQuestRepositoryImpl struct {
	db *gorm.DB
}

// NewUserQuestRepository 創建新的參加記錄倉儲實例
func NewUserQuestRepository(db *gorm.DB) *UserQuestRepositoryImpl {
	return &UserQuestRepositoryImpl{db: db}
}

// Save 保存新的參加記錄
//
// 錯誤處理：
// - UNIQUE constraint 違反（user_id + quest_id）→ ErrAlreadyParticipating
func (r *UserQuestRepositoryImpl) Save(ctx shared.TransactionContext, uq *participation.UserQuest) error {
	gormModel, err := toGORM(uq)
	if err != nil {
		return err
	}

	result := r.getDB(ctx).Create(gormModel)
	if result.Error != nil {
		if persistence.IsUniqueConstraintError(result.Error) {
			return participation.ErrAlreadyParticipating.WithContext(
				"user_id", uq.UserID(),
				"quest_id", uq.QuestID().String(),
			)
		}
		return persistence.RepositoryError(participation.ErrRepositoryError, "save participation", result.Error)
	}
	return nil
}

// FindByID 根據 ID 查找
func (r *UserQuestRepositoryImpl) FindByID(ctx shared.TransactionContext, id participation.ParticipationID) (*participation.UserQuest, error) {
	db := r.getDB(ctx)

	var gormModel UserQuestGORM
	result := r.lock(ctx, db).Where("id = ?", id.String()).First(&gormModel)
	if result.Error != nil {
		if persistence.IsNotFound(result.Error) {
			return nil, participation.ErrParticipationNotFound.WithContext("participation_id", id.String())
		}
		return nil, persistence.RepositoryError(participation.ErrRepositoryError, "find participation", result.Error)
	}
	return r.withReviews(db, &gormModel)
}

// FindByUserAndQuest 查找使用者對任務的記錄（事務中鎖定該列）
func (r *UserQuestRepositoryImpl) FindByUserAndQuest(ctx shared.TransactionContext, userID string, questID quest.QuestID) (*participation.UserQuest, error) {
	db := r.getDB(ctx)

	var gormModel UserQuestGORM
	result := r.lock(ctx, db).
		Where("user_id = ? AND quest_id = ?", userID, questID.String()).
		First(&gormModel)
	if result.Error != nil {
		if persistence.IsNotFound(result.Error) {
			return nil, participation.ErrParticipationNotFound.WithContext(
				"user_id", userID,
				"quest_id", questID.String(),
			)
		}
		return nil, persistence.RepositoryError(participation.ErrRepositoryError, "find participation", result.Error)
	}
	return r.withReviews(db, &gormModel)
}

// Update 以載入時的 version 與 status 為條件更新
//
//	UPDATE user_quests SET ..., version = version + 1
//	WHERE id = ? AND version = ? AND status = ?
//
// 影響 0 列表示記錄已被其他請求轉換 → shared.ErrConcurrentModification
func (r *UserQuestRepositoryImpl) Update(ctx shared.TransactionContext, uq *participation.UserQuest) error {
	g, err := toGORM(uq)
	if err != nil {
		return err
	}

	result := r.getDB(ctx).
		Model(&UserQuestGORM{}).
		Where("id = ? AND version = ? AND status = ?", g.ID, uq.Version(), string(uq.PersistedStatus())).
		Updates(map[string]interface{}{
			"status":            g.Status,
			"verification_data": g.VerificationData,
			"submission_data":   g.SubmissionData,
			"verified_at":       g.VerifiedAt,
			"completed_at":      g.CompletedAt,
			"version":           gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return persistence.RepositoryError(participation.ErrRepositoryError, "update participation", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrentModification.WithContext(
			"participation_id", g.ID,
			"expected_version", uq.Version(),
			"expected_status", string(uq.PersistedStatus()),
		)
	}
	return nil
}

// Delete 以載入時的 version 為條件刪除記錄與其評論
func (r *UserQuestRepositoryImpl) Delete(ctx shared.TransactionContext, uq *participation.UserQuest) error {
	db := r.getDB(ctx)

	result := db.
		Where("id = ? AND version = ?", uq.ID().String(), uq.Version()).
		Delete(&UserQuestGORM{})
	if result.Error != nil {
		return persistence.RepositoryError(participation.ErrRepositoryError, "delete participation", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrentModification.WithContext(
			"participation_id", uq.ID().String(),
			"expected_version", uq.Version(),
		)
	}

	if err := db.Where("participation_id = ?", uq.ID().String()).Delete(&ReviewGORM{}).Error; err != nil {
		return persistence.RepositoryError(participation.ErrRepositoryError, "delete reviews", err)
	}
	return nil
}

// AddReviews 寫入評論
func (r *UserQuestRepositoryImpl) AddReviews(ctx shared.TransactionContext, uq *participation.UserQuest, reviews []participation.Review) error {
	if len(reviews) == 0 {
		return nil
	}
	models := make([]ReviewGORM, 0, len(reviews))
	for _, review := range reviews {
		models = append(models, toReviewGORM(uq, review))
	}
	if err := r.getDB(ctx).Create(&models).Error; err != nil {
		return persistence.RepositoryError(participation.ErrRepositoryError, "save reviews", err)
	}
	return nil
}

// FindReviewsByMenuItem 依正規化的商品 ID 查詢評論（依建立時間排序）
func (r *UserQuestRepositoryImpl) FindReviewsByMenuItem(ctx shared.TransactionContext, questID *quest.QuestID, menuItemID string) ([]participation.ReviewRecord, error) {
	query := r.getDB(ctx).
		Where("menu_item_key = ?", participation.NormalizeMenuItemID(menuItemID))
	if questID != nil {
		query = query.Where("quest_id = ?", questID.String())
	}

	var models []ReviewGORM
	if err := query.Order("created_at ASC, id ASC").Find(&models).Error; err != nil {
		return nil, persistence.RepositoryError(participation.ErrRepositoryError, "find reviews", err)
	}

	records := make([]participation.ReviewRecord, 0, len(models))
	for _, m := range models {
		record, err := m.toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// CountSlotHolders 統計佔用名額的記錄數（用於核對 current_participants）
func (r *UserQuestRepositoryImpl) CountSlotHolders(ctx shared.TransactionContext, questID quest.QuestID) (int64, error) {
	var count int64
	err := r.getDB(ctx).
		Model(&UserQuestGORM{}).
		Where("quest_id = ?", questID.String()).
		Where("status IN ?", []string{
			string(participation.StatusParticipating),
			string(participation.StatusPending),
			string(participation.StatusCompleted),
		}).
		Count(&count).Error
	if err != nil {
		return 0, persistence.RepositoryError(participation.ErrRepositoryError, "count slot holders", err)
	}
	return count, nil
}

// ===========================
// Helper Methods
// ===========================

// getDB 獲取 GORM DB 實例
//
// 行為：
//   - ctx != nil: 使用事務中的 DB（從 TransactionContext 獲取）
//   - ctx == nil: 使用預設 DB（auto-commit 模式）
func (r *UserQuestRepositoryImpl) getDB(ctx shared.TransactionContext) *gorm.DB {
	return persistence.TxDB(ctx, r.db)
}

// lock 事務中加上 FOR UPDATE
func (r *UserQuestRepositoryImpl) lock(ctx shared.TransactionContext, db *gorm.DB) *gorm.DB {
	if persistence.InTx(ctx) {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

func (r *UserQuestRepositoryImpl) withReviews(db *gorm.DB, g *UserQuestGORM) (*participation.UserQuest, error) {
	var reviews []ReviewGORM
	if err := db.Where("participation_id = ?", g.ID).Order("created_at ASC, id ASC").Find(&reviews).Error; err != nil {
		return nil, persistence.RepositoryError(participation.ErrRepositoryError, "load reviews", err)
	}
	return g.toDomain(reviews)
}
