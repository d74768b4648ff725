package campaign

import (
	"github.com/jackyeh168/quest_crm/src/internal/domain/campaign"
	"github.com/jackyeh168/quest_crm/src/internal/domain/shared"
	"github.com/jackyeh168/quest_crm/src/internal/infrastructure/persistence"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ===========================
// CampaignRepositoryImpl
// ===========================

// CampaignRepositoryImpl 活動倉儲實現（GORM）
//
// 同時實作 campaign.Repository 與 campaign.CapacityGuard。
type CampaignRepositoryImpl struct {
	db *gorm.DB
}

// NewCampaignRepository 創建新的活動倉儲實例
func NewCampaignRepository(db *gorm.DB) *CampaignRepositoryImpl {
	return &CampaignRepositoryImpl{db: db}
}

// Save 保存新活動
func (r *CampaignRepositoryImpl) Save(ctx shared.TransactionContext, c *campaign.Campaign) error {
	if err := r.getDB(ctx).Create(toCampaignGORM(c)).Error; err != nil {
		return persistence.RepositoryError(campaign.ErrRepositoryError, "save campaign", err)
	}
	return nil
}

// FindByID 根據 ID 查找（包含已軟刪除的活動）
func (r *CampaignRepositoryImpl) FindByID(ctx shared.TransactionContext, id campaign.CampaignID) (*campaign.Campaign, error) {
	var gormModel CampaignGORM
	result := r.getDB(ctx).Where("id = ?", id.String()).First(&gormModel)
	if result.Error != nil {
		if persistence.IsNotFound(result.Error) {
			return nil, campaign.ErrCampaignNotFound.WithContext("campaign_id", id.String())
		}
		return nil, persistence.RepositoryError(campaign.ErrRepositoryError, "find campaign", result.Error)
	}
	return gormModel.toDomain()
}

// Update 更新定義、狀態與刪除旗標（不覆寫 current_participants）
func (r *CampaignRepositoryImpl) Update(ctx shared.TransactionContext, c *campaign.Campaign) error {
	g := toCampaignGORM(c)
	result := r.getDB(ctx).
		Model(&CampaignGORM{}).
		Where("id = ?", g.ID).
		Updates(map[string]interface{}{
			"name":                  g.Name,
			"points_per_completion": g.PointsPerCompletion,
			"points_type":           g.PointsType,
			"max_order_baht":        g.MaxOrderBaht,
			"type":                  g.Type,
			"max_participants":      g.MaxParticipants,
			"status":                g.Status,
			"start_date":            g.StartDate,
			"end_date":              g.EndDate,
			"is_deleted":            g.IsDeleted,
			"updated_at":            g.UpdatedAt,
		})
	if result.Error != nil {
		return persistence.RepositoryError(campaign.ErrRepositoryError, "update campaign", result.Error)
	}
	if result.RowsAffected == 0 {
		return campaign.ErrCampaignNotFound.WithContext("campaign_id", g.ID)
	}
	return nil
}

// HardDelete 刪除活動與所有參加記錄
//
// 訂單套用記錄保留（帳本已入帳的依據）。
func (r *CampaignRepositoryImpl) HardDelete(ctx shared.TransactionContext, id campaign.CampaignID) error {
	db := r.getDB(ctx)
	if err := db.Where("campaign_id = ?", id.String()).Delete(&ParticipationGORM{}).Error; err != nil {
		return persistence.RepositoryError(campaign.ErrRepositoryError, "delete campaign participations", err)
	}
	result := db.Where("id = ?", id.String()).Delete(&CampaignGORM{})
	if result.Error != nil {
		return persistence.RepositoryError(campaign.ErrRepositoryError, "delete campaign", result.Error)
	}
	if result.RowsAffected == 0 {
		return campaign.ErrCampaignNotFound.WithContext("campaign_id", id.String())
	}
	return nil
}

// TryAdmit 條件遞增 current_participants
//
//	UPDATE campaigns SET current_participants = current_participants + 1
//	WHERE id = ? AND (max_participants = 0 OR current_participants < max_participants)
func (r *CampaignRepositoryImpl) TryAdmit(ctx shared.TransactionContext, id campaign.CampaignID) error {
	db := r.getDB(ctx)
	result := db.
		Model(&CampaignGORM{}).
		Where("id = ?", id.String()).
		Where("max_participants = 0 OR current_participants < max_participants").
		UpdateColumn("current_participants", gorm.Expr("current_participants + 1"))
	if result.Error != nil {
		return persistence.RepositoryError(campaign.ErrRepositoryError, "admit campaign participant", result.Error)
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := db.Model(&CampaignGORM{}).Where("id = ?", id.String()).Count(&count).Error; err != nil {
			return persistence.RepositoryError(campaign.ErrRepositoryError, "count campaign", err)
		}
		if count == 0 {
			return campaign.ErrCampaignNotFound.WithContext("campaign_id", id.String())
		}
		return campaign.ErrCampaignFull.WithContext("campaign_id", id.String())
	}
	return nil
}

// getDB 獲取 GORM DB 實例
//
// 行為：
//   - ctx != nil: 使用事務中的 DB（從 TransactionContext 獲取）
//   - ctx == nil: 使用預設 DB（auto-commit 模式）
func (r *CampaignRepositoryImpl) getDB(ctx shared.TransactionContext) *gorm.DB {
	return persistence.TxDB(ctx, r.db)
}

// ===========================
// ParticipationRepositoryImpl
// ===========================

// ParticipationRepositoryImpl 活動參加記錄倉儲實現（GORM）
type ParticipationRepositoryImpl struct {
	db *gorm.DB
}

// NewParticipationRepository 創建新的活動參加記錄倉儲實例
func NewParticipationRepository(db *gorm.DB) *ParticipationRepositoryImpl {
	return &ParticipationRepositoryImpl{db: db}
}

// Save 保存新記錄
//
// 錯誤處理：
// - UNIQUE constraint 違反（campaign_id + user_id）→ ErrAlreadyJoined
func (r *ParticipationRepositoryImpl) Save(ctx shared.TransactionContext, p *campaign.Participation) error {
	result := r.getDB(ctx).Create(toParticipationGORM(p))
	if result.Error != nil {
		if persistence.IsUniqueConstraintError(result.Error) {
			return campaign.ErrAlreadyJoined.WithContext(
				"campaign_id", p.CampaignID().String(),
				"user_id", p.UserID(),
			)
		}
		return persistence.RepositoryError(campaign.ErrRepositoryError, "save campaign participation", result.Error)
	}
	return nil
}

// FindByID 根據 ID 查找
func (r *ParticipationRepositoryImpl) FindByID(ctx shared.TransactionContext, id campaign.ParticipationID) (*campaign.Participation, error) {
	var gormModel ParticipationGORM
	result := r.getDB(ctx).Where("id = ?", id.String()).First(&gormModel)
	if result.Error != nil {
		if persistence.IsNotFound(result.Error) {
			return nil, campaign.ErrParticipationNotFound.WithContext("participation_id", id.String())
		}
		return nil, persistence.RepositoryError(campaign.ErrRepositoryError, "find campaign participation", result.Error)
	}
	return gormModel.toDomain()
}

// FindByUser 查找使用者所有活動參加記錄（依參加時間排序）
func (r *ParticipationRepositoryImpl) FindByUser(ctx shared.TransactionContext, userID string) ([]*campaign.Participation, error) {
	var models []ParticipationGORM
	result := r.getDB(ctx).Where("user_id = ?", userID).Order("joined_at ASC, id ASC").Find(&models)
	if result.Error != nil {
		return nil, persistence.RepositoryError(campaign.ErrRepositoryError, "find campaign participations", result.Error)
	}

	out := make([]*campaign.Participation, 0, len(models))
	for i := range models {
		p, err := models[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// FindByCampaignAndUser 查找並在事務中鎖定該列
func (r *ParticipationRepositoryImpl) FindByCampaignAndUser(ctx shared.TransactionContext, campaignID campaign.CampaignID, userID string) (*campaign.Participation, error) {
	db := r.getDB(ctx)
	if persistence.InTx(ctx) {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var gormModel ParticipationGORM
	result := db.Where("campaign_id = ? AND user_id = ?", campaignID.String(), userID).First(&gormModel)
	if result.Error != nil {
		if persistence.IsNotFound(result.Error) {
			return nil, campaign.ErrParticipationNotFound.WithContext(
				"campaign_id", campaignID.String(),
				"user_id", userID,
			)
		}
		return nil, persistence.RepositoryError(campaign.ErrRepositoryError, "find campaign participation", result.Error)
	}
	return gormModel.toDomain()
}

// Update 以載入時的 version 為條件更新
func (r *ParticipationRepositoryImpl) Update(ctx shared.TransactionContext, p *campaign.Participation) error {
	g := toParticipationGORM(p)
	result := r.getDB(ctx).
		Model(&ParticipationGORM{}).
		Where("id = ? AND version = ?", g.ID, g.Version).
		Updates(map[string]interface{}{
			"status":              g.Status,
			"completed_at":        g.CompletedAt,
			"points_awarded":      g.PointsAwarded,
			"completion_count":    g.CompletionCount,
			"last_completed_date": g.LastCompletedDate,
			"version":             gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return persistence.RepositoryError(campaign.ErrRepositoryError, "update campaign participation", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrentModification.WithContext(
			"participation_id", g.ID,
			"expected_version", g.Version,
		)
	}
	return nil
}

func (r *ParticipationRepositoryImpl) getDB(ctx shared.TransactionContext) *gorm.DB {
	return persistence.TxDB(ctx, r.db)
}

// ===========================
// AppliedCampaignRepositoryImpl
// ===========================

// AppliedCampaignRepositoryImpl 訂單套用活動記錄倉儲實現（GORM）
type AppliedCampaignRepositoryImpl struct {
	db *gorm.DB
}

// NewAppliedCampaignRepository 創建新的套用記錄倉儲實例
func NewAppliedCampaignRepository(db *gorm.DB) *AppliedCampaignRepositoryImpl {
	return &AppliedCampaignRepositoryImpl{db: db}
}

// Record 寫入套用記錄
//
// 錯誤處理：
// - UNIQUE constraint 違反（order_id + campaign_id）→ ErrAlreadyApplied
func (r *AppliedCampaignRepositoryImpl) Record(ctx shared.TransactionContext, applied campaign.AppliedCampaign) error {
	result := r.getDB(ctx).Create(&AppliedCampaignGORM{
		OrderID:       applied.OrderID,
		CampaignID:    applied.CampaignID.String(),
		CampaignName:  applied.CampaignName,
		PointsAwarded: applied.PointsAwarded,
		AppliedAt:     applied.AppliedAt.UTC(),
	})
	if result.Error != nil {
		if persistence.IsUniqueConstraintError(result.Error) {
			return campaign.ErrAlreadyApplied.WithContext(
				"order_id", applied.OrderID,
				"campaign_id", applied.CampaignID.String(),
			)
		}
		return persistence.RepositoryError(campaign.ErrRepositoryError, "record applied campaign", result.Error)
	}
	return nil
}

// FindByOrder 查詢訂單套用的活動
func (r *AppliedCampaignRepositoryImpl) FindByOrder(ctx shared.TransactionContext, orderID string) ([]campaign.AppliedCampaign, error) {
	var models []AppliedCampaignGORM
	if err := r.getDB(ctx).Where("order_id = ?", orderID).Order("id ASC").Find(&models).Error; err != nil {
		return nil, persistence.RepositoryError(campaign.ErrRepositoryError, "find applied campaigns", err)
	}

	out := make([]campaign.AppliedCampaign, 0, len(models))
	for i := range models {
		applied, err := models[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, applied)
	}
	return out, nil
}

func (r *AppliedCampaignRepositoryImpl) getDB(ctx shared.TransactionContext) *gorm.DB {
	return persistence.TxDB(ctx, r.db)
}

// ===========================
// ShopOwnerResolverImpl
// ===========================

// ShopOwnerResolverImpl 從 shops 讀取模型查詢擁有者
type ShopOwnerResolverImpl struct {
	db *gorm.DB
}

// NewShopOwnerResolver 創建擁有者查詢實例
func NewShopOwnerResolver(db *gorm.DB) *ShopOwnerResolverImpl {
	return &ShopOwnerResolverImpl{db: db}
}

// OwnerOf 查詢商店擁有者
func (r *ShopOwnerResolverImpl) OwnerOf(ctx shared.TransactionContext, shopID string) (string, error) {
	var shop ShopGORM
	result := persistence.TxDB(ctx, r.db).Where("id = ?", shopID).First(&shop)
	if result.Error != nil {
		if persistence.IsNotFound(result.Error) {
			return "", campaign.ErrShopNotFound.WithContext("shop_id", shopID)
		}
		return "", persistence.RepositoryError(campaign.ErrRepositoryError, "find shop", result.Error)
	}
	return shop.OwnerID, nil
}
