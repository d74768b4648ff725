package reward

import (
	"github.com/jackyeh168/quest_crm/src/internal/domain/reward"
	"github.com/jackyeh168/quest_crm/src/internal/domain/shared"
	"github.com/jackyeh168/quest_crm/src/internal/infrastructure/persistence"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ===========================
// AccountRepositoryImpl
// ===========================

// AccountRepositoryImpl 獎勵帳戶倉儲實現（GORM）
//
// 設計原則：
// - 實作 reward.AccountRepository
// - 首次入帳以 INSERT ... ON CONFLICT DO NOTHING 建立帳戶，並發時只有一筆
// - 餘額更新以 version 為條件（樂觀鎖）
type AccountRepositoryImpl struct {
	db *gorm.DB
}

// NewAccountRepository 創建新的獎勵帳戶倉儲實例
func NewAccountRepository(db *gorm.DB) *AccountRepositoryImpl {
	return &AccountRepositoryImpl{db: db}
}

// SaveIfAbsent 擁有者尚無帳戶時插入
func (r *AccountRepositoryImpl) SaveIfAbsent(ctx shared.TransactionContext, account *reward.Account) error {
	result := r.getDB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "owner_id"}, {Name: "owner_type"}},
			DoNothing: true,
		}).
		Create(toAccountGORM(account))
	if result.Error != nil {
		return persistence.RepositoryError(reward.ErrRepositoryError, "save account", result.Error)
	}
	return nil
}

// FindByOwner 根據擁有者查找帳戶（事務中鎖定該列）
//
// 錯誤處理：
// - gorm.ErrRecordNotFound → reward.ErrAccountNotFound
func (r *AccountRepositoryImpl) FindByOwner(ctx shared.TransactionContext, ownerID string, ownerType reward.OwnerType) (*reward.Account, error) {
	db := r.getDB(ctx)
	if persistence.InTx(ctx) {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var gormModel AccountGORM
	result := db.Where("owner_id = ? AND owner_type = ?", ownerID, string(ownerType)).First(&gormModel)
	if result.Error != nil {
		if persistence.IsNotFound(result.Error) {
			return nil, reward.ErrAccountNotFound.WithContext(
				"owner_id", ownerID,
				"owner_type", string(ownerType),
			)
		}
		return nil, persistence.RepositoryError(reward.ErrRepositoryError, "find account", result.Error)
	}
	return gormModel.toDomain()
}

// UpdateBalance 以載入時的 version 為條件更新餘額
//
//	UPDATE reward_accounts SET points_balance = ?, cash_balance = ?, version = version + 1
//	WHERE id = ? AND version = ?
func (r *AccountRepositoryImpl) UpdateBalance(ctx shared.TransactionContext, account *reward.Account) error {
	g := toAccountGORM(account)

	result := r.getDB(ctx).
		Model(&AccountGORM{}).
		Where("id = ? AND version = ?", g.ID, g.Version).
		Updates(map[string]interface{}{
			"points_balance": g.PointsBalance,
			"cash_balance":   g.CashBalance,
			"version":        gorm.Expr("version + 1"),
			"updated_at":     g.UpdatedAt,
		})
	if result.Error != nil {
		return persistence.RepositoryError(reward.ErrRepositoryError, "update balance", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrentModification.WithContext(
			"account_id", g.ID,
			"expected_version", g.Version,
		)
	}
	return nil
}

// getDB 獲取 GORM DB 實例
//
// 行為：
//   - ctx != nil: 使用事務中的 DB（從 TransactionContext 獲取）
//   - ctx == nil: 使用預設 DB（auto-commit 模式）
func (r *AccountRepositoryImpl) getDB(ctx shared.TransactionContext) *gorm.DB {
	return persistence.TxDB(ctx, r.db)
}
