package reward

import (
	"github.com/jackyeh168/quest_crm/src/internal/domain/reward"
	"github.com/jackyeh168/quest_crm/src/internal/domain/shared"
	"github.com/jackyeh168/quest_crm/src/internal/infrastructure/persistence"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ===========================
// LedgerRepositoryImpl
// ===========================

// LedgerRepositoryImpl 帳本倉儲實現（GORM，只能新增）
type LedgerRepositoryImpl struct {
	db *gorm.DB
}

// NewLedgerRepository 創建新的帳本倉儲實例
func NewLedgerRepository(db *gorm.DB) *LedgerRepositoryImpl {
	return &LedgerRepositoryImpl{db: db}
}

// Append 寫入帳本記錄
//
// 在 SAVEPOINT 中寫入：冪等鍵衝突只回滾這次寫入，
// 調用者可以把 ErrAlreadySettled 當作已完成處理而不中止整個事務（PostgreSQL）。
//
// 錯誤處理：
// - UNIQUE constraint 違反（idempotency_key）→ reward.ErrAlreadySettled
func (r *LedgerRepositoryImpl) Append(ctx shared.TransactionContext, entries []*reward.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	models := make([]LedgerEntryGORM, 0, len(entries))
	for _, e := range entries {
		models = append(models, toLedgerEntryGORM(e))
	}

	err := r.getDB(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&models).Error
	})
	if err != nil {
		if persistence.IsUniqueConstraintError(err) {
			return reward.ErrAlreadySettled.WithContext("idempotency_key", entries[0].IdempotencyKey())
		}
		return persistence.RepositoryError(reward.ErrRepositoryError, "append ledger entries", err)
	}
	return nil
}

// FindByAccount 依時間倒序查詢最近的帳本記錄
func (r *LedgerRepositoryImpl) FindByAccount(ctx shared.TransactionContext, accountID reward.AccountID, limit int) ([]*reward.LedgerEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	var models []LedgerEntryGORM
	result := r.getDB(ctx).
		Where("account_id = ?", accountID.String()).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&models)
	if result.Error != nil {
		return nil, persistence.RepositoryError(reward.ErrRepositoryError, "find ledger entries", result.Error)
	}

	entries := make([]*reward.LedgerEntry, 0, len(models))
	for i := range models {
		e, err := models[i].toDomain()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// SumByAccount 帳本累計（依資產分組）
func (r *LedgerRepositoryImpl) SumByAccount(ctx shared.TransactionContext, accountID reward.AccountID) (decimal.Decimal, decimal.Decimal, error) {
	var rows []struct {
		Asset string
		Total decimal.NullDecimal
	}
	result := r.getDB(ctx).
		Model(&LedgerEntryGORM{}).
		Select("asset, SUM(amount) AS total").
		Where("account_id = ?", accountID.String()).
		Group("asset").
		Scan(&rows)
	if result.Error != nil {
		return decimal.Zero, decimal.Zero, persistence.RepositoryError(reward.ErrRepositoryError, "sum ledger entries", result.Error)
	}

	points, cash := decimal.Zero, decimal.Zero
	for _, row := range rows {
		if !row.Total.Valid {
			continue
		}
		switch reward.Asset(row.Asset) {
		case reward.AssetPoints:
			points = row.Total.Decimal
		case reward.AssetCash:
			cash = row.Total.Decimal
		}
	}
	return points, cash, nil
}

// getDB 獲取 GORM DB 實例
func (r *LedgerRepositoryImpl) getDB(ctx shared.TransactionContext) *gorm.DB {
	return persistence.TxDB(ctx, r.db)
}
