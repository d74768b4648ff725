package reward

import (
	"time"

	"github.com/jackyeh168/quest_crm/src/internal/domain/reward"
	"github.com/shopspring/decimal"
)

// ===========================
// GORM Models
// ===========================

// AccountGORM 獎勵帳戶資料表模型
//
// 資料庫約束：
// - id: 主鍵（UUID）
// - (owner_id, owner_type): 唯一索引（每個擁有者一個帳戶）
// - points_balance / cash_balance: 帳本累計的快取（>= 0）
// - version: 樂觀鎖
type AccountGORM struct {
	// 識別欄位
	ID        string `gorm:"column:id;type:varchar(36);primaryKey"`
	OwnerID   string `gorm:"column:owner_id;type:varchar(64);not null;uniqueIndex:idx_reward_accounts_owner,priority:1"`
	OwnerType string `gorm:"column:owner_type;type:varchar(16);not null;uniqueIndex:idx_reward_accounts_owner,priority:2"`

	// 餘額
	PointsBalance int64           `gorm:"column:points_balance;not null;check:points_balance >= 0"`
	CashBalance   decimal.Decimal `gorm:"column:cash_balance;type:decimal(14,2);not null;check:cash_balance >= 0"`

	Version int `gorm:"column:version;not null"`

	// 審計欄位
	CreatedAt time.Time `gorm:"column:created_at;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

// TableName 指定資料表名稱
func (AccountGORM) TableName() string {
	return "reward_accounts"
}

// LedgerEntryGORM 帳本記錄資料表模型（只能新增）
//
// 資料庫約束：
// - idempotency_key: 唯一索引，同一個結算只能入帳一次
// - balance_after = balance_before + amount
type LedgerEntryGORM struct {
	ID             string          `gorm:"column:id;type:varchar(36);primaryKey"`
	AccountID      string          `gorm:"column:account_id;type:varchar(36);not null;index"`
	OwnerID        string          `gorm:"column:owner_id;type:varchar(64);not null"`
	Asset          string          `gorm:"column:asset;type:varchar(16);not null"`
	Amount         decimal.Decimal `gorm:"column:amount;type:decimal(14,2);not null"`
	BalanceBefore  decimal.Decimal `gorm:"column:balance_before;type:decimal(14,2);not null"`
	BalanceAfter   decimal.Decimal `gorm:"column:balance_after;type:decimal(14,2);not null"`
	Reason         string          `gorm:"column:reason;type:varchar(64);not null"`
	RelatedType    string          `gorm:"column:related_type;type:varchar(32)"`
	RelatedID      string          `gorm:"column:related_id;type:varchar(128);index"`
	IdempotencyKey string          `gorm:"column:idempotency_key;type:varchar(191);not null;uniqueIndex"`
	CreatedAt      time.Time       `gorm:"column:created_at;not null;index"`
}

// TableName 指定資料表名稱
func (LedgerEntryGORM) TableName() string {
	return "reward_ledger_entries"
}

// ===========================
// Mapper Functions
// ===========================

// toDomain 將 GORM 模型轉換為 Domain 模型
func (g *AccountGORM) toDomain() (*reward.Account, error) {
	accountID, err := reward.AccountIDFromString(g.ID)
	if err != nil {
		return nil, err
	}
	return reward.ReconstructAccount(
		accountID,
		g.OwnerID,
		reward.OwnerType(g.OwnerType),
		g.PointsBalance,
		g.CashBalance,
		g.Version,
		g.CreatedAt,
		g.UpdatedAt,
	)
}

// toAccountGORM 將 Domain 模型轉換為 GORM 模型
func toAccountGORM(a *reward.Account) *AccountGORM {
	return &AccountGORM{
		ID:            a.AccountID().String(),
		OwnerID:       a.OwnerID(),
		OwnerType:     string(a.OwnerType()),
		PointsBalance: a.Points().Value(),
		CashBalance:   a.Cash().Value(),
		Version:       a.Version(),
		CreatedAt:     a.CreatedAt().UTC(),
		UpdatedAt:     a.UpdatedAt().UTC(),
	}
}

// toDomain 將 GORM 模型轉換為 Domain 模型
func (g *LedgerEntryGORM) toDomain() (*reward.LedgerEntry, error) {
	entryID, err := reward.EntryIDFromString(g.ID)
	if err != nil {
		return nil, err
	}
	accountID, err := reward.AccountIDFromString(g.AccountID)
	if err != nil {
		return nil, err
	}
	return reward.ReconstructLedgerEntry(reward.LedgerEntryRecord{
		ID:             entryID,
		AccountID:      accountID,
		OwnerID:        g.OwnerID,
		Asset:          reward.Asset(g.Asset),
		Amount:         g.Amount,
		BalanceBefore:  g.BalanceBefore,
		BalanceAfter:   g.BalanceAfter,
		Reason:         g.Reason,
		Related:        reward.RelatedEntity{Type: g.RelatedType, ID: g.RelatedID},
		IdempotencyKey: g.IdempotencyKey,
		CreatedAt:      g.CreatedAt,
	})
}

func toLedgerEntryGORM(e *reward.LedgerEntry) LedgerEntryGORM {
	return LedgerEntryGORM{
		ID:             e.ID().String(),
		AccountID:      e.AccountID().String(),
		OwnerID:        e.OwnerID(),
		Asset:          string(e.Asset()),
		Amount:         e.Amount(),
		BalanceBefore:  e.BalanceBefore(),
		BalanceAfter:   e.BalanceAfter(),
		Reason:         e.Reason(),
		RelatedType:    e.Related().Type,
		RelatedID:      e.Related().ID,
		IdempotencyKey: e.IdempotencyKey(),
		CreatedAt:      e.CreatedAt().UTC(),
	}
}
