package reward

import (
	"github.com/jackyeh168/quest_crm/src/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AccountRepository 獎勵帳戶倉儲介面
type AccountRepository interface {
	// SaveIfAbsent 擁有者尚無帳戶時插入（(owner_id, owner_type) 唯一，衝突時不做任何事）
	// 並發的首次入帳只會建立一個帳戶。
	SaveIfAbsent(ctx shared.TransactionContext, account *Account) error

	// FindByOwner 根據擁有者查找帳戶（事務中會鎖定該列）
	// 錯誤：ErrAccountNotFound
	FindByOwner(ctx shared.TransactionContext, ownerID string, ownerType OwnerType) (*Account, error)

	// UpdateBalance 以載入時的 version 為條件更新餘額
	// 錯誤：shared.ErrConcurrentModification
	UpdateBalance(ctx shared.TransactionContext, account *Account) error
}

// LedgerRepository 帳本倉儲介面（只能新增）
type LedgerRepository interface {
	// Append 寫入帳本記錄
	// 錯誤：ErrAlreadySettled（冪等鍵唯一索引衝突）
	Append(ctx shared.TransactionContext, entries []*LedgerEntry) error

	// FindByAccount 依時間倒序查詢最近的帳本記錄
	FindByAccount(ctx shared.TransactionContext, accountID AccountID, limit int) ([]*LedgerEntry, error)

	// SumByAccount 帳本累計（用於核對快取餘額）
	SumByAccount(ctx shared.TransactionContext, accountID AccountID) (points decimal.Decimal, cash decimal.Decimal, err error)
}
