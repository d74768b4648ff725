package reward

import (
	"errors"
	"fmt"

	"github.com/jackyeh168/quest_crm/src/internal/domain/reward"
	"github.com/jackyeh168/quest_crm/src/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ===========================
// Credit Use Case（RewardSettlement）
// ===========================

// CreditCommand 入帳命令
//
// 輸入：
// - OwnerID / OwnerType: 使用者或商店擁有者
// - Points / Cash: 入帳數量（皆不可為負，至少一項大於 0）
// - Reason / Related: 帳本記錄的原因與關聯實體
// - IdempotencyKey: 同一個鍵只能入帳一次
type CreditCommand struct {
	OwnerID        string
	OwnerType      reward.OwnerType
	Points         int64
	Cash           decimal.Decimal
	Reason         string
	Related        reward.RelatedEntity
	IdempotencyKey string
}

// CreditResult 入帳結果
type CreditResult struct {
	AccountID     string
	Entries       []*reward.LedgerEntry
	PointsBalance int64
	CashBalance   decimal.Decimal
}

// CreditUseCase 入帳 Use Case
//
// 職責：
// 1. 鎖定（或建立）擁有者的帳戶
// 2. 產生帳本記錄並寫入
// 3. 以樂觀鎖更新快取餘額
//
// 只提供 ExecuteWithContext：入帳永遠是調用者狀態轉換的一部分，
// 由調用者的事務決定一起提交或一起回滾。
type CreditUseCase struct {
	accountRepo reward.AccountRepository
	ledgerRepo  reward.LedgerRepository
	clock       shared.Clock
}

// NewCreditUseCase 創建 Use Case 實例
func NewCreditUseCase(
	accountRepo reward.AccountRepository,
	ledgerRepo reward.LedgerRepository,
	clock shared.Clock,
) *CreditUseCase {
	return &CreditUseCase{
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		clock:       clock,
	}
}

// ExecuteWithContext 在調用者的事務中入帳
//
// 執行流程：
// 1. 查找帳戶（鎖定該列）；不存在時建立後重新讀取
// 2. account.Apply 產生帳本記錄
// 3. 先寫入帳本（冪等鍵唯一索引）
// 4. 再以 version 為條件更新餘額
//
// 錯誤處理：
// - ErrAlreadySettled: 冪等鍵已入帳
// - shared.ErrConcurrentModification: 餘額被其他事務修改
// - 驗證錯誤（負數、空入帳、缺少冪等鍵）
func (uc *CreditUseCase) ExecuteWithContext(ctx shared.TransactionContext, cmd CreditCommand) (*CreditResult, error) {
	// 1. 查找或建立帳戶
	account, err := uc.lockAccount(ctx, cmd.OwnerID, cmd.OwnerType)
	if err != nil {
		return nil, err
	}

	// 2. 產生帳本記錄（Domain Layer）
	entries, err := account.Apply(reward.Credit{
		Points:         cmd.Points,
		Cash:           cmd.Cash,
		Reason:         cmd.Reason,
		Related:        cmd.Related,
		IdempotencyKey: cmd.IdempotencyKey,
	}, uc.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to apply credit: %w", err)
	}

	// 3. 先寫帳本：重複的冪等鍵在此失敗，餘額不會被修改
	if err := uc.ledgerRepo.Append(ctx, entries); err != nil {
		return nil, fmt.Errorf("failed to append ledger entries: %w", err)
	}

	// 4. 更新快取餘額
	if err := uc.accountRepo.UpdateBalance(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to update balance: %w", err)
	}

	return &CreditResult{
		AccountID:     account.AccountID().String(),
		Entries:       entries,
		PointsBalance: account.Points().Value(),
		CashBalance:   account.Cash().Value(),
	}, nil
}

func (uc *CreditUseCase) lockAccount(ctx shared.TransactionContext, ownerID string, ownerType reward.OwnerType) (*reward.Account, error) {
	account, err := uc.accountRepo.FindByOwner(ctx, ownerID, ownerType)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, reward.ErrAccountNotFound) {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}

	newAccount, err := reward.NewAccount(ownerID, ownerType, uc.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	if err := uc.accountRepo.SaveIfAbsent(ctx, newAccount); err != nil {
		return nil, fmt.Errorf("failed to save account: %w", err)
	}

	// 並發建立時以實際存在的帳戶為準
	account, err = uc.accountRepo.FindByOwner(ctx, ownerID, ownerType)
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	return account, nil
}
