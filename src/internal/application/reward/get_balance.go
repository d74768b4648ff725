package reward

import (
	"errors"
	"fmt"
	"time"

	"github.com/jackyeh168/quest_crm/src/internal/domain/reward"
	"github.com/jackyeh168/quest_crm/src/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DefaultRecentEntries 餘額查詢附帶的最近帳本記錄數
const DefaultRecentEntries = 20

// GetBalanceQuery 查詢餘額
type GetBalanceQuery struct {
	OwnerID   string
	OwnerType reward.OwnerType
}

// LedgerLine 帳本記錄摘要
type LedgerLine struct {
	Asset          string
	Amount         decimal.Decimal
	BalanceAfter   decimal.Decimal
	Reason         string
	RelatedType    string
	RelatedID      string
	IdempotencyKey string
	CreatedAt      time.Time
}

// GetBalanceResult 查詢餘額的結果
type GetBalanceResult struct {
	AccountID string
	OwnerID   string
	Points    int64
	Cash      decimal.Decimal
	Recent    []LedgerLine
}

// GetBalanceUseCase 查詢餘額 Use Case
//
// 快取餘額必須等於帳本累計；不一致時返回 ErrCorruptedBalance（InvariantViolation）。
type GetBalanceUseCase struct {
	accountRepo reward.AccountRepository
	ledgerRepo  reward.LedgerRepository
}

// NewGetBalanceUseCase 創建 Use Case 實例
func NewGetBalanceUseCase(accountRepo reward.AccountRepository, ledgerRepo reward.LedgerRepository) *GetBalanceUseCase {
	return &GetBalanceUseCase{
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
	}
}

// Execute 執行查詢（不需要事務）
func (uc *GetBalanceUseCase) Execute(query GetBalanceQuery) (*GetBalanceResult, error) {
	return uc.ExecuteWithContext(nil, query)
}

// ExecuteWithContext 在事務上下文中執行查詢（ctx 可為 nil）
//
// 尚未有任何入帳的擁有者返回零餘額。
func (uc *GetBalanceUseCase) ExecuteWithContext(ctx shared.TransactionContext, query GetBalanceQuery) (*GetBalanceResult, error) {
	account, err := uc.accountRepo.FindByOwner(ctx, query.OwnerID, query.OwnerType)
	if errors.Is(err, reward.ErrAccountNotFound) {
		return &GetBalanceResult{OwnerID: query.OwnerID, Cash: decimal.Zero, Recent: []LedgerLine{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}

	points, cash, err := uc.ledgerRepo.SumByAccount(ctx, account.AccountID())
	if err != nil {
		return nil, fmt.Errorf("failed to sum ledger: %w", err)
	}
	if !points.Equal(account.Points().Decimal()) || !cash.Equal(account.Cash().Value()) {
		return nil, reward.ErrCorruptedBalance.WithContext(
			"account_id", account.AccountID().String(),
			"cached_points", account.Points().Value(),
			"ledger_points", points.String(),
			"cached_cash", account.Cash().Value().String(),
			"ledger_cash", cash.String(),
		)
	}

	entries, err := uc.ledgerRepo.FindByAccount(ctx, account.AccountID(), DefaultRecentEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}
	recent := make([]LedgerLine, 0, len(entries))
	for _, e := range entries {
		recent = append(recent, LedgerLine{
			Asset:          string(e.Asset()),
			Amount:         e.Amount(),
			BalanceAfter:   e.BalanceAfter(),
			Reason:         e.Reason(),
			RelatedType:    e.Related().Type,
			RelatedID:      e.Related().ID,
			IdempotencyKey: e.IdempotencyKey(),
			CreatedAt:      e.CreatedAt(),
		})
	}

	return &GetBalanceResult{
		AccountID: account.AccountID().String(),
		OwnerID:   account.OwnerID(),
		Points:    account.Points().Value(),
		Cash:      account.Cash().Value(),
		Recent:    recent,
	}, nil
}
