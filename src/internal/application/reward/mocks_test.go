package reward

import (
	"sort"

	"github.com/jackyeh168/quest_crm/src/internal/domain/reward"
	"github.com/jackyeh168/quest_crm/src/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ===========================
// Mock AccountRepository
// ===========================

type MockAccountRepository struct {
	accounts        map[string]*reward.Account
	SaveCallCount   int
	UpdateCallCount int
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{accounts: make(map[string]*reward.Account)}
}

func accountKey(ownerID string, ownerType reward.OwnerType) string {
	return string(ownerType) + ":" + ownerID
}

func (m *MockAccountRepository) SaveIfAbsent(ctx shared.TransactionContext, account *reward.Account) error {
	m.SaveCallCount++
	key := accountKey(account.OwnerID(), account.OwnerType())
	if _, exists := m.accounts[key]; !exists {
		m.accounts[key] = cloneAccount(account)
	}
	return nil
}

func (m *MockAccountRepository) FindByOwner(ctx shared.TransactionContext, ownerID string, ownerType reward.OwnerType) (*reward.Account, error) {
	if account, ok := m.accounts[accountKey(ownerID, ownerType)]; ok {
		return cloneAccount(account), nil
	}
	return nil, reward.ErrAccountNotFound
}

func (m *MockAccountRepository) UpdateBalance(ctx shared.TransactionContext, account *reward.Account) error {
	m.UpdateCallCount++
	m.accounts[accountKey(account.OwnerID(), account.OwnerType())] = cloneAccount(account)
	return nil
}

// cloneAccount 模擬資料庫讀寫：未保存的修改不影響已存資料
func cloneAccount(a *reward.Account) *reward.Account {
	c, _ := reward.ReconstructAccount(
		a.AccountID(), a.OwnerID(), a.OwnerType(),
		a.Points().Value(), a.Cash().Value(), a.Version(),
		a.CreatedAt(), a.UpdatedAt(),
	)
	return c
}

// ===========================
// Mock LedgerRepository
// ===========================

// MockLedgerRepository 以冪等鍵模擬唯一索引
type MockLedgerRepository struct {
	entries   []*reward.LedgerEntry
	keys      map[string]bool
	AppendErr error
}

func NewMockLedgerRepository() *MockLedgerRepository {
	return &MockLedgerRepository{keys: make(map[string]bool)}
}

func (m *MockLedgerRepository) Append(ctx shared.TransactionContext, entries []*reward.LedgerEntry) error {
	if m.AppendErr != nil {
		return m.AppendErr
	}
	for _, e := range entries {
		if m.keys[e.IdempotencyKey()] {
			return reward.ErrAlreadySettled.WithContext("idempotency_key", e.IdempotencyKey())
		}
	}
	for _, e := range entries {
		m.keys[e.IdempotencyKey()] = true
		m.entries = append(m.entries, e)
	}
	return nil
}

func (m *MockLedgerRepository) FindByAccount(ctx shared.TransactionContext, accountID reward.AccountID, limit int) ([]*reward.LedgerEntry, error) {
	out := make([]*reward.LedgerEntry, 0)
	for _, e := range m.entries {
		if e.AccountID().Equals(accountID) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt().After(out[j].CreatedAt()) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockLedgerRepository) SumByAccount(ctx shared.TransactionContext, accountID reward.AccountID) (decimal.Decimal, decimal.Decimal, error) {
	points, cash := decimal.Zero, decimal.Zero
	for _, e := range m.entries {
		if !e.AccountID().Equals(accountID) {
			continue
		}
		if e.Asset() == reward.AssetPoints {
			points = points.Add(e.Amount())
		} else {
			cash = cash.Add(e.Amount())
		}
	}
	return points, cash, nil
}
