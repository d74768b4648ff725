package reward

import (
	"time"

	"github.com/shopspring/decimal"
)

// Asset 帳本記錄的資產類型
type Asset string

const (
	AssetPoints Asset = "points"
	AssetCash   Asset = "cash"
)

// RelatedEntity 帳本記錄關聯的業務實體
type RelatedEntity struct {
	Type string // quest_participation、campaign_order、order
	ID   string
}

// LedgerEntry 帳本記錄（只能新增，不可修改）
//
// Amount 依慣例帶正負號，扣減為負數；
// BalanceAfter = BalanceBefore + Amount。
type LedgerEntry struct {
	id             EntryID
	accountID      AccountID
	ownerID        string
	asset          Asset
	amount         decimal.Decimal
	balanceBefore  decimal.Decimal
	balanceAfter   decimal.Decimal
	reason         string
	related        RelatedEntity
	idempotencyKey string
	createdAt      time.Time
}

func newLedgerEntry(
	account *Account,
	asset Asset,
	amount, before decimal.Decimal,
	credit Credit,
	now time.Time,
) *LedgerEntry {
	return &LedgerEntry{
		id:             NewEntryID(),
		accountID:      account.accountID,
		ownerID:        account.ownerID,
		asset:          asset,
		amount:         amount,
		balanceBefore:  before,
		balanceAfter:   before.Add(amount),
		reason:         credit.Reason,
		related:        credit.Related,
		idempotencyKey: credit.IdempotencyKey + "/" + string(asset),
		createdAt:      now,
	}
}

// LedgerEntryRecord 重建參數
type LedgerEntryRecord struct {
	ID             EntryID
	AccountID      AccountID
	OwnerID        string
	Asset          Asset
	Amount         decimal.Decimal
	BalanceBefore  decimal.Decimal
	BalanceAfter   decimal.Decimal
	Reason         string
	Related        RelatedEntity
	IdempotencyKey string
	CreatedAt      time.Time
}

// ReconstructLedgerEntry 從持久化存儲重建帳本記錄
func ReconstructLedgerEntry(r LedgerEntryRecord) (*LedgerEntry, error) {
	if r.ID.IsEmpty() {
		return nil, ErrInvalidEntryID.WithContext("reason", "invalid ledger entry ID in database")
	}
	if !r.BalanceBefore.Add(r.Amount).Equal(r.BalanceAfter) {
		return nil, ErrCorruptedBalance.WithContext(
			"entry_id", r.ID.String(),
			"before", r.BalanceBefore.String(),
			"amount", r.Amount.String(),
			"after", r.BalanceAfter.String(),
		)
	}
	return &LedgerEntry{
		id:             r.ID,
		accountID:      r.AccountID,
		ownerID:        r.OwnerID,
		asset:          r.Asset,
		amount:         r.Amount,
		balanceBefore:  r.BalanceBefore,
		balanceAfter:   r.BalanceAfter,
		reason:         r.Reason,
		related:        r.Related,
		idempotencyKey: r.IdempotencyKey,
		createdAt:      r.CreatedAt,
	}, nil
}

func (e *LedgerEntry) ID() EntryID                    { return e.id }
func (e *LedgerEntry) AccountID() AccountID           { return e.accountID }
func (e *LedgerEntry) OwnerID() string                { return e.ownerID }
func (e *LedgerEntry) Asset() Asset                   { return e.asset }
func (e *LedgerEntry) Amount() decimal.Decimal        { return e.amount }
func (e *LedgerEntry) BalanceBefore() decimal.Decimal { return e.balanceBefore }
func (e *LedgerEntry) BalanceAfter() decimal.Decimal  { return e.balanceAfter }
func (e *LedgerEntry) Reason() string                 { return e.reason }
func (e *LedgerEntry) Related() RelatedEntity         { return e.related }
func (e *LedgerEntry) IdempotencyKey() string         { return e.idempotencyKey }
func (e *LedgerEntry) CreatedAt() time.Time           { return e.createdAt }
