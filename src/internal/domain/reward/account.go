package reward

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OwnerType 帳戶擁有者類型
type OwnerType string

const (
	OwnerUser      OwnerType = "user"
	OwnerShopOwner OwnerType = "shop_owner"
)

// Credit 一次入帳請求
type Credit struct {
	Points         int64
	Cash           decimal.Decimal
	Reason         string
	Related        RelatedEntity
	IdempotencyKey string
}

// ===========================
// Account 聚合根
// ===========================

// Account 獎勵帳戶聚合根（積分與現金餘額）
//
// 餘額是帳本的快取投影，必須等於該帳戶所有帳本記錄的累計。
// 交易記錄儲存在獨立表，聚合不包含無界集合。
//
// 業務不變條件：
// - points >= 0、cash >= 0
// - 每次餘額變更都對應一筆帳本記錄（同一事務內先寫帳本再更新餘額）
type Account struct {
	accountID AccountID
	ownerID   string
	ownerType OwnerType

	points PointsAmount
	cash   CashAmount

	// 樂觀鎖：更新時以載入時的 version 為條件
	version int

	createdAt time.Time
	updatedAt time.Time
}

// NewAccount 創建新的獎勵帳戶（初始餘額為 0）
func NewAccount(ownerID string, ownerType OwnerType, now time.Time) (*Account, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, ErrInvalidOwner.WithContext("reason", "owner id cannot be empty")
	}
	if ownerType != OwnerUser && ownerType != OwnerShopOwner {
		return nil, ErrInvalidOwner.WithContext("owner_type", string(ownerType))
	}
	return &Account{
		accountID: NewAccountID(),
		ownerID:   ownerID,
		ownerType: ownerType,
		points:    PointsAmount{},
		cash:      CashAmount{value: decimal.Zero},
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructAccount 從持久化存儲重建聚合根
//
// 即使從資料庫重建也驗證餘額非負，防止損壞資料污染領域層。
func ReconstructAccount(
	accountID AccountID,
	ownerID string,
	ownerType OwnerType,
	points int64,
	cash decimal.Decimal,
	version int,
	createdAt time.Time,
	updatedAt time.Time,
) (*Account, error) {
	if accountID.IsEmpty() {
		return nil, ErrInvalidAccountID.WithContext("reason", "invalid account ID in database")
	}
	pointsAmount, err := NewPointsAmount(points)
	if err != nil {
		return nil, ErrCorruptedBalance.WithContext("points", points)
	}
	cashAmount, err := NewCashAmount(cash)
	if err != nil {
		return nil, ErrCorruptedBalance.WithContext("cash", cash.String())
	}
	return &Account{
		accountID: accountID,
		ownerID:   ownerID,
		ownerType: ownerType,
		points:    pointsAmount,
		cash:      cashAmount,
		version:   version,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}, nil
}

func (a *Account) AccountID() AccountID { return a.accountID }
func (a *Account) OwnerID() string      { return a.ownerID }
func (a *Account) OwnerType() OwnerType { return a.ownerType }
func (a *Account) Points() PointsAmount { return a.points }
func (a *Account) Cash() CashAmount     { return a.cash }
func (a *Account) Version() int         { return a.version }
func (a *Account) CreatedAt() time.Time { return a.createdAt }
func (a *Account) UpdatedAt() time.Time { return a.updatedAt }

// Apply 套用入帳並返回對應的帳本記錄
//
// 每種資產各產生一筆記錄，冪等鍵為 "<key>/points" 與 "<key>/cash"。
// 調用者必須先寫入帳本記錄，再以樂觀鎖更新餘額，兩者在同一事務。
func (a *Account) Apply(credit Credit, now time.Time) ([]*LedgerEntry, error) {
	if strings.TrimSpace(credit.IdempotencyKey) == "" {
		return nil, ErrMissingIdempotencyKey
	}
	points, err := NewPointsAmount(credit.Points)
	if err != nil {
		return nil, err
	}
	cash, err := NewCashAmount(credit.Cash)
	if err != nil {
		return nil, err
	}
	if points.IsZero() && cash.IsZero() {
		return nil, ErrEmptyCredit.WithContext("idempotency_key", credit.IdempotencyKey)
	}

	entries := make([]*LedgerEntry, 0, 2)
	if !points.IsZero() {
		entries = append(entries, newLedgerEntry(a, AssetPoints, points.Decimal(), a.points.Decimal(), credit, now))
		a.points = a.points.Add(points)
	}
	if !cash.IsZero() {
		entries = append(entries, newLedgerEntry(a, AssetCash, cash.Value(), a.cash.Value(), credit, now))
		a.cash = a.cash.Add(cash)
	}
	a.updatedAt = now
	return entries, nil
}
