package reward_test

import (
	"testing"
	"time"

	"github.com/jackyeh168/quest_crm/src/internal/domain/reward"
	"github.com/jackyeh168/quest_crm/src/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

// ===========================
// Account 建構測試
// ===========================

func TestNewAccount_Success(t *testing.T) {
	// Act
	account, err := reward.NewAccount("user-1", reward.OwnerUser, now)

	// Assert
	require.NoError(t, err)
	assert.False(t, account.AccountID().IsEmpty())
	assert.Equal(t, "user-1", account.OwnerID())
	assert.Equal(t, int64(0), account.Points().Value())
	assert.True(t, account.Cash().IsZero())
	assert.Equal(t, 0, account.Version())
}

func TestNewAccount_InvalidOwner(t *testing.T) {
	_, err := reward.NewAccount("", reward.OwnerUser, now)
	assert.ErrorIs(t, err, reward.ErrInvalidOwner)

	_, err = reward.NewAccount("user-1", "bank", now)
	assert.ErrorIs(t, err, reward.ErrInvalidOwner)
}

// ===========================
// Apply 測試
// ===========================

func TestAccount_Apply_PointsAndCash(t *testing.T) {
	// Arrange
	account, _ := reward.NewAccount("user-1", reward.OwnerUser, now)
	credit := reward.Credit{
		Points:         10,
		Cash:           decimal.RequireFromString("12.50"),
		Reason:         "quest_completed",
		Related:        reward.RelatedEntity{Type: "quest_participation", ID: "p-1"},
		IdempotencyKey: "quest:p-1",
	}

	// Act
	entries, err := account.Apply(credit, now)

	// Assert
	require.NoError(t, err)
	require.Len(t, entries, 2)

	pointsEntry := entries[0]
	assert.Equal(t, reward.AssetPoints, pointsEntry.Asset())
	assert.True(t, pointsEntry.Amount().Equal(decimal.NewFromInt(10)))
	assert.True(t, pointsEntry.BalanceBefore().IsZero())
	assert.True(t, pointsEntry.BalanceAfter().Equal(decimal.NewFromInt(10)))
	assert.Equal(t, "quest:p-1/points", pointsEntry.IdempotencyKey())
	assert.Equal(t, account.AccountID(), pointsEntry.AccountID())

	cashEntry := entries[1]
	assert.Equal(t, reward.AssetCash, cashEntry.Asset())
	assert.True(t, cashEntry.BalanceAfter().Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, "quest:p-1/cash", cashEntry.IdempotencyKey())

	assert.Equal(t, int64(10), account.Points().Value())
	assert.True(t, account.Cash().Value().Equal(decimal.RequireFromString("12.5")))
}

func TestAccount_Apply_BalanceChainsAcrossCredits(t *testing.T) {
	account, _ := reward.NewAccount("user-1", reward.OwnerUser, now)

	_, err := account.Apply(reward.Credit{Points: 10, IdempotencyKey: "a"}, now)
	require.NoError(t, err)
	entries, err := account.Apply(reward.Credit{Points: 5, IdempotencyKey: "b"}, now)
	require.NoError(t, err)

	require.Len(t, entries, 1)
	assert.True(t, entries[0].BalanceBefore().Equal(decimal.NewFromInt(10)))
	assert.True(t, entries[0].BalanceAfter().Equal(decimal.NewFromInt(15)))
}

func TestAccount_Apply_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		credit reward.Credit
		want   error
	}{
		{"缺少冪等鍵", reward.Credit{Points: 1}, reward.ErrMissingIdempotencyKey},
		{"負數積分", reward.Credit{Points: -1, IdempotencyKey: "k"}, reward.ErrNegativePointsAmount},
		{"負數現金", reward.Credit{Cash: decimal.NewFromInt(-1), IdempotencyKey: "k"}, reward.ErrNegativeCashAmount},
		{"空入帳", reward.Credit{IdempotencyKey: "k"}, reward.ErrEmptyCredit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			account, _ := reward.NewAccount("user-1", reward.OwnerUser, now)

			entries, err := account.Apply(tt.credit, now)

			assert.Nil(t, entries)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, int64(0), account.Points().Value(), "失敗時餘額不變")
		})
	}
}

// ===========================
// Reconstruct 測試
// ===========================

func TestReconstructAccount_NegativeBalance_IsInvariantViolation(t *testing.T) {
	_, err := reward.ReconstructAccount(reward.NewAccountID(), "user-1", reward.OwnerUser, -5, decimal.Zero, 1, now, now)

	assert.ErrorIs(t, err, reward.ErrCorruptedBalance)
	assert.Equal(t, shared.KindInvariantViolation, shared.KindOf(err))
}

func TestReconstructLedgerEntry_InconsistentBalance(t *testing.T) {
	_, err := reward.ReconstructLedgerEntry(reward.LedgerEntryRecord{
		ID:            reward.NewEntryID(),
		Amount:        decimal.NewFromInt(10),
		BalanceBefore: decimal.NewFromInt(5),
		BalanceAfter:  decimal.NewFromInt(16),
	})

	assert.ErrorIs(t, err, reward.ErrCorruptedBalance)
}

// ===========================
// RoundToPoints 測試
// ===========================

func TestRoundToPoints(t *testing.T) {
	tests := []struct {
		amount string
		want   int64
	}{
		{"99.6", 100},
		{"99.4", 99},
		{"99.5", 100},
		{"40", 40},
		{"0", 0},
		{"-3.2", 0},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.Equal(t, tt.want, reward.RoundToPoints(decimal.RequireFromString(tt.amount)))
		})
	}
}

func TestNewCashAmount_RoundsToCents(t *testing.T) {
	cash, err := reward.NewCashAmount(decimal.RequireFromString("1.005"))

	require.NoError(t, err)
	assert.Equal(t, "1.01", cash.Value().StringFixed(2))
}
