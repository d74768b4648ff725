package reward

import "github.com/jackyeh168/quest_crm/src/internal/domain/shared"

// 數量相關錯誤
var (
	ErrNegativePointsAmount = shared.NewDomainError(
		shared.KindValidation, "POINTS_NEGATIVE", "積分數量不能為負數",
	)

	ErrNegativeCashAmount = shared.NewDomainError(
		shared.KindValidation, "CASH_NEGATIVE", "現金金額不能為負數",
	)

	ErrEmptyCredit = shared.NewDomainError(
		shared.KindValidation, "CREDIT_EMPTY", "入帳金額與積分不可同時為 0",
	)

	ErrMissingIdempotencyKey = shared.NewDomainError(
		shared.KindValidation, "IDEMPOTENCY_KEY_MISSING", "入帳必須提供冪等鍵",
	)
)

// 帳戶相關錯誤
var (
	ErrInvalidAccountID = shared.NewDomainError(
		shared.KindValidation, "ACCOUNT_ID_INVALID", "無效的帳戶 ID",
	)

	ErrInvalidEntryID = shared.NewDomainError(
		shared.KindValidation, "LEDGER_ENTRY_ID_INVALID", "無效的帳本記錄 ID",
	)

	ErrInvalidOwner = shared.NewDomainError(
		shared.KindValidation, "ACCOUNT_OWNER_INVALID", "無效的帳戶擁有者",
	)

	ErrAccountNotFound = shared.NewDomainError(
		shared.KindNotFound, "ACCOUNT_NOT_FOUND", "獎勵帳戶不存在",
	)

	ErrAlreadySettled = shared.NewDomainError(
		shared.KindStateConflict, "REWARD_ALREADY_SETTLED", "此獎勵已入帳",
	)

	ErrCorruptedBalance = shared.NewDomainError(
		shared.KindInvariantViolation, "ACCOUNT_BALANCE_CORRUPTED", "帳戶餘額資料損壞",
	)

	ErrRepositoryError = shared.NewDomainError(
		shared.KindExternalDependency, "REWARD_REPOSITORY_ERROR", "獎勵倉儲操作失敗",
	)
)
