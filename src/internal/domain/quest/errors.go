package quest

import "github.com/jackyeh168/quest_crm/src/internal/domain/shared"

// 任務相關錯誤
var (
	ErrInvalidQuestID = shared.NewDomainError(
		shared.KindValidation, "QUEST_ID_INVALID", "無效的任務 ID",
	)

	ErrInvalidQuestType = shared.NewDomainError(
		shared.KindValidation, "QUEST_TYPE_INVALID", "無效的任務類型",
	)

	ErrInvalidVerificationMethod = shared.NewDomainError(
		shared.KindValidation, "VERIFICATION_METHOD_INVALID", "無效的驗證方式",
	)

	ErrInvalidQuestStatus = shared.NewDomainError(
		shared.KindValidation, "QUEST_STATUS_INVALID", "無效的任務狀態",
	)

	ErrInvalidQuestDefinition = shared.NewDomainError(
		shared.KindValidation, "QUEST_DEFINITION_INVALID", "任務設定不完整或不一致",
	)

	ErrQuestNotFound = shared.NewDomainError(
		shared.KindNotFound, "QUEST_NOT_FOUND", "任務不存在",
	)

	ErrQuestNotActive = shared.NewDomainError(
		shared.KindStateConflict, "QUEST_NOT_ACTIVE", "任務未開放參加",
	)

	ErrQuestFull = shared.NewDomainError(
		shared.KindStateConflict, "QUEST_FULL", "任務參加名額已滿",
	)

	ErrBudgetExhausted = shared.NewDomainError(
		shared.KindStateConflict, "QUEST_BUDGET_EXHAUSTED", "任務獎勵預算已用完",
	)

	ErrQuestAlreadyExists = shared.NewDomainError(
		shared.KindStateConflict, "QUEST_ALREADY_EXISTS", "任務已存在",
	)

	ErrRepositoryError = shared.NewDomainError(
		shared.KindExternalDependency, "QUEST_REPOSITORY_ERROR", "任務倉儲操作失敗",
	)
)
