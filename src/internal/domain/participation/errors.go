package participation

import "github.com/jackyeh168/quest_crm/src/internal/domain/shared"

// 參加記錄相關錯誤
var (
	ErrInvalidParticipationID = shared.NewDomainError(
		shared.KindValidation, "PARTICIPATION_ID_INVALID", "無效的參加記錄 ID",
	)

	ErrInvalidReview = shared.NewDomainError(
		shared.KindValidation, "REVIEW_INVALID", "評論內容無效",
	)

	ErrNotReviewQuest = shared.NewDomainError(
		shared.KindValidation, "QUEST_NOT_REVIEW_TYPE", "此任務不接受商品評論",
	)

	ErrMissingEvidence = shared.NewDomainError(
		shared.KindValidation, "EVIDENCE_MISSING", "缺少完成任務所需的驗證資料",
	)

	ErrParticipationNotFound = shared.NewDomainError(
		shared.KindNotFound, "PARTICIPATION_NOT_FOUND", "參加記錄不存在",
	)

	ErrAlreadyParticipating = shared.NewDomainError(
		shared.KindStateConflict, "ALREADY_PARTICIPATING", "已參加此任務",
	)

	ErrAlreadyCompleted = shared.NewDomainError(
		shared.KindStateConflict, "ALREADY_COMPLETED", "已完成此任務",
	)

	ErrAlreadyCompletedToday = shared.NewDomainError(
		shared.KindStateConflict, "ALREADY_COMPLETED_TODAY", "今日已完成此打卡任務，請明天再來",
	)

	ErrNotParticipating = shared.NewDomainError(
		shared.KindStateConflict, "NOT_PARTICIPATING", "尚未參加此任務",
	)

	ErrAwaitingReview = shared.NewDomainError(
		shared.KindStateConflict, "AWAITING_REVIEW", "提交內容審核中",
	)

	ErrInvalidTransition = shared.NewDomainError(
		shared.KindStateConflict, "INVALID_STATUS_TRANSITION", "目前狀態不允許此操作",
	)

	ErrVerificationFailed = shared.NewDomainError(
		shared.KindVerificationFailed, "VERIFICATION_FAILED", "任務驗證未通過",
	)

	ErrCorruptedParticipation = shared.NewDomainError(
		shared.KindInvariantViolation, "PARTICIPATION_CORRUPTED", "參加記錄資料損壞",
	)

	ErrRepositoryError = shared.NewDomainError(
		shared.KindExternalDependency, "PARTICIPATION_REPOSITORY_ERROR", "參加記錄倉儲操作失敗",
	)
)
