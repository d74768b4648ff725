package campaign

import "github.com/jackyeh168/quest_crm/src/internal/domain/shared"

// 活動相關錯誤
var (
	ErrInvalidCampaignID = shared.NewDomainError(
		shared.KindValidation, "CAMPAIGN_ID_INVALID", "無效的活動 ID",
	)

	ErrInvalidParticipationID = shared.NewDomainError(
		shared.KindValidation, "CAMPAIGN_PARTICIPATION_ID_INVALID", "無效的活動參加記錄 ID",
	)

	ErrInvalidCampaign = shared.NewDomainError(
		shared.KindValidation, "CAMPAIGN_INVALID", "活動設定無效",
	)

	ErrInvalidOrder = shared.NewDomainError(
		shared.KindValidation, "ORDER_INVALID", "訂單資料無效",
	)

	ErrCampaignNotFound = shared.NewDomainError(
		shared.KindNotFound, "CAMPAIGN_NOT_FOUND", "活動不存在",
	)

	ErrParticipationNotFound = shared.NewDomainError(
		shared.KindNotFound, "CAMPAIGN_PARTICIPATION_NOT_FOUND", "活動參加記錄不存在",
	)

	ErrShopNotFound = shared.NewDomainError(
		shared.KindNotFound, "SHOP_NOT_FOUND", "商店不存在",
	)

	ErrCampaignNotActive = shared.NewDomainError(
		shared.KindStateConflict, "CAMPAIGN_NOT_ACTIVE", "活動未開放",
	)

	ErrCampaignFull = shared.NewDomainError(
		shared.KindStateConflict, "CAMPAIGN_FULL", "活動參加名額已滿",
	)

	ErrAlreadyJoined = shared.NewDomainError(
		shared.KindStateConflict, "CAMPAIGN_ALREADY_JOINED", "已參加此活動",
	)

	ErrAlreadyCompleted = shared.NewDomainError(
		shared.KindStateConflict, "CAMPAIGN_ALREADY_COMPLETED", "一次性活動已完成",
	)

	ErrAlreadyCompletedToday = shared.NewDomainError(
		shared.KindStateConflict, "CAMPAIGN_ALREADY_COMPLETED_TODAY", "每日活動今日已完成",
	)

	ErrAlreadyApplied = shared.NewDomainError(
		shared.KindStateConflict, "CAMPAIGN_ALREADY_APPLIED", "此訂單已套用該活動",
	)

	ErrRepositoryError = shared.NewDomainError(
		shared.KindExternalDependency, "CAMPAIGN_REPOSITORY_ERROR", "活動倉儲操作失敗",
	)
)
