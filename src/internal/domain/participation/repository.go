package participation

import (
	"github.com/jackyeh168/quest_crm/src/internal/domain/quest"
	"github.com/jackyeh168/quest_crm/src/internal/domain/shared"
)

// Repository 參加記錄倉儲介面
//
// 寫操作必須傳入 non-nil TransactionContext。
type Repository interface {
	// Save 保存新的參加記錄
	// 錯誤：ErrAlreadyParticipating（(user, quest) 唯一索引衝突）
	Save(ctx shared.TransactionContext, uq *UserQuest) error

	// FindByID 根據 ID 查找
	// 錯誤：ErrParticipationNotFound
	FindByID(ctx shared.TransactionContext, id ParticipationID) (*UserQuest, error)

	// FindByUserAndQuest 查找使用者對任務的記錄（事務中會鎖定該列）
	// 錯誤：ErrParticipationNotFound
	FindByUserAndQuest(ctx shared.TransactionContext, userID string, questID quest.QuestID) (*UserQuest, error)

	// Update 以載入時的 version 與 status 為條件更新
	// 錯誤：shared.ErrConcurrentModification（記錄已被其他請求轉換）
	Update(ctx shared.TransactionContext, uq *UserQuest) error

	// Delete 以載入時的 version 為條件刪除（每日重置、重新參加）
	// 錯誤：shared.ErrConcurrentModification
	Delete(ctx shared.TransactionContext, uq *UserQuest) error

	// AddReviews 寫入評論（供依商品查詢）
	AddReviews(ctx shared.TransactionContext, uq *UserQuest, reviews []Review) error

	// FindReviewsByMenuItem 依商品 ID 查詢評論（忽略大小寫與空白），questID 為 nil 時查詢所有任務
	FindReviewsByMenuItem(ctx shared.TransactionContext, questID *quest.QuestID, menuItemID string) ([]ReviewRecord, error)

	// CountSlotHolders 統計佔用名額的記錄數（participating、pending、completed）
	CountSlotHolders(ctx shared.TransactionContext, questID quest.QuestID) (int64, error)
}
