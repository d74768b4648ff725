package quest

import (
	"time"

	"github.com/jackyeh168/quest_crm/src/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Repository 任務倉儲介面
//
// 所有查詢都排除已軟刪除的任務。
type Repository interface {
	// Save 保存新任務
	// 錯誤：ErrQuestAlreadyExists（景點任務唯一索引衝突）
	Save(ctx shared.TransactionContext, q *Quest) error

	// SaveIfAbsentForAttraction 若景點尚無 active 任務則插入 q，返回最終存在的任務
	// 並發的首次造訪只會建立一筆任務。
	SaveIfAbsentForAttraction(ctx shared.TransactionContext, q *Quest) (*Quest, error)

	// FindByID 根據 ID 查找任務
	// 錯誤：ErrQuestNotFound
	FindByID(ctx shared.TransactionContext, id QuestID) (*Quest, error)

	// FindActiveByShop 查找商店在 now 可參加的任務
	// 條件：status = active ∧ startDate <= now ∧ (endDate 未設定 ∨ endDate >= now)
	FindActiveByShop(ctx shared.TransactionContext, shopID string, now time.Time) ([]*Quest, error)

	// FindByTouristAttraction 查找景點目前 active 的任務
	// 錯誤：ErrQuestNotFound（不存在、已刪除或已暫停）
	FindByTouristAttraction(ctx shared.TransactionContext, attractionID string) (*Quest, error)

	// Update 更新任務定義、狀態與刪除旗標（不覆寫計數器）
	// 錯誤：ErrQuestNotFound、ErrQuestAlreadyExists（景點已有另一筆 active 任務）
	Update(ctx shared.TransactionContext, q *Quest) error
}

// CapacityGuard 任務名額與預算守衛
//
// 每個方法都是單一條件式原子更新；必須在事務中調用，
// 失敗時由調用者回滾整個事務。
type CapacityGuard interface {
	// TryAdmit 條件遞增 currentParticipants
	// 錯誤：ErrQuestFull（maxParticipants > 0 且已達上限）
	TryAdmit(ctx shared.TransactionContext, id QuestID) error

	// Release 遞減 currentParticipants（不低於 0）
	Release(ctx shared.TransactionContext, id QuestID) error

	// TrySpend 條件累加 totalSpent
	// 錯誤：ErrBudgetExhausted（budget > 0 且 totalSpent + amount > budget）
	TrySpend(ctx shared.TransactionContext, id QuestID, amount decimal.Decimal) error
}
