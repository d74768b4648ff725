package shared

import "context"

// TransactionContext 事務上下文介面
//
// 行為約定：
// - tx != nil: 在調用者的事務中執行（事務傳播）
// - tx == nil: 使用 auto-commit 模式（僅適用於單一讀操作）
//
// Repository 寫操作（Save / Update / Delete / 條件遞增）必須傳入 non-nil tx；
// 讀操作可選擇是否參與事務。
//
//	txManager.InTransaction(ctx, func(tx TransactionContext) error {
//	    record, _ := repo.FindByUserAndQuest(tx, userID, questID)
//	    record.Complete(now, evidence)
//	    return repo.Update(tx, record)
//	})
//
// 這是一個標記介面，Infrastructure Layer 負責具體的事務封裝。
type TransactionContext interface {
}

// TransactionManager 事務管理器介面
//
// fn 返回錯誤或 panic 時整個事務回滾；ctx 取消時資料庫操作中止。
type TransactionManager interface {
	InTransaction(ctx context.Context, fn func(tx TransactionContext) error) error
}
