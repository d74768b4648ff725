package persistence

import (
	"github.com/jackyeh168/quest_crm/src/internal/domain/shared"
	"gorm.io/gorm"
)

// ===========================
// GORM TransactionContext 實作
// ===========================

// gormTransactionContext GORM 事務上下文實作
// 設計原則：
// 1. 實作 shared.TransactionContext 介面（標記介面）
// 2. 封裝 *gorm.DB，避免洩漏到 Domain Layer
// 3. 提供 GetDB() 方法供 Infrastructure Layer 內部使用
type gormTransactionContext struct {
	db *gorm.DB
}

// NewGORMTransactionContext 創建 GORM 事務上下文
func NewGORMTransactionContext(db *gorm.DB) shared.TransactionContext {
	return &gormTransactionContext{db: db}
}

// GetDB 獲取 GORM DB 連接（僅供 Infrastructure Layer 內部使用）
// 這個方法不在 shared.TransactionContext 介面中，Domain Layer 無法訪問 GORM。
func (ctx *gormTransactionContext) GetDB() *gorm.DB {
	return ctx.db
}

// dbProvider 任何能提供 *gorm.DB 的事務上下文
type dbProvider interface {
	GetDB() *gorm.DB
}

// TxDB 從事務上下文取出 *gorm.DB
//
// 行為：
//   - ctx 帶有 GORM 事務：返回事務中的 DB
//   - ctx == nil 或非 GORM 事務：返回 fallback（auto-commit 模式）
func TxDB(ctx shared.TransactionContext, fallback *gorm.DB) *gorm.DB {
	if ctx != nil {
		if txCtx, ok := ctx.(dbProvider); ok && txCtx.GetDB() != nil {
			return txCtx.GetDB()
		}
	}
	return fallback
}

// InTx 判斷 ctx 是否為進行中的 GORM 事務
func InTx(ctx shared.TransactionContext) bool {
	if ctx == nil {
		return false
	}
	txCtx, ok := ctx.(dbProvider)
	return ok && txCtx.GetDB() != nil
}
