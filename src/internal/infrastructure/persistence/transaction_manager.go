package persistence

import (
	"context"

	"github.com/jackyeh168/quest_crm/src/internal/domain/shared"
	"gorm.io/gorm"
)

// GORMTransactionManager 以 GORM 實作 shared.TransactionManager
//
// 行為：
// - fn 返回 nil：提交
// - fn 返回錯誤：回滾並原樣返回錯誤
// - fn panic：回滾後重新 panic
// - ctx 取消：進行中的 SQL 中止，事務回滾
type GORMTransactionManager struct {
	db *gorm.DB
}

// NewGORMTransactionManager 創建事務管理器
func NewGORMTransactionManager(db *gorm.DB) *GORMTransactionManager {
	return &GORMTransactionManager{db: db}
}

// InTransaction 在單一資料庫事務中執行 fn
func (m *GORMTransactionManager) InTransaction(ctx context.Context, fn func(tx shared.TransactionContext) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGORMTransactionContext(tx))
	})
}
