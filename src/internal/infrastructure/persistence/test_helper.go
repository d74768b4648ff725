package persistence

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ===========================
// 測試輔助函數
// ===========================

// SetupTestDB 創建測試用的 SQLite 資料庫並遷移 models
// 使用場景：整合測試，測試 Repository 與真實資料庫的互動
//
// 設計原則：
// 1. 隔離性：每個測試使用 t.TempDir() 下獨立的資料庫檔案
// 2. 真實性：使用真實 SQL 引擎，而非 Mock
// 3. 並發：WAL + BEGIN IMMEDIATE，寫事務依序取得鎖，事務外的讀取不被阻塞
//
// 資料庫在測試結束時自動關閉。
func SetupTestDB(t *testing.T, models ...interface{}) *gorm.DB {
	t.Helper()

	// 1. 建立 SQLite 資料庫
	path := filepath.Join(t.TempDir(), uuid.NewString()+".db")
	dsn := fmt.Sprintf("file:%s?_busy_timeout=10000&_journal_mode=WAL&_txlock=immediate", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // 測試時靜音
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	// 2. 自動遷移（創建測試表）
	if len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			t.Fatalf("Failed to migrate test database: %v", err)
		}
	}

	// 3. 測試結束時關閉連線
	t.Cleanup(func() {
		if sqlDB, _ := db.DB(); sqlDB != nil {
			sqlDB.Close()
		}
	})

	return db
}
