package persistence

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackyeh168/quest_crm/src/internal/domain/shared"
	"gorm.io/gorm"
)

// IsUniqueConstraintError 判斷是否為唯一約束錯誤
//
// 支持的資料庫：
// - PostgreSQL: "duplicate key value violates unique constraint"
// - SQLite: "UNIQUE constraint failed"
// - MySQL: "Duplicate entry"
//
// 開啟 TranslateError 時 GORM 會轉為 gorm.ErrDuplicatedKey，兩種形式都接受。
func IsUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	errMsg := strings.ToLower(err.Error())

	// PostgreSQL
	if strings.Contains(errMsg, "duplicate key value violates unique constraint") {
		return true
	}

	// SQLite
	if strings.Contains(errMsg, "unique constraint failed") {
		return true
	}

	// MySQL
	if strings.Contains(errMsg, "duplicate entry") {
		return true
	}

	return false
}

// IsNotFound 判斷是否為查無記錄
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// RepositoryError 將資料庫錯誤包裝為領域的倉儲錯誤（ExternalDependency）
//
// 原始錯誤仍保留在錯誤鏈中，errors.Is(err, context.DeadlineExceeded) 依然成立。
func RepositoryError(template *shared.DomainError, operation string, err error) error {
	return fmt.Errorf("%w: %w", template.WithContext("operation", operation), err)
}
