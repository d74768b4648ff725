package persistence

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackyeh168/quest_crm/src/internal/domain/shared"
	"gorm.io/datatypes"
)

// DocumentToJSON 將自由格式文件轉為 JSON 欄位（nil 存為 {}）
func DocumentToJSON(doc *shared.Document) (datatypes.JSON, error) {
	if doc == nil {
		return datatypes.JSON("{}"), nil
	}
	data, err := doc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	return datatypes.JSON(data), nil
}

// DocumentFromJSON 從 JSON 欄位重建文件（保留鍵順序）
func DocumentFromJSON(data datatypes.JSON) (*shared.Document, error) {
	doc := shared.NewDocument()
	if len(data) == 0 || string(data) == "null" {
		return doc, nil
	}
	if err := doc.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return doc, nil
}

// StringsToJSON 字串陣列欄位
func StringsToJSON(values []string) (datatypes.JSON, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal string list: %w", err)
	}
	return datatypes.JSON(data), nil
}

// StringsFromJSON 解析字串陣列欄位
func StringsFromJSON(data datatypes.JSON) ([]string, error) {
	values := make([]string, 0)
	if len(data) == 0 || string(data) == "null" {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to unmarshal string list: %w", err)
	}
	return values, nil
}

// UTCPtr 可選時間的 UTC 正規化
//
// 所有時間欄位以 UTC 寫入：SQLite 以字串比較時間，時區必須一致。
func UTCPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
