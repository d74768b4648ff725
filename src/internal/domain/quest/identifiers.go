package quest

import "github.com/jackyeh168/quest_crm/src/internal/domain/shared"

// QuestMarker 是 QuestID 的標記類型
type QuestMarker struct{}

// QuestID 任務的唯一標識符
type QuestID = shared.EntityID[QuestMarker]

// NewQuestID 生成新的任務 ID（UUID v4）
func NewQuestID() QuestID {
	return shared.NewEntityID[QuestMarker]()
}

// QuestIDFromString 從字串解析任務 ID
//
// 使用場景：HTTP 路徑參數、資料庫讀取
func QuestIDFromString(s string) (QuestID, error) {
	return shared.EntityIDFromString[QuestMarker](s, ErrInvalidQuestID)
}
