package participation

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackyeh168/quest_crm/src/internal/domain/quest"
)

// EventTypeQuestCompleted 任務完成事件類型
const EventTypeQuestCompleted = "participation.quest_completed"

// QuestCompletedEvent 任務完成事件
//
// 事務提交後發布；訂閱者（例如打卡優惠券）失敗不影響完成結果。
type QuestCompletedEvent struct {
	eventID         string
	participationID ParticipationID
	userID          string
	questID         quest.QuestID
	questType       quest.QuestType
	shopID          string
	occurredAt      time.Time
}

// NewQuestCompletedEvent 創建任務完成事件
func NewQuestCompletedEvent(uq *UserQuest, completedAt time.Time) *QuestCompletedEvent {
	return &QuestCompletedEvent{
		eventID:         uuid.New().String(),
		participationID: uq.id,
		userID:          uq.userID,
		questID:         uq.questID,
		questType:       uq.snapshot.QuestType,
		shopID:          uq.snapshot.ShopID,
		occurredAt:      completedAt,
	}
}

// EventID 實現 DomainEvent 介面
func (e *QuestCompletedEvent) EventID() string { return e.eventID }

// EventType 實現 DomainEvent 介面
func (e *QuestCompletedEvent) EventType() string { return EventTypeQuestCompleted }

// OccurredAt 實現 DomainEvent 介面
func (e *QuestCompletedEvent) OccurredAt() time.Time { return e.occurredAt }

// AggregateID 實現 DomainEvent 介面
func (e *QuestCompletedEvent) AggregateID() string { return e.participationID.String() }

func (e *QuestCompletedEvent) ParticipationID() ParticipationID { return e.participationID }
func (e *QuestCompletedEvent) UserID() string                   { return e.userID }
func (e *QuestCompletedEvent) QuestID() quest.QuestID           { return e.questID }
func (e *QuestCompletedEvent) QuestType() quest.QuestType       { return e.questType }
func (e *QuestCompletedEvent) ShopID() string                   { return e.shopID }

// IsCheckin 是否為打卡任務完成
func (e *QuestCompletedEvent) IsCheckin() bool {
	return e.questType.IsCheckin()
}
