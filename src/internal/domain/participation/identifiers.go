package participation

import "github.com/jackyeh168/quest_crm/src/internal/domain/shared"

// ParticipationMarker 是 ParticipationID 的標記類型
type ParticipationMarker struct{}

// ParticipationID 參加記錄（UserQuest）的唯一標識符
type ParticipationID = shared.EntityID[ParticipationMarker]

// NewParticipationID 生成新的參加記錄 ID
func NewParticipationID() ParticipationID {
	return shared.NewEntityID[ParticipationMarker]()
}

// ParticipationIDFromString 從字串解析參加記錄 ID
func ParticipationIDFromString(s string) (ParticipationID, error) {
	return shared.EntityIDFromString[ParticipationMarker](s, ErrInvalidParticipationID)
}
