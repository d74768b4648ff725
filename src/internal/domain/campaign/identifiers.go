package campaign

import "github.com/jackyeh168/quest_crm/src/internal/domain/shared"

// CampaignMarker 是 CampaignID 的標記類型
type CampaignMarker struct{}

// CampaignID 活動的唯一標識符
type CampaignID = shared.EntityID[CampaignMarker]

// NewCampaignID 生成新的活動 ID
func NewCampaignID() CampaignID {
	return shared.NewEntityID[CampaignMarker]()
}

// CampaignIDFromString 從字串解析活動 ID
func CampaignIDFromString(s string) (CampaignID, error) {
	return shared.EntityIDFromString[CampaignMarker](s, ErrInvalidCampaignID)
}

// ParticipationMarker 是 ParticipationID 的標記類型
type ParticipationMarker struct{}

// ParticipationID 活動參加記錄的唯一標識符
type ParticipationID = shared.EntityID[ParticipationMarker]

// NewParticipationID 生成新的活動參加記錄 ID
func NewParticipationID() ParticipationID {
	return shared.NewEntityID[ParticipationMarker]()
}

// ParticipationIDFromString 從字串解析活動參加記錄 ID
func ParticipationIDFromString(s string) (ParticipationID, error) {
	return shared.EntityIDFromString[ParticipationMarker](s, ErrInvalidParticipationID)
}
