package quest

// QuestType 任務類型
type QuestType string

const (
	TypeSocialMedia     QuestType = "social_media"
	TypeWebsiteVisit    QuestType = "website_visit"
	TypeContentCreation QuestType = "content_creation"
	TypeProductReview   QuestType = "product_review"
	TypeLocationCheckin QuestType = "location_checkin"
	TypeFacebookFollow  QuestType = "facebook_follow"
)

var validQuestTypes = map[QuestType]struct{}{
	TypeSocialMedia:     {},
	TypeWebsiteVisit:    {},
	TypeContentCreation: {},
	TypeProductReview:   {},
	TypeLocationCheckin: {},
	TypeFacebookFollow:  {},
}

// ParseQuestType 解析任務類型
func ParseQuestType(s string) (QuestType, error) {
	t := QuestType(s)
	if _, ok := validQuestTypes[t]; !ok {
		return "", ErrInvalidQuestType.WithContext("value", s)
	}
	return t, nil
}

// IsCheckin 是否為每日打卡類型（每個營業日最多完成一次）
//
// 以任務類型判斷，與驗證方式無關：地理圍欄或社群打卡（facebook_api、api_verification）
// 驗證的 location_checkin 任務都適用每日重置。
func (t QuestType) IsCheckin() bool {
	return t == TypeLocationCheckin
}

// VerificationMethod 完成驗證方式
type VerificationMethod string

const (
	VerifyScreenshot   VerificationMethod = "screenshot"
	VerifyManualReview VerificationMethod = "manual_review"
	VerifyLinkClick    VerificationMethod = "link_click"
	VerifyAPI          VerificationMethod = "api_verification"
	VerifyLocation     VerificationMethod = "location_verification"
	VerifyFacebookAPI  VerificationMethod = "facebook_api"
)

var validVerificationMethods = map[VerificationMethod]struct{}{
	VerifyScreenshot:   {},
	VerifyManualReview: {},
	VerifyLinkClick:    {},
	VerifyAPI:          {},
	VerifyLocation:     {},
	VerifyFacebookAPI:  {},
}

// ParseVerificationMethod 解析驗證方式
func ParseVerificationMethod(s string) (VerificationMethod, error) {
	m := VerificationMethod(s)
	if _, ok := validVerificationMethods[m]; !ok {
		return "", ErrInvalidVerificationMethod.WithContext("value", s)
	}
	return m, nil
}

// RequiresGeofence 需要地理圍欄驗證
func (m VerificationMethod) RequiresGeofence() bool {
	return m == VerifyLocation
}

// RequiresSocialProof 需要社群貼文驗證
func (m VerificationMethod) RequiresSocialProof() bool {
	return m == VerifyFacebookAPI || m == VerifyAPI
}

// RequiresReview 需要人工審核（完成時進入 pending）
func (m VerificationMethod) RequiresReview() bool {
	return m == VerifyManualReview || m == VerifyScreenshot
}

// Status 任務狀態
//
// 單一狀態欄位；是否啟用由 Status 推導，不另存布林旗標。
type Status string

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// ParseStatus 解析任務狀態
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusActive, StatusPaused, StatusCompleted, StatusCancelled:
		return Status(s), nil
	}
	return "", ErrInvalidQuestStatus.WithContext("value", s)
}
