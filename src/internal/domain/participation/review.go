package participation

import (
	"strings"
	"time"

	"github.com/jackyeh168/quest_crm/src/internal/domain/quest"
	"github.com/jackyeh168/quest_crm/src/internal/domain/shared"
)

// Review 商品評論
type Review struct {
	MenuItemID   string
	MenuItemName string
	Rating       int
	Comment      string
	CreatedAt    time.Time
}

// NewReview 建立評論
//
// 業務規則：
// - menuItemID 必填
// - rating 介於 1 到 5
func NewReview(menuItemID, menuItemName string, rating int, comment string, now time.Time) (Review, error) {
	menuItemID = strings.TrimSpace(menuItemID)
	if menuItemID == "" {
		return Review{}, ErrInvalidReview.WithContext("field", "menuItemId")
	}
	if rating < 1 || rating > 5 {
		return Review{}, ErrInvalidReview.WithContext("field", "rating", "value", rating)
	}
	return Review{
		MenuItemID:   menuItemID,
		MenuItemName: strings.TrimSpace(menuItemName),
		Rating:       rating,
		Comment:      strings.TrimSpace(comment),
		CreatedAt:    now,
	}, nil
}

// NormalizeMenuItemID 將商品 ID 正規化為比對鍵（忽略大小寫與所有空白）
func NormalizeMenuItemID(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}

// MatchesMenuItem 判斷評論是否屬於指定商品
func (r Review) MatchesMenuItem(menuItemID string) bool {
	return NormalizeMenuItemID(r.MenuItemID) == NormalizeMenuItemID(menuItemID)
}

// Document 將評論轉為提交資料中的物件
func (r Review) Document() *shared.Document {
	return shared.NewDocument().
		Set("menuItemId", shared.StringValue(r.MenuItemID)).
		Set("menuItemName", shared.StringValue(r.MenuItemName)).
		Set("rating", shared.NumberValue(float64(r.Rating))).
		Set("comment", shared.StringValue(r.Comment)).
		Set("createdAt", shared.StringValue(r.CreatedAt.UTC().Format(time.RFC3339)))
}

// ReviewRecord 評論查詢結果
type ReviewRecord struct {
	Review
	ParticipationID ParticipationID
	QuestID         quest.QuestID
	UserID          string
}
