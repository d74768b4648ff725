package participation

import (
	"time"

	"github.com/jackyeh168/quest_crm/src/internal/domain/participation"
	"github.com/jackyeh168/quest_crm/src/internal/domain/quest"
	"github.com/jackyeh168/quest_crm/src/internal/infrastructure/persistence"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ===========================
// GORM Models
// ===========================

// UserQuestGORM 參加記錄資料表模型
//
// 資料庫約束：
// - id: 主鍵（UUID）
// - (user_id, quest_id): 唯一索引，每位使用者對每個任務只有一筆記錄
// - version: 樂觀鎖，每次更新遞增
// - quest_name 等欄位為參加時的任務快照
type UserQuestGORM struct {
	// 識別欄位
	ID      string `gorm:"column:id;type:varchar(36);primaryKey"`
	UserID  string `gorm:"column:user_id;type:varchar(64);not null;uniqueIndex:idx_user_quests_user_quest,priority:1"`
	QuestID string `gorm:"column:quest_id;type:varchar(36);not null;uniqueIndex:idx_user_quests_user_quest,priority:2;index"`

	// 任務快照
	QuestName          string          `gorm:"column:quest_name;type:varchar(255);not null"`
	ShopID             string          `gorm:"column:shop_id;type:varchar(64)"`
	QuestType          string          `gorm:"column:quest_type;type:varchar(32);not null"`
	VerificationMethod string          `gorm:"column:verification_method;type:varchar(32);not null"`
	RewardAmount       decimal.Decimal `gorm:"column:reward_amount;type:decimal(12,2);not null"`
	RewardPoints       int64           `gorm:"column:reward_points;not null"`
	IsOneTime          bool            `gorm:"column:is_one_time;not null"`

	// 狀態
	Status           string         `gorm:"column:status;type:varchar(16);not null;index"`
	VerificationData datatypes.JSON `gorm:"column:verification_data"`
	SubmissionData   datatypes.JSON `gorm:"column:submission_data"`

	// 時間
	JoinedAt    time.Time  `gorm:"column:joined_at;not null"`
	VerifiedAt  *time.Time `gorm:"column:verified_at"`
	CompletedAt *time.Time `gorm:"column:completed_at;index"`

	Version int `gorm:"column:version;not null"`
}

// TableName 指定資料表名稱
func (UserQuestGORM) TableName() string {
	return "user_quests"
}

// ReviewGORM 商品評論資料表模型
//
// menu_item_key 為正規化後的商品 ID（小寫、移除空白），供依商品查詢。
type ReviewGORM struct {
	ID              uint      `gorm:"column:id;primaryKey;autoIncrement"`
	ParticipationID string    `gorm:"column:participation_id;type:varchar(36);not null;index"`
	QuestID         string    `gorm:"column:quest_id;type:varchar(36);not null;index"`
	UserID          string    `gorm:"column:user_id;type:varchar(64);not null"`
	MenuItemID      string    `gorm:"column:menu_item_id;type:varchar(128);not null"`
	MenuItemKey     string    `gorm:"column:menu_item_key;type:varchar(128);not null;index"`
	MenuItemName    string    `gorm:"column:menu_item_name;type:varchar(255)"`
	Rating          int       `gorm:"column:rating;not null;check:rating BETWEEN 1 AND 5"`
	Comment         string    `gorm:"column:comment;type:text"`
	CreatedAt       time.Time `gorm:"column:created_at;not null"`
}

// TableName 指定資料表名稱
func (ReviewGORM) TableName() string {
	return "quest_reviews"
}

// ===========================
// Mapper Functions
// ===========================

// toDomain 將 GORM 模型轉換為 Domain 模型
func (g *UserQuestGORM) toDomain(reviews []ReviewGORM) (*participation.UserQuest, error) {
	id, err := participation.ParticipationIDFromString(g.ID)
	if err != nil {
		return nil, err
	}
	questID, err := quest.QuestIDFromString(g.QuestID)
	if err != nil {
		return nil, err
	}
	verification, err := persistence.DocumentFromJSON(g.VerificationData)
	if err != nil {
		return nil, err
	}
	submission, err := persistence.DocumentFromJSON(g.SubmissionData)
	if err != nil {
		return nil, err
	}

	domainReviews := make([]participation.Review, 0, len(reviews))
	for _, r := range reviews {
		domainReviews = append(domainReviews, r.toDomain())
	}

	return participation.ReconstructUserQuest(participation.Reconstruct{
		ID:      id,
		UserID:  g.UserID,
		QuestID: questID,
		Snapshot: participation.Snapshot{
			QuestName:    g.QuestName,
			ShopID:       g.ShopID,
			QuestType:    quest.QuestType(g.QuestType),
			Verification: quest.VerificationMethod(g.VerificationMethod),
			RewardAmount: g.RewardAmount,
			RewardPoints: g.RewardPoints,
			OneTime:      g.IsOneTime,
		},
		Status:           participation.Status(g.Status),
		VerificationData: verification,
		SubmissionData:   submission,
		Reviews:          domainReviews,
		JoinedAt:         g.JoinedAt,
		VerifiedAt:       g.VerifiedAt,
		CompletedAt:      g.CompletedAt,
		Version:          g.Version,
	})
}

// toGORM 將 Domain 模型轉換為 GORM 模型
func toGORM(uq *participation.UserQuest) (*UserQuestGORM, error) {
	verification, err := persistence.DocumentToJSON(uq.VerificationData())
	if err != nil {
		return nil, err
	}
	submission, err := persistence.DocumentToJSON(uq.SubmissionData())
	if err != nil {
		return nil, err
	}
	snap := uq.Snapshot()
	return &UserQuestGORM{
		ID:                 uq.ID().String(),
		UserID:             uq.UserID(),
		QuestID:            uq.QuestID().String(),
		QuestName:          snap.QuestName,
		ShopID:             snap.ShopID,
		QuestType:          string(snap.QuestType),
		VerificationMethod: string(snap.Verification),
		RewardAmount:       snap.RewardAmount,
		RewardPoints:       snap.RewardPoints,
		IsOneTime:          snap.OneTime,
		Status:             string(uq.Status()),
		VerificationData:   verification,
		SubmissionData:     submission,
		JoinedAt:           uq.JoinedAt().UTC(),
		VerifiedAt:         persistence.UTCPtr(uq.VerifiedAt()),
		CompletedAt:        persistence.UTCPtr(uq.CompletedAt()),
		Version:            uq.Version(),
	}, nil
}

func (r ReviewGORM) toDomain() participation.Review {
	return participation.Review{
		MenuItemID:   r.MenuItemID,
		MenuItemName: r.MenuItemName,
		Rating:       r.Rating,
		Comment:      r.Comment,
		CreatedAt:    r.CreatedAt,
	}
}

func (r ReviewGORM) toRecord() (participation.ReviewRecord, error) {
	participationID, err := participation.ParticipationIDFromString(r.ParticipationID)
	if err != nil {
		return participation.ReviewRecord{}, err
	}
	questID, err := quest.QuestIDFromString(r.QuestID)
	if err != nil {
		return participation.ReviewRecord{}, err
	}
	return participation.ReviewRecord{
		Review:          r.toDomain(),
		ParticipationID: participationID,
		QuestID:         questID,
		UserID:          r.UserID,
	}, nil
}

func toReviewGORM(uq *participation.UserQuest, review participation.Review) ReviewGORM {
	return ReviewGORM{
		ParticipationID: uq.ID().String(),
		QuestID:         uq.QuestID().String(),
		UserID:          uq.UserID(),
		MenuItemID:      review.MenuItemID,
		MenuItemKey:     participation.NormalizeMenuItemID(review.MenuItemID),
		MenuItemName:    review.MenuItemName,
		Rating:          review.Rating,
		Comment:         review.Comment,
		CreatedAt:       review.CreatedAt.UTC(),
	}
}
