package api

import (
	"time"

	"github.com/jackyeh168/quest_crm/src/internal/domain/campaign"
	"github.com/jackyeh168/quest_crm/src/internal/domain/participation"
	"github.com/jackyeh168/quest_crm/src/internal/domain/quest"
	"github.com/jackyeh168/quest_crm/src/internal/domain/shared"
	"github.com/jackyeh168/quest_crm/src/internal/domain/social"
	"github.com/shopspring/decimal"
)

// ===========================
// Requests
// ===========================

// CompleteQuestRequest 完成任務請求
//
// location 可為 "lat,lng" 字串或 {lat, lng} 物件。
type CompleteQuestRequest struct {
	Location    interface{}      `json:"location"`
	SocialID    string           `json:"socialId"`
	AccessToken string           `json:"accessToken"`
	Since       *time.Time       `json:"since"`
	Data        *shared.Document `json:"data"`
}

// ReviewRequest 單筆商品評論
type ReviewRequest struct {
	MenuItemID   string `json:"menuItemId"`
	MenuItemName string `json:"menuItemName"`
	Rating       int    `json:"rating"`
	Comment      string `json:"comment"`
}

// SubmitReviewsRequest 提交評論請求
type SubmitReviewsRequest struct {
	Reviews []ReviewRequest `json:"reviews" binding:"required"`
}

// DecisionRequest 審核請求
type DecisionRequest struct {
	Reason string `json:"reason"`
}

// TouristQuestRequest 觀光景點任務請求
type TouristQuestRequest struct {
	Name         string  `json:"name" binding:"required"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	RadiusMeters float64 `json:"radiusMeters"`
	RewardPoints int64   `json:"rewardPoints"`
}

// LocationRequest 座標
type LocationRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// CreateQuestRequest 建立任務請求
type CreateQuestRequest struct {
	ShopID             string           `json:"shopId"`
	Name               string           `json:"name" binding:"required"`
	Description        string           `json:"description"`
	Type               string           `json:"type" binding:"required"`
	VerificationMethod string           `json:"verificationMethod" binding:"required"`
	RewardAmount       decimal.Decimal  `json:"rewardAmount"`
	RewardPoints       int64            `json:"rewardPoints"`
	MaxParticipants    int              `json:"maxParticipants"`
	StartDate          time.Time        `json:"startDate"`
	EndDate            *time.Time       `json:"endDate"`
	Location           *LocationRequest `json:"location"`
	RadiusMeters       float64          `json:"radiusMeters"`
	Budget             decimal.Decimal  `json:"budget"`
	IsOneTime          bool             `json:"isOneTime"`
	RequiredHashtags   []string         `json:"requiredHashtags"`
	PlaceNameHint      string           `json:"placeNameHint"`
	RequiredData       *shared.Document `json:"requiredData"`
}

// StatusRequest 變更狀態請求
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// OrderCompletedRequest 訂單完成通知
type OrderCompletedRequest struct {
	OrderID          string          `json:"orderId" binding:"required"`
	UserID           string          `json:"userId" binding:"required"`
	ShopID           string          `json:"shopId" binding:"required"`
	FoodSubtotal     decimal.Decimal `json:"foodSubtotal"`
	CampaignDiscount decimal.Decimal `json:"campaignDiscount"`
	CompletedAt      *time.Time      `json:"completedAt"`
}

// ===========================
// Responses
// ===========================

// QuestResponse 任務摘要
type QuestResponse struct {
	ID                  string          `json:"id"`
	ShopID              string          `json:"shopId,omitempty"`
	TouristAttractionID string          `json:"touristAttractionId,omitempty"`
	Name                string          `json:"name"`
	Description         string          `json:"description,omitempty"`
	Type                string          `json:"type"`
	VerificationMethod  string          `json:"verificationMethod"`
	RewardAmount        decimal.Decimal `json:"rewardAmount"`
	RewardPoints        int64           `json:"rewardPoints"`
	MaxParticipants     int             `json:"maxParticipants"`
	CurrentParticipants int             `json:"currentParticipants"`
	Budget              decimal.Decimal `json:"budget"`
	TotalSpent          decimal.Decimal `json:"totalSpent"`
	Status              string          `json:"status"`
	IsOneTime           bool            `json:"isOneTime"`
	StartDate           time.Time       `json:"startDate"`
	EndDate             *time.Time      `json:"endDate,omitempty"`
}

func toQuestResponse(q *quest.Quest) QuestResponse {
	def := q.Definition()
	return QuestResponse{
		ID:                  q.ID().String(),
		ShopID:              def.ShopID,
		TouristAttractionID: def.TouristAttractionID,
		Name:                def.Name,
		Description:         def.Description,
		Type:                string(def.Type),
		VerificationMethod:  string(def.Verification),
		RewardAmount:        def.RewardAmount,
		RewardPoints:        def.RewardPoints,
		MaxParticipants:     def.MaxParticipants,
		CurrentParticipants: q.CurrentParticipants(),
		Budget:              def.Budget,
		TotalSpent:          q.TotalSpent(),
		Status:              string(q.Status()),
		IsOneTime:           def.OneTime,
		StartDate:           def.StartDate,
		EndDate:             def.EndDate,
	}
}

// ParticipationResponse 參加或完成結果
type ParticipationResponse struct {
	ParticipationID string          `json:"participationId"`
	QuestID         string          `json:"questId,omitempty"`
	Status          string          `json:"status"`
	JoinedAt        *time.Time      `json:"joinedAt,omitempty"`
	DailyReset      bool            `json:"dailyReset,omitempty"`
	PointsAwarded   int64           `json:"pointsAwarded"`
	CashAwarded     decimal.Decimal `json:"cashAwarded"`
	Distance        *float64        `json:"distance,omitempty"`
	MatchedPosts    []social.Post   `json:"matchedPosts,omitempty"`
	ReviewCount     int             `json:"reviewCount,omitempty"`
}

// ReviewResponse 評論
type ReviewResponse struct {
	ParticipationID string    `json:"participationId"`
	QuestID         string    `json:"questId"`
	UserID          string    `json:"userId"`
	MenuItemID      string    `json:"menuItemId"`
	MenuItemName    string    `json:"menuItemName"`
	Rating          int       `json:"rating"`
	Comment         string    `json:"comment,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

func toReviewResponses(records []participation.ReviewRecord) []ReviewResponse {
	out := make([]ReviewResponse, 0, len(records))
	for _, r := range records {
		out = append(out, ReviewResponse{
			ParticipationID: r.ParticipationID.String(),
			QuestID:         r.QuestID.String(),
			UserID:          r.UserID,
			MenuItemID:      r.MenuItemID,
			MenuItemName:    r.MenuItemName,
			Rating:          r.Rating,
			Comment:         r.Comment,
			CreatedAt:       r.CreatedAt,
		})
	}
	return out
}

// AppliedCampaignResponse 訂單套用的活動
type AppliedCampaignResponse struct {
	CampaignID    string    `json:"campaignId"`
	CampaignName  string    `json:"campaignName"`
	PointsAwarded int64     `json:"pointsAwarded"`
	AppliedAt     time.Time `json:"appliedAt"`
}

func toAppliedResponses(applied []campaign.AppliedCampaign) []AppliedCampaignResponse {
	out := make([]AppliedCampaignResponse, 0, len(applied))
	for _, a := range applied {
		out = append(out, AppliedCampaignResponse{
			CampaignID:    a.CampaignID.String(),
			CampaignName:  a.CampaignName,
			PointsAwarded: a.PointsAwarded,
			AppliedAt:     a.AppliedAt,
		})
	}
	return out
}
