package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackyeh168/quest_crm/src/internal/application/catalog"
	"github.com/jackyeh168/quest_crm/src/internal/application/questing"
	"github.com/jackyeh168/quest_crm/src/internal/domain/geo"
	"github.com/jackyeh168/quest_crm/src/internal/domain/participation"
	"github.com/jackyeh168/quest_crm/src/internal/domain/quest"
	"github.com/sirupsen/logrus"
)

// ===========================
// Ports
// ===========================

// QuestJoiner 參加任務
type QuestJoiner interface {
	Execute(ctx context.Context, cmd questing.JoinQuestCommand) (*questing.JoinQuestResult, error)
}

// QuestCompleter 完成任務
type QuestCompleter interface {
	Execute(ctx context.Context, cmd questing.CompleteQuestCommand) (*questing.CompleteQuestResult, error)
}

// ReviewSubmitter 提交商品評論
type ReviewSubmitter interface {
	Execute(ctx context.Context, cmd questing.SubmitReviewCommand) (*questing.SubmitReviewResult, error)
}

// ReviewFinder 依商品查詢評論
type ReviewFinder interface {
	Execute(query questing.ReviewsByMenuItemQuery) ([]participation.ReviewRecord, error)
}

// ParticipationCanceller 放棄任務
type ParticipationCanceller interface {
	Execute(ctx context.Context, cmd questing.CancelCommand) error
}

// SubmissionReviewer 審核 pending 記錄
type SubmissionReviewer interface {
	Approve(ctx context.Context, cmd questing.DecisionCommand) (*questing.DecisionResult, error)
	Reject(ctx context.Context, cmd questing.DecisionCommand) (*questing.DecisionResult, error)
}

// QuestCatalog 任務查詢與觀光景點任務
type QuestCatalog interface {
	FindActiveForShop(ctx context.Context, shopID string, now time.Time) ([]*quest.Quest, error)
	FindOrCreateTouristQuest(ctx context.Context, attraction quest.TouristAttraction) (*quest.Quest, error)
}

// QuestCreator 建立任務
type QuestCreator interface {
	Execute(ctx context.Context, cmd catalog.CreateQuestCommand) (*quest.Quest, error)
}

// QuestManager 任務狀態與軟刪除
type QuestManager interface {
	SetStatus(ctx context.Context, id string, status quest.Status) (*quest.Quest, error)
	SoftDelete(ctx context.Context, id string) error
}

// ===========================
// QuestHandler
// ===========================

// QuestHandler 任務參加流程的 HTTP 端點
type QuestHandler struct {
	Join     QuestJoiner
	Complete QuestCompleter
	Reviews  ReviewSubmitter
	Finder   ReviewFinder
	Cancel   ParticipationCanceller
	Reviewer SubmissionReviewer
	Catalog  QuestCatalog
	Creator  QuestCreator
	Manager  QuestManager
	Logger   logrus.FieldLogger
}

func (h *QuestHandler) log(c *gin.Context) logrus.FieldLogger {
	logger := h.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	fields := logrus.Fields{"path": c.FullPath()}
	if p, ok := PrincipalFrom(c); ok {
		fields["user_id"] = p.ID
	}
	return logger.WithFields(fields)
}

// JoinQuest POST /quests/:id/join
func (h *QuestHandler) JoinQuest(c *gin.Context) {
	p, _ := PrincipalFrom(c)
	result, err := h.Join.Execute(c.Request.Context(), questing.JoinQuestCommand{
		Principal: p,
		QuestID:   c.Param("id"),
	})
	if err != nil {
		respondError(c, h.log(c).WithField("quest_id", c.Param("id")), "JoinQuest", err)
		return
	}

	joinedAt := result.JoinedAt
	c.JSON(http.StatusCreated, ParticipationResponse{
		ParticipationID: result.ParticipationID,
		QuestID:         result.QuestID,
		Status:          string(result.Status),
		JoinedAt:        &joinedAt,
		DailyReset:      result.DailyReset,
	})
}

// CompleteQuest POST /quests/:id/complete
func (h *QuestHandler) CompleteQuest(c *gin.Context) {
	var req CompleteQuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, h.log(c), "CompleteQuest", err)
		return
	}

	evidence := questing.Evidence{
		Location:    req.Location,
		SocialID:    req.SocialID,
		AccessToken: req.AccessToken,
		Data:        req.Data,
	}
	if req.Since != nil {
		evidence.Since = *req.Since
	}

	p, _ := PrincipalFrom(c)
	result, err := h.Complete.Execute(c.Request.Context(), questing.CompleteQuestCommand{
		Principal: p,
		QuestID:   c.Param("id"),
		Evidence:  evidence,
	})
	if err != nil {
		respondError(c, h.log(c).WithField("quest_id", c.Param("id")), "CompleteQuest", err)
		return
	}

	c.JSON(http.StatusOK, ParticipationResponse{
		ParticipationID: result.ParticipationID,
		QuestID:         c.Param("id"),
		Status:          string(result.Status),
		PointsAwarded:   result.PointsAwarded,
		CashAwarded:     result.CashAwarded,
		Distance:        result.Distance,
		MatchedPosts:    result.MatchedPosts,
	})
}

// SubmitReviews POST /quests/:id/reviews
func (h *QuestHandler) SubmitReviews(c *gin.Context) {
	var req SubmitReviewsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, h.log(c), "SubmitReviews", err)
		return
	}

	reviews := make([]questing.ReviewInput, 0, len(req.Reviews))
	for _, r := range req.Reviews {
		reviews = append(reviews, questing.ReviewInput{
			MenuItemID:   r.MenuItemID,
			MenuItemName: r.MenuItemName,
			Rating:       r.Rating,
			Comment:      r.Comment,
		})
	}

	p, _ := PrincipalFrom(c)
	result, err := h.Reviews.Execute(c.Request.Context(), questing.SubmitReviewCommand{
		Principal: p,
		QuestID:   c.Param("id"),
		Reviews:   reviews,
	})
	if err != nil {
		respondError(c, h.log(c).WithField("quest_id", c.Param("id")), "SubmitReviews", err)
		return
	}

	c.JSON(http.StatusCreated, ParticipationResponse{
		ParticipationID: result.ParticipationID,
		QuestID:         c.Param("id"),
		Status:          string(result.Status),
		PointsAwarded:   result.PointsAwarded,
		ReviewCount:     result.ReviewCount,
	})
}

// ListReviews GET /quests/:id/reviews?menuItemId=
func (h *QuestHandler) ListReviews(c *gin.Context) {
	records, err := h.Finder.Execute(questing.ReviewsByMenuItemQuery{
		QuestID:    c.Param("id"),
		MenuItemID: c.Query("menuItemId"),
	})
	if err != nil {
		respondError(c, h.log(c), "ListReviews", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": toReviewResponses(records)})
}

// CancelQuest POST /quests/:id/cancel
func (h *QuestHandler) CancelQuest(c *gin.Context) {
	p, _ := PrincipalFrom(c)
	err := h.Cancel.Execute(c.Request.Context(), questing.CancelCommand{
		Principal: p,
		QuestID:   c.Param("id"),
	})
	if err != nil {
		respondError(c, h.log(c).WithField("quest_id", c.Param("id")), "CancelQuest", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"questId": c.Param("id"), "status": string(participation.StatusCancelled)})
}

// ApproveSubmission POST /admin/participations/:id/approve
func (h *QuestHandler) ApproveSubmission(c *gin.Context) {
	h.decide(c, "ApproveSubmission", h.Reviewer.Approve)
}

// RejectSubmission POST /admin/participations/:id/reject
func (h *QuestHandler) RejectSubmission(c *gin.Context) {
	h.decide(c, "RejectSubmission", h.Reviewer.Reject)
}

func (h *QuestHandler) decide(
	c *gin.Context,
	op string,
	fn func(ctx context.Context, cmd questing.DecisionCommand) (*questing.DecisionResult, error),
) {
	var req DecisionRequest
	// 理由為選填；空 body 視為沒有理由
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, h.log(c), op, err)
			return
		}
	}

	p, _ := PrincipalFrom(c)
	result, err := fn(c.Request.Context(), questing.DecisionCommand{
		Reviewer:        p,
		ParticipationID: c.Param("id"),
		Reason:          req.Reason,
	})
	if err != nil {
		respondError(c, h.log(c).WithField("participation_id", c.Param("id")), op, err)
		return
	}

	c.JSON(http.StatusOK, ParticipationResponse{
		ParticipationID: result.ParticipationID,
		Status:          string(result.Status),
		PointsAwarded:   result.PointsAwarded,
	})
}

// ShopQuests GET /shops/:id/quests
func (h *QuestHandler) ShopQuests(c *gin.Context) {
	quests, err := h.Catalog.FindActiveForShop(c.Request.Context(), c.Param("id"), time.Time{})
	if err != nil {
		respondError(c, h.log(c).WithField("shop_id", c.Param("id")), "ShopQuests", err)
		return
	}

	out := make([]QuestResponse, 0, len(quests))
	for _, q := range quests {
		out = append(out, toQuestResponse(q))
	}
	c.JSON(http.StatusOK, gin.H{"quests": out})
}

// TouristQuest POST /tourist-attractions/:id/quest
func (h *QuestHandler) TouristQuest(c *gin.Context) {
	var req TouristQuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, h.log(c), "TouristQuest", err)
		return
	}

	q, err := h.Catalog.FindOrCreateTouristQuest(c.Request.Context(), quest.TouristAttraction{
		ID:           c.Param("id"),
		Name:         req.Name,
		Location:     geo.Point{Lat: req.Lat, Lon: req.Lng},
		RadiusMeters: req.RadiusMeters,
		RewardPoints: req.RewardPoints,
	})
	if err != nil {
		respondError(c, h.log(c).WithField("attraction_id", c.Param("id")), "TouristQuest", err)
		return
	}
	c.JSON(http.StatusOK, toQuestResponse(q))
}

// CreateQuest POST /quests（商家與管理員）
func (h *QuestHandler) CreateQuest(c *gin.Context) {
	var req CreateQuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, h.log(c), "CreateQuest", err)
		return
	}

	questType, err := quest.ParseQuestType(req.Type)
	if err != nil {
		respondError(c, h.log(c), "CreateQuest", err)
		return
	}
	method, err := quest.ParseVerificationMethod(req.VerificationMethod)
	if err != nil {
		respondError(c, h.log(c), "CreateQuest", err)
		return
	}

	def := quest.Definition{
		ShopID:           req.ShopID,
		Name:             req.Name,
		Description:      req.Description,
		Type:             questType,
		Verification:     method,
		RewardAmount:     req.RewardAmount,
		RewardPoints:     req.RewardPoints,
		MaxParticipants:  req.MaxParticipants,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		RadiusMeters:     req.RadiusMeters,
		Budget:           req.Budget,
		OneTime:          req.IsOneTime,
		RequiredHashtags: req.RequiredHashtags,
		PlaceNameHint:    req.PlaceNameHint,
		RequiredData:     req.RequiredData,
	}
	if req.Location != nil {
		def.Location = &geo.Point{Lat: req.Location.Lat, Lon: req.Location.Lng}
	}

	p, _ := PrincipalFrom(c)
	q, err := h.Creator.Execute(c.Request.Context(), catalog.CreateQuestCommand{Principal: p, Definition: def})
	if err != nil {
		respondError(c, h.log(c), "CreateQuest", err)
		return
	}
	c.JSON(http.StatusCreated, toQuestResponse(q))
}

// SetQuestStatus PATCH /admin/quests/:id/status
func (h *QuestHandler) SetQuestStatus(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, h.log(c), "SetQuestStatus", err)
		return
	}
	status, err := quest.ParseStatus(req.Status)
	if err != nil {
		respondError(c, h.log(c), "SetQuestStatus", err)
		return
	}

	q, err := h.Manager.SetStatus(c.Request.Context(), c.Param("id"), status)
	if err != nil {
		respondError(c, h.log(c).WithField("quest_id", c.Param("id")), "SetQuestStatus", err)
		return
	}
	c.JSON(http.StatusOK, toQuestResponse(q))
}

// DeleteQuest DELETE /admin/quests/:id（只做軟刪除）
func (h *QuestHandler) DeleteQuest(c *gin.Context) {
	if err := h.Manager.SoftDelete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.log(c).WithField("quest_id", c.Param("id")), "DeleteQuest", err)
		return
	}
	c.Status(http.StatusNoContent)
}
