package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	campaignapp "github.com/jackyeh168/quest_crm/src/internal/application/campaign"
	"github.com/jackyeh168/quest_crm/src/internal/domain/campaign"
	"github.com/jackyeh168/quest_crm/src/internal/domain/shared"
	"github.com/sirupsen/logrus"
)

// CampaignJoiner 參加活動
type CampaignJoiner interface {
	Execute(ctx context.Context, cmd campaignapp.JoinCampaignCommand) (*campaignapp.JoinCampaignResult, error)
}

// CampaignDeleter 刪除活動
type CampaignDeleter interface {
	Execute(ctx context.Context, cmd campaignapp.DeleteCampaignCommand) error
}

// OrderEvaluator 訂單完成時的活動評估
type OrderEvaluator interface {
	OnOrderCompleted(ctx context.Context, order campaign.CompletedOrder) ([]campaign.AppliedCampaign, error)
}

// CampaignHandler 活動與訂單通知端點
type CampaignHandler struct {
	Join   CampaignJoiner
	Delete CampaignDeleter
	Engine OrderEvaluator
	Clock  shared.Clock
	Logger logrus.FieldLogger
}

func (h *CampaignHandler) log(c *gin.Context) logrus.FieldLogger {
	logger := h.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return logger.WithField("path", c.FullPath())
}

// JoinCampaign POST /campaigns/:id/join
func (h *CampaignHandler) JoinCampaign(c *gin.Context) {
	p, _ := PrincipalFrom(c)
	result, err := h.Join.Execute(c.Request.Context(), campaignapp.JoinCampaignCommand{
		Principal:  p,
		CampaignID: c.Param("id"),
	})
	if err != nil {
		respondError(c, h.log(c).WithFields(logrus.Fields{
			"campaign_id": c.Param("id"),
			"user_id":     p.ID,
		}), "JoinCampaign", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"participationId": result.ParticipationID,
		"campaignId":      result.CampaignID,
		"joinedAt":        result.JoinedAt,
	})
}

// DeleteCampaign DELETE /admin/campaigns/:id?hard=true
func (h *CampaignHandler) DeleteCampaign(c *gin.Context) {
	hard, _ := strconv.ParseBool(c.DefaultQuery("hard", "false"))
	err := h.Delete.Execute(c.Request.Context(), campaignapp.DeleteCampaignCommand{
		CampaignID: c.Param("id"),
		Hard:       hard,
	})
	if err != nil {
		respondError(c, h.log(c).WithField("campaign_id", c.Param("id")), "DeleteCampaign", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// OrderCompleted POST /internal/orders/completed
//
// 個別活動失敗不影響回應狀態：已套用的活動照常返回，並標記 partialFailure。
func (h *CampaignHandler) OrderCompleted(c *gin.Context) {
	var req OrderCompletedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, h.log(c), "OrderCompleted", err)
		return
	}

	order := campaign.CompletedOrder{
		ID:               req.OrderID,
		UserID:           req.UserID,
		ShopID:           req.ShopID,
		FoodSubtotal:     req.FoodSubtotal,
		CampaignDiscount: req.CampaignDiscount,
	}
	if req.CompletedAt != nil {
		order.CompletedAt = *req.CompletedAt
	} else if h.Clock != nil {
		order.CompletedAt = h.Clock.Now()
	}

	log := h.log(c).WithFields(logrus.Fields{
		"order_id": req.OrderID,
		"user_id":  req.UserID,
		"shop_id":  req.ShopID,
	})

	applied, err := h.Engine.OnOrderCompleted(c.Request.Context(), order)
	if err != nil && applied == nil {
		respondError(c, log, "OrderCompleted", err)
		return
	}
	if err != nil {
		log.WithError(err).Error("OrderCompleted: some campaigns failed")
	}

	c.JSON(http.StatusOK, gin.H{
		"orderId":        req.OrderID,
		"applied":        toAppliedResponses(applied),
		"partialFailure": err != nil,
	})
}
