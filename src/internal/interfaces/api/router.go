package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackyeh168/quest_crm/src/internal/domain/shared"
	"github.com/sirupsen/logrus"
)

// Router 所有端點的依賴
type Router struct {
	Auth      *Authenticator
	Quests    *QuestHandler
	Campaigns *CampaignHandler
	Rewards   *RewardHandler
	Logger    logrus.FieldLogger
}

// Engine 組裝 gin 路由
//
//	/api/quests/...                 使用者
//	/api/admin/...                  管理員
//	/api/internal/orders/completed  訂單服務（管理員權杖）
func (r *Router) Engine() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), accessLog(r.logger()))

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")
	api.Use(r.Auth.Middleware())
	{
		api.POST("/quests", RequireUserType(shared.UserTypePartner, shared.UserTypeAdmin), r.Quests.CreateQuest)
		api.POST("/quests/:id/join", r.Quests.JoinQuest)
		api.POST("/quests/:id/complete", r.Quests.CompleteQuest)
		api.POST("/quests/:id/reviews", r.Quests.SubmitReviews)
		api.GET("/quests/:id/reviews", r.Quests.ListReviews)
		api.POST("/quests/:id/cancel", r.Quests.CancelQuest)
		api.GET("/shops/:id/quests", r.Quests.ShopQuests)
		api.POST("/tourist-attractions/:id/quest", r.Quests.TouristQuest)
		api.POST("/campaigns/:id/join", r.Campaigns.JoinCampaign)
		api.GET("/me/balance", r.Rewards.MyBalance)
	}

	admin := api.Group("/admin", RequireUserType(shared.UserTypeAdmin))
	{
		admin.POST("/participations/:id/approve", r.Quests.ApproveSubmission)
		admin.POST("/participations/:id/reject", r.Quests.RejectSubmission)
		admin.PATCH("/quests/:id/status", r.Quests.SetQuestStatus)
		admin.DELETE("/quests/:id", r.Quests.DeleteQuest)
		admin.DELETE("/campaigns/:id", r.Campaigns.DeleteCampaign)
	}

	internal := api.Group("/internal", RequireUserType(shared.UserTypeAdmin))
	internal.POST("/orders/completed", r.Campaigns.OrderCompleted)

	return engine
}

func (r *Router) logger() logrus.FieldLogger {
	if r.Logger == nil {
		return logrus.StandardLogger()
	}
	return r.Logger
}

func accessLog(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("request completed")
			return
		}
		entry.Debug("request completed")
	}
}
