package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	rewardapp "github.com/jackyeh168/quest_crm/src/internal/application/reward"
	"github.com/jackyeh168/quest_crm/src/internal/domain/reward"
	"github.com/jackyeh168/quest_crm/src/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// BalanceReader 查詢餘額
type BalanceReader interface {
	Execute(query rewardapp.GetBalanceQuery) (*rewardapp.GetBalanceResult, error)
}

// BalanceResponse 餘額回應
type BalanceResponse struct {
	OwnerID string          `json:"ownerId"`
	Points  int64           `json:"points"`
	Cash    decimal.Decimal `json:"cash"`
	Recent  []LedgerLine    `json:"recent"`
}

// LedgerLine 帳本記錄
type LedgerLine struct {
	Asset        string          `json:"asset"`
	Amount       decimal.Decimal `json:"amount"`
	BalanceAfter decimal.Decimal `json:"balanceAfter"`
	Reason       string          `json:"reason"`
	RelatedType  string          `json:"relatedType,omitempty"`
	RelatedID    string          `json:"relatedId,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// RewardHandler 獎勵餘額端點
type RewardHandler struct {
	Balance BalanceReader
	Logger  logrus.FieldLogger
}

// MyBalance GET /me/balance
//
// 商家身分查詢商店擁有者帳戶（活動折扣補貼）；其餘查詢使用者帳戶。
func (h *RewardHandler) MyBalance(c *gin.Context) {
	p, _ := PrincipalFrom(c)
	ownerType := reward.OwnerUser
	if p.UserType == shared.UserTypePartner {
		ownerType = reward.OwnerShopOwner
	}

	result, err := h.Balance.Execute(rewardapp.GetBalanceQuery{OwnerID: p.ID, OwnerType: ownerType})
	if err != nil {
		logger := h.Logger
		if logger == nil {
			logger = logrus.StandardLogger()
		}
		respondError(c, logger.WithField("user_id", p.ID), "MyBalance", err)
		return
	}

	recent := make([]LedgerLine, 0, len(result.Recent))
	for _, l := range result.Recent {
		recent = append(recent, LedgerLine{
			Asset:        l.Asset,
			Amount:       l.Amount,
			BalanceAfter: l.BalanceAfter,
			Reason:       l.Reason,
			RelatedType:  l.RelatedType,
			RelatedID:    l.RelatedID,
			CreatedAt:    l.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, BalanceResponse{
		OwnerID: p.ID,
		Points:  result.Points,
		Cash:    result.Cash,
		Recent:  recent,
	})
}
