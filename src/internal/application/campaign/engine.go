package campaign

import (
	"context"
	"errors"
	"fmt"

	rewardapp "github.com/jackyeh168/quest_crm/src/internal/application/reward"
	"github.com/jackyeh168/quest_crm/src/internal/domain/campaign"
	"github.com/jackyeh168/quest_crm/src/internal/domain/reward"
	"github.com/jackyeh168/quest_crm/src/internal/domain/shared"
	"github.com/sirupsen/logrus"
)

// 帳本原因與關聯實體類型
const (
	ReasonCampaignBonus  = "campaign_bonus"
	ReasonShopPayout     = "campaign_discount_payout"
	RelatedCampaignOrder = "campaign_order"
	RelatedOrder         = "order"
)

// RewardCrediter 在調用者事務中入帳
type RewardCrediter interface {
	ExecuteWithContext(ctx shared.TransactionContext, cmd rewardapp.CreditCommand) (*rewardapp.CreditResult, error)
}

// Dependencies 活動 Use Case 的共用依賴
type Dependencies struct {
	CampaignRepo      campaign.Repository
	ParticipationRepo campaign.ParticipationRepository
	AppliedRepo       campaign.AppliedCampaignRepository
	CapacityGuard     campaign.CapacityGuard
	Owners            campaign.ShopOwnerResolver
	Crediter          RewardCrediter
	TxManager         shared.TransactionManager
	Clock             shared.Clock
	Calendar          shared.BusinessCalendar
	Logger            logrus.FieldLogger
}

func (d Dependencies) logger() logrus.FieldLogger {
	if d.Logger == nil {
		return logrus.StandardLogger()
	}
	return d.Logger
}

// ===========================
// CampaignEngine
// ===========================

// Engine 訂單完成時評估使用者參加的活動
//
// 每個活動使用獨立事務：一個活動失敗不影響其他活動的評估。
// 商店擁有者的折扣補貼也使用獨立事務。
type Engine struct {
	deps Dependencies
}

// NewEngine 創建 CampaignEngine
func NewEngine(deps Dependencies) *Engine {
	return &Engine{deps: deps}
}

// OnOrderCompleted 評估訂單並發放活動積分
//
// 流程：
// 1. 載入使用者所有活動參加記錄
// 2. 逐一在獨立事務中：活動進行中、同一商店、金額上限、類型限制（one_time / daily）
// 3. 寫入套用記錄（(order, campaign) 唯一）→ 更新參加記錄 → 入帳
// 4. 訂單帶有活動折扣時，支付商店擁有者等額積分
//
// 已套用、已完成、今日已完成視為略過而非錯誤。
// 其他錯誤在全部活動評估後以 errors.Join 返回；不影響訂單本身的完成。
func (e *Engine) OnOrderCompleted(ctx context.Context, order campaign.CompletedOrder) ([]campaign.AppliedCampaign, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}
	log := e.deps.logger().WithFields(logrus.Fields{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"shop_id":  order.ShopID,
	})

	participations, err := e.deps.ParticipationRepo.FindByUser(nil, order.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find campaign participations: %w", err)
	}

	applied := make([]campaign.AppliedCampaign, 0)
	var errs []error

	for _, p := range participations {
		result, err := e.applyCampaign(ctx, order, p.CampaignID())
		switch {
		case err == nil && result != nil:
			applied = append(applied, *result)
		case err == nil:
		case isSkip(err):
			log.WithField("campaign_id", p.CampaignID().String()).WithError(err).Debug("campaign skipped")
		default:
			log.WithField("campaign_id", p.CampaignID().String()).WithError(err).Error("failed to apply campaign")
			errs = append(errs, fmt.Errorf("campaign %s: %w", p.CampaignID().String(), err))
		}
	}

	if err := e.payShopOwner(ctx, order); err != nil {
		log.WithError(err).Error("failed to pay shop owner")
		errs = append(errs, fmt.Errorf("shop payout: %w", err))
	}

	return applied, errors.Join(errs...)
}

// applyCampaign 單一活動的評估與發放；不符合條件時返回 (nil, nil)
func (e *Engine) applyCampaign(ctx context.Context, order campaign.CompletedOrder, id campaign.CampaignID) (*campaign.AppliedCampaign, error) {
	now := e.deps.Clock.Now()
	var result *campaign.AppliedCampaign

	err := e.deps.TxManager.InTransaction(ctx, func(tx shared.TransactionContext) error {
		c, err := e.deps.CampaignRepo.FindByID(tx, id)
		if err != nil {
			return fmt.Errorf("failed to find campaign: %w", err)
		}
		if !c.IsRunning(now) || !c.Qualifies(order) {
			return nil
		}

		p, err := e.deps.ParticipationRepo.FindByCampaignAndUser(tx, id, order.UserID)
		if err != nil {
			return fmt.Errorf("failed to find campaign participation: %w", err)
		}
		if err := p.Eligible(c, e.deps.Calendar, now); err != nil {
			return err
		}

		points := c.PointsFor(order)
		record := campaign.AppliedCampaign{
			OrderID:       order.ID,
			CampaignID:    id,
			CampaignName:  c.Name(),
			PointsAwarded: points,
			AppliedAt:     now,
		}
		// 套用記錄的唯一索引是同一訂單重複觸發的閘門，必須先於任何累加
		if err := e.deps.AppliedRepo.Record(tx, record); err != nil {
			return err
		}
		if err := p.RecordCompletion(c, points, e.deps.Calendar, now); err != nil {
			return err
		}
		if err := e.deps.ParticipationRepo.Update(tx, p); err != nil {
			return fmt.Errorf("failed to update campaign participation: %w", err)
		}

		if points > 0 {
			key := fmt.Sprintf("campaign:%s:order:%s", id.String(), order.ID)
			_, err := e.deps.Crediter.ExecuteWithContext(tx, rewardapp.CreditCommand{
				OwnerID:        order.UserID,
				OwnerType:      reward.OwnerUser,
				Points:         points,
				Reason:         ReasonCampaignBonus,
				Related:        reward.RelatedEntity{Type: RelatedCampaignOrder, ID: order.ID},
				IdempotencyKey: key,
			})
			if err != nil {
				return fmt.Errorf("failed to credit campaign bonus: %w", err)
			}
		}

		result = &record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// payShopOwner 以積分支付訂單的活動折扣給商店擁有者（四捨五入）
func (e *Engine) payShopOwner(ctx context.Context, order campaign.CompletedOrder) error {
	if !order.HasCampaignDiscount() {
		return nil
	}
	points := reward.RoundToPoints(order.CampaignDiscount)
	if points <= 0 {
		return nil
	}

	err := e.deps.TxManager.InTransaction(ctx, func(tx shared.TransactionContext) error {
		ownerID, err := e.deps.Owners.OwnerOf(tx, order.ShopID)
		if err != nil {
			return fmt.Errorf("failed to resolve shop owner: %w", err)
		}
		_, err = e.deps.Crediter.ExecuteWithContext(tx, rewardapp.CreditCommand{
			OwnerID:        ownerID,
			OwnerType:      reward.OwnerShopOwner,
			Points:         points,
			Reason:         ReasonShopPayout,
			Related:        reward.RelatedEntity{Type: RelatedOrder, ID: order.ID},
			IdempotencyKey: fmt.Sprintf("order:%s:shop_payout", order.ID),
		})
		return err
	})
	if errors.Is(err, reward.ErrAlreadySettled) {
		return nil
	}
	return err
}

// isSkip 不符合發放條件（不視為失敗）
func isSkip(err error) bool {
	return errors.Is(err, campaign.ErrAlreadyApplied) ||
		errors.Is(err, campaign.ErrAlreadyCompleted) ||
		errors.Is(err, campaign.ErrAlreadyCompletedToday)
}
