package questing

import (
	"context"
	"fmt"

	rewardapp "github.com/jackyeh168/quest_crm/src/internal/application/reward"
	"github.com/jackyeh168/quest_crm/src/internal/domain/participation"
	"github.com/jackyeh168/quest_crm/src/internal/domain/reward"
	"github.com/jackyeh168/quest_crm/src/internal/domain/settings"
	"github.com/jackyeh168/quest_crm/src/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ReasonQuestCompleted 任務完成的帳本原因
const ReasonQuestCompleted = "quest_completed"

// RelatedQuestParticipation 帳本關聯實體類型
const RelatedQuestParticipation = "quest_participation"

// Payout 一次完成發放的獎勵
type Payout struct {
	Points int64
	Cash   decimal.Decimal
}

// payoutFor 依參加時的快照計算獎勵
//
// 打卡任務未設定積分時使用設定值 checkin_points。
func (d Dependencies) payoutFor(ctx context.Context, snap participation.Snapshot) Payout {
	points := snap.RewardPoints
	if snap.QuestType.IsCheckin() && points <= 0 {
		points = settings.DefaultCheckinPoints
		if d.Settings != nil {
			s, err := settings.Load(ctx, d.Settings)
			if err != nil {
				d.logger().WithError(err).Warn("failed to load quest settings, using defaults")
			}
			points = s.CheckinPoints
		}
	}
	return Payout{Points: points, Cash: snap.RewardAmount}
}

// settle 完成狀態轉換的持久化與入帳（同一事務）
//
// 執行順序：
// 1. 以 version + status 為條件更新參加記錄（同一週期只有一個請求能成功）
// 2. 預算條件扣除（現金獎勵）
// 3. RewardSettlement 入帳，冪等鍵為參加記錄 ID
func (d Dependencies) settle(tx shared.TransactionContext, uq *participation.UserQuest, payout Payout) error {
	if err := d.ParticipationRepo.Update(tx, uq); err != nil {
		return fmt.Errorf("failed to update participation: %w", err)
	}

	if payout.Cash.IsPositive() {
		if err := d.CapacityGuard.TrySpend(tx, uq.QuestID(), payout.Cash); err != nil {
			return fmt.Errorf("failed to reserve quest budget: %w", err)
		}
	}

	if payout.Points <= 0 && !payout.Cash.IsPositive() {
		return nil
	}

	_, err := d.Crediter.ExecuteWithContext(tx, rewardapp.CreditCommand{
		OwnerID:        uq.UserID(),
		OwnerType:      reward.OwnerUser,
		Points:         payout.Points,
		Cash:           payout.Cash,
		Reason:         ReasonQuestCompleted,
		Related:        reward.RelatedEntity{Type: RelatedQuestParticipation, ID: uq.ID().String()},
		IdempotencyKey: uq.ID().String(),
	})
	if err != nil {
		return fmt.Errorf("failed to credit reward: %w", err)
	}
	return nil
}
