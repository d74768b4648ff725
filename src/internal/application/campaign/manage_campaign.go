package campaign

import (
	"context"
	"fmt"
	"time"

	"github.com/jackyeh168/quest_crm/src/internal/domain/campaign"
	"github.com/jackyeh168/quest_crm/src/internal/domain/shared"
)

// ===========================
// JoinCampaign Use Case
// ===========================

// JoinCampaignCommand 參加活動命令
type JoinCampaignCommand struct {
	Principal  shared.Principal
	CampaignID string
}

// JoinCampaignResult 參加活動結果
type JoinCampaignResult struct {
	ParticipationID string
	CampaignID      string
	JoinedAt        time.Time
}

// JoinCampaignUseCase 參加活動（(campaign, user) 唯一，名額以條件遞增控制）
type JoinCampaignUseCase struct {
	deps Dependencies
}

// NewJoinCampaignUseCase 創建 Use Case 實例
func NewJoinCampaignUseCase(deps Dependencies) *JoinCampaignUseCase {
	return &JoinCampaignUseCase{deps: deps}
}

// Execute 執行參加活動
//
// 錯誤處理：
// - ErrCampaignNotFound / ErrCampaignNotActive
// - ErrAlreadyJoined: 唯一索引衝突
// - ErrCampaignFull: 名額已滿
func (uc *JoinCampaignUseCase) Execute(ctx context.Context, cmd JoinCampaignCommand) (*JoinCampaignResult, error) {
	id, err := campaign.CampaignIDFromString(cmd.CampaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse campaign ID: %w", err)
	}
	now := uc.deps.Clock.Now()

	var result *JoinCampaignResult
	err = uc.deps.TxManager.InTransaction(ctx, func(tx shared.TransactionContext) error {
		c, err := uc.deps.CampaignRepo.FindByID(tx, id)
		if err != nil {
			return fmt.Errorf("failed to find campaign: %w", err)
		}
		if err := c.CheckJoinable(now); err != nil {
			return err
		}

		p, err := campaign.NewParticipation(id, cmd.Principal.ID, now)
		if err != nil {
			return err
		}
		if err := uc.deps.ParticipationRepo.Save(tx, p); err != nil {
			return fmt.Errorf("failed to save campaign participation: %w", err)
		}
		if err := uc.deps.CapacityGuard.TryAdmit(tx, id); err != nil {
			return err
		}

		result = &JoinCampaignResult{
			ParticipationID: p.ID().String(),
			CampaignID:      id.String(),
			JoinedAt:        p.JoinedAt(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ===========================
// DeleteCampaign Use Case
// ===========================

// DeleteCampaignCommand 刪除活動命令
type DeleteCampaignCommand struct {
	CampaignID string
	// Hard 為 true 時刪除活動與所有參加記錄；否則僅標記刪除
	Hard bool
}

// DeleteCampaignUseCase 管理員刪除活動
type DeleteCampaignUseCase struct {
	deps Dependencies
}

// NewDeleteCampaignUseCase 創建 Use Case 實例
func NewDeleteCampaignUseCase(deps Dependencies) *DeleteCampaignUseCase {
	return &DeleteCampaignUseCase{deps: deps}
}

// Execute 執行刪除
func (uc *DeleteCampaignUseCase) Execute(ctx context.Context, cmd DeleteCampaignCommand) error {
	id, err := campaign.CampaignIDFromString(cmd.CampaignID)
	if err != nil {
		return fmt.Errorf("failed to parse campaign ID: %w", err)
	}

	return uc.deps.TxManager.InTransaction(ctx, func(tx shared.TransactionContext) error {
		c, err := uc.deps.CampaignRepo.FindByID(tx, id)
		if err != nil {
			return fmt.Errorf("failed to find campaign: %w", err)
		}
		if cmd.Hard {
			if err := uc.deps.CampaignRepo.HardDelete(tx, id); err != nil {
				return fmt.Errorf("failed to delete campaign: %w", err)
			}
			uc.deps.logger().WithField("campaign_id", id.String()).Info("campaign and participations deleted")
			return nil
		}

		c.SoftDelete(uc.deps.Clock.Now())
		if err := uc.deps.CampaignRepo.Update(tx, c); err != nil {
			return fmt.Errorf("failed to update campaign: %w", err)
		}
		return nil
	})
}
