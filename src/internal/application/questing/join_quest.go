package questing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackyeh168/quest_crm/src/internal/domain/participation"
	"github.com/jackyeh168/quest_crm/src/internal/domain/quest"
	"github.com/jackyeh168/quest_crm/src/internal/domain/shared"
)

// ===========================
// JoinQuest Use Case
// ===========================

// JoinQuestCommand 參加任務命令
type JoinQuestCommand struct {
	Principal shared.Principal
	QuestID   string
}

// JoinQuestResult 參加任務結果
type JoinQuestResult struct {
	ParticipationID string
	QuestID         string
	Status          participation.Status
	JoinedAt        time.Time
	// DailyReset 是否刪除了前一天的打卡完成記錄
	DailyReset bool
}

// JoinQuestUseCase 參加任務
//
// 單一事務內：
// 1. 檢查任務可參加（active、在期間內）
// 2. 既有記錄：每日重置或失敗/取消後重新參加時刪除（持有名額則釋放）
// 3. 插入新記錄（(user, quest) 唯一索引）
// 4. 條件遞增 currentParticipants；失敗時整個事務回滾（QuestFull）
type JoinQuestUseCase struct {
	deps Dependencies
}

// NewJoinQuestUseCase 創建 Use Case 實例
func NewJoinQuestUseCase(deps Dependencies) *JoinQuestUseCase {
	return &JoinQuestUseCase{deps: deps}
}

// Execute 執行參加任務
//
// 錯誤處理：
// - ErrQuestNotActive / ErrQuestNotFound
// - ErrQuestFull: 名額已滿（條件遞增失敗）
// - ErrAlreadyParticipating: 已有進行中記錄，或並發插入觸發唯一索引
// - ErrAlreadyCompletedToday: 打卡任務今天已完成
// - ErrAlreadyCompleted: 非打卡任務已完成
func (uc *JoinQuestUseCase) Execute(ctx context.Context, cmd JoinQuestCommand) (*JoinQuestResult, error) {
	questID, err := quest.QuestIDFromString(cmd.QuestID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse quest ID: %w", err)
	}
	if cmd.Principal.IsEmpty() {
		return nil, participation.ErrInvalidTransition.WithContext("reason", "principal is required")
	}

	now := uc.deps.Clock.Now()
	var result *JoinQuestResult

	err = uc.deps.TxManager.InTransaction(ctx, func(tx shared.TransactionContext) error {
		q, err := uc.deps.QuestRepo.FindByID(tx, questID)
		if err != nil {
			return fmt.Errorf("failed to find quest: %w", err)
		}
		if err := q.CheckJoinable(now); err != nil {
			return err
		}

		dailyReset, err := uc.clearPrevious(tx, cmd.Principal.ID, questID, now)
		if err != nil {
			return err
		}

		uq, err := participation.Join(cmd.Principal.ID, q, now)
		if err != nil {
			return err
		}
		if err := uc.deps.ParticipationRepo.Save(tx, uq); err != nil {
			return fmt.Errorf("failed to save participation: %w", err)
		}
		if err := uc.deps.CapacityGuard.TryAdmit(tx, questID); err != nil {
			return err
		}

		result = &JoinQuestResult{
			ParticipationID: uq.ID().String(),
			QuestID:         questID.String(),
			Status:          uq.Status(),
			JoinedAt:        uq.JoinedAt(),
			DailyReset:      dailyReset,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// clearPrevious 處理既有記錄；返回是否為打卡每日重置
func (uc *JoinQuestUseCase) clearPrevious(tx shared.TransactionContext, userID string, questID quest.QuestID, now time.Time) (bool, error) {
	existing, err := uc.deps.ParticipationRepo.FindByUserAndQuest(tx, userID, questID)
	if errors.Is(err, participation.ErrParticipationNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to find participation: %w", err)
	}

	if err := existing.CheckRejoin(uc.deps.Calendar, now); err != nil {
		return false, err
	}

	if err := uc.deps.ParticipationRepo.Delete(tx, existing); err != nil {
		return false, fmt.Errorf("failed to delete previous participation: %w", err)
	}
	if existing.Status().HoldsSlot() {
		if err := uc.deps.CapacityGuard.Release(tx, questID); err != nil {
			return false, fmt.Errorf("failed to release quest slot: %w", err)
		}
	}
	return existing.Status() == participation.StatusCompleted, nil
}
