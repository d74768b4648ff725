package catalog

import (
	"context"
	"fmt"

	"github.com/jackyeh168/quest_crm/src/internal/domain/quest"
	"github.com/jackyeh168/quest_crm/src/internal/domain/shared"
)

// ===========================
// CreateQuest Use Case
// ===========================

// CreateQuestCommand 建立任務命令
type CreateQuestCommand struct {
	Principal  shared.Principal
	Definition quest.Definition
}

// CreateQuestUseCase 建立任務
//
// 作者為呼叫者 ID；定義驗證（枚舉值、座標、日期）由 Domain Layer 負責。
type CreateQuestUseCase struct {
	questRepo quest.Repository
	txManager shared.TransactionManager
	clock     shared.Clock
}

// NewCreateQuestUseCase 創建 Use Case 實例
func NewCreateQuestUseCase(questRepo quest.Repository, txManager shared.TransactionManager, clock shared.Clock) *CreateQuestUseCase {
	return &CreateQuestUseCase{questRepo: questRepo, txManager: txManager, clock: clock}
}

// Execute 執行建立任務
func (uc *CreateQuestUseCase) Execute(ctx context.Context, cmd CreateQuestCommand) (*quest.Quest, error) {
	def := cmd.Definition
	def.CreatedBy = cmd.Principal.ID

	q, err := quest.NewQuest(def, uc.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to create quest: %w", err)
	}

	err = uc.txManager.InTransaction(ctx, func(tx shared.TransactionContext) error {
		if err := uc.questRepo.Save(tx, q); err != nil {
			return fmt.Errorf("failed to save quest: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return q, nil
}

// ===========================
// ManageQuest Use Case
// ===========================

// ManageQuestUseCase 變更任務狀態與軟刪除
//
// 有提交記錄的任務永遠只做軟刪除。
type ManageQuestUseCase struct {
	questRepo quest.Repository
	txManager shared.TransactionManager
	clock     shared.Clock
}

// NewManageQuestUseCase 創建 Use Case 實例
func NewManageQuestUseCase(questRepo quest.Repository, txManager shared.TransactionManager, clock shared.Clock) *ManageQuestUseCase {
	return &ManageQuestUseCase{questRepo: questRepo, txManager: txManager, clock: clock}
}

// SetStatus 變更任務狀態
func (uc *ManageQuestUseCase) SetStatus(ctx context.Context, id string, status quest.Status) (*quest.Quest, error) {
	return uc.mutate(ctx, id, func(q *quest.Quest) error {
		return q.ChangeStatus(status, uc.clock.Now())
	})
}

// SoftDelete 軟刪除任務
func (uc *ManageQuestUseCase) SoftDelete(ctx context.Context, id string) error {
	_, err := uc.mutate(ctx, id, func(q *quest.Quest) error {
		q.SoftDelete(uc.clock.Now())
		return nil
	})
	return err
}

func (uc *ManageQuestUseCase) mutate(ctx context.Context, id string, fn func(q *quest.Quest) error) (*quest.Quest, error) {
	questID, err := quest.QuestIDFromString(id)
	if err != nil {
		return nil, fmt.Errorf("failed to parse quest ID: %w", err)
	}

	var result *quest.Quest
	err = uc.txManager.InTransaction(ctx, func(tx shared.TransactionContext) error {
		q, err := uc.questRepo.FindByID(tx, questID)
		if err != nil {
			return fmt.Errorf("failed to find quest: %w", err)
		}
		if q.IsDeleted() {
			return quest.ErrQuestNotFound.WithContext("quest_id", id)
		}
		if err := fn(q); err != nil {
			return err
		}
		if err := uc.questRepo.Update(tx, q); err != nil {
			return fmt.Errorf("failed to update quest: %w", err)
		}
		result = q
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
