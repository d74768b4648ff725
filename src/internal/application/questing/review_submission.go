package questing

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackyeh168/quest_crm/src/internal/domain/participation"
	"github.com/jackyeh168/quest_crm/src/internal/domain/quest"
	"github.com/jackyeh168/quest_crm/src/internal/domain/shared"
)

// ===========================
// ReviewSubmission Use Case（管理員審核）
// ===========================

// DecisionCommand 審核命令
type DecisionCommand struct {
	Reviewer        shared.Principal
	ParticipationID string
	Reason          string
}

// DecisionResult 審核結果
type DecisionResult struct {
	ParticipationID string
	Status          participation.Status
	PointsAwarded   int64
}

// ReviewSubmissionUseCase 審核 pending 記錄
//
// - Approve: pending → completed，並入帳
// - Reject: pending → failed，釋放名額
type ReviewSubmissionUseCase struct {
	deps Dependencies
}

// NewReviewSubmissionUseCase 創建 Use Case 實例
func NewReviewSubmissionUseCase(deps Dependencies) *ReviewSubmissionUseCase {
	return &ReviewSubmissionUseCase{deps: deps}
}

// Approve 核准
func (uc *ReviewSubmissionUseCase) Approve(ctx context.Context, cmd DecisionCommand) (*DecisionResult, error) {
	id, err := participation.ParticipationIDFromString(cmd.ParticipationID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse participation ID: %w", err)
	}
	now := uc.deps.Clock.Now()

	var result *DecisionResult
	var events []shared.DomainEvent

	err = uc.deps.TxManager.InTransaction(ctx, func(tx shared.TransactionContext) error {
		uq, err := uc.deps.ParticipationRepo.FindByID(tx, id)
		if err != nil {
			return fmt.Errorf("failed to find participation: %w", err)
		}
		if uq.Status() != participation.StatusPending {
			return participation.ErrInvalidTransition.WithContext(
				"participation_id", id.String(),
				"from", string(uq.Status()),
				"to", string(participation.StatusCompleted),
			)
		}

		decision := shared.NewDocument().
			Set("reviewedBy", shared.StringValue(cmd.Reviewer.ID)).
			Set("decision", shared.StringValue("approved"))
		if err := uq.Complete(decision, now); err != nil {
			return err
		}

		payout := uc.deps.payoutFor(ctx, uq.Snapshot())
		if err := uc.deps.settle(tx, uq, payout); err != nil {
			return err
		}

		events = uq.PullEvents()
		result = &DecisionResult{
			ParticipationID: id.String(),
			Status:          uq.Status(),
			PointsAwarded:   payout.Points,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.deps.publishAfterCommit(events)
	return result, nil
}

// Reject 駁回
func (uc *ReviewSubmissionUseCase) Reject(ctx context.Context, cmd DecisionCommand) (*DecisionResult, error) {
	id, err := participation.ParticipationIDFromString(cmd.ParticipationID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse participation ID: %w", err)
	}
	reason := strings.TrimSpace(cmd.Reason)
	if reason == "" {
		reason = "rejected by reviewer"
	}
	now := uc.deps.Clock.Now()

	var result *DecisionResult
	err = uc.deps.TxManager.InTransaction(ctx, func(tx shared.TransactionContext) error {
		uq, err := uc.deps.ParticipationRepo.FindByID(tx, id)
		if err != nil {
			return fmt.Errorf("failed to find participation: %w", err)
		}
		if uq.Status() != participation.StatusPending {
			return participation.ErrInvalidTransition.WithContext(
				"participation_id", id.String(),
				"from", string(uq.Status()),
				"to", string(participation.StatusFailed),
			)
		}
		if err := uq.Reject(reason, now); err != nil {
			return err
		}
		uq.VerificationData().Set("reviewedBy", shared.StringValue(cmd.Reviewer.ID))

		if err := releaseSlot(tx, uc.deps, uq); err != nil {
			return err
		}
		result = &DecisionResult{ParticipationID: id.String(), Status: uq.Status()}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// releaseSlot 保存終止狀態並釋放名額
func releaseSlot(tx shared.TransactionContext, deps Dependencies, uq *participation.UserQuest) error {
	if err := deps.ParticipationRepo.Update(tx, uq); err != nil {
		return fmt.Errorf("failed to update participation: %w", err)
	}
	if err := deps.CapacityGuard.Release(tx, uq.QuestID()); err != nil {
		return fmt.Errorf("failed to release quest slot: %w", err)
	}
	return nil
}

// ===========================
// CancelParticipation Use Case
// ===========================

// CancelCommand 放棄任務命令
type CancelCommand struct {
	Principal shared.Principal
	QuestID   string
}

// CancelParticipationUseCase 使用者放棄進行中的任務（participating | pending → cancelled）
type CancelParticipationUseCase struct {
	deps Dependencies
}

// NewCancelParticipationUseCase 創建 Use Case 實例
func NewCancelParticipationUseCase(deps Dependencies) *CancelParticipationUseCase {
	return &CancelParticipationUseCase{deps: deps}
}

// Execute 執行放棄
func (uc *CancelParticipationUseCase) Execute(ctx context.Context, cmd CancelCommand) error {
	questID, err := quest.QuestIDFromString(cmd.QuestID)
	if err != nil {
		return fmt.Errorf("failed to parse quest ID: %w", err)
	}
	now := uc.deps.Clock.Now()

	return uc.deps.TxManager.InTransaction(ctx, func(tx shared.TransactionContext) error {
		uq, err := uc.deps.ParticipationRepo.FindByUserAndQuest(tx, cmd.Principal.ID, questID)
		if err != nil {
			return fmt.Errorf("failed to find participation: %w", err)
		}
		if err := uq.Cancel(now); err != nil {
			return err
		}
		return releaseSlot(tx, uc.deps, uq)
	})
}

// ===========================
// ReviewsByMenuItem Query
// ===========================

// ReviewsByMenuItemQuery 依商品查詢評論
type ReviewsByMenuItemQuery struct {
	// QuestID 為空時查詢所有任務
	QuestID    string
	MenuItemID string
}

// ReviewsByMenuItemUseCase 依商品 ID 查詢評論（忽略大小寫與空白）
type ReviewsByMenuItemUseCase struct {
	participationRepo participation.Repository
}

// NewReviewsByMenuItemUseCase 創建 Use Case 實例
func NewReviewsByMenuItemUseCase(repo participation.Repository) *ReviewsByMenuItemUseCase {
	return &ReviewsByMenuItemUseCase{participationRepo: repo}
}

// Execute 執行查詢
func (uc *ReviewsByMenuItemUseCase) Execute(query ReviewsByMenuItemQuery) ([]participation.ReviewRecord, error) {
	if participation.NormalizeMenuItemID(query.MenuItemID) == "" {
		return nil, participation.ErrInvalidReview.WithContext("field", "menuItemId")
	}

	var questID *quest.QuestID
	if strings.TrimSpace(query.QuestID) != "" {
		id, err := quest.QuestIDFromString(query.QuestID)
		if err != nil {
			return nil, fmt.Errorf("failed to parse quest ID: %w", err)
		}
		questID = &id
	}

	records, err := uc.participationRepo.FindReviewsByMenuItem(nil, questID, query.MenuItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to find reviews: %w", err)
	}
	return records, nil
}
