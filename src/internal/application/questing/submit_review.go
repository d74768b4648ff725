package questing

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackyeh168/quest_crm/src/internal/domain/participation"
	"github.com/jackyeh168/quest_crm/src/internal/domain/quest"
	"github.com/jackyeh168/quest_crm/src/internal/domain/shared"
)

// ===========================
// SubmitReview Use Case
// ===========================

// ReviewInput 單筆商品評論
type ReviewInput struct {
	MenuItemID   string
	MenuItemName string
	Rating       int
	Comment      string
}

// SubmitReviewCommand 提交評論命令
type SubmitReviewCommand struct {
	Principal shared.Principal
	QuestID   string
	Reviews   []ReviewInput
}

// SubmitReviewResult 提交評論結果
type SubmitReviewResult struct {
	ParticipationID string
	Status          participation.Status
	ReviewCount     int
	PointsAwarded   int64
}

// SubmitReviewUseCase 商品評論任務的完成路徑
//
// 沒有參加記錄時直接建立並佔用名額；已完成時拒絕。
// 評論寫入提交資料與評論表（供依商品查詢），記錄完成並入帳，全部在同一事務。
type SubmitReviewUseCase struct {
	deps Dependencies
}

// NewSubmitReviewUseCase 創建 Use Case 實例
func NewSubmitReviewUseCase(deps Dependencies) *SubmitReviewUseCase {
	return &SubmitReviewUseCase{deps: deps}
}

// Execute 執行提交評論
//
// 錯誤處理：
// - ErrNotReviewQuest: 任務類型不是 product_review
// - ErrInvalidReview: 評論內容無效
// - ErrQuestFull / ErrQuestNotActive
// - ErrAlreadyCompleted
func (uc *SubmitReviewUseCase) Execute(ctx context.Context, cmd SubmitReviewCommand) (*SubmitReviewResult, error) {
	questID, err := quest.QuestIDFromString(cmd.QuestID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse quest ID: %w", err)
	}
	if cmd.Principal.IsEmpty() {
		return nil, participation.ErrInvalidTransition.WithContext("reason", "principal is required")
	}
	now := uc.deps.Clock.Now()

	reviews := make([]participation.Review, 0, len(cmd.Reviews))
	for _, in := range cmd.Reviews {
		r, err := participation.NewReview(in.MenuItemID, in.MenuItemName, in.Rating, in.Comment, now)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, r)
	}
	if len(reviews) == 0 {
		return nil, participation.ErrInvalidReview.WithContext("reason", "at least one review is required")
	}

	var result *SubmitReviewResult
	var events []shared.DomainEvent

	err = uc.deps.TxManager.InTransaction(ctx, func(tx shared.TransactionContext) error {
		q, err := uc.deps.QuestRepo.FindByID(tx, questID)
		if err != nil {
			return fmt.Errorf("failed to find quest: %w", err)
		}
		if q.Type() != quest.TypeProductReview {
			return participation.ErrNotReviewQuest.WithContext("quest_type", string(q.Type()))
		}

		uq, err := uc.participationFor(tx, cmd.Principal.ID, q)
		if err != nil {
			return err
		}
		if err := uq.AttachReviews(reviews); err != nil {
			return err
		}
		if err := uc.deps.ParticipationRepo.AddReviews(tx, uq, reviews); err != nil {
			return fmt.Errorf("failed to save reviews: %w", err)
		}
		if err := uq.Complete(nil, now); err != nil {
			return err
		}

		payout := uc.deps.payoutFor(ctx, uq.Snapshot())
		if err := uc.deps.settle(tx, uq, payout); err != nil {
			return err
		}

		events = uq.PullEvents()
		result = &SubmitReviewResult{
			ParticipationID: uq.ID().String(),
			Status:          uq.Status(),
			ReviewCount:     len(uq.Reviews()),
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

// participationFor 取得可提交評論的記錄；沒有或已失敗/取消時建立新記錄並佔用名額
func (uc *SubmitReviewUseCase) participationFor(tx shared.TransactionContext, userID string, q *quest.Quest) (*participation.UserQuest, error) {
	now := uc.deps.Clock.Now()

	existing, err := uc.deps.ParticipationRepo.FindByUserAndQuest(tx, userID, q.ID())
	switch {
	case err == nil:
		switch existing.Status() {
		case participation.StatusParticipating, participation.StatusPending:
			return existing, nil
		case participation.StatusCompleted:
			return nil, participation.ErrAlreadyCompleted.WithContext("quest_id", q.ID().String())
		}
		if err := uc.deps.ParticipationRepo.Delete(tx, existing); err != nil {
			return nil, fmt.Errorf("failed to delete previous participation: %w", err)
		}
	case errors.Is(err, participation.ErrParticipationNotFound):
	default:
		return nil, fmt.Errorf("failed to find participation: %w", err)
	}

	if err := q.CheckJoinable(now); err != nil {
		return nil, err
	}
	uq, err := participation.Join(userID, q, now)
	if err != nil {
		return nil, err
	}
	if err := uc.deps.ParticipationRepo.Save(tx, uq); err != nil {
		return nil, fmt.Errorf("failed to save participation: %w", err)
	}
	if err := uc.deps.CapacityGuard.TryAdmit(tx, q.ID()); err != nil {
		return nil, err
	}
	return uq, nil
}
