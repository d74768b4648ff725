package questing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jackyeh168/quest_crm/src/internal/domain/geo"
	"github.com/jackyeh168/quest_crm/src/internal/domain/participation"
	"github.com/jackyeh168/quest_crm/src/internal/domain/quest"
	"github.com/jackyeh168/quest_crm/src/internal/domain/shared"
	"github.com/jackyeh168/quest_crm/src/internal/domain/social"
	"github.com/shopspring/decimal"
)

// ===========================
// CompleteQuest Use Case
// ===========================

// Evidence 使用者提交的完成證據
type Evidence struct {
	// Location 使用者座標："lat,lng" 字串或 {lat, lng} 物件
	Location interface{}
	// SocialID / AccessToken 社群驗證使用
	SocialID    string
	AccessToken string
	// Since 社群貼文查詢起點（零值表示預設 7 天）
	Since time.Time
	// Data 其他自由格式資料（截圖網址、連結等）
	Data *shared.Document
}

// CompleteQuestCommand 完成任務命令
type CompleteQuestCommand struct {
	Principal shared.Principal
	QuestID   string
	Evidence  Evidence
}

// CompleteQuestResult 完成任務結果
type CompleteQuestResult struct {
	ParticipationID string
	Status          participation.Status
	PointsAwarded   int64
	CashAwarded     decimal.Decimal
	// Distance 地理驗證時的距離（公尺）
	Distance     *float64
	MatchedPosts []social.Post
}

// CompleteQuestUseCase 完成任務
//
// 流程：
// 1. 讀取任務與參加記錄，檢查可完成（不在事務中）
// 2. 人工審核任務：提交資料後轉為 pending，不發放獎勵
// 3. 其他任務：先驗證（地理圍欄 / 社群貼文），驗證失敗不修改任何狀態
// 4. 事務：重新讀取並鎖定記錄，再次檢查，完成 + 預算 + 入帳
// 5. 提交後發布 QuestCompletedEvent
type CompleteQuestUseCase struct {
	deps Dependencies
}

// NewCompleteQuestUseCase 創建 Use Case 實例
func NewCompleteQuestUseCase(deps Dependencies) *CompleteQuestUseCase {
	return &CompleteQuestUseCase{deps: deps}
}

// Execute 執行完成任務
//
// 錯誤處理：
// - ErrNotParticipating: 沒有進行中的記錄
// - ErrVerificationFailed: 距離過遠或找不到符合的貼文（帶 distance、radius 等上下文）
// - ErrAlreadyCompletedToday / ErrAlreadyCompleted
// - social.ErrPermissionMissing / ErrUnsupportedAccountType / ErrVerificationUnavailable
// - ErrBudgetExhausted: 現金預算不足
// - shared.ErrConcurrentModification: 同一記錄的並發完成
func (uc *CompleteQuestUseCase) Execute(ctx context.Context, cmd CompleteQuestCommand) (*CompleteQuestResult, error) {
	questID, err := quest.QuestIDFromString(cmd.QuestID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse quest ID: %w", err)
	}
	now := uc.deps.Clock.Now()

	q, err := uc.deps.QuestRepo.FindByID(nil, questID)
	if err != nil {
		return nil, fmt.Errorf("failed to find quest: %w", err)
	}
	uq, err := uc.findParticipation(nil, cmd.Principal.ID, questID)
	if err != nil {
		return nil, err
	}
	if err := uq.CheckCompletable(uc.deps.Calendar, now); err != nil {
		return nil, err
	}

	if q.Verification().RequiresReview() {
		return uc.submitForReview(ctx, cmd, questID, uq.ID(), now)
	}

	// 驗證在事務外執行，外部呼叫不佔用資料庫連線
	verified, err := uc.verify(ctx, q, cmd.Evidence, now)
	if err != nil {
		return nil, err
	}

	payout := uc.deps.payoutFor(ctx, uq.Snapshot())
	var events []shared.DomainEvent

	err = uc.deps.TxManager.InTransaction(ctx, func(tx shared.TransactionContext) error {
		locked, err := uc.findParticipation(tx, cmd.Principal.ID, questID)
		if err != nil {
			return err
		}
		if !locked.ID().Equals(uq.ID()) {
			return shared.ErrConcurrentModification.WithContext("participation_id", uq.ID().String())
		}
		if err := locked.CheckCompletable(uc.deps.Calendar, uc.deps.Clock.Now()); err != nil {
			return err
		}
		if err := locked.Complete(verified.evidence, now); err != nil {
			return err
		}
		if err := uc.deps.settle(tx, locked, payout); err != nil {
			return err
		}
		events = locked.PullEvents()
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.deps.publishAfterCommit(events)

	return &CompleteQuestResult{
		ParticipationID: uq.ID().String(),
		Status:          participation.StatusCompleted,
		PointsAwarded:   payout.Points,
		CashAwarded:     payout.Cash,
		Distance:        verified.distance,
		MatchedPosts:    verified.posts,
	}, nil
}

func (uc *CompleteQuestUseCase) findParticipation(tx shared.TransactionContext, userID string, questID quest.QuestID) (*participation.UserQuest, error) {
	uq, err := uc.deps.ParticipationRepo.FindByUserAndQuest(tx, userID, questID)
	if errors.Is(err, participation.ErrParticipationNotFound) {
		return nil, participation.ErrNotParticipating.WithContext("quest_id", questID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find participation: %w", err)
	}
	return uq, nil
}

// submitForReview participating → pending（等待管理員審核）
func (uc *CompleteQuestUseCase) submitForReview(
	ctx context.Context,
	cmd CompleteQuestCommand,
	questID quest.QuestID,
	expected participation.ParticipationID,
	now time.Time,
) (*CompleteQuestResult, error) {
	submission := cmd.Evidence.Data
	if submission == nil || submission.Len() == 0 {
		return nil, participation.ErrMissingEvidence.WithContext("reason", "submission data is required for review")
	}

	err := uc.deps.TxManager.InTransaction(ctx, func(tx shared.TransactionContext) error {
		uq, err := uc.findParticipation(tx, cmd.Principal.ID, questID)
		if err != nil {
			return err
		}
		if !uq.ID().Equals(expected) {
			return shared.ErrConcurrentModification.WithContext("participation_id", expected.String())
		}
		if err := uq.SubmitForReview(submission, now); err != nil {
			return err
		}
		if err := uc.deps.ParticipationRepo.Update(tx, uq); err != nil {
			return fmt.Errorf("failed to update participation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &CompleteQuestResult{
		ParticipationID: expected.String(),
		Status:          participation.StatusPending,
		CashAwarded:     decimal.Zero,
	}, nil
}

type verification struct {
	evidence *shared.Document
	distance *float64
	posts    []social.Post
}

// verify 依驗證方式檢查證據
func (uc *CompleteQuestUseCase) verify(ctx context.Context, q *quest.Quest, ev Evidence, now time.Time) (verification, error) {
	doc := shared.NewDocument().Merge(ev.Data)
	doc.Set("method", shared.StringValue(string(q.Verification())))

	switch {
	case q.Verification().RequiresGeofence():
		return uc.verifyLocation(q, ev, doc)
	case q.Verification().RequiresSocialProof():
		return uc.verifySocial(ctx, q, ev, doc)
	default:
		doc.Set("verifiedAt", shared.StringValue(now.UTC().Format(time.RFC3339)))
		return verification{evidence: doc}, nil
	}
}

func (uc *CompleteQuestUseCase) verifyLocation(q *quest.Quest, ev Evidence, doc *shared.Document) (verification, error) {
	if ev.Location == nil {
		return verification{}, participation.ErrMissingEvidence.WithContext("field", "location")
	}
	user, err := geo.ResolvePoint(ev.Location)
	if err != nil {
		return verification{}, err
	}
	target, radius, ok := q.Geofence()
	if !ok {
		return verification{}, quest.ErrInvalidQuestDefinition.WithContext(
			"quest_id", q.ID().String(),
			"reason", "quest has no coordinates",
		)
	}

	result := geo.VerifyLocation(user, target, radius)
	distance := math.Round(result.Distance*100) / 100
	if !result.IsValid {
		return verification{}, participation.ErrVerificationFailed.WithContext(
			"reason", "out_of_range",
			"distance", distance,
			"radius", radius,
		)
	}

	doc.Set("location", shared.ObjectValue(shared.NewDocument().
		Set("lat", shared.NumberValue(user.Lat)).
		Set("lng", shared.NumberValue(user.Lon))))
	doc.Set("distance", shared.NumberValue(distance))
	doc.Set("radius", shared.NumberValue(radius))
	return verification{evidence: doc, distance: &distance}, nil
}

func (uc *CompleteQuestUseCase) verifySocial(ctx context.Context, q *quest.Quest, ev Evidence, doc *shared.Document) (verification, error) {
	hashtags, placeHint := q.SocialRequirement()
	result, err := uc.deps.SocialVerifier.VerifyPost(ctx, social.Request{
		SocialID:      ev.SocialID,
		AccessToken:   ev.AccessToken,
		Hashtags:      hashtags,
		PlaceNameHint: placeHint,
		Since:         ev.Since,
	})
	if err != nil {
		return verification{}, err
	}
	if !result.Matched {
		return verification{}, participation.ErrVerificationFailed.WithContext(
			"reason", "no_matching_post",
			"required_hashtags", hashtags,
			"place_name", placeHint,
		)
	}

	ids := make([]shared.Value, 0, len(result.MatchedPosts))
	for _, post := range result.MatchedPosts {
		ids = append(ids, shared.StringValue(post.ID))
	}
	doc.Set("socialId", shared.StringValue(ev.SocialID))
	doc.Set("matchedPostIds", shared.ArrayValue(ids...))
	if permalink := result.MatchedPosts[0].Permalink; permalink != "" {
		doc.Set("permalink", shared.StringValue(permalink))
	}
	return verification{evidence: doc, posts: result.MatchedPosts}, nil
}
