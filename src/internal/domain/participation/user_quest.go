package participation

import (
	"strings"
	"time"

	"github.com/jackyeh168/quest_crm/src/internal/domain/quest"
	"github.com/jackyeh168/quest_crm/src/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Status 參加狀態
type Status string

const (
	StatusParticipating Status = "participating"
	StatusPending       Status = "pending"
	StatusCompleted     Status = "completed"
	StatusFailed        Status = "failed"
	StatusCancelled     Status = "cancelled"
)

// HoldsSlot 此狀態是否佔用任務名額（計入 currentParticipants）
func (s Status) HoldsSlot() bool {
	return s == StatusParticipating || s == StatusPending || s == StatusCompleted
}

// ParseStatus 解析參加狀態
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusParticipating, StatusPending, StatusCompleted, StatusFailed, StatusCancelled:
		return Status(s), nil
	}
	return "", ErrInvalidTransition.WithContext("reason", "unknown status", "value", s)
}

// Snapshot 參加時擷取的任務資訊（之後不隨任務變更而重算）
type Snapshot struct {
	QuestName    string
	ShopID       string
	QuestType    quest.QuestType
	Verification quest.VerificationMethod
	RewardAmount decimal.Decimal
	RewardPoints int64
	OneTime      bool
}

// ResetsDaily 完成記錄是否於隔日重置（打卡任務且非一次性）
func (s Snapshot) ResetsDaily() bool {
	return s.QuestType.IsCheckin() && !s.OneTime
}

// SnapshotOf 擷取任務快照
func SnapshotOf(q *quest.Quest) Snapshot {
	return Snapshot{
		QuestName:    q.Name(),
		ShopID:       q.ShopID(),
		QuestType:    q.Type(),
		Verification: q.Verification(),
		RewardAmount: q.RewardAmount(),
		RewardPoints: q.RewardPoints(),
		OneTime:      q.IsOneTime(),
	}
}

// ===========================
// UserQuest 聚合根
// ===========================

// UserQuest 使用者對單一任務的參加記錄
//
// 狀態機：
//
//	none → participating → completed
//	participating → pending → completed（人工審核）
//	participating | pending → failed | cancelled
//	completed → none（僅打卡任務，完成日早於今天時刪除重建）
//
// 每個 (user, quest) 只有一筆記錄，由儲存層唯一索引保證。
type UserQuest struct {
	id       ParticipationID
	userID   string
	questID  quest.QuestID
	snapshot Snapshot
	status   Status

	verificationData *shared.Document
	submissionData   *shared.Document
	reviews          []Review

	joinedAt    time.Time
	verifiedAt  *time.Time
	completedAt *time.Time

	// 樂觀鎖：更新時以載入時的 version 與 status 作為條件
	version         int
	persistedStatus Status

	events []shared.DomainEvent
}

// Join 建立新的參加記錄（status = participating）
func Join(userID string, q *quest.Quest, now time.Time) (*UserQuest, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidTransition.WithContext("reason", "user id is required")
	}
	return &UserQuest{
		id:               NewParticipationID(),
		userID:           userID,
		questID:          q.ID(),
		snapshot:         SnapshotOf(q),
		status:           StatusParticipating,
		verificationData: shared.NewDocument(),
		submissionData:   shared.NewDocument(),
		joinedAt:         now,
		persistedStatus:  StatusParticipating,
		events:           make([]shared.DomainEvent, 0),
	}, nil
}

// Reconstruct 參數
type Reconstruct struct {
	ID               ParticipationID
	UserID           string
	QuestID          quest.QuestID
	Snapshot         Snapshot
	Status           Status
	VerificationData *shared.Document
	SubmissionData   *shared.Document
	Reviews          []Review
	JoinedAt         time.Time
	VerifiedAt       *time.Time
	CompletedAt      *time.Time
	Version          int
}

// ReconstructUserQuest 從持久化存儲重建聚合根
func ReconstructUserQuest(r Reconstruct) (*UserQuest, error) {
	if r.ID.IsEmpty() {
		return nil, ErrInvalidParticipationID.WithContext("reason", "invalid participation ID in database")
	}
	if _, err := ParseStatus(string(r.Status)); err != nil {
		return nil, err
	}
	if r.Status == StatusCompleted && r.CompletedAt == nil {
		return nil, ErrCorruptedParticipation.WithContext(
			"participation_id", r.ID.String(),
			"reason", "completed record without completedAt",
		)
	}
	verification := r.VerificationData
	if verification == nil {
		verification = shared.NewDocument()
	}
	submission := r.SubmissionData
	if submission == nil {
		submission = shared.NewDocument()
	}
	return &UserQuest{
		id:               r.ID,
		userID:           r.UserID,
		questID:          r.QuestID,
		snapshot:         r.Snapshot,
		status:           r.Status,
		verificationData: verification,
		submissionData:   submission,
		reviews:          r.Reviews,
		joinedAt:         r.JoinedAt,
		verifiedAt:       r.VerifiedAt,
		completedAt:      r.CompletedAt,
		version:          r.Version,
		persistedStatus:  r.Status,
		events:           make([]shared.DomainEvent, 0),
	}, nil
}

// ===========================
// 查詢方法
// ===========================

func (uq *UserQuest) ID() ParticipationID                { return uq.id }
func (uq *UserQuest) UserID() string                     { return uq.userID }
func (uq *UserQuest) QuestID() quest.QuestID             { return uq.questID }
func (uq *UserQuest) Snapshot() Snapshot                 { return uq.snapshot }
func (uq *UserQuest) Status() Status                     { return uq.status }
func (uq *UserQuest) VerificationData() *shared.Document { return uq.verificationData }
func (uq *UserQuest) SubmissionData() *shared.Document   { return uq.submissionData }
func (uq *UserQuest) JoinedAt() time.Time                { return uq.joinedAt }
func (uq *UserQuest) VerifiedAt() *time.Time             { return uq.verifiedAt }
func (uq *UserQuest) CompletedAt() *time.Time            { return uq.completedAt }
func (uq *UserQuest) Version() int                       { return uq.version }
func (uq *UserQuest) PersistedStatus() Status            { return uq.persistedStatus }

// Reviews 返回評論副本
func (uq *UserQuest) Reviews() []Review {
	out := make([]Review, len(uq.reviews))
	copy(out, uq.reviews)
	return out
}

// CompletedOn 是否在 now 所屬的營業日完成
func (uq *UserQuest) CompletedOn(cal shared.BusinessCalendar, now time.Time) bool {
	return uq.status == StatusCompleted && uq.completedAt != nil && cal.SameDay(*uq.completedAt, now)
}

// ===========================
// 業務規則
// ===========================

// CheckRejoin 判斷既有記錄是否允許再次參加
//
// 返回 nil 表示調用者應刪除此記錄後重新建立：
// - 打卡任務（非一次性）且完成日早於今天（每日重置）
// - 記錄已失敗或已取消
//
// 錯誤：
// - ErrAlreadyParticipating：participating 或 pending
// - ErrAlreadyCompletedToday：打卡任務今天已完成
// - ErrAlreadyCompleted：非打卡或一次性任務已完成
func (uq *UserQuest) CheckRejoin(cal shared.BusinessCalendar, now time.Time) error {
	switch uq.status {
	case StatusParticipating, StatusPending:
		return ErrAlreadyParticipating.WithContext(
			"quest_id", uq.questID.String(),
			"status", string(uq.status),
		)
	case StatusCompleted:
		if !uq.snapshot.ResetsDaily() {
			return ErrAlreadyCompleted.WithContext("quest_id", uq.questID.String())
		}
		if !cal.BeforeDay(*uq.completedAt, now) {
			return ErrAlreadyCompletedToday.WithContext(
				"quest_id", uq.questID.String(),
				"completed_day", cal.Day(*uq.completedAt),
			)
		}
		return nil
	default:
		return nil
	}
}

// CheckCompletable 驗證前檢查記錄是否可由使用者完成
//
// 在任何外部驗證之前調用，避免對不可完成的記錄發出外部請求。
func (uq *UserQuest) CheckCompletable(cal shared.BusinessCalendar, now time.Time) error {
	switch uq.status {
	case StatusParticipating:
		return nil
	case StatusPending:
		return ErrAwaitingReview.WithContext("participation_id", uq.id.String())
	case StatusCompleted:
		if uq.snapshot.ResetsDaily() {
			if uq.CompletedOn(cal, now) {
				return ErrAlreadyCompletedToday.WithContext(
					"quest_id", uq.questID.String(),
					"completed_day", cal.Day(*uq.completedAt),
				)
			}
			return ErrNotParticipating.WithContext(
				"quest_id", uq.questID.String(),
				"reason", "join again for today's check-in",
			)
		}
		return ErrAlreadyCompleted.WithContext("quest_id", uq.questID.String())
	default:
		return ErrNotParticipating.WithContext(
			"quest_id", uq.questID.String(),
			"status", string(uq.status),
		)
	}
}

// ===========================
// 命令方法（狀態轉換）
// ===========================

// Complete 標記完成並保存驗證資料
//
// 前置狀態：participating；需人工審核的任務也接受 pending。
// 副作用：設定 verifiedAt、completedAt，發布 QuestCompletedEvent。
func (uq *UserQuest) Complete(evidence *shared.Document, now time.Time) error {
	switch uq.status {
	case StatusParticipating:
	case StatusPending:
		if !uq.isReviewFlow() {
			return uq.transitionError(StatusCompleted)
		}
	case StatusCompleted:
		return ErrAlreadyCompleted.WithContext("quest_id", uq.questID.String())
	default:
		return uq.transitionError(StatusCompleted)
	}

	uq.verificationData.Merge(evidence)
	uq.status = StatusCompleted
	verifiedAt := now
	completedAt := now
	uq.verifiedAt = &verifiedAt
	uq.completedAt = &completedAt
	uq.addEvent(NewQuestCompletedEvent(uq, now))
	return nil
}

// SubmitForReview 提交審核資料（participating → pending）
func (uq *UserQuest) SubmitForReview(submission *shared.Document, now time.Time) error {
	if uq.status == StatusPending {
		return ErrAwaitingReview.WithContext("participation_id", uq.id.String())
	}
	if uq.status != StatusParticipating {
		return uq.transitionError(StatusPending)
	}
	uq.submissionData.Merge(submission)
	uq.submissionData.Set("submittedAt", shared.StringValue(now.UTC().Format(time.RFC3339)))
	uq.status = StatusPending
	return nil
}

// Reject 審核不通過（participating | pending → failed）
func (uq *UserQuest) Reject(reason string, now time.Time) error {
	if uq.status != StatusPending && uq.status != StatusParticipating {
		return uq.transitionError(StatusFailed)
	}
	uq.verificationData.Set("rejectionReason", shared.StringValue(reason))
	uq.verificationData.Set("rejectedAt", shared.StringValue(now.UTC().Format(time.RFC3339)))
	uq.status = StatusFailed
	return nil
}

// Cancel 使用者放棄（participating | pending → cancelled）
func (uq *UserQuest) Cancel(now time.Time) error {
	if uq.status != StatusPending && uq.status != StatusParticipating {
		return uq.transitionError(StatusCancelled)
	}
	uq.submissionData.Set("cancelledAt", shared.StringValue(now.UTC().Format(time.RFC3339)))
	uq.status = StatusCancelled
	return nil
}

// AttachReviews 附加評論到提交資料
func (uq *UserQuest) AttachReviews(reviews []Review) error {
	if uq.snapshot.QuestType != quest.TypeProductReview {
		return ErrNotReviewQuest.WithContext("quest_type", string(uq.snapshot.QuestType))
	}
	if len(reviews) == 0 {
		return ErrInvalidReview.WithContext("reason", "at least one review is required")
	}
	if uq.status == StatusCompleted {
		return ErrAlreadyCompleted.WithContext("quest_id", uq.questID.String())
	}

	items := make([]shared.Value, 0, len(uq.reviews)+len(reviews))
	if existing, ok := uq.submissionData.Get("reviews"); ok {
		if arr, ok := existing.AsArray(); ok {
			items = append(items, arr...)
		}
	}
	for _, r := range reviews {
		items = append(items, shared.ObjectValue(r.Document()))
	}
	uq.submissionData.Set("reviews", shared.ArrayValue(items...))
	uq.reviews = append(uq.reviews, reviews...)
	return nil
}

// PullEvents 獲取所有待發布事件並清空列表
func (uq *UserQuest) PullEvents() []shared.DomainEvent {
	events := uq.events
	uq.events = make([]shared.DomainEvent, 0)
	return events
}

func (uq *UserQuest) addEvent(event shared.DomainEvent) {
	uq.events = append(uq.events, event)
}

func (uq *UserQuest) isReviewFlow() bool {
	return uq.snapshot.Verification.RequiresReview() || uq.snapshot.QuestType == quest.TypeProductReview
}

func (uq *UserQuest) transitionError(to Status) error {
	return ErrInvalidTransition.WithContext(
		"participation_id", uq.id.String(),
		"from", string(uq.status),
		"to", string(to),
	)
}
