package participation_test

import (
	"testing"
	"time"

	"github.com/jackyeh168/quest_crm/src/internal/domain/geo"
	"github.com/jackyeh168/quest_crm/src/internal/domain/participation"
	"github.com/jackyeh168/quest_crm/src/internal/domain/quest"
	"github.com/jackyeh168/quest_crm/src/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	cal = shared.DefaultBusinessCalendar()
	// 2024-03-01 10:00 (UTC+7)
	dayOne = time.Date(2024, 3, 1, 3, 0, 0, 0, time.UTC)
	dayTwo = dayOne.Add(24 * time.Hour)
)

func newQuest(t *testing.T, modify func(d *quest.Definition)) *quest.Quest {
	t.Helper()
	def := quest.Definition{
		ShopID:       "shop-1",
		Name:         "Check in",
		Type:         quest.TypeLocationCheckin,
		Verification: quest.VerifyLocation,
		RewardAmount: decimal.NewFromInt(5),
		RewardPoints: 10,
		Location:     &geo.Point{Lat: 13.75, Lon: 100.50},
		RadiusMeters: 100,
		CreatedBy:    "partner-1",
	}
	if modify != nil {
		modify(&def)
	}
	q, err := quest.NewQuest(def, dayOne.Add(-time.Hour))
	require.NoError(t, err)
	return q
}

func TestJoin_CapturesSnapshot(t *testing.T) {
	q := newQuest(t, nil)

	uq, err := participation.Join("user-1", q, dayOne)

	require.NoError(t, err)
	assert.Equal(t, participation.StatusParticipating, uq.Status())
	assert.Equal(t, "Check in", uq.Snapshot().QuestName)
	assert.Equal(t, "shop-1", uq.Snapshot().ShopID)
	assert.True(t, uq.Snapshot().RewardAmount.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, int64(10), uq.Snapshot().RewardPoints)
	assert.Equal(t, dayOne, uq.JoinedAt())
	assert.True(t, uq.Status().HoldsSlot())
}

func TestJoin_RequiresUser(t *testing.T) {
	_, err := participation.Join(" ", newQuest(t, nil), dayOne)

	assert.ErrorIs(t, err, participation.ErrInvalidTransition)
}

func TestComplete_ParticipatingToCompleted_EmitsEvent(t *testing.T) {
	// Arrange
	uq, _ := participation.Join("user-1", newQuest(t, nil), dayOne)
	evidence := shared.NewDocument().Set("distance", shared.NumberValue(42))

	// Act
	err := uq.Complete(evidence, dayOne)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, participation.StatusCompleted, uq.Status())
	require.NotNil(t, uq.CompletedAt())
	require.NotNil(t, uq.VerifiedAt())
	assert.Equal(t, dayOne, *uq.CompletedAt())
	d, ok := uq.VerificationData().Get("distance")
	assert.True(t, ok)
	n, _ := d.AsNumber()
	assert.Equal(t, 42.0, n)

	events := uq.PullEvents()
	require.Len(t, events, 1)
	completed, ok := events[0].(*participation.QuestCompletedEvent)
	require.True(t, ok)
	assert.Equal(t, participation.EventTypeQuestCompleted, completed.EventType())
	assert.Equal(t, "user-1", completed.UserID())
	assert.True(t, completed.IsCheckin())
	assert.Empty(t, uq.PullEvents(), "事件只能取出一次")
}

func TestComplete_Twice_ReturnsAlreadyCompleted(t *testing.T) {
	uq, _ := participation.Join("user-1", newQuest(t, nil), dayOne)
	require.NoError(t, uq.Complete(nil, dayOne))

	err := uq.Complete(nil, dayOne)

	assert.ErrorIs(t, err, participation.ErrAlreadyCompleted)
}

func TestComplete_PendingOnlyForReviewFlow(t *testing.T) {
	reviewQuest := newQuest(t, func(d *quest.Definition) {
		d.Type = quest.TypeContentCreation
		d.Verification = quest.VerifyManualReview
	})
	uq, _ := participation.Join("user-1", reviewQuest, dayOne)
	require.NoError(t, uq.SubmitForReview(shared.NewDocument().Set("url", shared.StringValue("https://x")), dayOne))
	assert.Equal(t, participation.StatusPending, uq.Status())

	require.NoError(t, uq.Complete(nil, dayOne))
	assert.Equal(t, participation.StatusCompleted, uq.Status())
}

func TestSubmitForReview_AlreadyPending(t *testing.T) {
	uq, _ := participation.Join("user-1", newQuest(t, nil), dayOne)
	require.NoError(t, uq.SubmitForReview(nil, dayOne))

	err := uq.SubmitForReview(nil, dayOne)

	assert.ErrorIs(t, err, participation.ErrAwaitingReview)
}

func TestRejectAndCancel(t *testing.T) {
	uq, _ := participation.Join("user-1", newQuest(t, nil), dayOne)
	require.NoError(t, uq.SubmitForReview(nil, dayOne))

	require.NoError(t, uq.Reject("blurry photo", dayOne))
	assert.Equal(t, participation.StatusFailed, uq.Status())
	assert.False(t, uq.Status().HoldsSlot())
	reason, _ := uq.VerificationData().Get("rejectionReason")
	s, _ := reason.AsString()
	assert.Equal(t, "blurry photo", s)

	assert.ErrorIs(t, uq.Cancel(dayOne), participation.ErrInvalidTransition)

	other, _ := participation.Join("user-2", newQuest(t, nil), dayOne)
	require.NoError(t, other.Cancel(dayOne))
	assert.Equal(t, participation.StatusCancelled, other.Status())
	assert.ErrorIs(t, other.Complete(nil, dayOne), participation.ErrInvalidTransition)
}

func TestCheckRejoin(t *testing.T) {
	checkin := newQuest(t, nil)
	oneTimeCheckin := newQuest(t, func(d *quest.Definition) { d.OneTime = true })
	social := newQuest(t, func(d *quest.Definition) {
		d.Type = quest.TypeSocialMedia
		d.Verification = quest.VerifyLinkClick
	})

	completedOn := func(q *quest.Quest, at time.Time) *participation.UserQuest {
		uq, _ := participation.Join("user-1", q, at)
		require.NoError(t, uq.Complete(nil, at))
		return uq
	}

	tests := []struct {
		name string
		uq   *participation.UserQuest
		now  time.Time
		want error
	}{
		{"打卡任務今天已完成", completedOn(checkin, dayOne), dayOne.Add(time.Hour), participation.ErrAlreadyCompletedToday},
		{"打卡任務昨天完成可重置", completedOn(checkin, dayOne), dayTwo, nil},
		{"一次性打卡任務不重置", completedOn(oneTimeCheckin, dayOne), dayTwo, participation.ErrAlreadyCompleted},
		{"非打卡任務已完成", completedOn(social, dayOne), dayTwo, participation.ErrAlreadyCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.uq.CheckRejoin(cal, tt.now)
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}

	participating, _ := participation.Join("user-1", checkin, dayOne)
	assert.ErrorIs(t, participating.CheckRejoin(cal, dayOne), participation.ErrAlreadyParticipating)

	cancelled, _ := participation.Join("user-1", checkin, dayOne)
	require.NoError(t, cancelled.Cancel(dayOne))
	assert.NoError(t, cancelled.CheckRejoin(cal, dayOne))
}

func TestCheckRejoin_UsesBusinessDayBoundary(t *testing.T) {
	// 23:30 (UTC+7) 完成，00:30 (UTC+7) 已是隔日
	completedAt := time.Date(2024, 3, 1, 16, 30, 0, 0, time.UTC)
	uq, _ := participation.Join("user-1", newQuest(t, nil), completedAt)
	require.NoError(t, uq.Complete(nil, completedAt))

	assert.NoError(t, uq.CheckRejoin(cal, completedAt.Add(time.Hour)))
	assert.ErrorIs(t, uq.CheckRejoin(cal, completedAt.Add(20*time.Minute)), participation.ErrAlreadyCompletedToday)
}

func TestCheckCompletable(t *testing.T) {
	checkin := newQuest(t, nil)

	participating, _ := participation.Join("user-1", checkin, dayOne)
	assert.NoError(t, participating.CheckCompletable(cal, dayOne))

	done, _ := participation.Join("user-1", checkin, dayOne)
	require.NoError(t, done.Complete(nil, dayOne))
	assert.ErrorIs(t, done.CheckCompletable(cal, dayOne), participation.ErrAlreadyCompletedToday)
	assert.ErrorIs(t, done.CheckCompletable(cal, dayTwo), participation.ErrNotParticipating)

	pending, _ := participation.Join("user-1", checkin, dayOne)
	require.NoError(t, pending.SubmitForReview(nil, dayOne))
	assert.ErrorIs(t, pending.CheckCompletable(cal, dayOne), participation.ErrAwaitingReview)

	failed, _ := participation.Join("user-1", checkin, dayOne)
	require.NoError(t, failed.Reject("no", dayOne))
	assert.ErrorIs(t, failed.CheckCompletable(cal, dayOne), participation.ErrNotParticipating)
}

func TestAttachReviews(t *testing.T) {
	reviewQuest := newQuest(t, func(d *quest.Definition) {
		d.Type = quest.TypeProductReview
		d.Verification = quest.VerifyManualReview
	})
	uq, _ := participation.Join("user-1", reviewQuest, dayOne)
	r1, err := participation.NewReview(" Pad-Thai ", "Pad Thai", 5, "great", dayOne)
	require.NoError(t, err)
	r2, err := participation.NewReview("TOM YUM", "", 4, "", dayOne)
	require.NoError(t, err)

	require.NoError(t, uq.AttachReviews([]participation.Review{r1}))
	require.NoError(t, uq.AttachReviews([]participation.Review{r2}))

	assert.Len(t, uq.Reviews(), 2)
	raw, ok := uq.SubmissionData().Get("reviews")
	require.True(t, ok)
	items, _ := raw.AsArray()
	assert.Len(t, items, 2)
}

func TestAttachReviews_Rules(t *testing.T) {
	r, _ := participation.NewReview("item", "", 3, "", dayOne)

	nonReview, _ := participation.Join("user-1", newQuest(t, nil), dayOne)
	assert.ErrorIs(t, nonReview.AttachReviews([]participation.Review{r}), participation.ErrNotReviewQuest)

	reviewQuest := newQuest(t, func(d *quest.Definition) {
		d.Type = quest.TypeProductReview
		d.Verification = quest.VerifyManualReview
	})
	uq, _ := participation.Join("user-1", reviewQuest, dayOne)
	assert.ErrorIs(t, uq.AttachReviews(nil), participation.ErrInvalidReview)

	require.NoError(t, uq.Complete(nil, dayOne))
	assert.ErrorIs(t, uq.AttachReviews([]participation.Review{r}), participation.ErrAlreadyCompleted)
}

func TestNewReview_Validation(t *testing.T) {
	_, err := participation.NewReview(" ", "", 3, "", dayOne)
	assert.ErrorIs(t, err, participation.ErrInvalidReview)

	_, err = participation.NewReview("x", "", 0, "", dayOne)
	assert.ErrorIs(t, err, participation.ErrInvalidReview)

	_, err = participation.NewReview("x", "", 6, "", dayOne)
	assert.ErrorIs(t, err, participation.ErrInvalidReview)
}

func TestReview_MatchesMenuItem(t *testing.T) {
	r, _ := participation.NewReview("Pad Thai 01", "", 5, "", dayOne)

	assert.True(t, r.MatchesMenuItem("padthai01"))
	assert.True(t, r.MatchesMenuItem("  PAD  THAI 01 "))
	assert.False(t, r.MatchesMenuItem("pad thai 02"))
	assert.Equal(t, "padthai01", participation.NormalizeMenuItemID("Pad\tThai 01"))
}

func TestReconstructUserQuest_CompletedWithoutTimestamp(t *testing.T) {
	_, err := participation.ReconstructUserQuest(participation.Reconstruct{
		ID:     participation.NewParticipationID(),
		UserID: "user-1",
		Status: participation.StatusCompleted,
	})

	assert.ErrorIs(t, err, participation.ErrCorruptedParticipation)
	assert.Equal(t, shared.KindInvariantViolation, shared.KindOf(err))
}
