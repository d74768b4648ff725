package checkin

import (
	"context"
	"fmt"
	"time"

	"github.com/jackyeh168/quest_crm/src/internal/domain/coupon"
	"github.com/jackyeh168/quest_crm/src/internal/domain/participation"
	"github.com/jackyeh168/quest_crm/src/internal/domain/settings"
	"github.com/jackyeh168/quest_crm/src/internal/domain/shared"
	"github.com/sirupsen/logrus"
)

// DefaultHandleTimeout 單一事件處理的時間上限
const DefaultHandleTimeout = 10 * time.Second

// CouponHandler 每日首次打卡時自動發放優惠券
//
// 訂閱 participation.quest_completed；只在事務提交後由事件匯流排非同步調用。
// 任何失敗只記錄，不影響已完成的打卡。
//
// 「當日首次」由 outbox 的 (source, reference_id) 唯一索引決定：
// 來源鍵為使用者 + 打卡完成的營業日，同一天的其他打卡寫入時被忽略。
type CouponHandler struct {
	settings settings.Store
	issuer   coupon.Issuer
	clock    shared.Clock
	calendar shared.BusinessCalendar
	logger   logrus.FieldLogger
	timeout  time.Duration
}

// NewCouponHandler 創建處理器
func NewCouponHandler(
	settingsStore settings.Store,
	issuer coupon.Issuer,
	clock shared.Clock,
	calendar shared.BusinessCalendar,
	logger logrus.FieldLogger,
) *CouponHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &CouponHandler{
		settings: settingsStore,
		issuer:   issuer,
		clock:    clock,
		calendar: calendar,
		logger:   logger,
		timeout:  DefaultHandleTimeout,
	}
}

// EventType 實現 EventHandler 介面
func (h *CouponHandler) EventType() string {
	return participation.EventTypeQuestCompleted
}

// Handle 實現 EventHandler 介面
//
// 錯誤只記錄並返回 nil，事件匯流排不重試。
func (h *CouponHandler) Handle(event shared.DomainEvent) error {
	completed, ok := event.(*participation.QuestCompletedEvent)
	if !ok || !completed.IsCheckin() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	log := h.logger.WithFields(logrus.Fields{
		"participation_id": completed.ParticipationID().String(),
		"user_id":          completed.UserID(),
		"shop_id":          completed.ShopID(),
	})

	issued, err := h.issueIfFirstToday(ctx, completed)
	if err != nil {
		log.WithError(err).Warn("failed to issue check-in coupon")
		return nil
	}
	if issued {
		log.Info("check-in coupon issued")
	}
	return nil
}

func (h *CouponHandler) issueIfFirstToday(ctx context.Context, event *participation.QuestCompletedEvent) (bool, error) {
	s, err := settings.Load(ctx, h.settings)
	if err != nil {
		return false, fmt.Errorf("failed to load quest settings: %w", err)
	}
	if !s.AutoCouponEnabled {
		return false, nil
	}
	if event.ShopID() == "" {
		// 觀光景點任務沒有商店可發放優惠券
		return false, nil
	}

	issued, err := h.issuer.Issue(ctx, coupon.IssueRequest{
		UserID:          event.UserID(),
		ShopID:          event.ShopID(),
		DiscountPercent: s.CouponDiscountPercent,
		ExpiresAt:       h.clock.Now().AddDate(0, 0, s.CouponExpiryDays),
		Source:          coupon.SourceCheckin,
		ReferenceID:     coupon.DailyCheckinReference(event.UserID(), h.calendar.Day(event.OccurredAt())),
	})
	if err != nil {
		return false, fmt.Errorf("failed to issue coupon: %w", err)
	}
	return issued, nil
}
