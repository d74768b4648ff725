package questing

import (
	"context"

	rewardapp "github.com/jackyeh168/quest_crm/src/internal/application/reward"
	"github.com/jackyeh168/quest_crm/src/internal/domain/participation"
	"github.com/jackyeh168/quest_crm/src/internal/domain/quest"
	"github.com/jackyeh168/quest_crm/src/internal/domain/settings"
	"github.com/jackyeh168/quest_crm/src/internal/domain/shared"
	"github.com/jackyeh168/quest_crm/src/internal/domain/social"
	"github.com/sirupsen/logrus"
)

// RewardCrediter 在調用者事務中入帳（RewardSettlement）
type RewardCrediter interface {
	ExecuteWithContext(ctx shared.TransactionContext, cmd rewardapp.CreditCommand) (*rewardapp.CreditResult, error)
}

// SocialVerifier 社群貼文驗證
type SocialVerifier interface {
	VerifyPost(ctx context.Context, req social.Request) (social.Result, error)
}

// Dependencies 參加流程 Use Case 的共用依賴（啟動時組裝一次）
type Dependencies struct {
	QuestRepo         quest.Repository
	CapacityGuard     quest.CapacityGuard
	ParticipationRepo participation.Repository
	Crediter          RewardCrediter
	SocialVerifier    SocialVerifier
	Settings          settings.Store
	TxManager         shared.TransactionManager
	Publisher         shared.EventPublisher
	Clock             shared.Clock
	Calendar          shared.BusinessCalendar
	Logger            logrus.FieldLogger
}

func (d Dependencies) logger() logrus.FieldLogger {
	if d.Logger == nil {
		return logrus.StandardLogger()
	}
	return d.Logger
}

// publishAfterCommit 發布事務提交後的事件；發布失敗只記錄
func (d Dependencies) publishAfterCommit(events []shared.DomainEvent) {
	if d.Publisher == nil || len(events) == 0 {
		return
	}
	if err := d.Publisher.PublishBatch(events); err != nil {
		d.logger().WithError(err).WithField("event_count", len(events)).Warn("failed to publish domain events")
	}
}
