package registry

import (
	"fmt"

	"github.com/jackyeh168/quest_crm/src/internal/infrastructure/persistence"
	campaignrepo "github.com/jackyeh168/quest_crm/src/internal/infrastructure/persistence/campaign"
	couponrepo "github.com/jackyeh168/quest_crm/src/internal/infrastructure/persistence/coupon"
	participationrepo "github.com/jackyeh168/quest_crm/src/internal/infrastructure/persistence/participation"
	questrepo "github.com/jackyeh168/quest_crm/src/internal/infrastructure/persistence/quest"
	rewardrepo "github.com/jackyeh168/quest_crm/src/internal/infrastructure/persistence/reward"
	settingsstore "github.com/jackyeh168/quest_crm/src/internal/infrastructure/settings"
	"gorm.io/gorm"
)

// Repositories 所有 GORM 倉儲（啟動時組裝一次）
type Repositories struct {
	Quests          *questrepo.QuestRepositoryImpl
	Participations  *participationrepo.UserQuestRepositoryImpl
	Accounts        *rewardrepo.AccountRepositoryImpl
	Ledger          *rewardrepo.LedgerRepositoryImpl
	Campaigns       *campaignrepo.CampaignRepositoryImpl
	CampaignMembers *campaignrepo.ParticipationRepositoryImpl
	AppliedOrders   *campaignrepo.AppliedCampaignRepositoryImpl
	ShopOwners      *campaignrepo.ShopOwnerResolverImpl
	Coupons         *couponrepo.OutboxIssuer
	TxManager       *persistence.GORMTransactionManager
}

// New 以同一個連線池建立所有倉儲
func New(db *gorm.DB) *Repositories {
	return &Repositories{
		Quests:          questrepo.NewQuestRepository(db),
		Participations:  participationrepo.NewUserQuestRepository(db),
		Accounts:        rewardrepo.NewAccountRepository(db),
		Ledger:          rewardrepo.NewLedgerRepository(db),
		Campaigns:       campaignrepo.NewCampaignRepository(db),
		CampaignMembers: campaignrepo.NewParticipationRepository(db),
		AppliedOrders:   campaignrepo.NewAppliedCampaignRepository(db),
		ShopOwners:      campaignrepo.NewShopOwnerResolver(db),
		Coupons:         couponrepo.NewOutboxIssuer(db),
		TxManager:       persistence.NewGORMTransactionManager(db),
	}
}

// Models 需要遷移的資料表模型
func Models() []interface{} {
	return []interface{}{
		&questrepo.QuestGORM{},
		&participationrepo.UserQuestGORM{},
		&participationrepo.ReviewGORM{},
		&rewardrepo.AccountGORM{},
		&rewardrepo.LedgerEntryGORM{},
		&campaignrepo.CampaignGORM{},
		&campaignrepo.ParticipationGORM{},
		&campaignrepo.AppliedCampaignGORM{},
		&campaignrepo.ShopGORM{},
		&couponrepo.CouponRequestGORM{},
		&settingsstore.SettingGORM{},
	}
}

// AutoMigrate 建立或更新所有資料表與索引
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
