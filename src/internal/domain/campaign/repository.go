package campaign

import "github.com/jackyeh168/quest_crm/src/internal/domain/shared"

// Repository 活動倉儲介面
type Repository interface {
	Save(ctx shared.TransactionContext, c *Campaign) error

	// FindByID 根據 ID 查找（包含已軟刪除的活動）
	// 錯誤：ErrCampaignNotFound
	FindByID(ctx shared.TransactionContext, id CampaignID) (*Campaign, error)

	// Update 更新定義、狀態與刪除旗標（不覆寫 currentParticipants）
	Update(ctx shared.TransactionContext, c *Campaign) error

	// HardDelete 刪除活動並串聯刪除所有參加記錄
	HardDelete(ctx shared.TransactionContext, id CampaignID) error
}

// ParticipationRepository 活動參加記錄倉儲介面
type ParticipationRepository interface {
	// Save 保存新記錄
	// 錯誤：ErrAlreadyJoined（(campaign, user) 唯一索引衝突）
	Save(ctx shared.TransactionContext, p *Participation) error

	// FindByID 錯誤：ErrParticipationNotFound
	FindByID(ctx shared.TransactionContext, id ParticipationID) (*Participation, error)

	// FindByUser 查找使用者所有活動參加記錄
	FindByUser(ctx shared.TransactionContext, userID string) ([]*Participation, error)

	// FindByCampaignAndUser 事務中會鎖定該列
	// 錯誤：ErrParticipationNotFound
	FindByCampaignAndUser(ctx shared.TransactionContext, campaignID CampaignID, userID string) (*Participation, error)

	// Update 以載入時的 version 為條件更新
	// 錯誤：shared.ErrConcurrentModification
	Update(ctx shared.TransactionContext, p *Participation) error
}

// AppliedCampaignRepository 訂單套用活動記錄
type AppliedCampaignRepository interface {
	// Record 寫入套用記錄
	// 錯誤：ErrAlreadyApplied（(order, campaign) 唯一索引衝突）
	Record(ctx shared.TransactionContext, applied AppliedCampaign) error

	FindByOrder(ctx shared.TransactionContext, orderID string) ([]AppliedCampaign, error)
}

// CapacityGuard 活動名額守衛
type CapacityGuard interface {
	// TryAdmit 條件遞增 currentParticipants
	// 錯誤：ErrCampaignFull
	TryAdmit(ctx shared.TransactionContext, id CampaignID) error
}

// ShopOwnerResolver 查詢商店擁有者（商店 CRUD 的讀取模型）
type ShopOwnerResolver interface {
	// OwnerOf 錯誤：ErrShopNotFound
	OwnerOf(ctx shared.TransactionContext, shopID string) (string, error)
}
