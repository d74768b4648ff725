package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackyeh168/quest_crm/src/internal/domain/quest"
	"github.com/jackyeh168/quest_crm/src/internal/domain/shared"
	"golang.org/x/sync/singleflight"
)

// ===========================
// QuestCatalog
// ===========================

// QuestCatalog 任務定義的讀取入口
//
// 職責：
// - 依 ID 與商店查詢任務
// - 觀光景點任務的冪等建立（同一景點只會有一筆 active 任務）
type QuestCatalog struct {
	questRepo quest.Repository
	txManager shared.TransactionManager
	clock     shared.Clock

	// 同一程序內相同景點的並發首次造訪合併為一次建立
	touristGroup singleflight.Group
}

// NewQuestCatalog 創建 QuestCatalog
func NewQuestCatalog(questRepo quest.Repository, txManager shared.TransactionManager, clock shared.Clock) *QuestCatalog {
	return &QuestCatalog{
		questRepo: questRepo,
		txManager: txManager,
		clock:     clock,
	}
}

// Get 查詢任務
//
// 錯誤：ErrInvalidQuestID、ErrQuestNotFound
func (c *QuestCatalog) Get(ctx context.Context, id string) (*quest.Quest, error) {
	questID, err := quest.QuestIDFromString(id)
	if err != nil {
		return nil, fmt.Errorf("failed to parse quest ID: %w", err)
	}
	q, err := c.questRepo.FindByID(nil, questID)
	if err != nil {
		return nil, fmt.Errorf("failed to find quest: %w", err)
	}
	if q.IsDeleted() {
		return nil, quest.ErrQuestNotFound.WithContext("quest_id", id)
	}
	return q, nil
}

// FindActiveForShop 查詢商店在 now 可參加的任務
//
// now 為零值時使用目前時間。
func (c *QuestCatalog) FindActiveForShop(ctx context.Context, shopID string, now time.Time) ([]*quest.Quest, error) {
	if now.IsZero() {
		now = c.clock.Now()
	}
	quests, err := c.questRepo.FindActiveByShop(nil, shopID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to find active quests: %w", err)
	}
	return quests, nil
}

// FindOrCreateTouristQuest 返回景點唯一的任務，不存在時以系統身分建立
//
// 並發安全：
// - 程序內：singleflight 合併相同景點的請求
// - 跨程序：景點 active 任務的部分唯一索引 + ON CONFLICT DO NOTHING，插入後重新讀取
//
// 已刪除或暫停的舊任務不算數，會建立新的 active 任務。
func (c *QuestCatalog) FindOrCreateTouristQuest(ctx context.Context, attraction quest.TouristAttraction) (*quest.Quest, error) {
	v, err, _ := c.touristGroup.Do(attraction.ID, func() (interface{}, error) {
		existing, err := c.questRepo.FindByTouristAttraction(nil, attraction.ID)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, quest.ErrQuestNotFound) {
			return nil, fmt.Errorf("failed to find tourist quest: %w", err)
		}

		q, err := quest.NewTouristQuest(attraction, c.clock.Now())
		if err != nil {
			return nil, fmt.Errorf("failed to build tourist quest: %w", err)
		}

		var result *quest.Quest
		err = c.txManager.InTransaction(ctx, func(tx shared.TransactionContext) error {
			saved, err := c.questRepo.SaveIfAbsentForAttraction(tx, q)
			if err != nil {
				return fmt.Errorf("failed to save tourist quest: %w", err)
			}
			result = saved
			return nil
		})
		if err != nil {
			return nil, err
		}
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*quest.Quest), nil
}
