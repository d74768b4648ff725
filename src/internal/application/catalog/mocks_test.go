package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/jackyeh168/quest_crm/src/internal/domain/quest"
	"github.com/jackyeh168/quest_crm/src/internal/domain/shared"
)

// ===========================
// Mock QuestRepository
// ===========================

type MockQuestRepository struct {
	mu                    sync.Mutex
	quests                map[string]*quest.Quest
	lastActiveQueryAt     time.Time
	SaveCallCount         int
	SaveIfAbsentCallCount int
}

func NewMockQuestRepository() *MockQuestRepository {
	return &MockQuestRepository{quests: make(map[string]*quest.Quest)}
}

func (m *MockQuestRepository) put(q *quest.Quest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quests[q.ID().String()] = q
}

func (m *MockQuestRepository) countAttraction(attractionID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, q := range m.quests {
		if q.TouristAttractionID() == attractionID {
			n++
		}
	}
	return n
}

func (m *MockQuestRepository) Save(ctx shared.TransactionContext, q *quest.Quest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveCallCount++
	m.quests[q.ID().String()] = q
	return nil
}

func (m *MockQuestRepository) SaveIfAbsentForAttraction(ctx shared.TransactionContext, q *quest.Quest) (*quest.Quest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveIfAbsentCallCount++
	for _, existing := range m.quests {
		if existing.TouristAttractionID() == q.TouristAttractionID() {
			return existing, nil
		}
	}
	m.quests[q.ID().String()] = q
	return q, nil
}

func (m *MockQuestRepository) FindByID(ctx shared.TransactionContext, id quest.QuestID) (*quest.Quest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if q, ok := m.quests[id.String()]; ok {
		return q, nil
	}
	return nil, quest.ErrQuestNotFound
}

func (m *MockQuestRepository) FindActiveByShop(ctx shared.TransactionContext, shopID string, now time.Time) ([]*quest.Quest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastActiveQueryAt = now
	out := make([]*quest.Quest, 0)
	for _, q := range m.quests {
		if q.ShopID() == shopID && q.IsAvailableAt(now) {
			out = append(out, q)
		}
	}
	return out, nil
}

func (m *MockQuestRepository) FindByTouristAttraction(ctx shared.TransactionContext, attractionID string) (*quest.Quest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, q := range m.quests {
		if q.TouristAttractionID() == attractionID {
			return q, nil
		}
	}
	return nil, quest.ErrQuestNotFound
}

func (m *MockQuestRepository) Update(ctx shared.TransactionContext, q *quest.Quest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quests[q.ID().String()] = q
	return nil
}

// ===========================
// Mock TransactionManager
// ===========================

type MockTransactionManager struct {
	mu                     sync.Mutex
	InTransactionCallCount int
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) InTransaction(ctx context.Context, fn func(tx shared.TransactionContext) error) error {
	m.mu.Lock()
	m.InTransactionCallCount++
	m.mu.Unlock()
	return fn(nil)
}
