package questing

import (
	"context"
	"sync"
	"time"

	rewardapp "github.com/jackyeh168/quest_crm/src/internal/application/reward"
	"github.com/jackyeh168/quest_crm/src/internal/domain/participation"
	"github.com/jackyeh168/quest_crm/src/internal/domain/quest"
	"github.com/jackyeh168/quest_crm/src/internal/domain/reward"
	"github.com/jackyeh168/quest_crm/src/internal/domain/shared"
	"github.com/jackyeh168/quest_crm/src/internal/domain/social"
	"github.com/shopspring/decimal"
)

// ===========================
// Mock QuestRepository + CapacityGuard
// ===========================

type MockQuestStore struct {
	mu      sync.Mutex
	quests  map[string]*quest.Quest
	current map[string]int
	spent   map[string]decimal.Decimal

	TryAdmitCallCount int
	ReleaseCallCount  int
	TrySpendCallCount int
}

func NewMockQuestStore() *MockQuestStore {
	return &MockQuestStore{
		quests:  make(map[string]*quest.Quest),
		current: make(map[string]int),
		spent:   make(map[string]decimal.Decimal),
	}
}

func (m *MockQuestStore) put(q *quest.Quest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quests[q.ID().String()] = q
	m.current[q.ID().String()] = q.CurrentParticipants()
	m.spent[q.ID().String()] = q.TotalSpent()
}

func (m *MockQuestStore) participants(id quest.QuestID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current[id.String()]
}

func (m *MockQuestStore) totalSpent(id quest.QuestID) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.spent[id.String()]
}

func (m *MockQuestStore) Save(ctx shared.TransactionContext, q *quest.Quest) error {
	m.put(q)
	return nil
}

func (m *MockQuestStore) SaveIfAbsentForAttraction(ctx shared.TransactionContext, q *quest.Quest) (*quest.Quest, error) {
	m.put(q)
	return q, nil
}

func (m *MockQuestStore) FindByID(ctx shared.TransactionContext, id quest.QuestID) (*quest.Quest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if q, ok := m.quests[id.String()]; ok {
		return q, nil
	}
	return nil, quest.ErrQuestNotFound
}

func (m *MockQuestStore) FindActiveByShop(ctx shared.TransactionContext, shopID string, now time.Time) ([]*quest.Quest, error) {
	return nil, nil
}

func (m *MockQuestStore) FindByTouristAttraction(ctx shared.TransactionContext, attractionID string) (*quest.Quest, error) {
	return nil, quest.ErrQuestNotFound
}

func (m *MockQuestStore) Update(ctx shared.TransactionContext, q *quest.Quest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quests[q.ID().String()] = q
	return nil
}

func (m *MockQuestStore) TryAdmit(ctx shared.TransactionContext, id quest.QuestID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TryAdmitCallCount++
	q := m.quests[id.String()]
	limit := q.MaxParticipants()
	if limit > 0 && m.current[id.String()] >= limit {
		return quest.ErrQuestFull.WithContext("quest_id", id.String())
	}
	m.current[id.String()]++
	return nil
}

func (m *MockQuestStore) Release(ctx shared.TransactionContext, id quest.QuestID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReleaseCallCount++
	if m.current[id.String()] > 0 {
		m.current[id.String()]--
	}
	return nil
}

func (m *MockQuestStore) TrySpend(ctx shared.TransactionContext, id quest.QuestID, amount decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TrySpendCallCount++
	q := m.quests[id.String()]
	next := m.spent[id.String()].Add(amount)
	if q.Budget().IsPositive() && next.GreaterThan(q.Budget()) {
		return quest.ErrBudgetExhausted.WithContext("quest_id", id.String())
	}
	m.spent[id.String()] = next
	return nil
}

// ===========================
// Mock participation.Repository
// ===========================

type MockParticipationRepository struct {
	mu      sync.Mutex
	records map[string]*participation.UserQuest
	reviews []participation.ReviewRecord

	SaveCallCount   int
	UpdateCallCount int
	DeleteCallCount int
}

func NewMockParticipationRepository() *MockParticipationRepository {
	return &MockParticipationRepository{records: make(map[string]*participation.UserQuest)}
}

// cloneUserQuest 模擬從資料庫重新讀取（避免測試共用同一個指標）
func cloneUserQuest(uq *participation.UserQuest, version int) *participation.UserQuest {
	out, err := participation.ReconstructUserQuest(participation.Reconstruct{
		ID:               uq.ID(),
		UserID:           uq.UserID(),
		QuestID:          uq.QuestID(),
		Snapshot:         uq.Snapshot(),
		Status:           uq.Status(),
		VerificationData: shared.NewDocument().Merge(uq.VerificationData()),
		SubmissionData:   shared.NewDocument().Merge(uq.SubmissionData()),
		Reviews:          uq.Reviews(),
		JoinedAt:         uq.JoinedAt(),
		VerifiedAt:       uq.VerifiedAt(),
		CompletedAt:      uq.CompletedAt(),
		Version:          version,
	})
	if err != nil {
		panic(err)
	}
	return out
}

func (m *MockParticipationRepository) get(id participation.ParticipationID) *participation.UserQuest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if uq, ok := m.records[id.String()]; ok {
		return cloneUserQuest(uq, uq.Version())
	}
	return nil
}

func (m *MockParticipationRepository) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func (m *MockParticipationRepository) Save(ctx shared.TransactionContext, uq *participation.UserQuest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveCallCount++
	for _, existing := range m.records {
		if existing.UserID() == uq.UserID() && existing.QuestID().Equals(uq.QuestID()) {
			return participation.ErrAlreadyParticipating
		}
	}
	m.records[uq.ID().String()] = cloneUserQuest(uq, uq.Version())
	return nil
}

func (m *MockParticipationRepository) FindByID(ctx shared.TransactionContext, id participation.ParticipationID) (*participation.UserQuest, error) {
	if uq := m.get(id); uq != nil {
		return uq, nil
	}
	return nil, participation.ErrParticipationNotFound
}

func (m *MockParticipationRepository) FindByUserAndQuest(ctx shared.TransactionContext, userID string, questID quest.QuestID) (*participation.UserQuest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, uq := range m.records {
		if uq.UserID() == userID && uq.QuestID().Equals(questID) {
			return cloneUserQuest(uq, uq.Version()), nil
		}
	}
	return nil, participation.ErrParticipationNotFound
}

func (m *MockParticipationRepository) Update(ctx shared.TransactionContext, uq *participation.UserQuest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCallCount++
	stored, ok := m.records[uq.ID().String()]
	if !ok || stored.Version() != uq.Version() || stored.Status() != uq.PersistedStatus() {
		return shared.ErrConcurrentModification.WithContext("participation_id", uq.ID().String())
	}
	m.records[uq.ID().String()] = cloneUserQuest(uq, uq.Version()+1)
	return nil
}

func (m *MockParticipationRepository) Delete(ctx shared.TransactionContext, uq *participation.UserQuest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCallCount++
	stored, ok := m.records[uq.ID().String()]
	if !ok || stored.Version() != uq.Version() {
		return shared.ErrConcurrentModification.WithContext("participation_id", uq.ID().String())
	}
	delete(m.records, uq.ID().String())
	return nil
}

func (m *MockParticipationRepository) AddReviews(ctx shared.TransactionContext, uq *participation.UserQuest, reviews []participation.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range reviews {
		m.reviews = append(m.reviews, participation.ReviewRecord{
			Review:          r,
			ParticipationID: uq.ID(),
			QuestID:         uq.QuestID(),
			UserID:          uq.UserID(),
		})
	}
	return nil
}

func (m *MockParticipationRepository) FindReviewsByMenuItem(ctx shared.TransactionContext, questID *quest.QuestID, menuItemID string) ([]participation.ReviewRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]participation.ReviewRecord, 0)
	for _, r := range m.reviews {
		if questID != nil && !r.QuestID.Equals(*questID) {
			continue
		}
		if r.MatchesMenuItem(menuItemID) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MockParticipationRepository) CountSlotHolders(ctx shared.TransactionContext, questID quest.QuestID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, uq := range m.records {
		if uq.QuestID().Equals(questID) && uq.Status().HoldsSlot() {
			n++
		}
	}
	return n, nil
}

// ===========================
// Mock RewardCrediter
// ===========================

type MockCrediter struct {
	mu       sync.Mutex
	commands []rewardapp.CreditCommand
	keys     map[string]struct{}
	Err      error
}

func NewMockCrediter() *MockCrediter {
	return &MockCrediter{keys: make(map[string]struct{})}
}

func (m *MockCrediter) ExecuteWithContext(ctx shared.TransactionContext, cmd rewardapp.CreditCommand) (*rewardapp.CreditResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if _, dup := m.keys[cmd.IdempotencyKey]; dup {
		return nil, reward.ErrAlreadySettled.WithContext("idempotency_key", cmd.IdempotencyKey)
	}
	m.keys[cmd.IdempotencyKey] = struct{}{}
	m.commands = append(m.commands, cmd)
	return &rewardapp.CreditResult{PointsBalance: cmd.Points, CashBalance: cmd.Cash}, nil
}

func (m *MockCrediter) Commands() []rewardapp.CreditCommand {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]rewardapp.CreditCommand, len(m.commands))
	copy(out, m.commands)
	return out
}

// ===========================
// Mock SocialVerifier
// ===========================

type MockSocialVerifier struct {
	Result    social.Result
	Err       error
	CallCount int
	LastReq   social.Request
}

func (m *MockSocialVerifier) VerifyPost(ctx context.Context, req social.Request) (social.Result, error) {
	m.CallCount++
	m.LastReq = req
	return m.Result, m.Err
}

// ===========================
// Mock settings.Store
// ===========================

type MockSettingsStore struct {
	values map[string]string
	Err    error
}

func NewMockSettingsStore(values map[string]string) *MockSettingsStore {
	if values == nil {
		values = make(map[string]string)
	}
	return &MockSettingsStore{values: values}
}

func (m *MockSettingsStore) Get(ctx context.Context, key string) (string, bool, error) {
	if m.Err != nil {
		return "", false, m.Err
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MockSettingsStore) Set(ctx context.Context, key, value string) error {
	m.values[key] = value
	return nil
}

// ===========================
// Mock EventPublisher
// ===========================

type MockEventPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (m *MockEventPublisher) Publish(event shared.DomainEvent) error {
	return m.PublishBatch([]shared.DomainEvent{event})
}

func (m *MockEventPublisher) PublishBatch(events []shared.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

func (m *MockEventPublisher) Published() []shared.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]shared.DomainEvent, len(m.events))
	copy(out, m.events)
	return out
}

// ===========================
// Mock TransactionManager
// ===========================

// MockTransactionManager 不提供回滾；測試只斷言失敗路徑不寫入後續步驟
type MockTransactionManager struct {
	InTransactionCallCount int
}

func (m *MockTransactionManager) InTransaction(ctx context.Context, fn func(tx shared.TransactionContext) error) error {
	m.InTransactionCallCount++
	return fn(nil)
}
