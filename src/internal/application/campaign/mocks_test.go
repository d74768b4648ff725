package campaign

import (
	"context"
	"sync"

	rewardapp "github.com/jackyeh168/quest_crm/src/internal/application/reward"
	"github.com/jackyeh168/quest_crm/src/internal/domain/campaign"
	"github.com/jackyeh168/quest_crm/src/internal/domain/reward"
	"github.com/jackyeh168/quest_crm/src/internal/domain/shared"
)

// ===========================
// Mock campaign.Repository + CapacityGuard
// ===========================

type MockCampaignRepository struct {
	mu        sync.Mutex
	campaigns map[string]*campaign.Campaign
	current   map[string]int

	HardDeleteCallCount int
	FindErr             map[string]error
}

func NewMockCampaignRepository() *MockCampaignRepository {
	return &MockCampaignRepository{
		campaigns: make(map[string]*campaign.Campaign),
		current:   make(map[string]int),
		FindErr:   make(map[string]error),
	}
}

func (m *MockCampaignRepository) participants(id campaign.CampaignID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current[id.String()]
}

func (m *MockCampaignRepository) Save(ctx shared.TransactionContext, c *campaign.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.campaigns[c.ID().String()] = c
	return nil
}

func (m *MockCampaignRepository) FindByID(ctx shared.TransactionContext, id campaign.CampaignID) (*campaign.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.FindErr[id.String()]; ok {
		return nil, err
	}
	if c, ok := m.campaigns[id.String()]; ok {
		return c, nil
	}
	return nil, campaign.ErrCampaignNotFound
}

func (m *MockCampaignRepository) Update(ctx shared.TransactionContext, c *campaign.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.campaigns[c.ID().String()] = c
	return nil
}

func (m *MockCampaignRepository) HardDelete(ctx shared.TransactionContext, id campaign.CampaignID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.HardDeleteCallCount++
	delete(m.campaigns, id.String())
	return nil
}

func (m *MockCampaignRepository) TryAdmit(ctx shared.TransactionContext, id campaign.CampaignID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.campaigns[id.String()]
	limit := c.Definition().MaxParticipants
	if limit > 0 && m.current[id.String()] >= limit {
		return campaign.ErrCampaignFull.WithContext("campaign_id", id.String())
	}
	m.current[id.String()]++
	return nil
}

// ===========================
// Mock ParticipationRepository
// ===========================

type MockParticipationRepository struct {
	mu      sync.Mutex
	records []*campaign.Participation
}

func NewMockParticipationRepository() *MockParticipationRepository {
	return &MockParticipationRepository{}
}

func cloneParticipation(p *campaign.Participation, version int) *campaign.Participation {
	out, err := campaign.ReconstructParticipation(campaign.ParticipationRecord{
		ID:                p.ID(),
		CampaignID:        p.CampaignID(),
		UserID:            p.UserID(),
		Status:            p.Status(),
		CompletedAt:       p.CompletedAt(),
		PointsAwarded:     p.PointsAwarded(),
		CompletionCount:   p.CompletionCount(),
		LastCompletedDate: p.LastCompletedDate(),
		JoinedAt:          p.JoinedAt(),
		Version:           version,
	})
	if err != nil {
		panic(err)
	}
	return out
}

func (m *MockParticipationRepository) find(campaignID campaign.CampaignID, userID string) *campaign.Participation {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.records {
		if p.CampaignID().Equals(campaignID) && p.UserID() == userID {
			return cloneParticipation(p, p.Version())
		}
	}
	return nil
}

func (m *MockParticipationRepository) Save(ctx shared.TransactionContext, p *campaign.Participation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.records {
		if existing.CampaignID().Equals(p.CampaignID()) && existing.UserID() == p.UserID() {
			return campaign.ErrAlreadyJoined
		}
	}
	m.records = append(m.records, cloneParticipation(p, p.Version()))
	return nil
}

func (m *MockParticipationRepository) FindByID(ctx shared.TransactionContext, id campaign.ParticipationID) (*campaign.Participation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.records {
		if p.ID().Equals(id) {
			return cloneParticipation(p, p.Version()), nil
		}
	}
	return nil, campaign.ErrParticipationNotFound
}

func (m *MockParticipationRepository) FindByUser(ctx shared.TransactionContext, userID string) ([]*campaign.Participation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*campaign.Participation, 0)
	for _, p := range m.records {
		if p.UserID() == userID {
			out = append(out, cloneParticipation(p, p.Version()))
		}
	}
	return out, nil
}

func (m *MockParticipationRepository) FindByCampaignAndUser(ctx shared.TransactionContext, campaignID campaign.CampaignID, userID string) (*campaign.Participation, error) {
	if p := m.find(campaignID, userID); p != nil {
		return p, nil
	}
	return nil, campaign.ErrParticipationNotFound
}

func (m *MockParticipationRepository) Update(ctx shared.TransactionContext, p *campaign.Participation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.records {
		if existing.ID().Equals(p.ID()) {
			if existing.Version() != p.Version() {
				return shared.ErrConcurrentModification
			}
			m.records[i] = cloneParticipation(p, p.Version()+1)
			return nil
		}
	}
	return campaign.ErrParticipationNotFound
}

// ===========================
// Mock AppliedCampaignRepository
// ===========================

type MockAppliedRepository struct {
	mu      sync.Mutex
	applied []campaign.AppliedCampaign
}

func (m *MockAppliedRepository) Record(ctx shared.TransactionContext, applied campaign.AppliedCampaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.applied {
		if a.OrderID == applied.OrderID && a.CampaignID.Equals(applied.CampaignID) {
			return campaign.ErrAlreadyApplied
		}
	}
	m.applied = append(m.applied, applied)
	return nil
}

func (m *MockAppliedRepository) FindByOrder(ctx shared.TransactionContext, orderID string) ([]campaign.AppliedCampaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]campaign.AppliedCampaign, 0)
	for _, a := range m.applied {
		if a.OrderID == orderID {
			out = append(out, a)
		}
	}
	return out, nil
}

// ===========================
// Mock ShopOwnerResolver
// ===========================

type MockShopOwners map[string]string

func (m MockShopOwners) OwnerOf(ctx shared.TransactionContext, shopID string) (string, error) {
	if owner, ok := m[shopID]; ok {
		return owner, nil
	}
	return "", campaign.ErrShopNotFound.WithContext("shop_id", shopID)
}

// ===========================
// Mock RewardCrediter
// ===========================

type MockCrediter struct {
	mu       sync.Mutex
	commands []rewardapp.CreditCommand
	keys     map[string]struct{}
}

func NewMockCrediter() *MockCrediter {
	return &MockCrediter{keys: make(map[string]struct{})}
}

func (m *MockCrediter) ExecuteWithContext(ctx shared.TransactionContext, cmd rewardapp.CreditCommand) (*rewardapp.CreditResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.keys[cmd.IdempotencyKey]; dup {
		return nil, reward.ErrAlreadySettled.WithContext("idempotency_key", cmd.IdempotencyKey)
	}
	m.keys[cmd.IdempotencyKey] = struct{}{}
	m.commands = append(m.commands, cmd)
	return &rewardapp.CreditResult{PointsBalance: cmd.Points}, nil
}

func (m *MockCrediter) Commands() []rewardapp.CreditCommand {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]rewardapp.CreditCommand, len(m.commands))
	copy(out, m.commands)
	return out
}

func (m *MockCrediter) pointsFor(ownerID string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total int64
	for _, c := range m.commands {
		if c.OwnerID == ownerID {
			total += c.Points
		}
	}
	return total
}

// ===========================
// Mock TransactionManager
// ===========================

type MockTransactionManager struct {
	InTransactionCallCount int
}

func (m *MockTransactionManager) InTransaction(ctx context.Context, fn func(tx shared.TransactionContext) error) error {
	m.InTransactionCallCount++
	return fn(nil)
}
