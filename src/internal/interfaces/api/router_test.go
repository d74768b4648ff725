package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	campaignapp "github.com/jackyeh168/quest_crm/src/internal/application/campaign"
	"github.com/jackyeh168/quest_crm/src/internal/application/catalog"
	"github.com/jackyeh168/quest_crm/src/internal/application/questing"
	rewardapp "github.com/jackyeh168/quest_crm/src/internal/application/reward"
	"github.com/jackyeh168/quest_crm/src/internal/domain/campaign"
	"github.com/jackyeh168/quest_crm/src/internal/domain/participation"
	"github.com/jackyeh168/quest_crm/src/internal/domain/quest"
	"github.com/jackyeh168/quest_crm/src/internal/domain/reward"
	"github.com/jackyeh168/quest_crm/src/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "test-secret"
	testIssuer = "quest-crm"
)

var testNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func init() {
	gin.SetMode(gin.TestMode)
}

// ===========================
// Fakes
// ===========================

type fakeJoiner struct {
	cmd    questing.JoinQuestCommand
	result *questing.JoinQuestResult
	err    error
}

func (f *fakeJoiner) Execute(ctx context.Context, cmd questing.JoinQuestCommand) (*questing.JoinQuestResult, error) {
	f.cmd = cmd
	return f.result, f.err
}

type fakeCompleter struct {
	cmd    questing.CompleteQuestCommand
	result *questing.CompleteQuestResult
	err    error
}

func (f *fakeCompleter) Execute(ctx context.Context, cmd questing.CompleteQuestCommand) (*questing.CompleteQuestResult, error) {
	f.cmd = cmd
	return f.result, f.err
}

type fakeFinder struct {
	query   questing.ReviewsByMenuItemQuery
	records []participation.ReviewRecord
}

func (f *fakeFinder) Execute(query questing.ReviewsByMenuItemQuery) ([]participation.ReviewRecord, error) {
	f.query = query
	return f.records, nil
}

type fakeReviewer struct {
	approved []questing.DecisionCommand
}

func (f *fakeReviewer) Approve(ctx context.Context, cmd questing.DecisionCommand) (*questing.DecisionResult, error) {
	f.approved = append(f.approved, cmd)
	return &questing.DecisionResult{
		ParticipationID: cmd.ParticipationID,
		Status:          participation.StatusCompleted,
		PointsAwarded:   50,
	}, nil
}

func (f *fakeReviewer) Reject(ctx context.Context, cmd questing.DecisionCommand) (*questing.DecisionResult, error) {
	return &questing.DecisionResult{ParticipationID: cmd.ParticipationID, Status: participation.StatusFailed}, nil
}

type fakeCatalog struct {
	quests []*quest.Quest
}

func (f *fakeCatalog) FindActiveForShop(ctx context.Context, shopID string, now time.Time) ([]*quest.Quest, error) {
	return f.quests, nil
}

func (f *fakeCatalog) FindOrCreateTouristQuest(ctx context.Context, attraction quest.TouristAttraction) (*quest.Quest, error) {
	return quest.NewTouristQuest(attraction, testNow)
}

type fakeCreator struct {
	cmd catalog.CreateQuestCommand
}

func (f *fakeCreator) Execute(ctx context.Context, cmd catalog.CreateQuestCommand) (*quest.Quest, error) {
	f.cmd = cmd
	def := cmd.Definition
	def.CreatedBy = cmd.Principal.ID
	return quest.NewQuest(def, testNow)
}

type fakeEngine struct {
	order   campaign.CompletedOrder
	applied []campaign.AppliedCampaign
	err     error
}

func (f *fakeEngine) OnOrderCompleted(ctx context.Context, order campaign.CompletedOrder) ([]campaign.AppliedCampaign, error) {
	f.order = order
	return f.applied, f.err
}

type fakeCampaignJoiner struct{}

func (fakeCampaignJoiner) Execute(ctx context.Context, cmd campaignapp.JoinCampaignCommand) (*campaignapp.JoinCampaignResult, error) {
	return nil, campaign.ErrCampaignFull.WithContext("campaign_id", cmd.CampaignID)
}

type fakeBalance struct {
	query  rewardapp.GetBalanceQuery
	result *rewardapp.GetBalanceResult
	err    error
}

func (f *fakeBalance) Execute(query rewardapp.GetBalanceQuery) (*rewardapp.GetBalanceResult, error) {
	f.query = query
	return f.result, f.err
}

// ===========================
// Harness
// ===========================

type harness struct {
	engine    *gin.Engine
	auth      *Authenticator
	hook      *test.Hook
	joiner    *fakeJoiner
	completer *fakeCompleter
	finder    *fakeFinder
	reviewer  *fakeReviewer
	creator   *fakeCreator
	orders    *fakeEngine
	balance   *fakeBalance
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	h := &harness{
		auth:      NewAuthenticator(testSecret, testIssuer),
		hook:      hook,
		joiner:    &fakeJoiner{},
		completer: &fakeCompleter{},
		finder:    &fakeFinder{},
		reviewer:  &fakeReviewer{},
		creator:   &fakeCreator{},
		orders:    &fakeEngine{},
		balance:   &fakeBalance{result: &rewardapp.GetBalanceResult{Cash: decimal.Zero}},
	}
	router := &Router{
		Auth: h.auth,
		Quests: &QuestHandler{
			Join:     h.joiner,
			Complete: h.completer,
			Finder:   h.finder,
			Reviewer: h.reviewer,
			Catalog:  &fakeCatalog{},
			Creator:  h.creator,
			Logger:   logger,
		},
		Campaigns: &CampaignHandler{
			Join:   fakeCampaignJoiner{},
			Engine: h.orders,
			Clock:  shared.NewFixedClock(testNow),
			Logger: logger,
		},
		Rewards: &RewardHandler{Balance: h.balance, Logger: logger},
		Logger:  logger,
	}
	h.engine = router.Engine()
	return h
}

func (h *harness) token(t *testing.T, id string, userType shared.UserType) string {
	t.Helper()
	token, err := h.auth.Issue(shared.Principal{ID: id, UserType: userType}, time.Now(), time.Hour)
	require.NoError(t, err)
	return token
}

func (h *harness) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.engine.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// ===========================
// 認證
// ===========================

func TestAuth_MissingToken(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/api/me/balance", "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_RejectsInvalidTokens(t *testing.T) {
	h := newHarness(t)
	p := shared.Principal{ID: "user-1", UserType: shared.UserTypeCustomer}

	wrongSecret, err := NewAuthenticator("other", testIssuer).Issue(p, time.Now(), time.Hour)
	require.NoError(t, err)
	wrongIssuer, err := NewAuthenticator(testSecret, "someone-else").Issue(p, time.Now(), time.Hour)
	require.NoError(t, err)
	expired, err := h.auth.Issue(p, time.Now().Add(-2*time.Hour), time.Hour)
	require.NoError(t, err)
	badType, err := h.auth.Issue(shared.Principal{ID: "user-1", UserType: "robot"}, time.Now(), time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"wrong secret", wrongSecret},
		{"wrong issuer", wrongIssuer},
		{"expired", expired},
		{"unknown user type", badType},
		{"garbage", "not-a-jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.do(t, http.MethodGet, "/api/me/balance", tt.token, nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestAuth_AdminRoutesRequireAdmin(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/admin/participations/p-1/approve", h.token(t, "user-1", shared.UserTypeCustomer), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(t, http.MethodPost, "/api/internal/orders/completed", h.token(t, "partner-1", shared.UserTypePartner), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	assert.Empty(t, h.reviewer.approved)
}

func TestAuth_ParseReturnsPrincipal(t *testing.T) {
	auth := NewAuthenticator(testSecret, "")
	token, err := auth.Issue(shared.Principal{ID: "partner-9", UserType: shared.UserTypePartner}, time.Now(), time.Minute)
	require.NoError(t, err)

	p, err := auth.Parse(token)

	require.NoError(t, err)
	assert.Equal(t, "partner-9", p.ID)
	assert.Equal(t, shared.UserTypePartner, p.UserType)
}

// ===========================
// 錯誤映射
// ===========================

func TestStatusForKind(t *testing.T) {
	tests := []struct {
		kind shared.ErrorKind
		want int
	}{
		{shared.KindValidation, http.StatusBadRequest},
		{shared.KindNotFound, http.StatusNotFound},
		{shared.KindStateConflict, http.StatusConflict},
		{shared.KindVerificationFailed, http.StatusUnprocessableEntity},
		{shared.KindExternalDependency, http.StatusServiceUnavailable},
		{shared.KindInvariantViolation, http.StatusInternalServerError},
		{"", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusForKind(tt.kind))
		})
	}
}

func TestRespondError_InvariantViolationIsFlagged(t *testing.T) {
	h := newHarness(t)
	h.balance.err = fmt.Errorf("failed to load balance: %w",
		reward.ErrCorruptedBalance.WithContext("account_id", "acc-1"))

	rec := h.do(t, http.MethodGet, "/api/me/balance", h.token(t, "user-1", shared.UserTypeCustomer), nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "ACCOUNT_BALANCE_CORRUPTED", decode(t, rec)["code"])

	var flagged bool
	for _, e := range h.hook.AllEntries() {
		if e.Data["invariant_violation"] == true {
			flagged = true
			assert.Equal(t, logrus.ErrorLevel, e.Level)
		}
	}
	assert.True(t, flagged)
}

func TestRespondError_InfrastructureErrorHidesDetails(t *testing.T) {
	h := newHarness(t)
	h.joiner.err = errors.New("connection reset by peer")

	rec := h.do(t, http.MethodPost, "/api/quests/q-1/join", h.token(t, "user-1", shared.UserTypeCustomer), nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", decode(t, rec)["error"])
}

// ===========================
// 任務端點
// ===========================

func TestJoinQuest_Success(t *testing.T) {
	h := newHarness(t)
	h.joiner.result = &questing.JoinQuestResult{
		ParticipationID: "p-1",
		QuestID:         "q-1",
		Status:          participation.StatusParticipating,
		JoinedAt:        testNow,
	}

	rec := h.do(t, http.MethodPost, "/api/quests/q-1/join", h.token(t, "user-1", shared.UserTypeCustomer), nil)

	require.Equal(t, http.StatusCreated, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "p-1", body["participationId"])
	assert.Equal(t, "participating", body["status"])
	assert.Equal(t, "q-1", h.joiner.cmd.QuestID)
	assert.Equal(t, "user-1", h.joiner.cmd.Principal.ID)
}

func TestJoinQuest_Full(t *testing.T) {
	h := newHarness(t)
	h.joiner.err = fmt.Errorf("failed to admit: %w", quest.ErrQuestFull.WithContext("quest_id", "q-1"))

	rec := h.do(t, http.MethodPost, "/api/quests/q-1/join", h.token(t, "user-1", shared.UserTypeCustomer), nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "QUEST_FULL", body["code"])
}

func TestCompleteQuest_PassesEvidence(t *testing.T) {
	h := newHarness(t)
	distance := 42.5
	h.completer.result = &questing.CompleteQuestResult{
		ParticipationID: "p-1",
		Status:          participation.StatusCompleted,
		PointsAwarded:   10,
		CashAwarded:     decimal.Zero,
		Distance:        &distance,
	}

	rec := h.do(t, http.MethodPost, "/api/quests/q-1/complete", h.token(t, "user-1", shared.UserTypeCustomer), map[string]interface{}{
		"location": "13.7563,100.5018",
		"data":     map[string]interface{}{"note": "hello"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "13.7563,100.5018", h.completer.cmd.Evidence.Location)
	require.NotNil(t, h.completer.cmd.Evidence.Data)
	v, ok := h.completer.cmd.Evidence.Data.Get("note")
	require.True(t, ok)
	s, _ := v.AsString()
	assert.Equal(t, "hello", s)

	body := decode(t, rec)
	assert.Equal(t, float64(10), body["pointsAwarded"])
	assert.Equal(t, 42.5, body["distance"])
}

func TestCompleteQuest_VerificationFailedCarriesDetails(t *testing.T) {
	h := newHarness(t)
	h.completer.err = participation.ErrVerificationFailed.WithContext("distance", 110.0, "radius", 100.0)

	rec := h.do(t, http.MethodPost, "/api/quests/q-1/complete", h.token(t, "user-1", shared.UserTypeCustomer), map[string]interface{}{
		"location": map[string]interface{}{"lat": 13.7573, "lng": 100.5018},
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	details := decode(t, rec)["details"].(map[string]interface{})
	assert.Equal(t, 110.0, details["distance"])
	assert.Equal(t, 100.0, details["radius"])
}

func TestListReviews_PassesQuery(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/api/quests/q-1/reviews?menuItemId=Pad-Thai", h.token(t, "user-1", shared.UserTypeCustomer), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "q-1", h.finder.query.QuestID)
	assert.Equal(t, "Pad-Thai", h.finder.query.MenuItemID)
	assert.Equal(t, []interface{}{}, decode(t, rec)["reviews"])
}

func TestApproveSubmission_EmptyBody(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/participations/p-7/approve", nil)
	req.Header.Set("Authorization", "Bearer "+h.token(t, "admin-1", shared.UserTypeAdmin))
	rec := httptest.NewRecorder()
	h.engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, h.reviewer.approved, 1)
	assert.Equal(t, "p-7", h.reviewer.approved[0].ParticipationID)
	assert.Equal(t, "admin-1", h.reviewer.approved[0].Reviewer.ID)
	assert.Equal(t, float64(50), decode(t, rec)["pointsAwarded"])
}

func TestCreateQuest_PartnerBecomesAuthor(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/quests", h.token(t, "partner-1", shared.UserTypePartner), map[string]interface{}{
		"shopId":             "shop-1",
		"name":               "Visit us",
		"type":               "location_checkin",
		"verificationMethod": "location_verification",
		"rewardPoints":       10,
		"location":           map[string]interface{}{"lat": 13.75, "lng": 100.5},
		"radiusMeters":       100,
	})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "partner-1", h.creator.cmd.Principal.ID)
	assert.Equal(t, quest.TypeLocationCheckin, h.creator.cmd.Definition.Type)
	require.NotNil(t, h.creator.cmd.Definition.Location)
	assert.Equal(t, 13.75, h.creator.cmd.Definition.Location.Lat)
}

func TestCreateQuest_CustomerForbidden(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/quests", h.token(t, "user-1", shared.UserTypeCustomer), map[string]interface{}{})

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateQuest_InvalidType(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/quests", h.token(t, "admin-1", shared.UserTypeAdmin), map[string]interface{}{
		"name":               "x",
		"type":               "teleport",
		"verificationMethod": "location_verification",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTouristQuest(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/tourist-attractions/wat-pho/quest", h.token(t, "user-1", shared.UserTypeCustomer), map[string]interface{}{
		"name":         "Wat Pho",
		"lat":          13.7465,
		"lng":          100.4927,
		"radiusMeters": 200,
		"rewardPoints": 30,
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "wat-pho", body["touristAttractionId"])
	assert.Equal(t, "location_checkin", body["type"])
}

// ===========================
// 活動與訂單
// ===========================

func TestJoinCampaign_Full(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/campaigns/c-1/join", h.token(t, "user-1", shared.UserTypeCustomer), nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestOrderCompleted_PartialFailure(t *testing.T) {
	h := newHarness(t)
	cid := campaign.NewCampaignID()
	h.orders.applied = []campaign.AppliedCampaign{{
		OrderID: "order-1", CampaignID: cid, CampaignName: "Lunch", PointsAwarded: 25, AppliedAt: testNow,
	}}
	h.orders.err = errors.Join(errors.New("campaign x: storage down"))

	rec := h.do(t, http.MethodPost, "/api/internal/orders/completed", h.token(t, "svc-orders", shared.UserTypeAdmin), map[string]interface{}{
		"orderId":      "order-1",
		"userId":       "user-1",
		"shopId":       "shop-1",
		"foodSubtotal": "250.00",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["partialFailure"])
	applied := body["applied"].([]interface{})
	require.Len(t, applied, 1)
	assert.Equal(t, cid.String(), applied[0].(map[string]interface{})["campaignId"])

	assert.True(t, h.orders.order.FoodSubtotal.Equal(decimal.RequireFromString("250")))
	assert.Equal(t, testNow, h.orders.order.CompletedAt)
}

func TestOrderCompleted_InvalidOrder(t *testing.T) {
	h := newHarness(t)
	h.orders.err = campaign.ErrInvalidOrder.WithContext("field", "foodSubtotal")

	rec := h.do(t, http.MethodPost, "/api/internal/orders/completed", h.token(t, "svc-orders", shared.UserTypeAdmin), map[string]interface{}{
		"orderId": "order-1",
		"userId":  "user-1",
		"shopId":  "shop-1",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ===========================
// 餘額
// ===========================

func TestMyBalance_OwnerTypeFromPrincipal(t *testing.T) {
	h := newHarness(t)
	h.balance.result = &rewardapp.GetBalanceResult{Points: 26, Cash: decimal.Zero}

	rec := h.do(t, http.MethodGet, "/api/me/balance", h.token(t, "owner-1", shared.UserTypePartner), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, reward.OwnerShopOwner, h.balance.query.OwnerType)
	assert.Equal(t, float64(26), decode(t, rec)["points"])

	h.do(t, http.MethodGet, "/api/me/balance", h.token(t, "user-1", shared.UserTypeCustomer), nil)
	assert.Equal(t, reward.OwnerUser, h.balance.query.OwnerType)
}

func TestHealthz(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/healthz", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}
