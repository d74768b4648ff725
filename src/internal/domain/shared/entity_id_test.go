package shared_test

import (
	"errors"
	"testing"

	"github.com/jackyeh168/quest_crm/src/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 測試用標記類型
type questMarker struct{}
type campaignMarker struct{}

type testQuestID = shared.EntityID[questMarker]
type testCampaignID = shared.EntityID[campaignMarker]

var errInvalidTestQuestID = shared.NewDomainError(shared.KindValidation, "INVALID_TEST_QUEST_ID", "invalid quest id")

func TestNewEntityID_GeneratesUniqueUUIDs(t *testing.T) {
	// Act
	id1 := shared.NewEntityID[questMarker]()
	id2 := shared.NewEntityID[questMarker]()

	// Assert
	assert.NotEmpty(t, id1.String())
	assert.NotEqual(t, id1.String(), id2.String(), "每次生成的 UUID 應該不同")
	assert.False(t, id1.IsEmpty())
}

func TestEntityIDFromString_ValidUUID_Success(t *testing.T) {
	validUUID := "550e8400-e29b-41d4-a716-446655440000"

	id, err := shared.EntityIDFromString[questMarker](validUUID, errInvalidTestQuestID)

	require.NoError(t, err)
	assert.Equal(t, validUUID, id.String())
}

func TestEntityIDFromString_UppercaseIsNormalized(t *testing.T) {
	id, err := shared.EntityIDFromString[questMarker]("550E8400-E29B-41D4-A716-446655440000", errInvalidTestQuestID)

	require.NoError(t, err)
	assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", id.String())
}

func TestEntityIDFromString_InvalidUUID_ReturnsError(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"空字串", ""},
		{"不是 UUID 格式", "not-a-uuid"},
		{"長度不足", "550e8400-e29b-41d4"},
		{"非十六進位", "zzzzzzzz-e29b-41d4-a716-446655440000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := shared.EntityIDFromString[questMarker](tt.value, errInvalidTestQuestID)

			assert.ErrorIs(t, err, errInvalidTestQuestID)
			assert.True(t, id.IsEmpty())

			domainErr, ok := shared.AsDomainError(err)
			require.True(t, ok)
			assert.Equal(t, tt.value, domainErr.Context["input"])
			assert.Contains(t, domainErr.Context, "parse_error")
		})
	}
}

func TestEntityIDFromString_PlainErrorTemplate_ReturnedAsIs(t *testing.T) {
	plain := errors.New("bad id")

	_, err := shared.EntityIDFromString[questMarker]("nope", plain)

	assert.Same(t, plain, err)
}

func TestEntityID_Equals(t *testing.T) {
	a := shared.NewEntityID[questMarker]()
	b, err := shared.EntityIDFromString[questMarker](a.String(), errInvalidTestQuestID)
	require.NoError(t, err)

	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(shared.NewEntityID[questMarker]()))
}

func TestEntityID_ZeroValueIsEmpty(t *testing.T) {
	var id testQuestID
	var other testCampaignID

	assert.True(t, id.IsEmpty())
	assert.True(t, other.IsEmpty())
	assert.Equal(t, "00000000-0000-0000-0000-000000000000", id.String())
}

func TestEntityID_UsableAsMapKey(t *testing.T) {
	id := shared.NewEntityID[questMarker]()
	m := map[testQuestID]int{id: 1}

	copyID, _ := shared.EntityIDFromString[questMarker](id.String(), errInvalidTestQuestID)
	assert.Equal(t, 1, m[copyID])
}
