package reward

import "github.com/jackyeh168/quest_crm/src/internal/domain/shared"

// AccountMarker 是 AccountID 的標記類型
type AccountMarker struct{}

// AccountID 獎勵帳戶的唯一標識符
type AccountID = shared.EntityID[AccountMarker]

// NewAccountID 生成新的帳戶 ID
func NewAccountID() AccountID {
	return shared.NewEntityID[AccountMarker]()
}

// AccountIDFromString 從字串解析帳戶 ID
func AccountIDFromString(s string) (AccountID, error) {
	return shared.EntityIDFromString[AccountMarker](s, ErrInvalidAccountID)
}

// EntryMarker 是 EntryID 的標記類型
type EntryMarker struct{}

// EntryID 帳本記錄的唯一標識符
type EntryID = shared.EntityID[EntryMarker]

// NewEntryID 生成新的帳本記錄 ID
func NewEntryID() EntryID {
	return shared.NewEntityID[EntryMarker]()
}

// EntryIDFromString 從字串解析帳本記錄 ID
func EntryIDFromString(s string) (EntryID, error) {
	return shared.EntityIDFromString[EntryMarker](s, ErrInvalidEntryID)
}
