package shared

// UserType 呼叫者身分類型
type UserType string

const (
	UserTypeCustomer UserType = "user"
	UserTypePartner  UserType = "partner"
	UserTypeAdmin    UserType = "admin"
)

// Principal 已驗證的呼叫者（由 Auth 提供，核心無條件信任）
type Principal struct {
	ID       string
	UserType UserType
}

// SystemAuthor 系統自動建立資料時使用的作者
const SystemAuthor = "system"

// IsAdmin 是否為管理員
func (p Principal) IsAdmin() bool {
	return p.UserType == UserTypeAdmin
}

// IsEmpty 是否缺少身分
func (p Principal) IsEmpty() bool {
	return p.ID == ""
}
