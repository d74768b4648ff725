package shared

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ===========================
// 錯誤分類（Error Kind）
// ===========================

// ErrorKind 錯誤分類，決定錯誤在請求邊界的呈現方式
type ErrorKind string

const (
	// KindValidation 輸入格式錯誤（缺少座標、無效枚舉值）
	KindValidation ErrorKind = "validation"
	// KindNotFound 資源不存在
	KindNotFound ErrorKind = "not_found"
	// KindStateConflict 狀態衝突（已參加、已完成、名額已滿、任務未啟用）
	KindStateConflict ErrorKind = "state_conflict"
	// KindVerificationFailed 驗證未通過（距離過遠、找不到貼文、缺少權限）
	KindVerificationFailed ErrorKind = "verification_failed"
	// KindExternalDependency 外部服務逾時或 5xx，可由使用者重試
	KindExternalDependency ErrorKind = "external_dependency"
	// KindInvariantViolation 不變條件遭破壞，代表程式錯誤而非使用者行為
	KindInvariantViolation ErrorKind = "invariant_violation"
)

// ErrorCode 錯誤代碼
type ErrorCode string

// ===========================
// DomainError 結構
// ===========================

// DomainError 領域錯誤
//
// Code 用於 errors.Is 比較；Kind 用於 HTTP 狀態碼映射；
// Context 攜帶讓使用者自行修正的細節（距離、半徑等）。
type DomainError struct {
	Code    ErrorCode
	Kind    ErrorKind
	Message string
	Context map[string]interface{}
}

// NewDomainError 建立預定義錯誤
func NewDomainError(kind ErrorKind, code ErrorCode, message string) *DomainError {
	return &DomainError{Code: code, Kind: kind, Message: message}
}

// Error 實現 error 接口
func (e *DomainError) Error() string {
	if len(e.Context) == 0 {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s (context: %s)", e.Code, e.Message, formatContext(e.Context))
}

// WithContext 添加上下文信息（返回新的錯誤實例）
func (e *DomainError) WithContext(keyValues ...interface{}) error {
	if len(keyValues)%2 != 0 {
		panic("WithContext requires even number of arguments (key-value pairs)")
	}

	ctx := make(map[string]interface{}, len(e.Context)+len(keyValues)/2)
	for k, v := range e.Context {
		ctx[k] = v
	}
	for i := 0; i < len(keyValues); i += 2 {
		key, ok := keyValues[i].(string)
		if !ok {
			panic(fmt.Sprintf("context key must be string, got %T", keyValues[i]))
		}
		ctx[key] = keyValues[i+1]
	}

	return &DomainError{
		Code:    e.Code,
		Kind:    e.Kind,
		Message: e.Message,
		Context: ctx,
	}
}

// Is 實現 errors.Is 接口（以 Code 判斷）
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// KindOf 取得錯誤鏈中第一個 DomainError 的分類
//
// 非 DomainError 一律視為基礎設施錯誤，返回空字串。
func KindOf(err error) ErrorKind {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return ""
}

// AsDomainError 取出錯誤鏈中的 DomainError
func AsDomainError(err error) (*DomainError, bool) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr, true
	}
	return nil, false
}

func formatContext(ctx map[string]interface{}) string {
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, ctx[k]))
	}
	return strings.Join(parts, ", ")
}

// ErrConcurrentModification 樂觀鎖版本衝突
var ErrConcurrentModification = NewDomainError(
	KindStateConflict,
	"CONCURRENT_MODIFICATION",
	"資料已被其他請求修改，請重試",
)
