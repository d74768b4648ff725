package social

import (
	"context"
	"strings"
	"time"

	"github.com/jackyeh168/quest_crm/src/internal/domain/shared"
)

// DefaultLookback 未指定起始時間時的查詢區間
const DefaultLookback = 7 * 24 * time.Hour

// 社群驗證相關錯誤
var (
	ErrMissingSocialAccount = shared.NewDomainError(
		shared.KindValidation, "SOCIAL_ACCOUNT_MISSING", "請先連結社群帳號（缺少 socialId 或 accessToken）",
	)

	ErrPermissionMissing = shared.NewDomainError(
		shared.KindVerificationFailed, "SOCIAL_PERMISSION_MISSING", "存取權杖缺少讀取貼文的權限，請重新授權並允許讀取貼文",
	)

	ErrUnsupportedAccountType = shared.NewDomainError(
		shared.KindVerificationFailed, "SOCIAL_UNSUPPORTED_ACCOUNT_TYPE", "此帳號類型（粉絲專頁或商業帳號）無法查詢貼文，請改用個人帳號",
	)

	ErrVerificationUnavailable = shared.NewDomainError(
		shared.KindExternalDependency, "SOCIAL_VERIFICATION_UNAVAILABLE", "社群平台暫時無法回應，請稍後再試",
	)
)

// Post 社群貼文或打卡
type Post struct {
	ID        string    `json:"id"`
	Message   string    `json:"message,omitempty"`
	PlaceName string    `json:"placeName,omitempty"`
	Permalink string    `json:"permalink,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Provider 外部社群平台
//
// 實作需在有限時間內返回；權限不足返回 ErrPermissionMissing，
// 帳號類型不支援返回 ErrUnsupportedAccountType，逾時與 5xx 返回 ErrVerificationUnavailable。
type Provider interface {
	FetchRecentPosts(ctx context.Context, socialID, accessToken string, since time.Time) ([]Post, error)
}

// Request 驗證請求
type Request struct {
	SocialID      string
	AccessToken   string
	Hashtags      []string
	PlaceNameHint string
	Since         time.Time
}

// Result 驗證結果
type Result struct {
	Matched      bool   `json:"matched"`
	MatchedPosts []Post `json:"matchedPosts"`
}

// Verifier 社群貼文驗證
type Verifier struct {
	provider Provider
	clock    shared.Clock
	lookback time.Duration
}

// NewVerifier 創建驗證器
func NewVerifier(provider Provider, clock shared.Clock) *Verifier {
	return &Verifier{provider: provider, clock: clock, lookback: DefaultLookback}
}

// WithLookback 設定未指定起始時間時的查詢區間
func (v *Verifier) WithLookback(d time.Duration) *Verifier {
	if d > 0 {
		v.lookback = d
	}
	return v
}

// VerifyPost 查詢使用者近期貼文，判斷是否有符合的 hashtag 或地點
//
// 沒有貼文時返回 Matched=false 而非錯誤。
func (v *Verifier) VerifyPost(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.SocialID) == "" || strings.TrimSpace(req.AccessToken) == "" {
		return Result{}, ErrMissingSocialAccount
	}

	now := v.clock.Now()
	since := req.Since
	if since.IsZero() {
		since = now.Add(-v.lookback)
	}

	posts, err := v.provider.FetchRecentPosts(ctx, req.SocialID, req.AccessToken, since)
	if err != nil {
		return Result{}, err
	}

	matched := MatchPosts(posts, req.Hashtags, req.PlaceNameHint, since, now)
	return Result{Matched: len(matched) > 0, MatchedPosts: matched}, nil
}

// MatchPosts 篩選區間 [since, now] 內符合條件的貼文
//
// 符合條件：內文包含任一 hashtag（不分大小寫），或地點名稱與提示互為子字串。
func MatchPosts(posts []Post, hashtags []string, placeHint string, since, now time.Time) []Post {
	tags := normalizeHashtags(hashtags)
	hint := normalizeText(placeHint)

	matched := make([]Post, 0)
	for _, post := range posts {
		if post.CreatedAt.Before(since) || post.CreatedAt.After(now) {
			continue
		}
		if containsAnyHashtag(post.Message, tags) || placeMatches(post.PlaceName, hint) {
			matched = append(matched, post)
		}
	}
	return matched
}

func containsAnyHashtag(message string, tags []string) bool {
	if message == "" {
		return false
	}
	text := strings.ToLower(message)
	for _, tag := range tags {
		if strings.Contains(text, tag) {
			return true
		}
	}
	return false
}

func placeMatches(placeName, hint string) bool {
	name := normalizeText(placeName)
	if name == "" || hint == "" {
		return false
	}
	return strings.Contains(name, hint) || strings.Contains(hint, name)
}

func normalizeHashtags(hashtags []string) []string {
	out := make([]string, 0, len(hashtags))
	for _, tag := range hashtags {
		tag = normalizeText(tag)
		if tag == "" || tag == "#" {
			continue
		}
		if !strings.HasPrefix(tag, "#") {
			tag = "#" + tag
		}
		out = append(out, tag)
	}
	return out
}

func normalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
