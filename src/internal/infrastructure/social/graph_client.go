package social

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jackyeh168/quest_crm/src/internal/domain/social"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// 預設值
const (
	DefaultBaseURL       = "https://graph.facebook.com"
	DefaultAPIVersion    = "v19.0"
	DefaultTimeout       = 10 * time.Second
	DefaultMaxConcurrent = 16
	DefaultMaxPages      = 3
)

// graphTimeLayout Graph API 的 created_time 格式（時區不含冒號）
const graphTimeLayout = "2006-01-02T15:04:05-0700"

// Config Graph API 客戶端設定
type Config struct {
	BaseURL    string
	APIVersion string
	// Timeout 單次驗證（所有分頁與端點）的時間上限
	Timeout time.Duration
	// MaxConcurrent 同時進行的驗證數上限
	MaxConcurrent int64
	// MaxPages 每個端點最多讀取的分頁數
	MaxPages int
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.APIVersion == "" {
		c.APIVersion = DefaultAPIVersion
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = DefaultMaxConcurrent
	}
	if c.MaxPages <= 0 {
		c.MaxPages = DefaultMaxPages
	}
}

// GraphClient Facebook Graph API 實作 social.Provider
//
// 貼文（/posts）與打卡（/tagged_places）並行讀取後合併。
type GraphClient struct {
	cfg        Config
	httpClient *http.Client
	sem        *semaphore.Weighted
	logger     logrus.FieldLogger
}

// NewGraphClient 創建 Graph API 客戶端
func NewGraphClient(cfg Config, logger logrus.FieldLogger) *GraphClient {
	cfg.applyDefaults()
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &GraphClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		sem:    semaphore.NewWeighted(cfg.MaxConcurrent),
		logger: logger,
	}
}

// FetchRecentPosts 讀取 since 之後的貼文與打卡
func (c *GraphClient) FetchRecentPosts(ctx context.Context, socialID, accessToken string, since time.Time) ([]social.Post, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, c.unavailable(socialID, err)
	}
	defer c.sem.Release(1)

	var posts, checkins []social.Post
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		posts, err = c.fetchEdge(gctx, socialID, accessToken, "posts", "id,message,created_time,permalink_url,place{name}", since)
		return err
	})
	g.Go(func() error {
		var err error
		checkins, err = c.fetchEdge(gctx, socialID, accessToken, "tagged_places", "id,created_time,place{name}", since)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return append(posts, checkins...), nil
}

// graphItem /posts 與 /tagged_places 共用的欄位
type graphItem struct {
	ID           string `json:"id"`
	Message      string `json:"message"`
	CreatedTime  string `json:"created_time"`
	PermalinkURL string `json:"permalink_url"`
	Place        *struct {
		Name string `json:"name"`
	} `json:"place"`
}

type graphPage struct {
	Data   []graphItem `json:"data"`
	Paging struct {
		Next string `json:"next"`
	} `json:"paging"`
}

// graphError Graph API 錯誤回應
type graphError struct {
	Error struct {
		Message      string `json:"message"`
		Type         string `json:"type"`
		Code         int    `json:"code"`
		ErrorSubcode int    `json:"error_subcode"`
	} `json:"error"`
}

func (c *GraphClient) fetchEdge(ctx context.Context, socialID, accessToken, edge, fields string, since time.Time) ([]social.Post, error) {
	params := url.Values{}
	params.Set("fields", fields)
	params.Set("since", strconv.FormatInt(since.Unix(), 10))
	params.Set("limit", "50")
	next := fmt.Sprintf("%s/%s/%s/%s?%s",
		strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.APIVersion, url.PathEscape(socialID), edge, params.Encode())

	out := make([]social.Post, 0)
	for page := 0; next != "" && page < c.cfg.MaxPages; page++ {
		result, err := c.get(ctx, socialID, accessToken, next)
		if err != nil {
			return nil, err
		}
		for _, item := range result.Data {
			post, ok := toPost(item)
			if !ok {
				continue
			}
			out = append(out, post)
		}
		next = result.Paging.Next
	}
	return out, nil
}

// get 讀取單一分頁
//
// 權杖只放在 Authorization 標頭，不出現在 URL、日誌或錯誤訊息中。
func (c *GraphClient) get(ctx context.Context, socialID, accessToken, endpoint string) (*graphPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create graph request: %w", redactURL(err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.unavailable(socialID, redactURL(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, c.unavailable(socialID, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.mapError(socialID, resp.StatusCode, body)
	}

	var page graphPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, c.unavailable(socialID, fmt.Errorf("failed to decode graph response: %w", err))
	}
	return &page, nil
}

// mapError 將 Graph API 錯誤轉為領域錯誤
//
//   - code 10, 190, 200-299: 權杖缺少權限或已失效
//   - code 100 且節點為粉絲專頁/商業帳號: 帳號類型不支援
//   - 5xx 與其他: 暫時無法使用
func (c *GraphClient) mapError(socialID string, status int, body []byte) error {
	var ge graphError
	_ = json.Unmarshal(body, &ge)
	code := ge.Error.Code
	msg := ge.Error.Message

	switch {
	case code == 10 || code == 190 || (code >= 200 && code <= 299):
		return social.ErrPermissionMissing.WithContext("provider_code", code, "provider_message", msg)
	case code == 100 && isUnsupportedNode(msg):
		return social.ErrUnsupportedAccountType.WithContext("provider_code", code, "provider_message", msg)
	}

	c.logger.WithFields(logrus.Fields{
		"social_id":     socialID,
		"http_status":   status,
		"provider_code": code,
	}).Warn("graph api request failed")
	return fmt.Errorf("%w: graph api status %d: %s",
		social.ErrVerificationUnavailable.WithContext("http_status", status), status, msg)
}

func isUnsupportedNode(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "node type (page)") ||
		strings.Contains(lower, "node type (business") ||
		strings.Contains(lower, "new pages experience")
}

func (c *GraphClient) unavailable(socialID string, cause error) error {
	c.logger.WithField("social_id", socialID).WithError(cause).Warn("graph api unavailable")
	reason := "transport"
	if errors.Is(cause, context.DeadlineExceeded) {
		reason = "timeout"
	}
	return fmt.Errorf("%w: %w", social.ErrVerificationUnavailable.WithContext("reason", reason), cause)
}

// redactURL 移除 *url.Error 中的查詢字串
//
// Graph API 的分頁連結（paging.next）可能自帶 access_token。
func redactURL(err error) error {
	var uerr *url.Error
	if !errors.As(err, &uerr) {
		return err
	}
	redacted := *uerr
	redacted.URL = ""
	if u, perr := url.Parse(uerr.URL); perr == nil {
		u.RawQuery = ""
		u.User = nil
		redacted.URL = u.String()
	}
	return &redacted
}

func toPost(item graphItem) (social.Post, bool) {
	createdAt, err := time.Parse(graphTimeLayout, item.CreatedTime)
	if err != nil {
		createdAt, err = time.Parse(time.RFC3339, item.CreatedTime)
		if err != nil {
			return social.Post{}, false
		}
	}
	post := social.Post{
		ID:        item.ID,
		Message:   item.Message,
		Permalink: item.PermalinkURL,
		CreatedAt: createdAt,
	}
	if item.Place != nil {
		post.PlaceName = item.Place.Name
	}
	return post, true
}
