package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jackyeh168/quest_crm/src/internal/domain/shared"
)

const (
	principalContextKey = "quest.principal"
	tokenLeeway         = 30 * time.Second
)

var (
	errMissingToken    = errors.New("missing bearer token")
	errInvalidUserType = errors.New("invalid user type claim")
)

// Claims 存取權杖內容（sub = 使用者 ID）
type Claims struct {
	jwt.RegisteredClaims
	UserType string `json:"user_type"`
}

// Authenticator 驗證 HS256 Bearer 權杖並產生 Principal
type Authenticator struct {
	secret []byte
	issuer string
}

// NewAuthenticator 創建驗證器；issuer 為空時不檢查 iss
func NewAuthenticator(secret, issuer string) *Authenticator {
	return &Authenticator{secret: []byte(secret), issuer: issuer}
}

// Parse 解析權杖
func (a *Authenticator) Parse(tokenString string) (shared.Principal, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(tokenLeeway),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return a.secret, nil
	}, opts...)
	if err != nil {
		return shared.Principal{}, err
	}
	if !token.Valid || claims.Subject == "" {
		return shared.Principal{}, jwt.ErrTokenInvalidClaims
	}

	userType := shared.UserType(claims.UserType)
	switch userType {
	case shared.UserTypeCustomer, shared.UserTypePartner, shared.UserTypeAdmin:
	default:
		return shared.Principal{}, errInvalidUserType
	}

	return shared.Principal{ID: claims.Subject, UserType: userType}, nil
}

// Issue 簽發權杖（營運工具與測試使用）
func (a *Authenticator) Issue(p shared.Principal, now time.Time, ttl time.Duration) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserType: string(p.UserType),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Middleware 要求有效的 Bearer 權杖，並將 Principal 放入 gin context
func (a *Authenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := bearerToken(c.GetHeader("Authorization"))
		if err == nil {
			var p shared.Principal
			p, err = a.Parse(tokenString)
			if err == nil {
				c.Set(principalContextKey, p)
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
}

// RequireUserType 限制呼叫者身分類型
func RequireUserType(types ...shared.UserType) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if ok {
			for _, t := range types {
				if p.UserType == t {
					c.Next()
					return
				}
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Error: "forbidden"})
	}
}

// PrincipalFrom 取得 Middleware 放入的 Principal
func PrincipalFrom(c *gin.Context) (shared.Principal, bool) {
	v, ok := c.Get(principalContextKey)
	if !ok {
		return shared.Principal{}, false
	}
	p, ok := v.(shared.Principal)
	return p, ok && !p.IsEmpty()
}

func bearerToken(header string) (string, error) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", errMissingToken
	}
	return strings.TrimSpace(header[len(prefix):]), nil
}
