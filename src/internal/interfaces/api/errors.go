package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackyeh168/quest_crm/src/internal/domain/shared"
	"github.com/sirupsen/logrus"
)

// ErrorResponse 錯誤回應格式
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// StatusForKind 錯誤分類對應的 HTTP 狀態碼
func StatusForKind(kind shared.ErrorKind) int {
	switch kind {
	case shared.KindValidation:
		return http.StatusBadRequest
	case shared.KindNotFound:
		return http.StatusNotFound
	case shared.KindStateConflict:
		return http.StatusConflict
	case shared.KindVerificationFailed:
		return http.StatusUnprocessableEntity
	case shared.KindExternalDependency:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError 將錯誤轉為 JSON 回應
//
// DomainError 帶出 code 與 context（距離、半徑等），讓使用者自行修正；
// 非 DomainError 一律隱藏細節並以 Error 級別記錄。
func respondError(c *gin.Context, log logrus.FieldLogger, op string, err error) {
	log = log.WithField("op", op)

	domainErr, ok := shared.AsDomainError(err)
	if !ok {
		log.WithError(err).Error("request failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}

	status := StatusForKind(domainErr.Kind)
	switch {
	case domainErr.Kind == shared.KindInvariantViolation:
		log.WithError(err).WithField("invariant_violation", true).Error("invariant violated")
	case status >= http.StatusInternalServerError:
		log.WithError(err).Error("request failed")
	default:
		log.WithError(err).Warn("request rejected")
	}

	c.JSON(status, ErrorResponse{
		Error:   domainErr.Message,
		Code:    string(domainErr.Code),
		Details: domainErr.Context,
	})
}

// respondBadRequest 請求格式錯誤（無法綁定 JSON 等）
func respondBadRequest(c *gin.Context, log logrus.FieldLogger, op string, err error) {
	log.WithField("op", op).WithError(err).Warn("invalid request body")
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
}
