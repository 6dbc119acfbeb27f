package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Rashedman4/special-backend/internal/middleware"
	"github.com/Rashedman4/special-backend/internal/pkg"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ID 兼容数字和数字字符串两种写法
type ID uint64

func (id *ID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*id = 0
		return nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return err
	}
	*id = ID(n)
	return nil
}

// optionalID nil、0 都视为未设置
func optionalID(id *ID) *uint64 {
	if id == nil || *id == 0 {
		return nil
	}
	v := uint64(*id)
	return &v
}

// fail 统一错误输出 {message}；5xx 隐藏细节并上报
func fail(c *gin.Context, err error) {
	ae := pkg.AsAppError(err)
	status := ae.HTTPStatus()
	if status >= http.StatusInternalServerError {
		logrus.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Error("request failed")
		if hub := sentrygin.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		}
	}
	c.AbortWithStatusJSON(status, gin.H{"message": ae.Message})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": msg})
}

func paramID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// queryID 空值、null、非法值都返回 nil
func queryID(c *gin.Context, name string) *uint64 {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" || raw == "null" {
		return nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return nil
	}
	return &id
}

func headerID(c *gin.Context, name string) uint64 {
	id, _ := strconv.ParseUint(strings.TrimSpace(c.GetHeader(name)), 10, 64)
	return id
}

// actor 确定操作人：带 token 时声明的 ID 必须与 token 一致，未声明则取 token 中的 ID
func actor(c *gin.Context, claimed uint64) (uint64, error) {
	tokenID, ok := middleware.CurrentUserID(c)
	if !ok {
		return claimed, nil
	}
	if claimed == 0 {
		return tokenID, nil
	}
	if claimed != tokenID {
		return 0, pkg.Forbidden("Not allowed")
	}
	return claimed, nil
}
