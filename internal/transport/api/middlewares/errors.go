package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ErrorMeta прикрепляется к gin.Error и попадает в поле code ответа.
type ErrorMeta struct {
	Code string
}

func statusErrorText(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusNotFound:
		return "not found"
	case http.StatusServiceUnavailable:
		return "service unavailable"
	default:
		return "internal server error"
	}
}

// Errors формирует тело ответа по первой ошибке контекста. Текст публичных ошибок отдается клиенту,
// для остальных отдается текст статуса. Если обработчик уже записал тело, ничего не делает.
func Errors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Size() > 0 {
			return
		}

		firstErr := c.Errors[0]
		var msg string
		if firstErr.IsType(gin.ErrorTypePublic) {
			msg = firstErr.Error()
		} else {
			msg = statusErrorText(c.Writer.Status())
		}

		var code string
		if meta, ok := firstErr.Meta.(ErrorMeta); ok {
			code = meta.Code
		}

		if strings.Contains(c.GetHeader("Accept"), "text/plain") {
			c.String(c.Writer.Status(), msg)
		} else {
			body := gin.H{"error": msg}
			if code != "" {
				body["code"] = code
			}
			c.JSON(c.Writer.Status(), body)
		}
		c.Abort()
	}
}
