package middlewares

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/fsdevblog/groph-credits/internal/domain"
	"github.com/fsdevblog/groph-credits/internal/transport/api/tokens"
	"github.com/gin-gonic/gin"
)

var ErrTokenNotExist = errors.New("token not exist")

const CurrentUserIDKey = "currentUserID"

// checkAuthorization извлекает токен из заголовка Authorization и возвращает id пользователя.
// Если токен не передан, вернется ошибка ErrTokenNotExist.
func checkAuthorization(c *gin.Context, jwtTokenSecret []byte) (int64, error) {
	tokenStr, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if !ok || tokenStr == "" {
		return 0, ErrTokenNotExist
	}

	userID, err := tokens.ValidateUserJWT(tokenStr, jwtTokenSecret)
	if err != nil {
		return 0, fmt.Errorf("check authorization: %w", err)
	}
	return userID, nil
}

// AuthRequired проверяет, что запрос авторизован, до любого обращения к данным. Записывает в контекст
// (поле CurrentUserIDKey) id юзера.
func AuthRequired(jwtTokenSecret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := checkAuthorization(c, jwtTokenSecret)
		if err != nil {
			c.AbortWithStatus(http.StatusUnauthorized)
			_ = c.Error(errors.New(domain.ErrUnauthenticated.Msg)).
				SetType(gin.ErrorTypePublic).
				SetMeta(ErrorMeta{Code: domain.KindUnauthenticated.String()})
			if !errors.Is(err, ErrTokenNotExist) {
				_ = c.Error(err).SetType(gin.ErrorTypePrivate)
			}
			return
		}
		c.Set(CurrentUserIDKey, userID)
		c.Next()
	}
}
