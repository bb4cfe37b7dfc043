package api

import (
	"github.com/gin-gonic/gin"

	"github.com/aldenshop/alden/internal/transport/api/middlewares"
)

// getUserIDFromContext берет из контекста gin ID текущего юзера. ID устанавливается в
// middlewares.AuthRequired. В случае, если значения в контексте нет или ошибка утверждения
// типа - вернется 0.
func getUserIDFromContext(c *gin.Context) int64 {
	userIDRaw, exist := c.Get(middlewares.CurrentUserIDKey)
	if !exist {
		return 0
	}
	userID, ok := userIDRaw.(int64)
	if !ok {
		return 0
	}
	return userID
}
