package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/mkblog/comment_server/internal/model"
	"github.com/mkblog/comment_server/internal/pkg/response"
	"github.com/mkblog/comment_server/internal/service"
)

// RequireModerator 审核员权限中间件，必须在 Auth 之后使用
func RequireModerator(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			response.AuthError(c, "")
			c.Abort()
			return
		}

		user, err := authService.GetUserByID(userID)
		if err != nil {
			response.ServerError(c, "用户信息获取失败")
			c.Abort()
			return
		}

		if user.Role != model.RoleModerator {
			response.PermissionError(c, "需要审核员权限")
			c.Abort()
			return
		}

		c.Next()
	}
}
