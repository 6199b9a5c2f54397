package api

import (
	"github.com/gin-gonic/gin"

	"github.com/mkblog/comment_server/config"
	"github.com/mkblog/comment_server/internal/api/handler"
	"github.com/mkblog/comment_server/internal/api/middleware"
	"github.com/mkblog/comment_server/internal/service"
)

type Router struct {
	authHandler       *handler.AuthHandler
	userHandler       *handler.UserHandler
	commentHandler    *handler.CommentHandler
	moderationHandler *handler.ModerationHandler
	websocketHandler  *handler.WebSocketHandler
	authService       *service.AuthService
	cfg               *config.Config
}

func NewRouter(
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	commentHandler *handler.CommentHandler,
	moderationHandler *handler.ModerationHandler,
	websocketHandler *handler.WebSocketHandler,
	authService *service.AuthService,
	cfg *config.Config,
) *Router {
	return &Router{
		authHandler:       authHandler,
		userHandler:       userHandler,
		commentHandler:    commentHandler,
		moderationHandler: moderationHandler,
		websocketHandler:  websocketHandler,
		authService:       authService,
		cfg:               cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS(r.cfg.CORS))

	api := engine.Group("/api/v1")
	{
		// WebSocket
		api.GET("/ws", r.websocketHandler.Handle)

		// 公开接口 - 认证
		auth := api.Group("/auth")
		{
			auth.POST("/register", r.authHandler.Register)
			auth.POST("/login", r.authHandler.Login)
			auth.POST("/verify-email", r.authHandler.VerifyEmail)
			auth.GET("/github", r.authHandler.GithubAuth)
			auth.GET("/github/callback", r.authHandler.GithubCallback)
		}

		// 需要认证的接口
		authenticated := api.Group("")
		authenticated.Use(middleware.Auth(r.cfg.JWT.Secret))
		{
			// 用户
			user := authenticated.Group("/user")
			{
				user.GET("/profile", r.userHandler.GetProfile)
				user.PUT("/profile", r.userHandler.UpdateProfile)
			}

			// 发表评论
			authenticated.POST("/articles/:id/comments", r.commentHandler.Create)
		}

		// 评论 - 公开读取（可选认证）
		articles := api.Group("/articles")
		articles.Use(middleware.OptionalAuth(r.cfg.JWT.Secret))
		{
			articles.GET("/:id/comments", r.commentHandler.List)
		}

		// 审核 - 仅审核员
		moderation := api.Group("/moderation")
		moderation.Use(middleware.Auth(r.cfg.JWT.Secret))
		moderation.Use(middleware.RequireModerator(r.authService))
		{
			moderation.GET("/comments", r.moderationHandler.ListPending)
			moderation.POST("/comments/:id", r.moderationHandler.Moderate)
			moderation.GET("/comments/:id/records", r.moderationHandler.ListRecords)
		}
	}

	return engine
}
